package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// InvoiceLineItem is one billable component on an invoice.
type InvoiceLineItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID      uuid.UUID             `gorm:"column:invoice_id;type:uuid;not null;index"`
	Description    string                `gorm:"column:description;not null"`
	ItemType       enums.InvoiceItemType `gorm:"column:item_type;type:invoice_item_type;not null"`
	Qty            int                   `gorm:"column:qty;not null;default:1"`
	UnitPricePaise int64                 `gorm:"column:unit_price_paise;not null"`
	TaxPaise       int64                 `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise     int64                 `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
