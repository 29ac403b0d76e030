package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// Invoice is the financial document tied to one order. At most one non-refund
// invoice exists per order; corrections are separate refund invoices pointing
// back at the original via OriginalInvoiceID, never edits.
type Invoice struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber     string              `gorm:"column:invoice_number;not null;unique"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID          uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	SubtotalPaise     int64               `gorm:"column:subtotal_paise;not null"`
	TaxPaise          int64               `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise        int64               `gorm:"column:total_paise;not null"`
	Status            enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'draft'"`
	OriginalInvoiceID *uuid.UUID          `gorm:"column:original_invoice_id;type:uuid"`
	FinalizedAt       *time.Time          `gorm:"column:finalized_at"`
	LineItems         []InvoiceLineItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRefund reports whether this invoice reverses another one.
func (i Invoice) IsRefund() bool {
	return i.OriginalInvoiceID != nil
}
