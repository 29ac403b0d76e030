package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one product line within an order. total_paise is always
// unit_price_paise * qty.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	RentalPeriodID uuid.UUID  `gorm:"column:rental_period_id;type:uuid;not null"`
	ProductName    string     `gorm:"column:product_name;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPricePaise int64      `gorm:"column:unit_price_paise;not null"`
	TotalPaise     int64      `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
