package models

import (
	"time"

	"github.com/google/uuid"
)

// Product carries the fields the order splitter reads: vendor ownership,
// availability, the verification flag that drives the initial order status,
// and the per-unit security deposit.
type Product struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name                 string    `gorm:"column:name;not null"`
	Active               bool      `gorm:"column:active;not null;default:true"`
	RequiresVerification bool      `gorm:"column:requires_verification;not null;default:false"`
	UnitPricePaise       int64     `gorm:"column:unit_price_paise;not null"`
	DepositPaise         int64     `gorm:"column:deposit_paise;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
