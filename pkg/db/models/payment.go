package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// Payment is one gateway transaction. It may fund several orders (one per
// vendor) but each order references exactly one payment. Once verified the
// amount and gateway identifiers never change.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;not null;unique"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	Signature        *string             `gorm:"column:signature"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	AmountPaise      int64               `gorm:"column:amount_paise;not null"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'created'"`
	Metadata         json.RawMessage     `gorm:"column:metadata;type:jsonb"`
	VerifiedAt       *time.Time          `gorm:"column:verified_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
