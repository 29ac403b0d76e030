package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// Refund is a financial reversal against one order/payment pair. Gateway
// failures land in status failed with a structured failure reason rather than
// propagating as errors; the recovery policy inspects that state.
type Refund struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID       uuid.UUID          `gorm:"column:payment_id;type:uuid;not null"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	AmountPaise     int64              `gorm:"column:amount_paise;not null"`
	Reason          string             `gorm:"column:reason;not null"`
	Status          enums.RefundStatus `gorm:"column:status;type:refund_status;not null;default:'pending'"`
	GatewayRefundID *string            `gorm:"column:gateway_refund_id"`
	FailureReason   *string            `gorm:"column:failure_reason"`
	CompletedAt     *time.Time         `gorm:"column:completed_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
