package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// Order is the per-vendor rental order produced from one verified payment.
// A payment spanning N vendors yields N orders; an order never spans vendors.
type Order struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string                    `gorm:"column:order_number;not null;unique"`
	CustomerID         uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null"`
	VendorID           uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	PaymentID          uuid.UUID                 `gorm:"column:payment_id;type:uuid;not null"`
	Status             enums.OrderStatus         `gorm:"column:status;type:order_status;not null;default:'pending_vendor_approval'"`
	TotalPaise         int64                     `gorm:"column:total_paise;not null"`
	DepositPaise       int64                     `gorm:"column:deposit_paise;not null;default:0"`
	DepositDisposition *enums.DepositDisposition `gorm:"column:deposit_disposition;type:deposit_disposition"`
	PenaltyPaise       int64                     `gorm:"column:penalty_paise;not null;default:0"`
	RejectReason       *string                   `gorm:"column:reject_reason"`
	CompletionReason   *string                   `gorm:"column:completion_reason"`
	RentalDays         int                       `gorm:"column:rental_days;not null;default:0"`
	DueAt              *time.Time                `gorm:"column:due_at"`
	ApprovedAt         *time.Time                `gorm:"column:approved_at"`
	RejectedAt         *time.Time                `gorm:"column:rejected_at"`
	CancelledAt        *time.Time                `gorm:"column:cancelled_at"`
	CompletedAt        *time.Time                `gorm:"column:completed_at"`
	Items              []OrderItem               `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
