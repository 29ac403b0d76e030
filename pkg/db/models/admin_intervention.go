package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// AdminIntervention is a pending-queue entry created when a failure cannot be
// auto-remediated (currently: refund initiation failures).
type AdminIntervention struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category   enums.FailureCategory    `gorm:"column:category;type:failure_category;not null"`
	OrderID    *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	PaymentID  *uuid.UUID               `gorm:"column:payment_id;type:uuid"`
	RefundID   *uuid.UUID               `gorm:"column:refund_id;type:uuid"`
	Status     enums.InterventionStatus `gorm:"column:status;type:intervention_status;not null;default:'pending'"`
	Details    json.RawMessage          `gorm:"column:details;type:jsonb"`
	ResolvedAt *time.Time               `gorm:"column:resolved_at"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
