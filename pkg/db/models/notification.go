package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// Notification is a persisted message for a customer, vendor, or admin.
// Dispatch to external channels is fire-and-forget with bounded retry;
// Attempts records how many sends were tried.
type Notification struct {
	ID           uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Audience     enums.NotificationAudience `gorm:"column:audience;type:notification_audience;not null"`
	RecipientID  uuid.UUID                  `gorm:"column:recipient_id;type:uuid;not null;index"`
	Type         enums.NotificationType     `gorm:"column:type;type:notification_type;not null"`
	Title        string                     `gorm:"column:title;not null"`
	Body         string                     `gorm:"column:body;not null"`
	Data         json.RawMessage            `gorm:"column:data;type:jsonb"`
	Attempts     int                        `gorm:"column:attempts;not null;default:0"`
	DispatchedAt *time.Time                 `gorm:"column:dispatched_at"`
	ReadAt       *time.Time                 `gorm:"column:read_at"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
