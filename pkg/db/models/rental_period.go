package models

import (
	"time"

	"github.com/google/uuid"
)

// RentalPeriod is a named rental duration a product can be booked for.
type RentalPeriod struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Label     string    `gorm:"column:label;not null"`
	Days      int       `gorm:"column:days;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
