package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SystemActor is recorded when no human actor drove the change.
const SystemActor = "system"

// AuditLog is an append-only record of every state change and failure.
// Context is structured JSON, never a bare string.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType string          `gorm:"column:entity_type;not null;index:idx_audit_entity"`
	EntityID   string          `gorm:"column:entity_id;not null;index:idx_audit_entity"`
	Actor      string          `gorm:"column:actor;not null"`
	Action     string          `gorm:"column:action;not null"`
	Context    json.RawMessage `gorm:"column:context;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
