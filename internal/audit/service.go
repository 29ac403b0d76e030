package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Entity type labels used across the platform.
const (
	EntityOrder   = "order"
	EntityPayment = "payment"
	EntityRefund  = "refund"
	EntityInvoice = "invoice"
	EntityFailure = "failure"
)

// Service records immutable audit entries. Every component funnels state
// changes and failures through here so downstream consumers have a single
// source of truth.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.AuditLog, error)
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditLog, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

// RecordInput captures one audit entry. Context must be a JSON-serializable
// map, never a bare string.
type RecordInput struct {
	EntityType string
	EntityID   string
	Actor      string
	Action     string
	Context    map[string]any
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// Actor formats a user id as an audit actor, falling back to the system actor.
func Actor(id uuid.UUID) string {
	if id == uuid.Nil {
		return models.SystemActor
	}
	return id.String()
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.AuditLog, error) {
	return s.record(ctx, s.repo, input)
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditLog, error) {
	return s.record(ctx, s.repo.WithTx(tx), input)
}

func (s *service) record(ctx context.Context, repo Repository, input RecordInput) (*models.AuditLog, error) {
	if input.EntityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if input.EntityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if input.Action == "" {
		return nil, fmt.Errorf("action is required")
	}
	actor := input.Actor
	if actor == "" {
		actor = models.SystemActor
	}

	var payload json.RawMessage
	if input.Context != nil {
		raw, err := json.Marshal(input.Context)
		if err != nil {
			return nil, fmt.Errorf("marshal audit context: %w", err)
		}
		payload = raw
	}

	entry := &models.AuditLog{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Actor:      actor,
		Action:     input.Action,
		Context:    payload,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("entity type and id are required")
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
