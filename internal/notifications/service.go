package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
)

const maxSendAttempts = 3

// Sender delivers a notification to an external channel (push, email, SMS).
// The in-process dispatcher retries a bounded number of times and then gives
// up; the persisted row remains either way.
type Sender interface {
	Send(ctx context.Context, notification *models.Notification) error
}

// Service defines notification creation and inbox operations.
type Service interface {
	Notify(ctx context.Context, input NotifyInput)
	List(ctx context.Context, params ListParams) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// NotifyInput captures one outgoing notification.
type NotifyInput struct {
	Audience    enums.NotificationAudience
	RecipientID uuid.UUID
	Type        enums.NotificationType
	Title       string
	Body        string
	Data        map[string]any
}

// ListParams configure inbox listing.
type ListParams struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Limit       int
}

type service struct {
	repo   Repository
	sender Sender
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires notification dependencies. sender may be nil, in which
// case notifications are persisted but not delivered anywhere.
func NewService(repo Repository, sender Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, sender: sender, logg: logg, now: time.Now}, nil
}

// Notify persists the notification and attempts delivery. It is deliberately
// fire-and-forget: delivery failures are logged, never surfaced, so a flaky
// channel cannot fail an order transition.
func (s *service) Notify(ctx context.Context, input NotifyInput) {
	if !input.Audience.IsValid() || input.RecipientID == uuid.Nil {
		s.logg.Warn(s.logg.WithField(ctx, "type", string(input.Type)), "notification dropped: missing audience or recipient")
		return
	}

	var payload json.RawMessage
	if input.Data != nil {
		if raw, err := json.Marshal(input.Data); err == nil {
			payload = raw
		}
	}

	notification := &models.Notification{
		Audience:    input.Audience,
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Body:        input.Body,
		Data:        payload,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, "persist notification", err)
		return
	}

	s.dispatch(ctx, notification)
}

func (s *service) dispatch(ctx context.Context, notification *models.Notification) {
	if s.sender == nil {
		return
	}
	attempts := 0
	for attempts < maxSendAttempts {
		attempts++
		if err := s.sender.Send(ctx, notification); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"notification_id": notification.ID,
				"attempt":         attempts,
			})
			s.logg.Warn(logCtx, "notification send failed")
			continue
		}
		if err := s.repo.MarkDispatched(ctx, notification.ID, attempts, s.now().UTC()); err != nil {
			s.logg.Error(ctx, "mark notification dispatched", err)
		}
		return
	}
	if err := s.repo.RecordAttempts(ctx, notification.ID, attempts); err != nil {
		s.logg.Error(ctx, "record notification attempts", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Notification, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.repo.ListByRecipient(ctx, params.RecipientID, params.UnreadOnly, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.MarkRead(ctx, recipientID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	count, err := s.repo.MarkAllRead(ctx, recipientID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
