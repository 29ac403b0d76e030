package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderUpdater is the narrow slice of order persistence the recovery policy
// needs for compensating actions. The orders repository satisfies it.
type OrderUpdater interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
}

// Refunder issues refunds during remediation. The payments service satisfies it.
type Refunder interface {
	InitiateRefund(ctx context.Context, input payments.InitiateRefundInput) (*models.Refund, error)
}

// Service is the single entry point for failure handling. Every failure is
// audited and logged; what else happens is driven by the policy table, never
// by ad hoc decisions at the call site.
type Service interface {
	ReportFailure(ctx context.Context, input FailureInput) error
	ListPendingInterventions(ctx context.Context, limit int) ([]models.AdminIntervention, error)
	ResolveIntervention(ctx context.Context, id uuid.UUID) error
}

// FailureInput describes one failure event.
type FailureInput struct {
	Category   enums.FailureCategory
	OrderID    *uuid.UUID
	PaymentID  *uuid.UUID
	RefundID   *uuid.UUID
	CustomerID uuid.UUID
	VendorID   uuid.UUID
	Details    map[string]any
}

type service struct {
	repo     Repository
	orders   OrderUpdater
	refunder Refunder
	auditor  audit.Service
	notifier notifications.Service
	policy   config.PolicyConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the recovery policy with its collaborators.
func NewService(
	repo Repository,
	orders OrderUpdater,
	refunder Refunder,
	auditor audit.Service,
	notifier notifications.Service,
	policy config.PolicyConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recovery repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order updater required")
	}
	if refunder == nil {
		return nil, fmt.Errorf("refunder required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		orders:   orders,
		refunder: refunder,
		auditor:  auditor,
		notifier: notifier,
		policy:   policy,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// ReportFailure records the failure, notifies the audiences the policy names,
// and runs the category's remediation. Remediation failures are returned so
// callers know the system is in a degraded state; notification failures never
// propagate.
func (s *service) ReportFailure(ctx context.Context, input FailureInput) error {
	entry, ok := PolicyFor(input.Category)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown failure category").
			WithDetails(map[string]any{"category": string(input.Category)})
	}

	logCtx := s.logg.WithField(ctx, "failure_category", input.Category.String())
	if input.OrderID != nil {
		logCtx = s.logg.WithOrderID(logCtx, input.OrderID.String())
	}
	s.logg.Warn(logCtx, "failure reported")

	auditCtx := map[string]any{"category": input.Category.String()}
	for k, v := range input.Details {
		auditCtx[k] = v
	}
	entityID := "unattributed"
	if input.OrderID != nil {
		entityID = input.OrderID.String()
		auditCtx["order_id"] = input.OrderID.String()
	} else if input.PaymentID != nil {
		entityID = input.PaymentID.String()
	}
	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityFailure,
		EntityID:   entityID,
		Action:     "failure." + input.Category.String(),
		Context:    auditCtx,
	}); err != nil {
		s.logg.Error(logCtx, "audit failure report", err)
	}

	s.notifyAudiences(ctx, entry, input)

	switch entry.Remediation {
	case RemediationRejectOrder:
		return s.rejectOrder(ctx, input)
	case RemediationQueueIntervention:
		return s.queueIntervention(ctx, input)
	case RemediationEscalateApproval:
		return s.escalateApproval(ctx, input)
	default:
		return nil
	}
}

func (s *service) notifyAudiences(ctx context.Context, entry policyEntry, input FailureInput) {
	title, body := failureMessage(input.Category)
	data := map[string]any{"category": input.Category.String()}
	if input.OrderID != nil {
		data["order_id"] = input.OrderID.String()
	}

	if entry.NotifyCustomer && input.CustomerID != uuid.Nil {
		s.notifier.Notify(ctx, notifications.NotifyInput{
			Audience:    enums.AudienceCustomer,
			RecipientID: input.CustomerID,
			Type:        notificationTypeFor(input.Category),
			Title:       title,
			Body:        body,
			Data:        data,
		})
	}
	if entry.NotifyVendor && input.VendorID != uuid.Nil {
		s.notifier.Notify(ctx, notifications.NotifyInput{
			Audience:    enums.AudienceVendor,
			RecipientID: input.VendorID,
			Type:        notificationTypeFor(input.Category),
			Title:       title,
			Body:        body,
			Data:        data,
		})
	}
	if entry.NotifyAdmin {
		adminID, err := uuid.Parse(s.policy.AdminRecipientID)
		if err != nil {
			s.logg.Warn(ctx, "admin notification skipped: no admin recipient configured")
			return
		}
		s.notifier.Notify(ctx, notifications.NotifyInput{
			Audience:    enums.AudienceAdmin,
			RecipientID: adminID,
			Type:        notificationTypeFor(input.Category),
			Title:       title,
			Body:        body,
			Data:        data,
		})
	}
}

// rejectOrder compensates an inventory conflict by marking the partially
// created order rejected so the customer is not charged for stock that was
// never reserved.
func (s *service) rejectOrder(ctx context.Context, input FailureInput) error {
	if input.OrderID == nil {
		return nil
	}
	reason := "cancelled due to inventory conflict"
	updated, err := s.orders.UpdateOrderStatus(ctx, *input.OrderID,
		enums.OrderStatusPendingVendorApproval, enums.OrderStatusRejected,
		map[string]any{
			"reject_reason": reason,
			"rejected_at":   s.now().UTC(),
		})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject conflicted order")
	}
	if !updated {
		// Also try the auto-approved path; the conflict may have surfaced
		// after the verification gate was skipped.
		updated, err = s.orders.UpdateOrderStatus(ctx, *input.OrderID,
			enums.OrderStatusAutoApproved, enums.OrderStatusRejected,
			map[string]any{
				"reject_reason": reason,
				"rejected_at":   s.now().UTC(),
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject conflicted order")
		}
	}
	if !updated {
		s.logg.Warn(s.logg.WithOrderID(ctx, input.OrderID.String()), "inventory conflict remediation skipped: order no longer pending")
	}
	return nil
}

// queueIntervention parks a refund failure for a human. Automatic refund
// retries are deliberately not attempted.
func (s *service) queueIntervention(ctx context.Context, input FailureInput) error {
	var details json.RawMessage
	if input.Details != nil {
		if raw, err := json.Marshal(input.Details); err == nil {
			details = raw
		}
	}
	intervention := &models.AdminIntervention{
		Category:  input.Category,
		OrderID:   input.OrderID,
		PaymentID: input.PaymentID,
		RefundID:  input.RefundID,
		Status:    enums.InterventionStatusPending,
		Details:   details,
	}
	if err := s.repo.CreateIntervention(ctx, intervention); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue admin intervention")
	}
	return nil
}

// escalateApproval handles a vendor sitting on a pending order: remind first,
// and once the order has been pending past the cancel cutoff (and auto-cancel
// is enabled), cancel it and refund the customer in full.
func (s *service) escalateApproval(ctx context.Context, input FailureInput) error {
	if input.OrderID == nil {
		return nil
	}
	order, err := s.orders.FindOrder(ctx, *input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for approval escalation")
	}
	if order.Status != enums.OrderStatusPendingVendorApproval {
		return nil
	}

	age := s.now().Sub(order.CreatedAt)
	cancelAfter := time.Duration(s.policy.ApprovalCancelHours) * time.Hour
	if !s.policy.ApprovalAutoCancel || age < cancelAfter {
		// The reminder notification already went out via the policy table.
		return nil
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, order.ID,
		enums.OrderStatusPendingVendorApproval, enums.OrderStatusCancelled,
		map[string]any{"cancelled_at": s.now().UTC()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-cancel order")
	}
	if !updated {
		return nil
	}

	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityOrder,
		EntityID:   order.ID.String(),
		Action:     "order.auto_cancelled",
		Context: map[string]any{
			"pending_hours": int(age.Hours()),
			"cutoff_hours":  s.policy.ApprovalCancelHours,
		},
	}); err != nil {
		s.logg.Error(ctx, "audit auto-cancel", err)
	}

	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderCancelled,
		Title:       "Order cancelled",
		Body:        "Your order was cancelled because the vendor did not respond in time. A full refund is on its way.",
		Data:        map[string]any{"order_id": order.ID.String()},
	})

	refund, err := s.refunder.InitiateRefund(ctx, payments.InitiateRefundInput{
		PaymentID:   order.PaymentID,
		OrderID:     order.ID,
		AmountPaise: order.TotalPaise,
		Reason:      "vendor approval timeout",
	})
	if err != nil {
		return err
	}
	if refund.Status == enums.RefundStatusFailed {
		return s.ReportFailure(ctx, FailureInput{
			Category:   enums.FailureRefundInitiation,
			OrderID:    &order.ID,
			PaymentID:  &order.PaymentID,
			RefundID:   &refund.ID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			Details:    map[string]any{"failure_reason": derefString(refund.FailureReason)},
		})
	}

	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyRefundIssued,
		Title:       "Refund issued",
		Body:        "Your refund has been processed and will reach your account shortly.",
		Data:        map[string]any{"order_id": order.ID.String(), "amount_paise": refund.AmountPaise},
	})
	return nil
}

func (s *service) ListPendingInterventions(ctx context.Context, limit int) ([]models.AdminIntervention, error) {
	rows, err := s.repo.ListPendingInterventions(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list interventions")
	}
	return rows, nil
}

func (s *service) ResolveIntervention(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "intervention id required")
	}
	resolved, err := s.repo.ResolveIntervention(ctx, id, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve intervention")
	}
	if !resolved {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending intervention not found")
	}
	return nil
}

func notificationTypeFor(category enums.FailureCategory) enums.NotificationType {
	switch category {
	case enums.FailurePaymentVerification:
		return enums.NotifyPaymentFailed
	case enums.FailureInventoryConflict:
		return enums.NotifyOrderRejected
	case enums.FailureRefundInitiation:
		return enums.NotifyRefundFailed
	case enums.FailureVendorTimeout:
		return enums.NotifyApprovalReminder
	case enums.FailureLateReturn:
		return enums.NotifyLateReturn
	case enums.FailureDocumentTimeout:
		return enums.NotifyDocumentMissing
	default:
		return enums.NotifyPaymentFailed
	}
}

func failureMessage(category enums.FailureCategory) (title, body string) {
	switch category {
	case enums.FailurePaymentVerification:
		return "Payment could not be verified", "Your payment could not be verified. No money has been captured; please try again."
	case enums.FailureInventoryConflict:
		return "Item unavailable", "An item in your order became unavailable before it could be reserved. The affected order was cancelled."
	case enums.FailureRefundInitiation:
		return "Refund needs attention", "A refund could not be initiated and requires manual review."
	case enums.FailureVendorTimeout:
		return "Order awaiting your approval", "A rental order has been waiting for your approval. Please approve or reject it."
	case enums.FailureLateReturn:
		return "Rental overdue", "A rented item is past its due date. Late fees accrue daily until it is returned."
	case enums.FailureDocumentTimeout:
		return "Document required", "A required verification document has not been uploaded yet."
	default:
		return "Something went wrong", "An unexpected failure occurred."
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
