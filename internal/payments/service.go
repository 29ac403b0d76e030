package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"github.com/kiraya-market/kiraya-backend/pkg/razorpay"
	"gorm.io/gorm"
)

// Gateway is the payment-provider surface the service depends on.
// pkg/razorpay.Client satisfies it.
type Gateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.GatewayOrder, error)
	RefundPayment(ctx context.Context, gatewayPaymentID string, amountPaise int64, notes map[string]any) (*razorpay.GatewayRefund, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// Service wraps the payment gateway with local payment/refund state. It holds
// no order policy: deciding what a failed refund means is the recovery
// policy's job.
type Service interface {
	CreatePaymentOrder(ctx context.Context, input CreatePaymentOrderInput) (*models.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	VerifyAndCapturePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*models.Payment, error)
	InitiateRefund(ctx context.Context, input InitiateRefundInput) (*models.Refund, error)
}

// CreatePaymentOrderInput carries the fields for a new payment intent.
type CreatePaymentOrderInput struct {
	AmountPaise int64
	CustomerID  uuid.UUID
	Metadata    map[string]any
}

// InitiateRefundInput carries the fields for a refund against one order.
type InitiateRefundInput struct {
	PaymentID   uuid.UUID
	OrderID     uuid.UUID
	AmountPaise int64
	Reason      string
}

type service struct {
	repo    Repository
	gateway Gateway
	auditor audit.Service
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the payments service with the required dependencies.
func NewService(repo Repository, gateway Gateway, auditor audit.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		gateway: gateway,
		auditor: auditor,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) CreatePaymentOrder(ctx context.Context, input CreatePaymentOrderInput) (*models.Payment, error) {
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	receipt := fmt.Sprintf("rcpt-%s", uuid.NewString())
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
		AmountPaise: input.AmountPaise,
		Receipt:     receipt,
		Notes:       input.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var metadata json.RawMessage
	if input.Metadata != nil {
		if raw, marshalErr := json.Marshal(input.Metadata); marshalErr == nil {
			metadata = raw
		}
	}

	payment := &models.Payment{
		GatewayOrderID: gatewayOrder.ID,
		CustomerID:     input.CustomerID,
		AmountPaise:    input.AmountPaise,
		Status:         enums.PaymentStatusCreated,
		Metadata:       metadata,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	return payment, nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindPayment(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature)
}

// VerifyAndCapturePayment resolves the pending payment for gatewayOrderID and
// checks the checkout signature. A nil payment with nil error means "cannot
// verify": either no such pending payment exists or the signature was bad (in
// which case the payment is now marked failed). Callers route that outcome
// through the recovery policy rather than treating it as an error.
func (s *service) VerifyAndCapturePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*models.Payment, error) {
	if gatewayOrderID == "" || gatewayPaymentID == "" {
		return nil, nil
	}

	payment, err := s.repo.FindPaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusCreated && payment.Status != enums.PaymentStatusAuthorized {
		// Verified payments are immutable; anything else cannot be captured.
		return nil, nil
	}

	if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		if err := s.repo.MarkPaymentFailed(ctx, payment.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		if _, err := s.auditor.Record(ctx, audit.RecordInput{
			EntityType: audit.EntityPayment,
			EntityID:   payment.ID.String(),
			Action:     "payment.signature_rejected",
			Context: map[string]any{
				"gateway_order_id":   gatewayOrderID,
				"gateway_payment_id": gatewayPaymentID,
			},
		}); err != nil {
			s.logg.Error(ctx, "audit payment signature rejection", err)
		}
		return nil, nil
	}

	if err := s.repo.MarkPaymentVerified(ctx, payment.ID, gatewayPaymentID, signature, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment verified")
	}

	payment.Status = enums.PaymentStatusVerified
	payment.GatewayPaymentID = &gatewayPaymentID
	payment.Signature = &signature
	return payment, nil
}

// InitiateRefund creates the refund record and drives it through the gateway.
// Gateway failures never escape this boundary: they land in the returned
// refund's failed status and failure reason, which the recovery policy
// inspects. The error return is reserved for persistence problems.
func (s *service) InitiateRefund(ctx context.Context, input InitiateRefundInput) (*models.Refund, error) {
	if input.PaymentID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id and order id required")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	payment, err := s.repo.FindPayment(ctx, input.PaymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusVerified || payment.GatewayPaymentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "payment is not in a refundable state")
	}
	if input.AmountPaise > payment.AmountPaise {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds payment amount")
	}

	refund := &models.Refund{
		PaymentID:   input.PaymentID,
		OrderID:     input.OrderID,
		AmountPaise: input.AmountPaise,
		Reason:      input.Reason,
		Status:      enums.RefundStatusPending,
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund")
	}

	if err := s.repo.UpdateRefund(ctx, refund.ID, map[string]any{"status": enums.RefundStatusProcessing}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance refund")
	}
	refund.Status = enums.RefundStatusProcessing

	gatewayRefund, gatewayErr := s.gateway.RefundPayment(ctx, *payment.GatewayPaymentID, input.AmountPaise, map[string]any{
		"order_id": input.OrderID.String(),
		"reason":   input.Reason,
	})
	if gatewayErr != nil {
		reason := gatewayErr.Error()
		if err := s.repo.UpdateRefund(ctx, refund.ID, map[string]any{
			"status":         enums.RefundStatusFailed,
			"failure_reason": reason,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund failure")
		}
		refund.Status = enums.RefundStatusFailed
		refund.FailureReason = &reason
		s.logg.Error(s.logg.WithField(ctx, "refund_id", refund.ID), "gateway refund failed", gatewayErr)
		return refund, nil
	}

	completedAt := s.now().UTC()
	if err := s.repo.UpdateRefund(ctx, refund.ID, map[string]any{
		"status":            enums.RefundStatusCompleted,
		"gateway_refund_id": gatewayRefund.ID,
		"completed_at":      completedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund completion")
	}
	refund.Status = enums.RefundStatusCompleted
	refund.GatewayRefundID = &gatewayRefund.ID
	refund.CompletedAt = &completedAt

	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityRefund,
		EntityID:   refund.ID.String(),
		Action:     "refund.completed",
		Context: map[string]any{
			"order_id":     input.OrderID.String(),
			"payment_id":   input.PaymentID.String(),
			"amount_paise": input.AmountPaise,
		},
	}); err != nil {
		s.logg.Error(ctx, "audit refund completion", err)
	}
	return refund, nil
}
