package orders

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/internal/invoices"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service drives the order lifecycle from payment verification through
// completion. All status changes go through the transition table; illegal
// requests are rejected, never coerced.
type Service interface {
	CreateFromPayment(ctx context.Context, input CreateOrdersInput) (*CreateOrdersResult, error)
	Activate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Approve(ctx context.Context, input ApproveInput) (*models.Order, error)
	Reject(ctx context.Context, input RejectInput) (*models.Order, error)
	Complete(ctx context.Context, input CompleteInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) ([]models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params ListParams) ([]models.Order, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	payments  payments.Service
	invoicer  invoices.Service
	recoverer recovery.Service
	auditor   audit.Service
	notifier  notifications.Service
	policy    config.PolicyConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the orders service with its collaborators.
func NewService(
	gdb *gorm.DB,
	repo Repository,
	paymentSvc payments.Service,
	invoicer invoices.Service,
	recoverer recovery.Service,
	auditor audit.Service,
	notifier notifications.Service,
	policy config.PolicyConfig,
	logg *logger.Logger,
) (Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("database handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if paymentSvc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if invoicer == nil {
		return nil, fmt.Errorf("invoices service required")
	}
	if recoverer == nil {
		return nil, fmt.Errorf("recovery service required")
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
		db:        gdb,
		repo:      repo,
		payments:  paymentSvc,
		invoicer:  invoicer,
		recoverer: recoverer,
		auditor:   auditor,
		notifier:  notifier,
		policy:    policy,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// CreateFromPayment splits a verified payment's cart into one order per
// vendor. The cart total must match the payment amount exactly before any
// order is created. Each vendor group is created in its own transaction so
// one vendor's failure cannot take down the others; failures come back in
// the result rather than as an error.
func (s *service) CreateFromPayment(ctx context.Context, input CreateOrdersInput) (*CreateOrdersResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	payment, err := s.payments.GetPayment(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "payment is not verified").
			WithDetails(map[string]any{"payment_status": payment.Status.String()})
	}
	if payment.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to a different customer")
	}

	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	periodIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
		periodIDs = append(periodIDs, line.RentalPeriodID)
	}
	products, err := s.repo.LoadProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	periods, err := s.repo.LoadRentalPeriods(ctx, periodIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rental periods")
	}

	groups, err := SplitByVendor(input.Lines, products, periods)
	if err != nil {
		return nil, err
	}

	var cartTotal int64
	for _, group := range groups {
		cartTotal += group.TotalPaise()
	}
	if cartTotal != payment.AmountPaise {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "cart total does not match payment amount").
			WithDetails(map[string]any{
				"cart_total_paise":   cartTotal,
				"payment_amount_paise": payment.AmountPaise,
			})
	}

	result := &CreateOrdersResult{}
	for _, group := range groups {
		order, err := s.createVendorOrder(ctx, input.CustomerID, payment.ID, group)
		if err != nil {
			s.logg.Error(s.logg.WithVendorID(ctx, group.VendorID.String()), "vendor order creation failed", err)
			result.Failures = append(result.Failures, VendorFailure{
				VendorID: group.VendorID,
				Reason:   err.Error(),
			})
			if _, auditErr := s.auditor.Record(ctx, audit.RecordInput{
				EntityType: audit.EntityOrder,
				EntityID:   payment.ID.String(),
				Action:     "order.create_failed",
				Context: map[string]any{
					"vendor_id": group.VendorID.String(),
					"reason":    err.Error(),
				},
			}); auditErr != nil {
				s.logg.Error(ctx, "audit order creation failure", auditErr)
			}
			continue
		}
		s.notifyOrderCreated(ctx, order)

		// Auto-approved orders need no vendor action; the rental window
		// starts immediately.
		if order.Status == enums.OrderStatusAutoApproved {
			activated, err := s.Activate(ctx, order.ID)
			if err != nil {
				s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "activate auto-approved order", err)
			} else {
				order = activated
			}
		}
		result.Orders = append(result.Orders, *order)
	}
	return result, nil
}

// createVendorOrder persists one vendor group as an order, retrying on
// order-number collisions. Each attempt runs in its own transaction.
func (s *service) createVendorOrder(ctx context.Context, customerID, paymentID uuid.UUID, group VendorGroup) (*models.Order, error) {
	attempts := s.policy.OrderNumberMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		order := &models.Order{
			OrderNumber:  GenerateOrderNumber(s.now()),
			CustomerID:   customerID,
			VendorID:     group.VendorID,
			PaymentID:    paymentID,
			Status:       group.InitialStatus(),
			TotalPaise:   group.TotalPaise(),
			DepositPaise: group.DepositPaise,
			RentalDays:   group.MaxRentalDays,
		}
		for _, line := range group.Lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:      line.ProductID,
				VariantID:      line.VariantID,
				RentalPeriodID: line.RentalPeriodID,
				ProductName:    line.Product.Name,
				Qty:            line.Qty,
				UnitPricePaise: line.UnitPricePaise,
				TotalPaise:     line.TotalPaise,
			})
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
				return err
			}
			_, err := s.auditor.RecordTx(ctx, tx, audit.RecordInput{
				EntityType: audit.EntityOrder,
				EntityID:   order.ID.String(),
				Action:     "order.created",
				Actor:      audit.Actor(customerID),
				Context: map[string]any{
					"order_number": order.OrderNumber,
					"vendor_id":    group.VendorID.String(),
					"status":       order.Status.String(),
					"total_paise":  order.TotalPaise,
				},
			})
			return err
		})
		if err == nil {
			return order, nil
		}
		if db.IsUniqueViolation(err, "order_number") {
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique order number")
}

func (s *service) notifyOrderCreated(ctx context.Context, order *models.Order) {
	data := map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber}

	vendorBody := "You have a new rental order."
	if order.Status == enums.OrderStatusPendingVendorApproval {
		vendorBody = "You have a new rental order awaiting your approval."
	}
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceVendor,
		RecipientID: order.VendorID,
		Type:        enums.NotifyOrderCreated,
		Title:       "New rental order",
		Body:        vendorBody,
		Data:        data,
	})
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderCreated,
		Title:       "Order placed",
		Body:        fmt.Sprintf("Your order %s has been placed.", order.OrderNumber),
		Data:        data,
	})
}

// Activate moves an auto-approved order into its rental window. The due date
// starts counting from activation, not from order creation.
func (s *service) Activate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := EnsureTransition(order.Status, enums.OrderStatusActiveRental); err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusAutoApproved {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "only auto-approved orders activate without vendor action").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	now := s.now().UTC()
	dueAt := now.Add(time.Duration(order.RentalDays) * 24 * time.Hour)
	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID,
		enums.OrderStatusAutoApproved, enums.OrderStatusActiveRental,
		map[string]any{"due_at": dueAt})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate order")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
	}
	order.Status = enums.OrderStatusActiveRental
	order.DueAt = &dueAt

	s.generateInvoice(ctx, order)
	s.audit(ctx, order.ID, models.SystemActor, "order.activated", map[string]any{"due_at": dueAt})
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderApproved,
		Title:       "Rental started",
		Body:        fmt.Sprintf("Your rental %s is now active. Return is due by %s.", order.OrderNumber, dueAt.Format("2 Jan 2006")),
		Data:        map[string]any{"order_id": order.ID.String()},
	})
	return order, nil
}

// Approve is the vendor accepting a pending order, which starts the rental.
// Auto-approved orders are activated by the system at creation and take no
// vendor decision.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Order, error) {
	order, err := s.loadVendorOrder(ctx, input.OrderID, input.VendorID)
	if err != nil {
		return nil, err
	}
	if err := EnsureTransition(order.Status, enums.OrderStatusActiveRental); err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPendingVendorApproval {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "only orders pending vendor approval can be approved").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	now := s.now().UTC()
	dueAt := now.Add(time.Duration(order.RentalDays) * 24 * time.Hour)
	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID,
		order.Status, enums.OrderStatusActiveRental,
		map[string]any{"approved_at": now, "due_at": dueAt})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve order")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
	}
	order.Status = enums.OrderStatusActiveRental
	order.ApprovedAt = &now
	order.DueAt = &dueAt

	s.generateInvoice(ctx, order)
	s.audit(ctx, order.ID, audit.Actor(input.VendorID), "order.approved", map[string]any{"due_at": dueAt})
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderApproved,
		Title:       "Order approved",
		Body:        fmt.Sprintf("Your order %s was approved. Return is due by %s.", order.OrderNumber, dueAt.Format("2 Jan 2006")),
		Data:        map[string]any{"order_id": order.ID.String()},
	})
	return order, nil
}

// Reject is the vendor declining a pending order. The customer is refunded in
// full; a failed refund goes to the recovery policy rather than failing the
// rejection, since the order is already terminal by then.
func (s *service) Reject(ctx context.Context, input RejectInput) (*models.Order, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	order, err := s.loadVendorOrder(ctx, input.OrderID, input.VendorID)
	if err != nil {
		return nil, err
	}
	if err := EnsureTransition(order.Status, enums.OrderStatusRejected); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID,
		order.Status, enums.OrderStatusRejected,
		map[string]any{"reject_reason": input.Reason, "rejected_at": now})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject order")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order state changed concurrently")
	}
	order.Status = enums.OrderStatusRejected
	order.RejectReason = &input.Reason
	order.RejectedAt = &now

	s.audit(ctx, order.ID, audit.Actor(input.VendorID), "order.rejected", map[string]any{"reason": input.Reason})
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderRejected,
		Title:       "Order rejected",
		Body:        fmt.Sprintf("Your order %s was rejected by the vendor: %s. A full refund is on its way.", order.OrderNumber, input.Reason),
		Data:        map[string]any{"order_id": order.ID.String()},
	})

	s.refundOrder(ctx, order, order.TotalPaise, "order rejected by vendor")
	return order, nil
}

// Complete closes out an active rental. The deposit disposition is validated
// before any state changes: an invalid disposition must leave the order
// untouched. Double completion is blocked by the conditional status update.
func (s *service) Complete(ctx context.Context, input CompleteInput) (*models.Order, error) {
	if !input.Disposition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid deposit disposition").
			WithDetails(map[string]any{"disposition": string(input.Disposition)})
	}

	order, err := s.loadVendorOrder(ctx, input.OrderID, input.VendorID)
	if err != nil {
		return nil, err
	}

	switch input.Disposition {
	case enums.DepositDispositionPenalty:
		if input.PenaltyPaise <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "penalty disposition requires a positive penalty amount")
		}
		if input.PenaltyPaise > order.DepositPaise {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "penalty cannot exceed the deposit").
				WithDetails(map[string]any{"deposit_paise": order.DepositPaise, "penalty_paise": input.PenaltyPaise})
		}
		if input.Reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason is required when charging a penalty")
		}
	case enums.DepositDispositionWithhold:
		if input.PenaltyPaise != 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "penalty amount only applies to the penalty disposition")
		}
		if input.Reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason is required when withholding the deposit")
		}
	default:
		if input.PenaltyPaise != 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "penalty amount only applies to the penalty disposition")
		}
	}

	if err := EnsureTransition(order.Status, enums.OrderStatusCompleted); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lateFee, daysLate := s.lateFee(order, now)

	updates := map[string]any{
		"completed_at":        now,
		"deposit_disposition": input.Disposition,
		"penalty_paise":       input.PenaltyPaise,
	}
	if input.Reason != "" {
		updates["completion_reason"] = input.Reason
	}
	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID,
		enums.OrderStatusActiveRental, enums.OrderStatusCompleted, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is no longer an active rental")
	}
	order.Status = enums.OrderStatusCompleted
	order.CompletedAt = &now
	disposition := input.Disposition
	order.DepositDisposition = &disposition
	order.PenaltyPaise = input.PenaltyPaise
	if input.Reason != "" {
		order.CompletionReason = &input.Reason
	}

	s.settleInvoice(ctx, order, input.VendorID, lateFee, daysLate, input.PenaltyPaise)
	s.audit(ctx, order.ID, audit.Actor(input.VendorID), "order.completed", map[string]any{
		"disposition":    disposition.String(),
		"penalty_paise":  input.PenaltyPaise,
		"late_fee_paise": lateFee,
		"days_late":      daysLate,
	})
	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyOrderCompleted,
		Title:       "Rental completed",
		Body:        fmt.Sprintf("Your rental %s is complete.", order.OrderNumber),
		Data:        map[string]any{"order_id": order.ID.String()},
	})

	if returnable := depositReturn(order.DepositPaise, disposition, input.PenaltyPaise); returnable > 0 {
		s.refundOrder(ctx, order, returnable, "security deposit return")
	}
	return order, nil
}

// lateFee computes the accrued late fee as of now. Partial days count as a
// full day.
func (s *service) lateFee(order *models.Order, now time.Time) (feePaise int64, daysLate int) {
	if order.DueAt == nil || !now.After(*order.DueAt) {
		return 0, 0
	}
	daysLate = int(math.Ceil(now.Sub(*order.DueAt).Hours() / 24))
	return int64(daysLate) * s.policy.LateFeePaisePerDay, daysLate
}

// depositReturn is the amount refunded to the customer at completion.
func depositReturn(depositPaise int64, disposition enums.DepositDisposition, penaltyPaise int64) int64 {
	switch disposition {
	case enums.DepositDispositionRelease:
		return depositPaise
	case enums.DepositDispositionPenalty:
		return depositPaise - penaltyPaise
	default:
		return 0
	}
}

// settleInvoice appends completion charges to the order's invoice and
// freezes it. Invoice problems are logged, not returned: the order is already
// completed and the financial document can be repaired manually.
func (s *service) settleInvoice(ctx context.Context, order *models.Order, actorID uuid.UUID, lateFee int64, daysLate int, penaltyPaise int64) {
	invoice, err := s.invoicer.GetPrimaryForOrder(ctx, order.ID)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "load invoice for settlement", err)
		return
	}
	if lateFee > 0 {
		if _, err := s.invoicer.AddServiceCharge(ctx, invoices.AddServiceChargeInput{
			InvoiceID:      invoice.ID,
			ItemType:       enums.InvoiceItemTypeFee,
			Description:    fmt.Sprintf("Late return fee (%d days)", daysLate),
			Qty:            1,
			UnitPricePaise: lateFee,
		}); err != nil {
			s.logg.Error(ctx, "add late fee to invoice", err)
		}
	}
	if penaltyPaise > 0 {
		if _, err := s.invoicer.AddServiceCharge(ctx, invoices.AddServiceChargeInput{
			InvoiceID:      invoice.ID,
			ItemType:       enums.InvoiceItemTypePenalty,
			Description:    "Deposit penalty",
			Qty:            1,
			UnitPricePaise: penaltyPaise,
		}); err != nil {
			s.logg.Error(ctx, "add penalty to invoice", err)
		}
	}
	if _, err := s.invoicer.Finalize(ctx, invoice.ID, actorID); err != nil {
		s.logg.Error(ctx, "finalize invoice", err)
	}
}

func (s *service) generateInvoice(ctx context.Context, order *models.Order) {
	if _, err := s.invoicer.GenerateForOrder(ctx, order); err != nil {
		// A conflict here means the invoice already exists, which is fine.
		if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "generate invoice", err)
		}
	}
}

// refundOrder issues a refund and routes gateway failures to the recovery
// policy. Successful refunds also get a refund invoice when the order has a
// primary invoice to correct.
func (s *service) refundOrder(ctx context.Context, order *models.Order, amountPaise int64, reason string) {
	refund, err := s.payments.InitiateRefund(ctx, payments.InitiateRefundInput{
		PaymentID:   order.PaymentID,
		OrderID:     order.ID,
		AmountPaise: amountPaise,
		Reason:      reason,
	})
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "initiate refund", err)
		if reportErr := s.recoverer.ReportFailure(ctx, recovery.FailureInput{
			Category:   enums.FailureRefundInitiation,
			OrderID:    &order.ID,
			PaymentID:  &order.PaymentID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			Details:    map[string]any{"error": err.Error(), "amount_paise": amountPaise},
		}); reportErr != nil {
			s.logg.Error(ctx, "report refund failure", reportErr)
		}
		return
	}
	if refund.Status == enums.RefundStatusFailed {
		if reportErr := s.recoverer.ReportFailure(ctx, recovery.FailureInput{
			Category:   enums.FailureRefundInitiation,
			OrderID:    &order.ID,
			PaymentID:  &order.PaymentID,
			RefundID:   &refund.ID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			Details:    map[string]any{"failure_reason": derefString(refund.FailureReason), "amount_paise": amountPaise},
		}); reportErr != nil {
			s.logg.Error(ctx, "report refund failure", reportErr)
		}
		return
	}

	if _, err := s.invoicer.CreateRefundInvoice(ctx, invoices.RefundInvoiceInput{
		OrderID:     order.ID,
		AmountPaise: amountPaise,
		Reason:      reason,
	}); err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		// NotFound means the order never got an invoice (rejected before
		// activation); there is nothing to correct.
		s.logg.Error(ctx, "create refund invoice", err)
	}

	s.notifier.Notify(ctx, notifications.NotifyInput{
		Audience:    enums.AudienceCustomer,
		RecipientID: order.CustomerID,
		Type:        enums.NotifyRefundIssued,
		Title:       "Refund issued",
		Body:        "Your refund has been processed and will reach your account shortly.",
		Data:        map[string]any{"order_id": order.ID.String(), "amount_paise": amountPaise},
	})
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, orderID)
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params ListParams) ([]models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadVendorOrder(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different vendor")
	}
	return order, nil
}

func (s *service) audit(ctx context.Context, orderID uuid.UUID, actor, action string, context map[string]any) {
	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityOrder,
		EntityID:   orderID.String(),
		Actor:      actor,
		Action:     action,
		Context:    context,
	}); err != nil {
		s.logg.Error(ctx, "audit order change", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
