package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service owns the invoice lifecycle: one draft invoice per order, service
// charges while the draft is open, a freeze at finalization, and immutable
// refund invoices for corrections after the fact.
type Service interface {
	GenerateForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error)
	AddServiceCharge(ctx context.Context, input AddServiceChargeInput) (*models.Invoice, error)
	Finalize(ctx context.Context, invoiceID, actorID uuid.UUID) (*models.Invoice, error)
	CreateRefundInvoice(ctx context.Context, input RefundInvoiceInput) (*models.Invoice, error)
	Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	GetPrimaryForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error)
}

// AddServiceChargeInput appends one billable line to a draft invoice.
type AddServiceChargeInput struct {
	InvoiceID      uuid.UUID
	ItemType       enums.InvoiceItemType
	Description    string
	Qty            int
	UnitPricePaise int64
}

// RefundInvoiceInput creates a refund invoice against an order's primary
// invoice. Amount is positive; the generated line carries it negated.
type RefundInvoiceInput struct {
	OrderID     uuid.UUID
	AmountPaise int64
	Reason      string
}

type service struct {
	repo    Repository
	auditor audit.Service
	policy  config.PolicyConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the invoices service with the required dependencies.
func NewService(repo Repository, auditor audit.Service, policy config.PolicyConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		auditor: auditor,
		policy:  policy,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// GenerateForOrder builds the draft invoice for an order: one rental line per
// order item, taxed at the configured rate, plus an untaxed deposit line when
// a security deposit was collected. At most one primary invoice may exist per
// order.
func (s *service) GenerateForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items to invoice")
	}

	if existing, err := s.repo.FindPrimaryByOrder(ctx, order.ID); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an invoice").
			WithDetails(map[string]any{"invoice_id": existing.ID.String()})
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
	}

	lines := make([]models.InvoiceLineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		amount := item.UnitPricePaise * int64(item.Qty)
		lines = append(lines, models.InvoiceLineItem{
			Description:    item.ProductName,
			ItemType:       enums.InvoiceItemTypeRental,
			Qty:            item.Qty,
			UnitPricePaise: item.UnitPricePaise,
			TaxPaise:       taxFor(amount, s.policy.TaxRateBasisPoints),
			TotalPaise:     amount + taxFor(amount, s.policy.TaxRateBasisPoints),
		})
	}
	if order.DepositPaise > 0 {
		lines = append(lines, models.InvoiceLineItem{
			Description:    "Security deposit",
			ItemType:       enums.InvoiceItemTypeDeposit,
			Qty:            1,
			UnitPricePaise: order.DepositPaise,
			TaxPaise:       0,
			TotalPaise:     order.DepositPaise,
		})
	}

	subtotal, tax, total := computeTotals(lines)
	invoice := &models.Invoice{
		OrderID:       order.ID,
		VendorID:      order.VendorID,
		CustomerID:    order.CustomerID,
		SubtotalPaise: subtotal,
		TaxPaise:      tax,
		TotalPaise:    total,
		Status:        enums.InvoiceStatusDraft,
		LineItems:     lines,
	}
	if err := s.createWithNumberRetry(ctx, invoice); err != nil {
		return nil, err
	}

	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityInvoice,
		EntityID:   invoice.ID.String(),
		Action:     "invoice.generated",
		Context: map[string]any{
			"order_id":    order.ID.String(),
			"total_paise": total,
		},
	}); err != nil {
		s.logg.Error(ctx, "audit invoice generation", err)
	}
	return invoice, nil
}

// AddServiceCharge appends a deposit, delivery, fee, or penalty line to a
// draft invoice and recomputes the header totals from all lines.
func (s *service) AddServiceCharge(ctx context.Context, input AddServiceChargeInput) (*models.Invoice, error) {
	if !input.ItemType.IsServiceCharge() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item type cannot be added as a service charge").
			WithDetails(map[string]any{"item_type": input.ItemType.String()})
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPricePaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	invoice, err := s.loadInvoice(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "finalized invoices are immutable").
			WithDetails(map[string]any{"invoice_id": invoice.ID.String()})
	}

	amount := input.UnitPricePaise * int64(input.Qty)
	tax := int64(0)
	// Deposits and penalties move money that was already taxed or is a
	// passthrough; only delivery and fee charges attract tax.
	if input.ItemType == enums.InvoiceItemTypeDelivery || input.ItemType == enums.InvoiceItemTypeFee {
		tax = taxFor(amount, s.policy.TaxRateBasisPoints)
	}
	line := models.InvoiceLineItem{
		InvoiceID:      invoice.ID,
		Description:    input.Description,
		ItemType:       input.ItemType,
		Qty:            input.Qty,
		UnitPricePaise: input.UnitPricePaise,
		TaxPaise:       tax,
		TotalPaise:     amount + tax,
	}
	if err := s.repo.AddLineItem(ctx, &line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist line item")
	}
	invoice.LineItems = append(invoice.LineItems, line)

	subtotal, taxTotal, total := computeTotals(invoice.LineItems)
	if err := s.repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
		"subtotal_paise": subtotal,
		"tax_paise":      taxTotal,
		"total_paise":    total,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice totals")
	}
	invoice.SubtotalPaise = subtotal
	invoice.TaxPaise = taxTotal
	invoice.TotalPaise = total
	return invoice, nil
}

// Finalize freezes a draft invoice. Finalizing twice is an error, not a no-op.
// The actor is whoever drove the freeze, usually the vendor completing the
// rental; uuid.Nil records it as a system action.
func (s *service) Finalize(ctx context.Context, invoiceID, actorID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "invoice already finalized").
			WithDetails(map[string]any{"invoice_id": invoice.ID.String()})
	}

	finalizedAt := s.now().UTC()
	if err := s.repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
		"status":       enums.InvoiceStatusFinalized,
		"finalized_at": finalizedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize invoice")
	}
	invoice.Status = enums.InvoiceStatusFinalized
	invoice.FinalizedAt = &finalizedAt

	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityInvoice,
		EntityID:   invoice.ID.String(),
		Actor:      audit.Actor(actorID),
		Action:     "invoice.finalized",
		Context: map[string]any{
			"order_id":    invoice.OrderID.String(),
			"total_paise": invoice.TotalPaise,
		},
	}); err != nil {
		s.logg.Error(ctx, "audit invoice finalization", err)
	}
	return invoice, nil
}

// CreateRefundInvoice issues a negative invoice referencing the order's
// primary invoice. Refund invoices are born finalized; the original document
// is never touched.
func (s *service) CreateRefundInvoice(ctx context.Context, input RefundInvoiceInput) (*models.Invoice, error) {
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	original, err := s.repo.FindPrimaryByOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no invoice to refund against")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load original invoice")
	}

	finalizedAt := s.now().UTC()
	line := models.InvoiceLineItem{
		Description:    fmt.Sprintf("Refund: %s", input.Reason),
		ItemType:       enums.InvoiceItemTypeRefund,
		Qty:            1,
		UnitPricePaise: -input.AmountPaise,
		TaxPaise:       0,
		TotalPaise:     -input.AmountPaise,
	}
	refund := &models.Invoice{
		OrderID:           original.OrderID,
		VendorID:          original.VendorID,
		CustomerID:        original.CustomerID,
		SubtotalPaise:     -input.AmountPaise,
		TaxPaise:          0,
		TotalPaise:        -input.AmountPaise,
		Status:            enums.InvoiceStatusFinalized,
		OriginalInvoiceID: &original.ID,
		FinalizedAt:       &finalizedAt,
		LineItems:         []models.InvoiceLineItem{line},
	}
	if err := s.createWithNumberRetry(ctx, refund); err != nil {
		return nil, err
	}

	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		EntityType: audit.EntityInvoice,
		EntityID:   refund.ID.String(),
		Action:     "invoice.refund_created",
		Context: map[string]any{
			"order_id":            input.OrderID.String(),
			"original_invoice_id": original.ID.String(),
			"amount_paise":        input.AmountPaise,
		},
	}); err != nil {
		s.logg.Error(ctx, "audit refund invoice", err)
	}
	return refund, nil
}

func (s *service) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.loadInvoice(ctx, invoiceID)
}

func (s *service) GetPrimaryForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindPrimaryByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return rows, nil
}

func (s *service) loadInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindInvoice(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// createWithNumberRetry assigns a fresh invoice number and retries creation a
// bounded number of times when the number collides.
func (s *service) createWithNumberRetry(ctx context.Context, invoice *models.Invoice) error {
	attempts := s.policy.OrderNumberMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		invoice.InvoiceNumber = GenerateInvoiceNumber(s.now())
		err := s.repo.CreateInvoice(ctx, invoice)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, "invoice_number") {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice")
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique invoice number")
}
