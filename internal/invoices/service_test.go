package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/gorm"
)

type fakeInvoiceRepo struct {
	invoices     map[uuid.UUID]*models.Invoice
	dupRemaining int
	createErr    error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[uuid.UUID]*models.Invoice{}}
}

func (f *fakeInvoiceRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeInvoiceRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.dupRemaining > 0 {
		f.dupRemaining--
		return errors.New("UNIQUE constraint failed: invoices.invoice_number")
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	for i := range invoice.LineItems {
		invoice.LineItems[i].InvoiceID = invoice.ID
	}
	copied := *invoice
	f.invoices[invoice.ID] = &copied
	return nil
}

func (f *fakeInvoiceRepo) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (f *fakeInvoiceRepo) FindPrimaryByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	for _, invoice := range f.invoices {
		if invoice.OrderID == orderID && invoice.OriginalInvoiceID == nil {
			copied := *invoice
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInvoiceRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, invoice := range f.invoices {
		if invoice.OrderID == orderID {
			out = append(out, *invoice)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) AddLineItem(ctx context.Context, item *models.InvoiceLineItem) error {
	invoice, ok := f.invoices[item.InvoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	invoice.LineItems = append(invoice.LineItems, *item)
	return nil
}

func (f *fakeInvoiceRepo) UpdateInvoice(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	invoice, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			invoice.Status = value.(enums.InvoiceStatus)
		case "finalized_at":
			at := value.(time.Time)
			invoice.FinalizedAt = &at
		case "subtotal_paise":
			invoice.SubtotalPaise = value.(int64)
		case "tax_paise":
			invoice.TaxPaise = value.(int64)
		case "total_paise":
			invoice.TotalPaise = value.(int64)
		}
	}
	return nil
}

type recordingAudit struct {
	actions []string
	actors  []string
}

func (r *recordingAudit) Record(ctx context.Context, input audit.RecordInput) (*models.AuditLog, error) {
	r.actions = append(r.actions, input.Action)
	r.actors = append(r.actors, input.Actor)
	return &models.AuditLog{}, nil
}

func (r *recordingAudit) RecordTx(ctx context.Context, tx *gorm.DB, input audit.RecordInput) (*models.AuditLog, error) {
	return r.Record(ctx, input)
}

func (r *recordingAudit) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

func newTestService(t *testing.T) (Service, *fakeInvoiceRepo, *recordingAudit) {
	t.Helper()
	repo := newFakeInvoiceRepo()
	auditor := &recordingAudit{}
	policy := config.PolicyConfig{TaxRateBasisPoints: 1800, OrderNumberMaxAttempts: 5}
	svc, err := NewService(repo, auditor, policy, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, auditor
}

func rentalOrder() *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		CustomerID:   uuid.New(),
		VendorID:     uuid.New(),
		DepositPaise: 50000,
		Items: []models.OrderItem{
			{ProductName: "Camera", Qty: 1, UnitPricePaise: 100000, TotalPaise: 100000},
		},
	}
}

func TestService_GenerateForOrder(t *testing.T) {
	svc, _, auditor := newTestService(t)
	order := rentalOrder()

	invoice, err := svc.GenerateForOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusDraft {
		t.Fatalf("status = %s, want draft", invoice.Status)
	}
	if len(invoice.LineItems) != 2 {
		t.Fatalf("expected rental and deposit lines, got %d", len(invoice.LineItems))
	}

	// 100000 rental taxed at 18%, 50000 deposit untaxed.
	if invoice.SubtotalPaise != 150000 {
		t.Errorf("subtotal = %d, want 150000", invoice.SubtotalPaise)
	}
	if invoice.TaxPaise != 18000 {
		t.Errorf("tax = %d, want 18000", invoice.TaxPaise)
	}
	if invoice.TotalPaise != 168000 {
		t.Errorf("total = %d, want 168000", invoice.TotalPaise)
	}

	var depositLine *models.InvoiceLineItem
	for i := range invoice.LineItems {
		if invoice.LineItems[i].ItemType == enums.InvoiceItemTypeDeposit {
			depositLine = &invoice.LineItems[i]
		}
	}
	if depositLine == nil {
		t.Fatal("expected a deposit line")
	}
	if depositLine.TaxPaise != 0 {
		t.Errorf("deposit line must be untaxed, got %d", depositLine.TaxPaise)
	}

	if len(auditor.actions) == 0 || auditor.actions[0] != "invoice.generated" {
		t.Errorf("expected invoice.generated audit entry, got %v", auditor.actions)
	}
}

func TestService_GenerateForOrder_onePerOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := rentalOrder()

	if _, err := svc.GenerateForOrder(context.Background(), order); err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	_, err := svc.GenerateForOrder(context.Background(), order)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on second invoice, got %v", err)
	}
}

func TestService_GenerateForOrder_requiresItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := rentalOrder()
	order.Items = nil

	_, err := svc.GenerateForOrder(context.Background(), order)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_GenerateForOrder_retriesNumberCollision(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.dupRemaining = 2

	invoice, err := svc.GenerateForOrder(context.Background(), rentalOrder())
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if invoice.InvoiceNumber == "" {
		t.Fatal("expected an invoice number after retries")
	}
}

func TestService_AddServiceCharge(t *testing.T) {
	svc, _, _ := newTestService(t)
	invoice, err := svc.GenerateForOrder(context.Background(), rentalOrder())
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}

	updated, err := svc.AddServiceCharge(context.Background(), AddServiceChargeInput{
		InvoiceID:      invoice.ID,
		ItemType:       enums.InvoiceItemTypeDelivery,
		Description:    "Doorstep delivery",
		Qty:            1,
		UnitPricePaise: 10000,
	})
	if err != nil {
		t.Fatalf("AddServiceCharge: %v", err)
	}

	// Delivery attracts tax: 10000 + 1800.
	if updated.SubtotalPaise != invoice.SubtotalPaise+10000 {
		t.Errorf("subtotal = %d", updated.SubtotalPaise)
	}
	if updated.TaxPaise != invoice.TaxPaise+1800 {
		t.Errorf("tax = %d", updated.TaxPaise)
	}
	if updated.TotalPaise != invoice.TotalPaise+11800 {
		t.Errorf("total = %d", updated.TotalPaise)
	}
}

func TestService_AddServiceCharge_penaltyUntaxed(t *testing.T) {
	svc, _, _ := newTestService(t)
	invoice, err := svc.GenerateForOrder(context.Background(), rentalOrder())
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}

	updated, err := svc.AddServiceCharge(context.Background(), AddServiceChargeInput{
		InvoiceID:      invoice.ID,
		ItemType:       enums.InvoiceItemTypePenalty,
		Description:    "Deposit penalty",
		Qty:            1,
		UnitPricePaise: 20000,
	})
	if err != nil {
		t.Fatalf("AddServiceCharge: %v", err)
	}
	if updated.TaxPaise != invoice.TaxPaise {
		t.Errorf("penalty must not change tax: %d -> %d", invoice.TaxPaise, updated.TaxPaise)
	}
	if updated.TotalPaise != invoice.TotalPaise+20000 {
		t.Errorf("total = %d", updated.TotalPaise)
	}
}

func TestService_AddServiceCharge_rejectsNonServiceTypes(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, itemType := range []enums.InvoiceItemType{enums.InvoiceItemTypeRental, enums.InvoiceItemTypeRefund} {
		_, err := svc.AddServiceCharge(context.Background(), AddServiceChargeInput{
			InvoiceID:      uuid.New(),
			ItemType:       itemType,
			Description:    "x",
			Qty:            1,
			UnitPricePaise: 100,
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %s, got %v", itemType, err)
		}
	}
}

func TestService_AddServiceCharge_finalizedInvoiceIsImmutable(t *testing.T) {
	svc, _, _ := newTestService(t)
	invoice, err := svc.GenerateForOrder(context.Background(), rentalOrder())
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if _, err := svc.Finalize(context.Background(), invoice.ID, uuid.New()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, err = svc.AddServiceCharge(context.Background(), AddServiceChargeInput{
		InvoiceID:      invoice.ID,
		ItemType:       enums.InvoiceItemTypeFee,
		Description:    "Late return fee",
		Qty:            1,
		UnitPricePaise: 5000,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestService_Finalize(t *testing.T) {
	svc, repo, auditor := newTestService(t)
	invoice, err := svc.GenerateForOrder(context.Background(), rentalOrder())
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}

	vendorID := uuid.New()
	finalized, err := svc.Finalize(context.Background(), invoice.ID, vendorID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if finalized.Status != enums.InvoiceStatusFinalized || finalized.FinalizedAt == nil {
		t.Fatal("expected finalized status and timestamp")
	}
	if repo.invoices[invoice.ID].Status != enums.InvoiceStatusFinalized {
		t.Fatal("finalization not persisted")
	}

	_, err = svc.Finalize(context.Background(), invoice.ID, vendorID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeIntegrity) {
		t.Fatalf("expected integrity error on double finalize, got %v", err)
	}

	var seen bool
	for i, action := range auditor.actions {
		if action == "invoice.finalized" {
			seen = true
			if auditor.actors[i] != vendorID.String() {
				t.Errorf("finalization actor = %q, want %q", auditor.actors[i], vendorID)
			}
		}
	}
	if !seen {
		t.Error("expected invoice.finalized audit entry")
	}
}

func TestService_CreateRefundInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := rentalOrder()
	original, err := svc.GenerateForOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}

	refund, err := svc.CreateRefundInvoice(context.Background(), RefundInvoiceInput{
		OrderID:     order.ID,
		AmountPaise: 168000,
		Reason:      "order rejected by vendor",
	})
	if err != nil {
		t.Fatalf("CreateRefundInvoice: %v", err)
	}

	if refund.TotalPaise != -168000 {
		t.Errorf("total = %d, want -168000", refund.TotalPaise)
	}
	if refund.Status != enums.InvoiceStatusFinalized || refund.FinalizedAt == nil {
		t.Error("refund invoices must be born finalized")
	}
	if refund.OriginalInvoiceID == nil || *refund.OriginalInvoiceID != original.ID {
		t.Error("refund invoice must reference the original")
	}
	if !refund.IsRefund() {
		t.Error("IsRefund must report true")
	}
	if len(refund.LineItems) != 1 || refund.LineItems[0].TotalPaise != -168000 {
		t.Fatalf("unexpected refund lines: %+v", refund.LineItems)
	}

	// The original document stays untouched.
	reloaded, err := svc.Get(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.TotalPaise != original.TotalPaise {
		t.Error("original invoice must not change")
	}
}

func TestService_CreateRefundInvoice_requiresPrimary(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRefundInvoice(context.Background(), RefundInvoiceInput{
		OrderID:     uuid.New(),
		AmountPaise: 1000,
		Reason:      "nothing to refund",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_CreateRefundInvoice_validatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRefundInvoice(context.Background(), RefundInvoiceInput{OrderID: uuid.New(), AmountPaise: 0, Reason: "x"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
	_, err = svc.CreateRefundInvoice(context.Background(), RefundInvoiceInput{OrderID: uuid.New(), AmountPaise: 100})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing reason, got %v", err)
	}
}
