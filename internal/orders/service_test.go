package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/internal/invoices"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeOrderRepo struct {
	orders       map[uuid.UUID]*models.Order
	products     map[uuid.UUID]models.Product
	periods      map[uuid.UUID]models.RentalPeriod
	failVendorID uuid.UUID
	casDeny      bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.VendorID == f.failVendorID && f.failVendorID != uuid.Nil {
		return errors.New("insert rejected")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	if f.casDeny {
		return false, nil
	}
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

func (f *fakeOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, params ListParams) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, params ListParams) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.VendorID == vendorID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindPendingApprovalBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) FindOverdueActive(ctx context.Context, asOf time.Time) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return f.products, nil
}

func (f *fakeOrderRepo) LoadRentalPeriods(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.RentalPeriod, error) {
	return f.periods, nil
}

type stubPayments struct {
	payment     *models.Payment
	refund      *models.Refund
	refundErr   error
	refundCalls []payments.InitiateRefundInput
}

func (s *stubPayments) CreatePaymentOrder(ctx context.Context, input payments.CreatePaymentOrderInput) (*models.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubPayments) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if s.payment == nil || s.payment.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return s.payment, nil
}

func (s *stubPayments) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return true
}

func (s *stubPayments) VerifyAndCapturePayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*models.Payment, error) {
	return s.payment, nil
}

func (s *stubPayments) InitiateRefund(ctx context.Context, input payments.InitiateRefundInput) (*models.Refund, error) {
	s.refundCalls = append(s.refundCalls, input)
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	if s.refund != nil {
		return s.refund, nil
	}
	return &models.Refund{
		ID:          uuid.New(),
		PaymentID:   input.PaymentID,
		OrderID:     input.OrderID,
		AmountPaise: input.AmountPaise,
		Status:      enums.RefundStatusCompleted,
	}, nil
}

type stubInvoices struct {
	generated      []uuid.UUID
	charges        []invoices.AddServiceChargeInput
	finalized      []uuid.UUID
	finalizedBy    []uuid.UUID
	refundInvoices []invoices.RefundInvoiceInput
	primaryErr     error
	refundErr      error
}

func (s *stubInvoices) GenerateForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	s.generated = append(s.generated, order.ID)
	return &models.Invoice{ID: uuid.New(), OrderID: order.ID}, nil
}

func (s *stubInvoices) AddServiceCharge(ctx context.Context, input invoices.AddServiceChargeInput) (*models.Invoice, error) {
	s.charges = append(s.charges, input)
	return &models.Invoice{ID: input.InvoiceID}, nil
}

func (s *stubInvoices) Finalize(ctx context.Context, invoiceID, actorID uuid.UUID) (*models.Invoice, error) {
	s.finalized = append(s.finalized, invoiceID)
	s.finalizedBy = append(s.finalizedBy, actorID)
	return &models.Invoice{ID: invoiceID, Status: enums.InvoiceStatusFinalized}, nil
}

func (s *stubInvoices) CreateRefundInvoice(ctx context.Context, input invoices.RefundInvoiceInput) (*models.Invoice, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.refundInvoices = append(s.refundInvoices, input)
	return &models.Invoice{ID: uuid.New(), OrderID: input.OrderID}, nil
}

func (s *stubInvoices) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return &models.Invoice{ID: invoiceID}, nil
}

func (s *stubInvoices) GetPrimaryForOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	if s.primaryErr != nil {
		return nil, s.primaryErr
	}
	return &models.Invoice{ID: uuid.New(), OrderID: orderID, Status: enums.InvoiceStatusDraft}, nil
}

func (s *stubInvoices) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Invoice, error) {
	return nil, nil
}

type stubRecovery struct {
	reports []recovery.FailureInput
}

func (s *stubRecovery) ReportFailure(ctx context.Context, input recovery.FailureInput) error {
	s.reports = append(s.reports, input)
	return nil
}

func (s *stubRecovery) ListPendingInterventions(ctx context.Context, limit int) ([]models.AdminIntervention, error) {
	return nil, nil
}

func (s *stubRecovery) ResolveIntervention(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubAudit struct {
	actions []string
}

func (s *stubAudit) Record(ctx context.Context, input audit.RecordInput) (*models.AuditLog, error) {
	s.actions = append(s.actions, input.Action)
	return &models.AuditLog{}, nil
}

func (s *stubAudit) RecordTx(ctx context.Context, tx *gorm.DB, input audit.RecordInput) (*models.AuditLog, error) {
	return s.Record(ctx, input)
}

func (s *stubAudit) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

func (s *stubAudit) has(action string) bool {
	for _, a := range s.actions {
		if a == action {
			return true
		}
	}
	return false
}

type stubNotifier struct {
	sent []notifications.NotifyInput
}

func (s *stubNotifier) Notify(ctx context.Context, input notifications.NotifyInput) {
	s.sent = append(s.sent, input)
}

func (s *stubNotifier) List(ctx context.Context, params notifications.ListParams) ([]models.Notification, error) {
	return nil, nil
}

func (s *stubNotifier) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (s *stubNotifier) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubNotifier) countType(t enums.NotificationType) int {
	n := 0
	for _, msg := range s.sent {
		if msg.Type == t {
			n++
		}
	}
	return n
}

type orderServiceFixture struct {
	svc       Service
	repo      *fakeOrderRepo
	payments  *stubPayments
	invoices  *stubInvoices
	recovery  *stubRecovery
	audit     *stubAudit
	notifier  *stubNotifier
}

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		ApprovalReminderHours:  24,
		ApprovalAutoCancel:     true,
		ApprovalCancelHours:    72,
		LateFeePaisePerDay:     10000,
		OrderNumberMaxAttempts: 10,
		TaxRateBasisPoints:     1800,
	}
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	f := &orderServiceFixture{
		repo:     newFakeOrderRepo(),
		payments: &stubPayments{},
		invoices: &stubInvoices{},
		recovery: &stubRecovery{},
		audit:    &stubAudit{},
		notifier: &stubNotifier{},
	}
	svc, err := NewService(gdb, f.repo, f.payments, f.invoices, f.recovery, f.audit, f.notifier,
		testPolicy(), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *orderServiceFixture) seedOrder(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:           uuid.New(),
		OrderNumber:  GenerateOrderNumber(time.Now()),
		CustomerID:   uuid.New(),
		VendorID:     uuid.New(),
		PaymentID:    uuid.New(),
		Status:       status,
		TotalPaise:   190000,
		DepositPaise: 50000,
		RentalDays:   3,
	}
	f.repo.orders[order.ID] = order
	return order
}

func verifiedPayment(customerID uuid.UUID, amountPaise int64) *models.Payment {
	return &models.Payment{
		ID:          uuid.New(),
		CustomerID:  customerID,
		AmountPaise: amountPaise,
		Status:      enums.PaymentStatusVerified,
	}
}

func TestService_CreateFromPayment_multiVendor(t *testing.T) {
	f := newOrderServiceFixture(t)
	products, periods := splitterFixture()
	f.repo.products = products
	f.repo.periods = periods

	camera := pickProduct(products, "Camera")
	drone := pickProduct(products, "Drone")
	period := pickPeriod(periods, 3)

	customerID := uuid.New()
	// 100000 + 50000 deposit for the camera vendor, 500000 + 200000 for the
	// drone vendor.
	payment := verifiedPayment(customerID, 850000)
	f.payments.payment = payment

	result, err := f.svc.CreateFromPayment(context.Background(), CreateOrdersInput{
		CustomerID: customerID,
		PaymentID:  payment.ID,
		Lines: []CartLine{
			{ProductID: camera.ID, RentalPeriodID: period.ID, Qty: 1, UnitPricePaise: 100000},
			{ProductID: drone.ID, RentalPeriodID: period.ID, Qty: 1, UnitPricePaise: 500000},
		},
	})
	if err != nil {
		t.Fatalf("CreateFromPayment: %v", err)
	}
	if len(result.Orders) != 2 || len(result.Failures) != 0 {
		t.Fatalf("expected 2 orders and no failures, got %d/%d", len(result.Orders), len(result.Failures))
	}

	// The camera vendor needs no verification, so its order activates
	// immediately; the drone order waits for the vendor.
	var active, pending *models.Order
	for i := range result.Orders {
		order := &result.Orders[i]
		if order.PaymentID != payment.ID {
			t.Errorf("order not linked to payment: %s", order.ID)
		}
		switch order.Status {
		case enums.OrderStatusActiveRental:
			active = order
		case enums.OrderStatusPendingVendorApproval:
			pending = order
		}
	}
	if active == nil || pending == nil {
		t.Fatalf("expected one active and one pending order, got %+v", result.Orders)
	}
	if active.VendorID != camera.VendorID || pending.VendorID != drone.VendorID {
		t.Fatal("statuses assigned to the wrong vendors")
	}
	if active.DueAt == nil {
		t.Fatal("activated order must carry a due date")
	}
	if len(f.invoices.generated) != 1 {
		t.Fatalf("expected one invoice for the activated order, got %d", len(f.invoices.generated))
	}

	if !f.audit.has("order.created") {
		t.Error("expected order.created audit entries")
	}
	if !f.audit.has("order.activated") {
		t.Error("expected the auto-approved order to be activated")
	}
	// One vendor and one customer notification per order.
	if got := f.notifier.countType(enums.NotifyOrderCreated); got != 4 {
		t.Errorf("expected 4 creation notifications, got %d", got)
	}
}

func TestService_CreateFromPayment_amountMismatch(t *testing.T) {
	f := newOrderServiceFixture(t)
	products, periods := splitterFixture()
	f.repo.products = products
	f.repo.periods = periods

	camera := pickProduct(products, "Camera")
	period := pickPeriod(periods, 3)

	customerID := uuid.New()
	payment := verifiedPayment(customerID, 999)
	f.payments.payment = payment

	_, err := f.svc.CreateFromPayment(context.Background(), CreateOrdersInput{
		CustomerID: customerID,
		PaymentID:  payment.ID,
		Lines: []CartLine{
			{ProductID: camera.ID, RentalPeriodID: period.ID, Qty: 1, UnitPricePaise: 100000},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatal("no orders may be created on an amount mismatch")
	}
}

func TestService_CreateFromPayment_rejectsUnverifiedPayment(t *testing.T) {
	f := newOrderServiceFixture(t)
	customerID := uuid.New()
	payment := verifiedPayment(customerID, 100000)
	payment.Status = enums.PaymentStatusCreated
	f.payments.payment = payment

	_, err := f.svc.CreateFromPayment(context.Background(), CreateOrdersInput{
		CustomerID: customerID,
		PaymentID:  payment.ID,
		Lines:      []CartLine{{ProductID: uuid.New(), RentalPeriodID: uuid.New(), Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestService_CreateFromPayment_rejectsForeignPayment(t *testing.T) {
	f := newOrderServiceFixture(t)
	payment := verifiedPayment(uuid.New(), 100000)
	f.payments.payment = payment

	_, err := f.svc.CreateFromPayment(context.Background(), CreateOrdersInput{
		CustomerID: uuid.New(),
		PaymentID:  payment.ID,
		Lines:      []CartLine{{ProductID: uuid.New(), RentalPeriodID: uuid.New(), Qty: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestService_CreateFromPayment_partialFailure(t *testing.T) {
	f := newOrderServiceFixture(t)
	products, periods := splitterFixture()
	f.repo.products = products
	f.repo.periods = periods

	camera := pickProduct(products, "Camera")
	drone := pickProduct(products, "Drone")
	period := pickPeriod(periods, 3)
	f.repo.failVendorID = drone.VendorID

	customerID := uuid.New()
	payment := verifiedPayment(customerID, 850000)
	f.payments.payment = payment

	result, err := f.svc.CreateFromPayment(context.Background(), CreateOrdersInput{
		CustomerID: customerID,
		PaymentID:  payment.ID,
		Lines: []CartLine{
			{ProductID: camera.ID, RentalPeriodID: period.ID, Qty: 1, UnitPricePaise: 100000},
			{ProductID: drone.ID, RentalPeriodID: period.ID, Qty: 1, UnitPricePaise: 500000},
		},
	})
	if err != nil {
		t.Fatalf("CreateFromPayment: %v", err)
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected the healthy vendor's order, got %d", len(result.Orders))
	}
	if len(result.Failures) != 1 || result.Failures[0].VendorID != drone.VendorID {
		t.Fatalf("expected one failure for the drone vendor, got %+v", result.Failures)
	}
	if !f.audit.has("order.create_failed") {
		t.Error("expected order.create_failed audit entry")
	}
}

func TestService_Activate(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusAutoApproved)

	activated, err := f.svc.Activate(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if activated.Status != enums.OrderStatusActiveRental {
		t.Fatalf("status = %s", activated.Status)
	}
	if activated.DueAt == nil {
		t.Fatal("expected due date")
	}
	wantDue := time.Now().UTC().Add(time.Duration(order.RentalDays) * 24 * time.Hour)
	if diff := activated.DueAt.Sub(wantDue); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("due date %v not near %v", activated.DueAt, wantDue)
	}
	if len(f.invoices.generated) != 1 {
		t.Fatal("expected an invoice to be generated on activation")
	}
	if !f.audit.has("order.activated") {
		t.Error("expected order.activated audit entry")
	}
}

func TestService_Activate_pendingOrderNeedsVendor(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)

	_, err := f.svc.Activate(context.Background(), order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestService_Approve(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)

	approved, err := f.svc.Approve(context.Background(), ApproveInput{OrderID: order.ID, VendorID: order.VendorID})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != enums.OrderStatusActiveRental {
		t.Fatalf("status = %s", approved.Status)
	}
	if approved.ApprovedAt == nil || approved.DueAt == nil {
		t.Fatal("expected approval and due timestamps")
	}
	if len(f.invoices.generated) != 1 {
		t.Fatal("expected an invoice to be generated on approval")
	}
}

func TestService_Approve_wrongVendor(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)

	_, err := f.svc.Approve(context.Background(), ApproveInput{OrderID: order.ID, VendorID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_Approve_autoApprovedOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusAutoApproved)

	_, err := f.svc.Approve(context.Background(), ApproveInput{OrderID: order.ID, VendorID: order.VendorID})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if f.repo.orders[order.ID].Status != enums.OrderStatusAutoApproved {
		t.Fatal("auto-approved orders are activated by the system, not the vendor")
	}
}

func TestService_Approve_terminalOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusCompleted)

	_, err := f.svc.Approve(context.Background(), ApproveInput{OrderID: order.ID, VendorID: order.VendorID})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestService_Reject(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)

	rejected, err := f.svc.Reject(context.Background(), RejectInput{
		OrderID:  order.ID,
		VendorID: order.VendorID,
		Reason:   "item damaged in previous rental",
	})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != enums.OrderStatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}

	if len(f.payments.refundCalls) != 1 {
		t.Fatalf("expected a full refund, got %d calls", len(f.payments.refundCalls))
	}
	if got := f.payments.refundCalls[0].AmountPaise; got != order.TotalPaise {
		t.Fatalf("refund amount = %d, want %d", got, order.TotalPaise)
	}
	if len(f.invoices.refundInvoices) != 1 {
		t.Fatal("expected a refund invoice")
	}
	if got := f.notifier.countType(enums.NotifyRefundIssued); got != 1 {
		t.Fatalf("expected refund notification, got %d", got)
	}
}

func TestService_Reject_requiresReason(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)

	_, err := f.svc.Reject(context.Background(), RejectInput{OrderID: order.ID, VendorID: order.VendorID})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.orders[order.ID].Status != enums.OrderStatusPendingVendorApproval {
		t.Fatal("order must be untouched when the reason is missing")
	}
}

func TestService_Reject_failedRefundGoesToRecovery(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusPendingVendorApproval)
	reason := "gateway unavailable"
	f.payments.refund = &models.Refund{
		ID:            uuid.New(),
		Status:        enums.RefundStatusFailed,
		FailureReason: &reason,
	}

	if _, err := f.svc.Reject(context.Background(), RejectInput{
		OrderID:  order.ID,
		VendorID: order.VendorID,
		Reason:   "out of stock",
	}); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if len(f.recovery.reports) != 1 {
		t.Fatalf("expected one recovery report, got %d", len(f.recovery.reports))
	}
	report := f.recovery.reports[0]
	if report.Category != enums.FailureRefundInitiation {
		t.Fatalf("category = %s", report.Category)
	}
	if report.OrderID == nil || *report.OrderID != order.ID {
		t.Fatal("report must reference the order")
	}
	if len(f.invoices.refundInvoices) != 0 {
		t.Fatal("no refund invoice may be issued for a failed refund")
	}
}

func TestService_Complete_releaseDeposit(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)
	due := time.Now().Add(24 * time.Hour)
	order.DueAt = &due

	completed, err := f.svc.Complete(context.Background(), CompleteInput{
		OrderID:     order.ID,
		VendorID:    order.VendorID,
		Disposition: enums.DepositDispositionRelease,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != enums.OrderStatusCompleted {
		t.Fatalf("status = %s", completed.Status)
	}

	if len(f.payments.refundCalls) != 1 {
		t.Fatalf("expected the deposit to be refunded, got %d calls", len(f.payments.refundCalls))
	}
	if got := f.payments.refundCalls[0].AmountPaise; got != order.DepositPaise {
		t.Fatalf("deposit refund = %d, want %d", got, order.DepositPaise)
	}
	if len(f.invoices.finalized) != 1 {
		t.Fatal("expected the invoice to be finalized")
	}
	if f.invoices.finalizedBy[0] != order.VendorID {
		t.Fatalf("finalization actor = %s, want the vendor", f.invoices.finalizedBy[0])
	}
	if len(f.invoices.charges) != 0 {
		t.Fatalf("on-time release should add no charges, got %+v", f.invoices.charges)
	}
}

func TestService_Complete_penaltyDeposit(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)
	due := time.Now().Add(24 * time.Hour)
	order.DueAt = &due

	_, err := f.svc.Complete(context.Background(), CompleteInput{
		OrderID:      order.ID,
		VendorID:     order.VendorID,
		Disposition:  enums.DepositDispositionPenalty,
		PenaltyPaise: 20000,
		Reason:       "scratched lens",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(f.payments.refundCalls) != 1 {
		t.Fatal("expected a partial deposit refund")
	}
	if got := f.payments.refundCalls[0].AmountPaise; got != 30000 {
		t.Fatalf("deposit refund = %d, want 30000", got)
	}
	var penaltyCharged bool
	for _, charge := range f.invoices.charges {
		if charge.ItemType == enums.InvoiceItemTypePenalty && charge.UnitPricePaise == 20000 {
			penaltyCharged = true
		}
	}
	if !penaltyCharged {
		t.Fatalf("expected a 20000 penalty line, got %+v", f.invoices.charges)
	}
}

func TestService_Complete_withholdDeposit(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)

	_, err := f.svc.Complete(context.Background(), CompleteInput{
		OrderID:     order.ID,
		VendorID:    order.VendorID,
		Disposition: enums.DepositDispositionWithhold,
		Reason:      "item not returned",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(f.payments.refundCalls) != 0 {
		t.Fatal("withhold must not refund the deposit")
	}
}

func TestService_Complete_lateReturnFee(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)
	// 30 hours late rounds up to 2 billable days.
	due := time.Now().Add(-30 * time.Hour)
	order.DueAt = &due

	_, err := f.svc.Complete(context.Background(), CompleteInput{
		OrderID:     order.ID,
		VendorID:    order.VendorID,
		Disposition: enums.DepositDispositionRelease,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var lateFee int64
	for _, charge := range f.invoices.charges {
		if charge.ItemType == enums.InvoiceItemTypeFee {
			lateFee = charge.UnitPricePaise
		}
	}
	if lateFee != 20000 {
		t.Fatalf("late fee = %d, want 20000", lateFee)
	}
}

func TestService_Complete_invalidDispositionLeavesOrderUntouched(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)

	cases := []struct {
		name  string
		input CompleteInput
	}{
		{
			name: "unknown disposition",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition: enums.DepositDisposition("keep_it"),
			},
		},
		{
			name: "penalty without amount",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition: enums.DepositDispositionPenalty,
			},
		},
		{
			name: "penalty exceeds deposit",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition:  enums.DepositDispositionPenalty,
				PenaltyPaise: order.DepositPaise + 1,
			},
		},
		{
			name: "penalty amount on release",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition:  enums.DepositDispositionRelease,
				PenaltyPaise: 100,
			},
		},
		{
			name: "penalty without reason",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition:  enums.DepositDispositionPenalty,
				PenaltyPaise: 10000,
			},
		},
		{
			name: "withhold without reason",
			input: CompleteInput{
				OrderID: order.ID, VendorID: order.VendorID,
				Disposition: enums.DepositDispositionWithhold,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Complete(context.Background(), tc.input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if f.repo.orders[order.ID].Status != enums.OrderStatusActiveRental {
				t.Fatal("order must stay active on a rejected disposition")
			}
		})
	}
}

func TestService_Complete_concurrentChange(t *testing.T) {
	f := newOrderServiceFixture(t)
	order := f.seedOrder(enums.OrderStatusActiveRental)
	f.repo.casDeny = true

	_, err := f.svc.Complete(context.Background(), CompleteInput{
		OrderID:     order.ID,
		VendorID:    order.VendorID,
		Disposition: enums.DepositDispositionRelease,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.payments.refundCalls) != 0 {
		t.Fatal("no refund may be issued when the completion lost the race")
	}
}
