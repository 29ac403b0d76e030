package orders

import (
	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
)

// CreateOrdersInput carries a verified payment and the cart it funded.
type CreateOrdersInput struct {
	CustomerID uuid.UUID
	PaymentID  uuid.UUID
	Lines      []CartLine
}

// VendorFailure reports one vendor group whose order could not be created.
// The remaining groups are unaffected; callers surface the partial result.
type VendorFailure struct {
	VendorID uuid.UUID
	Reason   string
}

// CreateOrdersResult is the outcome of splitting a payment into per-vendor
// orders. Orders and Failures partition the vendor groups.
type CreateOrdersResult struct {
	Orders   []models.Order
	Failures []VendorFailure
}

// ApproveInput identifies the order a vendor is approving.
type ApproveInput struct {
	OrderID  uuid.UUID
	VendorID uuid.UUID
}

// RejectInput identifies the order a vendor is rejecting and why. The reason
// is mandatory; it ends up on the order, in the audit trail, and in the
// customer notification.
type RejectInput struct {
	OrderID  uuid.UUID
	VendorID uuid.UUID
	Reason   string
}

// CompleteInput carries the vendor's completion decision, including what
// happens to the security deposit.
type CompleteInput struct {
	OrderID      uuid.UUID
	VendorID     uuid.UUID
	Disposition  enums.DepositDisposition
	PenaltyPaise int64
	Reason       string
}

// ListParams filter order listings.
type ListParams struct {
	Status *enums.OrderStatus
	Limit  int
}
