package orders

import (
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
)

// allowedTransitions is the complete edge set of the order lifecycle. Any
// transition absent from this table is rejected; illegal requests are never
// coerced to a nearby legal state.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingVendorApproval: {
		enums.OrderStatusActiveRental, // vendor approves
		enums.OrderStatusRejected,     // vendor rejects, triggers refund
		enums.OrderStatusCancelled,    // auto-cancel after severe overdue
	},
	enums.OrderStatusAutoApproved: {
		enums.OrderStatusActiveRental, // system activation
	},
	enums.OrderStatusActiveRental: {
		enums.OrderStatusCompleted, // vendor marks complete
	},
	// Completed, Rejected, Cancelled and Refunded are terminal.
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns an InvalidTransition error when from -> to is not
// in the allowed edge set.
func EnsureTransition(from, to enums.OrderStatus) error {
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed").
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}
	return nil
}
