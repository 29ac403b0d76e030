package enums

import "fmt"

// OrderStatus tracks the lifecycle of a rental order.
type OrderStatus string

const (
	OrderStatusPendingVendorApproval OrderStatus = "pending_vendor_approval"
	OrderStatusAutoApproved          OrderStatus = "auto_approved"
	OrderStatusActiveRental          OrderStatus = "active_rental"
	OrderStatusCompleted             OrderStatus = "completed"
	OrderStatusRejected              OrderStatus = "rejected"
	OrderStatusRefunded              OrderStatus = "refunded"
	OrderStatusCancelled             OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingVendorApproval,
	OrderStatusAutoApproved,
	OrderStatusActiveRental,
	OrderStatusCompleted,
	OrderStatusRejected,
	OrderStatusRefunded,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusCompleted, OrderStatusRejected, OrderStatusRefunded, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
