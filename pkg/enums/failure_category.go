package enums

import "fmt"

// FailureCategory keys the recovery policy dispatch table.
type FailureCategory string

const (
	FailurePaymentVerification FailureCategory = "payment_verification_failure"
	FailureInventoryConflict   FailureCategory = "inventory_conflict"
	FailureRefundInitiation    FailureCategory = "refund_initiation_failure"
	FailureVendorTimeout       FailureCategory = "vendor_approval_timeout"
	FailureLateReturn          FailureCategory = "late_return"
	FailureDocumentTimeout     FailureCategory = "document_upload_timeout"
)

var validFailureCategories = []FailureCategory{
	FailurePaymentVerification,
	FailureInventoryConflict,
	FailureRefundInitiation,
	FailureVendorTimeout,
	FailureLateReturn,
	FailureDocumentTimeout,
}

// String implements fmt.Stringer.
func (f FailureCategory) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FailureCategory.
func (f FailureCategory) IsValid() bool {
	for _, candidate := range validFailureCategories {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFailureCategory converts raw input into a FailureCategory.
func ParseFailureCategory(value string) (FailureCategory, error) {
	for _, candidate := range validFailureCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid failure category %q", value)
}
