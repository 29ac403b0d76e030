package enums

import "fmt"

// InvoiceStatus distinguishes mutable drafts from frozen documents.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
)

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	return i == InvoiceStatusDraft || i == InvoiceStatusFinalized
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	switch InvoiceStatus(value) {
	case InvoiceStatusDraft:
		return InvoiceStatusDraft, nil
	case InvoiceStatusFinalized:
		return InvoiceStatusFinalized, nil
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
