package enums

import "fmt"

// InvoiceItemType identifies the billable component a line item represents.
type InvoiceItemType string

const (
	InvoiceItemTypeRental   InvoiceItemType = "rental"
	InvoiceItemTypeDeposit  InvoiceItemType = "deposit"
	InvoiceItemTypeDelivery InvoiceItemType = "delivery"
	InvoiceItemTypeFee      InvoiceItemType = "fee"
	InvoiceItemTypePenalty  InvoiceItemType = "penalty"
	InvoiceItemTypeRefund   InvoiceItemType = "refund"
)

var validInvoiceItemTypes = []InvoiceItemType{
	InvoiceItemTypeRental,
	InvoiceItemTypeDeposit,
	InvoiceItemTypeDelivery,
	InvoiceItemTypeFee,
	InvoiceItemTypePenalty,
	InvoiceItemTypeRefund,
}

// String implements fmt.Stringer.
func (i InvoiceItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceItemType.
func (i InvoiceItemType) IsValid() bool {
	for _, candidate := range validInvoiceItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// IsServiceCharge reports whether the type may be appended to a draft invoice
// after generation. Rental lines only ever come from order items and refund
// lines only from refund invoices.
func (i InvoiceItemType) IsServiceCharge() bool {
	switch i {
	case InvoiceItemTypeDeposit, InvoiceItemTypeDelivery, InvoiceItemTypeFee, InvoiceItemTypePenalty:
		return true
	default:
		return false
	}
}

// ParseInvoiceItemType converts raw input into an InvoiceItemType.
func ParseInvoiceItemType(value string) (InvoiceItemType, error) {
	for _, candidate := range validInvoiceItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice item type %q", value)
}
