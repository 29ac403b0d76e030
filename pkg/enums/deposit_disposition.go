package enums

import "fmt"

// DepositDisposition is the vendor's decision on a security deposit at
// rental completion.
type DepositDisposition string

const (
	DepositDispositionRelease  DepositDisposition = "release"
	DepositDispositionPenalty  DepositDisposition = "penalty"
	DepositDispositionWithhold DepositDisposition = "withhold"
)

var validDepositDispositions = []DepositDisposition{
	DepositDispositionRelease,
	DepositDispositionPenalty,
	DepositDispositionWithhold,
}

// String implements fmt.Stringer.
func (d DepositDisposition) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DepositDisposition.
func (d DepositDisposition) IsValid() bool {
	for _, candidate := range validDepositDispositions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDepositDisposition converts raw input into a DepositDisposition.
func ParseDepositDisposition(value string) (DepositDisposition, error) {
	for _, candidate := range validDepositDispositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit disposition %q", value)
}
