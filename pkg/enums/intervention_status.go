package enums

// InterventionStatus tracks the admin refund-failure queue.
type InterventionStatus string

const (
	InterventionStatusPending  InterventionStatus = "pending"
	InterventionStatusResolved InterventionStatus = "resolved"
)

// IsValid reports whether the value is a known InterventionStatus.
func (i InterventionStatus) IsValid() bool {
	return i == InterventionStatusPending || i == InterventionStatusResolved
}
