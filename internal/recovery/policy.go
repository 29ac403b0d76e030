package recovery

import "github.com/kiraya-market/kiraya-backend/pkg/enums"

// Remediation names the state-changing action a failure category triggers,
// over and above logging, auditing, and notifying.
type Remediation string

const (
	// RemediationNone: record and notify only.
	RemediationNone Remediation = "none"
	// RemediationRejectOrder: compensate by marking the affected order rejected.
	RemediationRejectOrder Remediation = "reject_order"
	// RemediationQueueIntervention: park the failure for a human.
	RemediationQueueIntervention Remediation = "queue_intervention"
	// RemediationEscalateApproval: remind the vendor, or cancel and refund
	// once the order has been pending past the configured cutoff.
	RemediationEscalateApproval Remediation = "escalate_approval"
)

type policyEntry struct {
	NotifyCustomer bool
	NotifyVendor   bool
	NotifyAdmin    bool
	Remediation    Remediation
}

// policyTable is the single place failure handling is decided. Adding a new
// failure category means adding a row here and, if it remediates, a handler
// case in the service.
var policyTable = map[enums.FailureCategory]policyEntry{
	enums.FailurePaymentVerification: {
		NotifyCustomer: true,
		Remediation:    RemediationNone,
	},
	enums.FailureInventoryConflict: {
		NotifyCustomer: true,
		NotifyVendor:   true,
		Remediation:    RemediationRejectOrder,
	},
	enums.FailureRefundInitiation: {
		NotifyAdmin: true,
		Remediation: RemediationQueueIntervention,
	},
	enums.FailureVendorTimeout: {
		NotifyVendor: true,
		Remediation:  RemediationEscalateApproval,
	},
	enums.FailureLateReturn: {
		NotifyCustomer: true,
		NotifyVendor:   true,
		Remediation:    RemediationNone,
	},
	enums.FailureDocumentTimeout: {
		NotifyCustomer: true,
		NotifyVendor:   true,
		Remediation:    RemediationNone,
	},
}

// PolicyFor returns the handling rules for a failure category.
func PolicyFor(category enums.FailureCategory) (policyEntry, bool) {
	entry, ok := policyTable[category]
	return entry, ok
}
