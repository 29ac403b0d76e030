package enums

// NotificationAudience identifies who a notification is addressed to.
type NotificationAudience string

const (
	AudienceCustomer NotificationAudience = "customer"
	AudienceVendor   NotificationAudience = "vendor"
	AudienceAdmin    NotificationAudience = "admin"
)

// IsValid reports whether the value is a known NotificationAudience.
func (n NotificationAudience) IsValid() bool {
	switch n {
	case AudienceCustomer, AudienceVendor, AudienceAdmin:
		return true
	default:
		return false
	}
}

// NotificationType labels what happened.
type NotificationType string

const (
	NotifyPaymentFailed    NotificationType = "payment_failed"
	NotifyOrderCreated     NotificationType = "order_created"
	NotifyOrderApproved    NotificationType = "order_approved"
	NotifyOrderRejected    NotificationType = "order_rejected"
	NotifyOrderCancelled   NotificationType = "order_cancelled"
	NotifyOrderCompleted   NotificationType = "order_completed"
	NotifyApprovalReminder NotificationType = "approval_reminder"
	NotifyRefundIssued     NotificationType = "refund_issued"
	NotifyRefundFailed     NotificationType = "refund_failed"
	NotifyLateReturn       NotificationType = "late_return"
	NotifyDocumentMissing  NotificationType = "document_missing"
)
