package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"go.uber.org/multierr"
)

type pendingOrderReader interface {
	FindPendingApprovalBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type failureReporter interface {
	ReportFailure(ctx context.Context, input recovery.FailureInput) error
}

// ApprovalTimeoutJobParams configure the vendor approval watchdog.
type ApprovalTimeoutJobParams struct {
	Logger *logger.Logger
	Orders pendingOrderReader
	Policy config.PolicyConfig

	// Recovery decides per order whether a reminder or an auto-cancel is due.
	Recovery failureReporter
}

// NewApprovalTimeoutJob builds the job that escalates orders a vendor has
// been sitting on. Reminder-vs-cancel is not decided here; each stale order
// is reported as a vendor timeout and the recovery policy takes it from there.
func NewApprovalTimeoutJob(params ApprovalTimeoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Recovery == nil {
		return nil, fmt.Errorf("recovery service required")
	}
	return &approvalTimeoutJob{
		logg:     params.Logger,
		orders:   params.Orders,
		policy:   params.Policy,
		recovery: params.Recovery,
		now:      time.Now,
	}, nil
}

type approvalTimeoutJob struct {
	logg     *logger.Logger
	orders   pendingOrderReader
	policy   config.PolicyConfig
	recovery failureReporter
	now      func() time.Time
}

func (j *approvalTimeoutJob) Name() string { return "approval-timeout" }

func (j *approvalTimeoutJob) Run(ctx context.Context) error {
	reminderHours := j.policy.ApprovalReminderHours
	if reminderHours <= 0 {
		reminderHours = 24
	}
	cutoff := j.now().UTC().Add(-time.Duration(reminderHours) * time.Hour)
	stale, err := j.orders.FindPendingApprovalBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	count := 0
	for _, order := range stale {
		hoursPending := int(j.now().Sub(order.CreatedAt).Hours())
		err := j.recovery.ReportFailure(ctx, recovery.FailureInput{
			Category:   enums.FailureVendorTimeout,
			OrderID:    &order.ID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			Details: map[string]any{
				"order_number":  order.OrderNumber,
				"hours_pending": hoursPending,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("escalate order %s: %w", order.ID, err))
			continue
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "approval timeout sweep complete")
	return multierr.Combine(errs...)
}
