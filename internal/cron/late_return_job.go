package cron

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/kiraya-market/kiraya-backend/pkg/enums"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"go.uber.org/multierr"
)

type overdueOrderReader interface {
	FindOverdueActive(ctx context.Context, asOf time.Time) ([]models.Order, error)
}

// LateReturnJobParams configure the overdue rental sweep.
type LateReturnJobParams struct {
	Logger   *logger.Logger
	Orders   overdueOrderReader
	Policy   config.PolicyConfig
	Recovery failureReporter
}

// NewLateReturnJob builds the job that flags active rentals past their due
// date. The order stays active; the fee itself is charged when the vendor
// completes the rental.
func NewLateReturnJob(params LateReturnJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("overdue orders reader required")
	}
	if params.Recovery == nil {
		return nil, fmt.Errorf("recovery service required")
	}
	return &lateReturnJob{
		logg:     params.Logger,
		orders:   params.Orders,
		policy:   params.Policy,
		recovery: params.Recovery,
		now:      time.Now,
	}, nil
}

type lateReturnJob struct {
	logg     *logger.Logger
	orders   overdueOrderReader
	policy   config.PolicyConfig
	recovery failureReporter
	now      func() time.Time
}

func (j *lateReturnJob) Name() string { return "late-return" }

func (j *lateReturnJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	overdue, err := j.orders.FindOverdueActive(ctx, now)
	if err != nil {
		return fmt.Errorf("query overdue rentals: %w", err)
	}

	var errs []error
	count := 0
	for _, order := range overdue {
		if order.DueAt == nil {
			continue
		}
		daysLate := int(math.Ceil(now.Sub(*order.DueAt).Hours() / 24))
		err := j.recovery.ReportFailure(ctx, recovery.FailureInput{
			Category:   enums.FailureLateReturn,
			OrderID:    &order.ID,
			CustomerID: order.CustomerID,
			VendorID:   order.VendorID,
			Details: map[string]any{
				"order_number":           order.OrderNumber,
				"days_late":              daysLate,
				"accrued_late_fee_paise": int64(daysLate) * j.policy.LateFeePaisePerDay,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("flag overdue order %s: %w", order.ID, err))
			continue
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "late return sweep complete")
	return multierr.Combine(errs...)
}
