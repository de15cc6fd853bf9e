package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// sweepRunner is the slice of the reconcile handler the jobs need.
type sweepRunner interface {
	Handle(ctx context.Context, cmd commands.ReconcileOrdersCommand) error
}

// ReconciliationJob runs the order sweep on the configured cadence.
// The sweep applies every overdue deadline transition it finds, so this job
// is the source of truth for order progress; per-order timers only shave
// latency off it.
type ReconciliationJob struct {
	handler  sweepRunner
	cron     *cron.Cron
	interval time.Duration
	logger   *slog.Logger
}

// NewReconciliationJob creates the periodic sweep job.
func NewReconciliationJob(handler sweepRunner, interval time.Duration, logger *slog.Logger) *ReconciliationJob {
	return &ReconciliationJob{
		handler:  handler,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		logger:   logger.With("component", "reconciliation_job"),
	}
}

// Start begins the sweep job on its interval.
func (j *ReconciliationJob) Start() error {
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		ctx := context.Background()
		cmd := commands.NewReconcileOrdersCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Reconciliation sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reconciliation job started", "interval", j.interval)
	return nil
}

// Stop stops the sweep job.
func (j *ReconciliationJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Reconciliation job stopped")
}
