package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	reconciliationJob *ReconciliationJob
	deferredTimers    *DeferredTimers
}

// NewJobManager creates a new job manager with all required jobs.
// The deferred timers are passed in rather than created here because the
// command handlers already hold them through the scheduler port.
func NewJobManager(
	reconcileHandler sweepRunner,
	deferredTimers *DeferredTimers,
	sweepInterval time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		reconciliationJob: NewReconciliationJob(reconcileHandler, sweepInterval, logger),
		deferredTimers:    deferredTimers,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.reconciliationJob.Start(); err != nil {
		return fmt.Errorf("failed to start reconciliation job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.reconciliationJob.Stop()
	jm.deferredTimers.Stop()
}
