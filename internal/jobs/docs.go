// Package jobs provides the scheduled background machinery that keeps orders
// moving without external input.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// plus per-order one-shot timers on top of time.AfterFunc.
//
// # Components
//
// 1. ReconciliationJob - runs the order sweep on the configured interval
// (SWEEP_INTERVAL, ten seconds by default). The sweep is the source of truth
// for deadline-driven transitions: it derives overdue work purely from
// persisted state, so it is idempotent and restart-safe.
//
// 2. DeferredTimers - best-effort per-order wake-ups between sweeps. A timer
// firing triggers an immediate sweep so a deadline is acted on with sub-sweep
// latency. Timers are a latency optimization only; losing all of them delays
// a transition by at most one sweep interval.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	timers := jobs.NewDeferredTimers(reconcileHandler, logger)
//	jobManager := jobs.NewJobManager(reconcileHandler, timers, sweepInterval, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// DeferredTimers implements the scheduler port, so command handlers arm
// wake-ups through it without knowing about this package.
package jobs
