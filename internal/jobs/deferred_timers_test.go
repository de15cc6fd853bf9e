package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweepRunner struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func newCountingSweepRunner() *countingSweepRunner {
	return &countingSweepRunner{done: make(chan struct{}, 16)}
}

func (r *countingSweepRunner) Handle(_ context.Context, _ commands.ReconcileOrdersCommand) error {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *countingSweepRunner) sweeps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *countingSweepRunner) waitForSweep(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sweep")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeferredTimers_WakeAtTriggersSweep(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	timers.WakeAt(kernel.NewUUID(), time.Now().Add(10*time.Millisecond))

	runner.waitForSweep(t)
	assert.Equal(t, 1, runner.sweeps())
}

func TestDeferredTimers_PastMomentFiresImmediately(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	timers.WakeAt(kernel.NewUUID(), time.Now().Add(-time.Minute))

	runner.waitForSweep(t)
	assert.Equal(t, 1, runner.sweeps())
}

func TestDeferredTimers_NewerWakeAtReplacesOlder(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	orderID := kernel.NewUUID()
	timers.WakeAt(orderID, time.Now().Add(time.Hour))
	timers.WakeAt(orderID, time.Now().Add(10*time.Millisecond))

	runner.waitForSweep(t)
	assert.Equal(t, 1, runner.sweeps())
}

func TestDeferredTimers_CancelDropsWakeUp(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	orderID := kernel.NewUUID()
	timers.WakeAt(orderID, time.Now().Add(30*time.Millisecond))
	timers.Cancel(orderID)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, runner.sweeps())
}

func TestDeferredTimers_CancelUnknownOrderIsNoop(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	timers.Cancel(kernel.NewUUID())
	timers.Cancel(kernel.NewUUID())
}

func TestDeferredTimers_StopDropsArmedTimersAndRefusesNewOnes(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())

	timers.WakeAt(kernel.NewUUID(), time.Now().Add(20*time.Millisecond))
	timers.Stop()
	timers.WakeAt(kernel.NewUUID(), time.Now().Add(-time.Minute))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, runner.sweeps())
}

func TestDeferredTimers_ConcurrentArmAndCancel(t *testing.T) {
	runner := newCountingSweepRunner()
	timers := NewDeferredTimers(runner, testLogger())
	defer timers.Stop()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orderID := kernel.NewUUID()
			timers.WakeAt(orderID, time.Now().Add(time.Hour))
			timers.WakeAt(orderID, time.Now().Add(time.Hour))
			timers.Cancel(orderID)
		}()
	}
	wg.Wait()

	require.Equal(t, 0, runner.sweeps())
}
