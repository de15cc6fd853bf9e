package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cancelOrderFixture struct {
	uow       *fakeUoW
	board     *services.DispatchBoard
	notifier  *fakeNotifier
	scheduler *fakeScheduler
	handler   commands.CancelOrderCommandHandler
}

func newCancelOrderFixture(t *testing.T, now time.Time) *cancelOrderFixture {
	t.Helper()
	f := &cancelOrderFixture{
		uow:       newFakeUoW(),
		board:     services.NewDispatchBoard(),
		notifier:  newFakeNotifier(),
		scheduler: newFakeScheduler(),
	}
	f.handler = commands.NewCancelOrderCommandHandler(
		orderUoWFactory{f.uow}, f.board, f.notifier, &fakePublisher{}, f.scheduler,
		fakeClock{now: now}, testLogger())
	return f
}

// orderUoWFactory narrows the fake cross-aggregate unit of work to the
// order-only factory interface.
type orderUoWFactory struct{ uow *fakeUoW }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.uow }

func TestCancelOrderCommandHandler_CancelsActiveOrder(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()
	customerID := kernel.NewUUID()

	f := newCancelOrderFixture(t, t0.Add(time.Minute))
	active := newPlacedOrder(t, vendorID, customerID)
	require.NoError(t, f.uow.orders.Add(ctx, active))

	cmd, err := commands.NewCancelOrderCommand(active.ID(), "customer requested refund")
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))

	stored, err := f.uow.orders.Get(ctx, active.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, stored.Status())

	assert.Contains(t, f.scheduler.cancels, active.ID())
	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleCustomer, customerID, ports.EventOrderStatusUpdate))
	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleVendor, vendorID, ports.EventOrderStatusUpdate))
}

func TestCancelOrderCommandHandler_TerminalOrder(t *testing.T) {
	ctx := t.Context()

	f := newCancelOrderFixture(t, t0.Add(time.Minute))
	done := newPlacedOrder(t, kernel.NewUUID(), kernel.NewUUID())
	require.NoError(t, done.Cancel(t0.Add(time.Second)))
	require.NoError(t, f.uow.orders.Add(ctx, done))

	cmd, err := commands.NewCancelOrderCommand(done.ID(), "duplicate")
	require.NoError(t, err)
	err = f.handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrAlreadyResolved)
}

func TestCancelOrderCommandHandler_OrderNotFound(t *testing.T) {
	f := newCancelOrderFixture(t, t0)

	cmd, err := commands.NewCancelOrderCommand(kernel.NewUUID(), "typo")
	require.NoError(t, err)
	err = f.handler.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
