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

type vendorResponseFixture struct {
	uow       *fakeUoW
	board     *services.DispatchBoard
	notifier  *fakeNotifier
	publisher *fakePublisher
	scheduler *fakeScheduler
	handler   commands.VendorResponseCommandHandler
}

func newVendorResponseFixture(t *testing.T, now time.Time) *vendorResponseFixture {
	t.Helper()
	f := &vendorResponseFixture{
		uow:       newFakeUoW(),
		board:     services.NewDispatchBoard(),
		notifier:  newFakeNotifier(),
		publisher: &fakePublisher{},
		scheduler: newFakeScheduler(),
	}
	f.handler = commands.NewVendorResponseCommandHandler(
		f.uow, f.board, f.notifier, f.publisher, f.scheduler,
		fakeClock{now: now}, order.DefaultTimings(), testLogger(),
	)
	return f
}

func TestVendorResponseCommandHandler_Accept_Confirms(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()
	customerID := kernel.NewUUID()
	now := t0.Add(time.Minute)

	f := newVendorResponseFixture(t, now)
	pending := newPlacedOrder(t, vendorID, customerID)
	require.NoError(t, pending.MarkAwaitingVendor(t0.Add(30*time.Second), 10*time.Minute))
	require.NoError(t, f.uow.orders.Add(ctx, pending))

	cmd, err := commands.NewVendorResponseCommand(pending.ID(), vendorID, true, false)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))

	stored, err := f.uow.orders.Get(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, stored.Status())
	assert.Nil(t, stored.VendorResponseDeadline())

	// The scheduler owns the Confirmed -> Preparing hop.
	wake, armed := f.scheduler.wakeFor(pending.ID())
	require.True(t, armed)
	assert.Equal(t, now.Add(order.DefaultTimings().ConfirmToPreparing), wake)

	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleCustomer, customerID, ports.EventOrderStatusUpdate))
	require.Len(t, f.publisher.published(), 1)
	assert.Equal(t, "confirmed", f.publisher.published()[0].Status)
}

func TestVendorResponseCommandHandler_AcceptStartImmediately_OpensCourierDispatch(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()
	now := t0.Add(time.Minute)

	f := newVendorResponseFixture(t, now)
	pending := newPlacedOrder(t, vendorID, kernel.NewUUID())
	require.NoError(t, pending.MarkAwaitingVendor(t0.Add(30*time.Second), 10*time.Minute))
	require.NoError(t, f.uow.orders.Add(ctx, pending))

	rider := registeredCourier(t, "Ravi", true)
	offlineRider := registeredCourier(t, "Suresh", false)
	require.NoError(t, f.uow.couriers.Add(ctx, rider))
	require.NoError(t, f.uow.couriers.Add(ctx, offlineRider))

	cmd, err := commands.NewVendorResponseCommand(pending.ID(), vendorID, true, true)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))

	stored, err := f.uow.orders.Get(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Preparing, stored.Status())
	assert.True(t, stored.HasOpenCourierOffer())

	// Broadcast goes to available couriers only.
	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleCourier, rider.ID(), ports.EventCourierOffer))
	assert.Equal(t, 0, f.notifier.sentTo(ports.RoleCourier, offlineRider.ID(), ports.EventCourierOffer))

	offer, tracked := f.board.Get(pending.ID())
	require.True(t, tracked)
	assert.True(t, offer.IsOpen())
	assert.Equal(t, now.Add(order.DefaultTimings().CourierWindow), offer.ExpiresAt())
}

func TestVendorResponseCommandHandler_Reject_Cancels(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()
	customerID := kernel.NewUUID()

	f := newVendorResponseFixture(t, t0.Add(time.Minute))
	pending := newPlacedOrder(t, vendorID, customerID)
	require.NoError(t, pending.MarkAwaitingVendor(t0.Add(30*time.Second), 10*time.Minute))
	require.NoError(t, f.uow.orders.Add(ctx, pending))

	cmd, err := commands.NewVendorResponseCommand(pending.ID(), vendorID, false, false)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))

	stored, err := f.uow.orders.Get(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, stored.Status())

	assert.Contains(t, f.scheduler.cancels, pending.ID())
	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleVendor, vendorID, ports.EventOrderStatusUpdate))
}

func TestVendorResponseCommandHandler_AcceptBeforeScheduler_PassesThroughPending(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()

	f := newVendorResponseFixture(t, t0.Add(5*time.Second))
	placed := newPlacedOrder(t, vendorID, kernel.NewUUID())
	require.NoError(t, f.uow.orders.Add(ctx, placed))

	cmd, err := commands.NewVendorResponseCommand(placed.ID(), vendorID, true, false)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))

	stored, err := f.uow.orders.Get(ctx, placed.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, stored.Status())

	// The timeline keeps every edge the order took.
	_, recorded := stored.StatusRecordedAt(order.PendingVendorResponse)
	assert.True(t, recorded)
}

func TestVendorResponseCommandHandler_StaleResponse(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()

	f := newVendorResponseFixture(t, t0.Add(time.Minute))
	preparing := newPreparingOrder(t, vendorID, kernel.NewUUID(), t0)
	require.NoError(t, f.uow.orders.Add(ctx, preparing))

	cmd, err := commands.NewVendorResponseCommand(preparing.ID(), vendorID, true, false)
	require.NoError(t, err)
	err = f.handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrAlreadyResolved)
}

func TestVendorResponseCommandHandler_ForeignVendor(t *testing.T) {
	ctx := t.Context()

	f := newVendorResponseFixture(t, t0.Add(time.Minute))
	pending := newPlacedOrder(t, kernel.NewUUID(), kernel.NewUUID())
	require.NoError(t, f.uow.orders.Add(ctx, pending))

	cmd, err := commands.NewVendorResponseCommand(pending.ID(), kernel.NewUUID(), true, false)
	require.NoError(t, err)
	err = f.handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestVendorResponseCommandHandler_OrderNotFound(t *testing.T) {
	f := newVendorResponseFixture(t, t0)

	cmd, err := commands.NewVendorResponseCommand(kernel.NewUUID(), kernel.NewUUID(), true, false)
	require.NoError(t, err)
	err = f.handler.Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
