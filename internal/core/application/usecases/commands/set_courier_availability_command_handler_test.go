package commands_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type availabilityFixture struct {
	uow      *fakeUoW
	board    *services.DispatchBoard
	notifier *fakeNotifier
	handler  commands.SetCourierAvailabilityCommandHandler
}

func newAvailabilityFixture(t *testing.T, now time.Time) *availabilityFixture {
	t.Helper()
	f := &availabilityFixture{
		uow:      newFakeUoW(),
		board:    services.NewDispatchBoard(),
		notifier: newFakeNotifier(),
	}
	f.handler = commands.NewSetCourierAvailabilityCommandHandler(
		f.uow, f.board, f.notifier, fakeClock{now: now}, testLogger(),
	)
	return f
}

// seedOpenWindow puts an order into Preparing with a board-tracked offer to
// the given couriers, the state a live dispatch leaves behind.
func (f *availabilityFixture) seedOpenWindow(t *testing.T, ctx context.Context, openedAt time.Time, candidates ...kernel.UUID) *order.Order {
	t.Helper()

	preparing := newPreparingOrder(t, kernel.NewUUID(), kernel.NewUUID(), openedAt)
	require.NoError(t, f.uow.orders.Add(ctx, preparing))

	offer, err := dispatch.NewOffer(preparing.ID(), dispatch.CourierStage, candidates,
		openedAt, order.DefaultTimings().CourierWindow)
	require.NoError(t, err)
	require.NoError(t, f.board.Open(offer))
	return preparing
}

func (f *availabilityFixture) toggle(t *testing.T, ctx context.Context, courierID kernel.UUID, available bool) {
	t.Helper()
	cmd, err := commands.NewSetCourierAvailabilityCommand(courierID, available)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, cmd))
}

func TestSetCourierAvailabilityCommandHandler_TogglePersists(t *testing.T) {
	ctx := t.Context()
	f := newAvailabilityFixture(t, t0)

	rider := registeredCourier(t, "Ravi", false)
	require.NoError(t, f.uow.couriers.Add(ctx, rider))

	f.toggle(t, ctx, rider.ID(), true)
	stored, err := f.uow.couriers.Get(ctx, rider.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsAvailable())

	f.toggle(t, ctx, rider.ID(), false)
	stored, err = f.uow.couriers.Get(ctx, rider.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable())
}

func TestSetCourierAvailabilityCommandHandler_OnlineJoinsOpenWindows(t *testing.T) {
	ctx := t.Context()
	now := t0.Add(time.Minute)
	f := newAvailabilityFixture(t, now)

	busy := registeredCourier(t, "Suresh", true)
	require.NoError(t, f.uow.couriers.Add(ctx, busy))
	preparing := f.seedOpenWindow(t, ctx, t0, busy.ID())

	late := registeredCourier(t, "Ravi", false)
	require.NoError(t, f.uow.couriers.Add(ctx, late))

	f.toggle(t, ctx, late.ID(), true)

	// The late courier holds the running window now, on its original expiry.
	assert.Equal(t, 1, f.notifier.sentTo(ports.RoleCourier, late.ID(), ports.EventCourierOffer))
	offer, tracked := f.board.Get(preparing.ID())
	require.True(t, tracked)
	assert.True(t, offer.IsCandidate(late.ID()))
	assert.Equal(t, t0.Add(order.DefaultTimings().CourierWindow), offer.ExpiresAt())
}

func TestSetCourierAvailabilityCommandHandler_OnlineSkipsDeclinedWindow(t *testing.T) {
	ctx := t.Context()
	now := t0.Add(time.Minute)
	f := newAvailabilityFixture(t, now)

	rejecter := registeredCourier(t, "Ravi", true)
	other := registeredCourier(t, "Suresh", true)
	require.NoError(t, f.uow.couriers.Add(ctx, rejecter))
	require.NoError(t, f.uow.couriers.Add(ctx, other))
	preparing := f.seedOpenWindow(t, ctx, t0, rejecter.ID(), other.ID())

	_, err := f.board.Reject(preparing.ID(), rejecter.ID(),
		[]kernel.UUID{rejecter.ID(), other.ID()}, t0.Add(30*time.Second), order.DefaultTimings().CourierWindow)
	require.NoError(t, err)

	// Declining, going offline, and coming back does not revive the offer.
	f.toggle(t, ctx, rejecter.ID(), false)
	f.toggle(t, ctx, rejecter.ID(), true)

	assert.Equal(t, 0, f.notifier.sentTo(ports.RoleCourier, rejecter.ID(), ports.EventCourierOffer))
	offer, tracked := f.board.Get(preparing.ID())
	require.True(t, tracked)
	assert.False(t, offer.IsCandidate(rejecter.ID()))
}

func TestSetCourierAvailabilityCommandHandler_RepeatedOnlineDoesNotResend(t *testing.T) {
	ctx := t.Context()
	now := t0.Add(time.Minute)
	f := newAvailabilityFixture(t, now)

	rider := registeredCourier(t, "Ravi", true)
	require.NoError(t, f.uow.couriers.Add(ctx, rider))
	f.seedOpenWindow(t, ctx, t0, rider.ID())

	// Already online and already a candidate; the toggle is a no-op.
	f.toggle(t, ctx, rider.ID(), true)

	assert.Equal(t, 0, f.notifier.sentTo(ports.RoleCourier, rider.ID(), ports.EventCourierOffer))
}

func TestSetCourierAvailabilityCommandHandler_OfflineLeavesWindowsAlone(t *testing.T) {
	ctx := t.Context()
	now := t0.Add(time.Minute)
	f := newAvailabilityFixture(t, now)

	rider := registeredCourier(t, "Ravi", true)
	require.NoError(t, f.uow.couriers.Add(ctx, rider))
	preparing := f.seedOpenWindow(t, ctx, t0, rider.ID())

	f.toggle(t, ctx, rider.ID(), false)

	assert.Equal(t, 0, f.notifier.sentOfType(ports.EventCourierOffer))
	offer, tracked := f.board.Get(preparing.ID())
	require.True(t, tracked)
	assert.True(t, offer.IsOpen())
	assert.True(t, offer.IsCandidate(rider.ID()))
}
