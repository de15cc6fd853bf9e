package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// SetCourierAvailabilityCommandHandler toggles a courier's availability.
// A courier that comes online joins every courier offer window currently
// open and receives those offers immediately, except windows it already
// declined. Going offline leaves open offers alone; the courier can still
// answer them.
type SetCourierAvailabilityCommandHandler struct {
	uowFactory UoWFactory
	board      *services.DispatchBoard
	notifier   ports.Notifier
	clock      ports.Clock
	logger     *slog.Logger
}

// NewSetCourierAvailabilityCommandHandler creates a handler for the toggle.
func NewSetCourierAvailabilityCommandHandler(
	uowFactory UoWFactory,
	board *services.DispatchBoard,
	notifier ports.Notifier,
	clock ports.Clock,
	logger *slog.Logger,
) SetCourierAvailabilityCommandHandler {
	return SetCourierAvailabilityCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		notifier:   notifier,
		clock:      clock,
		logger:     logger.With("component", "courier_availability"),
	}
}

// Handle persists the availability change and, for a courier coming online,
// re-sends the currently open offer windows to it.
func (h SetCourierAvailabilityCommandHandler) Handle(ctx context.Context, cmd SetCourierAvailabilityCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()
	toggled, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	wasAvailable := toggled.IsAvailable()
	if cmd.Available() {
		toggled.GoOnline()
	} else {
		toggled.GoOffline()
	}

	if err = courierRepo.Update(ctx, toggled); err != nil {
		return err
	}

	var awaiting []*order.Order
	if cmd.Available() && !wasAvailable {
		awaiting, err = uow.OrderRepository().GetAllAwaitingCourier(ctx, h.clock.Now())
		if err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.joinOpenWindows(awaiting, cmd.CourierID())
	return nil
}

// joinOpenWindows adds the courier to the board entry of every order with an
// open dispatch window and pushes the offer to it. Windows the board does not
// track yet are left to the next sweep's rebuild pass.
func (h SetCourierAvailabilityCommandHandler) joinOpenWindows(awaiting []*order.Order, courierID kernel.UUID) {
	for _, o := range awaiting {
		expiresAt, added := h.board.Include(o.ID(), courierID)
		if !added {
			continue
		}

		broadcastCourierOffer(h.notifier, o, []kernel.UUID{courierID}, expiresAt)
		h.logger.Info("courier joined open offer window",
			"order_id", o.ID().String(),
			"courier_id", courierID.String())
	}
}
