package commands

import (
	"context"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// CourierProgressCommandHandler closes an order on the courier's delivery
// report and returns the courier to the available pool.
type CourierProgressCommandHandler struct {
	uowFactory UoWFactory
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	clock      ports.Clock
	logger     *slog.Logger
}

// NewCourierProgressCommandHandler creates a handler for delivery reports.
func NewCourierProgressCommandHandler(
	uowFactory UoWFactory,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	clock ports.Clock,
	logger *slog.Logger,
) CourierProgressCommandHandler {
	return CourierProgressCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		clock:      clock,
		logger:     logger.With("component", "courier_progress"),
	}
}

// Handle records the delivery. Only the courier actually assigned to the
// order may close it; a report for someone else's order is a validation
// error, and a duplicate report surfaces as errs.ErrAlreadyResolved.
func (h CourierProgressCommandHandler) Handle(ctx context.Context, cmd CourierProgressCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := h.clock.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	delivered, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if delivered.Courier() == nil || !delivered.Courier().IsEqual(cmd.CourierID()) {
		return errs.NewValueIsInvalidErrorWithCause("courier",
			fmt.Errorf("order %s is not assigned to courier %s", cmd.OrderID(), cmd.CourierID()))
	}

	if err = delivered.MarkDelivered(now); err != nil {
		return err
	}
	if err = orderRepo.UpdateIf(ctx, delivered, order.OutForDelivery, false); err != nil {
		return err
	}

	courierRepo := uow.CourierRepository()
	reporting, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}
	reporting.GoOnline()
	if err = courierRepo.Update(ctx, reporting); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.scheduler.Cancel(delivered.ID())
	notifyCustomerStatus(h.notifier, delivered)
	publishOrderChanged(ctx, h.publisher, h.logger, delivered, now)

	h.logger.Info("order delivered",
		"order_id", delivered.ID().String(),
		"courier_id", cmd.CourierID().String())
	return nil
}
