package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// CancelOrderCommandHandler applies an operator cancellation: the order goes
// terminal, pending deadlines and open offers are dropped, and everyone
// involved is told to stop.
type CancelOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	board      *services.DispatchBoard
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	clock      ports.Clock
	logger     *slog.Logger
}

// NewCancelOrderCommandHandler creates a handler for operator cancellations.
func NewCancelOrderCommandHandler(
	uowFactory OrderUoWFactory,
	board *services.DispatchBoard,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	clock ports.Clock,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		clock:      clock,
		logger:     logger.With("component", "cancel_order"),
	}
}

// Handle cancels the order. Returns errs.ErrAlreadyResolved when the order
// is already terminal; cancelling a cancelled order is not an error worth
// retrying, but the operator should know nothing changed.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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
	cancelled, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	expected := cancelled.Status()
	if err = cancelled.Cancel(now); err != nil {
		return err
	}
	if err = orderRepo.UpdateIf(ctx, cancelled, expected, false); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.board.Close(cancelled.ID())
	h.scheduler.Cancel(cancelled.ID())
	notifyCustomerStatus(h.notifier, cancelled)
	notifyVendorsStatus(h.notifier, cancelled)
	publishOrderChanged(ctx, h.publisher, h.logger, cancelled, now)

	h.logger.Info("order cancelled by operator",
		"order_id", cancelled.ID().String(),
		"reason", cmd.Reason())
	return nil
}
