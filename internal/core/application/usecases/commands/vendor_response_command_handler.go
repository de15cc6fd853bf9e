package commands

import (
	"context"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// VendorResponseCommandHandler applies a vendor's accept or reject decision.
//
// An acceptance moves the order to Confirmed (canonical path, the scheduler
// later advances it to Preparing) or straight to Preparing when the vendor
// reports the kitchen already started; entering Preparing opens the courier
// dispatch window. A rejection cancels the order outright.
//
// The persistence write is conditional on the status the order had when it
// was loaded, so a vendor racing the hard-deadline cancellation loses cleanly
// with an AlreadyResolvedError instead of resurrecting a cancelled order.
type VendorResponseCommandHandler struct {
	uowFactory UoWFactory
	board      *services.DispatchBoard
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	clock      ports.Clock
	timings    order.Timings
	logger     *slog.Logger
}

// NewVendorResponseCommandHandler creates a handler for vendor decisions.
func NewVendorResponseCommandHandler(
	uowFactory UoWFactory,
	board *services.DispatchBoard,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	clock ports.Clock,
	timings order.Timings,
	logger *slog.Logger,
) VendorResponseCommandHandler {
	return VendorResponseCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		clock:      clock,
		timings:    timings,
		logger:     logger.With("component", "vendor_response"),
	}
}

// Handle processes the vendor decision.
// Returns errs.ErrObjectNotFound when the order does not exist, a validation
// error when the vendor has no line in the order, and errs.ErrAlreadyResolved
// when the order is past the point where a vendor response means anything.
func (h VendorResponseCommandHandler) Handle(ctx context.Context, cmd VendorResponseCommand) error {
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
	responded, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if !responded.HasVendor(cmd.VendorID()) {
		return errs.NewValueIsInvalidErrorWithCause("vendor",
			fmt.Errorf("%s has no lines in order %s", cmd.VendorID(), cmd.OrderID()))
	}

	expected := responded.Status()
	if cmd.Accept() {
		err = responded.AcceptByVendor(now, cmd.StartImmediately())
	} else {
		err = responded.RejectByVendor(now)
	}
	if err != nil {
		return err
	}

	if err = orderRepo.UpdateIf(ctx, responded, expected, false); err != nil {
		return err
	}

	// Candidate couriers are read inside the same transaction so the merged
	// accept path broadcasts against a consistent availability snapshot.
	var candidates []kernel.UUID
	if responded.Status() == order.Preparing {
		couriers, courierErr := uow.CourierRepository().GetAllAvailable(ctx)
		if courierErr != nil {
			return courierErr
		}
		candidates = availableCourierIDs(couriers)
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	switch responded.Status() {
	case order.Confirmed:
		if confirmedAt, ok := responded.StatusRecordedAt(order.Confirmed); ok {
			h.scheduler.WakeAt(responded.ID(), confirmedAt.Add(h.timings.ConfirmToPreparing))
		}
	case order.Preparing:
		h.dispatch().open(responded, candidates, now)
	case order.Cancelled:
		h.board.Close(responded.ID())
		h.scheduler.Cancel(responded.ID())
		notifyVendorsStatus(h.notifier, responded)
	}

	notifyCustomerStatus(h.notifier, responded)
	publishOrderChanged(ctx, h.publisher, h.logger, responded, now)

	h.logger.Info("vendor responded",
		"order_id", responded.ID().String(),
		"vendor_id", cmd.VendorID().String(),
		"accepted", cmd.Accept(),
		"status", responded.Status().String())
	return nil
}

func (h VendorResponseCommandHandler) dispatch() courierDispatch {
	return courierDispatch{
		board:     h.board,
		notifier:  h.notifier,
		scheduler: h.scheduler,
		timings:   h.timings,
		logger:    h.logger,
	}
}
