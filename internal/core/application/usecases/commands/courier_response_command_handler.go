package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// CourierResponseCommandHandler resolves the courier broadcast race.
//
// Acceptance is first-accept-wins: the winner is decided by a single atomic
// conditional update keyed on the order still being in Preparing with no
// courier. Every concurrent acceptance after the first loses that update and
// surfaces as "no longer available" to the courier app. The in-memory offer
// board never decides the winner; it only books who declined.
//
// A rejection excludes the courier and re-broadcasts the order to the
// remaining available couriers on a fresh window. When nobody is left the
// order stays in Preparing and the reconciliation sweep escalates it.
type CourierResponseCommandHandler struct {
	uowFactory UoWFactory
	board      *services.DispatchBoard
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	directory  ports.Directory
	clock      ports.Clock
	timings    order.Timings
	logger     *slog.Logger
}

// NewCourierResponseCommandHandler creates a handler for courier decisions.
func NewCourierResponseCommandHandler(
	uowFactory UoWFactory,
	board *services.DispatchBoard,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	directory ports.Directory,
	clock ports.Clock,
	timings order.Timings,
	logger *slog.Logger,
) CourierResponseCommandHandler {
	return CourierResponseCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		directory:  directory,
		clock:      clock,
		timings:    timings,
		logger:     logger.With("component", "courier_response"),
	}
}

// Handle processes the courier decision.
// Returns errs.ErrAlreadyResolved when the offer is stale: the order moved
// on, another courier already won, or the decision arrived twice.
func (h CourierResponseCommandHandler) Handle(ctx context.Context, cmd CourierResponseCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.Accept() {
		return h.handleAccept(ctx, cmd)
	}
	return h.handleReject(ctx, cmd)
}

func (h CourierResponseCommandHandler) handleAccept(ctx context.Context, cmd CourierResponseCommand) error {
	now := h.clock.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	accepted, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = accepted.AssignCourier(cmd.CourierID(), now); err != nil {
		return err
	}

	// The race is decided here, not in memory: the update applies only while
	// the stored order is still Preparing with no courier.
	if err = orderRepo.UpdateIf(ctx, accepted, order.Preparing, true); err != nil {
		return err
	}

	courierRepo := uow.CourierRepository()
	winner, err := courierRepo.Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}
	winner.GoOffline()
	if err = courierRepo.Update(ctx, winner); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	// Board bookkeeping is best-effort; the committed row already decided
	// the winner, and after a restart the board legitimately has no entry.
	// A divergent board entry is worth a log line before it is dropped.
	if err = h.board.Accept(accepted.ID(), cmd.CourierID()); err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.Warn("offer board out of step with accepted order",
			"order_id", accepted.ID().String(), "error", err)
	}
	losers := h.resolveLosers(cmd.OrderID(), cmd.CourierID())
	h.board.Close(accepted.ID())
	h.scheduler.Cancel(accepted.ID())

	voided := ports.Event{
		Type:    ports.EventOfferVoided,
		Payload: offerClosedPayload{OrderID: accepted.ID().String()},
	}
	for _, loser := range losers {
		h.notifier.Send(ports.RoleCourier, loser, voided)
	}

	h.notifier.Send(ports.RoleCourier, cmd.CourierID(), ports.Event{
		Type:    ports.EventCourierAssigned,
		Payload: h.assignedPayload(ctx, accepted),
	})
	notifyCustomerStatus(h.notifier, accepted)
	publishOrderChanged(ctx, h.publisher, h.logger, accepted, now)

	h.logger.Info("courier accepted order",
		"order_id", accepted.ID().String(),
		"courier_id", cmd.CourierID().String())
	return nil
}

func (h CourierResponseCommandHandler) handleReject(ctx context.Context, cmd CourierResponseCommand) error {
	now := h.clock.Now()

	// A rejection restarts the dispatch window, so it must come from a live
	// candidate of the tracked offer; anything else would postpone the sweep's
	// escalation without a real decline behind it. With no tracked offer the
	// board lost a restart and the rejection is honoured from persisted state.
	if tracked, ok := h.board.Get(cmd.OrderID()); ok {
		if !tracked.IsOpen() {
			return errs.NewAlreadyResolvedError("offer", cmd.OrderID().String())
		}
		if !tracked.IsCandidate(cmd.CourierID()) {
			return errs.NewValueIsInvalidErrorWithCause("recipient",
				fmt.Errorf("%s is not a candidate of this offer", cmd.CourierID().String()))
		}
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	rejected, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	// Fresh window for the re-broadcast; the original deadline is not reused.
	if err = rejected.RestartCourierDispatch(now); err != nil {
		return err
	}
	if err = orderRepo.UpdateIf(ctx, rejected, order.Preparing, true); err != nil {
		return err
	}

	couriers, err := uow.CourierRepository().GetAllAvailable(ctx)
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	eligible := availableCourierIDs(couriers)
	successor, err := h.board.Reject(cmd.OrderID(), cmd.CourierID(), eligible, now, h.timings.CourierWindow)
	if errors.Is(err, errs.ErrObjectNotFound) {
		// Board lost the offer (restart). Rebuild it from scratch, minus the
		// rejecter; earlier exclusions are gone, which only risks re-asking
		// couriers that already declined once.
		return h.rebroadcastWithout(rejected, eligible, cmd.CourierID(), now)
	}
	if err != nil {
		return err
	}

	if successor == nil {
		h.logger.Warn("no couriers left to offer order to",
			"order_id", rejected.ID().String())
		h.scheduler.WakeAt(rejected.ID(), now.Add(h.timings.CourierWindow))
		return nil
	}

	broadcastCourierOffer(h.notifier, rejected, successor.RemainingCandidates(), successor.ExpiresAt())
	h.scheduler.WakeAt(rejected.ID(), successor.ExpiresAt())

	h.logger.Info("courier rejected order",
		"order_id", rejected.ID().String(),
		"courier_id", cmd.CourierID().String(),
		"remaining_candidates", len(successor.RemainingCandidates()))
	return nil
}

func (h CourierResponseCommandHandler) rebroadcastWithout(
	rejected *order.Order,
	eligible []kernel.UUID,
	excluded kernel.UUID,
	now time.Time,
) error {
	remaining := make([]kernel.UUID, 0, len(eligible))
	for _, candidate := range eligible {
		if !candidate.IsEqual(excluded) {
			remaining = append(remaining, candidate)
		}
	}

	if len(remaining) == 0 {
		h.logger.Warn("no couriers left to offer order to",
			"order_id", rejected.ID().String())
		h.scheduler.WakeAt(rejected.ID(), now.Add(h.timings.CourierWindow))
		return nil
	}

	offer, err := dispatch.NewOffer(rejected.ID(), dispatch.CourierStage, remaining, now, h.timings.CourierWindow)
	if err != nil {
		return err
	}

	h.dispatch().openOffer(rejected, offer)
	return nil
}

func (h CourierResponseCommandHandler) dispatch() courierDispatch {
	return courierDispatch{
		board:     h.board,
		notifier:  h.notifier,
		scheduler: h.scheduler,
		timings:   h.timings,
		logger:    h.logger,
	}
}

// resolveLosers returns the candidates of the open offer other than the
// winner, so they can be told the order is gone.
func (h CourierResponseCommandHandler) resolveLosers(orderID, winner kernel.UUID) []kernel.UUID {
	offer, ok := h.board.Get(orderID)
	if !ok {
		return nil
	}

	losers := make([]kernel.UUID, 0, len(offer.RemainingCandidates()))
	for _, candidate := range offer.RemainingCandidates() {
		if !candidate.IsEqual(winner) {
			losers = append(losers, candidate)
		}
	}
	return losers
}

func (h CourierResponseCommandHandler) assignedPayload(ctx context.Context, assigned *order.Order) courierAssignedPayload {
	payload := courierAssignedPayload{
		OrderID:     assigned.ID().String(),
		OrderNumber: assigned.Number(),
	}

	contact, err := h.directory.ResolveCustomer(ctx, assigned.CustomerID())
	if err != nil {
		h.logger.Warn("failed to resolve customer contact",
			"order_id", assigned.ID().String(), "error", err)
		return payload
	}

	payload.CustomerName = contact.Name
	payload.CustomerPhone = contact.Phone
	return payload
}
