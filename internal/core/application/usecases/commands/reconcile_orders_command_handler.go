package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// ReconcileOrdersCommandHandler is the periodic sweep that keeps every order
// moving. It derives overdue transitions purely from persisted state and the
// clock, so running it twice in a row is a no-op and any replica can run it.
//
// Per-order rules applied on each sweep:
//   - overdue timed transitions (placed -> pending, pending -> cancelled on
//     the hard vendor deadline, confirmed -> preparing) are applied through
//     conditional updates, so a concurrently arriving vendor or courier
//     action wins cleanly
//   - an expired courier offer window is escalated and re-broadcast to the
//     currently available couriers on a fresh window, minus anyone who
//     declined the previous one
//   - an order with an open courier window the in-memory board does not know
//     about (process restart) gets its board entry rebuilt
//   - orders stuck past the preparing or delivery watchdogs are escalated,
//     never auto-cancelled
//
// Orders whose stored lines fail structural validation are excluded from
// automatic transitions for the lifetime of the process and logged once;
// cancelling them automatically could destroy real financial data.
//
// Every per-order failure is logged and isolated; one broken order never
// stalls the sweep.
type ReconcileOrdersCommandHandler struct {
	uowFactory UoWFactory
	board      *services.DispatchBoard
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	clock      ports.Clock
	timings    order.Timings
	logger     *slog.Logger

	mu        sync.Mutex
	excluded  map[kernel.UUID]struct{}
	escalated map[kernel.UUID]struct{}
}

// NewReconcileOrdersCommandHandler creates the sweep handler.
func NewReconcileOrdersCommandHandler(
	uowFactory UoWFactory,
	board *services.DispatchBoard,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	clock ports.Clock,
	timings order.Timings,
	logger *slog.Logger,
) *ReconcileOrdersCommandHandler {
	return &ReconcileOrdersCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		clock:      clock,
		timings:    timings,
		logger:     logger.With("component", "reconcile_orders"),
		excluded:   make(map[kernel.UUID]struct{}),
		escalated:  make(map[kernel.UUID]struct{}),
	}
}

// Handle runs one sweep over every active order.
func (h *ReconcileOrdersCommandHandler) Handle(ctx context.Context, cmd ReconcileOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	started := time.Now()
	now := h.clock.Now()

	h.expireOffers(now)

	ids, err := h.activeOrderIDs(ctx)
	if err != nil {
		return err
	}

	var failures int
	for _, id := range ids {
		if reconcileErr := h.reconcileOrder(ctx, id, now); reconcileErr != nil {
			failures++
			h.logger.Error("failed to reconcile order",
				"order_id", id.String(), "error", reconcileErr)
		}
	}

	h.logger.Info("reconciliation sweep finished",
		"orders", len(ids),
		"failures", failures,
		"open_offers", h.board.OpenCount(),
		"duration", time.Since(started))
	return nil
}

// expireOffers resolves board offers whose window closed and tells the
// candidates that did not react. The orders themselves are re-broadcast by
// the per-order pass below.
func (h *ReconcileOrdersCommandHandler) expireOffers(now time.Time) {
	for _, expired := range h.board.ExpireDue(now) {
		h.logger.Warn("courier offer window expired",
			"order_id", expired.OrderID().String(),
			"candidates", len(expired.RemainingCandidates()))

		timedOut := ports.Event{
			Type:    ports.EventOfferTimeout,
			Payload: offerClosedPayload{OrderID: expired.OrderID().String()},
		}
		for _, candidate := range expired.RemainingCandidates() {
			h.notifier.Send(ports.RoleCourier, candidate, timedOut)
		}
	}
}

func (h *ReconcileOrdersCommandHandler) activeOrderIDs(ctx context.Context) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	active, err := uow.OrderRepository().GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(active))
	for _, o := range active {
		ids = append(ids, o.ID())
	}
	return ids, nil
}

// reconcileOrder applies every overdue rule to one order inside its own
// transaction. Side effects that talk to the outside world run only after
// the transaction commits.
func (h *ReconcileOrdersCommandHandler) reconcileOrder(ctx context.Context, id kernel.UUID, now time.Time) error {
	if h.isExcluded(id) {
		return nil
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	reconciled, err := orderRepo.Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if reconciled.Status().IsTerminal() {
		return nil
	}

	if err = reconciled.ValidateItems(); err != nil {
		h.exclude(id, err)
		return nil
	}

	transitioned, err := h.applyTimedTransitions(ctx, orderRepo, reconciled, now)
	if errors.Is(err, errs.ErrAlreadyResolved) {
		// A concurrent vendor or courier action moved the order first.
		return nil
	}
	if err != nil {
		return err
	}

	effects, err := h.maintainDispatch(ctx, uow, reconciled, now, transitioned)
	if errors.Is(err, errs.ErrAlreadyResolved) {
		return nil
	}
	if err != nil {
		return err
	}

	effects = append(effects, h.watchdogs(reconciled, now)...)

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if transitioned {
		notifyCustomerStatus(h.notifier, reconciled)
		publishOrderChanged(ctx, h.publisher, h.logger, reconciled, now)
	}
	for _, effect := range effects {
		effect()
	}
	return nil
}

// applyTimedTransitions drains every transition the order is overdue for.
// An order placed long ago may step through pending and straight into
// cancellation within one sweep; each step is persisted conditionally.
func (h *ReconcileOrdersCommandHandler) applyTimedTransitions(
	ctx context.Context,
	orderRepo ports.OrderRepository,
	reconciled *order.Order,
	now time.Time,
) (bool, error) {
	transitioned := false
	for {
		next, due := reconciled.NextTimedTransition(now, h.timings)
		if !due {
			return transitioned, nil
		}

		expected := reconciled.Status()
		var err error
		switch next {
		case order.PendingVendorResponse:
			err = reconciled.MarkAwaitingVendor(now, h.timings.VendorResponse)
		case order.Preparing:
			err = reconciled.StartPreparing(now)
		case order.Cancelled:
			h.logger.Warn("cancelling order on vendor response deadline",
				"order_id", reconciled.ID().String())
			err = reconciled.Cancel(now)
		default:
			return transitioned, errs.NewValueIsInvalidError(next.String())
		}
		if err != nil {
			return transitioned, err
		}

		if err = orderRepo.UpdateIf(ctx, reconciled, expected, false); err != nil {
			return transitioned, err
		}
		transitioned = true
	}
}

// maintainDispatch keeps the courier offer stage healthy for an order in
// Preparing without a courier: opens the first window when the order just
// got there, re-broadcasts an expired window, and rebuilds the board entry
// after a restart. Returns the post-commit side effects to run.
func (h *ReconcileOrdersCommandHandler) maintainDispatch(
	ctx context.Context,
	uow UoW,
	reconciled *order.Order,
	now time.Time,
	justTransitioned bool,
) ([]func(), error) {
	if reconciled.Status() != order.Preparing || reconciled.Courier() != nil {
		if reconciled.Status() == order.Cancelled {
			return []func(){func() {
				h.board.Close(reconciled.ID())
				h.scheduler.Cancel(reconciled.ID())
				notifyVendorsStatus(h.notifier, reconciled)
			}}, nil
		}
		if reconciled.Status() == order.PendingVendorResponse && justTransitioned {
			deadline := reconciled.VendorResponseDeadline()
			if deadline != nil {
				at := *deadline
				return []func(){func() {
					h.scheduler.WakeAt(reconciled.ID(), at)
				}}, nil
			}
		}
		return nil, nil
	}

	dispatcher := courierDispatch{
		board:     h.board,
		notifier:  h.notifier,
		scheduler: h.scheduler,
		timings:   h.timings,
		logger:    h.logger,
	}

	switch {
	case justTransitioned:
		// The order entered Preparing during this sweep; open the first window.
		candidates, err := h.availableCandidates(ctx, uow)
		if err != nil {
			return nil, err
		}
		return []func(){func() {
			dispatcher.open(reconciled, candidates, now)
		}}, nil

	case reconciled.IsCourierWindowExpired(now, h.timings):
		h.logger.Warn("escalating order with expired courier window",
			"order_id", reconciled.ID().String())

		if err := reconciled.RestartCourierDispatch(now); err != nil {
			return nil, err
		}
		if err := uow.OrderRepository().UpdateIf(ctx, reconciled, order.Preparing, true); err != nil {
			return nil, err
		}

		candidates, err := h.availableCandidates(ctx, uow)
		if err != nil {
			return nil, err
		}

		prior, tracked := h.board.Get(reconciled.ID())
		return []func(){func() {
			h.notifier.Send(ports.RoleCustomer, reconciled.CustomerID(), ports.Event{
				Type:    ports.EventOfferTimeout,
				Payload: offerClosedPayload{OrderID: reconciled.ID().String()},
			})
			h.rebroadcast(dispatcher, reconciled, prior, tracked, candidates, now)
		}}, nil

	case reconciled.HasOpenCourierOffer():
		if _, tracked := h.board.Get(reconciled.ID()); tracked {
			return nil, nil
		}
		// Restart recovery: the persisted window is still open but the board
		// lost it. Rebuild the entry on the original window and re-send the
		// broadcast; couriers that already saw it get a duplicate push.
		candidates, err := h.availableCandidates(ctx, uow)
		if err != nil {
			return nil, err
		}
		startedAt := *reconciled.DispatchStartedAt()
		return []func(){func() {
			offer, offerErr := dispatch.NewOffer(
				reconciled.ID(), dispatch.CourierStage, candidates, startedAt, h.timings.CourierWindow)
			if offerErr != nil {
				h.logger.Warn("cannot rebuild courier offer",
					"order_id", reconciled.ID().String(), "error", offerErr)
				return
			}
			dispatcher.openOffer(reconciled, offer)
		}}, nil
	}

	return nil, nil
}

// rebroadcast opens a successor window after an expiry, carrying forward the
// previous offer's exclusions when the board still has it.
func (h *ReconcileOrdersCommandHandler) rebroadcast(
	dispatcher courierDispatch,
	reconciled *order.Order,
	prior *dispatch.Offer,
	tracked bool,
	candidates []kernel.UUID,
	now time.Time,
) {
	if !tracked {
		dispatcher.open(reconciled, candidates, now)
		return
	}

	successor, err := prior.Successor(candidates, now, h.timings.CourierWindow)
	if err != nil {
		h.logger.Warn("no eligible couriers for re-broadcast",
			"order_id", reconciled.ID().String())
		h.scheduler.WakeAt(reconciled.ID(), now.Add(h.timings.CourierWindow))
		return
	}
	dispatcher.openOffer(reconciled, successor)
}

// watchdogs escalates stuck orders. The logs repeat every sweep on purpose so
// a stuck order stays visible until somebody intervenes; the customer whose
// dispatch stalled is told once per process, after the commit.
func (h *ReconcileOrdersCommandHandler) watchdogs(reconciled *order.Order, now time.Time) []func() {
	var effects []func()
	if reconciled.IsPreparingOverdue(now, h.timings) {
		h.logger.Warn("order stuck in preparing past watchdog",
			"order_id", reconciled.ID().String(),
			"watchdog", h.timings.PreparingWatchdog)
		if h.markEscalated(reconciled.ID()) {
			effects = append(effects, func() {
				h.notifier.Send(ports.RoleCustomer, reconciled.CustomerID(), ports.Event{
					Type:    ports.EventOfferTimeout,
					Payload: offerClosedPayload{OrderID: reconciled.ID().String()},
				})
			})
		}
	}
	if reconciled.IsDeliveryOverdue(now, h.timings) {
		h.logger.Warn("order out for delivery past watchdog",
			"order_id", reconciled.ID().String(),
			"courier_id", reconciled.Courier().String(),
			"watchdog", h.timings.DeliveryWatchdog)
	}
	return effects
}

// markEscalated reports whether this is the first watchdog escalation of the
// order in this process.
func (h *ReconcileOrdersCommandHandler) markEscalated(id kernel.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.escalated[id]; ok {
		return false
	}
	h.escalated[id] = struct{}{}
	return true
}

func (h *ReconcileOrdersCommandHandler) availableCandidates(ctx context.Context, uow UoW) ([]kernel.UUID, error) {
	couriers, err := uow.CourierRepository().GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return availableCourierIDs(couriers), nil
}

func (h *ReconcileOrdersCommandHandler) isExcluded(id kernel.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, ok := h.excluded[id]
	return ok
}

// exclude takes an order out of automatic processing for the lifetime of the
// process. Logged once, here; subsequent sweeps skip it silently.
func (h *ReconcileOrdersCommandHandler) exclude(id kernel.UUID, cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.excluded[id]; ok {
		return
	}
	h.excluded[id] = struct{}{}
	h.logger.Warn("excluding order with malformed lines from automatic transitions",
		"order_id", id.String(), "error", cause)
}
