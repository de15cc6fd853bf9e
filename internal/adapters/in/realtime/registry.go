// Package realtime keeps the live push channels of connected participants.
// The registry implements the Notifier port over per-role connection maps; the
// SSE handler adapts an HTTP request into one registered subscriber.
package realtime

import (
	"log/slog"
	"sync"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// subscriberBuffer is the per-connection event queue depth. A consumer that
// falls further behind than this starts losing events; delivery is
// best-effort by contract.
const subscriberBuffer = 16

// Subscription is one live push channel. Events arrive on Events until the
// subscription is cancelled.
type Subscription struct {
	events chan ports.Event
}

// Events returns the channel the subscriber reads from.
func (s *Subscription) Events() <-chan ports.Event {
	return s.events
}

// ConnectionRegistry tracks which participants currently hold a live push
// channel, one independent map per role. A participant may hold several
// channels at once (two open browser tabs); every channel gets every event.
//
// The registry is safe for concurrent use. Sends never block: a slow
// subscriber loses events instead of stalling the dispatcher.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	conns  map[ports.Role]map[kernel.UUID]map[*Subscription]struct{}
	logger *slog.Logger
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry(logger *slog.Logger) *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: map[ports.Role]map[kernel.UUID]map[*Subscription]struct{}{
			ports.RoleVendor:   {},
			ports.RoleCustomer: {},
			ports.RoleCourier:  {},
		},
		logger: logger.With("component", "connection-registry"),
	}
}

// Subscribe registers a new push channel for the participant and returns the
// subscription together with its cancel function. Cancel is idempotent.
func (r *ConnectionRegistry) Subscribe(role ports.Role, id kernel.UUID) (*Subscription, func()) {
	sub := &Subscription{events: make(chan ports.Event, subscriberBuffer)}

	r.mu.Lock()
	byID, ok := r.conns[role]
	if !ok {
		byID = map[kernel.UUID]map[*Subscription]struct{}{}
		r.conns[role] = byID
	}
	if byID[id] == nil {
		byID[id] = map[*Subscription]struct{}{}
	}
	byID[id][sub] = struct{}{}
	r.mu.Unlock()

	r.logger.Debug("participant connected", "role", string(role), "id", id.String())

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			if subs := r.conns[role][id]; subs != nil {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(r.conns[role], id)
				}
			}
			// Closed under the write lock so no concurrent Send can push
			// into a closed channel.
			close(sub.events)
			r.mu.Unlock()
			r.logger.Debug("participant disconnected", "role", string(role), "id", id.String())
		})
	}
	return sub, cancel
}

// IsOnline reports whether the participant has at least one live channel.
func (r *ConnectionRegistry) IsOnline(role ports.Role, id kernel.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[role][id]) > 0
}

// Send delivers an event to every channel of one participant.
// A no-op when the participant is offline.
func (r *ConnectionRegistry) Send(role ports.Role, id kernel.UUID, event ports.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sub := range r.conns[role][id] {
		r.push(sub, role, id, event)
	}
}

// Broadcast delivers an event to every connected participant of a role.
func (r *ConnectionRegistry) Broadcast(role ports.Role, event ports.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, subs := range r.conns[role] {
		for sub := range subs {
			r.push(sub, role, id, event)
		}
	}
}

func (r *ConnectionRegistry) push(sub *Subscription, role ports.Role, id kernel.UUID, event ports.Event) {
	select {
	case sub.events <- event:
	default:
		r.logger.Warn("dropping event for slow subscriber",
			"role", string(role), "id", id.String(), "event", event.Type)
	}
}
