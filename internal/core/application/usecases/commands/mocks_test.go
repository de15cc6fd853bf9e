package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Testify mocks for the persistence ports, shared by the handler tests.

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateIf(ctx context.Context, o *order.Order, expected order.Status, requireUnassigned bool) error {
	args := m.Called(ctx, o, expected, requireUnassigned)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllAwaitingCourier(ctx context.Context, openedBefore time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, openedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetVendorQueue(ctx context.Context, vendorID kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Update(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetAllAvailable(ctx context.Context) ([]*courier.Courier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*courier.Courier), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockCourierUoWFactory struct{ mock.Mock }

func (m *MockCourierUoWFactory) Create() commands.CourierUoW {
	args := m.Called()
	return args.Get(0).(commands.CourierUoW)
}

// Hand-rolled fakes for the outbound side effects. Recording fakes read
// better than testify expectations when a test only asserts "who got told".

type sentEvent struct {
	role  ports.Role
	to    kernel.UUID
	event ports.Event
}

type fakeNotifier struct {
	mu     sync.Mutex
	online map[ports.Role]map[kernel.UUID]bool
	sent   []sentEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{online: make(map[ports.Role]map[kernel.UUID]bool)}
}

func (f *fakeNotifier) IsOnline(role ports.Role, id kernel.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[role][id]
}

func (f *fakeNotifier) Send(role ports.Role, id kernel.UUID, event ports.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{role: role, to: id, event: event})
}

func (f *fakeNotifier) Broadcast(role ports.Role, event ports.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.online[role] {
		f.sent = append(f.sent, sentEvent{role: role, to: id, event: event})
	}
}

func (f *fakeNotifier) sentTo(role ports.Role, id kernel.UUID, eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sent {
		if s.role == role && s.to.IsEqual(id) && s.event.Type == eventType {
			count++
		}
	}
	return count
}

func (f *fakeNotifier) sentOfType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sent {
		if s.event.Type == eventType {
			count++
		}
	}
	return count
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ports.OrderChangedEvent
	err    error
}

func (f *fakePublisher) PublishOrderChanged(_ context.Context, event ports.OrderChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []ports.OrderChangedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]ports.OrderChangedEvent, len(f.events))
	copy(copied, f.events)
	return copied
}

type fakeScheduler struct {
	mu      sync.Mutex
	wakes   map[kernel.UUID]time.Time
	cancels []kernel.UUID
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{wakes: make(map[kernel.UUID]time.Time)}
}

func (f *fakeScheduler) WakeAt(orderID kernel.UUID, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakes[orderID] = at
}

func (f *fakeScheduler) Cancel(orderID kernel.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.wakes, orderID)
	f.cancels = append(f.cancels, orderID)
}

func (f *fakeScheduler) wakeFor(orderID kernel.UUID) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.wakes[orderID]
	return at, ok
}

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type fakeDirectory struct{}

func (fakeDirectory) ResolveCustomer(_ context.Context, id kernel.UUID) (ports.Contact, error) {
	return ports.Contact{ID: id, Name: "Asha", Phone: "+91-98000-00000"}, nil
}

func (fakeDirectory) ResolveVendor(_ context.Context, id kernel.UUID) (ports.Contact, error) {
	return ports.Contact{ID: id, Name: "Dosa Corner"}, nil
}

func (fakeDirectory) ResolveCourier(_ context.Context, id kernel.UUID) (ports.Contact, error) {
	return ports.Contact{ID: id, Name: "Ravi", Phone: "+91-98111-11111"}, nil
}

// In-memory persistence with real conditional-update semantics, used by the
// sweep and race tests where mock choreography would obscure the behavior
// under test.

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[kernel.UUID]*order.Order
}

// cloneOrder rebuilds the aggregate the way a real repository would, so
// concurrent handlers never share mutable state through the store.
func cloneOrder(o *order.Order) *order.Order {
	restored, err := order.RestoreOrder(
		o.ID(), o.Number(), o.CustomerID(), o.Courier(), o.Items(), o.Status(),
		order.RestoreTimeline(o.Timeline()),
		o.VendorResponseDeadline(), o.DispatchStartedAt(), o.Totals(),
	)
	if err != nil {
		panic(err)
	}
	return restored
}

func cloneCourier(c *courier.Courier) *courier.Courier {
	restored, err := courier.RestoreCourier(c.ID(), c.Name(), c.Phone(), c.IsAvailable())
	if err != nil {
		panic(err)
	}
	return restored
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[kernel.UUID]*order.Order)}
}

func (s *fakeOrderStore) Add(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID()] = o
	return nil
}

func (s *fakeOrderStore) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID()]; !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	s.orders[o.ID()] = o
	return nil
}

func (s *fakeOrderStore) UpdateIf(_ context.Context, o *order.Order, expected order.Status, requireUnassigned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	if stored.Status() != expected {
		return errs.NewAlreadyResolvedError("order", o.ID().String())
	}
	if requireUnassigned && stored.Courier() != nil {
		return errs.NewAlreadyResolvedError("order", o.ID().String())
	}
	s.orders[o.ID()] = o
	return nil
}

func (s *fakeOrderStore) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(stored), nil
}

func (s *fakeOrderStore) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.orders {
		if stored.Number() == number {
			return cloneOrder(stored), nil
		}
	}
	return nil, errs.NewObjectNotFoundError("order", number)
}

func (s *fakeOrderStore) GetAllActive(_ context.Context) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]*order.Order, 0, len(s.orders))
	for _, stored := range s.orders {
		if !stored.Status().IsTerminal() {
			active = append(active, cloneOrder(stored))
		}
	}
	return active, nil
}

func (s *fakeOrderStore) GetAllAwaitingCourier(_ context.Context, openedBefore time.Time) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	awaiting := make([]*order.Order, 0)
	for _, stored := range s.orders {
		if stored.HasOpenCourierOffer() && stored.DispatchStartedAt().Before(openedBefore) {
			awaiting = append(awaiting, cloneOrder(stored))
		}
	}
	return awaiting, nil
}

func (s *fakeOrderStore) GetVendorQueue(_ context.Context, vendorID kernel.UUID) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := make([]*order.Order, 0)
	for _, stored := range s.orders {
		if !stored.Status().IsTerminal() && stored.HasVendor(vendorID) {
			queue = append(queue, cloneOrder(stored))
		}
	}
	return queue, nil
}

type fakeCourierStore struct {
	mu       sync.Mutex
	couriers map[kernel.UUID]*courier.Courier
}

func newFakeCourierStore() *fakeCourierStore {
	return &fakeCourierStore{couriers: make(map[kernel.UUID]*courier.Courier)}
}

func (s *fakeCourierStore) Add(_ context.Context, c *courier.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[c.ID()] = c
	return nil
}

func (s *fakeCourierStore) Update(_ context.Context, c *courier.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[c.ID()] = c
	return nil
}

func (s *fakeCourierStore) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.couriers[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}
	return cloneCourier(stored), nil
}

func (s *fakeCourierStore) GetAllAvailable(_ context.Context) ([]*courier.Courier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	available := make([]*courier.Courier, 0)
	for _, stored := range s.couriers {
		if stored.IsAvailable() {
			available = append(available, cloneCourier(stored))
		}
	}
	return available, nil
}

// fakeUoW is a pass-through unit of work over the in-memory stores. It is
// its own factory; the fakes need no transaction isolation.
type fakeUoW struct {
	orders   *fakeOrderStore
	couriers *fakeCourierStore
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{orders: newFakeOrderStore(), couriers: newFakeCourierStore()}
}

func (u *fakeUoW) Create() commands.UoW                       { return u }
func (u *fakeUoW) Begin(_ context.Context) error              { return nil }
func (u *fakeUoW) Commit(_ context.Context) error             { return nil }
func (u *fakeUoW) Rollback(_ context.Context) error           { return nil }
func (u *fakeUoW) OrderRepository() ports.OrderRepository     { return u.orders }
func (u *fakeUoW) CourierRepository() ports.CourierRepository { return u.couriers }

// Aggregate builders shared across the handler tests.

var t0 = time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() order.FeePolicy {
	delivery, _ := kernel.NewMoney(4900)
	return order.FeePolicy{
		PlatformFeeBasisPoints: 500,
		TaxBasisPoints:         1800,
		DeliveryCharge:         delivery,
	}
}

func mustItem(t *testing.T, vendorID kernel.UUID, name string, paise int64, qty int) order.Item {
	t.Helper()
	price, err := kernel.NewMoney(paise)
	require.NoError(t, err)
	item, err := order.NewItem(vendorID, name, price, qty)
	require.NoError(t, err)
	return item
}

func newPlacedOrder(t *testing.T, vendorID, customerID kernel.UUID) *order.Order {
	t.Helper()
	placed, err := order.NewOrder(
		kernel.NewUUID(),
		"ORD-20260830-TEST",
		customerID,
		[]order.Item{mustItem(t, vendorID, "Masala Dosa", 12000, 2)},
		testPolicy(),
		kernel.Zero(),
		t0,
	)
	require.NoError(t, err)
	return placed
}

func newPreparingOrder(t *testing.T, vendorID, customerID kernel.UUID, at time.Time) *order.Order {
	t.Helper()
	preparing := newPlacedOrder(t, vendorID, customerID)
	require.NoError(t, preparing.MarkAwaitingVendor(at, 10*time.Minute))
	require.NoError(t, preparing.AcceptByVendor(at, true))
	return preparing
}

func registeredCourier(t *testing.T, name string, available bool) *courier.Courier {
	t.Helper()
	c, err := courier.NewCourier(kernel.NewUUID(), name, "+91-90000-00000")
	require.NoError(t, err)
	if available {
		c.GoOnline()
	}
	return c
}
