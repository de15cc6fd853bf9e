package commands_test

import (
	"errors"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func checkoutHandler(factory commands.OrderUoWFactory, notifier *fakeNotifier, publisher *fakePublisher, scheduler *fakeScheduler) commands.CheckoutOrderCommandHandler {
	return commands.NewCheckoutOrderCommandHandler(
		factory, notifier, publisher, scheduler,
		fakeClock{now: t0}, testPolicy(), order.DefaultTimings(), testLogger(),
	)
}

func TestCheckoutOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	vendorID := kernel.NewUUID()
	customerID := kernel.NewUUID()
	price, _ := kernel.NewMoney(12000)
	cmd, err := commands.NewCheckoutOrderCommand(kernel.NewUUID(), customerID,
		[]commands.CheckoutItem{{VendorID: vendorID, Name: "Masala Dosa", UnitPrice: price, Quantity: 2}},
		kernel.Zero())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	notifier := newFakeNotifier()
	publisher := &fakePublisher{}
	scheduler := newFakeScheduler()

	h := checkoutHandler(factory, notifier, publisher, scheduler)
	require.NoError(t, h.Handle(ctx, cmd))

	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)

	// Stage A: the vendor got its offer, the customer got the placed status.
	assert.Equal(t, 1, notifier.sentTo(ports.RoleVendor, vendorID, ports.EventNewOrderOffer))
	assert.Equal(t, 1, notifier.sentTo(ports.RoleCustomer, customerID, ports.EventOrderStatusUpdate))

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, "placed", published[0].Status)

	wake, armed := scheduler.wakeFor(cmd.OrderID())
	require.True(t, armed)
	assert.Equal(t, t0.Add(order.DefaultTimings().PendingAfter), wake)
}

func TestCheckoutOrderCommandHandler_Handle_OneVendorOfferPerVendor(t *testing.T) {
	ctx := t.Context()
	vendorA := kernel.NewUUID()
	vendorB := kernel.NewUUID()
	price, _ := kernel.NewMoney(9000)
	cmd, err := commands.NewCheckoutOrderCommand(kernel.NewUUID(), kernel.NewUUID(),
		[]commands.CheckoutItem{
			{VendorID: vendorA, Name: "Masala Dosa", UnitPrice: price, Quantity: 1},
			{VendorID: vendorA, Name: "Filter Coffee", UnitPrice: price, Quantity: 2},
			{VendorID: vendorB, Name: "Veg Biryani", UnitPrice: price, Quantity: 1},
		},
		kernel.Zero())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil)
	uow.On("OrderRepository").Return(repo)
	repo.On("Add", mock.Anything, mock.Anything).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow)

	notifier := newFakeNotifier()
	h := checkoutHandler(factory, notifier, &fakePublisher{}, newFakeScheduler())
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, 1, notifier.sentTo(ports.RoleVendor, vendorA, ports.EventNewOrderOffer))
	assert.Equal(t, 1, notifier.sentTo(ports.RoleVendor, vendorB, ports.EventNewOrderOffer))
}

func TestCheckoutOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	h := checkoutHandler(new(MockOrderUoWFactory), newFakeNotifier(), &fakePublisher{}, newFakeScheduler())
	err := h.Handle(t.Context(), commands.CheckoutOrderCommand{})
	require.Error(t, err)
}

func TestCheckoutOrderCommandHandler_Handle_InvalidItem(t *testing.T) {
	cmd, err := commands.NewCheckoutOrderCommand(kernel.NewUUID(), kernel.NewUUID(),
		[]commands.CheckoutItem{{VendorID: kernel.NewUUID(), Name: "Masala Dosa", UnitPrice: kernel.Zero(), Quantity: 1}},
		kernel.Zero())
	require.NoError(t, err)

	h := checkoutHandler(new(MockOrderUoWFactory), newFakeNotifier(), &fakePublisher{}, newFakeScheduler())
	require.Error(t, h.Handle(t.Context(), cmd))
}

func TestCheckoutOrderCommandHandler_Handle_AddError(t *testing.T) {
	ctx := t.Context()
	price, _ := kernel.NewMoney(12000)
	cmd, err := commands.NewCheckoutOrderCommand(kernel.NewUUID(), kernel.NewUUID(),
		[]commands.CheckoutItem{{VendorID: kernel.NewUUID(), Name: "Masala Dosa", UnitPrice: price, Quantity: 1}},
		kernel.Zero())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", mock.Anything, mock.Anything).Return(errors.New("add error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	notifier := newFakeNotifier()
	scheduler := newFakeScheduler()
	h := checkoutHandler(factory, notifier, &fakePublisher{}, scheduler)
	require.Error(t, h.Handle(ctx, cmd))

	// Nothing announced for an order that never committed.
	assert.Empty(t, notifier.sent)
	_, armed := scheduler.wakeFor(cmd.OrderID())
	assert.False(t, armed)
}
