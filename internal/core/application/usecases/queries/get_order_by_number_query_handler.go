package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
)

// OrderReader is the slice of the order repository the tracking query needs.
type OrderReader interface {
	GetByNumber(ctx context.Context, number string) (*order.Order, error)
}

// GetOrderByNumberQueryHandler serves the customer-facing tracking view.
// Unlike the other read models it goes through the order repository rather
// than raw SQL: the view is exactly the restored aggregate (current status,
// courier, full status timeline), and folding those rows a second time in SQL
// would duplicate the repository's restore logic.
type GetOrderByNumberQueryHandler struct {
	orders OrderReader
}

// NewGetOrderByNumberQueryHandler creates a handler for order tracking queries.
func NewGetOrderByNumberQueryHandler(orders OrderReader) GetOrderByNumberQueryHandler {
	return GetOrderByNumberQueryHandler{orders: orders}
}

// Handle resolves the order number to its tracking view.
// Returns an ObjectNotFoundError when no order carries the number.
func (h GetOrderByNumberQueryHandler) Handle(
	ctx context.Context,
	query GetOrderByNumberQuery,
) (GetOrderByNumberQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderByNumberQueryResponse{}, err
	}

	tracked, err := h.orders.GetByNumber(ctx, query.Number())
	if err != nil {
		return GetOrderByNumberQueryResponse{}, err
	}

	timeline := make([]OrderTimelineEntry, 0, len(tracked.Timeline()))
	for _, entry := range tracked.Timeline() {
		timeline = append(timeline, OrderTimelineEntry{
			Status: entry.Status.String(),
			At:     entry.At,
		})
	}

	return GetOrderByNumberQueryResponse{
		OrderID:    tracked.ID(),
		Number:     tracked.Number(),
		CustomerID: tracked.CustomerID(),
		CourierID:  tracked.Courier(),
		Status:     tracked.Status().String(),
		Total:      tracked.Totals().Total,
		Timeline:   timeline,
	}, nil
}
