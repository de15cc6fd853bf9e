package queries

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetVendorQueueQueryHandler retrieves a vendor's pending order requests from
// the database. One SQL round trip fetches the orders together with the
// vendor's lines; rows are folded into per-order read models in memory.
type GetVendorQueueQueryHandler struct {
	db *gorm.DB
}

// NewGetVendorQueueQueryHandler creates a handler for vendor queue queries.
// Requires a GORM database connection for query execution.
func NewGetVendorQueueQueryHandler(db *gorm.DB) GetVendorQueueQueryHandler {
	return GetVendorQueueQueryHandler{db: db}
}

// Handle executes the query to retrieve the vendor's pending requests.
// Returns orders awaiting a vendor response, most urgent deadline first,
// each carrying only the given vendor's lines.
func (h GetVendorQueueQueryHandler) Handle(
	ctx context.Context,
	query GetVendorQueueQuery,
) ([]GetVendorQueueQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.number,
			o.vendor_response_deadline,
			i.name,
			i.unit_price_paise,
			i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id AND i.vendor_id = ?
		WHERE o.status = ?
		ORDER BY o.vendor_response_deadline, o.id, i.id
	`, query.VendorID().Bytes(), order.PendingVendorResponse.String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queue := make([]GetVendorQueueQueryResponse, 0)
	index := make(map[kernel.UUID]int)

	for rows.Next() {
		var id uuid.UUID
		var number string
		var respondBy *time.Time
		var item VendorQueueItem
		var unitPricePaise int64

		err = rows.Scan(
			&id,
			&number,
			&respondBy,
			&item.Name,
			&unitPricePaise,
			&item.Quantity,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}

		unitPrice, moneyErr := kernel.NewMoney(unitPricePaise)
		if moneyErr != nil {
			return nil, moneyErr
		}
		item.UnitPrice = unitPrice

		pos, ok := index[orderID]
		if !ok {
			pos = len(queue)
			index[orderID] = pos
			queue = append(queue, GetVendorQueueQueryResponse{
				OrderID:   orderID,
				Number:    number,
				RespondBy: respondBy,
			})
		}
		queue[pos].Items = append(queue[pos].Items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return queue, nil
}
