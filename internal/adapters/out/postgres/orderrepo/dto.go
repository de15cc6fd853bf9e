// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Maps order domain entities to relational database tables with proper indexing
// for efficient querying by status and courier assignment.
//
// Status is stored as its wire string (e.g. "pending_vendor_response") so the
// rows stay readable and the conditional updates in the repository can compare
// against the same representation the read models use.
type OrderDTO struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Number                 string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	CourierID              *uuid.UUID `gorm:"type:uuid;index"`
	Status                 string     `gorm:"type:varchar(32);not null;index"`
	VendorResponseDeadline *time.Time
	DispatchStartedAt      *time.Time
	SubtotalPaise          int64 `gorm:"not null"`
	PlatformFeePaise       int64 `gorm:"not null"`
	DeliveryChargePaise    int64 `gorm:"not null"`
	TaxPaise               int64 `gorm:"not null"`
	DiscountPaise          int64 `gorm:"not null"`
	TotalPaise             int64 `gorm:"not null"`

	Items    []ItemDTO          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Timeline []TimelineEntryDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO represents one order line in the database. Lines are written once
// at checkout and never updated afterwards; the price columns are snapshots.
type ItemDTO struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"type:varchar(255);not null"`
	UnitPricePaise int64     `gorm:"not null"`
	Quantity       int       `gorm:"not null"`
}

// TableName specifies the database table name for order line entities.
// Overrides GORM's default naming convention to use "order_items".
func (ItemDTO) TableName() string {
	return "order_items"
}

// TimelineEntryDTO represents one recorded status transition. The composite
// unique index mirrors the timeline invariant that a status is recorded at
// most once per order, so replayed writes collapse into no-ops.
type TimelineEntryDTO struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_timeline_status"`
	Status     string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_order_timeline_status"`
	RecordedAt time.Time `gorm:"not null"`
}

// TableName specifies the database table name for timeline entries.
// Overrides GORM's default naming convention to use "order_timeline".
func (TimelineEntryDTO) TableName() string {
	return "order_timeline"
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including the optional courier assignment, the
// pending deadlines, and the derived financial breakdown.
func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()

	var courierID *uuid.UUID
	if id := o.Courier(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	items := make([]ItemDTO, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, ItemDTO{
			OrderID:        orderID,
			VendorID:       item.VendorID().Bytes(),
			Name:           item.Name(),
			UnitPricePaise: item.UnitPrice().Paise(),
			Quantity:       item.Quantity(),
		})
	}

	timeline := make([]TimelineEntryDTO, 0, len(o.Timeline()))
	for _, entry := range o.Timeline() {
		timeline = append(timeline, TimelineEntryDTO{
			OrderID:    orderID,
			Status:     entry.Status.String(),
			RecordedAt: entry.At,
		})
	}

	totals := o.Totals()

	return OrderDTO{
		ID:                     orderID,
		Number:                 o.Number(),
		CustomerID:             o.CustomerID().Bytes(),
		CourierID:              courierID,
		Status:                 o.Status().String(),
		VendorResponseDeadline: o.VendorResponseDeadline(),
		DispatchStartedAt:      o.DispatchStartedAt(),
		SubtotalPaise:          totals.Subtotal.Paise(),
		PlatformFeePaise:       totals.PlatformFee.Paise(),
		DeliveryChargePaise:    totals.DeliveryCharge.Paise(),
		TaxPaise:               totals.Tax.Paise(),
		DiscountPaise:          totals.Discount.Paise(),
		TotalPaise:             totals.Total.Paise(),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Items are restored without structural validation so legacy partial writes
// remain loadable; callers driving automatic transitions check ValidateItems.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}

		courierID = &cID
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDto := range dto.Items {
		item, itemErr := itemToDomain(itemDto)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	entries := make([]order.TimelineEntry, 0, len(dto.Timeline))
	for _, entryDto := range dto.Timeline {
		entryStatus, entryErr := order.StatusFromString(entryDto.Status)
		if entryErr != nil {
			return nil, entryErr
		}
		entries = append(entries, order.TimelineEntry{
			Status: entryStatus,
			At:     entryDto.RecordedAt,
		})
	}

	totals, err := totalsToDomain(dto)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		dto.Number,
		customerID,
		courierID,
		items,
		status,
		order.RestoreTimeline(entries),
		dto.VendorResponseDeadline,
		dto.DispatchStartedAt,
		totals,
	)
}

// itemToDomain converts an order line DTO to its domain value.
func itemToDomain(dto ItemDTO) (order.Item, error) {
	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return order.Item{}, err
	}

	unitPrice, err := kernel.NewMoney(dto.UnitPricePaise)
	if err != nil {
		return order.Item{}, err
	}

	return order.RestoreItem(vendorID, dto.Name, unitPrice, dto.Quantity), nil
}

// totalsToDomain reconstructs the financial breakdown from the paise columns.
func totalsToDomain(dto OrderDTO) (order.Totals, error) {
	subtotal, err := kernel.NewMoney(dto.SubtotalPaise)
	if err != nil {
		return order.Totals{}, err
	}
	platformFee, err := kernel.NewMoney(dto.PlatformFeePaise)
	if err != nil {
		return order.Totals{}, err
	}
	deliveryCharge, err := kernel.NewMoney(dto.DeliveryChargePaise)
	if err != nil {
		return order.Totals{}, err
	}
	tax, err := kernel.NewMoney(dto.TaxPaise)
	if err != nil {
		return order.Totals{}, err
	}
	discount, err := kernel.NewMoney(dto.DiscountPaise)
	if err != nil {
		return order.Totals{}, err
	}
	total, err := kernel.NewMoney(dto.TotalPaise)
	if err != nil {
		return order.Totals{}, err
	}

	return order.Totals{
		Subtotal:       subtotal,
		PlatformFee:    platformFee,
		DeliveryCharge: deliveryCharge,
		Tax:            tax,
		Discount:       discount,
		Total:          total,
	}, nil
}
