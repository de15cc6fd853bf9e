package orderrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mutableColumns lists the order columns a save is allowed to touch after
// checkout. The identity, the lines, and the financial snapshot are written
// once by Add and never change; everything race-relevant lives here. The
// explicit select also forces NULL writes for cleared deadlines, which a
// plain struct update would silently skip.
var mutableColumns = []string{
	"courier_id",
	"status",
	"vendor_response_deadline",
	"dispatch_started_at",
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database together with its lines and the
// initial timeline entry.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order without a state precondition. Only for
// mutations with no concurrent writer; race-resolving mutations go through
// UpdateIf instead.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select(mutableColumns).
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := r.appendTimeline(ctx, dto); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// UpdateIf saves the order only when the stored row still has the expected
// status, and, when requireUnassigned is set, still has no courier. The check
// and the write are one conditional UPDATE statement, so against a shared
// database exactly one concurrent caller can win; every other caller gets an
// AlreadyResolvedError from the zero-row result.
func (r *GormOrderRepository) UpdateIf(
	ctx context.Context,
	aggregate *order.Order,
	expected order.Status,
	requireUnassigned bool,
) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	query := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND status = ?", dto.ID, expected.String())
	if requireUnassigned {
		query = query.Where("courier_id IS NULL")
	}

	result := query.Select(mutableColumns).Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewAlreadyResolvedError("order", aggregate.ID().String())
	}

	if err := r.appendTimeline(ctx, dto); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.preloaded(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByNumber retrieves an order by its human-readable order number.
func (r *GormOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	if number == "" {
		return nil, errs.NewValueIsRequiredError("order number")
	}

	var dto OrderDTO
	if err := r.preloaded(ctx).First(&dto, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", number)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllActive retrieves every order in a non-terminal status.
func (r *GormOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.preloaded(ctx).
		Find(&dtos, "status NOT IN ?", []string{order.Delivered.String(), order.Cancelled.String()}).
		Error
	if err != nil {
		return nil, err
	}

	return r.toDomainAll(dtos)
}

// GetAllAwaitingCourier retrieves orders whose courier offer window opened
// before the given moment and is still unresolved.
func (r *GormOrderRepository) GetAllAwaitingCourier(
	ctx context.Context,
	openedBefore time.Time,
) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.preloaded(ctx).
		Find(&dtos,
			"status = ? AND courier_id IS NULL AND dispatch_started_at IS NOT NULL AND dispatch_started_at < ?",
			order.Preparing.String(), openedBefore).
		Error
	if err != nil {
		return nil, err
	}

	return r.toDomainAll(dtos)
}

// GetVendorQueue retrieves the orders still awaiting a response that carry at
// least one line from the given vendor, most urgent deadline first.
func (r *GormOrderRepository) GetVendorQueue(
	ctx context.Context,
	vendorID kernel.UUID,
) ([]*order.Order, error) {
	if err := vendorID.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	err := r.preloaded(ctx).
		Where("status = ?", order.PendingVendorResponse.String()).
		Where("EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.vendor_id = ?)",
			vendorID.Bytes()).
		Order("vendor_response_deadline, id").
		Find(&dtos).
		Error
	if err != nil {
		return nil, err
	}

	return r.toDomainAll(dtos)
}

// appendTimeline persists any timeline entries the aggregate recorded since
// the last save. The composite unique index makes the insert idempotent, so
// a reconciliation sweep replaying a transition does not duplicate history.
func (r *GormOrderRepository) appendTimeline(ctx context.Context, dto OrderDTO) error {
	if len(dto.Timeline) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "status"}},
			DoNothing: true,
		}).
		Create(&dto.Timeline).
		Error
}

// preloaded returns a query with the order's lines and timeline attached in
// stable insertion order.
func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_timeline.recorded_at, order_timeline.id")
		})
}

func (r *GormOrderRepository) toDomainAll(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
