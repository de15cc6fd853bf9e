package cmd

import (
	"context"
	"log/slog"
	"time"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/in/realtime"
	"fulfillment/internal/adapters/out/directory"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/IBM/sarama"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory

	board     *services.DispatchBoard
	registry  *realtime.ConnectionRegistry
	publisher *kafka.OrderChangedPublisher
	producer  sarama.SyncProducer
	timers    *jobs.DeferredTimers
	directory ports.Directory
	clock     ports.Clock

	timings       order.Timings
	policy        order.FeePolicy
	sweepInterval time.Duration
	logger        *slog.Logger

	reconcileHandler *commands.ReconcileOrdersCommandHandler
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	producer, err := kafka.NewSyncProducer([]string{config.KafkaHost})
	if err != nil {
		return nil, err
	}

	directoryClient, err := directory.NewHTTPDirectory(config.DirectoryBaseURL, nil)
	if err != nil {
		return nil, err
	}

	root := &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		board:      services.NewDispatchBoard(),
		registry:   realtime.NewConnectionRegistry(logger),
		publisher:  kafka.NewOrderChangedPublisher(producer, config.KafkaOrderChangedTopic, logger),
		producer:   producer,
		directory:  directoryClient,
		clock:      ports.SystemClock{},
		timings:       config.Timings,
		policy:        config.FeePolicy,
		sweepInterval: config.SweepInterval,
		logger:        logger,
	}

	// The deferred timers run the sweep and the sweep arms deferred timers,
	// so the runner is bound after both exist.
	lazy := &lazySweepRunner{}
	root.timers = jobs.NewDeferredTimers(lazy, logger)
	root.reconcileHandler = commands.NewReconcileOrdersCommandHandler(
		FuncUoWFactory(func() commands.UoW { return root.uowFactory.Create() }),
		root.board,
		root.registry,
		root.publisher,
		root.timers,
		root.clock,
		root.timings,
		logger,
	)
	lazy.handler = root.reconcileHandler

	return root, nil
}

// Close releases the external connections the root owns.
func (c *CompositionRoot) Close() {
	if err := c.publisher.Close(); err != nil {
		c.logger.Error("failed to close kafka producer", "error", err)
	}
}

func (c *CompositionRoot) CreateCheckoutOrderCommandHandler() commands.CheckoutOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCheckoutOrderCommandHandler(
		f, c.registry, c.publisher, c.timers, c.clock, c.policy, c.timings, c.logger,
	)
}

func (c *CompositionRoot) CreateVendorResponseCommandHandler() commands.VendorResponseCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewVendorResponseCommandHandler(
		f, c.board, c.registry, c.publisher, c.timers, c.clock, c.timings, c.logger,
	)
}

func (c *CompositionRoot) CreateCourierResponseCommandHandler() commands.CourierResponseCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCourierResponseCommandHandler(
		f, c.board, c.registry, c.publisher, c.timers, c.directory, c.clock, c.timings, c.logger,
	)
}

func (c *CompositionRoot) CreateCourierProgressCommandHandler() commands.CourierProgressCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCourierProgressCommandHandler(
		f, c.registry, c.publisher, c.timers, c.clock, c.logger,
	)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelOrderCommandHandler(
		f, c.board, c.registry, c.publisher, c.timers, c.clock, c.logger,
	)
}

func (c *CompositionRoot) CreateRegisterCourierCommandHandler() commands.RegisterCourierCommandHandler {
	var f commands.CourierUoWFactory = FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterCourierCommandHandler(f)
}

func (c *CompositionRoot) CreateSetCourierAvailabilityCommandHandler() commands.SetCourierAvailabilityCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewSetCourierAvailabilityCommandHandler(
		f, c.board, c.registry, c.clock, c.logger,
	)
}

func (c *CompositionRoot) CreateReconcileOrdersCommandHandler() *commands.ReconcileOrdersCommandHandler {
	return c.reconcileHandler
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderByNumberQueryHandler() queries.GetOrderByNumberQueryHandler {
	// Read-only path: the unit of work never begins a transaction here, so the
	// repository binds to the main connection.
	return queries.NewGetOrderByNumberQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateGetVendorQueueQueryHandler() queries.GetVendorQueueQueryHandler {
	return queries.NewGetVendorQueueQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetAvailableCouriersQueryHandler() queries.GetAvailableCouriersQueryHandler {
	return queries.NewGetAvailableCouriersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCheckoutOrderCommandHandler(),
		c.CreateVendorResponseCommandHandler(),
		c.CreateCourierResponseCommandHandler(),
		c.CreateCourierProgressCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		c.CreateRegisterCourierCommandHandler(),
		c.CreateSetCourierAvailabilityCommandHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
		c.CreateGetOrderByNumberQueryHandler(),
		c.CreateGetVendorQueueQueryHandler(),
		c.CreateGetAvailableCouriersQueryHandler(),
		realtime.NewSSEHandler(c.registry),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.reconcileHandler, c.timers, c.sweepInterval, c.logger)
}

func (c *CompositionRoot) CreateBasketConfirmedConsumer(config Config) (*kafka.BasketConfirmedConsumer, error) {
	return kafka.NewBasketConfirmedConsumer(
		[]string{config.KafkaHost},
		config.KafkaConsumerGroup,
		config.KafkaBasketConfirmedTopic,
		c.CreateCheckoutOrderCommandHandler(),
		c.logger,
	)
}

// lazySweepRunner breaks the constructor cycle between the reconcile handler
// and the deferred timers. No timer is armed before wiring completes.
type lazySweepRunner struct {
	handler *commands.ReconcileOrdersCommandHandler
}

func (l *lazySweepRunner) Handle(ctx context.Context, cmd commands.ReconcileOrdersCommand) error {
	if l.handler == nil {
		return nil
	}
	return l.handler.Handle(ctx, cmd)
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
