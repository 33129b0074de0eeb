package app

import (
	"context"
	"fmt"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/internal/gateway"
	"motoka/internal/repository"
	"motoka/internal/service"
	kafkat "motoka/internal/transport/kafka"
	"motoka/internal/transport/scheduler"
	"motoka/pkg/cache"
	"motoka/pkg/kafka"
	"motoka/pkg/kafka/dlq"
	"motoka/pkg/lock"
	"motoka/pkg/logger"
	"motoka/pkg/metric"
	"motoka/pkg/storage/postgres"
	"motoka/pkg/storage/postgres/transaction"

	kafkago "github.com/segmentio/kafka-go"
)

// Core is the reconciliation stack shared by the payment service and the
// operator CLI: storage, gateways, engine, dispatcher and sweeper.
type Core struct {
	DB        *postgres.Postgres
	Gateways  *gateway.Registry
	Engine    *service.Engine
	Payments  *service.PaymentService
	Sweeper   *scheduler.Sweeper
	Publisher *kafkat.Publisher

	Writer *kafkago.Writer
	DLQ    *dlq.DLQ

	closers []func()
}

func NewCore(ctx context.Context, cfg *config.Config, log logger.Logger, metrics metric.Factory) (*Core, error) {
	core := &Core{}

	db, err := initDatabase(&cfg.Postgres, log)
	if err != nil {
		return nil, err
	}
	core.DB = db
	core.onClose(db.Close)

	txManager, err := initTransactionManager(db, log, metrics)
	if err != nil {
		core.Close()
		return nil, err
	}

	feeCache, err := initFeeCache(&cfg.Cache, log, metrics)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.onClose(feeCache.StopCleanup)

	gateways, err := gateway.NewFromConfig(cfg, metrics.Gateway(), log.With("component", "gateway"))
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("app.NewCore: %w", err)
	}
	core.Gateways = gateways

	if err = core.initPublisher(cfg, log, metrics); err != nil {
		core.Close()
		return nil, err
	}

	payments := repository.NewPaymentRepository(db)
	orders := repository.NewOrderRepository(db)
	resources := repository.NewResourceRepository(db)
	fees := repository.NewFeeRepository(db)

	dispatcher := service.NewDispatcher(
		resources,
		orders,
		repository.NewReminderRepository(db),
		repository.NewNotificationRepository(db),
		core.Publisher,
		txManager,
		metrics.Reconcile(),
		log.With("component", "dispatcher"),
	)

	core.Engine = service.NewEngine(
		payments,
		gateways,
		dispatcher,
		metrics.Reconcile(),
		log.With("component", "reconciliation engine"),
	)

	core.Payments = service.NewPaymentService(
		payments,
		orders,
		resources,
		fees,
		core.Engine,
		dispatcher,
		gateways,
		feeCache,
		cfg.Cache.TTL,
		cfg.Payment,
		log.With("component", "payment service"),
	)

	locker, err := core.initLocker(ctx, cfg)
	if err != nil {
		core.Close()
		return nil, err
	}

	core.Sweeper = scheduler.NewSweeper(
		payments,
		core.Engine,
		locker,
		cfg.Sweep,
		metrics.Sweep(),
		log.With("component", "sweeper"),
	)

	return core, nil
}

func (c *Core) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func initDatabase(cfg *config.Postgres, log logger.Logger) (*postgres.Postgres, error) {
	db, err := postgres.NewPostgres(
		cfg,
		log.With("component", "database"),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.MaxConnAttempts(cfg.ConnAttempts),
		postgres.BaseRetryDelay(cfg.BaseRetryDelay),
		postgres.MaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}
	return db, nil
}

func initTransactionManager(
	db *postgres.Postgres,
	log logger.Logger,
	metrics metric.Factory,
) (transaction.Manager, error) {
	txManager, err := transaction.NewManager(
		db,
		log.With("component", "transaction manager"),
		metrics.Transaction(),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initTransactionManager: %w", err)
	}
	return txManager, nil
}

func initFeeCache(
	cfg *config.Cache,
	log logger.Logger,
	metrics metric.Factory,
) (cache.Cache[int64, entity.FeeSchedule], error) {
	feeCache, err := cache.NewLRUCache[int64, entity.FeeSchedule](
		"fee_schedule",
		cfg.Capacity,
		log.With("component", "cache"),
		metrics.Cache(),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initFeeCache: %w", err)
	}
	feeCache.StartCleanup(cfg.CleanupInterval)
	return feeCache, nil
}

func (c *Core) initPublisher(cfg *config.Config, log logger.Logger, metrics metric.Factory) error {
	c.Writer = kafka.NewWriter(cfg.Kafka, log.With("component", "kafka writer"))
	c.onClose(func() {
		if err := c.Writer.Close(); err != nil {
			log.Warnw("failed to close kafka writer", "error", err)
		}
	})

	deadLetterQueue, err := dlq.NewDLQ(
		cfg.DLQ,
		log.With("component", "dlq"),
		metrics.DLQ(),
		dlq.MaxAttemptsCount(cfg.DLQ.MaxRetryCount),
		dlq.BaseRetryDelay(cfg.DLQ.RetryDelay),
	)
	if err != nil {
		return fmt.Errorf("app.initPublisher: dead letter queue creation: %w", err)
	}
	c.DLQ = deadLetterQueue
	c.onClose(func() {
		if err := deadLetterQueue.Close(); err != nil {
			log.Warnw("failed to close dlq writer", "error", err)
		}
	})

	c.Publisher = kafkat.NewPublisher(
		c.Writer,
		cfg.Kafka.Topic,
		deadLetterQueue,
		metrics.Publisher(),
		log.With("component", "event publisher"),
	)
	return nil
}

func (c *Core) initLocker(ctx context.Context, cfg *config.Config) (lock.Locker, error) {
	client, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("app.initLocker: %w", err)
	}
	c.onClose(func() { _ = client.Close() })

	return lock.NewRedisLocker(client), nil
}
