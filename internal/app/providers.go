package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Application layer
	txCmd "github.com/passiton/server/internal/app/command/transaction"
	txQuery "github.com/passiton/server/internal/app/query/transaction"

	// Domain
	"github.com/passiton/server/internal/domain/transaction"

	// Infrastructure
	"github.com/passiton/server/internal/infra/auth"
	"github.com/passiton/server/internal/infra/cache"
	"github.com/passiton/server/internal/infra/config"
	"github.com/passiton/server/internal/infra/database"
	"github.com/passiton/server/internal/infra/events"
	"github.com/passiton/server/internal/infra/persistence"

	// Ports
	httpports "github.com/passiton/server/internal/ports/http"

	// Utils
	"github.com/passiton/server/internal/utils/logger"
	"github.com/passiton/server/internal/utils/metrics"
	"github.com/passiton/server/internal/utils/middleware"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideEventBus,
)

// ProvideLogger creates the zap logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the metrics instance, or nil when metrics are disabled.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewWithRegistry(cfg.Metrics.Namespace, reg)
}

// ProvideDatabase opens postgres. The memory driver needs no connection and yields nil.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory transaction store, data will not survive a restart")
		return nil, func() {}, nil
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}

	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional: on failure the
// cache, rate limiter and idempotency store are disabled.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		return nil, func() {}
	}
	return client, func() {
		if err := cache.Close(client); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
}

// ProvideEventBus creates the in-process event bus.
func ProvideEventBus(log *zap.Logger) *events.Bus {
	return events.NewBus(log)
}

// ===== Transaction Domain Providers =====

// TransactionSet provides the lifecycle domain and its stores.
var TransactionSet = wire.NewSet(
	ProvideTransactionRepository,
	ProvideHistoryRepository,
	ProvideEventPublisher,
	ProvideTransactionDomain,
	ProvideTransactionCache,
	ProvideSnapshotCache,
	ProvideRetrier,
)

// ProvideTransactionRepository selects the durable store.
func ProvideTransactionRepository(db *gorm.DB) transaction.Repository {
	if db == nil {
		return persistence.NewMemoryTransactionRepository()
	}
	return persistence.NewTransactionRepository(db)
}

// ProvideHistoryRepository selects the audit trail store.
func ProvideHistoryRepository(db *gorm.DB) transaction.HistoryRepository {
	if db == nil {
		return persistence.NewMemoryHistoryRepository()
	}
	return persistence.NewHistoryRepository(db)
}

// ProvideEventPublisher exposes the bus as the domain's outbound port.
func ProvideEventPublisher(bus *events.Bus) transaction.EventPublisher {
	return bus
}

// ProvideTransactionDomain creates the lifecycle manager.
func ProvideTransactionDomain(repo transaction.Repository, pub transaction.EventPublisher, log *zap.Logger) transaction.TransactionDomain {
	return transaction.NewTransactionDomain(repo, pub, log.Named("transaction"))
}

// ProvideTransactionCache creates the redis snapshot cache, or nil without redis.
func ProvideTransactionCache(cfg *config.Config, redis goredis.UniversalClient, m *metrics.Metrics, log *zap.Logger) *cache.TransactionCache {
	if redis == nil || !cfg.Cache.Enabled {
		return nil
	}
	return cache.NewTransactionCache(redis, cache.TransactionCacheConfig{
		TTL:              cfg.Cache.TTL,
		FailureThreshold: cfg.Cache.FailureThreshold,
		BreakerTimeout:   cfg.Cache.BreakerTimeout,
	}, m, log.Named("cache"))
}

// ProvideSnapshotCache adapts the cache for the query layer without leaking a typed nil.
func ProvideSnapshotCache(c *cache.TransactionCache) txQuery.SnapshotCache {
	if c == nil {
		return nil
	}
	return c
}

// ProvideRetrier creates the conflict retry policy.
func ProvideRetrier(cfg *config.Config, m *metrics.Metrics, log *zap.Logger) *txCmd.Retrier {
	return txCmd.NewRetrier(txCmd.RetryPolicy{
		Retries:   cfg.Lifecycle.ConflictRetries,
		BaseDelay: cfg.Lifecycle.RetryBaseDelay,
		MaxDelay:  cfg.Lifecycle.RetryMaxDelay,
	}, m, log.Named("retry"))
}

// ===== Command / Query Providers =====

// CommandSet provides lifecycle command handlers.
var CommandSet = wire.NewSet(
	txCmd.NewCreateTransactionHandler,
	txCmd.NewConfirmHandoverHandler,
	txCmd.NewConfirmReturnHandler,
	txCmd.NewCompleteTransactionHandler,
	txCmd.NewReportDisputeHandler,
)

// QuerySet provides lifecycle query handlers.
var QuerySet = wire.NewSet(
	txQuery.NewGetTransactionHandler,
	txQuery.NewListTransactionsHandler,
	txQuery.NewGetHistoryHandler,
)

// ===== HTTP Providers =====

// MiddlewareSet provides redis-backed and identity middleware dependencies.
var MiddlewareSet = wire.NewSet(
	ProvideRateLimiter,
	ProvideIdempotencyStore,
	ProvideTokenVerifier,
)

// ProvideRateLimiter creates the per-user rate limiter, or nil without redis.
func ProvideRateLimiter(cfg *config.Config, redis goredis.UniversalClient) middleware.RateLimiter {
	if redis == nil || !cfg.RateLimit.Enabled {
		return nil
	}
	return cache.NewRateLimiter(redis)
}

// ProvideIdempotencyStore creates the Idempotency-Key store, or nil without redis.
func ProvideIdempotencyStore(redis goredis.UniversalClient) middleware.IdempotencyStore {
	if redis == nil {
		return nil
	}
	return cache.NewIdempotencyStore(redis)
}

// ProvideTokenVerifier creates the bearer token verifier for jwt mode.
func ProvideTokenVerifier(cfg *config.Config) middleware.TokenVerifier {
	if cfg.Auth.Mode != config.AuthModeJWT {
		return nil
	}
	return auth.NewJWTVerifier(auth.JWTConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
}

// HandlerSet provides all HTTP handlers.
var HandlerSet = wire.NewSet(
	httpports.NewErrorHandler,
	httpports.NewTransactionHandler,
	httpports.NewBookingHandler,
)

// ===== Master Set =====

// AppSet is the master provider set that includes all dependencies.
var AppSet = wire.NewSet(
	InfraSet,
	TransactionSet,
	CommandSet,
	QuerySet,
	MiddlewareSet,
	HandlerSet,
)
