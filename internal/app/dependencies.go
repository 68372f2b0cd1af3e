package app

import (
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/cache"
	"github.com/passiton/server/internal/infra/config"
	"github.com/passiton/server/internal/infra/events"
	httpports "github.com/passiton/server/internal/ports/http"
	"github.com/passiton/server/internal/utils/metrics"
	"github.com/passiton/server/internal/utils/middleware"
)

// Dependencies holds all injected dependencies.
// DB, Redis, Metrics, Cache and the redis-backed middleware stores may be nil.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    goredis.UniversalClient
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	EventBus *events.Bus

	// Domain
	TransactionDomain transaction.TransactionDomain
	HistoryRepository transaction.HistoryRepository
	TransactionCache  *cache.TransactionCache

	// Middleware
	RateLimiter      middleware.RateLimiter
	IdempotencyStore middleware.IdempotencyStore
	TokenVerifier    middleware.TokenVerifier

	// HTTP Handlers
	TransactionHandler *httpports.TransactionHandler
	BookingHandler     *httpports.BookingHandler
}
