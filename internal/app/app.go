package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/passiton/server/cmd/server/docs" // swagger docs
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/config"
	"github.com/passiton/server/internal/infra/events"
	"github.com/passiton/server/internal/utils/middleware"
)

const healthCheckTimeout = 2 * time.Second

// App represents the application.
type App struct {
	deps    *Dependencies
	cleanup func()
	router  *gin.Engine
	logger  *zap.Logger
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	app := &App{
		deps:    deps,
		cleanup: cleanup,
		logger:  deps.Logger,
	}

	app.registerEventHandlers()
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// registerEventHandlers subscribes post-commit consumers of lifecycle events.
func (a *App) registerEventHandlers() {
	bus := a.deps.EventBus

	bus.Register(transaction.NewHistoryRecorder(a.deps.HistoryRepository, a.logger.Named("history")))

	if a.deps.TransactionCache != nil {
		bus.Register(a.deps.TransactionCache.InvalidationHandler())
	}

	if m := a.deps.Metrics; m != nil {
		bus.Register(events.NewHandlerFunc(transaction.LifecycleEventTypes, func(_ context.Context, e events.Event) error {
			m.RecordTransition(e.EventType())
			return nil
		}))
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger.Named("http")))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.deps.Metrics))

	r.GET("/health", a.health)

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{})))
	}

	if cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	return r
}

// health reports liveness and, when postgres is configured, database reachability.
func (a *App) health(c *gin.Context) {
	if a.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		sqlDB, err := a.deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			a.logger.Warn("health check: database unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// registerRoutes registers the participant and internal route groups.
func (a *App) registerRoutes() {
	cfg := a.deps.Config

	// Participant API: identity, then per-user throttling, then idempotent replay.
	v1 := a.router.Group("/api/v1")
	if cfg.Auth.Mode == config.AuthModeJWT {
		v1.Use(middleware.Auth(a.deps.TokenVerifier))
	} else {
		v1.Use(middleware.HeaderIdentity())
	}
	if a.deps.RateLimiter != nil {
		v1.Use(middleware.RateLimitByUser(a.deps.RateLimiter, cfg.RateLimit.APILimit, cfg.RateLimit.APIWindow, a.logger.Named("ratelimit")))
	}
	if a.deps.IdempotencyStore != nil {
		v1.Use(middleware.Idempotency(a.deps.IdempotencyStore, middleware.IdempotencyConfig{
			TTL:    cfg.RateLimit.IdempotencyTTL,
			Logger: a.logger.Named("idempotency"),
		}))
	}
	a.deps.TransactionHandler.RegisterProtectedRoutes(v1)

	// Booking service callbacks.
	internal := a.router.Group("/internal/v1")
	internal.Use(middleware.InternalKey(cfg.Auth.InternalKeyHash))
	a.deps.BookingHandler.RegisterInternalRoutes(internal)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
