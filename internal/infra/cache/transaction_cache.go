package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/events"
	"github.com/passiton/server/internal/infra/persistence/entity"
	"github.com/passiton/server/internal/utils/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const transactionKeyPrefix = "passiton:tx:"

// Entries are hashes holding the snapshot version (v) and the encoded snapshot (d).
// A tombstone keeps v without d so a slower reader cannot write back an older snapshot.
const (
	fieldVersion = "v"
	fieldData    = "d"
)

// setScript writes the snapshot unless a newer version is already recorded.
var setScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// tombstoneScript drops the snapshot and records the committed version.
var tombstoneScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HDEL', KEYS[1], 'd')
redis.call('HSET', KEYS[1], 'v', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// TransactionCacheConfig configures the snapshot cache.
type TransactionCacheConfig struct {
	TTL              time.Duration
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// TransactionCache caches read snapshots in Redis. Transitions never read from it.
// Redis failures degrade to cache misses, and a circuit breaker stops calling Redis
// after repeated failures.
type TransactionCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTransactionCache creates a new snapshot cache. m may be nil.
func NewTransactionCache(client redis.UniversalClient, cfg TransactionCacheConfig, m *metrics.Metrics, logger *zap.Logger) *TransactionCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "transaction-cache",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &TransactionCache{
		client:  client,
		ttl:     cfg.TTL,
		breaker: breaker,
		metrics: m,
		logger:  logger,
	}
}

// Get returns a cached snapshot. Any failure is reported as a miss.
func (c *TransactionCache) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, bool) {
	raw, err := c.breaker.Execute(func() (any, error) {
		return c.client.HGet(ctx, transactionKey(id), fieldData).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache read failed", zap.String("transaction_id", id.String()), zap.Error(err))
		}
		c.metrics.RecordCacheResult("transaction", false)
		return nil, false
	}

	var ent entity.TransactionEntity
	if err := json.Unmarshal(raw.([]byte), &ent); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("transaction_id", id.String()), zap.Error(err))
		c.Invalidate(ctx, id)
		c.metrics.RecordCacheResult("transaction", false)
		return nil, false
	}
	c.metrics.RecordCacheResult("transaction", true)
	return ent.ToDomain(), true
}

// Set stores a snapshot unless the entry already records a newer version.
// Failures are logged and ignored.
func (c *TransactionCache) Set(ctx context.Context, tx *transaction.Transaction) {
	data, err := json.Marshal(entity.FromDomainTransaction(tx))
	if err != nil {
		c.logger.Warn("encode cache entry", zap.Error(err))
		return
	}
	_, err = c.breaker.Execute(func() (any, error) {
		return setScript.Run(ctx, c.client, []string{transactionKey(tx.ID())},
			tx.Version(), data, c.ttl.Milliseconds()).Int()
	})
	if err != nil {
		c.logger.Debug("cache write failed", zap.String("transaction_id", tx.ID().String()), zap.Error(err))
	}
}

// Supersede drops the snapshot and records version as the newest committed one.
func (c *TransactionCache) Supersede(ctx context.Context, id uuid.UUID, version int64) {
	_, err := c.breaker.Execute(func() (any, error) {
		return tombstoneScript.Run(ctx, c.client, []string{transactionKey(id)},
			version, c.ttl.Milliseconds()).Int()
	})
	if err != nil {
		c.logger.Debug("cache supersede failed", zap.String("transaction_id", id.String()), zap.Error(err))
	}
}

// Invalidate drops a snapshot.
func (c *TransactionCache) Invalidate(ctx context.Context, id uuid.UUID) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.client.Del(ctx, transactionKey(id)).Err()
	})
	if err != nil {
		c.logger.Debug("cache invalidate failed", zap.String("transaction_id", id.String()), zap.Error(err))
	}
}

// State returns the circuit breaker state.
func (c *TransactionCache) State() gobreaker.State {
	return c.breaker.State()
}

// InvalidationHandler supersedes the snapshot of every transaction that changed.
// Events without a version fall back to a plain delete.
func (c *TransactionCache) InvalidationHandler() events.Handler {
	return events.NewHandlerFunc([]string{
		transaction.EventHandoverConfirmed,
		transaction.EventReturnConfirmed,
		transaction.EventCompleted,
		transaction.EventDisputed,
	}, func(ctx context.Context, e events.Event) error {
		if le, ok := transaction.AsLifecycleEvent(e); ok && le.Version > 0 {
			c.Supersede(ctx, e.AggregateID(), le.Version)
			return nil
		}
		c.Invalidate(ctx, e.AggregateID())
		return nil
	})
}

func transactionKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", transactionKeyPrefix, id)
}
