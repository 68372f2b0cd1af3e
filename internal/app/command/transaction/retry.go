package transaction

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/utils/metrics"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a lost conditional write is re-read and retried.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Retrier re-runs a transition while it fails with Conflict.
// Every attempt re-reads the snapshot, so a retry after losing a race sees the winner's state.
type Retrier struct {
	policy  RetryPolicy
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRetrier creates a new retrier. m may be nil.
func NewRetrier(policy RetryPolicy, m *metrics.Metrics, logger *zap.Logger) *Retrier {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{policy: policy, metrics: m, logger: logger}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or retries run out.
func (r *Retrier) Do(ctx context.Context, op string, fn func() (*transaction.Outcome, error)) (*transaction.Outcome, error) {
	attempts := 0
	attempt := func() (*transaction.Outcome, error) {
		attempts++
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !transaction.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		r.metrics.RecordConflict(op)
		return nil, err
	}
	notify := func(_ error, wait time.Duration) {
		r.logger.Debug("retrying after conflict",
			zap.String("operation", op),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
		)
	}

	out, err := backoff.RetryNotifyWithData(attempt, r.schedule(ctx), notify)
	if err != nil && transaction.IsRetryable(err) {
		r.metrics.RecordRetriesExhausted(op)
		r.logger.Warn("conflict retries exhausted",
			zap.String("operation", op),
			zap.Int("attempts", attempts),
		)
	}
	return out, err
}

func (r *Retrier) schedule(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.BaseDelay
	if r.policy.MaxDelay > 0 {
		b.MaxInterval = r.policy.MaxDelay
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.Retries)), ctx)
}
