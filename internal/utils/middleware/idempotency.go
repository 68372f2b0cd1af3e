package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the header for idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// StoredResponse is a replayable response.
type StoredResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// IdempotencyStore persists responses by key. Get returns nil, nil on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is how long a stored response is replayed.
	TTL    time.Duration
	Logger *zap.Logger
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on POST.
// Keys are scoped to the caller, method and path. 409 and 5xx responses are not stored,
// so a retry after a lost race or an outage reaches the handler again.
func Idempotency(store IdempotencyStore, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		idemKey := c.GetHeader(IdempotencyKeyHeader)
		if idemKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := idempotencyKey(c, idemKey)

		stored, err := store.Get(ctx, key)
		if err != nil {
			// Store outage degrades to at-least-once; the lifecycle is idempotent anyway.
			cfg.Logger.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if stored != nil {
			for k, v := range stored.Headers {
				c.Header(k, v)
			}
			c.Data(stored.StatusCode, stored.Headers["Content-Type"], stored.Body)
			c.Abort()
			return
		}

		locked, err := store.Lock(ctx, key, idempotencyLockTTL)
		if err != nil {
			cfg.Logger.Warn("idempotency lock failed", zap.Error(err))
			c.Next()
			return
		}
		if !locked {
			abortWithError(c, http.StatusConflict, KindInProgress, "A request with this idempotency key is already being processed")
			return
		}
		defer func() {
			if err := store.Unlock(context.WithoutCancel(ctx), key); err != nil {
				cfg.Logger.Warn("idempotency unlock failed", zap.Error(err))
			}
		}()

		w := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		status := w.Status()
		if !replayable(status) {
			return
		}
		headers := make(map[string]string, len(w.Header()))
		for k := range w.Header() {
			headers[k] = w.Header().Get(k)
		}
		resp := &StoredResponse{StatusCode: status, Headers: headers, Body: w.body.Bytes()}
		if err := store.Save(context.WithoutCancel(ctx), key, resp, cfg.TTL); err != nil {
			cfg.Logger.Warn("idempotency save failed", zap.Error(err))
		}
	}
}

func replayable(status int) bool {
	return status != http.StatusConflict && status < http.StatusInternalServerError
}

func idempotencyKey(c *gin.Context, idemKey string) string {
	sum := sha256.Sum256([]byte(GetUserID(c).String() + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + idemKey))
	return hex.EncodeToString(sum[:])
}
