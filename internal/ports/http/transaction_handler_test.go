package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	txCmd "github.com/passiton/server/internal/app/command/transaction"
	txQuery "github.com/passiton/server/internal/app/query/transaction"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/events"
	"github.com/passiton/server/internal/infra/persistence"
	"github.com/passiton/server/internal/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testInternalKey = "booking-service-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	repo := persistence.NewMemoryTransactionRepository()
	history := persistence.NewMemoryHistoryRepository()
	bus := events.NewBus(logger)
	bus.Register(transaction.NewHistoryRecorder(history, logger))

	domain := transaction.NewTransactionDomain(repo, bus, logger)
	retrier := txCmd.NewRetrier(txCmd.RetryPolicy{Retries: 3, BaseDelay: time.Millisecond}, nil, logger)
	errs := NewErrorHandler(logger)

	txHandler := NewTransactionHandler(
		txCmd.NewConfirmHandoverHandler(domain, retrier),
		txCmd.NewConfirmReturnHandler(domain, retrier),
		txCmd.NewCompleteTransactionHandler(domain, retrier),
		txCmd.NewReportDisputeHandler(domain, retrier),
		txQuery.NewGetTransactionHandler(domain, nil),
		txQuery.NewListTransactionsHandler(domain),
		txQuery.NewGetHistoryHandler(domain, history),
		errs,
	)
	bookingHandler := NewBookingHandler(txCmd.NewCreateTransactionHandler(domain), errs)

	hash, err := bcrypt.GenerateFromPassword([]byte(testInternalKey), bcrypt.MinCost)
	require.NoError(t, err)

	r := gin.New()
	txHandler.RegisterProtectedRoutes(r.Group("/api/v1", middleware.HeaderIdentity()))
	bookingHandler.RegisterInternalRoutes(r.Group("/internal/v1", middleware.InternalKey(string(hash))))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, caller uuid.UUID, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, caller.String())
	}
	if strings.HasPrefix(path, "/internal/") {
		req.Header.Set(middleware.InternalKeyHeader, testInternalKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decodeTransaction(t *testing.T, env envelope) TransactionResponse {
	t.Helper()
	var tx TransactionResponse
	require.NoError(t, json.Unmarshal(env.Data, &tx))
	return tx
}

func openBooking(t *testing.T, r *gin.Engine, owner, counterparty uuid.UUID) TransactionResponse {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/internal/v1/transactions", uuid.Nil, CreateTransactionRequest{
		BookingID:      uuid.NewString(),
		ResourceID:     uuid.NewString(),
		OwnerID:        owner.String(),
		CounterpartyID: counterparty.String(),
		PriceCents:     1500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeTransaction(t, env)
}

func txPath(id string, action string) string {
	if action == "" {
		return "/api/v1/transactions/" + id
	}
	return fmt.Sprintf("/api/v1/transactions/%s/%s", id, action)
}

func TestCreateTransaction(t *testing.T) {
	r := newTestRouter(t)
	owner, borrower := uuid.New(), uuid.New()
	req := CreateTransactionRequest{
		BookingID:      uuid.NewString(),
		ResourceID:     uuid.NewString(),
		ResourceType:   "service",
		OwnerID:        owner.String(),
		CounterpartyID: borrower.String(),
		Currency:       "EUR",
	}

	w, env := do(t, r, http.MethodPost, "/internal/v1/transactions", uuid.Nil, req)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeTransaction(t, env)
	assert.Equal(t, "pending", created.State)
	assert.Equal(t, "service", created.ResourceType)
	assert.Equal(t, "eur", created.Currency)
	assert.Empty(t, created.HandoverConfirmedBy)
	assert.NotNil(t, created.HandoverConfirmedBy)
	assert.ElementsMatch(t, []string{"handover_confirmed", "disputed"}, created.NextStates)

	w, env = do(t, r, http.MethodPost, "/internal/v1/transactions", uuid.Nil, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, txCmd.MessageAlreadyCreated, env.Message)
	assert.Equal(t, created.ID, decodeTransaction(t, env).ID)

	t.Run("same party on both sides", func(t *testing.T) {
		bad := req
		bad.BookingID = uuid.NewString()
		bad.CounterpartyID = bad.OwnerID
		w, env := do(t, r, http.MethodPost, "/internal/v1/transactions", uuid.Nil, bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", env.Error)
	})

	t.Run("malformed id", func(t *testing.T) {
		bad := req
		bad.OwnerID = "nope"
		w, _ := do(t, r, http.MethodPost, "/internal/v1/transactions", uuid.Nil, bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing internal key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/internal/v1/transactions", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	owner, borrower := uuid.New(), uuid.New()
	tx := openBooking(t, r, owner, borrower)

	w, env := do(t, r, http.MethodPost, txPath(tx.ID, "handover"), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, txCmd.MessageHandoverConfirmed, env.Message)

	w, env = do(t, r, http.MethodPost, txPath(tx.ID, "handover"), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, txCmd.MessageHandoverAlreadyConfirmed, env.Message)

	w, _ = do(t, r, http.MethodPost, txPath(tx.ID, "complete"), owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, txPath(tx.ID, "return"), borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, txPath(tx.ID, "complete"), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decodeTransaction(t, env)
	assert.Equal(t, "completed", done.State)
	assert.Equal(t, []string{"owner"}, done.HandoverConfirmedBy)
	assert.Equal(t, []string{"counterparty"}, done.ReturnConfirmedBy)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.NextStates)

	w, env = do(t, r, http.MethodPost, txPath(tx.ID, "dispute"), borrower, ReportDisputeRequest{Reason: "late"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", env.Error)

	w, env = do(t, r, http.MethodGet, txPath(tx.ID, "history"), borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []HistoryEntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 4)
	assert.Equal(t, transaction.EventCreated, history[0].EventType)
	assert.Equal(t, transaction.EventCompleted, history[3].EventType)
	assert.Equal(t, "owner", history[3].ActorRole)
}

func TestDispute(t *testing.T) {
	r := newTestRouter(t)
	owner, borrower := uuid.New(), uuid.New()
	tx := openBooking(t, r, owner, borrower)

	w, env := do(t, r, http.MethodPost, txPath(tx.ID, "dispute"), borrower, ReportDisputeRequest{Reason: strings.Repeat("x", transaction.MaxDisputeReasonLength+1)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", env.Error)

	w, env = do(t, r, http.MethodPost, txPath(tx.ID, "dispute"), borrower, ReportDisputeRequest{Reason: "never showed up"})
	require.Equal(t, http.StatusOK, w.Code)
	disputed := decodeTransaction(t, env)
	assert.Equal(t, "disputed", disputed.State)
	assert.Equal(t, "never showed up", disputed.DisputeReason)
	assert.Equal(t, borrower.String(), disputed.DisputedBy)

	w, env = do(t, r, http.MethodPost, txPath(tx.ID, "handover"), owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", env.Error)
}

func TestAccessControl(t *testing.T) {
	r := newTestRouter(t)
	owner, borrower := uuid.New(), uuid.New()
	tx := openBooking(t, r, owner, borrower)
	stranger := uuid.New()

	tests := []struct {
		name   string
		method string
		path   string
		caller uuid.UUID
		status int
		kind   string
	}{
		{"owner reads", http.MethodGet, txPath(tx.ID, ""), owner, http.StatusOK, ""},
		{"counterparty reads", http.MethodGet, txPath(tx.ID, ""), borrower, http.StatusOK, ""},
		{"stranger reads", http.MethodGet, txPath(tx.ID, ""), stranger, http.StatusForbidden, "unauthorized"},
		{"stranger confirms", http.MethodPost, txPath(tx.ID, "handover"), stranger, http.StatusForbidden, "unauthorized"},
		{"stranger history", http.MethodGet, txPath(tx.ID, "history"), stranger, http.StatusForbidden, "unauthorized"},
		{"no identity", http.MethodGet, txPath(tx.ID, ""), uuid.Nil, http.StatusUnauthorized, middleware.KindUnauthenticated},
		{"unknown id", http.MethodGet, txPath(uuid.NewString(), ""), owner, http.StatusNotFound, "not_found"},
		{"unknown id on write", http.MethodPost, txPath(uuid.NewString(), "return"), owner, http.StatusNotFound, "not_found"},
		{"malformed id", http.MethodGet, txPath("abc", ""), owner, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, tt.method, tt.path, tt.caller, nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.kind != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.kind, env.Error)
			} else {
				assert.True(t, env.Success)
			}
		})
	}
}

func TestListTransactions(t *testing.T) {
	r := newTestRouter(t)
	me := uuid.New()
	openBooking(t, r, me, uuid.New())
	openBooking(t, r, me, uuid.New())
	borrowed := openBooking(t, r, uuid.New(), me)
	openBooking(t, r, uuid.New(), uuid.New())

	w, env := do(t, r, http.MethodGet, "/api/v1/transactions", me, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page TransactionListResponse
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Transactions, 3)
	assert.Equal(t, int64(3), page.Pagination.Total)

	w, env = do(t, r, http.MethodGet, "/api/v1/transactions?role=counterparty", me, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, borrowed.ID, page.Transactions[0].ID)

	w, env = do(t, r, http.MethodGet, "/api/v1/transactions?state=bogus", me, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", env.Error)
}

func TestErrorHandler(t *testing.T) {
	h := NewErrorHandler(nil)

	tests := []struct {
		name       string
		err        error
		status     int
		kind       string
		retryAfter string
	}{
		{"conflict", transaction.ErrConflict, http.StatusConflict, "conflict", "1"},
		{"wrapped conflict", fmt.Errorf("retry: %w", transaction.ErrConflict), http.StatusConflict, "conflict", "1"},
		{"invalid state", transaction.ErrInvalidState, http.StatusConflict, "invalid_state", ""},
		{"not found", transaction.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"unauthorized", transaction.ErrUnauthorized, http.StatusForbidden, "unauthorized", ""},
		{"validation", transaction.ErrValidation, http.StatusBadRequest, "validation_error", ""},
		{"unknown", fmt.Errorf("db is on fire"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			h.HandleTransactionError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Error)
			if tt.kind == "internal_error" {
				assert.NotContains(t, body.Message, "fire")
			}
		})
	}
}
