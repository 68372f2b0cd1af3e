package transaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCache struct {
	mu    sync.Mutex
	items map[uuid.UUID]*transaction.Transaction
	hits  int
	sets  int
}

func newStubCache() *stubCache {
	return &stubCache{items: make(map[uuid.UUID]*transaction.Transaction)}
}

func (c *stubCache) Get(_ context.Context, id uuid.UUID) (*transaction.Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.items[id]
	if ok {
		c.hits++
	}
	return tx, ok
}

func (c *stubCache) Set(_ context.Context, tx *transaction.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[tx.ID()] = tx
	c.sets++
}

func setup(t *testing.T) (transaction.TransactionDomain, *persistence.MemoryHistoryRepository) {
	t.Helper()
	repo := persistence.NewMemoryTransactionRepository()
	return transaction.NewTransactionDomain(repo, nil, zap.NewNop()), persistence.NewMemoryHistoryRepository()
}

func openTransaction(t *testing.T, d transaction.TransactionDomain, owner, counterparty uuid.UUID) *transaction.Transaction {
	t.Helper()
	tx, created, err := d.CreateTransaction(context.Background(), transaction.Booking{
		BookingID:      uuid.New(),
		ResourceID:     uuid.New(),
		OwnerID:        owner,
		CounterpartyID: counterparty,
	})
	require.NoError(t, err)
	require.True(t, created)
	return tx
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	d, _ := setup(t)
	tx := openTransaction(t, d, uuid.New(), uuid.New())

	t.Run("owner", func(t *testing.T) {
		res, err := NewGetTransactionHandler(d, nil).Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: tx.OwnerID()})
		require.NoError(t, err)
		assert.Equal(t, tx.ID(), res.Transaction.ID())
		assert.Equal(t, transaction.RoleOwner, res.Role)
	})

	t.Run("counterparty", func(t *testing.T) {
		res, err := NewGetTransactionHandler(d, nil).Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: tx.CounterpartyID()})
		require.NoError(t, err)
		assert.Equal(t, transaction.RoleCounterparty, res.Role)
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := NewGetTransactionHandler(d, nil).Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: uuid.New()})
		assert.ErrorIs(t, err, transaction.ErrUnauthorized)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewGetTransactionHandler(d, nil).Handle(ctx, GetTransactionQuery{TransactionID: uuid.New(), CallerID: tx.OwnerID()})
		assert.ErrorIs(t, err, transaction.ErrNotFound)
	})
}

func TestGetTransaction_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	d, _ := setup(t)
	tx := openTransaction(t, d, uuid.New(), uuid.New())
	cache := newStubCache()
	h := NewGetTransactionHandler(d, cache)

	_, err := h.Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: tx.OwnerID()})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	_, err = h.Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: tx.CounterpartyID()})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	// Cached snapshots are still subject to the participant check.
	_, err = h.Handle(ctx, GetTransactionQuery{TransactionID: tx.ID(), CallerID: uuid.New()})
	assert.ErrorIs(t, err, transaction.ErrUnauthorized)
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	d, _ := setup(t)
	me := uuid.New()
	for i := 0; i < 3; i++ {
		openTransaction(t, d, me, uuid.New())
	}
	borrowed := openTransaction(t, d, uuid.New(), me)
	openTransaction(t, d, uuid.New(), uuid.New())
	_, err := d.ReportDispute(ctx, borrowed.ID(), me, "late")
	require.NoError(t, err)

	h := NewListTransactionsHandler(d)

	res, err := h.Handle(ctx, ListTransactionsQuery{CallerID: me})
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 4)
	assert.Equal(t, int64(4), res.Page.Total)
	assert.Equal(t, 20, res.Page.PageSize)

	res, err = h.Handle(ctx, ListTransactionsQuery{CallerID: me, Role: "counterparty"})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, borrowed.ID(), res.Transactions[0].ID())

	res, err = h.Handle(ctx, ListTransactionsQuery{CallerID: me, State: "pending", PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 2)
	assert.Equal(t, int64(3), res.Page.Total)
	assert.Equal(t, 2, res.Page.TotalPages)

	_, err = h.Handle(ctx, ListTransactionsQuery{CallerID: me, State: "lost"})
	assert.ErrorIs(t, err, transaction.ErrValidation)
}

func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	d, history := setup(t)
	tx := openTransaction(t, d, uuid.New(), uuid.New())
	h := NewGetHistoryHandler(d, history)

	res, err := h.Handle(ctx, GetHistoryQuery{TransactionID: tx.ID(), CallerID: tx.OwnerID()})
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)

	now := time.Now().UTC()
	for v, ev := range []string{transaction.EventHandoverConfirmed, transaction.EventCreated} {
		require.NoError(t, history.Append(ctx, transaction.HistoryEntry{
			ID:            uuid.New(),
			TransactionID: tx.ID(),
			EventType:     ev,
			Version:       int64(2 - v),
			OccurredAt:    now,
		}))
	}

	res, err = h.Handle(ctx, GetHistoryQuery{TransactionID: tx.ID(), CallerID: tx.CounterpartyID()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, transaction.EventCreated, res.Entries[0].EventType)

	_, err = h.Handle(ctx, GetHistoryQuery{TransactionID: tx.ID(), CallerID: uuid.New()})
	assert.ErrorIs(t, err, transaction.ErrUnauthorized)
}
