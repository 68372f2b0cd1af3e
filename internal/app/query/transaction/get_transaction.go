package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// SnapshotCache is the optional read-through cache in front of the store.
type SnapshotCache interface {
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, bool)
	Set(ctx context.Context, tx *transaction.Transaction)
}

// GetTransactionQuery represents a query to get a transaction.
type GetTransactionQuery struct {
	TransactionID uuid.UUID
	CallerID      uuid.UUID
}

// GetTransactionResult is the result of getting a transaction.
type GetTransactionResult struct {
	Transaction *transaction.Transaction
	Role        transaction.Role
}

// GetTransactionHandler handles GetTransactionQuery.
type GetTransactionHandler struct {
	domain transaction.TransactionDomain
	cache  SnapshotCache
}

// NewGetTransactionHandler creates a new handler. cache may be nil.
func NewGetTransactionHandler(domain transaction.TransactionDomain, cache SnapshotCache) *GetTransactionHandler {
	return &GetTransactionHandler{domain: domain, cache: cache}
}

// Handle executes the query. Only the two participants may read a transaction.
func (h *GetTransactionHandler) Handle(ctx context.Context, query GetTransactionQuery) (*GetTransactionResult, error) {
	tx, err := h.load(ctx, query.TransactionID)
	if err != nil {
		return nil, err
	}

	role, err := tx.RoleOf(query.CallerID)
	if err != nil {
		return nil, err
	}

	return &GetTransactionResult{Transaction: tx, Role: role}, nil
}

func (h *GetTransactionHandler) load(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	if h.cache != nil {
		if tx, ok := h.cache.Get(ctx, id); ok {
			return tx, nil
		}
	}

	tx, err := h.domain.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Set(ctx, tx)
	}
	return tx, nil
}
