package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// GetHistoryQuery represents a query for a transaction's audit trail.
type GetHistoryQuery struct {
	TransactionID uuid.UUID
	CallerID      uuid.UUID
}

// GetHistoryResult is the result of getting the audit trail.
type GetHistoryResult struct {
	Entries []transaction.HistoryEntry
}

// GetHistoryHandler handles GetHistoryQuery.
type GetHistoryHandler struct {
	domain  transaction.TransactionDomain
	history transaction.HistoryRepository
}

// NewGetHistoryHandler creates a new handler.
func NewGetHistoryHandler(domain transaction.TransactionDomain, history transaction.HistoryRepository) *GetHistoryHandler {
	return &GetHistoryHandler{domain: domain, history: history}
}

// Handle executes the query.
func (h *GetHistoryHandler) Handle(ctx context.Context, query GetHistoryQuery) (*GetHistoryResult, error) {
	tx, err := h.domain.GetByID(ctx, query.TransactionID)
	if err != nil {
		return nil, err
	}
	if !tx.IsParticipant(query.CallerID) {
		return nil, transaction.ErrUnauthorized
	}

	entries, err := h.history.ListByTransaction(ctx, query.TransactionID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []transaction.HistoryEntry{}
	}
	return &GetHistoryResult{Entries: entries}, nil
}
