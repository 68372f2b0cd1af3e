package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/utils/pagination"
)

// ListTransactionsQuery represents a query to list the caller's transactions.
type ListTransactionsQuery struct {
	CallerID uuid.UUID
	State    string
	Role     string
	Page     int
	PageSize int
}

// ListTransactionsResult is the result of listing transactions.
type ListTransactionsResult struct {
	Transactions []*transaction.Transaction
	Page         pagination.PageInfo
}

// ListTransactionsHandler handles ListTransactionsQuery.
type ListTransactionsHandler struct {
	domain transaction.TransactionDomain
}

// NewListTransactionsHandler creates a new handler.
func NewListTransactionsHandler(domain transaction.TransactionDomain) *ListTransactionsHandler {
	return &ListTransactionsHandler{domain: domain}
}

// Handle executes the query.
func (h *ListTransactionsHandler) Handle(ctx context.Context, query ListTransactionsQuery) (*ListTransactionsResult, error) {
	p := pagination.Normalize(query.Page, query.PageSize)

	filter := transaction.Filter{
		State: transaction.State(query.State),
		Role:  transaction.Role(query.Role),
	}
	txs, total, err := h.domain.ListForUser(ctx, query.CallerID, filter, transaction.Pagination{
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &ListTransactionsResult{Transactions: txs, Page: p.Info(total)}, nil
}
