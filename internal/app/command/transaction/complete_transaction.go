package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// CompleteTransactionCommand closes a returned transaction.
type CompleteTransactionCommand struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// CompleteTransactionHandler handles CompleteTransactionCommand.
type CompleteTransactionHandler struct {
	domain  transaction.TransactionDomain
	retrier *Retrier
}

// NewCompleteTransactionHandler creates a new handler.
func NewCompleteTransactionHandler(domain transaction.TransactionDomain, retrier *Retrier) *CompleteTransactionHandler {
	return &CompleteTransactionHandler{domain: domain, retrier: retrier}
}

// Handle executes the command.
func (h *CompleteTransactionHandler) Handle(ctx context.Context, cmd CompleteTransactionCommand) (*TransitionResult, error) {
	out, err := h.retrier.Do(ctx, "complete", func() (*transaction.Outcome, error) {
		return h.domain.MarkAsCompleted(ctx, cmd.TransactionID, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return newTransitionResult(out, MessageCompleted, MessageCompleted), nil
}
