package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// ConfirmReturnCommand records the caller's return attestation.
type ConfirmReturnCommand struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// ConfirmReturnHandler handles ConfirmReturnCommand.
type ConfirmReturnHandler struct {
	domain  transaction.TransactionDomain
	retrier *Retrier
}

// NewConfirmReturnHandler creates a new handler.
func NewConfirmReturnHandler(domain transaction.TransactionDomain, retrier *Retrier) *ConfirmReturnHandler {
	return &ConfirmReturnHandler{domain: domain, retrier: retrier}
}

// Handle executes the command.
func (h *ConfirmReturnHandler) Handle(ctx context.Context, cmd ConfirmReturnCommand) (*TransitionResult, error) {
	out, err := h.retrier.Do(ctx, "confirm_return", func() (*transaction.Outcome, error) {
		return h.domain.ConfirmReturn(ctx, cmd.TransactionID, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return newTransitionResult(out, MessageReturnConfirmed, MessageReturnAlreadyConfirmed), nil
}
