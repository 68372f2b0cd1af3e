package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// ConfirmHandoverCommand records the caller's handover attestation.
type ConfirmHandoverCommand struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// ConfirmHandoverHandler handles ConfirmHandoverCommand.
type ConfirmHandoverHandler struct {
	domain  transaction.TransactionDomain
	retrier *Retrier
}

// NewConfirmHandoverHandler creates a new handler.
func NewConfirmHandoverHandler(domain transaction.TransactionDomain, retrier *Retrier) *ConfirmHandoverHandler {
	return &ConfirmHandoverHandler{domain: domain, retrier: retrier}
}

// Handle executes the command.
func (h *ConfirmHandoverHandler) Handle(ctx context.Context, cmd ConfirmHandoverCommand) (*TransitionResult, error) {
	out, err := h.retrier.Do(ctx, "confirm_handover", func() (*transaction.Outcome, error) {
		return h.domain.ConfirmHandover(ctx, cmd.TransactionID, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return newTransitionResult(out, MessageHandoverConfirmed, MessageHandoverAlreadyConfirmed), nil
}
