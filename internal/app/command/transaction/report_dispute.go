package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// ReportDisputeCommand moves a transaction to Disputed.
type ReportDisputeCommand struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
	Reason        string
}

// ReportDisputeHandler handles ReportDisputeCommand.
type ReportDisputeHandler struct {
	domain  transaction.TransactionDomain
	retrier *Retrier
}

// NewReportDisputeHandler creates a new handler.
func NewReportDisputeHandler(domain transaction.TransactionDomain, retrier *Retrier) *ReportDisputeHandler {
	return &ReportDisputeHandler{domain: domain, retrier: retrier}
}

// Handle executes the command.
func (h *ReportDisputeHandler) Handle(ctx context.Context, cmd ReportDisputeCommand) (*TransitionResult, error) {
	out, err := h.retrier.Do(ctx, "dispute", func() (*transaction.Outcome, error) {
		return h.domain.ReportDispute(ctx, cmd.TransactionID, cmd.ActorID, cmd.Reason)
	})
	if err != nil {
		return nil, err
	}
	return newTransitionResult(out, MessageDisputed, MessageDisputed), nil
}
