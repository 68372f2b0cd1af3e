package transaction

import (
	"context"

	"github.com/passiton/server/internal/domain/transaction"
)

// CreateTransactionCommand opens a transaction for an accepted booking.
type CreateTransactionCommand struct {
	Booking transaction.Booking
}

// CreateTransactionResult is the result of creating a transaction.
type CreateTransactionResult struct {
	Transaction *transaction.Transaction
	Created     bool
	Message     string
}

// CreateTransactionHandler handles CreateTransactionCommand.
type CreateTransactionHandler struct {
	domain transaction.TransactionDomain
}

// NewCreateTransactionHandler creates a new handler.
func NewCreateTransactionHandler(domain transaction.TransactionDomain) *CreateTransactionHandler {
	return &CreateTransactionHandler{domain: domain}
}

// Handle executes the command.
func (h *CreateTransactionHandler) Handle(ctx context.Context, cmd CreateTransactionCommand) (*CreateTransactionResult, error) {
	tx, created, err := h.domain.CreateTransaction(ctx, cmd.Booking)
	if err != nil {
		return nil, err
	}
	msg := MessageCreated
	if !created {
		msg = MessageAlreadyCreated
	}
	return &CreateTransactionResult{Transaction: tx, Created: created, Message: msg}, nil
}
