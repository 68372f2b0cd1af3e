package transaction

import "github.com/passiton/server/internal/domain/transaction"

// Status messages returned with successful transitions.
const (
	MessageCreated                  = "Transaction created"
	MessageAlreadyCreated           = "Transaction already exists"
	MessageHandoverConfirmed        = "Handover confirmed"
	MessageHandoverAlreadyConfirmed = "Handover already confirmed"
	MessageReturnConfirmed          = "Return confirmed"
	MessageReturnAlreadyConfirmed   = "Return already confirmed"
	MessageCompleted                = "Transaction completed"
	MessageDisputed                 = "Dispute reported"
)

// TransitionResult is the result of every lifecycle command.
type TransitionResult struct {
	Transaction *transaction.Transaction
	Changed     bool
	Message     string
}

func newTransitionResult(out *transaction.Outcome, changedMsg, unchangedMsg string) *TransitionResult {
	msg := changedMsg
	if !out.Changed {
		msg = unchangedMsg
	}
	return &TransitionResult{Transaction: out.Transaction, Changed: out.Changed, Message: msg}
}
