package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/utils/pagination"
)

// TransactionResponse is the public snapshot of a transaction.
type TransactionResponse struct {
	ID                  string     `json:"id"`
	BookingID           string     `json:"booking_id"`
	ResourceID          string     `json:"resource_id"`
	ResourceType        string     `json:"resource_type"`
	OwnerID             string     `json:"owner_id"`
	CounterpartyID      string     `json:"counterparty_id"`
	PriceCents          int64      `json:"price_cents"`
	Currency            string     `json:"currency"`
	StartAt             *time.Time `json:"start_at,omitempty"`
	EndAt               *time.Time `json:"end_at,omitempty"`
	State               string     `json:"state"`
	HandoverConfirmedBy []string   `json:"handover_confirmed_by"`
	ReturnConfirmedBy   []string   `json:"return_confirmed_by"`
	DisputeReason       string     `json:"dispute_reason,omitempty"`
	DisputedBy          string     `json:"disputed_by,omitempty"`
	HandoverConfirmedAt *time.Time `json:"handover_confirmed_at,omitempty"`
	ReturnConfirmedAt   *time.Time `json:"return_confirmed_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	DisputedAt          *time.Time `json:"disputed_at,omitempty"`
	NextStates          []string   `json:"next_states"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TransactionListResponse is a page of transactions.
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Pagination   pagination.PageInfo    `json:"pagination"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	EventType  string    `json:"event_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	FromState  string    `json:"from_state,omitempty"`
	ToState    string    `json:"to_state"`
	Version    int64     `json:"version"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func transactionToResponse(tx *transaction.Transaction) *TransactionResponse {
	next := tx.State().AllowedTransitions()
	nextStates := make([]string, 0, len(next))
	for _, s := range next {
		if s != tx.State() {
			nextStates = append(nextStates, s.String())
		}
	}

	resp := &TransactionResponse{
		ID:                  tx.ID().String(),
		BookingID:           tx.BookingID().String(),
		ResourceID:          tx.ResourceID().String(),
		ResourceType:        string(tx.ResourceType()),
		OwnerID:             tx.OwnerID().String(),
		CounterpartyID:      tx.CounterpartyID().String(),
		PriceCents:          tx.PriceCents(),
		Currency:            tx.Currency(),
		StartAt:             tx.StartAt(),
		EndAt:               tx.EndAt(),
		State:               tx.State().String(),
		HandoverConfirmedBy: tx.HandoverConfirmedBy().Strings(),
		ReturnConfirmedBy:   tx.ReturnConfirmedBy().Strings(),
		DisputeReason:       tx.DisputeReason(),
		HandoverConfirmedAt: tx.HandoverConfirmedAt(),
		ReturnConfirmedAt:   tx.ReturnConfirmedAt(),
		CompletedAt:         tx.CompletedAt(),
		DisputedAt:          tx.DisputedAt(),
		NextStates:          nextStates,
		Version:             tx.Version(),
		CreatedAt:           tx.CreatedAt(),
		UpdatedAt:           tx.UpdatedAt(),
	}
	if tx.DisputedBy() != uuid.Nil {
		resp.DisputedBy = tx.DisputedBy().String()
	}
	return resp
}

func historyToResponse(entries []transaction.HistoryEntry) []*HistoryEntryResponse {
	out := make([]*HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = &HistoryEntryResponse{
			EventType:  e.EventType,
			ActorRole:  string(e.ActorRole),
			FromState:  string(e.FromState),
			ToState:    string(e.ToState),
			Version:    e.Version,
			Reason:     e.Reason,
			OccurredAt: e.OccurredAt,
		}
		if e.ActorID != uuid.Nil {
			out[i].ActorID = e.ActorID.String()
		}
	}
	return out
}
