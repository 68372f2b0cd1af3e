package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/passiton/server/internal/domain/transaction"
)

// TransactionEntity is the GORM model for transactions table.
type TransactionEntity struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookingID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	ResourceID          uuid.UUID      `gorm:"type:uuid;not null;index"`
	ResourceType        string         `gorm:"not null;default:item"`
	OwnerID             uuid.UUID      `gorm:"type:uuid;not null;index"`
	CounterpartyID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	PriceCents          int64          `gorm:"column:price_cents;not null;default:0"`
	Currency            string         `gorm:"size:3;not null;default:usd"`
	StartAt             *time.Time     `gorm:"column:start_at"`
	EndAt               *time.Time     `gorm:"column:end_at"`
	State               string         `gorm:"not null;index"`
	HandoverConfirmedBy pq.StringArray `gorm:"column:handover_confirmed_by;type:text[];not null;default:'{}'"`
	ReturnConfirmedBy   pq.StringArray `gorm:"column:return_confirmed_by;type:text[];not null;default:'{}'"`
	DisputeReason       *string        `gorm:"column:dispute_reason"`
	DisputedBy          *uuid.UUID     `gorm:"column:disputed_by;type:uuid"`
	HandoverConfirmedAt *time.Time     `gorm:"column:handover_confirmed_at"`
	ReturnConfirmedAt   *time.Time     `gorm:"column:return_confirmed_at"`
	CompletedAt         *time.Time     `gorm:"column:completed_at"`
	DisputedAt          *time.Time     `gorm:"column:disputed_at"`
	Version             int64          `gorm:"not null;default:1"`
	CreatedAt           time.Time      `gorm:"column:created_at;index"`
	UpdatedAt           time.Time      `gorm:"column:updated_at"`
}

// TableName returns the database table name.
func (TransactionEntity) TableName() string {
	return "transactions"
}

// ToDomain converts entity to domain model.
func (e *TransactionEntity) ToDomain() *transaction.Transaction {
	var reason string
	if e.DisputeReason != nil {
		reason = *e.DisputeReason
	}
	var disputedBy uuid.UUID
	if e.DisputedBy != nil {
		disputedBy = *e.DisputedBy
	}
	return transaction.RestoreTransaction(
		e.ID,
		e.BookingID,
		e.ResourceID,
		transaction.ResourceType(e.ResourceType),
		e.OwnerID,
		e.CounterpartyID,
		e.PriceCents,
		e.Currency,
		e.StartAt,
		e.EndAt,
		transaction.State(e.State),
		transaction.ConfirmerSetFromStrings(e.HandoverConfirmedBy),
		transaction.ConfirmerSetFromStrings(e.ReturnConfirmedBy),
		reason,
		disputedBy,
		e.HandoverConfirmedAt,
		e.ReturnConfirmedAt,
		e.CompletedAt,
		e.DisputedAt,
		e.Version,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// FromDomainTransaction converts domain model to entity.
func FromDomainTransaction(t *transaction.Transaction) *TransactionEntity {
	ent := &TransactionEntity{
		ID:                  t.ID(),
		BookingID:           t.BookingID(),
		ResourceID:          t.ResourceID(),
		ResourceType:        string(t.ResourceType()),
		OwnerID:             t.OwnerID(),
		CounterpartyID:      t.CounterpartyID(),
		PriceCents:          t.PriceCents(),
		Currency:            t.Currency(),
		StartAt:             t.StartAt(),
		EndAt:               t.EndAt(),
		State:               string(t.State()),
		HandoverConfirmedBy: pq.StringArray(t.HandoverConfirmedBy().Strings()),
		ReturnConfirmedBy:   pq.StringArray(t.ReturnConfirmedBy().Strings()),
		HandoverConfirmedAt: t.HandoverConfirmedAt(),
		ReturnConfirmedAt:   t.ReturnConfirmedAt(),
		CompletedAt:         t.CompletedAt(),
		DisputedAt:          t.DisputedAt(),
		Version:             t.Version(),
		CreatedAt:           t.CreatedAt(),
		UpdatedAt:           t.UpdatedAt(),
	}
	if reason := t.DisputeReason(); reason != "" {
		ent.DisputeReason = &reason
	}
	if by := t.DisputedBy(); by != uuid.Nil {
		ent.DisputedBy = &by
	}
	return ent
}

// Mutable returns the columns a conditional write may change.
func (e *TransactionEntity) Mutable() map[string]any {
	return map[string]any{
		"state":                 e.State,
		"handover_confirmed_by": e.HandoverConfirmedBy,
		"return_confirmed_by":   e.ReturnConfirmedBy,
		"dispute_reason":        e.DisputeReason,
		"disputed_by":           e.DisputedBy,
		"handover_confirmed_at": e.HandoverConfirmedAt,
		"return_confirmed_at":   e.ReturnConfirmedAt,
		"completed_at":          e.CompletedAt,
		"disputed_at":           e.DisputedAt,
		"version":               e.Version,
		"updated_at":            e.UpdatedAt,
	}
}

// TransactionEventEntity is the GORM model for the append-only transaction_events table.
type TransactionEventEntity struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_transaction_events_tx_version,priority:1"`
	EventType     string     `gorm:"not null"`
	ActorID       *uuid.UUID `gorm:"type:uuid"`
	ActorRole     string
	FromState     string
	ToState       string `gorm:"not null"`
	Version       int64  `gorm:"not null;index:idx_transaction_events_tx_version,priority:2"`
	Reason        *string
	OccurredAt    time.Time `gorm:"not null"`
}

// TableName returns the database table name.
func (TransactionEventEntity) TableName() string {
	return "transaction_events"
}
