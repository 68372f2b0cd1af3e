package transaction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxDisputeReasonLength bounds the free-text dispute reason.
const MaxDisputeReasonLength = 2000

// Booking is the accepted booking a transaction is opened for.
type Booking struct {
	BookingID      uuid.UUID
	ResourceID     uuid.UUID
	ResourceType   ResourceType
	OwnerID        uuid.UUID
	CounterpartyID uuid.UUID
	PriceCents     int64
	Currency       string
	StartAt        *time.Time
	EndAt          *time.Time
}

// Expectation is the stored (state, version) pair a conditional write must still match.
type Expectation struct {
	State   State
	Version int64
}

// Transaction is the aggregate root tracking the handover and return of a booked resource.
type Transaction struct {
	id             uuid.UUID
	bookingID      uuid.UUID
	resourceID     uuid.UUID
	resourceType   ResourceType
	ownerID        uuid.UUID
	counterpartyID uuid.UUID

	priceCents int64
	currency   string
	startAt    *time.Time
	endAt      *time.Time

	state               State
	handoverConfirmedBy ConfirmerSet
	returnConfirmedBy   ConfirmerSet
	disputeReason       string
	disputedBy          uuid.UUID

	handoverConfirmedAt *time.Time
	returnConfirmedAt   *time.Time
	completedAt         *time.Time
	disputedAt          *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewTransaction opens a pending transaction for an accepted booking.
func NewTransaction(b Booking, now time.Time) (*Transaction, error) {
	if b.BookingID == uuid.Nil {
		return nil, validation("booking id is required")
	}
	if b.ResourceID == uuid.Nil {
		return nil, validation("resource id is required")
	}
	if b.OwnerID == uuid.Nil || b.CounterpartyID == uuid.Nil {
		return nil, validation("owner and counterparty are required")
	}
	if b.OwnerID == b.CounterpartyID {
		return nil, validation("owner and counterparty must be different users")
	}
	if b.ResourceType == "" {
		b.ResourceType = ResourceItem
	}
	if !b.ResourceType.IsValid() {
		return nil, validation("unknown resource type %q", b.ResourceType)
	}
	if b.PriceCents < 0 {
		return nil, validation("price cannot be negative")
	}
	currency := strings.ToLower(strings.TrimSpace(b.Currency))
	if currency == "" {
		currency = "usd"
	}
	if len(currency) != 3 {
		return nil, validation("currency must be a 3-letter code")
	}
	if b.StartAt != nil && b.EndAt != nil && b.EndAt.Before(*b.StartAt) {
		return nil, validation("end time must not be before start time")
	}

	return &Transaction{
		id:             uuid.New(),
		bookingID:      b.BookingID,
		resourceID:     b.ResourceID,
		resourceType:   b.ResourceType,
		ownerID:        b.OwnerID,
		counterpartyID: b.CounterpartyID,
		priceCents:     b.PriceCents,
		currency:       currency,
		startAt:        b.StartAt,
		endAt:          b.EndAt,
		state:          StatePending,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// RestoreTransaction recreates a Transaction from persisted data.
// This bypasses validation for hydration from database.
func RestoreTransaction(
	id, bookingID, resourceID uuid.UUID,
	resourceType ResourceType,
	ownerID, counterpartyID uuid.UUID,
	priceCents int64,
	currency string,
	startAt, endAt *time.Time,
	state State,
	handoverConfirmedBy, returnConfirmedBy ConfirmerSet,
	disputeReason string,
	disputedBy uuid.UUID,
	handoverConfirmedAt, returnConfirmedAt, completedAt, disputedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:                  id,
		bookingID:           bookingID,
		resourceID:          resourceID,
		resourceType:        resourceType,
		ownerID:             ownerID,
		counterpartyID:      counterpartyID,
		priceCents:          priceCents,
		currency:            currency,
		startAt:             startAt,
		endAt:               endAt,
		state:               state,
		handoverConfirmedBy: handoverConfirmedBy,
		returnConfirmedBy:   returnConfirmedBy,
		disputeReason:       disputeReason,
		disputedBy:          disputedBy,
		handoverConfirmedAt: handoverConfirmedAt,
		returnConfirmedAt:   returnConfirmedAt,
		completedAt:         completedAt,
		disputedAt:          disputedAt,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// --- Getters ---

func (t *Transaction) ID() uuid.UUID                     { return t.id }
func (t *Transaction) BookingID() uuid.UUID              { return t.bookingID }
func (t *Transaction) ResourceID() uuid.UUID             { return t.resourceID }
func (t *Transaction) ResourceType() ResourceType        { return t.resourceType }
func (t *Transaction) OwnerID() uuid.UUID                { return t.ownerID }
func (t *Transaction) CounterpartyID() uuid.UUID         { return t.counterpartyID }
func (t *Transaction) PriceCents() int64                 { return t.priceCents }
func (t *Transaction) Currency() string                  { return t.currency }
func (t *Transaction) StartAt() *time.Time               { return t.startAt }
func (t *Transaction) EndAt() *time.Time                 { return t.endAt }
func (t *Transaction) State() State                      { return t.state }
func (t *Transaction) HandoverConfirmedBy() ConfirmerSet { return t.handoverConfirmedBy }
func (t *Transaction) ReturnConfirmedBy() ConfirmerSet   { return t.returnConfirmedBy }
func (t *Transaction) DisputeReason() string             { return t.disputeReason }
func (t *Transaction) DisputedBy() uuid.UUID             { return t.disputedBy }
func (t *Transaction) HandoverConfirmedAt() *time.Time   { return t.handoverConfirmedAt }
func (t *Transaction) ReturnConfirmedAt() *time.Time     { return t.returnConfirmedAt }
func (t *Transaction) CompletedAt() *time.Time           { return t.completedAt }
func (t *Transaction) DisputedAt() *time.Time            { return t.disputedAt }
func (t *Transaction) Version() int64                    { return t.version }
func (t *Transaction) CreatedAt() time.Time              { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time              { return t.updatedAt }

// Expectation returns the (state, version) pair of this snapshot.
func (t *Transaction) Expectation() Expectation {
	return Expectation{State: t.state, Version: t.version}
}

// Clone returns an independent copy. ConfirmerSet values are immutable and time
// pointers are replaced, never written through, so a shallow copy suffices.
func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// --- Participants ---

// RoleOf resolves the role the user plays, or fails with Unauthorized.
func (t *Transaction) RoleOf(userID uuid.UUID) (Role, error) {
	switch {
	case userID == uuid.Nil:
		return "", ErrUnauthorized
	case userID == t.ownerID:
		return RoleOwner, nil
	case userID == t.counterpartyID:
		return RoleCounterparty, nil
	}
	return "", ErrUnauthorized
}

// IsParticipant reports whether the user is the owner or the counterparty.
func (t *Transaction) IsParticipant(userID uuid.UUID) bool {
	_, err := t.RoleOf(userID)
	return err == nil
}

// --- Transitions ---
// Each returns whether the aggregate changed. On error nothing is modified.

// ConfirmHandover records the role's handover attestation.
func (t *Transaction) ConfirmHandover(role Role, now time.Time) (bool, error) {
	if t.state != StatePending && t.state != StateHandoverConfirmed {
		return false, invalidState("confirm handover of", t.state)
	}
	set, changed := t.handoverConfirmedBy.With(role)
	if !changed {
		return false, nil
	}
	t.handoverConfirmedBy = set
	if t.handoverConfirmedAt == nil {
		t.handoverConfirmedAt = &now
	}
	t.moveTo(StateHandoverConfirmed, now)
	return true, nil
}

// ConfirmReturn records the role's return attestation.
func (t *Transaction) ConfirmReturn(role Role, now time.Time) (bool, error) {
	if t.state != StateHandoverConfirmed && t.state != StateReturnConfirmed {
		return false, invalidState("confirm return of", t.state)
	}
	set, changed := t.returnConfirmedBy.With(role)
	if !changed {
		return false, nil
	}
	t.returnConfirmedBy = set
	if t.returnConfirmedAt == nil {
		t.returnConfirmedAt = &now
	}
	t.moveTo(StateReturnConfirmed, now)
	return true, nil
}

// Complete closes a returned transaction.
func (t *Transaction) Complete(now time.Time) error {
	if t.state != StateReturnConfirmed {
		return invalidState("complete", t.state)
	}
	if t.handoverConfirmedBy.IsEmpty() || t.returnConfirmedBy.IsEmpty() {
		return invalidState("complete", t.state)
	}
	t.completedAt = &now
	t.moveTo(StateCompleted, now)
	return nil
}

// Dispute moves a non-terminal transaction to Disputed. Existing confirmations are kept for audit.
func (t *Transaction) Dispute(by uuid.UUID, reason string, now time.Time) error {
	if t.state.IsTerminal() {
		return invalidState("dispute", t.state)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return validation("dispute reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxDisputeReasonLength {
		return validation("dispute reason must be at most %d characters", MaxDisputeReasonLength)
	}
	t.disputeReason = reason
	t.disputedBy = by
	t.disputedAt = &now
	t.moveTo(StateDisputed, now)
	return nil
}

func (t *Transaction) moveTo(next State, now time.Time) {
	t.state = next
	t.updatedAt = now
	t.version++
}
