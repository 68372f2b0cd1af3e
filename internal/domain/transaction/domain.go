package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionDomain is the lifecycle manager for transactions.
// It keeps no state between calls: every transition is one read and one conditional write.
type TransactionDomain interface {
	// CreateTransaction opens a pending transaction for an accepted booking.
	// A repeated call for the same booking returns the existing record with created=false.
	CreateTransaction(ctx context.Context, booking Booking) (tx *Transaction, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter Filter, page Pagination) ([]*Transaction, int64, error)

	ConfirmHandover(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error)
	ConfirmReturn(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error)
	MarkAsCompleted(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error)
	ReportDispute(ctx context.Context, id, actorID uuid.UUID, reason string) (*Outcome, error)
}

// Outcome is the result of a transition. Changed is false for an idempotent re-confirmation.
type Outcome struct {
	Transaction *Transaction
	Changed     bool
}

// Option configures the domain service.
type Option func(*transactionDomain)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *transactionDomain) {
		d.now = now
	}
}

type transactionDomain struct {
	repo      Repository
	publisher EventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewTransactionDomain creates a new transaction domain service.
// publisher may be nil.
func NewTransactionDomain(repo Repository, publisher EventPublisher, logger *zap.Logger, opts ...Option) TransactionDomain {
	d := &transactionDomain{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *transactionDomain) CreateTransaction(ctx context.Context, booking Booking) (*Transaction, bool, error) {
	tx, err := NewTransaction(booking, d.now().UTC())
	if err != nil {
		return nil, false, err
	}

	if err := d.repo.Create(ctx, tx); err != nil {
		if !errors.Is(err, ErrDuplicateBooking) {
			return nil, false, fmt.Errorf("create transaction: %w", err)
		}
		existing, getErr := d.repo.GetByBookingID(ctx, booking.BookingID)
		if getErr != nil {
			return nil, false, fmt.Errorf("load transaction for booking: %w", getErr)
		}
		if existing.OwnerID() != booking.OwnerID || existing.CounterpartyID() != booking.CounterpartyID {
			return nil, false, validation("booking %s already has a transaction with different parties", booking.BookingID)
		}
		d.logger.Debug("transaction already exists for booking",
			zap.String("booking_id", booking.BookingID.String()),
			zap.String("transaction_id", existing.ID().String()),
		)
		return existing, false, nil
	}

	d.logger.Info("transaction created",
		zap.String("transaction_id", tx.ID().String()),
		zap.String("booking_id", tx.BookingID().String()),
		zap.String("owner_id", tx.OwnerID().String()),
		zap.String("counterparty_id", tx.CounterpartyID().String()),
	)
	d.publish(ctx, newLifecycleEvent(EventCreated, tx, uuid.Nil, "", "", tx.CreatedAt()))
	return tx, true, nil
}

func (d *transactionDomain) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return d.repo.GetByID(ctx, id)
}

func (d *transactionDomain) ListForUser(ctx context.Context, userID uuid.UUID, filter Filter, page Pagination) ([]*Transaction, int64, error) {
	if filter.State != "" && !filter.State.IsValid() {
		return nil, 0, validation("unknown state %q", filter.State)
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, 0, validation("unknown role %q", filter.Role)
	}
	return d.repo.ListByParticipant(ctx, userID, filter, page)
}

func (d *transactionDomain) ConfirmHandover(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error) {
	return d.transition(ctx, id, actorID, EventHandoverConfirmed, func(tx *Transaction, role Role, now time.Time) (bool, error) {
		return tx.ConfirmHandover(role, now)
	})
}

func (d *transactionDomain) ConfirmReturn(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error) {
	return d.transition(ctx, id, actorID, EventReturnConfirmed, func(tx *Transaction, role Role, now time.Time) (bool, error) {
		return tx.ConfirmReturn(role, now)
	})
}

func (d *transactionDomain) MarkAsCompleted(ctx context.Context, id, actorID uuid.UUID) (*Outcome, error) {
	return d.transition(ctx, id, actorID, EventCompleted, func(tx *Transaction, _ Role, now time.Time) (bool, error) {
		return true, tx.Complete(now)
	})
}

func (d *transactionDomain) ReportDispute(ctx context.Context, id, actorID uuid.UUID, reason string) (*Outcome, error) {
	return d.transition(ctx, id, actorID, EventDisputed, func(tx *Transaction, _ Role, now time.Time) (bool, error) {
		return true, tx.Dispute(actorID, reason, now)
	})
}

type applyFunc func(tx *Transaction, role Role, now time.Time) (bool, error)

// transition reads the snapshot, checks the caller, applies the change to a copy
// and commits it with a conditional write against the snapshot's state and version.
func (d *transactionDomain) transition(ctx context.Context, id, actorID uuid.UUID, eventType string, apply applyFunc) (*Outcome, error) {
	current, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role, err := current.RoleOf(actorID)
	if err != nil {
		d.logger.Warn("transition by non-participant rejected",
			zap.String("transaction_id", id.String()),
			zap.String("actor_id", actorID.String()),
			zap.String("event", eventType),
		)
		return nil, err
	}

	next := current.Clone()
	now := d.now().UTC()
	changed, err := apply(next, role, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Outcome{Transaction: current}, nil
	}

	if err := d.repo.CompareAndSwap(ctx, current.Expectation(), next); err != nil {
		if errors.Is(err, ErrConflict) {
			d.logger.Warn("conditional write lost",
				zap.String("transaction_id", id.String()),
				zap.String("event", eventType),
				zap.String("expected_state", current.State().String()),
				zap.Int64("expected_version", current.Version()),
			)
		}
		return nil, err
	}

	d.logger.Info("transaction transitioned",
		zap.String("transaction_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("role", role.String()),
		zap.String("from", current.State().String()),
		zap.String("to", next.State().String()),
		zap.Int64("version", next.Version()),
	)

	event := newLifecycleEvent(eventType, next, actorID, role, current.State(), now)
	if next.State() == StateDisputed {
		event.Reason = next.DisputeReason()
	}
	d.publish(ctx, event)

	return &Outcome{Transaction: next, Changed: true}, nil
}

func (d *transactionDomain) publish(ctx context.Context, event LifecycleEvent) {
	if d.publisher == nil {
		return
	}
	d.publisher.Publish(ctx, event)
}
