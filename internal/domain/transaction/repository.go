package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a participant listing.
type Filter struct {
	State State
	Role  Role
}

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Repository is the durable store port.
type Repository interface {
	// Create stores a new transaction. Returns ErrDuplicateBooking if the booking already has one.
	Create(ctx context.Context, tx *Transaction) error

	// GetByID returns ErrNotFound when no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByBookingID returns ErrNotFound when no row exists.
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Transaction, error)

	// CompareAndSwap replaces the stored record with next only if the stored state and
	// version still equal expected. Returns ErrConflict on mismatch and ErrNotFound if
	// the row is gone.
	CompareAndSwap(ctx context.Context, expected Expectation, next *Transaction) error

	// ListByParticipant lists transactions where the user is owner or counterparty,
	// newest first.
	ListByParticipant(ctx context.Context, userID uuid.UUID, filter Filter, page Pagination) ([]*Transaction, int64, error)
}
