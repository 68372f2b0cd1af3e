package persistence

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
)

// MemoryTransactionRepository implements transaction.Repository in process memory.
// Used with database.driver=memory and in tests.
type MemoryTransactionRepository struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*transaction.Transaction
	byBooking map[uuid.UUID]uuid.UUID
	writes    atomic.Int64
}

// NewMemoryTransactionRepository creates an empty in-memory repository.
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		byID:      make(map[uuid.UUID]*transaction.Transaction),
		byBooking: make(map[uuid.UUID]uuid.UUID),
	}
}

var _ transaction.Repository = (*MemoryTransactionRepository)(nil)

func (r *MemoryTransactionRepository) Create(_ context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byBooking[tx.BookingID()]; ok {
		return transaction.ErrDuplicateBooking
	}
	r.byID[tx.ID()] = tx.Clone()
	r.byBooking[tx.BookingID()] = tx.ID()
	r.writes.Add(1)
	return nil
}

func (r *MemoryTransactionRepository) GetByID(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.byID[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return tx.Clone(), nil
}

func (r *MemoryTransactionRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*transaction.Transaction, error) {
	r.mu.RLock()
	id, ok := r.byBooking[bookingID]
	r.mu.RUnlock()
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryTransactionRepository) CompareAndSwap(_ context.Context, expected transaction.Expectation, next *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[next.ID()]
	if !ok {
		return transaction.ErrNotFound
	}
	if stored.Expectation() != expected {
		return transaction.ErrConflict
	}
	r.byID[next.ID()] = next.Clone()
	r.writes.Add(1)
	return nil
}

func (r *MemoryTransactionRepository) ListByParticipant(_ context.Context, userID uuid.UUID, filter transaction.Filter, page transaction.Pagination) ([]*transaction.Transaction, int64, error) {
	r.mu.RLock()
	matched := make([]*transaction.Transaction, 0)
	for _, tx := range r.byID {
		if !matchesParticipant(tx, userID, filter.Role) {
			continue
		}
		if filter.State != "" && tx.State() != filter.State {
			continue
		}
		matched = append(matched, tx.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].ID().String() < matched[j].ID().String()
		}
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	total := int64(len(matched))
	if page.PageSize <= 0 {
		return matched, total, nil
	}
	start := page.Offset()
	if start >= len(matched) {
		return []*transaction.Transaction{}, total, nil
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Writes returns the number of committed writes, creates included.
func (r *MemoryTransactionRepository) Writes() int64 {
	return r.writes.Load()
}

func matchesParticipant(tx *transaction.Transaction, userID uuid.UUID, role transaction.Role) bool {
	switch role {
	case transaction.RoleOwner:
		return tx.OwnerID() == userID
	case transaction.RoleCounterparty:
		return tx.CounterpartyID() == userID
	}
	return tx.IsParticipant(userID)
}
