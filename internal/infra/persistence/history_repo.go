package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/persistence/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository implements transaction.HistoryRepository on postgres.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

var _ transaction.HistoryRepository = (*HistoryRepository)(nil)

func (r *HistoryRepository) Append(ctx context.Context, e transaction.HistoryEntry) error {
	ent := &entity.TransactionEventEntity{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		EventType:     e.EventType,
		ActorRole:     string(e.ActorRole),
		FromState:     string(e.FromState),
		ToState:       string(e.ToState),
		Version:       e.Version,
		OccurredAt:    e.OccurredAt,
	}
	if e.ActorID != uuid.Nil {
		actor := e.ActorID
		ent.ActorID = &actor
	}
	if e.Reason != "" {
		reason := e.Reason
		ent.Reason = &reason
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(ent).Error
	if err != nil {
		return fmt.Errorf("append transaction event: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]transaction.HistoryEntry, error) {
	var entities []entity.TransactionEventEntity
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("version ASC, occurred_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list transaction events: %w", err)
	}

	result := make([]transaction.HistoryEntry, len(entities))
	for i, ent := range entities {
		entry := transaction.HistoryEntry{
			ID:            ent.ID,
			TransactionID: ent.TransactionID,
			EventType:     ent.EventType,
			ActorRole:     transaction.Role(ent.ActorRole),
			FromState:     transaction.State(ent.FromState),
			ToState:       transaction.State(ent.ToState),
			Version:       ent.Version,
			OccurredAt:    ent.OccurredAt,
		}
		if ent.ActorID != nil {
			entry.ActorID = *ent.ActorID
		}
		if ent.Reason != nil {
			entry.Reason = *ent.Reason
		}
		result[i] = entry
	}
	return result, nil
}

// MemoryHistoryRepository implements transaction.HistoryRepository in process memory.
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	seen    map[uuid.UUID]struct{}
	entries map[uuid.UUID][]transaction.HistoryEntry
}

// NewMemoryHistoryRepository creates an empty in-memory history.
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		seen:    make(map[uuid.UUID]struct{}),
		entries: make(map[uuid.UUID][]transaction.HistoryEntry),
	}
}

var _ transaction.HistoryRepository = (*MemoryHistoryRepository)(nil)

func (r *MemoryHistoryRepository) Append(_ context.Context, e transaction.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[e.ID]; ok {
		return nil
	}
	r.seen[e.ID] = struct{}{}
	r.entries[e.TransactionID] = append(r.entries[e.TransactionID], e)
	return nil
}

func (r *MemoryHistoryRepository) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]transaction.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.entries[transactionID]
	out := make([]transaction.HistoryEntry, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
