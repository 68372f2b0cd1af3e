package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/passiton/server/internal/infra/persistence/entity"
	"gorm.io/gorm"
)

// TransactionRepository implements transaction.Repository on postgres.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	ent := entity.FromDomainTransaction(tx)
	if err := r.db.WithContext(ctx).Create(ent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return transaction.ErrDuplicateBooking
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var ent entity.TransactionEntity
	err := r.db.WithContext(ctx).First(&ent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *TransactionRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*transaction.Transaction, error) {
	var ent entity.TransactionEntity
	err := r.db.WithContext(ctx).First(&ent, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by booking: %w", err)
	}
	return ent.ToDomain(), nil
}

// CompareAndSwap issues a single guarded UPDATE. Zero affected rows means either the
// row is gone or another writer got there first; a follow-up lookup tells them apart.
func (r *TransactionRepository) CompareAndSwap(ctx context.Context, expected transaction.Expectation, next *transaction.Transaction) error {
	ent := entity.FromDomainTransaction(next)
	res := r.db.WithContext(ctx).
		Model(&entity.TransactionEntity{}).
		Where("id = ? AND state = ? AND version = ?", ent.ID, string(expected.State), expected.Version).
		Updates(ent.Mutable())
	if res.Error != nil {
		return fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.TransactionEntity{}).Where("id = ?", ent.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("look up transaction: %w", err)
	}
	if count == 0 {
		return transaction.ErrNotFound
	}
	return transaction.ErrConflict
}

func (r *TransactionRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, filter transaction.Filter, page transaction.Pagination) ([]*transaction.Transaction, int64, error) {
	var entities []*entity.TransactionEntity
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.TransactionEntity{})
	switch filter.Role {
	case transaction.RoleOwner:
		query = query.Where("owner_id = ?", userID)
	case transaction.RoleCounterparty:
		query = query.Where("counterparty_id = ?", userID)
	default:
		query = query.Where("(owner_id = ? OR counterparty_id = ?)", userID, userID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", string(filter.State))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	if page.PageSize > 0 {
		query = query.Offset(page.Offset()).Limit(page.PageSize)
	}

	if err := query.Order("created_at DESC, id").Find(&entities).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	result := make([]*transaction.Transaction, len(entities))
	for i, ent := range entities {
		result[i] = ent.ToDomain()
	}
	return result, total, nil
}
