package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mock implementations ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, tx *Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Transaction, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockRepository) CompareAndSwap(ctx context.Context, expected Expectation, next *Transaction) error {
	args := m.Called(ctx, expected, next)
	return args.Error(0)
}

func (m *MockRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, filter Filter, page Pagination) ([]*Transaction, int64, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*Transaction), args.Get(1).(int64), args.Error(2)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e event.Event) {
	m.Called(ctx, e)
}

// --- Helpers ---

func setupDomain() (TransactionDomain, *MockRepository, *MockPublisher) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	d := NewTransactionDomain(repo, pub, zap.NewNop(), WithClock(func() time.Time { return testNow }))
	return d, repo, pub
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e event.Event) bool { return e.EventType() == eventType })
}

// --- Tests ---

func TestTransactionDomain_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and publishes", func(t *testing.T) {
		d, repo, pub := setupDomain()
		b := testBooking()
		repo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil)
		pub.On("Publish", ctx, eventOfType(EventCreated)).Return()

		tx, created, err := d.CreateTransaction(ctx, b)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, StatePending, tx.State())
		assert.Equal(t, b.OwnerID, tx.OwnerID())
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("returns existing transaction for repeated booking", func(t *testing.T) {
		d, repo, pub := setupDomain()
		b := testBooking()
		existing, err := NewTransaction(b, testNow)
		require.NoError(t, err)
		repo.On("Create", ctx, mock.Anything).Return(ErrDuplicateBooking)
		repo.On("GetByBookingID", ctx, b.BookingID).Return(existing, nil)

		tx, created, err := d.CreateTransaction(ctx, b)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID(), tx.ID())
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("repeated booking with other parties fails validation", func(t *testing.T) {
		d, repo, _ := setupDomain()
		b := testBooking()
		other := b
		other.CounterpartyID = uuid.New()
		existing, err := NewTransaction(other, testNow)
		require.NoError(t, err)
		repo.On("Create", ctx, mock.Anything).Return(ErrDuplicateBooking)
		repo.On("GetByBookingID", ctx, b.BookingID).Return(existing, nil)

		_, _, err = d.CreateTransaction(ctx, b)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid booking never reaches the store", func(t *testing.T) {
		d, repo, _ := setupDomain()
		b := testBooking()
		b.OwnerID = b.CounterpartyID

		_, _, err := d.CreateTransaction(ctx, b)
		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTransactionDomain_ConfirmHandover(t *testing.T) {
	ctx := context.Background()

	t.Run("owner confirms pending transaction", func(t *testing.T) {
		d, repo, pub := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)
		repo.On("CompareAndSwap", ctx, Expectation{State: StatePending, Version: 1},
			mock.MatchedBy(func(next *Transaction) bool {
				return next.State() == StateHandoverConfirmed &&
					next.HandoverConfirmedBy().Has(RoleOwner) &&
					next.Version() == 2
			})).Return(nil)
		pub.On("Publish", ctx, eventOfType(EventHandoverConfirmed)).Return()

		out, err := d.ConfirmHandover(ctx, tx.ID(), tx.OwnerID())
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, StateHandoverConfirmed, out.Transaction.State())
		assert.Equal(t, StatePending, tx.State(), "snapshot must not be mutated")
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("idempotent re-confirmation skips the write", func(t *testing.T) {
		d, repo, pub := setupDomain()
		tx := newTestTransaction(t)
		_, err := tx.ConfirmHandover(RoleOwner, testNow)
		require.NoError(t, err)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		out, err := d.ConfirmHandover(ctx, tx.ID(), tx.OwnerID())
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.Same(t, tx, out.Transaction)
		repo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("non-participant is unauthorized", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		_, err := d.ConfirmHandover(ctx, tx.ID(), uuid.New())
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("not found", func(t *testing.T) {
		d, repo, _ := setupDomain()
		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, ErrNotFound)

		_, err := d.ConfirmHandover(ctx, id, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("conflict surfaces to the caller", func(t *testing.T) {
		d, repo, pub := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)
		repo.On("CompareAndSwap", ctx, mock.Anything, mock.Anything).Return(ErrConflict)

		_, err := d.ConfirmHandover(ctx, tx.ID(), tx.CounterpartyID())
		assert.ErrorIs(t, err, ErrConflict)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestTransactionDomain_UnauthorizedInEveryState(t *testing.T) {
	ctx := context.Background()
	stranger := uuid.New()

	states := []State{StatePending, StateHandoverConfirmed, StateReturnConfirmed, StateCompleted, StateDisputed}
	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			d, repo, _ := setupDomain()
			src := newTestTransaction(t)
			tx := RestoreTransaction(src.ID(), src.BookingID(), src.ResourceID(), src.ResourceType(),
				src.OwnerID(), src.CounterpartyID(), 0, "usd", nil, nil,
				s, NewConfirmerSet(RoleOwner), NewConfirmerSet(RoleOwner), "", uuid.Nil,
				nil, nil, nil, nil, 4, testNow, testNow)
			repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

			_, err := d.ConfirmHandover(ctx, tx.ID(), stranger)
			assert.ErrorIs(t, err, ErrUnauthorized)
			_, err = d.ConfirmReturn(ctx, tx.ID(), stranger)
			assert.ErrorIs(t, err, ErrUnauthorized)
			_, err = d.MarkAsCompleted(ctx, tx.ID(), stranger)
			assert.ErrorIs(t, err, ErrUnauthorized)
			_, err = d.ReportDispute(ctx, tx.ID(), stranger, "")
			assert.ErrorIs(t, err, ErrUnauthorized)
			repo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTransactionDomain_MarkAsCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("completes returned transaction", func(t *testing.T) {
		d, repo, pub := setupDomain()
		tx := newTestTransaction(t)
		_, _ = tx.ConfirmHandover(RoleOwner, testNow)
		_, _ = tx.ConfirmReturn(RoleCounterparty, testNow)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)
		repo.On("CompareAndSwap", ctx, Expectation{State: StateReturnConfirmed, Version: 3}, mock.Anything).Return(nil)
		pub.On("Publish", ctx, eventOfType(EventCompleted)).Return()

		out, err := d.MarkAsCompleted(ctx, tx.ID(), tx.CounterpartyID())
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, out.Transaction.State())
		repo.AssertExpectations(t)
	})

	t.Run("rejects pending transaction", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		_, err := d.MarkAsCompleted(ctx, tx.ID(), tx.OwnerID())
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejects second completion", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		_, _ = tx.ConfirmHandover(RoleOwner, testNow)
		_, _ = tx.ConfirmReturn(RoleOwner, testNow)
		require.NoError(t, tx.Complete(testNow))
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		_, err := d.MarkAsCompleted(ctx, tx.ID(), tx.OwnerID())
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransactionDomain_ReportDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("records reason and publishes it", func(t *testing.T) {
		d, repo, pub := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)
		repo.On("CompareAndSwap", ctx, tx.Expectation(), mock.Anything).Return(nil)
		pub.On("Publish", ctx, mock.MatchedBy(func(e event.Event) bool {
			le, ok := e.(LifecycleEvent)
			return ok && le.Reason == "never showed up" && le.ActorRole == RoleOwner && le.FromState == StatePending
		})).Return()

		out, err := d.ReportDispute(ctx, tx.ID(), tx.OwnerID(), "never showed up")
		require.NoError(t, err)
		assert.Equal(t, StateDisputed, out.Transaction.State())
		assert.Equal(t, tx.OwnerID(), out.Transaction.DisputedBy())
		pub.AssertExpectations(t)
	})

	t.Run("empty reason is a validation error", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		_, err := d.ReportDispute(ctx, tx.ID(), tx.OwnerID(), "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("dispute after completion is rejected", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		_, _ = tx.ConfirmHandover(RoleOwner, testNow)
		_, _ = tx.ConfirmReturn(RoleOwner, testNow)
		require.NoError(t, tx.Complete(testNow))
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)

		_, err := d.ReportDispute(ctx, tx.ID(), tx.CounterpartyID(), "late")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		d, repo, _ := setupDomain()
		tx := newTestTransaction(t)
		storeErr := errors.New("connection reset")
		repo.On("GetByID", ctx, tx.ID()).Return(tx, nil)
		repo.On("CompareAndSwap", ctx, mock.Anything, mock.Anything).Return(storeErr)

		_, err := d.ReportDispute(ctx, tx.ID(), tx.OwnerID(), "broken")
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestTransactionDomain_ListForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter through", func(t *testing.T) {
		d, repo, _ := setupDomain()
		user := uuid.New()
		filter := Filter{State: StatePending, Role: RoleOwner}
		page := Pagination{Page: 1, PageSize: 20}
		repo.On("ListByParticipant", ctx, user, filter, page).Return([]*Transaction{newTestTransaction(t)}, int64(1), nil)

		list, total, err := d.ListForUser(ctx, user, filter, page)
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.Equal(t, int64(1), total)
	})

	t.Run("rejects unknown filter values", func(t *testing.T) {
		d, _, _ := setupDomain()
		_, _, err := d.ListForUser(ctx, uuid.New(), Filter{State: "archived"}, Pagination{})
		assert.ErrorIs(t, err, ErrValidation)
		_, _, err = d.ListForUser(ctx, uuid.New(), Filter{Role: "admin"}, Pagination{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}
