package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionEntity_DisputedRecordSurvivesMapping(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tx, err := transaction.NewTransaction(transaction.Booking{
		BookingID:      uuid.New(),
		ResourceID:     uuid.New(),
		ResourceType:   transaction.ResourceService,
		OwnerID:        uuid.New(),
		CounterpartyID: uuid.New(),
		PriceCents:     1200,
	}, now)
	require.NoError(t, err)
	_, err = tx.ConfirmHandover(transaction.RoleCounterparty, now)
	require.NoError(t, err)
	require.NoError(t, tx.Dispute(tx.OwnerID(), "returned broken", now))

	ent := FromDomainTransaction(tx)
	assert.Equal(t, []string{"counterparty"}, []string(ent.HandoverConfirmedBy))
	assert.Empty(t, ent.ReturnConfirmedBy)
	require.NotNil(t, ent.DisputeReason)
	require.NotNil(t, ent.DisputedBy)
	assert.Equal(t, "disputed", ent.Mutable()["state"])

	back := ent.ToDomain()
	assert.Equal(t, transaction.StateDisputed, back.State())
	assert.True(t, back.HandoverConfirmedBy().Has(transaction.RoleCounterparty))
	assert.Equal(t, "returned broken", back.DisputeReason())
	assert.Equal(t, tx.OwnerID(), back.DisputedBy())
	assert.Equal(t, tx.Version(), back.Version())
}

func TestTransactionEntity_PendingHasNoDisputeColumns(t *testing.T) {
	tx, err := transaction.NewTransaction(transaction.Booking{
		BookingID:      uuid.New(),
		ResourceID:     uuid.New(),
		OwnerID:        uuid.New(),
		CounterpartyID: uuid.New(),
	}, time.Now())
	require.NoError(t, err)

	ent := FromDomainTransaction(tx)
	assert.Nil(t, ent.DisputeReason)
	assert.Nil(t, ent.DisputedBy)
	assert.Equal(t, "transactions", ent.TableName())
	assert.Equal(t, uuid.Nil, ent.ToDomain().DisputedBy())
}
