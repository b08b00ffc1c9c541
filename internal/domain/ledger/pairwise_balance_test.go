package ledger

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPairwiseBalance(t *testing.T) {
	t.Run("creates zero balance with canonical user order", func(t *testing.T) {
		u1 := uuid.New()
		u2 := uuid.New()

		p, err := NewPairwiseBalance(u1, u2)

		require.NoError(t, err)
		assert.True(t, bytes.Compare(p.UserA[:], p.UserB[:]) < 0)
		assert.True(t, p.BalanceA.IsZero())
		assert.True(t, p.BalanceB.IsZero())
		assert.True(t, p.Holds(u2, u1))
	})

	t.Run("rejects nil users", func(t *testing.T) {
		_, err := NewPairwiseBalance(uuid.Nil, uuid.New())

		require.Error(t, err)
	})

	t.Run("rejects identical users", func(t *testing.T) {
		u := uuid.New()

		_, err := NewPairwiseBalance(u, u)

		require.Error(t, err)
	})
}

func TestPairKey(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()

	a1, b1 := PairKey(u1, u2)
	a2, b2 := PairKey(u2, u1)

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestPairwiseBalance_ApplyDelta(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()
	billID := uuid.New()

	t.Run("keeps both sides mirrored", func(t *testing.T) {
		p, err := NewPairwiseBalance(u1, u2)
		require.NoError(t, err)

		err = p.ApplyDelta(u2, decimal.NewFromInt(-15), billID)

		require.NoError(t, err)
		assert.Equal(t, "-15", p.BalanceFor(u2).String())
		assert.Equal(t, "15", p.BalanceFor(u1).String())
		assert.True(t, p.BalanceFor(u1).Add(p.BalanceFor(u2)).IsZero())
		require.NotNil(t, p.LastBillID)
		assert.Equal(t, billID, *p.LastBillID)
	})

	t.Run("deltas accumulate", func(t *testing.T) {
		p, err := NewPairwiseBalance(u1, u2)
		require.NoError(t, err)

		require.NoError(t, p.ApplyDelta(u2, decimal.NewFromInt(-15), billID))
		require.NoError(t, p.ApplyDelta(u2, decimal.NewFromInt(15), uuid.New()))

		assert.True(t, p.BalanceFor(u2).IsZero())
		assert.True(t, p.BalanceFor(u1).IsZero())
	})

	t.Run("rejects a user outside the pair", func(t *testing.T) {
		p, err := NewPairwiseBalance(u1, u2)
		require.NoError(t, err)

		err = p.ApplyDelta(uuid.New(), decimal.NewFromInt(1), billID)

		require.Error(t, err)
	})
}

func TestPairwiseBalance_Unsettled(t *testing.T) {
	p, err := NewPairwiseBalance(uuid.New(), uuid.New())
	require.NoError(t, err)
	billID := uuid.New()

	p.MarkUnsettled(billID)
	assert.True(t, p.UnsettledBillIDs[billID])

	p.ClearUnsettled(billID)
	assert.NotContains(t, p.UnsettledBillIDs, billID)
}

func TestPairwiseBalance_BalanceFor(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()
	p, err := NewPairwiseBalance(u1, u2)
	require.NoError(t, err)

	require.NoError(t, p.ApplyDelta(u2, decimal.NewFromInt(-20), uuid.New()))

	assert.Equal(t, "0", p.BalanceFor(uuid.New()).String())
	assert.Equal(t, u2, p.Counterparty(u1))
	assert.Equal(t, u1, p.Counterparty(u2))
}
