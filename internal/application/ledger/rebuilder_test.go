package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
)

func groupBill(t *testing.T, owner uuid.UUID, groupID uuid.UUID, total int64, participants ...uuid.UUID) *bill.Bill {
	t.Helper()
	b, err := bill.NewBill(owner, "Group expense")
	require.NoError(t, err)
	b.GroupID = &groupID
	b.Total = decimal.NewFromInt(total)
	b.Items = []bill.Item{{ID: uuid.New().String(), Amount: decimal.NewFromInt(total)}}
	b.SplitEvenly = true
	b.Participants = append(b.Participants, bill.Person{ID: owner.String()})
	for _, p := range participants {
		b.Participants = append(b.Participants, bill.Person{ID: p.String()})
	}
	return b
}

func TestGroupLedgerRebuilder(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	groupID := uuid.New()

	newFixture := func(t *testing.T) (*memBills, *memGroupLedgers, *GroupLedgerRebuilder) {
		t.Helper()
		bills := newMemBills()
		ledgers := newMemGroupLedgers()
		directory := &memDirectory{links: map[uuid.UUID]map[uuid.UUID]bool{
			owner: {alice: true, bob: true},
			alice: {owner: true, bob: true},
		}}
		return bills, ledgers, NewGroupLedgerRebuilder(bills, ledgers, directory, zap.NewNop())
	}

	t.Run("aggregates net balances across bills", func(t *testing.T) {
		bills, _, rebuilder := newFixture(t)
		ctx := context.Background()

		// 90 split three ways: alice and bob each owe owner 30
		require.NoError(t, bills.Create(ctx, groupBill(t, owner, groupID, 90, alice, bob)))
		// 60 split two ways: owner owes alice 30
		require.NoError(t, bills.Create(ctx, groupBill(t, alice, groupID, 60, owner)))

		gl, err := rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		assert.Equal(t, "30", gl.NetBalances[owner].String())
		assert.Equal(t, "0", gl.NetBalances[alice].String())
		assert.Equal(t, "-30", gl.NetBalances[bob].String())
		require.Len(t, gl.OptimizedDebts, 1)
		assert.Equal(t, bob, gl.OptimizedDebts[0].From)
		assert.Equal(t, owner, gl.OptimizedDebts[0].To)
		assert.Equal(t, "30", gl.OptimizedDebts[0].Amount.String())
		assert.Len(t, gl.ProcessedBillIDs, 2)
	})

	t.Run("settled participants contribute nothing", func(t *testing.T) {
		bills, _, rebuilder := newFixture(t)
		ctx := context.Background()

		b := groupBill(t, owner, groupID, 90, alice, bob)
		b.SettledPersonIDs[bob.String()] = true
		require.NoError(t, bills.Create(ctx, b))

		gl, err := rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		assert.Equal(t, "30", gl.NetBalances[owner].String())
		assert.Equal(t, "-30", gl.NetBalances[alice].String())
		assert.NotContains(t, gl.NetBalances, bob)
	})

	t.Run("fully settled bill is still recorded as processed", func(t *testing.T) {
		bills, _, rebuilder := newFixture(t)
		ctx := context.Background()

		b := groupBill(t, owner, groupID, 90, alice, bob)
		b.SettledPersonIDs[alice.String()] = true
		b.SettledPersonIDs[bob.String()] = true
		require.NoError(t, bills.Create(ctx, b))

		gl, err := rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		assert.Empty(t, gl.NetBalances)
		assert.Equal(t, []uuid.UUID{b.ID}, gl.ProcessedBillIDs)
	})

	t.Run("excluded bill is skipped", func(t *testing.T) {
		bills, _, rebuilder := newFixture(t)
		ctx := context.Background()

		keep := groupBill(t, owner, groupID, 90, alice, bob)
		drop := groupBill(t, owner, groupID, 300, alice, bob)
		require.NoError(t, bills.Create(ctx, keep))
		require.NoError(t, bills.Create(ctx, drop))

		gl, err := rebuilder.Rebuild(ctx, groupID, drop.ID)
		require.NoError(t, err)

		assert.Equal(t, "60", gl.NetBalances[owner].String())
		assert.Equal(t, []uuid.UUID{keep.ID}, gl.ProcessedBillIDs)
	})

	t.Run("empty group yields an empty but stored ledger", func(t *testing.T) {
		_, ledgers, rebuilder := newFixture(t)
		ctx := context.Background()

		gl, err := rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		assert.Empty(t, gl.NetBalances)
		assert.Empty(t, gl.OptimizedDebts)

		stored, err := ledgers.FindByGroupID(ctx, groupID)
		require.NoError(t, err)
		assert.Equal(t, gl.GroupID, stored.GroupID)
	})

	t.Run("rebuild replaces the previous document", func(t *testing.T) {
		bills, ledgers, rebuilder := newFixture(t)
		ctx := context.Background()

		b := groupBill(t, owner, groupID, 90, alice, bob)
		require.NoError(t, bills.Create(ctx, b))
		_, err := rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		b.Total = decimal.NewFromInt(30)
		b.Items[0].Amount = decimal.NewFromInt(30)
		_, err = rebuilder.Rebuild(ctx, groupID, uuid.Nil)
		require.NoError(t, err)

		gl, err := ledgers.FindByGroupID(ctx, groupID)
		require.NoError(t, err)
		assert.Equal(t, "20", gl.NetBalances[owner].String())
	})
}
