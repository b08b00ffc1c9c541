package bill

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitledger/backend/internal/domain/ledger"
)

func TestNewBill(t *testing.T) {
	t.Run("creates bill with empty collections", func(t *testing.T) {
		owner := uuid.New()

		b, err := NewBill(owner, "Groceries")

		require.NoError(t, err)
		assert.Equal(t, owner, b.OwnerID)
		assert.Equal(t, "Groceries", b.Title)
		assert.NotNil(t, b.ItemAssignments)
		assert.NotNil(t, b.SettledPersonIDs)
		assert.Empty(t, b.ProcessedFootprint)
		assert.Equal(t, 0, b.LedgerVersion)
	})

	t.Run("rejects nil owner", func(t *testing.T) {
		_, err := NewBill(uuid.Nil, "Groceries")

		require.Error(t, err)
	})
}

func TestBill_EffectivePayer(t *testing.T) {
	b := newTestBill(t)

	assert.Equal(t, b.OwnerID, b.EffectivePayer())

	payer := uuid.New()
	b.PayerID = payer
	assert.Equal(t, payer, b.EffectivePayer())
}

func TestBill_IsLedgerEligible(t *testing.T) {
	b := newTestBill(t)
	assert.False(t, b.IsLedgerEligible())

	b.Items = []Item{{ID: "i1", Amount: decimal.NewFromInt(10)}}
	assert.False(t, b.IsLedgerEligible())

	b.Participants = []Person{{ID: uuid.New().String()}}
	assert.True(t, b.IsLedgerEligible())
}

func TestBill_AdvanceLedger(t *testing.T) {
	b := newTestBill(t)
	b.RequestRescan()
	counterparty := uuid.New()

	b.AdvanceLedger(ledger.Footprint{
		counterparty: decimal.NewFromInt(-15),
		uuid.New():   decimal.Zero, // stripped
	})

	assert.Len(t, b.ProcessedFootprint, 1)
	assert.Equal(t, "-15", b.ProcessedFootprint[counterparty].String())
	assert.Equal(t, 1, b.LedgerVersion)
	assert.False(t, b.ForceRescan)
}

func TestLedgerSnapshot_Equal(t *testing.T) {
	alice := uuid.New().String()
	bob := uuid.New().String()

	build := func(t *testing.T) *Bill {
		t.Helper()
		b := newTestBill(t)
		b.Participants = []Person{{ID: alice}, {ID: bob}}
		b.Items = []Item{{ID: "i1", Amount: decimal.NewFromInt(30)}}
		b.ItemAssignments = map[string][]string{"i1": {alice, bob}}
		b.Tax = decimal.NewFromInt(2)
		b.Total = decimal.NewFromInt(32)
		return b
	}

	t.Run("equal for identical ledger-relevant state", func(t *testing.T) {
		assert.True(t, build(t).Snapshot().Equal(build(t).Snapshot()))
	})

	t.Run("participant order does not matter", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.Participants = []Person{{ID: bob}, {ID: alice}}
		b2.ItemAssignments = map[string][]string{"i1": {bob, alice}}

		assert.True(t, b1.Snapshot().Equal(b2.Snapshot()))
	})

	t.Run("pipeline-owned fields are excluded", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.AdvanceLedger(ledger.Footprint{uuid.New(): decimal.NewFromInt(-15)})

		assert.True(t, b1.Snapshot().Equal(b2.Snapshot()))
	})

	t.Run("detects amount change", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.Items[0].Amount = decimal.NewFromInt(31)

		assert.False(t, b1.Snapshot().Equal(b2.Snapshot()))
	})

	t.Run("detects settlement flag change", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.SettledPersonIDs[bob] = true

		assert.False(t, b1.Snapshot().Equal(b2.Snapshot()))
	})

	t.Run("detects payer change", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.PayerID = uuid.New()

		assert.False(t, b1.Snapshot().Equal(b2.Snapshot()))
	})

	t.Run("force rescan makes snapshots differ", func(t *testing.T) {
		b1 := build(t)
		b2 := build(t)
		b2.RequestRescan()

		assert.False(t, b1.Snapshot().Equal(b2.Snapshot()))
	})
}

func TestResolveUserID(t *testing.T) {
	userID := uuid.New()

	t.Run("plain uuid", func(t *testing.T) {
		resolved, ok := ResolveUserID(userID.String())

		require.True(t, ok)
		assert.Equal(t, userID, resolved)
	})

	t.Run("local composite identifier", func(t *testing.T) {
		resolved, ok := ResolveUserID("local:" + userID.String() + ":Roommate")

		require.True(t, ok)
		assert.Equal(t, userID, resolved)
	})

	t.Run("guest label resolves to nothing", func(t *testing.T) {
		_, ok := ResolveUserID("local:whoever")

		assert.False(t, ok)
		assert.True(t, Person{ID: "local:whoever"}.IsGuest())
	})
}
