package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeDebts(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	t.Run("greedy largest-against-largest matching", func(t *testing.T) {
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.NewFromInt(30),
			bob:   decimal.NewFromInt(-10),
			carol: decimal.NewFromInt(-20),
		}

		debts := OptimizeDebts(net)

		require.Len(t, debts, 2)
		assert.Equal(t, carol, debts[0].From)
		assert.Equal(t, alice, debts[0].To)
		assert.Equal(t, "20", debts[0].Amount.String())
		assert.Equal(t, bob, debts[1].From)
		assert.Equal(t, alice, debts[1].To)
		assert.Equal(t, "10", debts[1].Amount.String())
	})

	t.Run("balanced group needs no transactions", func(t *testing.T) {
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.Zero,
			bob:   decimal.Zero,
		}

		assert.Empty(t, OptimizeDebts(net))
	})

	t.Run("near-zero balances are treated as settled", func(t *testing.T) {
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.NewFromFloat(0.0004),
			bob:   decimal.NewFromFloat(-0.0004),
		}

		assert.Empty(t, OptimizeDebts(net))
	})

	t.Run("amounts round to two decimal places", func(t *testing.T) {
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.NewFromFloat(3.333333),
			bob:   decimal.NewFromFloat(-3.333333),
		}

		debts := OptimizeDebts(net)

		require.Len(t, debts, 1)
		assert.Equal(t, "3.33", debts[0].Amount.String())
	})

	t.Run("one debtor covers multiple creditors", func(t *testing.T) {
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.NewFromInt(-30),
			bob:   decimal.NewFromInt(20),
			carol: decimal.NewFromInt(10),
		}

		debts := OptimizeDebts(net)

		require.Len(t, debts, 2)
		total := decimal.Zero
		for _, d := range debts {
			assert.Equal(t, alice, d.From)
			total = total.Add(d.Amount)
		}
		assert.Equal(t, "30", total.String())
	})

	t.Run("deterministic order for equal amounts", func(t *testing.T) {
		dave := uuid.New()
		net := map[uuid.UUID]decimal.Decimal{
			alice: decimal.NewFromInt(10),
			bob:   decimal.NewFromInt(10),
			carol: decimal.NewFromInt(-10),
			dave:  decimal.NewFromInt(-10),
		}

		first := OptimizeDebts(net)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, OptimizeDebts(net))
		}
	})
}
