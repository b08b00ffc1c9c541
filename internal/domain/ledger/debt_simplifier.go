package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Debt is a single settle-up instruction: From pays To the given amount.
type Debt struct {
	From   uuid.UUID       `json:"from"`
	To     uuid.UUID       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// OptimizeDebts reduces a net-balance map (positive = owed money) to a
// short list of settle-up transactions. Greedy largest-against-largest
// matching: it minimizes the transaction count in the common case, though
// it is not guaranteed globally minimal.
func OptimizeDebts(netBalances map[uuid.UUID]decimal.Decimal) []Debt {
	type stake struct {
		user   uuid.UUID
		amount decimal.Decimal // always positive
	}

	var debtors, creditors []stake
	for user, balance := range netBalances {
		switch {
		case balance.LessThan(Epsilon.Neg()):
			debtors = append(debtors, stake{user: user, amount: balance.Neg()})
		case balance.GreaterThan(Epsilon):
			creditors = append(creditors, stake{user: user, amount: balance})
		}
	}

	byAmountDesc := func(s []stake) func(i, j int) bool {
		return func(i, j int) bool {
			if !s[i].amount.Equal(s[j].amount) {
				return s[i].amount.GreaterThan(s[j].amount)
			}
			// Deterministic order for equal amounts.
			return s[i].user.String() < s[j].user.String()
		}
	}
	sort.Slice(debtors, byAmountDesc(debtors))
	sort.Slice(creditors, byAmountDesc(creditors))

	var debts []Debt
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		settle := decimal.Min(debtors[i].amount, creditors[j].amount)
		if settle.GreaterThan(Epsilon) {
			debts = append(debts, Debt{
				From:   debtors[i].user,
				To:     creditors[j].user,
				Amount: settle.Round(2),
			})
		}
		debtors[i].amount = debtors[i].amount.Sub(settle)
		creditors[j].amount = creditors[j].amount.Sub(settle)
		if debtors[i].amount.LessThan(Epsilon) {
			i++
		}
		if creditors[j].amount.LessThan(Epsilon) {
			j++
		}
	}
	return debts
}
