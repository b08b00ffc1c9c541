package bill

import (
	"github.com/shopspring/decimal"
)

// CalculatePersonTotals computes each participant's owed total from the
// bill's current state. Itemized bills divide each item equally among its
// assignees and allocate tax and tip proportionally to each person's item
// subtotal; split-evenly bills divide the bill total equally among all
// participants. Settlement flags are intentionally not applied here: the
// footprint computation zeroes settled participants so their raw share
// stays available to callers that need it.
//
// An empty result means the bill has nothing assignable yet and the
// pipeline should skip it.
func CalculatePersonTotals(b *Bill) map[string]decimal.Decimal {
	if len(b.Participants) == 0 {
		return nil
	}

	totals := make(map[string]decimal.Decimal, len(b.Participants))

	if b.SplitEvenly {
		if b.Total.IsZero() {
			return nil
		}
		share := b.Total.Div(decimal.NewFromInt(int64(len(b.Participants))))
		for _, p := range b.Participants {
			totals[p.ID] = share
		}
		return totals
	}

	known := make(map[string]bool, len(b.Participants))
	for _, p := range b.Participants {
		known[p.ID] = true
	}

	subtotals := make(map[string]decimal.Decimal)
	itemsSubtotal := decimal.Zero
	for _, item := range b.Items {
		itemsSubtotal = itemsSubtotal.Add(item.Amount)
		assignees := b.ItemAssignments[item.ID]
		if len(assignees) == 0 {
			continue
		}
		perPerson := item.Amount.Div(decimal.NewFromInt(int64(len(assignees))))
		for _, personID := range assignees {
			if !known[personID] {
				continue
			}
			subtotals[personID] = subtotals[personID].Add(perPerson)
		}
	}
	if len(subtotals) == 0 {
		return nil
	}

	// person_total = person_subtotal × (1 + (tax+tip)/items_subtotal)
	surcharge := b.Tax.Add(b.Tip)
	factor := decimal.NewFromInt(1)
	if !surcharge.IsZero() && itemsSubtotal.IsPositive() {
		factor = factor.Add(surcharge.Div(itemsSubtotal))
	}
	for personID, subtotal := range subtotals {
		totals[personID] = subtotal.Mul(factor)
	}
	return totals
}
