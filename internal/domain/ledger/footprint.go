package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Epsilon is the monetary noise floor. Deltas below it are dropped so that
// floating-point dust from upstream calculations never generates writes,
// and near-zero aggregate balances are clamped to exactly zero.
var Epsilon = decimal.NewFromFloat(0.001)

// Footprint maps a counterparty user ID to the signed amount a bill
// currently contributes to that counterparty's side of the pairwise
// balance. Negative means the counterparty owes the owner (their balance
// goes down), positive means the owner owes them. A bill's stored footprint
// is the single source of truth for what was last durably applied.
type Footprint map[uuid.UUID]decimal.Decimal

// Deltas is the signed per-counterparty difference between two footprints.
type Deltas map[uuid.UUID]decimal.Decimal

// Diff computes newFootprint − oldFootprint over the union of their keys,
// omitting entries whose absolute delta is below Epsilon. Reprocessing a
// bill with no real change therefore yields an empty delta set, which makes
// re-application idempotent.
func Diff(newFootprint, oldFootprint Footprint) Deltas {
	deltas := make(Deltas)
	for counterparty, amount := range newFootprint {
		delta := amount.Sub(oldFootprint[counterparty])
		if delta.Abs().GreaterThanOrEqual(Epsilon) {
			deltas[counterparty] = delta
		}
	}
	for counterparty, prev := range oldFootprint {
		if _, seen := newFootprint[counterparty]; seen {
			continue
		}
		delta := prev.Neg()
		if delta.Abs().GreaterThanOrEqual(Epsilon) {
			deltas[counterparty] = delta
		}
	}
	return deltas
}

// Strip returns a copy without zero entries. A counterparty settled to zero
// must not remain a stored key forever; dropping it keeps storage and
// subsequent diffs cheap.
func (f Footprint) Strip() Footprint {
	stripped := make(Footprint, len(f))
	for counterparty, amount := range f {
		if amount.Abs().LessThan(Epsilon) {
			continue
		}
		stripped[counterparty] = amount
	}
	return stripped
}

// IsEmpty reports whether the footprint has no nonzero entries.
func (f Footprint) IsEmpty() bool {
	for _, amount := range f {
		if amount.Abs().GreaterThanOrEqual(Epsilon) {
			return false
		}
	}
	return true
}

// Equals reports whether both footprints carry the same nonzero entries,
// up to Epsilon.
func (f Footprint) Equals(other Footprint) bool {
	return len(Diff(f, other)) == 0 && len(Diff(other, f)) == 0
}

// Negate returns the footprint with every sign flipped. Used to reverse a
// deleted bill's last applied footprint.
func (f Footprint) Negate() Deltas {
	deltas := make(Deltas, len(f))
	for counterparty, amount := range f {
		deltas[counterparty] = amount.Neg()
	}
	return deltas
}

// ComputeFootprint derives a bill's footprint from resolved participant
// shares. counterpartyShares holds each linked counterparty's owed total
// (owner and guests excluded); settled marks users whose share is already
// settled and contributes zero.
//
// When the owner paid, each unsettled counterparty owes the owner its
// share, so the entry is the negated share. When a linked counterparty
// paid, only the owner's own share moves: the owner owes it to the payer.
// Debt between two non-owner participants is outside the owner's pairwise
// scope and never enters this bill's footprint.
func ComputeFootprint(
	ownerID, payerID uuid.UUID,
	ownerShare decimal.Decimal,
	counterpartyShares map[uuid.UUID]decimal.Decimal,
	settled map[uuid.UUID]bool,
) Footprint {
	fp := make(Footprint)
	if payerID == uuid.Nil || payerID == ownerID {
		for counterparty, share := range counterpartyShares {
			if settled[counterparty] {
				continue
			}
			fp[counterparty] = share.Neg()
		}
		return fp.Strip()
	}
	if _, linked := counterpartyShares[payerID]; linked && !settled[ownerID] {
		fp[payerID] = ownerShare
	}
	return fp.Strip()
}
