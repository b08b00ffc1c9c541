package ledger

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePairwiseBalance = "PairwiseBalance"

// PairwiseBalance is the running signed net amount owed between exactly two
// users, across all bills. One record exists per unordered pair, created
// lazily on the first nonzero interaction and never deleted; a settled pair
// simply holds zero. Both sides are stored with mirrored signs so either
// participant can read its own position in O(1).
//
// Invariant: BalanceFor(a) == −BalanceFor(b) after every mutation. The
// record is authoritative; it is mutated only by applying signed deltas
// inside a serializable transaction, never overwritten wholesale.
type PairwiseBalance struct {
	shared.BaseEntity
	// UserA sorts before UserB; call sites never rely on the order and go
	// through BalanceFor instead.
	UserA    uuid.UUID
	UserB    uuid.UUID
	BalanceA decimal.Decimal
	BalanceB decimal.Decimal
	// UnsettledBillIDs tracks bills whose current footprint between this
	// pair is nonzero.
	UnsettledBillIDs map[uuid.UUID]bool
	LastBillID       *uuid.UUID
	LastUpdatedAt    time.Time
}

// PairKey returns the two user IDs in canonical (sorted) order.
func PairKey(u1, u2 uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(u1[:], u2[:]) <= 0 {
		return u1, u2
	}
	return u2, u1
}

// NewPairwiseBalance creates a zero balance record for the pair.
func NewPairwiseBalance(u1, u2 uuid.UUID) (*PairwiseBalance, error) {
	if u1 == uuid.Nil || u2 == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAIR", "Both pair participants must be set")
	}
	if u1 == u2 {
		return nil, shared.NewDomainError("INVALID_PAIR", "A pairwise balance needs two distinct users")
	}
	a, b := PairKey(u1, u2)
	return &PairwiseBalance{
		BaseEntity:       shared.NewBaseEntity(),
		UserA:            a,
		UserB:            b,
		BalanceA:         decimal.Zero,
		BalanceB:         decimal.Zero,
		UnsettledBillIDs: make(map[uuid.UUID]bool),
		LastUpdatedAt:    time.Now(),
	}, nil
}

// Holds reports whether the record belongs to the given pair.
func (p *PairwiseBalance) Holds(u1, u2 uuid.UUID) bool {
	a, b := PairKey(u1, u2)
	return p.UserA == a && p.UserB == b
}

// BalanceFor returns the signed balance from the given user's perspective:
// positive means they are owed money, negative means they owe.
func (p *PairwiseBalance) BalanceFor(user uuid.UUID) decimal.Decimal {
	switch user {
	case p.UserA:
		return p.BalanceA
	case p.UserB:
		return p.BalanceB
	default:
		return decimal.Zero
	}
}

// Counterparty returns the other user of the pair.
func (p *PairwiseBalance) Counterparty(user uuid.UUID) uuid.UUID {
	if user == p.UserA {
		return p.UserB
	}
	return p.UserA
}

// ApplyDelta adds delta to the counterparty's side and subtracts it from
// the other side, keeping the mirror invariant intact.
func (p *PairwiseBalance) ApplyDelta(counterparty uuid.UUID, delta decimal.Decimal, billID uuid.UUID) error {
	if counterparty != p.UserA && counterparty != p.UserB {
		return shared.NewDomainError("INVALID_PAIR", "User does not belong to this pairwise balance")
	}
	if counterparty == p.UserA {
		p.BalanceA = p.BalanceA.Add(delta)
		p.BalanceB = p.BalanceB.Sub(delta)
	} else {
		p.BalanceB = p.BalanceB.Add(delta)
		p.BalanceA = p.BalanceA.Sub(delta)
	}
	id := billID
	p.LastBillID = &id
	p.LastUpdatedAt = time.Now()
	return nil
}

// MarkUnsettled records the bill as outstanding between the pair.
func (p *PairwiseBalance) MarkUnsettled(billID uuid.UUID) {
	if p.UnsettledBillIDs == nil {
		p.UnsettledBillIDs = make(map[uuid.UUID]bool)
	}
	p.UnsettledBillIDs[billID] = true
}

// ClearUnsettled removes the bill from the outstanding set.
func (p *PairwiseBalance) ClearUnsettled(billID uuid.UUID) {
	delete(p.UnsettledBillIDs, billID)
}
