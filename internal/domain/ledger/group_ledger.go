package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/shared"
)

// GroupLedger is the denormalized per-group aggregate: net balances and a
// simplified debt list across every bill in the group. It is a cache, fully
// rebuildable from the group's bill set, and is never trusted for the
// financial correctness of pairwise debts; the pairwise balance store stays
// authoritative.
type GroupLedger struct {
	shared.BaseEntity
	GroupID uuid.UUID
	// NetBalances maps user ID to signed net position; positive = owed money.
	NetBalances map[uuid.UUID]decimal.Decimal
	// OptimizedDebts is the greedy settle-up plan derived from NetBalances.
	OptimizedDebts []Debt
	// ProcessedBillIDs lists the bills that contributed to this rebuild.
	ProcessedBillIDs []uuid.UUID
	RebuiltAt        time.Time
}

// NewGroupLedger assembles a freshly rebuilt ledger document. Near-zero
// balances are clamped to exactly zero before the debt plan is derived.
func NewGroupLedger(groupID uuid.UUID, netBalances map[uuid.UUID]decimal.Decimal, processedBillIDs []uuid.UUID) *GroupLedger {
	clamped := make(map[uuid.UUID]decimal.Decimal, len(netBalances))
	for user, balance := range netBalances {
		if balance.Abs().LessThan(Epsilon) {
			clamped[user] = decimal.Zero
			continue
		}
		clamped[user] = balance
	}
	return &GroupLedger{
		BaseEntity:       shared.NewBaseEntity(),
		GroupID:          groupID,
		NetBalances:      clamped,
		OptimizedDebts:   OptimizeDebts(clamped),
		ProcessedBillIDs: processedBillIDs,
		RebuiltAt:        time.Now(),
	}
}
