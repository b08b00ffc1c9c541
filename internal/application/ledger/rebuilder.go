package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/directory"
	"github.com/splitledger/backend/internal/domain/ledger"
)

// GroupLedgerRebuilder recomputes a group's aggregate ledger from its full
// bill set. The result is a cache: the rebuild runs outside any single-bill
// transaction, concurrent rebuilds race with last-writer-wins, and the
// output is always self-consistent because it is derived fresh rather than
// incrementally patched.
type GroupLedgerRebuilder struct {
	bills     bill.Repository
	ledgers   ledger.GroupLedgerRepository
	directory directory.LinkedUserProvider
	logger    *zap.Logger
}

// NewGroupLedgerRebuilder creates a rebuilder.
func NewGroupLedgerRebuilder(
	bills bill.Repository,
	ledgers ledger.GroupLedgerRepository,
	provider directory.LinkedUserProvider,
	logger *zap.Logger,
) *GroupLedgerRebuilder {
	return &GroupLedgerRebuilder{
		bills:     bills,
		ledgers:   ledgers,
		directory: provider,
		logger:    logger,
	}
}

// Rebuild recomputes the group ledger, skipping excludeBillID (used on
// deletion, where the bill may still be visible to the query). Each bill's
// person totals are recomputed independently; the owner is credited what
// linked participants owe, net of the owner's own share. Within a group
// bill the owner is the implicit single payer.
func (r *GroupLedgerRebuilder) Rebuild(ctx context.Context, groupID, excludeBillID uuid.UUID) (*ledger.GroupLedger, error) {
	bills, err := r.bills.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group bills: %w", err)
	}

	net := make(map[uuid.UUID]decimal.Decimal)
	var processed []uuid.UUID
	linkedByOwner := make(map[uuid.UUID]map[uuid.UUID]bool)

	for _, b := range bills {
		if b.ID == excludeBillID {
			continue
		}
		if !b.IsLedgerEligible() {
			continue
		}
		// Every eligible bill is recorded as processed, even when all of
		// its entries net to zero or everyone is settled.
		processed = append(processed, b.ID)

		totals := bill.CalculatePersonTotals(b)
		if len(totals) == 0 {
			continue
		}

		linked, ok := linkedByOwner[b.OwnerID]
		if !ok {
			linked, err = r.directory.LinkedUserIDs(ctx, b.OwnerID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve linked users: %w", err)
			}
			linkedByOwner[b.OwnerID] = linked
		}

		for _, person := range b.Participants {
			userID, resolvable := bill.ResolveUserID(person.ID)
			if !resolvable || userID == b.OwnerID || !linked[userID] {
				continue
			}
			if b.IsSettled(person.ID) {
				continue
			}
			share := totals[person.ID]
			if share.Abs().LessThan(ledger.Epsilon) {
				continue
			}
			net[userID] = net[userID].Sub(share)
			net[b.OwnerID] = net[b.OwnerID].Add(share)
		}
	}

	result := ledger.NewGroupLedger(groupID, net, processed)
	if err := r.ledgers.Replace(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to write group ledger: %w", err)
	}

	r.logger.Info("group ledger rebuilt",
		zap.String("group_id", groupID.String()),
		zap.Int("bills", len(processed)),
		zap.Int("participants", len(result.NetBalances)),
		zap.Int("optimized_debts", len(result.OptimizedDebts)),
	)
	return result, nil
}
