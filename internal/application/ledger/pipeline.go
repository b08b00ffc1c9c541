package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/directory"
	"github.com/splitledger/backend/internal/domain/ledger"
	"github.com/splitledger/backend/internal/domain/shared"
)

// DefaultPipelineTimeout bounds a single pipeline invocation.
const DefaultPipelineTimeout = 10 * time.Second

// Pipeline is the change-triggered ledger consistency engine. It reacts to
// bill created/updated/deleted events, derives the minimal delta against
// the bill's previously applied footprint, applies it atomically to the
// pairwise balance store and then best-effort rebuilds the group ledger
// cache.
//
// Failure policy: only the pairwise-balance transaction may fail the
// invocation (so the bus/trigger can retry it); every other stage skips or
// degrades with a log line.
type Pipeline struct {
	scope     TransactionScope
	directory directory.LinkedUserProvider
	rebuilder *GroupLedgerRebuilder
	logger    *zap.Logger
	timeout   time.Duration
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineTimeout overrides the per-invocation wall-clock budget.
func WithPipelineTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPipeline creates the ledger pipeline handler.
func NewPipeline(
	scope TransactionScope,
	provider directory.LinkedUserProvider,
	rebuilder *GroupLedgerRebuilder,
	logger *zap.Logger,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		scope:     scope,
		directory: provider,
		rebuilder: rebuilder,
		logger:    logger,
		timeout:   DefaultPipelineTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EventTypes returns the event types this handler is interested in
func (p *Pipeline) EventTypes() []string {
	return []string{bill.EventTypeBillCreated, bill.EventTypeBillUpdated, bill.EventTypeBillDeleted}
}

// Handle processes a bill change event.
func (p *Pipeline) Handle(ctx context.Context, event shared.DomainEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch e := event.(type) {
	case *bill.BillCreatedEvent:
		return p.processUpsert(ctx, e.BillID, e.GroupID, nil, nil)
	case *bill.BillUpdatedEvent:
		if err := p.processUpsert(ctx, e.BillID, e.GroupID, &e.Before, &e.After); err != nil {
			return err
		}
		p.rebuildAfterGroupMove(ctx, e)
		return nil
	case *bill.BillDeletedEvent:
		return p.processDelete(ctx, e)
	default:
		p.logger.Error("unexpected event type in ledger pipeline",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

// processUpsert handles bill creation and updates.
func (p *Pipeline) processUpsert(ctx context.Context, billID uuid.UUID, groupID *uuid.UUID, before, after *bill.LedgerSnapshot) error {
	// Reprocessing guard: a typed diff over the fixed ledger-relevant
	// field set. Fields the pipeline itself writes are not part of the
	// snapshot, so the pipeline's own bill writes can never pass it.
	if before != nil && after != nil && before.Equal(*after) {
		p.logger.Debug("skipping bill update with no ledger-relevant change",
			zap.String("bill_id", billID.String()),
		)
		return nil
	}

	var (
		applied      int
		skipReason   string
		touchedGroup bool
	)
	err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		applied = 0
		skipReason = ""
		touchedGroup = false

		// Re-read inside the transaction; a concurrent edit between the
		// trigger and this pass must not be applied from stale state.
		b, err := repos.Bills().FindByID(ctx, billID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Deleted concurrently; the deletion event owns the reversal.
				skipReason = "bill no longer exists"
				return nil
			}
			return fmt.Errorf("failed to load bill: %w", err)
		}

		if !b.IsLedgerEligible() {
			skipReason = "bill not ledger-eligible yet"
			return nil
		}

		totals := bill.CalculatePersonTotals(b)
		if len(totals) == 0 {
			skipReason = "no assignable totals"
			return nil
		}

		linked, err := p.directory.LinkedUserIDs(ctx, b.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to resolve linked users: %w", err)
		}

		shares := resolveShares(b, totals, linked)
		if len(shares.counterparties) == 0 {
			// No linked counterparties: nothing to apply, but the pass
			// still counts so the next write's guard comparison stays
			// meaningful.
			skipReason = "no linked counterparties"
			b.LedgerVersion++
			b.ForceRescan = false
			return repos.Bills().Save(ctx, b)
		}

		newFootprint := ledger.ComputeFootprint(
			b.OwnerID, b.EffectivePayer(),
			shares.ownerShare, shares.counterparties, shares.settled,
		)

		// Recomputed inside the transaction against the footprint that is
		// actually stored right now, not against any earlier read.
		deltas := ledger.Diff(newFootprint, b.ProcessedFootprint)
		if len(deltas) == 0 && newFootprint.Equals(b.ProcessedFootprint) && !b.ForceRescan {
			skipReason = "footprint unchanged"
			return nil
		}

		for counterparty, delta := range deltas {
			if err := p.applyPairDelta(ctx, repos, b, counterparty, delta, newFootprint); err != nil {
				return err
			}
			applied++
		}

		b.AdvanceLedger(newFootprint)
		if err := repos.Bills().Save(ctx, b); err != nil {
			return fmt.Errorf("failed to store applied footprint: %w", err)
		}
		touchedGroup = true
		return nil
	})
	if err != nil {
		p.logger.Error("pairwise balance transaction failed",
			zap.String("bill_id", billID.String()),
			zap.Error(err),
		)
		return err
	}

	if skipReason != "" {
		p.logger.Debug("ledger pass skipped",
			zap.String("bill_id", billID.String()),
			zap.String("reason", skipReason),
		)
	} else {
		p.logger.Info("ledger footprint applied",
			zap.String("bill_id", billID.String()),
			zap.Int("applied_deltas", applied),
		)
	}

	if touchedGroup && groupID != nil {
		p.rebuildGroup(ctx, *groupID, uuid.Nil, billID)
	}
	return nil
}

// applyPairDelta mutates one pairwise balance record, creating it lazily on
// the first nonzero interaction.
func (p *Pipeline) applyPairDelta(
	ctx context.Context,
	repos TransactionalRepositories,
	b *bill.Bill,
	counterparty uuid.UUID,
	delta decimal.Decimal,
	newFootprint ledger.Footprint,
) error {
	record, err := repos.Balances().FindByPair(ctx, b.OwnerID, counterparty)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to load pairwise balance: %w", err)
		}
		record, err = ledger.NewPairwiseBalance(b.OwnerID, counterparty)
		if err != nil {
			return err
		}
	}
	if err := record.ApplyDelta(counterparty, delta, b.ID); err != nil {
		return err
	}
	if entry, ok := newFootprint[counterparty]; ok && entry.Abs().GreaterThanOrEqual(ledger.Epsilon) {
		record.MarkUnsettled(b.ID)
	} else {
		record.ClearUnsettled(b.ID)
	}
	if err := repos.Balances().Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save pairwise balance: %w", err)
	}
	return nil
}

// processDelete reverses a deleted bill's last applied footprint. No new
// footprint exists for a deleted bill; the stored one carried by the event
// is the only data available.
func (p *Pipeline) processDelete(ctx context.Context, e *bill.BillDeletedEvent) error {
	if !e.Footprint.IsEmpty() {
		err := p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			for counterparty, delta := range e.Footprint.Negate() {
				if delta.Abs().LessThan(ledger.Epsilon) {
					continue
				}
				record, err := repos.Balances().FindByPair(ctx, e.OwnerID, counterparty)
				if err != nil {
					if !errors.Is(err, shared.ErrNotFound) {
						return fmt.Errorf("failed to load pairwise balance: %w", err)
					}
					// Absent record reads as zero.
					record, err = ledger.NewPairwiseBalance(e.OwnerID, counterparty)
					if err != nil {
						return err
					}
				}
				if err := record.ApplyDelta(counterparty, delta, e.BillID); err != nil {
					return err
				}
				record.ClearUnsettled(e.BillID)
				if err := repos.Balances().Save(ctx, record); err != nil {
					return fmt.Errorf("failed to save pairwise balance: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			p.logger.Error("footprint reversal failed",
				zap.String("bill_id", e.BillID.String()),
				zap.Error(err),
			)
			return err
		}
		p.logger.Info("ledger footprint reversed",
			zap.String("bill_id", e.BillID.String()),
			zap.Int("reversed_entries", len(e.Footprint)),
		)
	}

	if e.GroupID != nil {
		p.rebuildGroup(ctx, *e.GroupID, e.BillID, e.BillID)
	}
	return nil
}

// rebuildAfterGroupMove refreshes both group caches when an update moved
// the bill between groups. The bill's row already carries the new group,
// so rebuilding the old group naturally excludes it. Group membership is
// not part of the reprocessing guard, which means a pure move reaches
// this even when no pairwise delta was applied.
func (p *Pipeline) rebuildAfterGroupMove(ctx context.Context, e *bill.BillUpdatedEvent) {
	if sameGroupID(e.PreviousGroupID, e.GroupID) {
		return
	}
	if e.PreviousGroupID != nil {
		p.rebuildGroup(ctx, *e.PreviousGroupID, uuid.Nil, e.BillID)
	}
	if e.GroupID != nil {
		p.rebuildGroup(ctx, *e.GroupID, uuid.Nil, e.BillID)
	}
}

func sameGroupID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// rebuildGroup triggers the aggregate rebuild outside the pairwise
// transaction. A failure here must not roll back or fail the authoritative
// ledger write, so it is logged and swallowed.
func (p *Pipeline) rebuildGroup(ctx context.Context, groupID, excludeBillID, triggerBillID uuid.UUID) {
	if p.rebuilder == nil {
		return
	}
	if _, err := p.rebuilder.Rebuild(ctx, groupID, excludeBillID); err != nil {
		p.logger.Warn("group ledger rebuild failed",
			zap.String("group_id", groupID.String()),
			zap.String("trigger_bill_id", triggerBillID.String()),
			zap.Error(err),
		)
	}
}

// resolvedShares is the bill's share breakdown after person→user resolution.
type resolvedShares struct {
	ownerShare decimal.Decimal
	// counterparties holds each linked non-owner participant's owed total,
	// zero included so a payer without an assigned item is still resolvable.
	counterparties map[uuid.UUID]decimal.Decimal
	settled        map[uuid.UUID]bool
}

// resolveShares intersects the bill's participants with the owner's linked
// user set. Guests and unlinked users resolve to nothing and are excluded
// from ledger effects; that is expected, not an error.
func resolveShares(b *bill.Bill, totals map[string]decimal.Decimal, linked map[uuid.UUID]bool) resolvedShares {
	shares := resolvedShares{
		ownerShare:     decimal.Zero,
		counterparties: make(map[uuid.UUID]decimal.Decimal),
		settled:        make(map[uuid.UUID]bool),
	}
	for _, person := range b.Participants {
		userID, ok := bill.ResolveUserID(person.ID)
		if !ok {
			continue
		}
		if userID == b.OwnerID {
			shares.ownerShare = shares.ownerShare.Add(totals[person.ID])
			if b.IsSettled(person.ID) {
				shares.settled[userID] = true
			}
			continue
		}
		if !linked[userID] {
			continue
		}
		shares.counterparties[userID] = shares.counterparties[userID].Add(totals[person.ID])
		if b.IsSettled(person.ID) {
			shares.settled[userID] = true
		}
	}
	return shares
}

var _ shared.EventHandler = (*Pipeline)(nil)
