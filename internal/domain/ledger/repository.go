package ledger

import (
	"context"

	"github.com/google/uuid"
)

// PairwiseBalanceRepository provides access to pairwise balance records.
// Mutating methods are only meaningful inside the ledger transaction scope;
// the read methods back the friend-balance query surface.
type PairwiseBalanceRepository interface {
	// FindByPair returns the record for the unordered pair, or
	// shared.ErrNotFound when the pair has never interacted.
	FindByPair(ctx context.Context, u1, u2 uuid.UUID) (*PairwiseBalance, error)
	// FindByUser returns every record the user participates in.
	FindByUser(ctx context.Context, user uuid.UUID) ([]*PairwiseBalance, error)
	// Save upserts the record.
	Save(ctx context.Context, balance *PairwiseBalance) error
}

// GroupLedgerRepository stores the per-group aggregate cache. Replace
// semantics: a rebuild always writes the whole document, last writer wins.
type GroupLedgerRepository interface {
	FindByGroupID(ctx context.Context, groupID uuid.UUID) (*GroupLedger, error)
	Replace(ctx context.Context, ledger *GroupLedger) error
}
