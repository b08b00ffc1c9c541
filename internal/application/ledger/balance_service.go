package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/ledger"
	"github.com/splitledger/backend/internal/domain/shared"
)

// BalanceService is the read surface over pairwise balances and group
// ledgers. Pairwise records are authoritative; the group ledger is a cache
// and is rebuilt on demand when missing.
type BalanceService struct {
	balances  ledger.PairwiseBalanceRepository
	ledgers   ledger.GroupLedgerRepository
	rebuilder *GroupLedgerRebuilder
	logger    *zap.Logger
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(
	balances ledger.PairwiseBalanceRepository,
	ledgers ledger.GroupLedgerRepository,
	rebuilder *GroupLedgerRebuilder,
	logger *zap.Logger,
) *BalanceService {
	return &BalanceService{
		balances:  balances,
		ledgers:   ledgers,
		rebuilder: rebuilder,
		logger:    logger,
	}
}

// ListForUser returns every pairwise balance the user participates in.
func (s *BalanceService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*ledger.PairwiseBalance, error) {
	return s.balances.FindByUser(ctx, userID)
}

// GetPair returns the balance record between two users. A pair that never
// interacted yields a zeroed record rather than an error.
func (s *BalanceService) GetPair(ctx context.Context, userID, otherID uuid.UUID) (*ledger.PairwiseBalance, error) {
	balance, err := s.balances.FindByPair(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ledger.NewPairwiseBalance(userID, otherID)
		}
		return nil, err
	}
	return balance, nil
}

// GetGroupLedger returns the cached group ledger, rebuilding it when no
// cache entry exists yet.
func (s *BalanceService) GetGroupLedger(ctx context.Context, groupID uuid.UUID) (*ledger.GroupLedger, error) {
	cached, err := s.ledgers.FindByGroupID(ctx, groupID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	s.logger.Info("group ledger cache miss, rebuilding",
		zap.String("group_id", groupID.String()),
	)
	return s.rebuilder.Rebuild(ctx, groupID, uuid.Nil)
}

// RebuildGroupLedger forces a full recompute of the group's cache.
func (s *BalanceService) RebuildGroupLedger(ctx context.Context, groupID uuid.UUID) (*ledger.GroupLedger, error) {
	return s.rebuilder.Rebuild(ctx, groupID, uuid.Nil)
}
