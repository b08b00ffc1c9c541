package ledger

import (
	"context"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the records a single
// pipeline pass may touch: the bill plus the affected pairwise balances.
// The implementation must provide serializable isolation and retry the
// function on write conflicts; the function is therefore required to be
// idempotent, which the footprint diff guarantees.
type TransactionScope interface {
	// Execute runs fn within one atomic transaction. If fn returns an
	// error the transaction is rolled back; nothing is partially applied.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger-relevant
// repositories within a transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
	// Bills returns the bill repository scoped to the current transaction
	Bills() bill.Repository
	// Balances returns the pairwise balance repository scoped to the
	// current transaction
	Balances() ledger.PairwiseBalanceRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Used in tests where the repositories are in-memory fakes.
type NoOpTransactionScope struct {
	bills    bill.Repository
	balances ledger.PairwiseBalanceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories.
func NewNoOpTransactionScope(bills bill.Repository, balances ledger.PairwiseBalanceRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{bills: bills, balances: balances}
}

// Execute runs the function directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Bills returns the bill repository.
func (s *NoOpTransactionScope) Bills() bill.Repository {
	return s.bills
}

// Balances returns the pairwise balance repository.
func (s *NoOpTransactionScope) Balances() ledger.PairwiseBalanceRepository {
	return s.balances
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
