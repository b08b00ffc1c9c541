package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	appledger "github.com/splitledger/backend/internal/application/ledger"
	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/ledger"
)

// defaultConflictRetries bounds how often a serialization conflict is
// retried before the error surfaces to the caller.
const defaultConflictRetries = 3

// GormLedgerTransactionScope implements the ledger TransactionScope on GORM.
// Each pass runs at serializable isolation; conflicting concurrent passes
// abort and are retried with backoff. The retried function re-reads the
// bill and re-derives the deltas, so a retry applies each delta exactly
// once.
type GormLedgerTransactionScope struct {
	db         *gorm.DB
	maxRetries int
}

// ScopeOption configures a GormLedgerTransactionScope.
type ScopeOption func(*GormLedgerTransactionScope)

// WithMaxConflictRetries overrides the conflict retry budget. Values below
// zero are ignored; zero disables retries.
func WithMaxConflictRetries(retries int) ScopeOption {
	return func(s *GormLedgerTransactionScope) {
		if retries >= 0 {
			s.maxRetries = retries
		}
	}
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormLedgerTransactionScope {
	s := &GormLedgerTransactionScope{db: db, maxRetries: defaultConflictRetries}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a serializable database
// transaction, retrying on write conflicts.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormLedgerRepositories{tx: tx})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})

		if err == nil || !isRetryableConflict(err) || attempt >= s.maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

// isRetryableConflict reports whether the error is a transient
// serialization failure. Postgres signals SQLSTATE 40001; sqlite reports a
// locked database.
func isRetryableConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// gormLedgerRepositories provides the ledger-relevant repositories scoped
// to one transaction.
type gormLedgerRepositories struct {
	tx *gorm.DB
}

// Bills returns the bill repository scoped to the current transaction.
func (r *gormLedgerRepositories) Bills() bill.Repository {
	return NewGormBillRepository(r.tx)
}

// Balances returns the pairwise balance repository scoped to the current
// transaction.
func (r *gormLedgerRepositories) Balances() ledger.PairwiseBalanceRepository {
	return NewGormPairwiseBalanceRepository(r.tx)
}

// Ensure GormLedgerTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)

// Ensure gormLedgerRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormLedgerRepositories)(nil)
