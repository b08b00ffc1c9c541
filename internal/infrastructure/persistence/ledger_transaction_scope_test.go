package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/splitledger/backend/internal/application/ledger"
)

func TestGormLedgerTransactionScope_Execute(t *testing.T) {
	conflict := errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")

	t.Run("retries a transient conflict and succeeds", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormLedgerTransactionScope(gormDB)

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		attempts := 0
		err := scope.Execute(context.Background(), func(appledger.TransactionalRepositories) error {
			attempts++
			if attempts == 1 {
				return conflict
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("configured retry budget bounds the attempts", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormLedgerTransactionScope(gormDB, WithMaxConflictRetries(2))

		for i := 0; i < 3; i++ {
			mock.ExpectBegin()
			mock.ExpectRollback()
		}

		attempts := 0
		err := scope.Execute(context.Background(), func(appledger.TransactionalRepositories) error {
			attempts++
			return conflict
		})

		assert.ErrorContains(t, err, "40001")
		assert.Equal(t, 3, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero retry budget runs exactly one attempt", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormLedgerTransactionScope(gormDB, WithMaxConflictRetries(0))

		mock.ExpectBegin()
		mock.ExpectRollback()

		attempts := 0
		err := scope.Execute(context.Background(), func(appledger.TransactionalRepositories) error {
			attempts++
			return conflict
		})

		assert.ErrorContains(t, err, "40001")
		assert.Equal(t, 1, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-retryable error surfaces immediately", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormLedgerTransactionScope(gormDB)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("constraint violation")
		attempts := 0
		err := scope.Execute(context.Background(), func(appledger.TransactionalRepositories) error {
			attempts++
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
