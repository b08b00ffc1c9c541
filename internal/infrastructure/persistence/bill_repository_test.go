package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/splitledger/backend/internal/domain/shared"
)

// newMockDB creates a gorm connection backed by sqlmock.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormBillRepository_FindByID(t *testing.T) {
	t.Run("finds existing bill and parses JSON columns", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormBillRepository(gormDB)

		billID := uuid.New()
		ownerID := uuid.New()
		friendID := uuid.New()

		participants := fmt.Sprintf(`[{"id":%q,"name":"Me"},{"id":%q,"name":"Friend"}]`, ownerID, friendID)
		items := `[{"id":"i1","description":"Dinner","amount":"30"}]`
		footprint := fmt.Sprintf(`{%q:"-15"}`, friendID)

		rows := sqlmock.NewRows([]string{
			"id", "version", "owner_id", "title", "participants", "items",
			"total", "split_evenly", "processed_footprint", "ledger_version",
		}).AddRow(
			billID, 1, ownerID, "Dinner", participants, items,
			decimal.NewFromInt(30), true, footprint, 2,
		)

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnRows(rows)

		b, err := repo.FindByID(context.Background(), billID)

		require.NoError(t, err)
		assert.Equal(t, billID, b.ID)
		assert.Equal(t, ownerID, b.OwnerID)
		assert.Len(t, b.Participants, 2)
		require.Len(t, b.Items, 1)
		assert.Equal(t, "30", b.Items[0].Amount.String())
		assert.True(t, b.SplitEvenly)
		assert.Equal(t, "-15", b.ProcessedFootprint[friendID].String())
		assert.Equal(t, 2, b.LedgerVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt footprint column fails the read", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormBillRepository(gormDB)

		billID := uuid.New()
		rows := sqlmock.NewRows([]string{
			"id", "version", "owner_id", "title", "participants", "items",
			"total", "split_evenly", "processed_footprint", "ledger_version",
		}).AddRow(
			billID, 1, uuid.New(), "Dinner", `[]`, `[]`,
			decimal.NewFromInt(30), true, `{"not-a-uuid":bad}`, 2,
		)

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnRows(rows)

		// Degrading to an empty footprint would make the next ledger pass
		// diff against nothing and re-apply the full footprint, so the
		// read must fail instead.
		b, err := repo.FindByID(context.Background(), billID)

		assert.Nil(t, b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "processed_footprint")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing record to not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormBillRepository(gormDB)

		billID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		b, err := repo.FindByID(context.Background(), billID)

		assert.Nil(t, b)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_Delete(t *testing.T) {
	t.Run("deletes existing bill", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormBillRepository(gormDB)

		billID := uuid.New()
		mock.ExpectExec(`DELETE FROM "bills" WHERE id = \$1`).
			WithArgs(billID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), billID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing bill yields not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormBillRepository(gormDB)

		billID := uuid.New()
		mock.ExpectExec(`DELETE FROM "bills" WHERE id = \$1`).
			WithArgs(billID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), billID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPairwiseBalanceRepository_FindByPair(t *testing.T) {
	t.Run("queries with canonical pair order", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPairwiseBalanceRepository(gormDB)

		// force a known ordering
		userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
		userB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

		rows := sqlmock.NewRows([]string{
			"id", "user_a", "user_b", "balance_a", "balance_b", "unsettled_bill_ids",
		}).AddRow(
			uuid.New(), userA, userB,
			decimal.NewFromInt(15), decimal.NewFromInt(-15), `[]`,
		)

		// queried with (userB, userA) but matched in sorted order
		mock.ExpectQuery(`SELECT \* FROM "pairwise_balances" WHERE user_a = \$1 AND user_b = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(userA, userB, 1).
			WillReturnRows(rows)

		p, err := repo.FindByPair(context.Background(), userB, userA)

		require.NoError(t, err)
		assert.Equal(t, "15", p.BalanceFor(userA).String())
		assert.Equal(t, "-15", p.BalanceFor(userB).String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown pair yields not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPairwiseBalanceRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "pairwise_balances"`).
			WillReturnError(gorm.ErrRecordNotFound)

		p, err := repo.FindByPair(context.Background(), uuid.New(), uuid.New())

		assert.Nil(t, p)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
