package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/splitledger/backend/internal/domain/ledger"
	"github.com/splitledger/backend/internal/domain/shared"
	"github.com/splitledger/backend/internal/infrastructure/persistence/models"
)

// GormGroupLedgerRepository implements ledger.GroupLedgerRepository using
// GORM. Writes are full-document replacements: the rebuild that finishes
// last wins, which is safe because every rebuild derives from the full
// bill set.
type GormGroupLedgerRepository struct {
	db *gorm.DB
}

// NewGormGroupLedgerRepository creates a new GormGroupLedgerRepository
func NewGormGroupLedgerRepository(db *gorm.DB) *GormGroupLedgerRepository {
	return &GormGroupLedgerRepository{db: db}
}

// FindByGroupID finds the cached ledger for the group
func (r *GormGroupLedgerRepository) FindByGroupID(ctx context.Context, groupID uuid.UUID) (*ledger.GroupLedger, error) {
	var model models.GroupLedgerModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Replace upserts the whole ledger document keyed by group ID
func (r *GormGroupLedgerRepository) Replace(ctx context.Context, groupLedger *ledger.GroupLedger) error {
	var model models.GroupLedgerModel
	model.FromDomain(groupLedger)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"net_balances", "optimized_debts", "processed_bill_ids",
				"rebuilt_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure GormGroupLedgerRepository implements the repository interface
var _ ledger.GroupLedgerRepository = (*GormGroupLedgerRepository)(nil)
