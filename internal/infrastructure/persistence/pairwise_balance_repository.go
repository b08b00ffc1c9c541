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

// GormPairwiseBalanceRepository implements ledger.PairwiseBalanceRepository
// using GORM
type GormPairwiseBalanceRepository struct {
	db *gorm.DB
}

// NewGormPairwiseBalanceRepository creates a new GormPairwiseBalanceRepository
func NewGormPairwiseBalanceRepository(db *gorm.DB) *GormPairwiseBalanceRepository {
	return &GormPairwiseBalanceRepository{db: db}
}

// FindByPair finds the balance record for the unordered pair
func (r *GormPairwiseBalanceRepository) FindByPair(ctx context.Context, u1, u2 uuid.UUID) (*ledger.PairwiseBalance, error) {
	a, b := ledger.PairKey(u1, u2)
	var model models.PairwiseBalanceModel
	if err := r.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", a, b).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByUser finds every balance record the user participates in
func (r *GormPairwiseBalanceRepository) FindByUser(ctx context.Context, user uuid.UUID) ([]*ledger.PairwiseBalance, error) {
	var records []models.PairwiseBalanceModel
	if err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", user, user).
		Order("last_updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	balances := make([]*ledger.PairwiseBalance, 0, len(records))
	for i := range records {
		balance, err := records[i].ToDomain()
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// Save upserts the balance record keyed by the pair
func (r *GormPairwiseBalanceRepository) Save(ctx context.Context, balance *ledger.PairwiseBalance) error {
	var model models.PairwiseBalanceModel
	model.FromDomain(balance)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"balance_a", "balance_b", "unsettled_bill_ids",
				"last_bill_id", "last_updated_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure GormPairwiseBalanceRepository implements the repository interface
var _ ledger.PairwiseBalanceRepository = (*GormPairwiseBalanceRepository)(nil)
