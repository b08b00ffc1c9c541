package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/splitledger/backend/internal/domain/directory"
	"github.com/splitledger/backend/internal/domain/shared"
	"github.com/splitledger/backend/internal/infrastructure/persistence/models"
)

// GormLinkedUserRepository implements directory.Repository using GORM
type GormLinkedUserRepository struct {
	db *gorm.DB
}

// NewGormLinkedUserRepository creates a new GormLinkedUserRepository
func NewGormLinkedUserRepository(db *gorm.DB) *GormLinkedUserRepository {
	return &GormLinkedUserRepository{db: db}
}

// LinkedUserIDs returns the set of user IDs the owner has linked
func (r *GormLinkedUserRepository) LinkedUserIDs(ctx context.Context, ownerID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.LinkedUserModel{}).
		Where("owner_id = ?", ownerID).
		Pluck("linked_user_id", &ids).Error; err != nil {
		return nil, err
	}
	linked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}

// List returns the owner's directory links
func (r *GormLinkedUserRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*directory.LinkedUser, error) {
	var records []models.LinkedUserModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("linked_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	links := make([]*directory.LinkedUser, 0, len(records))
	for i := range records {
		links = append(links, records[i].ToDomain())
	}
	return links, nil
}

// Link upserts a directory link; re-linking an existing contact refreshes
// the alias
func (r *GormLinkedUserRepository) Link(ctx context.Context, link *directory.LinkedUser) error {
	var model models.LinkedUserModel
	model.FromDomain(link)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "linked_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"alias", "linked_at", "updated_at"}),
		}).
		Create(&model).Error
}

// Unlink removes a directory link
func (r *GormLinkedUserRepository) Unlink(ctx context.Context, ownerID, linkedUserID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&models.LinkedUserModel{}, "owner_id = ? AND linked_user_id = ?", ownerID, linkedUserID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLinkedUserRepository implements directory.Repository
var _ directory.Repository = (*GormLinkedUserRepository)(nil)
