package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/shared"
	"github.com/splitledger/backend/internal/infrastructure/persistence/models"
)

// GormBillRepository implements bill.Repository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by its ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*bill.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByOwner finds all bills owned by the given user, newest first
func (r *GormBillRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*bill.Bill, error) {
	var records []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainBills(records)
}

// FindByGroup finds all bills belonging to the group
func (r *GormBillRepository) FindByGroup(ctx context.Context, groupID uuid.UUID) ([]*bill.Bill, error) {
	var records []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainBills(records)
}

// Create persists a new bill
func (r *GormBillRepository) Create(ctx context.Context, b *bill.Bill) error {
	var model models.BillModel
	model.FromDomain(b)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Save updates an existing bill
func (r *GormBillRepository) Save(ctx context.Context, b *bill.Bill) error {
	var model models.BillModel
	model.FromDomain(b)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a bill by ID
func (r *GormBillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainBills(records []models.BillModel) ([]*bill.Bill, error) {
	bills := make([]*bill.Bill, 0, len(records))
	for i := range records {
		b, err := records[i].ToDomain()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// Ensure GormBillRepository implements bill.Repository
var _ bill.Repository = (*GormBillRepository)(nil)
