package bill

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides access to bill records.
type Repository interface {
	// FindByID returns the bill or shared.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// FindByOwner returns the owner's bills, newest first.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Bill, error)
	// FindByGroup returns every bill belonging to the group.
	FindByGroup(ctx context.Context, groupID uuid.UUID) ([]*Bill, error)
	// Create persists a new bill.
	Create(ctx context.Context, b *Bill) error
	// Save updates an existing bill.
	Save(ctx context.Context, b *Bill) error
	// Delete removes the bill record.
	Delete(ctx context.Context, id uuid.UUID) error
}
