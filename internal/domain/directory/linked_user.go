// Package directory exposes the contact-directory seam the ledger core
// consumes. The core never manages friend lists; it only needs the resolved
// set of user IDs linked to a bill owner, so participants outside that set
// can be excluded from ledger effects.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/backend/internal/domain/shared"
)

// LinkedUser records that owner has linked the other user as a contact.
type LinkedUser struct {
	shared.BaseEntity
	OwnerID      uuid.UUID
	LinkedUserID uuid.UUID
	Alias        string
	LinkedAt     time.Time
}

// NewLinkedUser creates a directory link from owner to user.
func NewLinkedUser(ownerID, linkedUserID uuid.UUID, alias string) (*LinkedUser, error) {
	if ownerID == uuid.Nil || linkedUserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINK", "Both owner and linked user must be set")
	}
	if ownerID == linkedUserID {
		return nil, shared.NewDomainError("INVALID_LINK", "Cannot link a user to themselves")
	}
	return &LinkedUser{
		BaseEntity:   shared.NewBaseEntity(),
		OwnerID:      ownerID,
		LinkedUserID: linkedUserID,
		Alias:        alias,
		LinkedAt:     time.Now(),
	}, nil
}

// LinkedUserProvider supplies the resolved linked-user set for an owner.
// This is the only directory capability the ledger pipeline depends on.
type LinkedUserProvider interface {
	// LinkedUserIDs returns the set of user IDs the owner has linked.
	LinkedUserIDs(ctx context.Context, ownerID uuid.UUID) (map[uuid.UUID]bool, error)
}

// Repository manages directory links. It extends the provider seam with the
// mutations the HTTP surface needs to be runnable end to end.
type Repository interface {
	LinkedUserProvider
	List(ctx context.Context, ownerID uuid.UUID) ([]*LinkedUser, error)
	Link(ctx context.Context, link *LinkedUser) error
	Unlink(ctx context.Context, ownerID, linkedUserID uuid.UUID) error
}
