// Package directory hosts the application service for contact links.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/directory"
)

// DirectoryService manages the linked-user directory that scopes which bill
// participants produce ledger effects.
type DirectoryService struct {
	links  directory.Repository
	logger *zap.Logger
}

// NewDirectoryService creates a DirectoryService.
func NewDirectoryService(links directory.Repository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		links:  links,
		logger: logger,
	}
}

// Link adds a contact link from owner to user.
func (s *DirectoryService) Link(ctx context.Context, ownerID, linkedUserID uuid.UUID, alias string) (*directory.LinkedUser, error) {
	link, err := directory.NewLinkedUser(ownerID, linkedUserID, alias)
	if err != nil {
		return nil, err
	}
	if err := s.links.Link(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to link user: %w", err)
	}
	s.logger.Info("user linked",
		zap.String("owner_id", ownerID.String()),
		zap.String("linked_user_id", linkedUserID.String()),
	)
	return link, nil
}

// Unlink removes the contact link. Existing balances are untouched; the
// user simply stops producing new ledger effects on future bill passes.
func (s *DirectoryService) Unlink(ctx context.Context, ownerID, linkedUserID uuid.UUID) error {
	return s.links.Unlink(ctx, ownerID, linkedUserID)
}

// List returns the owner's contact links.
func (s *DirectoryService) List(ctx context.Context, ownerID uuid.UUID) ([]*directory.LinkedUser, error) {
	return s.links.List(ctx, ownerID)
}
