package bill

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/shared"
)

// BillInput carries the writable bill fields supplied by the authoring
// surface (UI, receipt import, settlement recording).
type BillInput struct {
	Title            string
	PayerID          *uuid.UUID
	GroupID          *uuid.UUID
	Participants     []bill.Person
	Items            []bill.Item
	Tax              decimal.Decimal
	Tip              decimal.Decimal
	Total            decimal.Decimal
	ItemAssignments  map[string][]string
	SplitEvenly      bool
	SettledPersonIDs []string
}

// BillService owns the bill lifecycle and publishes the change events the
// ledger pipeline consumes. It never touches balances itself.
type BillService struct {
	bills     bill.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewBillService creates a BillService.
func NewBillService(bills bill.Repository, publisher shared.EventPublisher, logger *zap.Logger) *BillService {
	return &BillService{
		bills:     bills,
		publisher: publisher,
		logger:    logger,
	}
}

// Create persists a new bill and publishes BillCreated.
func (s *BillService) Create(ctx context.Context, ownerID uuid.UUID, input BillInput) (*bill.Bill, error) {
	b, err := bill.NewBill(ownerID, input.Title)
	if err != nil {
		return nil, err
	}
	applyInput(b, input)

	if err := s.bills.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	s.publish(ctx, bill.NewBillCreatedEvent(b))

	s.logger.Info("bill created",
		zap.String("bill_id", b.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("items", len(b.Items)),
		zap.Int("participants", len(b.Participants)),
	)
	return b, nil
}

// Update applies the input to an existing bill and publishes BillUpdated
// with before/after snapshots of the ledger-relevant fields.
func (s *BillService) Update(ctx context.Context, ownerID, billID uuid.UUID, input BillInput) (*bill.Bill, error) {
	b, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID && !isParticipant(b, ownerID) {
		return nil, shared.ErrForbidden
	}

	before := b.Snapshot()
	previousGroupID := b.GroupID
	applyInput(b, input)
	b.IncrementVersion()

	if err := s.bills.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}
	s.publish(ctx, bill.NewBillUpdatedEvent(b, before, previousGroupID))
	return b, nil
}

// Delete removes the bill and publishes BillDeleted carrying the stored
// footprint, which is read before the record is removed because the
// removal is irreversible.
func (s *BillService) Delete(ctx context.Context, ownerID, billID uuid.UUID) error {
	b, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return err
	}
	if b.OwnerID != ownerID {
		return shared.ErrForbidden
	}

	event := bill.NewBillDeletedEvent(b)
	if err := s.bills.Delete(ctx, billID); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	s.publish(ctx, event)

	s.logger.Info("bill deleted",
		zap.String("bill_id", billID.String()),
		zap.Int("footprint_entries", len(event.Footprint)),
	)
	return nil
}

// Rescan flags the bill for a forced pipeline pass and publishes an update
// event. The flag is part of the guard's field set, so the pass runs even
// when nothing else changed.
func (s *BillService) Rescan(ctx context.Context, ownerID, billID uuid.UUID) error {
	b, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return err
	}
	if b.OwnerID != ownerID {
		return shared.ErrForbidden
	}

	before := b.Snapshot()
	b.RequestRescan()
	if err := s.bills.Save(ctx, b); err != nil {
		return fmt.Errorf("failed to flag bill for rescan: %w", err)
	}
	s.publish(ctx, bill.NewBillUpdatedEvent(b, before, b.GroupID))
	return nil
}

// Get returns a single bill.
func (s *BillService) Get(ctx context.Context, billID uuid.UUID) (*bill.Bill, error) {
	return s.bills.FindByID(ctx, billID)
}

// ListByOwner returns the owner's bills.
func (s *BillService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*bill.Bill, error) {
	return s.bills.FindByOwner(ctx, ownerID)
}

// ListByGroup returns the group's bills.
func (s *BillService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*bill.Bill, error) {
	return s.bills.FindByGroup(ctx, groupID)
}

func (s *BillService) publish(ctx context.Context, event shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish bill event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}

func applyInput(b *bill.Bill, input BillInput) {
	if input.Title != "" {
		b.Title = input.Title
	}
	// nil means "leave unchanged"; the zero UUID clears the association.
	if input.PayerID != nil {
		b.PayerID = *input.PayerID
	}
	if input.GroupID != nil {
		if *input.GroupID == uuid.Nil {
			b.GroupID = nil
		} else {
			b.GroupID = input.GroupID
		}
	}
	b.Participants = input.Participants
	b.Items = input.Items
	b.Tax = input.Tax
	b.Tip = input.Tip
	b.Total = input.Total
	b.SplitEvenly = input.SplitEvenly
	if input.ItemAssignments != nil {
		b.ItemAssignments = input.ItemAssignments
	} else {
		b.ItemAssignments = make(map[string][]string)
	}
	b.SettledPersonIDs = make(map[string]bool, len(input.SettledPersonIDs))
	for _, personID := range input.SettledPersonIDs {
		b.SettledPersonIDs[personID] = true
	}
}

func isParticipant(b *bill.Bill, userID uuid.UUID) bool {
	for _, person := range b.Participants {
		if resolved, ok := bill.ResolveUserID(person.ID); ok && resolved == userID {
			return true
		}
	}
	return false
}
