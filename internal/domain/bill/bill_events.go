package bill

import (
	"github.com/google/uuid"

	"github.com/splitledger/backend/internal/domain/ledger"
	"github.com/splitledger/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeBillCreated = "BillCreated"
	EventTypeBillUpdated = "BillUpdated"
	EventTypeBillDeleted = "BillDeleted"
)

// BillCreatedEvent is raised when a new bill is persisted.
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillID  uuid.UUID  `json:"bill_id"`
	OwnerID uuid.UUID  `json:"owner_id"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
}

// NewBillCreatedEvent creates a new BillCreatedEvent
func NewBillCreatedEvent(b *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCreated, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		OwnerID:         b.OwnerID,
		GroupID:         b.GroupID,
	}
}

// EventType returns the event type name
func (e *BillCreatedEvent) EventType() string {
	return EventTypeBillCreated
}

// BillUpdatedEvent is raised when a bill changes. It carries snapshots of
// the ledger-relevant fields taken before and after the write so the
// pipeline's reprocessing guard can run a typed diff without re-reading
// history.
type BillUpdatedEvent struct {
	shared.BaseDomainEvent
	BillID  uuid.UUID  `json:"bill_id"`
	OwnerID uuid.UUID  `json:"owner_id"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
	// PreviousGroupID is the group before the write. It is not part of the
	// reprocessing guard; it exists so a group move can refresh the old
	// group's cache.
	PreviousGroupID *uuid.UUID     `json:"previous_group_id,omitempty"`
	Before          LedgerSnapshot `json:"before"`
	After           LedgerSnapshot `json:"after"`
}

// NewBillUpdatedEvent creates a new BillUpdatedEvent
func NewBillUpdatedEvent(b *Bill, before LedgerSnapshot, previousGroupID *uuid.UUID) *BillUpdatedEvent {
	return &BillUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillUpdated, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		OwnerID:         b.OwnerID,
		GroupID:         b.GroupID,
		PreviousGroupID: previousGroupID,
		Before:          before,
		After:           b.Snapshot(),
	}
}

// EventType returns the event type name
func (e *BillUpdatedEvent) EventType() string {
	return EventTypeBillUpdated
}

// BillDeletedEvent is raised after a bill is removed. The stored footprint
// must travel with the event: the bill record is gone and the footprint is
// the only data left to reverse.
type BillDeletedEvent struct {
	shared.BaseDomainEvent
	BillID    uuid.UUID        `json:"bill_id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	GroupID   *uuid.UUID       `json:"group_id,omitempty"`
	Footprint ledger.Footprint `json:"footprint"`
}

// NewBillDeletedEvent creates a new BillDeletedEvent
func NewBillDeletedEvent(b *Bill) *BillDeletedEvent {
	return &BillDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillDeleted, AggregateTypeBill, b.ID),
		BillID:          b.ID,
		OwnerID:         b.OwnerID,
		GroupID:         b.GroupID,
		Footprint:       b.ProcessedFootprint,
	}
}

// EventType returns the event type name
func (e *BillDeletedEvent) EventType() string {
	return EventTypeBillDeleted
}
