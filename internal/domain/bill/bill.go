package bill

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/ledger"
	"github.com/splitledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBill = "Bill"

// Item is a single priced line on a bill.
type Item struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Bill is the aggregate root for a shared expense. It is the sole source
// record the ledger pipeline consumes; the pairwise balances and group
// ledgers are derived from it.
type Bill struct {
	shared.BaseAggregateRoot
	OwnerID      uuid.UUID
	PayerID      uuid.UUID // zero value means the owner paid
	GroupID      *uuid.UUID
	Title        string
	Participants []Person
	Items        []Item
	Tax          decimal.Decimal
	Tip          decimal.Decimal
	Total        decimal.Decimal
	// ItemAssignments maps item ID to the person IDs sharing that item.
	ItemAssignments map[string][]string
	SplitEvenly     bool
	// SettledPersonIDs marks participants whose share is already settled;
	// a settled participant contributes zero to the ledger.
	SettledPersonIDs map[string]bool
	// ForceRescan requests a pipeline pass even when no ledger-relevant
	// field changed. Cleared by the pipeline after a successful pass.
	ForceRescan bool

	// ProcessedFootprint is the footprint last durably applied to the
	// pairwise balance store. It is written only inside the same
	// transaction that applies the deltas, so it never runs ahead of the
	// balances.
	ProcessedFootprint ledger.Footprint
	// LedgerVersion counts pipeline passes. Observability only; never
	// consulted by business logic.
	LedgerVersion int
}

// NewBill creates a bill owned by ownerID.
func NewBill(ownerID uuid.UUID, title string) (*Bill, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Bill owner cannot be empty")
	}
	return &Bill{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		OwnerID:            ownerID,
		Title:              title,
		ItemAssignments:    make(map[string][]string),
		SettledPersonIDs:   make(map[string]bool),
		ProcessedFootprint: ledger.Footprint{},
	}, nil
}

// EffectivePayer returns the payer, defaulting to the owner.
func (b *Bill) EffectivePayer() uuid.UUID {
	if b.PayerID != uuid.Nil {
		return b.PayerID
	}
	return b.OwnerID
}

// IsSettled reports whether the participant's share is marked settled.
func (b *Bill) IsSettled(personID string) bool {
	return b.SettledPersonIDs[personID]
}

// IsLedgerEligible reports whether the bill is complete enough to produce
// ledger effects: an owner, at least one item and at least one participant.
// An incomplete bill is not an error; it is simply not processed yet.
func (b *Bill) IsLedgerEligible() bool {
	return b.OwnerID != uuid.Nil && len(b.Items) > 0 && len(b.Participants) > 0
}

// AdvanceLedger records a completed pipeline pass: the footprint that was
// just durably applied, a bumped ledger version and a cleared rescan flag.
// Must only be called inside the transaction that applied the deltas.
func (b *Bill) AdvanceLedger(applied ledger.Footprint) {
	b.ProcessedFootprint = applied.Strip()
	b.LedgerVersion++
	b.ForceRescan = false
}

// RequestRescan flags the bill for reprocessing on the next update event.
func (b *Bill) RequestRescan() {
	b.ForceRescan = true
}

// LedgerSnapshot captures exactly the fields whose changes warrant a
// pipeline pass. Pipeline-owned fields (ProcessedFootprint, LedgerVersion)
// are excluded by construction so the pipeline can never retrigger itself.
type LedgerSnapshot struct {
	OwnerID          uuid.UUID
	PayerID          uuid.UUID
	SplitEvenly      bool
	ForceRescan      bool
	Tax              string
	Tip              string
	Total            string
	Participants     []string
	SettledPersonIDs []string
	Items            []ItemSnapshot
	Assignments      map[string][]string
}

// ItemSnapshot is the comparable form of an item.
type ItemSnapshot struct {
	ID     string
	Amount string
}

// Snapshot captures the ledger-relevant fields in canonical (sorted) form.
func (b *Bill) Snapshot() LedgerSnapshot {
	s := LedgerSnapshot{
		OwnerID:     b.OwnerID,
		PayerID:     b.EffectivePayer(),
		SplitEvenly: b.SplitEvenly,
		ForceRescan: b.ForceRescan,
		Tax:         b.Tax.String(),
		Tip:         b.Tip.String(),
		Total:       b.Total.String(),
	}
	for _, p := range b.Participants {
		s.Participants = append(s.Participants, p.ID)
	}
	sort.Strings(s.Participants)
	for id := range b.SettledPersonIDs {
		if b.SettledPersonIDs[id] {
			s.SettledPersonIDs = append(s.SettledPersonIDs, id)
		}
	}
	sort.Strings(s.SettledPersonIDs)
	for _, it := range b.Items {
		s.Items = append(s.Items, ItemSnapshot{ID: it.ID, Amount: it.Amount.String()})
	}
	sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].ID < s.Items[j].ID })
	if len(b.ItemAssignments) > 0 {
		s.Assignments = make(map[string][]string, len(b.ItemAssignments))
		for itemID, persons := range b.ItemAssignments {
			sorted := append([]string(nil), persons...)
			sort.Strings(sorted)
			s.Assignments[itemID] = sorted
		}
	}
	return s
}

// Equal compares two snapshots field by field. This is the typed diff the
// reprocessing guard runs; it deliberately never falls back to a generic
// deep-equality over the whole bill record.
func (s LedgerSnapshot) Equal(other LedgerSnapshot) bool {
	if s.OwnerID != other.OwnerID ||
		s.PayerID != other.PayerID ||
		s.SplitEvenly != other.SplitEvenly ||
		s.ForceRescan != other.ForceRescan ||
		s.Tax != other.Tax ||
		s.Tip != other.Tip ||
		s.Total != other.Total {
		return false
	}
	if !stringSlicesEqual(s.Participants, other.Participants) {
		return false
	}
	if !stringSlicesEqual(s.SettledPersonIDs, other.SettledPersonIDs) {
		return false
	}
	if len(s.Items) != len(other.Items) {
		return false
	}
	for i := range s.Items {
		if s.Items[i] != other.Items[i] {
			return false
		}
	}
	if len(s.Assignments) != len(other.Assignments) {
		return false
	}
	for itemID, persons := range s.Assignments {
		if !stringSlicesEqual(persons, other.Assignments[itemID]) {
			return false
		}
	}
	return true
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
