package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/ledger"
)

// BillModel is the persistence model for the Bill aggregate root. The
// nested collections (participants, items, assignments, footprint) are
// stored as JSON columns; the footprint column is written only inside the
// ledger transaction scope.
type BillModel struct {
	AggregateModel
	OwnerID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayerID          uuid.UUID       `gorm:"type:uuid"`
	GroupID          *uuid.UUID      `gorm:"type:uuid;index"`
	Title            string          `gorm:"type:varchar(200);not null"`
	ParticipantsJSON string          `gorm:"column:participants;type:jsonb;default:'[]'"`
	ItemsJSON        string          `gorm:"column:items;type:jsonb;default:'[]'"`
	Tax              decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	Tip              decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	AssignmentsJSON  string          `gorm:"column:item_assignments;type:jsonb;default:'{}'"`
	SplitEvenly      bool            `gorm:"not null;default:false"`
	SettledJSON      string          `gorm:"column:settled_person_ids;type:jsonb;default:'[]'"`
	ForceRescan      bool            `gorm:"not null;default:false"`
	FootprintJSON    string          `gorm:"column:processed_footprint;type:jsonb;default:'{}'"`
	LedgerVersion    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill aggregate. A
// JSON column that fails to parse is an error, not an empty collection:
// the ledger pipeline diffs against the stored footprint, so a degraded
// read would re-apply deltas that were already applied.
func (m *BillModel) ToDomain() (*bill.Bill, error) {
	b := &bill.Bill{
		OwnerID:            m.OwnerID,
		PayerID:            m.PayerID,
		GroupID:            m.GroupID,
		Title:              m.Title,
		Tax:                m.Tax,
		Tip:                m.Tip,
		Total:              m.Total,
		SplitEvenly:        m.SplitEvenly,
		ForceRescan:        m.ForceRescan,
		ItemAssignments:    make(map[string][]string),
		SettledPersonIDs:   make(map[string]bool),
		ProcessedFootprint: ledger.Footprint{},
		LedgerVersion:      m.LedgerVersion,
	}
	b.BaseEntity = m.BaseModel.ToDomain()
	b.Version = m.Version

	if err := unmarshalColumn(m.ID, "participants", m.ParticipantsJSON, &b.Participants); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(m.ID, "items", m.ItemsJSON, &b.Items); err != nil {
		return nil, err
	}

	if m.AssignmentsJSON != "" && m.AssignmentsJSON != "{}" {
		if err := unmarshalColumn(m.ID, "item_assignments", m.AssignmentsJSON, &b.ItemAssignments); err != nil {
			return nil, err
		}
	}
	if m.SettledJSON != "" && m.SettledJSON != "[]" {
		var settled []string
		if err := unmarshalColumn(m.ID, "settled_person_ids", m.SettledJSON, &settled); err != nil {
			return nil, err
		}
		for _, personID := range settled {
			b.SettledPersonIDs[personID] = true
		}
	}
	if m.FootprintJSON != "" && m.FootprintJSON != "{}" {
		var footprint map[uuid.UUID]decimal.Decimal
		if err := unmarshalColumn(m.ID, "processed_footprint", m.FootprintJSON, &footprint); err != nil {
			return nil, err
		}
		if footprint != nil {
			b.ProcessedFootprint = footprint
		}
	}

	return b, nil
}

// FromDomain populates the persistence model from a domain Bill aggregate.
func (m *BillModel) FromDomain(b *bill.Bill) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.OwnerID = b.OwnerID
	m.PayerID = b.PayerID
	m.GroupID = b.GroupID
	m.Title = b.Title
	m.Tax = b.Tax
	m.Tip = b.Tip
	m.Total = b.Total
	m.SplitEvenly = b.SplitEvenly
	m.ForceRescan = b.ForceRescan
	m.LedgerVersion = b.LedgerVersion

	m.ParticipantsJSON = marshalColumn(b.Participants, "[]")
	m.ItemsJSON = marshalColumn(b.Items, "[]")
	m.AssignmentsJSON = marshalColumn(b.ItemAssignments, "{}")

	settled := make([]string, 0, len(b.SettledPersonIDs))
	for personID, isSettled := range b.SettledPersonIDs {
		if isSettled {
			settled = append(settled, personID)
		}
	}
	m.SettledJSON = marshalColumn(settled, "[]")
	m.FootprintJSON = marshalColumn(map[uuid.UUID]decimal.Decimal(b.ProcessedFootprint), "{}")
}

func unmarshalColumn(id uuid.UUID, column, raw string, target any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("parse %s column of record %s: %w", column, id, err)
	}
	return nil
}

func marshalColumn(value any, fallback string) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fallback
	}
	return string(raw)
}
