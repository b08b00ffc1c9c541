package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/ledger"
)

// PairwiseBalanceModel is the persistence model for PairwiseBalance. One
// row per unordered user pair; user_a sorts before user_b.
type PairwiseBalanceModel struct {
	BaseModel
	UserA         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pair,priority:1;index"`
	UserB         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pair,priority:2;index"`
	BalanceA      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	BalanceB      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	UnsettledJSON string          `gorm:"column:unsettled_bill_ids;type:jsonb;default:'[]'"`
	LastBillID    *uuid.UUID      `gorm:"type:uuid"`
	LastUpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PairwiseBalanceModel) TableName() string {
	return "pairwise_balances"
}

// ToDomain converts the persistence model to a domain PairwiseBalance.
func (m *PairwiseBalanceModel) ToDomain() (*ledger.PairwiseBalance, error) {
	p := &ledger.PairwiseBalance{
		BaseEntity:       m.BaseModel.ToDomain(),
		UserA:            m.UserA,
		UserB:            m.UserB,
		BalanceA:         m.BalanceA,
		BalanceB:         m.BalanceB,
		UnsettledBillIDs: make(map[uuid.UUID]bool),
		LastBillID:       m.LastBillID,
		LastUpdatedAt:    m.LastUpdatedAt,
	}
	if m.UnsettledJSON != "" && m.UnsettledJSON != "[]" {
		var unsettled []uuid.UUID
		if err := unmarshalColumn(m.ID, "unsettled_bill_ids", m.UnsettledJSON, &unsettled); err != nil {
			return nil, err
		}
		for _, billID := range unsettled {
			p.UnsettledBillIDs[billID] = true
		}
	}
	return p, nil
}

// FromDomain populates the persistence model from a domain PairwiseBalance.
func (m *PairwiseBalanceModel) FromDomain(p *ledger.PairwiseBalance) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.UserA = p.UserA
	m.UserB = p.UserB
	m.BalanceA = p.BalanceA
	m.BalanceB = p.BalanceB
	m.LastBillID = p.LastBillID
	m.LastUpdatedAt = p.LastUpdatedAt

	unsettled := make([]uuid.UUID, 0, len(p.UnsettledBillIDs))
	for billID := range p.UnsettledBillIDs {
		unsettled = append(unsettled, billID)
	}
	m.UnsettledJSON = marshalColumn(unsettled, "[]")
}

// GroupLedgerModel is the persistence model for the per-group aggregate
// cache. One row per group, replaced wholesale on every rebuild.
type GroupLedgerModel struct {
	BaseModel
	GroupID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	NetBalancesJSON string    `gorm:"column:net_balances;type:jsonb;default:'{}'"`
	DebtsJSON       string    `gorm:"column:optimized_debts;type:jsonb;default:'[]'"`
	ProcessedJSON   string    `gorm:"column:processed_bill_ids;type:jsonb;default:'[]'"`
	RebuiltAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GroupLedgerModel) TableName() string {
	return "group_ledgers"
}

// ToDomain converts the persistence model to a domain GroupLedger.
func (m *GroupLedgerModel) ToDomain() (*ledger.GroupLedger, error) {
	g := &ledger.GroupLedger{
		BaseEntity:  m.BaseModel.ToDomain(),
		GroupID:     m.GroupID,
		NetBalances: make(map[uuid.UUID]decimal.Decimal),
		RebuiltAt:   m.RebuiltAt,
	}
	if m.NetBalancesJSON != "" && m.NetBalancesJSON != "{}" {
		if err := unmarshalColumn(m.ID, "net_balances", m.NetBalancesJSON, &g.NetBalances); err != nil {
			return nil, err
		}
	}
	if m.DebtsJSON != "" && m.DebtsJSON != "[]" {
		if err := unmarshalColumn(m.ID, "optimized_debts", m.DebtsJSON, &g.OptimizedDebts); err != nil {
			return nil, err
		}
	}
	if m.ProcessedJSON != "" && m.ProcessedJSON != "[]" {
		if err := unmarshalColumn(m.ID, "processed_bill_ids", m.ProcessedJSON, &g.ProcessedBillIDs); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// FromDomain populates the persistence model from a domain GroupLedger.
func (m *GroupLedgerModel) FromDomain(g *ledger.GroupLedger) {
	m.FromDomainBaseEntity(g.BaseEntity)
	m.GroupID = g.GroupID
	m.RebuiltAt = g.RebuiltAt
	m.NetBalancesJSON = marshalColumn(map[uuid.UUID]decimal.Decimal(g.NetBalances), "{}")
	m.DebtsJSON = marshalColumn(g.OptimizedDebts, "[]")
	m.ProcessedJSON = marshalColumn(g.ProcessedBillIDs, "[]")
}
