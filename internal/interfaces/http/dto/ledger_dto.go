package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/directory"
	"github.com/splitledger/backend/internal/domain/ledger"
)

// PersonDTO is a bill participant on the wire. The ID is a user UUID, a
// "local:<uuid>" composite, or an opaque guest label.
type PersonDTO struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
}

// ItemDTO is a single priced line on a bill
type ItemDTO struct {
	ID          string          `json:"id" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// BillRequest is the write payload for creating or updating a bill. On
// update, omitting group_id keeps the current group and the zero UUID
// clears it.
type BillRequest struct {
	Title            string              `json:"title" binding:"required,max=200"`
	PayerID          *uuid.UUID          `json:"payer_id"`
	GroupID          *uuid.UUID          `json:"group_id"`
	Participants     []PersonDTO         `json:"participants"`
	Items            []ItemDTO           `json:"items"`
	Tax              decimal.Decimal     `json:"tax"`
	Tip              decimal.Decimal     `json:"tip"`
	Total            decimal.Decimal     `json:"total"`
	ItemAssignments  map[string][]string `json:"item_assignments"`
	SplitEvenly      bool                `json:"split_evenly"`
	SettledPersonIDs []string            `json:"settled_person_ids"`
}

// BillResponse is the read payload for a bill, including the pipeline's
// bookkeeping fields
type BillResponse struct {
	ID               uuid.UUID           `json:"id"`
	OwnerID          uuid.UUID           `json:"owner_id"`
	PayerID          uuid.UUID           `json:"payer_id"`
	GroupID          *uuid.UUID          `json:"group_id,omitempty"`
	Title            string              `json:"title"`
	Participants     []PersonDTO         `json:"participants"`
	Items            []ItemDTO           `json:"items"`
	Tax              string              `json:"tax"`
	Tip              string              `json:"tip"`
	Total            string              `json:"total"`
	ItemAssignments  map[string][]string `json:"item_assignments,omitempty"`
	SplitEvenly      bool                `json:"split_evenly"`
	SettledPersonIDs []string            `json:"settled_person_ids,omitempty"`
	ForceRescan      bool                `json:"force_rescan"`
	Footprint        map[string]string   `json:"processed_footprint,omitempty"`
	LedgerVersion    int                 `json:"ledger_version"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// FromBill converts a domain bill to its response form
func FromBill(b *bill.Bill) BillResponse {
	resp := BillResponse{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		PayerID:         b.EffectivePayer(),
		GroupID:         b.GroupID,
		Title:           b.Title,
		Tax:             b.Tax.String(),
		Tip:             b.Tip.String(),
		Total:           b.Total.String(),
		ItemAssignments: b.ItemAssignments,
		SplitEvenly:     b.SplitEvenly,
		ForceRescan:     b.ForceRescan,
		LedgerVersion:   b.LedgerVersion,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	for _, p := range b.Participants {
		resp.Participants = append(resp.Participants, PersonDTO{ID: p.ID, Name: p.Name})
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, ItemDTO{ID: it.ID, Description: it.Description, Amount: it.Amount})
	}
	for personID, settled := range b.SettledPersonIDs {
		if settled {
			resp.SettledPersonIDs = append(resp.SettledPersonIDs, personID)
		}
	}
	if len(b.ProcessedFootprint) > 0 {
		resp.Footprint = make(map[string]string, len(b.ProcessedFootprint))
		for counterparty, amount := range b.ProcessedFootprint {
			resp.Footprint[counterparty.String()] = amount.String()
		}
	}
	return resp
}

// FromBills converts a slice of domain bills
func FromBills(bills []*bill.Bill) []BillResponse {
	responses := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		responses = append(responses, FromBill(b))
	}
	return responses
}

// SettlementRequest records a direct payment from the requesting user
type SettlementRequest struct {
	To      uuid.UUID       `json:"to" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	GroupID *uuid.UUID      `json:"group_id"`
	Note    string          `json:"note" binding:"max=200"`
}

// PairwiseBalanceResponse is one balance record from the requesting user's
// perspective: positive balance means the counterparty owes them
type PairwiseBalanceResponse struct {
	CounterpartyID   uuid.UUID   `json:"counterparty_id"`
	Balance          string      `json:"balance"`
	UnsettledBillIDs []uuid.UUID `json:"unsettled_bill_ids,omitempty"`
	LastBillID       *uuid.UUID  `json:"last_bill_id,omitempty"`
	LastUpdatedAt    time.Time   `json:"last_updated_at"`
}

// FromPairwiseBalance converts a balance record to the given user's view
func FromPairwiseBalance(p *ledger.PairwiseBalance, viewer uuid.UUID) PairwiseBalanceResponse {
	resp := PairwiseBalanceResponse{
		CounterpartyID: p.Counterparty(viewer),
		Balance:        p.BalanceFor(viewer).String(),
		LastBillID:     p.LastBillID,
		LastUpdatedAt:  p.LastUpdatedAt,
	}
	for billID := range p.UnsettledBillIDs {
		resp.UnsettledBillIDs = append(resp.UnsettledBillIDs, billID)
	}
	return resp
}

// DebtDTO is one settle-up instruction
type DebtDTO struct {
	From   uuid.UUID `json:"from"`
	To     uuid.UUID `json:"to"`
	Amount string    `json:"amount"`
}

// GroupLedgerResponse is the read payload for a group's aggregate ledger
type GroupLedgerResponse struct {
	GroupID          uuid.UUID         `json:"group_id"`
	NetBalances      map[string]string `json:"net_balances"`
	OptimizedDebts   []DebtDTO         `json:"optimized_debts"`
	ProcessedBillIDs []uuid.UUID       `json:"processed_bill_ids,omitempty"`
	RebuiltAt        time.Time         `json:"rebuilt_at"`
}

// FromGroupLedger converts a domain group ledger to its response form
func FromGroupLedger(g *ledger.GroupLedger) GroupLedgerResponse {
	resp := GroupLedgerResponse{
		GroupID:          g.GroupID,
		NetBalances:      make(map[string]string, len(g.NetBalances)),
		OptimizedDebts:   make([]DebtDTO, 0, len(g.OptimizedDebts)),
		ProcessedBillIDs: g.ProcessedBillIDs,
		RebuiltAt:        g.RebuiltAt,
	}
	for user, balance := range g.NetBalances {
		resp.NetBalances[user.String()] = balance.String()
	}
	for _, d := range g.OptimizedDebts {
		resp.OptimizedDebts = append(resp.OptimizedDebts, DebtDTO{
			From:   d.From,
			To:     d.To,
			Amount: d.Amount.String(),
		})
	}
	return resp
}

// LinkRequest adds a contact to the requesting user's directory
type LinkRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Alias  string    `json:"alias" binding:"max=100"`
}

// LinkedUserResponse is one directory link
type LinkedUserResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Alias    string    `json:"alias,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

// FromLinkedUsers converts directory links to their response form
func FromLinkedUsers(links []*directory.LinkedUser) []LinkedUserResponse {
	responses := make([]LinkedUserResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, LinkedUserResponse{
			UserID:   link.LinkedUserID,
			Alias:    link.Alias,
			LinkedAt: link.LinkedAt,
		})
	}
	return responses
}
