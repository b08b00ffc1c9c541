package bill

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/domain/shared"
)

// SettlementInput describes a direct payment from a debtor to a creditor.
type SettlementInput struct {
	From    uuid.UUID
	To      uuid.UUID
	Amount  decimal.Decimal
	GroupID *uuid.UUID
	Note    string
}

// SettlementService records settle-up payments. A settlement is stored as a
// regular bill owned by the payer with a single item assigned to the
// recipient, so it flows through the same change pipeline as any other
// bill and nets out the pairwise balance without special-case arithmetic.
type SettlementService struct {
	bills  *BillService
	logger *zap.Logger
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(bills *BillService, logger *zap.Logger) *SettlementService {
	return &SettlementService{
		bills:  bills,
		logger: logger,
	}
}

// Record persists the settlement bill and returns it. The debtor pays the
// full amount, the recipient carries the full share, so after processing
// the pair balance moves by exactly the settled amount.
func (s *SettlementService) Record(ctx context.Context, input SettlementInput) (*bill.Bill, error) {
	if input.From == uuid.Nil || input.To == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("both settlement parties are required")
	}
	if input.From == input.To {
		return nil, shared.ErrInvalidInput.WithMessage("cannot settle with yourself")
	}
	if !input.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("settlement amount must be positive")
	}

	title := input.Note
	if title == "" {
		title = "Settlement"
	}
	itemID := uuid.New().String()

	created, err := s.bills.Create(ctx, input.From, BillInput{
		Title:   title,
		GroupID: input.GroupID,
		Participants: []bill.Person{
			{ID: input.From.String()},
			{ID: input.To.String()},
		},
		Items: []bill.Item{
			{ID: itemID, Description: "Settlement", Amount: input.Amount},
		},
		Total:           input.Amount,
		ItemAssignments: map[string][]string{itemID: {input.To.String()}},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settlement recorded",
		zap.String("bill_id", created.ID.String()),
		zap.String("from", input.From.String()),
		zap.String("to", input.To.String()),
		zap.String("amount", input.Amount.String()),
	)
	return created, nil
}
