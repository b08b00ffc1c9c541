package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appledger "github.com/splitledger/backend/internal/application/ledger"
	"github.com/splitledger/backend/internal/interfaces/http/dto"
)

// BalanceHandler exposes the pairwise balance read surface
type BalanceHandler struct {
	BaseHandler
	balances *appledger.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances *appledger.BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// RegisterRoutes registers all balance routes
func (h *BalanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	balances := rg.Group("/balances")
	{
		balances.GET("", h.List)
		balances.GET("/:id", h.GetPair)
	}
}

// List returns every pairwise balance the calling user participates in,
// from their perspective
func (h *BalanceHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	records, err := h.balances.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.PairwiseBalanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.FromPairwiseBalance(record, userID))
	}
	h.Success(c, responses)
}

// GetPair returns the balance between the calling user and the user in the
// path. A pair with no history yields a zero balance.
func (h *BalanceHandler) GetPair(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}
	otherID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}
	if otherID == userID || otherID == uuid.Nil {
		h.BadRequest(c, "Counterparty must be a different user")
		return
	}

	record, err := h.balances.GetPair(c.Request.Context(), userID, otherID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPairwiseBalance(record, userID))
}
