package handler

import (
	"github.com/gin-gonic/gin"

	appbill "github.com/splitledger/backend/internal/application/bill"
	"github.com/splitledger/backend/internal/interfaces/http/dto"
	"github.com/splitledger/backend/internal/interfaces/http/middleware"
)

// SettlementHandler records settle-up payments
type SettlementHandler struct {
	BaseHandler
	settlements *appbill.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlements *appbill.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// RegisterRoutes registers all settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/settlements", h.Record)
}

// Record stores a payment from the calling user to the given recipient as
// a settlement bill, which nets the pair's balance through the normal
// ledger pass
func (h *SettlementHandler) Record(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	created, err := h.settlements.Record(c.Request.Context(), appbill.SettlementInput{
		From:    userID,
		To:      req.To,
		Amount:  req.Amount,
		GroupID: req.GroupID,
		Note:    req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromBill(created))
}
