package handler

import (
	"github.com/gin-gonic/gin"

	appbill "github.com/splitledger/backend/internal/application/bill"
	appledger "github.com/splitledger/backend/internal/application/ledger"
	"github.com/splitledger/backend/internal/interfaces/http/dto"
)

// GroupHandler exposes the per-group aggregate ledger
type GroupHandler struct {
	BaseHandler
	balances *appledger.BalanceService
	bills    *appbill.BillService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(balances *appledger.BalanceService, bills *appbill.BillService) *GroupHandler {
	return &GroupHandler{balances: balances, bills: bills}
}

// RegisterRoutes registers all group routes
func (h *GroupHandler) RegisterRoutes(rg *gin.RouterGroup) {
	groups := rg.Group("/groups")
	{
		groups.GET("/:id/ledger", h.GetLedger)
		groups.POST("/:id/ledger/rebuild", h.RebuildLedger)
		groups.GET("/:id/bills", h.ListBills)
	}
}

// GetLedger returns the group's net balances and settle-up plan. The cache
// is rebuilt on a miss.
func (h *GroupHandler) GetLedger(c *gin.Context) {
	groupID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}

	groupLedger, err := h.balances.GetGroupLedger(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromGroupLedger(groupLedger))
}

// RebuildLedger forces a full recompute of the group's ledger cache
func (h *GroupHandler) RebuildLedger(c *gin.Context) {
	groupID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}

	groupLedger, err := h.balances.RebuildGroupLedger(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromGroupLedger(groupLedger))
}

// ListBills returns every bill in the group
func (h *GroupHandler) ListBills(c *gin.Context) {
	groupID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}

	bills, err := h.bills.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBills(bills))
}
