package handler

import (
	"github.com/gin-gonic/gin"

	appbill "github.com/splitledger/backend/internal/application/bill"
	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/interfaces/http/dto"
	"github.com/splitledger/backend/internal/interfaces/http/middleware"
)

// BillHandler handles bill CRUD and rescan endpoints
type BillHandler struct {
	BaseHandler
	bills *appbill.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(bills *appbill.BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

// RegisterRoutes registers all bill routes
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.POST("", h.Create)
		bills.GET("", h.List)
		bills.GET("/:id", h.Get)
		bills.PUT("/:id", h.Update)
		bills.DELETE("/:id", h.Delete)
		bills.POST("/:id/rescan", h.Rescan)
	}
}

// Create creates a new bill and triggers the first ledger pass
func (h *BillHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req dto.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	created, err := h.bills.Create(c.Request.Context(), userID, toBillInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromBill(created))
}

// List returns the calling user's bills
func (h *BillHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	bills, err := h.bills.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBills(bills))
}

// Get returns a single bill
func (h *BillHandler) Get(c *gin.Context) {
	billID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	b, err := h.bills.Get(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBill(b))
}

// Update replaces the bill's content and triggers a ledger pass when a
// ledger-relevant field changed
func (h *BillHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}
	billID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var req dto.BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	updated, err := h.bills.Update(c.Request.Context(), userID, billID, toBillInput(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBill(updated))
}

// Delete removes the bill and reverses its ledger footprint
func (h *BillHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}
	billID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	if err := h.bills.Delete(c.Request.Context(), userID, billID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Rescan forces a ledger pass for the bill even when nothing changed
func (h *BillHandler) Rescan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}
	billID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	if err := h.bills.Rescan(c.Request.Context(), userID, billID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func toBillInput(req dto.BillRequest) appbill.BillInput {
	input := appbill.BillInput{
		Title:            req.Title,
		PayerID:          req.PayerID,
		GroupID:          req.GroupID,
		Tax:              req.Tax,
		Tip:              req.Tip,
		Total:            req.Total,
		ItemAssignments:  req.ItemAssignments,
		SplitEvenly:      req.SplitEvenly,
		SettledPersonIDs: req.SettledPersonIDs,
	}
	for _, p := range req.Participants {
		input.Participants = append(input.Participants, bill.Person{ID: p.ID, Name: p.Name})
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, bill.Item{ID: it.ID, Description: it.Description, Amount: it.Amount})
	}
	return input
}
