package handler

import (
	"github.com/gin-gonic/gin"

	appdirectory "github.com/splitledger/backend/internal/application/directory"
	"github.com/splitledger/backend/internal/interfaces/http/dto"
	"github.com/splitledger/backend/internal/interfaces/http/middleware"
)

// FriendHandler manages the calling user's linked-user directory
type FriendHandler struct {
	BaseHandler
	directory *appdirectory.DirectoryService
}

// NewFriendHandler creates a new FriendHandler
func NewFriendHandler(directory *appdirectory.DirectoryService) *FriendHandler {
	return &FriendHandler{directory: directory}
}

// RegisterRoutes registers all friend routes
func (h *FriendHandler) RegisterRoutes(rg *gin.RouterGroup) {
	friends := rg.Group("/friends")
	{
		friends.GET("", h.List)
		friends.POST("", h.Link)
		friends.DELETE("/:id", h.Unlink)
	}
}

// List returns the calling user's directory links
func (h *FriendHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	links, err := h.directory.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromLinkedUsers(links))
}

// Link adds a contact; only linked contacts produce ledger effects on the
// user's bills
func (h *FriendHandler) Link(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}

	var req dto.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	link, err := h.directory.Link(c.Request.Context(), userID, req.UserID, req.Alias)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.LinkedUserResponse{
		UserID:   link.LinkedUserID,
		Alias:    link.Alias,
		LinkedAt: link.LinkedAt,
	})
}

// Unlink removes a contact
func (h *FriendHandler) Unlink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing or invalid user identity")
		return
	}
	linkedUserID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.directory.Unlink(c.Request.Context(), userID, linkedUserID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
