package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/middleware"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// cartOwner prefers the signed-in user and falls back to the guest session
// header.
func cartOwner(c *gin.Context) services.CartOwner {
	owner := services.CartOwner{SessionID: strings.TrimSpace(c.GetHeader(middleware.HeaderSessionID))}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		id := rd.UserID
		owner.UserID = &id
	}
	return owner
}

func (ch *CartHandler) Get(c *gin.Context) {
	owner := cartOwner(c)
	cart, err := ch.cartService.Get(c.Request.Context(), owner)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	summary, err := ch.cartService.Summary(c.Request.Context(), owner)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart, "summary": summary})
}

func (ch *CartHandler) Summary(c *gin.Context) {
	summary, err := ch.cartService.Summary(c.Request.Context(), cartOwner(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

func (ch *CartHandler) AddItem(c *gin.Context) {
	var in services.AddItemInput
	if !bindJSON(c, &in) {
		return
	}
	cart, err := ch.cartService.AddItem(c.Request.Context(), cartOwner(c), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}

func (ch *CartHandler) UpdateItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cart, err := ch.cartService.UpdateItem(c.Request.Context(), cartOwner(c), id, req.Quantity)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}

func (ch *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cart, err := ch.cartService.RemoveItem(c.Request.Context(), cartOwner(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}

func (ch *CartHandler) BulkUpdate(c *gin.Context) {
	var req struct {
		Items []services.ItemQuantity `json:"items" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cart, err := ch.cartService.BulkUpdate(c.Request.Context(), cartOwner(c), req.Items)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}

func (ch *CartHandler) BulkRemove(c *gin.Context) {
	var req struct {
		ItemIDs []uuid.UUID `json:"item_ids" binding:"required,min=1"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cart, err := ch.cartService.BulkRemove(c.Request.Context(), cartOwner(c), req.ItemIDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}

func (ch *CartHandler) Clear(c *gin.Context) {
	if err := ch.cartService.Clear(c.Request.Context(), cartOwner(c)); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
