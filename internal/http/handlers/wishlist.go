package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type WishlistHandler struct {
	wishlistService services.WishlistService
}

func NewWishlistHandler(wishlistService services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (wh *WishlistHandler) List(c *gin.Context) {
	lists, err := wh.wishlistService.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlists": lists})
}

func (wh *WishlistHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	wl, err := wh.wishlistService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlist": wl})
}

func (wh *WishlistHandler) GetDefault(c *gin.Context) {
	wl, err := wh.wishlistService.GetDefault(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlist": wl})
}

func (wh *WishlistHandler) Create(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required,max=100"`
		IsDefault bool   `json:"is_default"`
	}
	if !bindJSON(c, &req) {
		return
	}
	wl, err := wh.wishlistService.Create(c.Request.Context(), req.Name, req.IsDefault)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"wishlist": wl})
}

func (wh *WishlistHandler) Rename(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
	}
	if !bindJSON(c, &req) {
		return
	}
	wl, err := wh.wishlistService.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlist": wl})
}

func (wh *WishlistHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := wh.wishlistService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (wh *WishlistHandler) AddItem(c *gin.Context) {
	var in services.WishlistItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := wh.wishlistService.AddItem(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"item": item})
}

func (wh *WishlistHandler) RemoveItem(c *gin.Context) {
	id, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}
	if err := wh.wishlistService.RemoveItem(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (wh *WishlistHandler) Contains(c *gin.Context) {
	pid, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	in, err := wh.wishlistService.Contains(c.Request.Context(), pid)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"in_wishlist": in})
}

func (wh *WishlistHandler) Recent(c *gin.Context) {
	items, err := wh.wishlistService.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

func (wh *WishlistHandler) MoveToCart(c *gin.Context) {
	id, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}
	var in services.MoveToCartInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	cart, err := wh.wishlistService.MoveToCart(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": cart})
}
