package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type CategoryHandler struct {
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List returns the flat active list with product counts.
func (ch *CategoryHandler) List(c *gin.Context) {
	items, err := ch.categoryService.WithStats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": items})
}

func (ch *CategoryHandler) Tree(c *gin.Context) {
	tree, err := ch.categoryService.Tree(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": tree})
}

func (ch *CategoryHandler) Roots(c *gin.Context) {
	roots, err := ch.categoryService.Roots(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": roots})
}

func (ch *CategoryHandler) GetBySlug(c *gin.Context) {
	cat, err := ch.categoryService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"category": cat})
}

func (ch *CategoryHandler) Subcategories(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := ch.categoryService.Subcategories(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": items})
}

func (ch *CategoryHandler) Breadcrumb(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	trail, err := ch.categoryService.Breadcrumb(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"breadcrumb": trail})
}

// admin

func (ch *CategoryHandler) AdminList(c *gin.Context) {
	items, err := ch.categoryService.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": items})
}

func (ch *CategoryHandler) Create(c *gin.Context) {
	var in services.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := ch.categoryService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"category": cat})
}

func (ch *CategoryHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.CategoryPatch
	if !bindJSON(c, &patch) {
		return
	}
	cat, err := ch.categoryService.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"category": cat})
}

func (ch *CategoryHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ch.categoryService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ch *CategoryHandler) Reorder(c *gin.Context) {
	var req struct {
		Items []services.ReorderItem `json:"items" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ch.categoryService.Reorder(c.Request.Context(), req.Items); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// ParentOptions lists every category the given one may be moved under.
func (ch *CategoryHandler) ParentOptions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	opts, err := ch.categoryService.ParentOptions(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": opts})
}
