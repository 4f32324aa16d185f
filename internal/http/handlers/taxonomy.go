package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type TaxonomyHandler struct {
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

func (th *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := th.taxonomyService.ListTags(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

func (th *TaxonomyHandler) CreateTag(c *gin.Context) {
	var in services.TagInput
	if !bindJSON(c, &in) {
		return
	}
	tag, err := th.taxonomyService.CreateTag(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tag": tag})
}

func (th *TaxonomyHandler) UpdateTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.TagPatch
	if !bindJSON(c, &patch) {
		return
	}
	tag, err := th.taxonomyService.UpdateTag(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tag": tag})
}

func (th *TaxonomyHandler) DeleteTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := th.taxonomyService.DeleteTag(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (th *TaxonomyHandler) ListAllergens(c *gin.Context) {
	items, err := th.taxonomyService.ListAllergens(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"allergens": items})
}

func (th *TaxonomyHandler) CreateAllergen(c *gin.Context) {
	var in services.AllergenInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := th.taxonomyService.CreateAllergen(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"allergen": a})
}

func (th *TaxonomyHandler) UpdateAllergen(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.AllergenPatch
	if !bindJSON(c, &patch) {
		return
	}
	a, err := th.taxonomyService.UpdateAllergen(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"allergen": a})
}

func (th *TaxonomyHandler) DeleteAllergen(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := th.taxonomyService.DeleteAllergen(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
