package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type FacetHandler struct {
	facetService services.FacetService
}

func NewFacetHandler(facetService services.FacetService) *FacetHandler {
	return &FacetHandler{facetService: facetService}
}

func (fh *FacetHandler) Facets(c *gin.Context) {
	catID, ok := queryUUIDPtr(c, "category_id")
	if !ok {
		return
	}
	facets, err := fh.facetService.GetFilterFacets(c.Request.Context(), catID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, facets)
}

func (fh *FacetHandler) PopularTags(c *gin.Context) {
	tags, err := fh.facetService.PopularTags(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

func (fh *FacetHandler) DietaryTags(c *gin.Context) {
	tags, err := fh.facetService.DietaryTags(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

func (fh *FacetHandler) OccasionTags(c *gin.Context) {
	tags, err := fh.facetService.OccasionTags(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

func (fh *FacetHandler) Suggestions(c *gin.Context) {
	catID, ok := queryUUIDPtr(c, "category_id")
	if !ok {
		return
	}
	selected, ok := queryUUIDs(c, "tags")
	if !ok {
		return
	}
	out, err := fh.facetService.Suggestions(c.Request.Context(), catID, selected)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
