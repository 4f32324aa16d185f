package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Search serves GET /products. Filters: query, category (id or slug), tags,
// allergen_free, price_min, price_max, in_stock, min_slices, max_slices,
// sort, limit and offset.
func (ph *ProductHandler) Search(c *gin.Context) {
	q, ok := productQuery(c)
	if !ok {
		return
	}
	page, err := ph.productService.Search(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func productQuery(c *gin.Context) (services.ProductQuery, bool) {
	q := services.ProductQuery{
		Query:   c.Query("query"),
		InStock: queryBool(c, "in_stock"),
		Sort:    c.Query("sort"),
		Limit:   queryInt(c, "limit"),
		Offset:  queryInt(c, "offset"),
	}
	var ok bool
	if q.CategoryID, ok = queryUUIDPtr(c, "category_id"); !ok {
		return q, false
	}
	q.CategorySlug = c.Query("category")
	if q.TagIDs, ok = queryUUIDs(c, "tags"); !ok {
		return q, false
	}
	if q.AllergenFreeIDs, ok = queryUUIDs(c, "allergen_free"); !ok {
		return q, false
	}
	if q.PriceMin, ok = queryInt64Ptr(c, "price_min"); !ok {
		return q, false
	}
	if q.PriceMax, ok = queryInt64Ptr(c, "price_max"); !ok {
		return q, false
	}
	if q.MinSlices, ok = queryIntPtr(c, "min_slices"); !ok {
		return q, false
	}
	if q.MaxSlices, ok = queryIntPtr(c, "max_slices"); !ok {
		return q, false
	}
	return q, true
}

func (ph *ProductHandler) Featured(c *gin.Context) {
	items, err := ph.productService.Featured(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": items})
}

func (ph *ProductHandler) Dietary(c *gin.Context) {
	items, err := ph.productService.ByDietaryTags(c.Request.Context(), queryList(c, "tags"), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": items})
}

func (ph *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := ph.productService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

func (ph *ProductHandler) Recommended(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := ph.productService.Recommended(c.Request.Context(), id, queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": items})
}

// admin

func (ph *ProductHandler) AdminList(c *gin.Context) {
	catID, ok := queryUUIDPtr(c, "category_id")
	if !ok {
		return
	}
	page, err := ph.productService.AdminList(c.Request.Context(), services.AdminProductQuery{
		Search:     c.Query("search"),
		CategoryID: catID,
		Active:     queryBoolPtr(c, "active"),
		Sort:       c.Query("sort"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (ph *ProductHandler) AdminGet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := ph.productService.AdminGet(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := ph.productService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": p})
}

func (ph *ProductHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := ph.productService.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

func (ph *ProductHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ph.productService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ph *ProductHandler) BulkUpdate(c *gin.Context) {
	var in services.BulkProductUpdate
	if !bindJSON(c, &in) {
		return
	}
	n, err := ph.productService.BulkUpdate(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}

func (ph *ProductHandler) Stats(c *gin.Context) {
	stats, err := ph.productService.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

func (ph *ProductHandler) ListVariants(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := ph.productService.ListVariants(c.Request.Context(), pid)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variants": items})
}

func (ph *ProductHandler) CreateVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.VariantInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := ph.productService.CreateVariant(c.Request.Context(), pid, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"variant": v})
}

func (ph *ProductHandler) UpdateVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	vid, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	var patch services.VariantPatch
	if !bindJSON(c, &patch) {
		return
	}
	v, err := ph.productService.UpdateVariant(c.Request.Context(), pid, vid, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variant": v})
}

func (ph *ProductHandler) DeleteVariant(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	vid, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	if err := ph.productService.DeleteVariant(c.Request.Context(), pid, vid); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ph *ProductHandler) ListImages(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := ph.productService.ListImages(c.Request.Context(), pid)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"images": items})
}

func (ph *ProductHandler) CreateImage(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.ImageInput
	if !bindJSON(c, &in) {
		return
	}
	img, err := ph.productService.CreateImage(c.Request.Context(), pid, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"image": img})
}

func (ph *ProductHandler) UpdateImage(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	iid, ok := uuidParam(c, "image_id")
	if !ok {
		return
	}
	var patch services.ImagePatch
	if !bindJSON(c, &patch) {
		return
	}
	img, err := ph.productService.UpdateImage(c.Request.Context(), pid, iid, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"image": img})
}

func (ph *ProductHandler) DeleteImage(c *gin.Context) {
	pid, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	iid, ok := uuidParam(c, "image_id")
	if !ok {
		return
	}
	if err := ph.productService.DeleteImage(c.Request.Context(), pid, iid); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
