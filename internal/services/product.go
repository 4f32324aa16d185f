package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
	defaultAdminLimit   = 50
	featuredLimit       = 8
	recommendedLimit    = 4
	maxProductNameLen   = 200
	maxProductDescLen   = 5000
	maxShortDescLen     = 500
	maxServingSizeLen   = 100
	maxVariantNameLen   = 100
	maxSKULen           = 64
	maxAltTextLen       = 200
	maxVariantDescLen   = 1000
	maxVariantFieldLen  = 50
)

var publicSorts = map[string]bool{
	repos.ProductSortNameAsc:     true,
	repos.ProductSortNameDesc:    true,
	repos.ProductSortPriceAsc:    true,
	repos.ProductSortPriceDesc:   true,
	repos.ProductSortCreatedAsc:  true,
	repos.ProductSortCreatedDesc: true,
	repos.ProductSortPopularity:  true,
}

var adminSorts = map[string]string{
	"name":    repos.ProductSortNameAsc,
	"created": repos.ProductSortCreatedDesc,
	"updated": repos.ProductSortUpdatedDesc,
	"price":   repos.ProductSortPriceAsc,
}

type ProductQuery struct {
	Query           string
	CategoryID      *uuid.UUID
	CategorySlug    string
	TagIDs          []uuid.UUID
	AllergenFreeIDs []uuid.UUID
	PriceMin        *int64
	PriceMax        *int64
	InStock         bool
	MinSlices       *int
	MaxSlices       *int
	Sort            string
	Limit           int
	Offset          int
}

type AdminProductQuery struct {
	Search     string
	CategoryID *uuid.UUID
	Active     *bool
	Sort       string
	Limit      int
	Offset     int
}

type ProductPage struct {
	Items  []*types.Product `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type AllergenLink struct {
	AllergenID       uuid.UUID `json:"allergen_id" binding:"required"`
	ContainsAllergen bool      `json:"contains_allergen"`
	MayContain       bool      `json:"may_contain"`
}

type ProductInput struct {
	Name             string         `json:"name" binding:"required,max=200"`
	Slug             string         `json:"slug" binding:"omitempty,slug"`
	Description      string         `json:"description" binding:"max=5000"`
	ShortDescription string         `json:"short_description" binding:"max=500"`
	CategoryID       *uuid.UUID     `json:"category_id"`
	BasePriceCents   int64          `json:"base_price_cents" binding:"price"`
	IsActive         *bool          `json:"is_active"`
	StockQuantity    int            `json:"stock_quantity" binding:"min=0"`
	MinSlices        *int           `json:"min_slices" binding:"omitempty,min=1"`
	MaxSlices        *int           `json:"max_slices" binding:"omitempty,min=1"`
	ServingSize      string         `json:"serving_size" binding:"max=100"`
	PreparationTime  *int           `json:"preparation_time" binding:"omitempty,min=0"`
	TagIDs           []uuid.UUID    `json:"tag_ids"`
	Allergens        []AllergenLink `json:"allergens"`
}

// ProductPatch updates only the non-nil fields. TagIDs and Allergens replace
// the whole set when present.
type ProductPatch struct {
	Name             *string         `json:"name" binding:"omitempty,max=200"`
	Slug             *string         `json:"slug" binding:"omitempty,slug"`
	Description      *string         `json:"description" binding:"omitempty,max=5000"`
	ShortDescription *string         `json:"short_description" binding:"omitempty,max=500"`
	CategoryID       *uuid.UUID      `json:"category_id"`
	ClearCategory    bool            `json:"clear_category"`
	BasePriceCents   *int64          `json:"base_price_cents" binding:"omitempty,price"`
	IsActive         *bool           `json:"is_active"`
	StockQuantity    *int            `json:"stock_quantity" binding:"omitempty,min=0"`
	MinSlices        *int            `json:"min_slices" binding:"omitempty,min=1"`
	MaxSlices        *int            `json:"max_slices" binding:"omitempty,min=1"`
	ServingSize      *string         `json:"serving_size" binding:"omitempty,max=100"`
	PreparationTime  *int            `json:"preparation_time" binding:"omitempty,min=0"`
	TagIDs           *[]uuid.UUID    `json:"tag_ids"`
	Allergens        *[]AllergenLink `json:"allergens"`
}

type BulkProductUpdate struct {
	IDs           []uuid.UUID `json:"ids" binding:"required,min=1"`
	IsActive      *bool       `json:"is_active"`
	CategoryID    *uuid.UUID  `json:"category_id"`
	StockQuantity *int        `json:"stock_quantity" binding:"omitempty,min=0"`
}

type VariantInput struct {
	Name          string         `json:"name" binding:"required,max=100"`
	SKU           string         `json:"sku" binding:"required,max=64"`
	PriceCents    int64          `json:"price_cents" binding:"price"`
	StockQuantity int            `json:"stock_quantity" binding:"min=0"`
	IsDefault     bool           `json:"is_default"`
	Flavor        string         `json:"flavor" binding:"max=50"`
	Size          string         `json:"size" binding:"max=50"`
	Type          string         `json:"type" binding:"max=50"`
	Attributes    map[string]any `json:"attributes"`
	Description   string         `json:"description" binding:"max=1000"`
	IsAvailable   *bool          `json:"is_available"`
}

type VariantPatch struct {
	Name          *string         `json:"name" binding:"omitempty,max=100"`
	SKU           *string         `json:"sku" binding:"omitempty,max=64"`
	PriceCents    *int64          `json:"price_cents" binding:"omitempty,price"`
	StockQuantity *int            `json:"stock_quantity" binding:"omitempty,min=0"`
	IsDefault     *bool           `json:"is_default"`
	Flavor        *string         `json:"flavor" binding:"omitempty,max=50"`
	Size          *string         `json:"size" binding:"omitempty,max=50"`
	Type          *string         `json:"type" binding:"omitempty,max=50"`
	Attributes    *map[string]any `json:"attributes"`
	Description   *string         `json:"description" binding:"omitempty,max=1000"`
	IsAvailable   *bool           `json:"is_available"`
}

type ImageInput struct {
	URL       string `json:"url" binding:"required"`
	AltText   string `json:"alt_text" binding:"max=200"`
	SortOrder int    `json:"sort_order"`
	IsMain    bool   `json:"is_main"`
}

type ImagePatch struct {
	URL       *string `json:"url"`
	AltText   *string `json:"alt_text" binding:"omitempty,max=200"`
	SortOrder *int    `json:"sort_order"`
	IsMain    *bool   `json:"is_main"`
}

type ProductService interface {
	Search(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetBySlug(ctx context.Context, slug string) (*types.Product, error)
	Featured(ctx context.Context, limit int) ([]*types.Product, error)
	Recommended(ctx context.Context, productID uuid.UUID, limit int) ([]*types.Product, error)
	ByDietaryTags(ctx context.Context, names []string, limit int) ([]*types.Product, error)
	Count(ctx context.Context, q ProductQuery) (int64, error)

	AdminList(ctx context.Context, q AdminProductQuery) (*ProductPage, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*types.Product, error)
	Create(ctx context.Context, in ProductInput) (*types.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*types.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkUpdate(ctx context.Context, in BulkProductUpdate) (int64, error)
	Stats(ctx context.Context) (*repos.ProductStats, error)

	ListVariants(ctx context.Context, productID uuid.UUID) ([]*types.ProductVariant, error)
	CreateVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*types.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, patch VariantPatch) (*types.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error

	ListImages(ctx context.Context, productID uuid.UUID) ([]*types.ProductImage, error)
	CreateImage(ctx context.Context, productID uuid.UUID, in ImageInput) (*types.ProductImage, error)
	UpdateImage(ctx context.Context, productID, imageID uuid.UUID, patch ImagePatch) (*types.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
}

type productService struct {
	db           *gorm.DB
	log          *logger.Logger
	productRepo  repos.ProductRepo
	variantRepo  repos.VariantRepo
	imageRepo    repos.ImageRepo
	tagRepo      repos.TagRepo
	allergenRepo repos.AllergenRepo
	categoryRepo repos.CategoryRepo
	cartRepo     repos.CartRepo
	wishlistRepo repos.WishlistRepo
	categories   CategoryService
}

func NewProductService(
	db *gorm.DB,
	log *logger.Logger,
	productRepo repos.ProductRepo,
	variantRepo repos.VariantRepo,
	imageRepo repos.ImageRepo,
	tagRepo repos.TagRepo,
	allergenRepo repos.AllergenRepo,
	categoryRepo repos.CategoryRepo,
	cartRepo repos.CartRepo,
	wishlistRepo repos.WishlistRepo,
	categories CategoryService,
) ProductService {
	return &productService{
		db:           db,
		log:          log.With("service", "ProductService"),
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		imageRepo:    imageRepo,
		tagRepo:      tagRepo,
		allergenRepo: allergenRepo,
		categoryRepo: categoryRepo,
		cartRepo:     cartRepo,
		wishlistRepo: wishlistRepo,
		categories:   categories,
	}
}

// filter resolves the category to its subtree. ok is false when the requested
// category does not exist, in which case nothing can match.
func (ps *productService) filter(ctx context.Context, q ProductQuery) (repos.ProductSearchFilter, bool, error) {
	active := true
	f := repos.ProductSearchFilter{
		Query:           strings.TrimSpace(q.Query),
		TagIDs:          q.TagIDs,
		AllergenFreeIDs: q.AllergenFreeIDs,
		PriceMin:        q.PriceMin,
		PriceMax:        q.PriceMax,
		InStock:         q.InStock,
		MinSlices:       q.MinSlices,
		MaxSlices:       q.MaxSlices,
		Active:          &active,
		Sort:            q.Sort,
		Limit:           clampLimit(q.Limit, defaultProductLimit, maxProductLimit),
		Offset:          clampOffset(q.Offset),
	}
	if !publicSorts[f.Sort] {
		f.Sort = repos.ProductSortCreatedDesc
	}
	if q.PriceMin != nil && q.PriceMax != nil && *q.PriceMin > *q.PriceMax {
		return f, false, apierr.BadRequest("invalid_price_range", "price_min must not exceed price_max")
	}

	categoryID := q.CategoryID
	if categoryID == nil && strings.TrimSpace(q.CategorySlug) != "" {
		c, err := ps.categoryRepo.GetBySlug(dbctx.New(ctx), strings.ToLower(strings.TrimSpace(q.CategorySlug)))
		if err != nil {
			return f, false, fmt.Errorf("load category: %w", err)
		}
		if c == nil {
			return f, false, nil
		}
		categoryID = &c.ID
	}
	if categoryID != nil {
		ids, err := ps.categories.SubtreeIDs(ctx, *categoryID)
		if err != nil {
			return f, false, err
		}
		if len(ids) == 0 {
			return f, false, nil
		}
		f.CategoryIDs = ids
	}
	return f, true, nil
}

func (ps *productService) Search(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	f, ok, err := ps.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	page := &ProductPage{Items: []*types.Product{}, Limit: f.Limit, Offset: f.Offset}
	if !ok {
		return page, nil
	}
	dbc := dbctx.New(ctx)
	items, total, err := ps.productRepo.Search(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if err := ps.productRepo.Enrich(dbc, items); err != nil {
		return nil, fmt.Errorf("enrich products: %w", err)
	}
	if items != nil {
		page.Items = items
	}
	page.Total = total
	return page, nil
}

func (ps *productService) Count(ctx context.Context, q ProductQuery) (int64, error) {
	f, ok, err := ps.filter(ctx, q)
	if err != nil || !ok {
		return 0, err
	}
	return ps.productRepo.Count(dbctx.New(ctx), f)
}

func (ps *productService) enrichedOne(dbc dbctx.Context, p *types.Product) (*types.Product, error) {
	if err := ps.productRepo.Enrich(dbc, []*types.Product{p}); err != nil {
		return nil, fmt.Errorf("enrich product: %w", err)
	}
	return p, nil
}

func (ps *productService) GetBySlug(ctx context.Context, slug string) (*types.Product, error) {
	dbc := dbctx.New(ctx)
	p, err := ps.productRepo.GetBySlug(dbc, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, apierr.NotFound("product")
	}
	return ps.enrichedOne(dbc, p)
}

func (ps *productService) Featured(ctx context.Context, limit int) ([]*types.Product, error) {
	active := true
	dbc := dbctx.New(ctx)
	items, _, err := ps.productRepo.Search(dbc, repos.ProductSearchFilter{
		Active:  &active,
		InStock: true,
		Sort:    repos.ProductSortPopularity,
		Limit:   clampLimit(limit, featuredLimit, maxProductLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	if err := ps.productRepo.Enrich(dbc, items); err != nil {
		return nil, fmt.Errorf("enrich products: %w", err)
	}
	return items, nil
}

func (ps *productService) Recommended(ctx context.Context, productID uuid.UUID, limit int) ([]*types.Product, error) {
	dbc := dbctx.New(ctx)
	p, err := ps.productRepo.GetByID(dbc, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product")
	}
	items, err := ps.productRepo.Recommended(dbc, p, clampLimit(limit, recommendedLimit, maxProductLimit))
	if err != nil {
		return nil, fmt.Errorf("recommended products: %w", err)
	}
	if err := ps.productRepo.Enrich(dbc, items); err != nil {
		return nil, fmt.Errorf("enrich products: %w", err)
	}
	return items, nil
}

func (ps *productService) ByDietaryTags(ctx context.Context, names []string, limit int) ([]*types.Product, error) {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return []*types.Product{}, nil
	}
	dbc := dbctx.New(ctx)
	items, err := ps.productRepo.ByTagNames(dbc, clean, clampLimit(limit, defaultProductLimit, maxProductLimit))
	if err != nil {
		return nil, fmt.Errorf("dietary products: %w", err)
	}
	if err := ps.productRepo.Enrich(dbc, items); err != nil {
		return nil, fmt.Errorf("enrich products: %w", err)
	}
	return items, nil
}

func (ps *productService) AdminList(ctx context.Context, q AdminProductQuery) (*ProductPage, error) {
	sort, ok := adminSorts[q.Sort]
	if !ok {
		sort = repos.ProductSortCreatedDesc
	}
	f := repos.ProductSearchFilter{
		Query:  strings.TrimSpace(q.Search),
		Active: q.Active,
		Sort:   sort,
		Limit:  clampLimit(q.Limit, defaultAdminLimit, maxProductLimit),
		Offset: clampOffset(q.Offset),
	}
	if q.CategoryID != nil {
		f.CategoryIDs = []uuid.UUID{*q.CategoryID}
	}
	dbc := dbctx.New(ctx)
	items, total, err := ps.productRepo.Search(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := ps.productRepo.Enrich(dbc, items); err != nil {
		return nil, fmt.Errorf("enrich products: %w", err)
	}
	if items == nil {
		items = []*types.Product{}
	}
	return &ProductPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (ps *productService) AdminGet(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	dbc := dbctx.New(ctx)
	p, err := ps.productRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product")
	}
	return ps.enrichedOne(dbc, p)
}

func checkSlices(minSlices, maxSlices *int) error {
	if minSlices != nil && maxSlices != nil && *minSlices > *maxSlices {
		return apierr.BadRequest("invalid_slices", "min_slices must not exceed max_slices")
	}
	return nil
}

func checkProductFields(name, slug, description, short, serving string, price int64, stock int) error {
	if n := len(strings.TrimSpace(name)); n == 0 || n > maxProductNameLen {
		return apierr.BadRequest("invalid_name", "Name is required and must be at most 200 characters")
	}
	if !slugPattern.MatchString(slug) {
		return apierr.BadRequest("invalid_slug", "Slug may only contain lowercase letters, numbers and dashes")
	}
	if err := checkMaxLen("Description", description, maxProductDescLen); err != nil {
		return err
	}
	if err := checkMaxLen("Short description", short, maxShortDescLen); err != nil {
		return err
	}
	if err := checkMaxLen("Serving size", serving, maxServingSizeLen); err != nil {
		return err
	}
	if price < 0 {
		return apierr.BadRequest("invalid_price", "Price must not be negative")
	}
	if stock < 0 {
		return apierr.BadRequest("invalid_stock", "Stock must not be negative")
	}
	return nil
}

func (ps *productService) ensureCategory(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	c, err := ps.categoryRepo.GetByID(dbc, *id)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if c == nil {
		return apierr.BadRequest("invalid_category", "Category does not exist")
	}
	return nil
}

func (ps *productService) ensureSlugFree(dbc dbctx.Context, slug string, exclude *uuid.UUID) error {
	exists, err := ps.productRepo.SlugExists(dbc, slug, exclude)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return apierr.Conflict("slug_taken", "A product with this slug already exists")
	}
	return nil
}

func (ps *productService) replaceTags(dbc dbctx.Context, productID uuid.UUID, ids []uuid.UUID) error {
	ids = uniqueIDs(ids)
	found, err := ps.tagRepo.GetByIDs(dbc, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if len(found) != len(ids) {
		return apierr.BadRequest("invalid_tag", "One or more tags do not exist")
	}
	return ps.productRepo.ReplaceTags(dbc, productID, ids)
}

func (ps *productService) replaceAllergens(dbc dbctx.Context, productID uuid.UUID, links []AllergenLink) error {
	ids := make([]uuid.UUID, 0, len(links))
	rows := make([]types.ProductAllergen, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.AllergenID)
		rows = append(rows, types.ProductAllergen{
			ProductID:        productID,
			AllergenID:       l.AllergenID,
			ContainsAllergen: l.ContainsAllergen,
			MayContain:       l.MayContain,
		})
	}
	ids = uniqueIDs(ids)
	found, err := ps.allergenRepo.GetByIDs(dbc, ids)
	if err != nil {
		return fmt.Errorf("load allergens: %w", err)
	}
	if len(found) != len(ids) {
		return apierr.BadRequest("invalid_allergen", "One or more allergens do not exist")
	}
	return ps.productRepo.ReplaceAllergens(dbc, productID, rows)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (ps *productService) Create(ctx context.Context, in ProductInput) (*types.Product, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = catalog.Slugify(name)
	}
	if err := checkProductFields(name, slug, in.Description, in.ShortDescription, in.ServingSize, in.BasePriceCents, in.StockQuantity); err != nil {
		return nil, err
	}
	if err := checkSlices(in.MinSlices, in.MaxSlices); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &types.Product{
		Name:             name,
		Slug:             slug,
		Description:      strings.TrimSpace(in.Description),
		ShortDescription: strings.TrimSpace(in.ShortDescription),
		CategoryID:       in.CategoryID,
		BasePriceCents:   in.BasePriceCents,
		IsActive:         active,
		StockQuantity:    in.StockQuantity,
		MinSlices:        in.MinSlices,
		MaxSlices:        in.MaxSlices,
		ServingSize:      strings.TrimSpace(in.ServingSize),
		PreparationTime:  in.PreparationTime,
	}
	var out *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ps.ensureSlugFree(dbc, slug, nil); err != nil {
			return err
		}
		if err := ps.ensureCategory(dbc, in.CategoryID); err != nil {
			return err
		}
		if err := ps.productRepo.Create(dbc, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if len(in.TagIDs) > 0 {
			if err := ps.replaceTags(dbc, p.ID, in.TagIDs); err != nil {
				return err
			}
		}
		if len(in.Allergens) > 0 {
			if err := ps.replaceAllergens(dbc, p.ID, in.Allergens); err != nil {
				return err
			}
		}
		var err error
		out, err = ps.enrichedOne(dbc, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.categories.InvalidateCaches(ctx)
	ps.log.Info("Product created", "product_id", p.ID, "slug", p.Slug)
	return out, nil
}

func (ps *productService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*types.Product, error) {
	var out *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ps.productRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("product")
		}
		next := *cur
		fields := map[string]any{}
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
			fields["name"] = next.Name
		}
		if patch.Slug != nil {
			next.Slug = strings.TrimSpace(*patch.Slug)
			fields["slug"] = next.Slug
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
			fields["description"] = next.Description
		}
		if patch.ShortDescription != nil {
			next.ShortDescription = strings.TrimSpace(*patch.ShortDescription)
			fields["short_description"] = next.ShortDescription
		}
		if patch.ServingSize != nil {
			next.ServingSize = strings.TrimSpace(*patch.ServingSize)
			fields["serving_size"] = next.ServingSize
		}
		if patch.BasePriceCents != nil {
			next.BasePriceCents = *patch.BasePriceCents
			fields["base_price_cents"] = next.BasePriceCents
		}
		if patch.StockQuantity != nil {
			next.StockQuantity = *patch.StockQuantity
			fields["stock_quantity"] = next.StockQuantity
		}
		if patch.MinSlices != nil {
			next.MinSlices = patch.MinSlices
			fields["min_slices"] = *patch.MinSlices
		}
		if patch.MaxSlices != nil {
			next.MaxSlices = patch.MaxSlices
			fields["max_slices"] = *patch.MaxSlices
		}
		if patch.PreparationTime != nil {
			fields["preparation_time"] = *patch.PreparationTime
		}
		if patch.IsActive != nil {
			fields["is_active"] = *patch.IsActive
		}
		if err := checkProductFields(next.Name, next.Slug, next.Description, next.ShortDescription, next.ServingSize, next.BasePriceCents, next.StockQuantity); err != nil {
			return err
		}
		if err := checkSlices(next.MinSlices, next.MaxSlices); err != nil {
			return err
		}
		if next.Slug != cur.Slug {
			if err := ps.ensureSlugFree(dbc, next.Slug, &id); err != nil {
				return err
			}
		}
		switch {
		case patch.ClearCategory:
			fields["category_id"] = nil
		case patch.CategoryID != nil:
			if err := ps.ensureCategory(dbc, patch.CategoryID); err != nil {
				return err
			}
			fields["category_id"] = *patch.CategoryID
		}
		if err := ps.productRepo.UpdateFields(dbc, id, fields); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if patch.TagIDs != nil {
			if err := ps.replaceTags(dbc, id, *patch.TagIDs); err != nil {
				return err
			}
		}
		if patch.Allergens != nil {
			if err := ps.replaceAllergens(dbc, id, *patch.Allergens); err != nil {
				return err
			}
		}
		p, err := ps.productRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("reload product: %w", err)
		}
		out, err = ps.enrichedOne(dbc, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.categories.InvalidateCaches(ctx)
	return out, nil
}

func (ps *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ps.productRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("product")
		}
		ordered, err := ps.productRepo.HasOrderItems(dbc, id)
		if err != nil {
			return fmt.Errorf("check orders: %w", err)
		}
		if ordered {
			return apierr.Conflict("product_has_orders", "Cannot delete a product that appears in orders; deactivate it instead")
		}
		if err := ps.cartRepo.RemoveProduct(dbc, id); err != nil {
			return fmt.Errorf("remove from carts: %w", err)
		}
		if err := ps.wishlistRepo.RemoveProduct(dbc, id); err != nil {
			return fmt.Errorf("remove from wishlists: %w", err)
		}
		return ps.productRepo.SoftDelete(dbc, id)
	})
	if err != nil {
		return err
	}
	ps.categories.InvalidateCaches(ctx)
	ps.log.Info("Product deleted", "product_id", id)
	return nil
}

func (ps *productService) BulkUpdate(ctx context.Context, in BulkProductUpdate) (int64, error) {
	if len(in.IDs) == 0 {
		return 0, apierr.BadRequest("invalid_argument", "At least one product id is required")
	}
	fields := map[string]any{}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return 0, apierr.BadRequest("invalid_stock", "Stock must not be negative")
		}
		fields["stock_quantity"] = *in.StockQuantity
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if len(fields) == 0 {
		return 0, apierr.BadRequest("invalid_argument", "At least one field to update is required")
	}
	var n int64
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ps.ensureCategory(dbc, in.CategoryID); err != nil {
			return err
		}
		var err error
		n, err = ps.productRepo.BulkUpdate(dbc, uniqueIDs(in.IDs), fields)
		return err
	})
	if err != nil {
		return 0, err
	}
	ps.categories.InvalidateCaches(ctx)
	return n, nil
}

func (ps *productService) Stats(ctx context.Context) (*repos.ProductStats, error) {
	return ps.productRepo.Stats(dbctx.New(ctx))
}

func (ps *productService) requireProduct(dbc dbctx.Context, id uuid.UUID) error {
	p, err := ps.productRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return apierr.NotFound("product")
	}
	return nil
}

func (ps *productService) ListVariants(ctx context.Context, productID uuid.UUID) ([]*types.ProductVariant, error) {
	dbc := dbctx.New(ctx)
	if err := ps.requireProduct(dbc, productID); err != nil {
		return nil, err
	}
	return ps.variantRepo.ListByProduct(dbc, productID)
}

func marshalAttributes(attrs map[string]any) (datatypes.JSON, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, apierr.BadRequest("invalid_attributes", "Attributes must be a JSON object")
	}
	return datatypes.JSON(raw), nil
}

func checkVariantFields(name, sku, flavor, size, typ, description string, price int64, stock int) error {
	if n := len(strings.TrimSpace(name)); n == 0 || n > maxVariantNameLen {
		return apierr.BadRequest("invalid_name", "Variant name is required and must be at most 100 characters")
	}
	if n := len(strings.TrimSpace(sku)); n == 0 || n > maxSKULen {
		return apierr.BadRequest("invalid_sku", "SKU is required and must be at most 64 characters")
	}
	for field, v := range map[string]string{"Flavor": flavor, "Size": size, "Type": typ} {
		if err := checkMaxLen(field, v, maxVariantFieldLen); err != nil {
			return err
		}
	}
	if err := checkMaxLen("Description", description, maxVariantDescLen); err != nil {
		return err
	}
	if price < 0 {
		return apierr.BadRequest("invalid_price", "Price must not be negative")
	}
	if stock < 0 {
		return apierr.BadRequest("invalid_stock", "Stock must not be negative")
	}
	return nil
}

func (ps *productService) ensureSKUFree(dbc dbctx.Context, sku string, exclude *uuid.UUID) error {
	exists, err := ps.variantRepo.SKUExists(dbc, sku, exclude)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apierr.Conflict("sku_taken", "A variant with this SKU already exists")
	}
	return nil
}

func (ps *productService) CreateVariant(ctx context.Context, productID uuid.UUID, in VariantInput) (*types.ProductVariant, error) {
	if err := checkVariantFields(in.Name, in.SKU, in.Flavor, in.Size, in.Type, in.Description, in.PriceCents, in.StockQuantity); err != nil {
		return nil, err
	}
	attrs, err := marshalAttributes(in.Attributes)
	if err != nil {
		return nil, err
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	v := &types.ProductVariant{
		ProductID:     productID,
		Name:          strings.TrimSpace(in.Name),
		SKU:           strings.TrimSpace(in.SKU),
		PriceCents:    in.PriceCents,
		StockQuantity: in.StockQuantity,
		IsDefault:     in.IsDefault,
		Flavor:        strings.TrimSpace(in.Flavor),
		Size:          strings.TrimSpace(in.Size),
		Type:          strings.TrimSpace(in.Type),
		Attributes:    attrs,
		Description:   strings.TrimSpace(in.Description),
		IsAvailable:   available,
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ps.requireProduct(dbc, productID); err != nil {
			return err
		}
		if err := ps.ensureSKUFree(dbc, v.SKU, nil); err != nil {
			return err
		}
		if err := ps.variantRepo.Create(dbc, v); err != nil {
			return fmt.Errorf("create variant: %w", err)
		}
		if v.IsDefault {
			return ps.variantRepo.ClearDefault(dbc, productID, v.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.categories.InvalidateCaches(ctx)
	return v, nil
}

func (ps *productService) loadVariant(dbc dbctx.Context, productID, variantID uuid.UUID) (*types.ProductVariant, error) {
	v, err := ps.variantRepo.GetByID(dbc, variantID)
	if err != nil {
		return nil, fmt.Errorf("load variant: %w", err)
	}
	if v == nil || v.ProductID != productID {
		return nil, apierr.NotFound("variant")
	}
	return v, nil
}

func (ps *productService) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, patch VariantPatch) (*types.ProductVariant, error) {
	var out *types.ProductVariant
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ps.loadVariant(dbc, productID, variantID)
		if err != nil {
			return err
		}
		next := *cur
		fields := map[string]any{}
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
			fields["name"] = next.Name
		}
		if patch.SKU != nil {
			next.SKU = strings.TrimSpace(*patch.SKU)
			fields["sku"] = next.SKU
		}
		if patch.PriceCents != nil {
			next.PriceCents = *patch.PriceCents
			fields["price_cents"] = next.PriceCents
		}
		if patch.StockQuantity != nil {
			next.StockQuantity = *patch.StockQuantity
			fields["stock_quantity"] = next.StockQuantity
		}
		if patch.Flavor != nil {
			next.Flavor = strings.TrimSpace(*patch.Flavor)
			fields["flavor"] = next.Flavor
		}
		if patch.Size != nil {
			next.Size = strings.TrimSpace(*patch.Size)
			fields["size"] = next.Size
		}
		if patch.Type != nil {
			next.Type = strings.TrimSpace(*patch.Type)
			fields["type"] = next.Type
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
			fields["description"] = next.Description
		}
		if patch.Attributes != nil {
			attrs, err := marshalAttributes(*patch.Attributes)
			if err != nil {
				return err
			}
			fields["attributes"] = attrs
		}
		if patch.IsAvailable != nil {
			fields["is_available"] = *patch.IsAvailable
		}
		if patch.IsDefault != nil {
			fields["is_default"] = *patch.IsDefault
		}
		if err := checkVariantFields(next.Name, next.SKU, next.Flavor, next.Size, next.Type, next.Description, next.PriceCents, next.StockQuantity); err != nil {
			return err
		}
		if next.SKU != cur.SKU {
			if err := ps.ensureSKUFree(dbc, next.SKU, &variantID); err != nil {
				return err
			}
		}
		if err := ps.variantRepo.UpdateFields(dbc, variantID, fields); err != nil {
			return fmt.Errorf("update variant: %w", err)
		}
		if patch.IsDefault != nil && *patch.IsDefault {
			if err := ps.variantRepo.ClearDefault(dbc, productID, variantID); err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}
		out, err = ps.variantRepo.GetByID(dbc, variantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.categories.InvalidateCaches(ctx)
	return out, nil
}

func (ps *productService) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if _, err := ps.loadVariant(dbc, productID, variantID); err != nil {
			return err
		}
		return ps.variantRepo.Delete(dbc, variantID)
	})
	if err != nil {
		return err
	}
	ps.categories.InvalidateCaches(ctx)
	return nil
}

func checkImageURL(raw string) error {
	if !validHTTPURL(raw) {
		return apierr.BadRequest("invalid_url", "Image URL must be an absolute http(s) URL")
	}
	return nil
}

func (ps *productService) ListImages(ctx context.Context, productID uuid.UUID) ([]*types.ProductImage, error) {
	dbc := dbctx.New(ctx)
	if err := ps.requireProduct(dbc, productID); err != nil {
		return nil, err
	}
	return ps.imageRepo.ListByProduct(dbc, productID)
}

// CreateImage makes the first image of a product its main image.
func (ps *productService) CreateImage(ctx context.Context, productID uuid.UUID, in ImageInput) (*types.ProductImage, error) {
	if err := checkImageURL(in.URL); err != nil {
		return nil, err
	}
	if err := checkMaxLen("Alt text", in.AltText, maxAltTextLen); err != nil {
		return nil, err
	}
	img := &types.ProductImage{
		ProductID: productID,
		URL:       strings.TrimSpace(in.URL),
		AltText:   strings.TrimSpace(in.AltText),
		SortOrder: in.SortOrder,
		IsMain:    in.IsMain,
	}
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ps.requireProduct(dbc, productID); err != nil {
			return err
		}
		existing, err := ps.imageRepo.ListByProduct(dbc, productID)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		if len(existing) == 0 {
			img.IsMain = true
		}
		if err := ps.imageRepo.Create(dbc, img); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		if img.IsMain {
			return ps.imageRepo.ClearMain(dbc, productID, img.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (ps *productService) loadImage(dbc dbctx.Context, productID, imageID uuid.UUID) (*types.ProductImage, error) {
	img, err := ps.imageRepo.GetByID(dbc, imageID)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	if img == nil || img.ProductID != productID {
		return nil, apierr.NotFound("image")
	}
	return img, nil
}

func (ps *productService) UpdateImage(ctx context.Context, productID, imageID uuid.UUID, patch ImagePatch) (*types.ProductImage, error) {
	var out *types.ProductImage
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if _, err := ps.loadImage(dbc, productID, imageID); err != nil {
			return err
		}
		fields := map[string]any{}
		if patch.URL != nil {
			if err := checkImageURL(*patch.URL); err != nil {
				return err
			}
			fields["url"] = strings.TrimSpace(*patch.URL)
		}
		if patch.AltText != nil {
			if err := checkMaxLen("Alt text", *patch.AltText, maxAltTextLen); err != nil {
				return err
			}
			fields["alt_text"] = strings.TrimSpace(*patch.AltText)
		}
		if patch.SortOrder != nil {
			fields["sort_order"] = *patch.SortOrder
		}
		if patch.IsMain != nil {
			fields["is_main"] = *patch.IsMain
		}
		if err := ps.imageRepo.UpdateFields(dbc, imageID, fields); err != nil {
			return fmt.Errorf("update image: %w", err)
		}
		if patch.IsMain != nil && *patch.IsMain {
			if err := ps.imageRepo.ClearMain(dbc, productID, imageID); err != nil {
				return fmt.Errorf("clear main: %w", err)
			}
		}
		var err error
		out, err = ps.imageRepo.GetByID(dbc, imageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ps *productService) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if _, err := ps.loadImage(dbc, productID, imageID); err != nil {
			return err
		}
		return ps.imageRepo.Delete(dbc, imageID)
	})
}
