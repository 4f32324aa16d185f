package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/dbquery"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	SortNameAsc     = "name-asc"
	SortNameDesc    = "name-desc"
	SortPriceAsc    = "price-asc"
	SortPriceDesc   = "price-desc"
	SortCreatedAsc  = "created-asc"
	SortCreatedDesc = "created-desc"
	SortPopularity  = "popularity"
	SortUpdatedDesc = "updated-desc"
)

const popularityExpr = "(SELECT COALESCE(SUM(order_item.quantity), 0) FROM order_item WHERE order_item.product_id = product.id)"

// SearchFilter narrows a product query. CategoryIDs is already expanded to
// the subtree by the caller.
type SearchFilter struct {
	Query           string
	CategoryIDs     []uuid.UUID
	TagIDs          []uuid.UUID
	AllergenFreeIDs []uuid.UUID
	PriceMin        *int64
	PriceMax        *int64
	InStock         bool
	MinSlices       *int
	MaxSlices       *int
	Active          *bool
	ExcludeIDs      []uuid.UUID
	Sort            string
	Limit           int
	Offset          int
}

type Stats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	LowStock   int64 `json:"low_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

type ProductRepo interface {
	Create(dbc dbctx.Context, p *types.Product) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Product, error)
	Search(dbc dbctx.Context, f SearchFilter) ([]*types.Product, int64, error)
	Count(dbc dbctx.Context, f SearchFilter) (int64, error)
	Recommended(dbc dbctx.Context, p *types.Product, limit int) ([]*types.Product, error)
	ByTagNames(dbc dbctx.Context, names []string, limit int) ([]*types.Product, error)
	Enrich(dbc dbctx.Context, products []*types.Product) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	BulkUpdate(dbc dbctx.Context, ids []uuid.UUID, fields map[string]any) (int64, error)
	AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (bool, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
	SlugExists(dbc dbctx.Context, slug string, excludeID *uuid.UUID) (bool, error)
	CountByCategory(dbc dbctx.Context, categoryID uuid.UUID) (int64, error)
	HasOrderItems(dbc dbctx.Context, id uuid.UUID) (bool, error)
	ReplaceTags(dbc dbctx.Context, productID uuid.UUID, tagIDs []uuid.UUID) error
	ReplaceAllergens(dbc dbctx.Context, productID uuid.UUID, rows []types.ProductAllergen) error
	Stats(dbc dbctx.Context) (*Stats, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, p *types.Product) error {
	return dbc.DB(r.db).Omit("Variants", "Images").Create(p).Error
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	var rows []*types.Product
	if len(ids) == 0 {
		return rows, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *productRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Product, error) {
	var rows []*types.Product
	if err := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *productRepo) filtered(dbc dbctx.Context, f SearchFilter) *gorm.DB {
	q := dbc.DB(r.db).Model(&types.Product{})
	if f.Active != nil {
		q = q.Where("product.is_active = ?", *f.Active)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := dbquery.Contains(s)
		q = q.Where(
			dbquery.Like("product.name")+" OR "+dbquery.Like("product.description")+" OR "+dbquery.Like("product.short_description"),
			like, like, like,
		)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("product.category_id IN ?", f.CategoryIDs)
	}
	if len(f.TagIDs) > 0 {
		q = q.Where("product.id IN (SELECT product_tag.product_id FROM product_tag WHERE product_tag.tag_id IN ?)", f.TagIDs)
	}
	if len(f.AllergenFreeIDs) > 0 {
		q = q.Where(
			"product.id NOT IN (SELECT product_allergen.product_id FROM product_allergen WHERE product_allergen.allergen_id IN ? AND product_allergen.contains_allergen = ?)",
			f.AllergenFreeIDs, true,
		)
	}
	if f.PriceMin != nil {
		q = q.Where("product.base_price_cents >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("product.base_price_cents <= ?", *f.PriceMax)
	}
	if f.InStock {
		q = q.Where("product.stock_quantity >= ?", 1)
	}
	if f.MinSlices != nil {
		q = q.Where("(product.min_slices IS NULL OR product.min_slices >= ?)", *f.MinSlices)
	}
	if f.MaxSlices != nil {
		q = q.Where("(product.max_slices IS NULL OR product.max_slices <= ?)", *f.MaxSlices)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("product.id NOT IN ?", f.ExcludeIDs)
	}
	return q
}

func applySort(q *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortNameAsc:
		return q.Order("product.name ASC")
	case SortNameDesc:
		return q.Order("product.name DESC")
	case SortPriceAsc:
		return q.Order("product.base_price_cents ASC").Order("product.name ASC")
	case SortPriceDesc:
		return q.Order("product.base_price_cents DESC").Order("product.name ASC")
	case SortCreatedAsc:
		return q.Order("product.created_at ASC")
	case SortPopularity:
		return q.Order(popularityExpr + " DESC").Order("product.created_at DESC")
	case SortUpdatedDesc:
		return q.Order("product.updated_at DESC")
	default:
		return q.Order("product.created_at DESC")
	}
}

func (r *productRepo) Search(dbc dbctx.Context, f SearchFilter) ([]*types.Product, int64, error) {
	q := r.filtered(dbc, f).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*types.Product
	if err := applySort(q, f.Sort).Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *productRepo) Count(dbc dbctx.Context, f SearchFilter) (int64, error) {
	var total int64
	err := r.filtered(dbc, f).Count(&total).Error
	return total, err
}

// Recommended returns active products in the same category or sharing a tag.
func (r *productRepo) Recommended(dbc dbctx.Context, p *types.Product, limit int) ([]*types.Product, error) {
	q := dbc.DB(r.db).Model(&types.Product{}).
		Where("product.is_active = ? AND product.id <> ?", true, p.ID)
	related := "product.id IN (SELECT pt.product_id FROM product_tag pt WHERE pt.tag_id IN (SELECT product_tag.tag_id FROM product_tag WHERE product_tag.product_id = ?))"
	if p.CategoryID != nil {
		q = q.Where("(product.category_id = ? OR "+related+")", *p.CategoryID, p.ID)
	} else {
		q = q.Where(related, p.ID)
	}
	var rows []*types.Product
	err := q.Order(popularityExpr + " DESC").Order("product.created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *productRepo) ByTagNames(dbc dbctx.Context, names []string, limit int) ([]*types.Product, error) {
	var rows []*types.Product
	if len(names) == 0 {
		return rows, nil
	}
	lowered := make([]string, 0, len(names))
	for _, n := range names {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(n)))
	}
	err := dbc.DB(r.db).Model(&types.Product{}).
		Where("product.is_active = ?", true).
		Where(`product.id IN (SELECT product_tag.product_id FROM product_tag
			JOIN tag ON tag.id = product_tag.tag_id
			WHERE LOWER(tag.name) IN ? AND tag.type = ?)`, lowered, "dietary").
		Order("product.name ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

type productTagRow struct {
	types.Tag
	ProductID uuid.UUID
}

type productAllergenRow struct {
	types.Allergen
	ProductID        uuid.UUID
	ContainsAllergen bool
	MayContain       bool
}

// Enrich loads variants, images, tags and allergens for the given products.
func (r *productRepo) Enrich(dbc dbctx.Context, products []*types.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(products))
	byID := make(map[uuid.UUID]*types.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		byID[p.ID] = p
		p.Variants = []types.ProductVariant{}
		p.Images = []types.ProductImage{}
		p.Tags = []types.Tag{}
		p.Allergens = []types.AllergenInfo{}
	}
	tx := dbc.DB(r.db)

	var variants []types.ProductVariant
	if err := tx.Where("product_id IN ?", ids).
		Order("is_default DESC").Order("name ASC").
		Find(&variants).Error; err != nil {
		return err
	}
	for _, v := range variants {
		byID[v.ProductID].Variants = append(byID[v.ProductID].Variants, v)
	}

	var images []types.ProductImage
	if err := tx.Where("product_id IN ?", ids).
		Order("is_main DESC").Order("sort_order ASC").
		Find(&images).Error; err != nil {
		return err
	}
	for _, img := range images {
		byID[img.ProductID].Images = append(byID[img.ProductID].Images, img)
	}

	var tags []productTagRow
	if err := tx.Table("tag").
		Select("tag.*, product_tag.product_id AS product_id").
		Joins("JOIN product_tag ON product_tag.tag_id = tag.id").
		Where("product_tag.product_id IN ?", ids).
		Order("tag.type ASC").Order("tag.name ASC").
		Scan(&tags).Error; err != nil {
		return err
	}
	for _, t := range tags {
		byID[t.ProductID].Tags = append(byID[t.ProductID].Tags, t.Tag)
	}

	var allergens []productAllergenRow
	if err := tx.Table("allergen").
		Select("allergen.*, product_allergen.product_id AS product_id, product_allergen.contains_allergen AS contains_allergen, product_allergen.may_contain AS may_contain").
		Joins("JOIN product_allergen ON product_allergen.allergen_id = allergen.id").
		Where("product_allergen.product_id IN ?", ids).
		Order("allergen.name ASC").
		Scan(&allergens).Error; err != nil {
		return err
	}
	for _, a := range allergens {
		byID[a.ProductID].Allergens = append(byID[a.ProductID].Allergens, types.AllergenInfo{
			Allergen:         a.Allergen,
			ContainsAllergen: a.ContainsAllergen,
			MayContain:       a.MayContain,
		})
	}
	return nil
}

func (r *productRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) BulkUpdate(dbc dbctx.Context, ids []uuid.UUID, fields map[string]any) (int64, error) {
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Model(&types.Product{}).Where("id IN ?", ids).Updates(fields)
	return res.RowsAffected, res.Error
}

// AdjustStock adds delta to the stock. A negative delta only applies when
// enough stock remains; the bool reports whether the row changed.
func (r *productRepo) AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (bool, error) {
	q := dbc.DB(r.db).Model(&types.Product{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("stock_quantity >= ?", -delta)
	}
	res := q.Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	return res.RowsAffected > 0, res.Error
}

// SoftDelete frees the slug for reuse before deleting.
func (r *productRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Model(&types.Product{}).Where("id = ?", id).
		Updates(map[string]any{"slug": "deleted-" + id.String(), "is_active": false}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&types.Product{}).Error
}

func (r *productRepo) SlugExists(dbc dbctx.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Unscoped().Model(&types.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *productRepo) CountByCategory(dbc dbctx.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *productRepo) HasOrderItems(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.OrderItem{}).Where("product_id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *productRepo) ReplaceTags(dbc dbctx.Context, productID uuid.UUID, tagIDs []uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("product_id = ?", productID).Delete(&types.ProductTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	seen := map[uuid.UUID]bool{}
	rows := make([]types.ProductTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, types.ProductTag{ProductID: productID, TagID: id})
	}
	return tx.Create(&rows).Error
}

func (r *productRepo) ReplaceAllergens(dbc dbctx.Context, productID uuid.UUID, rows []types.ProductAllergen) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("product_id = ?", productID).Delete(&types.ProductAllergen{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	seen := map[uuid.UUID]bool{}
	out := make([]types.ProductAllergen, 0, len(rows))
	for _, row := range rows {
		if seen[row.AllergenID] {
			continue
		}
		seen[row.AllergenID] = true
		row.ProductID = productID
		out = append(out, row)
	}
	return tx.Create(&out).Error
}

func (r *productRepo) Stats(dbc dbctx.Context) (*Stats, error) {
	base := dbc.DB(r.db).Model(&types.Product{}).Session(&gorm.Session{})
	var s Stats
	if err := base.Count(&s.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Where("is_active = ?", true).Count(&s.Active).Error; err != nil {
		return nil, err
	}
	if err := base.Where("stock_quantity BETWEEN ? AND ?", 1, 5).Count(&s.LowStock).Error; err != nil {
		return nil, err
	}
	if err := base.Where("stock_quantity = ?", 0).Count(&s.OutOfStock).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
