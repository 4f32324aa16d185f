package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type CategoryCount struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Count int64     `json:"count"`
}

type TagCount struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Color string    `json:"color"`
	Count int64     `json:"count"`
}

type AllergenCount struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Severity string    `json:"severity"`
	Count    int64     `json:"count"`
}

type PriceRange struct {
	MinCents int64 `json:"min_cents"`
	MaxCents int64 `json:"max_cents"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Variant columns that can be faceted.
const (
	VariantFlavor = "flavor"
	VariantSize   = "size"
	VariantType   = "type"
)

// FacetRepo runs the grouped counts behind the filter sidebar. Every query is
// scoped to active products, optionally restricted to a set of categories.
type FacetRepo interface {
	CategoryCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]CategoryCount, error)
	TagCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]TagCount, error)
	AllergenCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]AllergenCount, error)
	PriceRange(dbc dbctx.Context, categoryIDs []uuid.UUID) (PriceRange, error)
	VariantValueCounts(dbc dbctx.Context, categoryIDs []uuid.UUID, column string) ([]ValueCount, error)
}

type facetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFacetRepo(db *gorm.DB, baseLog *logger.Logger) FacetRepo {
	return &facetRepo{db: db, log: baseLog.With("repo", "FacetRepo")}
}

func inScope(q *gorm.DB, categoryIDs []uuid.UUID) *gorm.DB {
	q = q.Where("product.is_active = ? AND product.deleted_at IS NULL", true)
	if len(categoryIDs) > 0 {
		q = q.Where("product.category_id IN ?", categoryIDs)
	}
	return q
}

func (r *facetRepo) CategoryCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]CategoryCount, error) {
	var rows []CategoryCount
	q := dbc.DB(r.db).Table("category").
		Select("category.id AS id, category.name AS name, category.slug AS slug, COUNT(product.id) AS count").
		Joins("JOIN product ON product.category_id = category.id").
		Where("category.is_active = ?", true)
	err := inScope(q, categoryIDs).
		Group("category.id, category.name, category.slug").
		Having("COUNT(product.id) > ?", 0).
		Order("count DESC").Order("category.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *facetRepo) TagCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]TagCount, error) {
	var rows []TagCount
	q := dbc.DB(r.db).Table("tag").
		Select("tag.id AS id, tag.name AS name, tag.type AS type, tag.color AS color, COUNT(DISTINCT product.id) AS count").
		Joins("JOIN product_tag ON product_tag.tag_id = tag.id").
		Joins("JOIN product ON product.id = product_tag.product_id")
	err := inScope(q, categoryIDs).
		Group("tag.id, tag.name, tag.type, tag.color").
		Having("COUNT(DISTINCT product.id) > ?", 0).
		Order("tag.type ASC").Order("count DESC").Order("tag.name ASC").
		Scan(&rows).Error
	return rows, err
}

// AllergenCounts only counts products that contain the allergen.
func (r *facetRepo) AllergenCounts(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]AllergenCount, error) {
	var rows []AllergenCount
	q := dbc.DB(r.db).Table("allergen").
		Select("allergen.id AS id, allergen.name AS name, allergen.severity AS severity, COUNT(DISTINCT product.id) AS count").
		Joins("JOIN product_allergen ON product_allergen.allergen_id = allergen.id").
		Joins("JOIN product ON product.id = product_allergen.product_id").
		Where("product_allergen.contains_allergen = ?", true)
	err := inScope(q, categoryIDs).
		Group("allergen.id, allergen.name, allergen.severity").
		Having("COUNT(DISTINCT product.id) > ?", 0).
		Order("count DESC").Order("allergen.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *facetRepo) PriceRange(dbc dbctx.Context, categoryIDs []uuid.UUID) (PriceRange, error) {
	var out PriceRange
	q := dbc.DB(r.db).Table("product").
		Select("COALESCE(MIN(product.base_price_cents), 0) AS min_cents, COALESCE(MAX(product.base_price_cents), 0) AS max_cents")
	err := inScope(q, categoryIDs).Scan(&out).Error
	return out, err
}

// VariantValueCounts counts distinct products per non-empty value of an
// available variant column.
func (r *facetRepo) VariantValueCounts(dbc dbctx.Context, categoryIDs []uuid.UUID, column string) ([]ValueCount, error) {
	switch column {
	case VariantFlavor, VariantSize, VariantType:
	default:
		return nil, fmt.Errorf("unsupported variant facet %q", column)
	}
	col := "product_variant." + column
	var rows []ValueCount
	q := dbc.DB(r.db).Table("product_variant").
		Select(col+" AS value, COUNT(DISTINCT product_variant.product_id) AS count").
		Joins("JOIN product ON product.id = product_variant.product_id").
		Where("product_variant.is_available = ?", true).
		Where(col+" IS NOT NULL").
		Where(col+" <> ?", "")
	err := inScope(q, categoryIDs).
		Group(col).
		Order("count DESC").Order("value ASC").
		Scan(&rows).Error
	return rows, err
}
