package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, c *types.Category) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.Category, error)
	Children(dbc dbctx.Context, parentID uuid.UUID, activeOnly bool) ([]*types.Category, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	SetSortOrder(dbc dbctx.Context, id uuid.UUID, sortOrder int) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	SlugExists(dbc dbctx.Context, slug string, excludeID *uuid.UUID) (bool, error)
	CountChildren(dbc dbctx.Context, id uuid.UUID) (int64, error)
	ActiveProductCounts(dbc dbctx.Context) (map[uuid.UUID]int64, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, c *types.Category) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *categoryRepo) first(q *gorm.DB) (*types.Category, error) {
	var rows []*types.Category
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *categoryRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error) {
	return r.first(dbc.DB(r.db).Where("slug = ?", slug))
}

func (r *categoryRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.Category, error) {
	q := dbc.DB(r.db).Model(&types.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []*types.Category
	err := q.Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *categoryRepo) Children(dbc dbctx.Context, parentID uuid.UUID, activeOnly bool) ([]*types.Category, error) {
	q := dbc.DB(r.db).Where("parent_id = ?", parentID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []*types.Category
	err := q.Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *categoryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Category{}).Where("id = ?", id).Updates(fields).Error
}

// SetSortOrder reports false when no category has the id.
func (r *categoryRepo) SetSortOrder(dbc dbctx.Context, id uuid.UUID, sortOrder int) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Category{}).Where("id = ?", id).Update("sort_order", sortOrder)
	return res.RowsAffected > 0, res.Error
}

func (r *categoryRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Category{}).Error
}

func (r *categoryRepo) SlugExists(dbc dbctx.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Model(&types.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *categoryRepo) CountChildren(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Category{}).Where("parent_id = ?", id).Count(&n).Error
	return n, err
}

// ActiveProductCounts counts active products directly assigned to each category.
func (r *categoryRepo) ActiveProductCounts(dbc dbctx.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("is_active = ? AND category_id IS NOT NULL", true).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.Count
	}
	return out, nil
}
