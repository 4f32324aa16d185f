package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	categoryTreeKey = "catalog:category_tree"
	facetsKeyPrefix = "facets:"
	maxCategoryDesc = 2000
	maxCategoryName = 100
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type CategoryInput struct {
	Name        string     `json:"name" binding:"required,max=100"`
	Slug        string     `json:"slug" binding:"omitempty,slug"`
	Description string     `json:"description" binding:"max=2000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
}

// CategoryPatch leaves nil fields untouched; ClearParent moves the category to the root.
type CategoryPatch struct {
	Name        *string    `json:"name" binding:"omitempty,max=100"`
	Slug        *string    `json:"slug" binding:"omitempty,slug"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
	SortOrder   *int       `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
}

type ReorderItem struct {
	ID        uuid.UUID `json:"id" binding:"required"`
	SortOrder int       `json:"sort_order"`
}

type CategoryWithCount struct {
	types.Category
	ProductCount int64 `json:"product_count"`
}

type CategoryService interface {
	Tree(ctx context.Context) ([]*catalog.Node, error)
	Roots(ctx context.Context) ([]*types.Category, error)
	GetBySlug(ctx context.Context, slug string) (*types.Category, error)
	Subcategories(ctx context.Context, id uuid.UUID) ([]*types.Category, error)
	Breadcrumb(ctx context.Context, id uuid.UUID) ([]types.Category, error)
	WithStats(ctx context.Context) ([]CategoryWithCount, error)
	SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)

	List(ctx context.Context) ([]*types.Category, error)
	Create(ctx context.Context, in CategoryInput) (*types.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*types.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, items []ReorderItem) error
	ParentOptions(ctx context.Context, id uuid.UUID) ([]types.Category, error)
	InvalidateCaches(ctx context.Context)
}

type categoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	productRepo  repos.ProductRepo
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewCategoryService(db *gorm.DB, log *logger.Logger, categoryRepo repos.CategoryRepo, productRepo repos.ProductRepo, c cache.Cache, cacheTTL time.Duration) CategoryService {
	return &categoryService{
		db:           db,
		log:          log.With("service", "CategoryService"),
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

func flatten(rows []*types.Category) []types.Category {
	out := make([]types.Category, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (cs *categoryService) rows(ctx context.Context, activeOnly bool) ([]types.Category, error) {
	list, err := cs.categoryRepo.List(dbctx.New(ctx), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return flatten(list), nil
}

func (cs *categoryService) Tree(ctx context.Context) ([]*catalog.Node, error) {
	var cached []*catalog.Node
	hit, err := cache.GetJSON(ctx, cs.cache, categoryTreeKey, &cached)
	if err != nil {
		cs.log.Warn("Category tree cache read failed", "error", err)
	}
	observability.Current().IncCacheLookup("category_tree", hit)
	if hit {
		return cached, nil
	}

	rows, err := cs.rows(ctx, true)
	if err != nil {
		return nil, err
	}
	counts, err := cs.categoryRepo.ActiveProductCounts(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	tree := catalog.BuildTree(rows, counts)
	if err := cache.SetJSON(ctx, cs.cache, categoryTreeKey, tree, cs.cacheTTL); err != nil {
		cs.log.Warn("Category tree cache write failed", "error", err)
	}
	return tree, nil
}

func (cs *categoryService) Roots(ctx context.Context) ([]*types.Category, error) {
	rows, err := cs.categoryRepo.List(dbctx.New(ctx), true)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]*types.Category, 0, len(rows))
	for _, r := range rows {
		if r.ParentID == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (cs *categoryService) GetBySlug(ctx context.Context, slug string) (*types.Category, error) {
	c, err := cs.categoryRepo.GetBySlug(dbctx.New(ctx), strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if c == nil || !c.IsActive {
		return nil, apierr.NotFound("category")
	}
	return c, nil
}

func (cs *categoryService) Subcategories(ctx context.Context, id uuid.UUID) ([]*types.Category, error) {
	return cs.categoryRepo.Children(dbctx.New(ctx), id, true)
}

func (cs *categoryService) Breadcrumb(ctx context.Context, id uuid.UUID) ([]types.Category, error) {
	rows, err := cs.rows(ctx, false)
	if err != nil {
		return nil, err
	}
	path := catalog.Breadcrumb(rows, id)
	if path == nil {
		return nil, apierr.NotFound("category")
	}
	return path, nil
}

func (cs *categoryService) WithStats(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := cs.rows(ctx, true)
	if err != nil {
		return nil, err
	}
	counts, err := cs.categoryRepo.ActiveProductCounts(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	catalog.SortCategories(rows)
	out := make([]CategoryWithCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryWithCount{Category: r, ProductCount: counts[r.ID]})
	}
	return out, nil
}

func (cs *categoryService) SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := cs.rows(ctx, false)
	if err != nil {
		return nil, err
	}
	return catalog.SubtreeIDs(rows, id), nil
}

func (cs *categoryService) List(ctx context.Context) ([]*types.Category, error) {
	return cs.categoryRepo.List(dbctx.New(ctx), false)
}

func validateCategoryFields(name, slug, description string) error {
	if n := len(strings.TrimSpace(name)); n == 0 || n > maxCategoryName {
		return apierr.BadRequest("invalid_name", "Name is required and must be at most 100 characters")
	}
	if !slugPattern.MatchString(slug) {
		return apierr.BadRequest("invalid_slug", "Slug may only contain lowercase letters, numbers and dashes")
	}
	return checkMaxLen("Description", description, maxCategoryDesc)
}

func (cs *categoryService) Create(ctx context.Context, in CategoryInput) (*types.Category, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = catalog.Slugify(name)
	}
	if err := validateCategoryFields(name, slug, in.Description); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	c := &types.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
		SortOrder:   in.SortOrder,
		IsActive:    active,
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := cs.ensureSlugFree(dbc, slug, nil); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := cs.categoryRepo.GetByID(dbc, *in.ParentID)
			if err != nil {
				return fmt.Errorf("load parent: %w", err)
			}
			if parent == nil {
				return apierr.BadRequest("invalid_parent", "Parent category does not exist")
			}
		}
		return cs.categoryRepo.Create(dbc, c)
	})
	if err != nil {
		return nil, err
	}
	cs.InvalidateCaches(ctx)
	return c, nil
}

func (cs *categoryService) ensureSlugFree(dbc dbctx.Context, slug string, exclude *uuid.UUID) error {
	exists, err := cs.categoryRepo.SlugExists(dbc, slug, exclude)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return apierr.Conflict("slug_taken", "A category with this slug already exists")
	}
	return nil
}

func (cs *categoryService) Update(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*types.Category, error) {
	var out *types.Category
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := cs.categoryRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("category")
		}
		name, slug, desc := cur.Name, cur.Slug, cur.Description
		fields := map[string]any{}
		if patch.Name != nil {
			name = strings.TrimSpace(*patch.Name)
			fields["name"] = name
		}
		if patch.Slug != nil {
			slug = strings.TrimSpace(*patch.Slug)
			fields["slug"] = slug
		}
		if patch.Description != nil {
			desc = strings.TrimSpace(*patch.Description)
			fields["description"] = desc
		}
		if err := validateCategoryFields(name, slug, desc); err != nil {
			return err
		}
		if slug != cur.Slug {
			if err := cs.ensureSlugFree(dbc, slug, &id); err != nil {
				return err
			}
		}
		switch {
		case patch.ClearParent:
			fields["parent_id"] = nil
		case patch.ParentID != nil:
			all, err := cs.categoryRepo.List(dbc, false)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}
			rows := flatten(all)
			if *patch.ParentID == id || catalog.IsDescendantOf(rows, *patch.ParentID, id) {
				return apierr.BadRequest("invalid_parent", "A category cannot be moved under itself or its descendants")
			}
			found := false
			for _, r := range rows {
				if r.ID == *patch.ParentID {
					found = true
					break
				}
			}
			if !found {
				return apierr.BadRequest("invalid_parent", "Parent category does not exist")
			}
			fields["parent_id"] = *patch.ParentID
		}
		if patch.SortOrder != nil {
			fields["sort_order"] = *patch.SortOrder
		}
		if patch.IsActive != nil {
			fields["is_active"] = *patch.IsActive
		}
		if len(fields) > 0 {
			if err := cs.categoryRepo.UpdateFields(dbc, id, fields); err != nil {
				return fmt.Errorf("update category: %w", err)
			}
		}
		out, err = cs.categoryRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.InvalidateCaches(ctx)
	return out, nil
}

func (cs *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := cs.categoryRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("category")
		}
		products, err := cs.productRepo.CountByCategory(dbc, id)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if products > 0 {
			return apierr.Conflict("category_has_products", "Cannot delete a category that still has products")
		}
		children, err := cs.categoryRepo.CountChildren(dbc, id)
		if err != nil {
			return fmt.Errorf("count children: %w", err)
		}
		if children > 0 {
			return apierr.Conflict("category_has_children", "Cannot delete a category that still has subcategories")
		}
		return cs.categoryRepo.Delete(dbc, id)
	})
	if err != nil {
		return err
	}
	cs.InvalidateCaches(ctx)
	return nil
}

func (cs *categoryService) Reorder(ctx context.Context, items []ReorderItem) error {
	if len(items) == 0 {
		return apierr.BadRequest("invalid_argument", "At least one category is required")
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		for _, it := range items {
			ok, err := cs.categoryRepo.SetSortOrder(dbc, it.ID, it.SortOrder)
			if err != nil {
				return fmt.Errorf("set sort order: %w", err)
			}
			if !ok {
				return apierr.NotFound("category " + it.ID.String())
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cs.InvalidateCaches(ctx)
	return nil
}

func (cs *categoryService) ParentOptions(ctx context.Context, id uuid.UUID) ([]types.Category, error) {
	rows, err := cs.rows(ctx, false)
	if err != nil {
		return nil, err
	}
	found := false
	for _, r := range rows {
		if r.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, apierr.NotFound("category")
	}
	return catalog.ValidParents(rows, id), nil
}

func (cs *categoryService) InvalidateCaches(ctx context.Context) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.Delete(ctx, categoryTreeKey); err != nil {
		cs.log.Warn("Category tree cache invalidation failed", "error", err)
	}
	if err := cs.cache.DeletePrefix(ctx, facetsKeyPrefix); err != nil {
		cs.log.Warn("Facet cache invalidation failed", "error", err)
	}
}
