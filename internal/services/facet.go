package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	popularTagsLimit = 10
	suggestionLimit  = 5
)

type FilterFacets struct {
	Categories []repos.CategoryCount `json:"categories"`
	Tags       []repos.TagCount      `json:"tags"`
	Allergens  []repos.AllergenCount `json:"allergens"`
	PriceRange repos.PriceRange      `json:"price_range"`
	Flavors    []repos.ValueCount    `json:"flavors"`
	Sizes      []repos.ValueCount    `json:"sizes"`
	Types      []repos.ValueCount    `json:"types"`
}

type FilterSuggestions struct {
	Tags       []repos.TagCount      `json:"tags"`
	Categories []repos.CategoryCount `json:"categories"`
}

type FacetConfig struct {
	CacheTTL time.Duration
	// Concurrency bounds the facet queries in flight for one request.
	Concurrency int
}

type FacetService interface {
	GetFilterFacets(ctx context.Context, categoryID *uuid.UUID) (*FilterFacets, error)
	PopularTags(ctx context.Context, limit int) ([]repos.TagCount, error)
	DietaryTags(ctx context.Context) ([]*types.Tag, error)
	OccasionTags(ctx context.Context) ([]*types.Tag, error)
	Suggestions(ctx context.Context, categoryID *uuid.UUID, selectedTags []uuid.UUID) (*FilterSuggestions, error)
}

type facetService struct {
	log        *logger.Logger
	facetRepo  repos.FacetRepo
	tagRepo    repos.TagRepo
	categories CategoryService
	cache      cache.Cache
	cfg        FacetConfig
}

func NewFacetService(log *logger.Logger, facetRepo repos.FacetRepo, tagRepo repos.TagRepo, categories CategoryService, c cache.Cache, cfg FacetConfig) FacetService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &facetService{
		log:        log.With("service", "FacetService"),
		facetRepo:  facetRepo,
		tagRepo:    tagRepo,
		categories: categories,
		cache:      c,
		cfg:        cfg,
	}
}

func facetsKey(categoryID *uuid.UUID) string {
	if categoryID == nil {
		return facetsKeyPrefix + "all"
	}
	return facetsKeyPrefix + categoryID.String()
}

// scope returns the category ids to restrict to. A nil slice with ok=true
// means every active product; ok=false means the category is unknown.
func (fs *facetService) scope(ctx context.Context, categoryID *uuid.UUID) ([]uuid.UUID, bool, error) {
	if categoryID == nil {
		return nil, true, nil
	}
	ids, err := fs.categories.SubtreeIDs(ctx, *categoryID)
	if err != nil {
		return nil, false, err
	}
	return ids, len(ids) > 0, nil
}

func (fs *facetService) GetFilterFacets(ctx context.Context, categoryID *uuid.UUID) (*FilterFacets, error) {
	key := facetsKey(categoryID)
	var cached FilterFacets
	hit, err := cache.GetJSON(ctx, fs.cache, key, &cached)
	if err != nil {
		fs.log.Warn("Facet cache read failed", "key", key, "error", err)
	}
	observability.Current().IncCacheLookup("facets", hit)
	if hit {
		return &cached, nil
	}

	ids, ok, err := fs.scope(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := &FilterFacets{}
	if ok {
		if err := fs.collect(ctx, ids, out); err != nil {
			return nil, err
		}
	}
	out = shapeFacets(out)
	if err := cache.SetJSON(ctx, fs.cache, key, out, fs.cfg.CacheTTL); err != nil {
		fs.log.Warn("Facet cache write failed", "key", key, "error", err)
	}
	return out, nil
}

func (fs *facetService) collect(ctx context.Context, ids []uuid.UUID, out *FilterFacets) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.cfg.Concurrency)
	dbc := dbctx.New(gctx)

	g.Go(func() error {
		rows, err := fs.facetRepo.CategoryCounts(dbc, ids)
		if err != nil {
			return fmt.Errorf("category facet: %w", err)
		}
		out.Categories = rows
		return nil
	})
	g.Go(func() error {
		rows, err := fs.facetRepo.TagCounts(dbc, ids)
		if err != nil {
			return fmt.Errorf("tag facet: %w", err)
		}
		out.Tags = rows
		return nil
	})
	g.Go(func() error {
		rows, err := fs.facetRepo.AllergenCounts(dbc, ids)
		if err != nil {
			return fmt.Errorf("allergen facet: %w", err)
		}
		out.Allergens = rows
		return nil
	})
	g.Go(func() error {
		pr, err := fs.facetRepo.PriceRange(dbc, ids)
		if err != nil {
			return fmt.Errorf("price facet: %w", err)
		}
		out.PriceRange = pr
		return nil
	})
	for column, dst := range map[string]*[]repos.ValueCount{
		repos.VariantFlavor: &out.Flavors,
		repos.VariantSize:   &out.Sizes,
		repos.VariantType:   &out.Types,
	} {
		g.Go(func() error {
			rows, err := fs.facetRepo.VariantValueCounts(dbc, ids, column)
			if err != nil {
				return fmt.Errorf("%s facet: %w", column, err)
			}
			*dst = rows
			return nil
		})
	}
	return g.Wait()
}

// shapeFacets replaces nil groups with empty ones so every key serializes
// as a list.
func shapeFacets(f *FilterFacets) *FilterFacets {
	if f == nil {
		f = &FilterFacets{}
	}
	if f.Categories == nil {
		f.Categories = []repos.CategoryCount{}
	}
	if f.Tags == nil {
		f.Tags = []repos.TagCount{}
	}
	if f.Allergens == nil {
		f.Allergens = []repos.AllergenCount{}
	}
	if f.Flavors == nil {
		f.Flavors = []repos.ValueCount{}
	}
	if f.Sizes == nil {
		f.Sizes = []repos.ValueCount{}
	}
	if f.Types == nil {
		f.Types = []repos.ValueCount{}
	}
	return f
}

func byCountThenName(tags []repos.TagCount) []repos.TagCount {
	out := append([]repos.TagCount(nil), tags...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (fs *facetService) PopularTags(ctx context.Context, limit int) ([]repos.TagCount, error) {
	limit = clampLimit(limit, popularTagsLimit, 50)
	rows, err := fs.facetRepo.TagCounts(dbctx.New(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	rows = byCountThenName(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (fs *facetService) DietaryTags(ctx context.Context) ([]*types.Tag, error) {
	return fs.tagRepo.List(dbctx.New(ctx), "dietary")
}

func (fs *facetService) OccasionTags(ctx context.Context) ([]*types.Tag, error) {
	return fs.tagRepo.List(dbctx.New(ctx), "occasion")
}

// pickSuggestions keeps the top tags not already selected and, when no
// category is selected, the top categories.
func pickSuggestions(tags []repos.TagCount, cats []repos.CategoryCount, selected []uuid.UUID, includeCategories bool) *FilterSuggestions {
	skip := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		skip[id] = true
	}
	out := &FilterSuggestions{Tags: []repos.TagCount{}, Categories: []repos.CategoryCount{}}
	for _, t := range byCountThenName(tags) {
		if len(out.Tags) == suggestionLimit {
			break
		}
		if !skip[t.ID] {
			out.Tags = append(out.Tags, t)
		}
	}
	if includeCategories {
		for _, c := range cats {
			if len(out.Categories) == suggestionLimit {
				break
			}
			out.Categories = append(out.Categories, c)
		}
	}
	return out
}

func (fs *facetService) Suggestions(ctx context.Context, categoryID *uuid.UUID, selectedTags []uuid.UUID) (*FilterSuggestions, error) {
	ids, ok, err := fs.scope(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return pickSuggestions(nil, nil, nil, false), nil
	}
	dbc := dbctx.New(ctx)
	tags, err := fs.facetRepo.TagCounts(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("tag suggestions: %w", err)
	}
	var cats []repos.CategoryCount
	if categoryID == nil {
		cats, err = fs.facetRepo.CategoryCounts(dbc, nil)
		if err != nil {
			return nil, fmt.Errorf("category suggestions: %w", err)
		}
	}
	return pickSuggestions(tags, cats, selectedTags, categoryID == nil), nil
}
