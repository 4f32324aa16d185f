package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	slugRe  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

type CategorySeed struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Children    []CategorySeed `yaml:"children"`
}

type TagSeed struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Color string `yaml:"color"`
}

type AllergenSeed struct {
	Name        string `yaml:"name"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
}

type Catalog struct {
	Categories []CategorySeed `yaml:"categories"`
	Tags       []TagSeed      `yaml:"tags"`
	Allergens  []AllergenSeed `yaml:"allergens"`
}

// Counts is created/updated per kind.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type Result struct {
	Categories Counts `json:"categories"`
	Tags       Counts `json:"tags"`
	Allergens  Counts `json:"allergens"`
}

// Default returns the embedded catalog.
func Default() (Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse seed catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

func (c Catalog) validate() error {
	seen := map[string]bool{}
	var walk func(nodes []CategorySeed) error
	walk = func(nodes []CategorySeed) error {
		for _, n := range nodes {
			if strings.TrimSpace(n.Name) == "" {
				return fmt.Errorf("category %q: name is required", n.Slug)
			}
			if !slugRe.MatchString(n.Slug) {
				return fmt.Errorf("category %q: invalid slug %q", n.Name, n.Slug)
			}
			if seen[n.Slug] {
				return fmt.Errorf("category slug %q listed twice", n.Slug)
			}
			seen[n.Slug] = true
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(c.Categories); err != nil {
		return err
	}
	for _, t := range c.Tags {
		if strings.TrimSpace(t.Name) == "" {
			return errors.New("tag name is required")
		}
		if !slices.Contains(catalog.TagTypes, t.Type) {
			return fmt.Errorf("tag %q: unknown type %q", t.Name, t.Type)
		}
		if t.Color != "" && !colorRe.MatchString(t.Color) {
			return fmt.Errorf("tag %q: invalid color %q", t.Name, t.Color)
		}
	}
	for _, a := range c.Allergens {
		if strings.TrimSpace(a.Name) == "" {
			return errors.New("allergen name is required")
		}
		if a.Severity != "" && !slices.Contains(catalog.AllergenSeverities, a.Severity) {
			return fmt.Errorf("allergen %q: unknown severity %q", a.Name, a.Severity)
		}
	}
	return nil
}

// Run loads the embedded catalog into db.
func Run(ctx context.Context, db *gorm.DB, log *logger.Logger) (Result, error) {
	cat, err := Default()
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, db, log, cat)
}

// Apply upserts categories by slug and tags and allergens by name in one
// transaction. Rows an admin deactivated stay inactive.
func Apply(ctx context.Context, db *gorm.DB, log *logger.Logger, cat Catalog) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertCategories(tx, cat.Categories, nil, &res.Categories); err != nil {
			return err
		}
		for _, t := range cat.Tags {
			if err := upsertTag(tx, t, &res.Tags); err != nil {
				return err
			}
		}
		for _, a := range cat.Allergens {
			if err := upsertAllergen(tx, a, &res.Allergens); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if log != nil {
		log.Info("Seed applied",
			"categories_created", res.Categories.Created,
			"categories_updated", res.Categories.Updated,
			"tags_created", res.Tags.Created,
			"tags_updated", res.Tags.Updated,
			"allergens_created", res.Allergens.Created,
			"allergens_updated", res.Allergens.Updated,
		)
	}
	return res, nil
}

func upsertCategories(tx *gorm.DB, nodes []CategorySeed, parentID *uuid.UUID, n *Counts) error {
	for i, node := range nodes {
		var row types.Category
		err := tx.Where("slug = ?", node.Slug).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = types.Category{
				Name:        node.Name,
				Slug:        node.Slug,
				Description: node.Description,
				ParentID:    parentID,
				SortOrder:   i,
				IsActive:    true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create category %s: %w", node.Slug, err)
			}
			n.Created++
		case err != nil:
			return fmt.Errorf("load category %s: %w", node.Slug, err)
		default:
			if err := tx.Model(&row).Updates(map[string]any{
				"name":        node.Name,
				"description": node.Description,
				"parent_id":   parentID,
				"sort_order":  i,
			}).Error; err != nil {
				return fmt.Errorf("update category %s: %w", node.Slug, err)
			}
			n.Updated++
		}
		if len(node.Children) > 0 {
			id := row.ID
			if err := upsertCategories(tx, node.Children, &id, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func upsertTag(tx *gorm.DB, t TagSeed, n *Counts) error {
	var row types.Tag
	err := tx.Where("name = ?", t.Name).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = types.Tag{Name: t.Name, Type: t.Type, Color: t.Color}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create tag %s: %w", t.Name, err)
		}
		n.Created++
	case err != nil:
		return fmt.Errorf("load tag %s: %w", t.Name, err)
	default:
		if err := tx.Model(&row).Updates(map[string]any{"type": t.Type, "color": t.Color}).Error; err != nil {
			return fmt.Errorf("update tag %s: %w", t.Name, err)
		}
		n.Updated++
	}
	return nil
}

func upsertAllergen(tx *gorm.DB, a AllergenSeed, n *Counts) error {
	var row types.Allergen
	err := tx.Where("name = ?", a.Name).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = types.Allergen{Name: a.Name, Severity: a.Severity, Description: a.Description}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create allergen %s: %w", a.Name, err)
		}
		n.Created++
	case err != nil:
		return fmt.Errorf("load allergen %s: %w", a.Name, err)
	default:
		if err := tx.Model(&row).Updates(map[string]any{"severity": a.Severity, "description": a.Description}).Error; err != nil {
			return fmt.Errorf("update allergen %s: %w", a.Name, err)
		}
		n.Updated++
	}
	return nil
}
