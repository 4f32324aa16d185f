package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	domaincatalog "github.com/yungbote/deelicious-bakes-backend/internal/domain/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const (
	defaultTagColor    = "#E8A0BF"
	defaultSeverity    = "moderate"
	maxTagNameLen      = 50
	maxAllergenNameLen = 100
	maxAllergenDescLen = 500
)

type TagInput struct {
	Name  string `json:"name" binding:"required,max=50"`
	Type  string `json:"type" binding:"required"`
	Color string `json:"color" binding:"omitempty,hexcolor6"`
}

type TagPatch struct {
	Name  *string `json:"name" binding:"omitempty,max=50"`
	Type  *string `json:"type"`
	Color *string `json:"color" binding:"omitempty,hexcolor6"`
}

type AllergenInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Severity    string `json:"severity"`
}

type AllergenPatch struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Severity    *string `json:"severity"`
}

// TaxonomyService manages tags and allergens.
type TaxonomyService interface {
	ListTags(ctx context.Context, tagType string) ([]*types.Tag, error)
	CreateTag(ctx context.Context, in TagInput) (*types.Tag, error)
	UpdateTag(ctx context.Context, id uuid.UUID, patch TagPatch) (*types.Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error

	ListAllergens(ctx context.Context) ([]*types.Allergen, error)
	CreateAllergen(ctx context.Context, in AllergenInput) (*types.Allergen, error)
	UpdateAllergen(ctx context.Context, id uuid.UUID, patch AllergenPatch) (*types.Allergen, error)
	DeleteAllergen(ctx context.Context, id uuid.UUID) error
}

type taxonomyService struct {
	db           *gorm.DB
	log          *logger.Logger
	tagRepo      repos.TagRepo
	allergenRepo repos.AllergenRepo
	categories   CategoryService
}

func NewTaxonomyService(db *gorm.DB, log *logger.Logger, tagRepo repos.TagRepo, allergenRepo repos.AllergenRepo, categories CategoryService) TaxonomyService {
	return &taxonomyService{
		db:           db,
		log:          log.With("service", "TaxonomyService"),
		tagRepo:      tagRepo,
		allergenRepo: allergenRepo,
		categories:   categories,
	}
}

func checkTag(name, tagType, color string) error {
	if n := len(name); n == 0 || n > maxTagNameLen {
		return apierr.BadRequest("invalid_name", "Tag name is required and must be at most 50 characters")
	}
	if !oneOf(tagType, domaincatalog.TagTypes) {
		return apierr.BadRequest("invalid_tag_type", "Tag type must be one of "+strings.Join(domaincatalog.TagTypes, ", "))
	}
	if !hexColorPattern.MatchString(color) {
		return apierr.BadRequest("invalid_color", "Color must be a #RRGGBB hex value")
	}
	return nil
}

func (ts *taxonomyService) ListTags(ctx context.Context, tagType string) ([]*types.Tag, error) {
	tagType = strings.TrimSpace(tagType)
	if tagType != "" && !oneOf(tagType, domaincatalog.TagTypes) {
		return nil, apierr.BadRequest("invalid_tag_type", "Unknown tag type")
	}
	return ts.tagRepo.List(dbctx.New(ctx), tagType)
}

func (ts *taxonomyService) ensureTagNameFree(dbc dbctx.Context, name string, exclude *uuid.UUID) error {
	existing, err := ts.tagRepo.GetByName(dbc, name)
	if err != nil {
		return fmt.Errorf("load tag: %w", err)
	}
	if existing != nil && (exclude == nil || existing.ID != *exclude) {
		return apierr.Conflict("tag_taken", "A tag with this name already exists")
	}
	return nil
}

func (ts *taxonomyService) CreateTag(ctx context.Context, in TagInput) (*types.Tag, error) {
	t := &types.Tag{
		Name:  strings.TrimSpace(in.Name),
		Type:  strings.TrimSpace(in.Type),
		Color: strings.TrimSpace(in.Color),
	}
	if t.Color == "" {
		t.Color = defaultTagColor
	}
	if err := checkTag(t.Name, t.Type, t.Color); err != nil {
		return nil, err
	}
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ts.ensureTagNameFree(dbc, t.Name, nil); err != nil {
			return err
		}
		return ts.tagRepo.Create(dbc, t)
	})
	if err != nil {
		return nil, err
	}
	ts.categories.InvalidateCaches(ctx)
	return t, nil
}

func (ts *taxonomyService) UpdateTag(ctx context.Context, id uuid.UUID, patch TagPatch) (*types.Tag, error) {
	var out *types.Tag
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ts.tagRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load tag: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("tag")
		}
		next := *cur
		fields := map[string]any{}
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
			fields["name"] = next.Name
		}
		if patch.Type != nil {
			next.Type = strings.TrimSpace(*patch.Type)
			fields["type"] = next.Type
		}
		if patch.Color != nil {
			next.Color = strings.TrimSpace(*patch.Color)
			fields["color"] = next.Color
		}
		if err := checkTag(next.Name, next.Type, next.Color); err != nil {
			return err
		}
		if next.Name != cur.Name {
			if err := ts.ensureTagNameFree(dbc, next.Name, &id); err != nil {
				return err
			}
		}
		if err := ts.tagRepo.UpdateFields(dbc, id, fields); err != nil {
			return fmt.Errorf("update tag: %w", err)
		}
		out, err = ts.tagRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ts.categories.InvalidateCaches(ctx)
	return out, nil
}

func (ts *taxonomyService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ts.tagRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load tag: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("tag")
		}
		return ts.tagRepo.Delete(dbc, id)
	})
	if err != nil {
		return err
	}
	ts.categories.InvalidateCaches(ctx)
	return nil
}

func checkAllergen(name, description, severity string) error {
	if n := len(name); n == 0 || n > maxAllergenNameLen {
		return apierr.BadRequest("invalid_name", "Allergen name is required and must be at most 100 characters")
	}
	if err := checkMaxLen("Description", description, maxAllergenDescLen); err != nil {
		return err
	}
	if !oneOf(severity, domaincatalog.AllergenSeverities) {
		return apierr.BadRequest("invalid_severity", "Severity must be one of "+strings.Join(domaincatalog.AllergenSeverities, ", "))
	}
	return nil
}

func (ts *taxonomyService) ListAllergens(ctx context.Context) ([]*types.Allergen, error) {
	return ts.allergenRepo.List(dbctx.New(ctx))
}

func (ts *taxonomyService) ensureAllergenNameFree(dbc dbctx.Context, name string, exclude *uuid.UUID) error {
	existing, err := ts.allergenRepo.GetByName(dbc, name)
	if err != nil {
		return fmt.Errorf("load allergen: %w", err)
	}
	if existing != nil && (exclude == nil || existing.ID != *exclude) {
		return apierr.Conflict("allergen_taken", "An allergen with this name already exists")
	}
	return nil
}

func (ts *taxonomyService) CreateAllergen(ctx context.Context, in AllergenInput) (*types.Allergen, error) {
	a := &types.Allergen{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Severity:    strings.TrimSpace(in.Severity),
	}
	if a.Severity == "" {
		a.Severity = defaultSeverity
	}
	if err := checkAllergen(a.Name, a.Description, a.Severity); err != nil {
		return nil, err
	}
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := ts.ensureAllergenNameFree(dbc, a.Name, nil); err != nil {
			return err
		}
		return ts.allergenRepo.Create(dbc, a)
	})
	if err != nil {
		return nil, err
	}
	ts.categories.InvalidateCaches(ctx)
	return a, nil
}

func (ts *taxonomyService) UpdateAllergen(ctx context.Context, id uuid.UUID, patch AllergenPatch) (*types.Allergen, error) {
	var out *types.Allergen
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ts.allergenRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load allergen: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("allergen")
		}
		next := *cur
		fields := map[string]any{}
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
			fields["name"] = next.Name
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
			fields["description"] = next.Description
		}
		if patch.Severity != nil {
			next.Severity = strings.TrimSpace(*patch.Severity)
			fields["severity"] = next.Severity
		}
		if err := checkAllergen(next.Name, next.Description, next.Severity); err != nil {
			return err
		}
		if next.Name != cur.Name {
			if err := ts.ensureAllergenNameFree(dbc, next.Name, &id); err != nil {
				return err
			}
		}
		if err := ts.allergenRepo.UpdateFields(dbc, id, fields); err != nil {
			return fmt.Errorf("update allergen: %w", err)
		}
		out, err = ts.allergenRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ts.categories.InvalidateCaches(ctx)
	return out, nil
}

func (ts *taxonomyService) DeleteAllergen(ctx context.Context, id uuid.UUID) error {
	err := ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		cur, err := ts.allergenRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load allergen: %w", err)
		}
		if cur == nil {
			return apierr.NotFound("allergen")
		}
		return ts.allergenRepo.Delete(dbc, id)
	})
	if err != nil {
		return err
	}
	ts.categories.InvalidateCaches(ctx)
	return nil
}
