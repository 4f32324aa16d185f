package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type AllergenRepo interface {
	Create(dbc dbctx.Context, a *types.Allergen) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Allergen, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Allergen, error)
	GetByName(dbc dbctx.Context, name string) (*types.Allergen, error)
	List(dbc dbctx.Context) ([]*types.Allergen, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type allergenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAllergenRepo(db *gorm.DB, baseLog *logger.Logger) AllergenRepo {
	return &allergenRepo{db: db, log: baseLog.With("repo", "AllergenRepo")}
}

func (r *allergenRepo) Create(dbc dbctx.Context, a *types.Allergen) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *allergenRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Allergen, error) {
	var rows []*types.Allergen
	if len(ids) == 0 {
		return rows, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *allergenRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Allergen, error) {
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *allergenRepo) GetByName(dbc dbctx.Context, name string) (*types.Allergen, error) {
	var rows []*types.Allergen
	if err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *allergenRepo) List(dbc dbctx.Context) ([]*types.Allergen, error) {
	var rows []*types.Allergen
	err := dbc.DB(r.db).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *allergenRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Allergen{}).Where("id = ?", id).Updates(fields).Error
}

func (r *allergenRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("allergen_id = ?", id).Delete(&types.ProductAllergen{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&types.Allergen{}).Error
}
