package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, t *types.Tag) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error)
	GetByName(dbc dbctx.Context, name string) (*types.Tag, error)
	List(dbc dbctx.Context, tagType string) ([]*types.Tag, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) Create(dbc dbctx.Context, t *types.Tag) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *tagRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error) {
	var rows []*types.Tag
	if len(ids) == 0 {
		return rows, nil
	}
	err := dbc.DB(r.db).Where("id IN ?", ids).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *tagRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error) {
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *tagRepo) GetByName(dbc dbctx.Context, name string) (*types.Tag, error) {
	var rows []*types.Tag
	if err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// List returns every tag, or only tags of tagType when it is set.
func (r *tagRepo) List(dbc dbctx.Context, tagType string) ([]*types.Tag, error) {
	q := dbc.DB(r.db).Model(&types.Tag{})
	if tagType != "" {
		q = q.Where("type = ?", tagType)
	}
	var rows []*types.Tag
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *tagRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Tag{}).Where("id = ?", id).Updates(fields).Error
}

// Delete detaches the tag from every product first.
func (r *tagRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("tag_id = ?", id).Delete(&types.ProductTag{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&types.Tag{}).Error
}
