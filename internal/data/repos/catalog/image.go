package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type ImageRepo interface {
	Create(dbc dbctx.Context, img *types.ProductImage) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductImage, error)
	ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductImage, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	ClearMain(dbc dbctx.Context, productID uuid.UUID, exceptID uuid.UUID) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type imageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageRepo(db *gorm.DB, baseLog *logger.Logger) ImageRepo {
	return &imageRepo{db: db, log: baseLog.With("repo", "ImageRepo")}
}

func (r *imageRepo) Create(dbc dbctx.Context, img *types.ProductImage) error {
	return dbc.DB(r.db).Create(img).Error
}

func (r *imageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductImage, error) {
	var rows []*types.ProductImage
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *imageRepo) ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductImage, error) {
	var rows []*types.ProductImage
	err := dbc.DB(r.db).Where("product_id = ?", productID).
		Order("is_main DESC").Order("sort_order ASC").
		Find(&rows).Error
	return rows, err
}

func (r *imageRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.ProductImage{}).Where("id = ?", id).Updates(fields).Error
}

func (r *imageRepo) ClearMain(dbc dbctx.Context, productID uuid.UUID, exceptID uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.ProductImage{}).
		Where("product_id = ? AND id <> ? AND is_main = ?", productID, exceptID, true).
		Update("is_main", false).Error
}

func (r *imageRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.ProductImage{}).Error
}
