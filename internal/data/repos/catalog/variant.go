package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type VariantRepo interface {
	Create(dbc dbctx.Context, v *types.ProductVariant) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVariant, error)
	ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductVariant, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	ClearDefault(dbc dbctx.Context, productID uuid.UUID, exceptID uuid.UUID) error
	AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	SKUExists(dbc dbctx.Context, sku string, excludeID *uuid.UUID) (bool, error)
}

type variantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return &variantRepo{db: db, log: baseLog.With("repo", "VariantRepo")}
}

func (r *variantRepo) Create(dbc dbctx.Context, v *types.ProductVariant) error {
	return dbc.DB(r.db).Create(v).Error
}

func (r *variantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductVariant, error) {
	var rows []*types.ProductVariant
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *variantRepo) ListByProduct(dbc dbctx.Context, productID uuid.UUID) ([]*types.ProductVariant, error) {
	var rows []*types.ProductVariant
	err := dbc.DB(r.db).Where("product_id = ?", productID).
		Order("is_default DESC").Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *variantRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.ProductVariant{}).Where("id = ?", id).Updates(fields).Error
}

func (r *variantRepo) ClearDefault(dbc dbctx.Context, productID uuid.UUID, exceptID uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.ProductVariant{}).
		Where("product_id = ? AND id <> ? AND is_default = ?", productID, exceptID, true).
		Update("is_default", false).Error
}

func (r *variantRepo) AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (bool, error) {
	q := dbc.DB(r.db).Model(&types.ProductVariant{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("stock_quantity >= ?", -delta)
	}
	res := q.Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	return res.RowsAffected > 0, res.Error
}

func (r *variantRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.ProductVariant{}).Error
}

func (r *variantRepo) SKUExists(dbc dbctx.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Model(&types.ProductVariant{}).Where("sku = ?", sku)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}
