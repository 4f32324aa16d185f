package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type CartRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error)
	GetBySessionID(dbc dbctx.Context, sessionID string) (*types.Cart, error)
	Create(dbc dbctx.Context, c *types.Cart) error
	Touch(dbc dbctx.Context, cartID uuid.UUID) error
	Delete(dbc dbctx.Context, cartID uuid.UUID) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
	DeleteStaleGuestCarts(dbc dbctx.Context, before time.Time) (int64, error)

	Items(dbc dbctx.Context, cartID uuid.UUID) ([]*types.CartItem, error)
	GetItem(dbc dbctx.Context, cartID, itemID uuid.UUID) (*types.CartItem, error)
	AddItem(dbc dbctx.Context, item *types.CartItem) error
	SetItemQuantity(dbc dbctx.Context, itemID uuid.UUID, qty int) error
	RemoveItems(dbc dbctx.Context, cartID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	Clear(dbc dbctx.Context, cartID uuid.UUID) error
	RemoveProduct(dbc dbctx.Context, productID uuid.UUID) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return &cartRepo{db: db, log: baseLog.With("repo", "CartRepo")}
}

func (r *cartRepo) first(q *gorm.DB) (*types.Cart, error) {
	var rows []*types.Cart
	if err := q.Order("created_at ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *cartRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error) {
	return r.first(dbc.DB(r.db).Where("user_id = ?", userID))
}

func (r *cartRepo) GetBySessionID(dbc dbctx.Context, sessionID string) (*types.Cart, error) {
	if sessionID == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("session_id = ? AND user_id IS NULL", sessionID))
}

func (r *cartRepo) Create(dbc dbctx.Context, c *types.Cart) error {
	return dbc.DB(r.db).Omit("Items").Create(c).Error
}

func (r *cartRepo) Touch(dbc dbctx.Context, cartID uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now().UTC()).Error
}

func (r *cartRepo) Delete(dbc dbctx.Context, cartID uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("cart_id = ?", cartID).Delete(&types.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", cartID).Delete(&types.Cart{}).Error
}

func (r *cartRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	tx := dbc.DB(r.db)
	var ids []uuid.UUID
	if err := tx.Model(&types.Cart{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("cart_id IN ?", ids).Delete(&types.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&types.Cart{}).Error
}

// DeleteStaleGuestCarts removes guest carts untouched since before.
func (r *cartRepo) DeleteStaleGuestCarts(dbc dbctx.Context, before time.Time) (int64, error) {
	tx := dbc.DB(r.db)
	var ids []uuid.UUID
	if err := tx.Model(&types.Cart{}).
		Where("user_id IS NULL AND updated_at < ?", before).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Where("cart_id IN ?", ids).Delete(&types.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id IN ?", ids).Delete(&types.Cart{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) Items(dbc dbctx.Context, cartID uuid.UUID) ([]*types.CartItem, error) {
	var rows []*types.CartItem
	err := dbc.DB(r.db).
		Preload("Product").
		Preload("Variant").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *cartRepo) GetItem(dbc dbctx.Context, cartID, itemID uuid.UUID) (*types.CartItem, error) {
	var rows []*types.CartItem
	if err := dbc.DB(r.db).
		Preload("Product").
		Preload("Variant").
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *cartRepo) AddItem(dbc dbctx.Context, item *types.CartItem) error {
	return dbc.DB(r.db).Omit("Product", "Variant").Create(item).Error
}

func (r *cartRepo) SetItemQuantity(dbc dbctx.Context, itemID uuid.UUID, qty int) error {
	return dbc.DB(r.db).Model(&types.CartItem{}).Where("id = ?", itemID).Update("quantity", qty).Error
}

func (r *cartRepo) RemoveItems(dbc dbctx.Context, cartID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&types.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) Clear(dbc dbctx.Context, cartID uuid.UUID) error {
	return dbc.DB(r.db).Where("cart_id = ?", cartID).Delete(&types.CartItem{}).Error
}

func (r *cartRepo) RemoveProduct(dbc dbctx.Context, productID uuid.UUID) error {
	return dbc.DB(r.db).Where("product_id = ?", productID).Delete(&types.CartItem{}).Error
}
