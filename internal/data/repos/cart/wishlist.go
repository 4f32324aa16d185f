package cart

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type WishlistRepo interface {
	Create(dbc dbctx.Context, w *types.Wishlist) error
	GetByID(dbc dbctx.Context, userID, wishlistID uuid.UUID) (*types.Wishlist, error)
	GetDefault(dbc dbctx.Context, userID uuid.UUID) (*types.Wishlist, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Wishlist, error)
	Rename(dbc dbctx.Context, wishlistID uuid.UUID, name string) error
	ClearDefault(dbc dbctx.Context, userID uuid.UUID, exceptID uuid.UUID) error
	Delete(dbc dbctx.Context, wishlistID uuid.UUID) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error

	AddItem(dbc dbctx.Context, item *types.WishlistItem) error
	GetItem(dbc dbctx.Context, userID, itemID uuid.UUID) (*types.WishlistItem, error)
	RemoveItem(dbc dbctx.Context, userID, itemID uuid.UUID) (bool, error)
	HasProduct(dbc dbctx.Context, wishlistID, productID uuid.UUID) (bool, error)
	UserHasProduct(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
	RecentItems(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.WishlistItem, error)
	RemoveProduct(dbc dbctx.Context, productID uuid.UUID) error
}

type wishlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	return &wishlistRepo{db: db, log: baseLog.With("repo", "WishlistRepo")}
}

const userWishlists = "wishlist_id IN (SELECT wishlist.id FROM wishlist WHERE wishlist.user_id = ?)"

func (r *wishlistRepo) Create(dbc dbctx.Context, w *types.Wishlist) error {
	return dbc.DB(r.db).Omit("Items").Create(w).Error
}

func (r *wishlistRepo) first(q *gorm.DB) (*types.Wishlist, error) {
	var rows []*types.Wishlist
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *wishlistRepo) GetByID(dbc dbctx.Context, userID, wishlistID uuid.UUID) (*types.Wishlist, error) {
	return r.first(dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Items.Product").
		Where("id = ? AND user_id = ?", wishlistID, userID))
}

func (r *wishlistRepo) GetDefault(dbc dbctx.Context, userID uuid.UUID) (*types.Wishlist, error) {
	return r.first(dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Items.Product").
		Where("user_id = ? AND is_default = ?", userID, true).
		Order("created_at ASC"))
}

// ListByUser puts the default wishlist first, then newest.
func (r *wishlistRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Wishlist, error) {
	var rows []*types.Wishlist
	err := dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *wishlistRepo) Rename(dbc dbctx.Context, wishlistID uuid.UUID, name string) error {
	return dbc.DB(r.db).Model(&types.Wishlist{}).Where("id = ?", wishlistID).Update("name", name).Error
}

func (r *wishlistRepo) ClearDefault(dbc dbctx.Context, userID uuid.UUID, exceptID uuid.UUID) error {
	return dbc.DB(r.db).Model(&types.Wishlist{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		Update("is_default", false).Error
}

func (r *wishlistRepo) Delete(dbc dbctx.Context, wishlistID uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where("wishlist_id = ?", wishlistID).Delete(&types.WishlistItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", wishlistID).Delete(&types.Wishlist{}).Error
}

func (r *wishlistRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	tx := dbc.DB(r.db)
	if err := tx.Where(userWishlists, userID).Delete(&types.WishlistItem{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&types.Wishlist{}).Error
}

func (r *wishlistRepo) AddItem(dbc dbctx.Context, item *types.WishlistItem) error {
	return dbc.DB(r.db).Omit("Product").Create(item).Error
}

func (r *wishlistRepo) GetItem(dbc dbctx.Context, userID, itemID uuid.UUID) (*types.WishlistItem, error) {
	var rows []*types.WishlistItem
	if err := dbc.DB(r.db).
		Preload("Product").
		Where("id = ?", itemID).
		Where(userWishlists, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *wishlistRepo) RemoveItem(dbc dbctx.Context, userID, itemID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("id = ?", itemID).
		Where(userWishlists, userID).
		Delete(&types.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *wishlistRepo) HasProduct(dbc dbctx.Context, wishlistID, productID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *wishlistRepo) UserHasProduct(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.WishlistItem{}).
		Where("product_id = ?", productID).
		Where(userWishlists, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *wishlistRepo) RecentItems(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.WishlistItem, error) {
	var rows []*types.WishlistItem
	err := dbc.DB(r.db).
		Preload("Product").
		Where(userWishlists, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *wishlistRepo) RemoveProduct(dbc dbctx.Context, productID uuid.UUID) error {
	return dbc.DB(r.db).Where("product_id = ?", productID).Delete(&types.WishlistItem{}).Error
}
