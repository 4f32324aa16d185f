package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	maxWishlistNameLen  = 100
	maxWishlistNotesLen = 500
	recentWishlistLimit = 5
)

type WishlistItemInput struct {
	WishlistID *uuid.UUID `json:"wishlist_id"`
	ProductID  uuid.UUID  `json:"product_id" binding:"required"`
	Notes      string     `json:"notes" binding:"max=500"`
}

type MoveToCartInput struct {
	Quantity       int                  `json:"quantity"`
	Customizations types.Customizations `json:"customizations"`
}

type WishlistService interface {
	List(ctx context.Context) ([]*types.Wishlist, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Wishlist, error)
	GetDefault(ctx context.Context) (*types.Wishlist, error)
	Create(ctx context.Context, name string, isDefault bool) (*types.Wishlist, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*types.Wishlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, in WishlistItemInput) (*types.WishlistItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	Contains(ctx context.Context, productID uuid.UUID) (bool, error)
	Recent(ctx context.Context, limit int) ([]*types.WishlistItem, error)
	MoveToCart(ctx context.Context, itemID uuid.UUID, in MoveToCartInput) (*types.Cart, error)
}

type wishlistService struct {
	db           *gorm.DB
	log          *logger.Logger
	wishlistRepo repos.WishlistRepo
	productRepo  repos.ProductRepo
	carts        CartService
}

func NewWishlistService(db *gorm.DB, log *logger.Logger, wishlistRepo repos.WishlistRepo, productRepo repos.ProductRepo, carts CartService) WishlistService {
	return &wishlistService{
		db:           db,
		log:          log.With("service", "WishlistService"),
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		carts:        carts,
	}
}

func checkWishlistName(name string) error {
	if n := len(name); n == 0 || n > maxWishlistNameLen {
		return apierr.BadRequest("invalid_name", "Wishlist name is required and must be at most 100 characters")
	}
	return nil
}

func (ws *wishlistService) List(ctx context.Context) ([]*types.Wishlist, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	return ws.wishlistRepo.ListByUser(dbctx.New(ctx), userID)
}

func (ws *wishlistService) Get(ctx context.Context, id uuid.UUID) (*types.Wishlist, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	w, err := ws.wishlistRepo.GetByID(dbctx.New(ctx), userID, id)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	if w == nil {
		return nil, apierr.NotFound("wishlist")
	}
	return w, nil
}

func (ws *wishlistService) defaultFor(dbc dbctx.Context, userID uuid.UUID) (*types.Wishlist, error) {
	w, err := ws.wishlistRepo.GetDefault(dbc, userID)
	if err != nil || w != nil {
		return w, err
	}
	w = &types.Wishlist{UserID: userID, Name: types.DefaultWishlistName, IsDefault: true}
	if err := ws.wishlistRepo.Create(dbc, w); err != nil {
		return nil, fmt.Errorf("create default wishlist: %w", err)
	}
	w.Items = []types.WishlistItem{}
	return w, nil
}

func (ws *wishlistService) GetDefault(ctx context.Context) (*types.Wishlist, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	var out *types.Wishlist
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = ws.defaultFor(dbctx.WithTx(ctx, tx), userID)
		return err
	})
	return out, err
}

// Create makes the user's first wishlist the default regardless of isDefault.
func (ws *wishlistService) Create(ctx context.Context, name string, isDefault bool) (*types.Wishlist, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkWishlistName(name); err != nil {
		return nil, err
	}
	w := &types.Wishlist{UserID: userID, Name: name, IsDefault: isDefault}
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		existing, err := ws.wishlistRepo.GetDefault(dbc, userID)
		if err != nil {
			return fmt.Errorf("load default wishlist: %w", err)
		}
		if existing == nil {
			w.IsDefault = true
		}
		if err := ws.wishlistRepo.Create(dbc, w); err != nil {
			return fmt.Errorf("create wishlist: %w", err)
		}
		if w.IsDefault {
			return ws.wishlistRepo.ClearDefault(dbc, userID, w.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.Items = []types.WishlistItem{}
	return w, nil
}

func (ws *wishlistService) Rename(ctx context.Context, id uuid.UUID, name string) (*types.Wishlist, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := checkWishlistName(name); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	w, err := ws.wishlistRepo.GetByID(dbc, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	if w == nil {
		return nil, apierr.NotFound("wishlist")
	}
	if err := ws.wishlistRepo.Rename(dbc, id, name); err != nil {
		return nil, fmt.Errorf("rename wishlist: %w", err)
	}
	w.Name = name
	return w, nil
}

func (ws *wishlistService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return err
	}
	return ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		w, err := ws.wishlistRepo.GetByID(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load wishlist: %w", err)
		}
		if w == nil {
			return apierr.NotFound("wishlist")
		}
		if w.IsDefault {
			return apierr.Conflict("default_wishlist", "The default wishlist cannot be deleted")
		}
		return ws.wishlistRepo.Delete(dbc, id)
	})
}

func (ws *wishlistService) AddItem(ctx context.Context, in WishlistItemInput) (*types.WishlistItem, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(in.Notes)
	if err := checkMaxLen("Notes", notes, maxWishlistNotesLen); err != nil {
		return nil, err
	}
	var item *types.WishlistItem
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		p, err := ws.productRepo.GetByID(dbc, in.ProductID)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if p == nil || !p.IsActive {
			return apierr.NotFound("product")
		}
		var w *types.Wishlist
		if in.WishlistID != nil {
			w, err = ws.wishlistRepo.GetByID(dbc, userID, *in.WishlistID)
			if err != nil {
				return fmt.Errorf("load wishlist: %w", err)
			}
			if w == nil {
				return apierr.NotFound("wishlist")
			}
		} else if w, err = ws.defaultFor(dbc, userID); err != nil {
			return err
		}
		dup, err := ws.wishlistRepo.HasProduct(dbc, w.ID, p.ID)
		if err != nil {
			return fmt.Errorf("check wishlist: %w", err)
		}
		if dup {
			return apierr.Conflict("already_in_wishlist", "This product is already in the wishlist")
		}
		item = &types.WishlistItem{WishlistID: w.ID, ProductID: p.ID, Notes: notes}
		if err := ws.wishlistRepo.AddItem(dbc, item); err != nil {
			return fmt.Errorf("add wishlist item: %w", err)
		}
		item.Product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (ws *wishlistService) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return err
	}
	ok, err := ws.wishlistRepo.RemoveItem(dbctx.New(ctx), userID, itemID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if !ok {
		return apierr.NotFound("wishlist item")
	}
	return nil
}

func (ws *wishlistService) Contains(ctx context.Context, productID uuid.UUID) (bool, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return false, err
	}
	return ws.wishlistRepo.UserHasProduct(dbctx.New(ctx), userID, productID)
}

func (ws *wishlistService) Recent(ctx context.Context, limit int) ([]*types.WishlistItem, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	return ws.wishlistRepo.RecentItems(dbctx.New(ctx), userID, clampLimit(limit, recentWishlistLimit, 50))
}

// MoveToCart adds the item to the user's cart and only then removes it from
// the wishlist, so a failed add leaves the wishlist untouched.
func (ws *wishlistService) MoveToCart(ctx context.Context, itemID uuid.UUID, in MoveToCartInput) (*types.Cart, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	item, err := ws.wishlistRepo.GetItem(dbctx.New(ctx), userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist item: %w", err)
	}
	if item == nil {
		return nil, apierr.NotFound("wishlist item")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	c, err := ws.carts.AddItem(ctx, CartOwner{UserID: &userID}, AddItemInput{
		ProductID:      item.ProductID,
		Quantity:       qty,
		Customizations: in.Customizations,
	})
	if err != nil {
		return nil, err
	}
	if _, err := ws.wishlistRepo.RemoveItem(dbctx.New(ctx), userID, itemID); err != nil {
		return nil, fmt.Errorf("remove wishlist item: %w", err)
	}
	return c, nil
}
