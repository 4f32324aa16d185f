package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	maxItemQuantity     = 100
	maxSessionIDLen     = 128
	maxInstructionsLen  = 1000
	maxDecorColorLen    = 50
	maxDecorDesignLen   = 100
	maxDecorMessageLen  = 200
	maxDecorFrostingLen = 50
)

// CartOwner identifies a cart: the signed-in user, or a guest session.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID string
}

func (o CartOwner) guest() bool { return o.UserID == nil }

type CartConfig struct {
	TaxRate                    float64
	DeliveryFeeCents           int64
	FreeDeliveryThresholdCents int64
}

type CartSummary struct {
	ItemCount        int   `json:"item_count"`
	SubtotalCents    int64 `json:"subtotal_cents"`
	TaxCents         int64 `json:"tax_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_cents"`
}

type AddItemInput struct {
	ProductID      uuid.UUID            `json:"product_id" binding:"required"`
	VariantID      *uuid.UUID           `json:"variant_id"`
	Quantity       int                  `json:"quantity" binding:"required,min=1,max=100"`
	Customizations types.Customizations `json:"customizations"`
}

type ItemQuantity struct {
	ID       uuid.UUID `json:"id" binding:"required"`
	Quantity int       `json:"quantity" binding:"min=1,max=100"`
}

type CartService interface {
	Get(ctx context.Context, owner CartOwner) (*types.Cart, error)
	Summary(ctx context.Context, owner CartOwner) (*CartSummary, error)
	AddItem(ctx context.Context, owner CartOwner, in AddItemInput) (*types.Cart, error)
	UpdateItem(ctx context.Context, owner CartOwner, itemID uuid.UUID, qty int) (*types.Cart, error)
	RemoveItem(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*types.Cart, error)
	BulkUpdate(ctx context.Context, owner CartOwner, items []ItemQuantity) (*types.Cart, error)
	BulkRemove(ctx context.Context, owner CartOwner, itemIDs []uuid.UUID) (*types.Cart, error)
	Clear(ctx context.Context, owner CartOwner) error
	MergeGuestCart(ctx context.Context, userID uuid.UUID, sessionID string) error
	Config() CartConfig
}

type cartService struct {
	db          *gorm.DB
	log         *logger.Logger
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
	variantRepo repos.VariantRepo
	cfg         CartConfig
}

func NewCartService(db *gorm.DB, log *logger.Logger, cartRepo repos.CartRepo, productRepo repos.ProductRepo, variantRepo repos.VariantRepo, cfg CartConfig) CartService {
	return &cartService{
		db:          db,
		log:         log.With("service", "CartService"),
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		cfg:         cfg,
	}
}

func (cs *cartService) Config() CartConfig { return cs.cfg }

// ComputeSummary prices a set of lines. Tax is rounded to the cent and the
// delivery fee is waived for empty carts and at the free delivery threshold.
func ComputeSummary(items []*types.CartItem, cfg CartConfig) CartSummary {
	var s CartSummary
	for _, it := range items {
		s.ItemCount += it.Quantity
		s.SubtotalCents += it.LineTotalCents()
	}
	s.TaxCents = int64(math.Round(float64(s.SubtotalCents) * cfg.TaxRate))
	if len(items) > 0 && s.SubtotalCents < cfg.FreeDeliveryThresholdCents {
		s.DeliveryFeeCents = cfg.DeliveryFeeCents
	}
	s.TotalCents = s.SubtotalCents + s.TaxCents + s.DeliveryFeeCents
	return s
}

func checkCustomizations(c types.Customizations) error {
	if err := checkMaxLen("Special instructions", c.SpecialInstructions, maxInstructionsLen); err != nil {
		return err
	}
	if d := c.Decorations; d != nil {
		if err := checkMaxLen("Decoration color", d.Color, maxDecorColorLen); err != nil {
			return err
		}
		if err := checkMaxLen("Decoration design", d.Design, maxDecorDesignLen); err != nil {
			return err
		}
		if err := checkMaxLen("Decoration message", d.Message, maxDecorMessageLen); err != nil {
			return err
		}
		if err := checkMaxLen("Frosting", d.Frosting, maxDecorFrostingLen); err != nil {
			return err
		}
	}
	return nil
}

func checkQuantity(qty int) error {
	if qty < 1 || qty > maxItemQuantity {
		return apierr.BadRequest("invalid_quantity", fmt.Sprintf("Quantity must be between 1 and %d", maxItemQuantity))
	}
	return nil
}

// sameCustomizations compares canonical JSON so map ordering does not matter.
func sameCustomizations(a, b types.Customizations) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (cs *cartService) find(dbc dbctx.Context, owner CartOwner) (*types.Cart, error) {
	if owner.guest() {
		sid := strings.TrimSpace(owner.SessionID)
		if sid == "" || len(sid) > maxSessionIDLen {
			return nil, apierr.BadRequest("missing_session", "A guest cart requires an X-Session-Id header")
		}
		return cs.cartRepo.GetBySessionID(dbc, sid)
	}
	return cs.cartRepo.GetByUserID(dbc, *owner.UserID)
}

func (cs *cartService) findOrCreate(dbc dbctx.Context, owner CartOwner) (*types.Cart, error) {
	c, err := cs.find(dbc, owner)
	if err != nil || c != nil {
		return c, err
	}
	c = &types.Cart{UserID: owner.UserID}
	if owner.guest() {
		c.SessionID = strings.TrimSpace(owner.SessionID)
	}
	if err := cs.cartRepo.Create(dbc, c); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

func (cs *cartService) load(dbc dbctx.Context, c *types.Cart) (*types.Cart, error) {
	items, err := cs.cartRepo.Items(dbc, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	c.Items = make([]types.CartItem, 0, len(items))
	for _, it := range items {
		c.Items = append(c.Items, *it)
	}
	return c, nil
}

func (cs *cartService) Get(ctx context.Context, owner CartOwner) (*types.Cart, error) {
	var out *types.Cart
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		c, err := cs.findOrCreate(dbc, owner)
		if err != nil {
			return err
		}
		out, err = cs.load(dbc, c)
		return err
	})
	return out, err
}

func (cs *cartService) Summary(ctx context.Context, owner CartOwner) (*CartSummary, error) {
	dbc := dbctx.New(ctx)
	c, err := cs.find(dbc, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		s := ComputeSummary(nil, cs.cfg)
		return &s, nil
	}
	items, err := cs.cartRepo.Items(dbc, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	s := ComputeSummary(items, cs.cfg)
	return &s, nil
}

// addLine merges the line into the cart, applying the quantity cap and the
// stock check against the resulting quantity.
func (cs *cartService) addLine(dbc dbctx.Context, c *types.Cart, in AddItemInput) error {
	if err := checkQuantity(in.Quantity); err != nil {
		return err
	}
	if err := checkCustomizations(in.Customizations); err != nil {
		return err
	}
	p, err := cs.productRepo.GetByID(dbc, in.ProductID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return apierr.NotFound("product")
	}
	unit := p.BasePriceCents
	stock := p.StockQuantity
	if in.VariantID != nil {
		v, err := cs.variantRepo.GetByID(dbc, *in.VariantID)
		if err != nil {
			return fmt.Errorf("load variant: %w", err)
		}
		if v == nil || v.ProductID != p.ID {
			return apierr.BadRequest("invalid_variant", "Variant does not belong to this product")
		}
		if !v.IsAvailable {
			return apierr.BadRequest("variant_unavailable", "This option is currently unavailable")
		}
		unit = v.PriceCents
		stock = v.StockQuantity
	}

	items, err := cs.cartRepo.Items(dbc, c.ID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}
	var existing *types.CartItem
	for _, it := range items {
		if it.ProductID == in.ProductID && sameVariant(it.VariantID, in.VariantID) && sameCustomizations(it.Customizations.Data(), in.Customizations) {
			existing = it
			break
		}
	}
	qty := in.Quantity
	if existing != nil {
		qty += existing.Quantity
	}
	if qty > maxItemQuantity {
		return apierr.BadRequest("invalid_quantity", fmt.Sprintf("At most %d of one item can be in the cart", maxItemQuantity))
	}
	if unitsOf(items, in.ProductID, in.VariantID, uuid.Nil)+in.Quantity > stock {
		return apierr.Conflict("insufficient_stock", fmt.Sprintf("Only %d left in stock", stock))
	}
	if existing != nil {
		if err := cs.cartRepo.SetItemQuantity(dbc, existing.ID, qty); err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
	} else {
		item := &types.CartItem{
			CartID:         c.ID,
			ProductID:      p.ID,
			VariantID:      in.VariantID,
			Quantity:       qty,
			Customizations: datatypes.NewJSONType(in.Customizations),
			UnitPriceCents: unit,
		}
		if err := cs.cartRepo.AddItem(dbc, item); err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
	}
	return cs.cartRepo.Touch(dbc, c.ID)
}

func (cs *cartService) AddItem(ctx context.Context, owner CartOwner, in AddItemInput) (*types.Cart, error) {
	var out *types.Cart
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		c, err := cs.findOrCreate(dbc, owner)
		if err != nil {
			return err
		}
		if err := cs.addLine(dbc, c, in); err != nil {
			return err
		}
		out, err = cs.load(dbc, c)
		return err
	})
	return out, err
}

func stockFor(it *types.CartItem) int {
	if it.Variant != nil {
		return it.Variant.StockQuantity
	}
	if it.Product != nil {
		return it.Product.StockQuantity
	}
	return 0
}

func (cs *cartService) setQuantity(dbc dbctx.Context, c *types.Cart, itemID uuid.UUID, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	it, err := cs.cartRepo.GetItem(dbc, c.ID, itemID)
	if err != nil {
		return fmt.Errorf("load cart item: %w", err)
	}
	if it == nil {
		return apierr.NotFound("cart item")
	}
	items, err := cs.cartRepo.Items(dbc, c.ID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}
	if stock := stockFor(it); unitsOf(items, it.ProductID, it.VariantID, it.ID)+qty > stock {
		return apierr.Conflict("insufficient_stock", fmt.Sprintf("Only %d left in stock", stock))
	}
	return cs.cartRepo.SetItemQuantity(dbc, itemID, qty)
}

// unitsOf sums the quantity of every line holding the product and variant,
// whatever its customizations, skipping the line with id skip.
func unitsOf(items []*types.CartItem, productID uuid.UUID, variantID *uuid.UUID, skip uuid.UUID) int {
	n := 0
	for _, it := range items {
		if it.ID == skip || it.ProductID != productID || !sameVariant(it.VariantID, variantID) {
			continue
		}
		n += it.Quantity
	}
	return n
}

func (cs *cartService) mutate(ctx context.Context, owner CartOwner, fn func(dbc dbctx.Context, c *types.Cart) error) (*types.Cart, error) {
	var out *types.Cart
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		c, err := cs.find(dbc, owner)
		if err != nil {
			return err
		}
		if c == nil {
			return apierr.NotFound("cart")
		}
		if err := fn(dbc, c); err != nil {
			return err
		}
		if err := cs.cartRepo.Touch(dbc, c.ID); err != nil {
			return fmt.Errorf("touch cart: %w", err)
		}
		out, err = cs.load(dbc, c)
		return err
	})
	return out, err
}

func (cs *cartService) UpdateItem(ctx context.Context, owner CartOwner, itemID uuid.UUID, qty int) (*types.Cart, error) {
	return cs.mutate(ctx, owner, func(dbc dbctx.Context, c *types.Cart) error {
		return cs.setQuantity(dbc, c, itemID, qty)
	})
}

func (cs *cartService) RemoveItem(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*types.Cart, error) {
	return cs.mutate(ctx, owner, func(dbc dbctx.Context, c *types.Cart) error {
		n, err := cs.cartRepo.RemoveItems(dbc, c.ID, []uuid.UUID{itemID})
		if err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}
		if n == 0 {
			return apierr.NotFound("cart item")
		}
		return nil
	})
}

func (cs *cartService) BulkUpdate(ctx context.Context, owner CartOwner, items []ItemQuantity) (*types.Cart, error) {
	if len(items) == 0 {
		return nil, apierr.BadRequest("invalid_argument", "At least one item is required")
	}
	return cs.mutate(ctx, owner, func(dbc dbctx.Context, c *types.Cart) error {
		for _, it := range items {
			if err := cs.setQuantity(dbc, c, it.ID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (cs *cartService) BulkRemove(ctx context.Context, owner CartOwner, itemIDs []uuid.UUID) (*types.Cart, error) {
	if len(itemIDs) == 0 {
		return nil, apierr.BadRequest("invalid_argument", "At least one item is required")
	}
	return cs.mutate(ctx, owner, func(dbc dbctx.Context, c *types.Cart) error {
		_, err := cs.cartRepo.RemoveItems(dbc, c.ID, uniqueIDs(itemIDs))
		return err
	})
}

func (cs *cartService) Clear(ctx context.Context, owner CartOwner) error {
	dbc := dbctx.New(ctx)
	c, err := cs.find(dbc, owner)
	if err != nil || c == nil {
		return err
	}
	return cs.cartRepo.Clear(dbc, c.ID)
}

// MergeGuestCart moves a guest cart's lines into the user's cart. Lines that
// no longer fit (inactive product, stock, quantity cap) are dropped.
func (cs *cartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	merged, dropped := 0, 0
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		guest, err := cs.cartRepo.GetBySessionID(dbc, sessionID)
		if err != nil {
			return fmt.Errorf("load guest cart: %w", err)
		}
		if guest == nil {
			return nil
		}
		items, err := cs.cartRepo.Items(dbc, guest.ID)
		if err != nil {
			return fmt.Errorf("load guest items: %w", err)
		}
		uid := userID
		target, err := cs.findOrCreate(dbc, CartOwner{UserID: &uid})
		if err != nil {
			return err
		}
		for _, it := range items {
			err := tx.Transaction(func(line *gorm.DB) error {
				return cs.addLine(dbctx.WithTx(ctx, line), target, AddItemInput{
					ProductID:      it.ProductID,
					VariantID:      it.VariantID,
					Quantity:       it.Quantity,
					Customizations: it.Customizations.Data(),
				})
			})
			if err != nil {
				var apiErr *apierr.Error
				if !errors.As(err, &apiErr) {
					return err
				}
				dropped++
				continue
			}
			merged++
		}
		return cs.cartRepo.Delete(dbc, guest.ID)
	})
	if err != nil {
		return err
	}
	if merged+dropped > 0 {
		cs.log.Info("Guest cart merged", "user_id", userID, "merged", merged, "dropped", dropped)
	}
	return nil
}
