package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
)

func TestComputeSummary(t *testing.T) {
	line := func(unit int64, qty int) *types.CartItem {
		return &types.CartItem{UnitPriceCents: unit, Quantity: qty}
	}
	cases := []struct {
		name  string
		items []*types.CartItem
		want  CartSummary
	}{
		{"empty cart has no fee", nil, CartSummary{}},
		{"below threshold pays delivery", []*types.CartItem{line(1250, 2)}, CartSummary{
			ItemCount: 2, SubtotalCents: 2500, TaxCents: 200, DeliveryFeeCents: 500, TotalCents: 3200,
		}},
		{"at threshold delivers free", []*types.CartItem{line(2500, 1), line(1250, 2)}, CartSummary{
			ItemCount: 3, SubtotalCents: 5000, TaxCents: 400, TotalCents: 5400,
		}},
		{"tax rounds to the cent", []*types.CartItem{line(1006, 1)}, CartSummary{
			ItemCount: 1, SubtotalCents: 1006, TaxCents: 80, DeliveryFeeCents: 500, TotalCents: 1586,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeSummary(tc.items, testCartConfig); got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestAddItemMergesMatchingLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, h.tx, "brownie", nil, 350, 10)
	owner := CartOwner{SessionID: "guest-1"}

	if _, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	c, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 5 {
		t.Fatalf("lines not merged: %+v", c.Items)
	}

	gift := types.Customizations{GiftWrap: true}
	c, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 1, Customizations: gift})
	if err != nil {
		t.Fatalf("AddItem customized: %v", err)
	}
	if len(c.Items) != 2 {
		t.Fatalf("customized line should be separate, got %d lines", len(c.Items))
	}

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 5})
	wantAPIError(t, err, http.StatusConflict, "insufficient_stock")

	s, err := h.carts.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.ItemCount != 6 || s.SubtotalCents != 2100 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestStockCoversEveryLineOfAProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, h.tx, "layer-cake", nil, 4000, 10)
	owner := CartOwner{SessionID: "guest-stock"}
	gift := types.Customizations{GiftWrap: true}

	c, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 6})
	if err != nil {
		t.Fatalf("AddItem plain: %v", err)
	}
	plainLine := c.Items[0].ID

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 5, Customizations: gift})
	wantAPIError(t, err, http.StatusConflict, "insufficient_stock")

	if _, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 4, Customizations: gift}); err != nil {
		t.Fatalf("AddItem gift: %v", err)
	}

	_, err = h.carts.UpdateItem(ctx, owner, plainLine, 7)
	wantAPIError(t, err, http.StatusConflict, "insufficient_stock")

	if _, err := h.carts.UpdateItem(ctx, owner, plainLine, 5); err != nil {
		t.Fatalf("UpdateItem down: %v", err)
	}
	s, err := h.carts.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.ItemCount != 9 {
		t.Fatalf("expected 9 units in cart, got %d", s.ItemCount)
	}
}

func TestAddItemRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, h.tx, "cake", nil, 3000, 200)
	other := testutil.SeedProduct(t, h.tx, "pie", nil, 2000, 5)
	v := testutil.SeedVariant(t, h.tx, other.ID, "PIE-9IN", 2400, 5)
	owner := CartOwner{SessionID: "guest-2"}

	_, err := h.carts.AddItem(ctx, CartOwner{}, AddItemInput{ProductID: p.ID, Quantity: 1})
	wantAPIError(t, err, http.StatusBadRequest, "missing_session")

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 0})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_quantity")

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 101})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_quantity")

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	wantAPIError(t, err, http.StatusNotFound, "not_found")

	_, err = h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, VariantID: &v.ID, Quantity: 1})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_variant")

	c, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: other.ID, VariantID: &v.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem variant: %v", err)
	}
	if c.Items[0].UnitPriceCents != 2400 {
		t.Fatalf("variant price not used: %d", c.Items[0].UnitPriceCents)
	}
}

func TestUpdateAndRemoveItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testutil.SeedProduct(t, h.tx, "scone", nil, 300, 4)
	q := testutil.SeedProduct(t, h.tx, "muffin", nil, 275, 10)
	owner := CartOwner{SessionID: "guest-3"}

	_, err := h.carts.UpdateItem(ctx, owner, uuid.New(), 1)
	wantAPIError(t, err, http.StatusNotFound, "not_found")

	if _, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	c, err := h.carts.AddItem(ctx, owner, AddItemInput{ProductID: q.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	var sconeLine uuid.UUID
	for _, it := range c.Items {
		if it.ProductID == p.ID {
			sconeLine = it.ID
		}
	}

	_, err = h.carts.UpdateItem(ctx, owner, sconeLine, 5)
	wantAPIError(t, err, http.StatusConflict, "insufficient_stock")

	c, err = h.carts.UpdateItem(ctx, owner, sconeLine, 4)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	for _, it := range c.Items {
		if it.ID == sconeLine && it.Quantity != 4 {
			t.Fatalf("quantity not updated: %d", it.Quantity)
		}
	}

	c, err = h.carts.RemoveItem(ctx, owner, sconeLine)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected 1 line left, got %d", len(c.Items))
	}
	_, err = h.carts.RemoveItem(ctx, owner, sconeLine)
	wantAPIError(t, err, http.StatusNotFound, "not_found")

	if err := h.carts.Clear(ctx, owner); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	s, err := h.carts.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.ItemCount != 0 || s.DeliveryFeeCents != 0 {
		t.Fatalf("cleared cart should be empty: %+v", s)
	}
}

func TestMergeGuestCartDropsWhatDoesNotFit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	cake := testutil.SeedProduct(t, h.tx, "cake", nil, 3000, 3)
	cookie := testutil.SeedProduct(t, h.tx, "cookie", nil, 200, 50)
	user := CartOwner{UserID: &u.ID}
	guest := CartOwner{SessionID: "guest-merge"}

	if _, err := h.carts.AddItem(ctx, user, AddItemInput{ProductID: cake.ID, Quantity: 2}); err != nil {
		t.Fatalf("user AddItem: %v", err)
	}
	if _, err := h.carts.AddItem(ctx, guest, AddItemInput{ProductID: cake.ID, Quantity: 2}); err != nil {
		t.Fatalf("guest AddItem cake: %v", err)
	}
	if _, err := h.carts.AddItem(ctx, guest, AddItemInput{ProductID: cookie.ID, Quantity: 6}); err != nil {
		t.Fatalf("guest AddItem cookie: %v", err)
	}

	if err := h.carts.MergeGuestCart(ctx, u.ID, "guest-merge"); err != nil {
		t.Fatalf("MergeGuestCart: %v", err)
	}
	c, err := h.carts.Get(ctx, user)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := map[uuid.UUID]int{}
	for _, it := range c.Items {
		got[it.ProductID] = it.Quantity
	}
	if got[cake.ID] != 2 || got[cookie.ID] != 6 {
		t.Fatalf("unexpected merged cart: %v", got)
	}
	left, err := h.cartRepo.GetBySessionID(testCtx(), "guest-merge")
	if err != nil {
		t.Fatalf("GetBySessionID: %v", err)
	}
	if left != nil {
		t.Fatalf("guest cart should be deleted after merge")
	}
}

func TestWishlistFlow(t *testing.T) {
	h := newHarness(t)
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	ctx := asUser(u)
	p := testutil.SeedProduct(t, h.tx, "macaron", nil, 250, 20)

	item, err := h.wishlists.AddItem(ctx, WishlistItemInput{ProductID: p.ID, Notes: "for Sunday"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	_, err = h.wishlists.AddItem(ctx, WishlistItemInput{ProductID: p.ID})
	wantAPIError(t, err, http.StatusConflict, "already_in_wishlist")

	def, err := h.wishlists.GetDefault(ctx)
	if err != nil {
		t.Fatalf("GetDefault: %v", err)
	}
	if !def.IsDefault || def.ID != item.WishlistID {
		t.Fatalf("item should land in the default wishlist")
	}
	wantAPIError(t, h.wishlists.Delete(ctx, def.ID), http.StatusConflict, "default_wishlist")

	extra, err := h.wishlists.Create(ctx, "Party ideas", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if extra.IsDefault {
		t.Fatalf("second wishlist should not steal the default")
	}
	if err := h.wishlists.Delete(ctx, extra.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	in, err := h.wishlists.Contains(ctx, p.ID)
	if err != nil || !in {
		t.Fatalf("Contains: %v %v", in, err)
	}

	c, err := h.wishlists.MoveToCart(ctx, item.ID, MoveToCartInput{Quantity: 2})
	if err != nil {
		t.Fatalf("MoveToCart: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart after move: %+v", c.Items)
	}
	in, err = h.wishlists.Contains(ctx, p.ID)
	if err != nil || in {
		t.Fatalf("item should leave the wishlist after the move: %v %v", in, err)
	}

	if _, err := h.wishlists.List(context.Background()); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous List: want unauthorized, got %v", err)
	}
}
