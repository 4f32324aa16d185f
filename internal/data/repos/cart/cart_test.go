package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/dberr"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

func TestCartRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewCartRepo(db, testutil.Logger(t))

	p := testutil.SeedProduct(t, tx, "lemon-tart", nil, 1200, 10)
	v := testutil.SeedVariant(t, tx, p.ID, "TART-S", 900, 4)

	guest := &types.Cart{SessionID: "sess-1"}
	if err := repo.Create(dbc, guest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetBySessionID(dbc, "sess-1")
	if err != nil || got == nil || got.ID != guest.ID {
		t.Fatalf("GetBySessionID: got=%+v err=%v", got, err)
	}

	item := &types.CartItem{
		CartID:         guest.ID,
		ProductID:      p.ID,
		VariantID:      testutil.PtrUUID(v.ID),
		Quantity:       2,
		UnitPriceCents: v.PriceCents,
		Customizations: datatypes.NewJSONType(types.Customizations{GiftWrap: true}),
	}
	if err := repo.AddItem(dbc, item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	items, err := repo.Items(dbc, guest.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("Items: len=%d err=%v", len(items), err)
	}
	if items[0].Product == nil || items[0].Variant == nil || !items[0].Customizations.Data().GiftWrap {
		t.Fatalf("Items: associations or customizations missing: %+v", items[0])
	}
	if items[0].LineTotalCents() != 1800 {
		t.Fatalf("LineTotalCents: %d", items[0].LineTotalCents())
	}

	if err := repo.SetItemQuantity(dbc, item.ID, 3); err != nil {
		t.Fatalf("SetItemQuantity: %v", err)
	}
	if n, err := repo.RemoveItems(dbc, uuid.New(), []uuid.UUID{item.ID}); err != nil || n != 0 {
		t.Fatalf("RemoveItems(other cart): n=%d err=%v", n, err)
	}

	n, err := repo.DeleteStaleGuestCarts(dbc, time.Now().UTC().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteStaleGuestCarts: n=%d err=%v", n, err)
	}
	if got, _ := repo.GetBySessionID(dbc, "sess-1"); got != nil {
		t.Fatalf("stale guest cart survived")
	}
}

func TestWishlistRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewWishlistRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "wish@example.com")
	p := testutil.SeedProduct(t, tx, "red-velvet", nil, 4000, 2)

	def := &types.Wishlist{UserID: u.ID, Name: types.DefaultWishlistName, IsDefault: true}
	extra := &types.Wishlist{UserID: u.ID, Name: "Birthday ideas"}
	for _, w := range []*types.Wishlist{def, extra} {
		if err := repo.Create(dbc, w); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	lists, err := repo.ListByUser(dbc, u.ID)
	if err != nil || len(lists) != 2 || lists[0].ID != def.ID {
		t.Fatalf("ListByUser: %+v err=%v", lists, err)
	}

	if err := repo.AddItem(dbc, &types.WishlistItem{WishlistID: def.ID, ProductID: p.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	err = repo.AddItem(dbc, &types.WishlistItem{WishlistID: def.ID, ProductID: p.ID})
	if !dberr.IsDuplicate(err) {
		t.Fatalf("AddItem duplicate: expected duplicate error, got %v", err)
	}
}

func TestWishlistRepoOwnership(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewWishlistRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, tx, "owner@example.com")
	other := testutil.SeedUser(t, tx, "other@example.com")
	p := testutil.SeedProduct(t, tx, "scone", nil, 350, 12)

	w := &types.Wishlist{UserID: owner.ID, Name: types.DefaultWishlistName, IsDefault: true}
	if err := repo.Create(dbc, w); err != nil {
		t.Fatalf("Create: %v", err)
	}
	item := &types.WishlistItem{WishlistID: w.ID, ProductID: p.ID, Notes: "for Sunday"}
	if err := repo.AddItem(dbc, item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if got, _ := repo.GetItem(dbc, other.ID, item.ID); got != nil {
		t.Fatalf("GetItem leaked another user's item")
	}
	if ok, _ := repo.RemoveItem(dbc, other.ID, item.ID); ok {
		t.Fatalf("RemoveItem removed another user's item")
	}
	if has, err := repo.UserHasProduct(dbc, owner.ID, p.ID); err != nil || !has {
		t.Fatalf("UserHasProduct: has=%v err=%v", has, err)
	}
	recent, err := repo.RecentItems(dbc, owner.ID, 5)
	if err != nil || len(recent) != 1 || recent[0].Product == nil {
		t.Fatalf("RecentItems: %+v err=%v", recent, err)
	}
	if ok, err := repo.RemoveItem(dbc, owner.ID, item.ID); err != nil || !ok {
		t.Fatalf("RemoveItem: ok=%v err=%v", ok, err)
	}
}
