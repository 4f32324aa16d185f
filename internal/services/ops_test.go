package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
)

func TestShapeFacetsFillsEmptyGroups(t *testing.T) {
	f := shapeFacets(nil)
	if f.Categories == nil || f.Tags == nil || f.Allergens == nil || f.Flavors == nil || f.Sizes == nil || f.Types == nil {
		t.Fatalf("nil group left: %+v", f)
	}
}

func TestPickSuggestionsSkipsSelected(t *testing.T) {
	tags := make([]repos.TagCount, 0, 7)
	for i, name := range []string{"vegan", "nut-free", "birthday", "chocolate", "lemon", "gluten-free", "wedding"} {
		tags = append(tags, repos.TagCount{ID: uuid.New(), Name: name, Count: int64(10 - i)})
	}
	cats := []repos.CategoryCount{{ID: uuid.New(), Name: "Cakes"}, {ID: uuid.New(), Name: "Cookies"}}

	out := pickSuggestions(tags, cats, []uuid.UUID{tags[0].ID}, true)
	if len(out.Tags) != 5 || out.Tags[0].Name != "nut-free" {
		t.Fatalf("unexpected tags: %+v", out.Tags)
	}
	if len(out.Categories) != 2 {
		t.Fatalf("categories not included: %+v", out.Categories)
	}

	out = pickSuggestions(tags, cats, nil, false)
	if len(out.Categories) != 0 || out.Categories == nil {
		t.Fatalf("categories should be an empty list when a category is selected")
	}
}

func TestFilterFacetsAreCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cakes := testutil.SeedCategory(t, h.tx, "cakes", nil, 0)
	p := testutil.SeedProduct(t, h.tx, "vanilla", &cakes.ID, 2500, 5)
	q := testutil.SeedProduct(t, h.tx, "mocha", &cakes.ID, 4100, 5)
	testutil.SeedTag(t, h.tx, "Vegan", "dietary", p.ID, q.ID)

	f, err := h.facets.GetFilterFacets(ctx, &cakes.ID)
	if err != nil {
		t.Fatalf("GetFilterFacets: %v", err)
	}
	if f.PriceRange.MinCents != 2500 || f.PriceRange.MaxCents != 4100 {
		t.Fatalf("unexpected price range: %+v", f.PriceRange)
	}
	if len(f.Tags) != 1 || f.Tags[0].Count != 2 {
		t.Fatalf("unexpected tag facet: %+v", f.Tags)
	}
	if _, err := h.cache.Get(ctx, facetsKey(&cakes.ID)); err != nil {
		t.Fatalf("facets not cached: %v", err)
	}

	missing := uuid.New()
	f, err = h.facets.GetFilterFacets(ctx, &missing)
	if err != nil {
		t.Fatalf("GetFilterFacets unknown category: %v", err)
	}
	if len(f.Tags) != 0 || f.Tags == nil {
		t.Fatalf("unknown category should have empty facets: %+v", f)
	}
}

func TestDashboardCounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	testutil.SeedUser(t, h.tx, "sam@example.com")
	testutil.SeedAdmin(t, h.tx, "owner@example.com")
	p := testutil.SeedProduct(t, h.tx, "cake", nil, 3000, 5)
	testutil.SeedOrder(t, h.tx, u.ID, orders.StatusPending, p)
	testutil.SeedOrder(t, h.tx, u.ID, orders.StatusDelivered, p)
	if _, err := h.requests.Create(asUser(u), CustomRequestInput{RequestType: "other", Title: "x", Description: "y"}); err != nil {
		t.Fatalf("Create request: %v", err)
	}

	d, err := h.dashboard.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.TotalCustomers != 2 || d.NewCustomersLast7Days != 2 || len(d.RecentCustomers) != 2 {
		t.Fatalf("unexpected customer counts: %+v", d)
	}
	if d.TotalOrders != 2 || d.PendingOrders != 1 || d.OrdersLast7Days != 2 {
		t.Fatalf("unexpected order counts: %+v", d)
	}
	if d.OpenCustomRequests != 1 {
		t.Fatalf("open requests=%d", d.OpenCustomRequests)
	}
}

func TestPurgeGuestCartsKeepsFreshAndUserCarts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	old := time.Now().UTC().Add(-48 * time.Hour)
	carts := []*types.Cart{
		{SessionID: "stale"},
		{SessionID: "fresh"},
		{UserID: &u.ID},
	}
	for _, c := range carts {
		if err := h.tx.Create(c).Error; err != nil {
			t.Fatalf("create cart: %v", err)
		}
	}
	for _, id := range []uuid.UUID{carts[0].ID, carts[2].ID} {
		if err := h.tx.Model(&types.Cart{}).Where("id = ?", id).UpdateColumn("updated_at", old).Error; err != nil {
			t.Fatalf("age cart: %v", err)
		}
	}

	n, err := h.maintenance.PurgeGuestCarts(ctx)
	if err != nil {
		t.Fatalf("PurgeGuestCarts: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d carts, want 1", n)
	}
	if c, _ := h.cartRepo.GetBySessionID(testCtx(), "fresh"); c == nil {
		t.Fatalf("fresh guest cart removed")
	}
	if c, _ := h.cartRepo.GetByUserID(testCtx(), u.ID); c == nil {
		t.Fatalf("user cart removed")
	}
}

func TestMaintenanceStartStop(t *testing.T) {
	h := newHarness(t)
	if err := h.maintenance.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	h.maintenance.Stop(ctx)
}

type downCache struct{ *cache.Memory }

func (downCache) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	log := testutil.Logger(t)
	db := testutil.SQLite(t)

	s := NewHealthService(db, log, cache.NewMemory()).Check(context.Background())
	if !s.Healthy() || s.Status != "ok" || s.Cache != "ok" {
		t.Fatalf("unexpected status: %+v", s)
	}
	s = NewHealthService(db, log, nil).Check(context.Background())
	if s.Cache != "disabled" || s.Status != "ok" {
		t.Fatalf("unexpected status without cache: %+v", s)
	}
	s = NewHealthService(db, log, downCache{cache.NewMemory()}).Check(context.Background())
	if !s.Healthy() || s.Status != "degraded" {
		t.Fatalf("cache outage should degrade: %+v", s)
	}

	closed := testutil.SQLite(t)
	sqlDB, err := closed.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	_ = sqlDB.Close()
	s = NewHealthService(closed, log, nil).Check(context.Background())
	if s.Healthy() || s.Status != "unavailable" {
		t.Fatalf("closed database should be unavailable: %+v", s)
	}
}
