package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	domainorders "github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
)

func TestOrderRepoStatsAndAnalytics(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewOrderRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "orders@example.com")
	cake := testutil.SeedProduct(t, tx, "carrot-cake", nil, 4000, 5)
	pie := testutil.SeedProduct(t, tx, "apple-pie", nil, 2500, 5)

	delivered := testutil.SeedOrder(t, tx, u.ID, domainorders.StatusDelivered, cake, pie)
	testutil.SeedOrder(t, tx, u.ID, domainorders.StatusCancelled, cake)
	pending := testutil.SeedOrder(t, tx, u.ID, domainorders.StatusPending, pie)

	if err := repo.UpdateFields(dbc, delivered.ID, map[string]any{"payment_status": domainorders.PaymentCompleted}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	stats, err := repo.UserStats(dbc, u.ID)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.TotalOrders != 3 || stats.TotalSpentCents != 6500+2500 || stats.CompletedOrders != 1 || stats.PendingOrders != 1 {
		t.Fatalf("UserStats: %+v", stats)
	}

	a, err := repo.Analytics(dbc, nil, nil)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalOrders != 3 || a.RevenueCents != 6500 || a.AverageOrderValueCents != 6500 {
		t.Fatalf("Analytics: %+v", a)
	}
	if a.StatusCounts[domainorders.StatusCancelled] != 1 || a.StatusCounts[domainorders.StatusReady] != 0 {
		t.Fatalf("Analytics status counts: %+v", a.StatusCounts)
	}
	if a.PaymentStatusCounts[domainorders.PaymentPending] != 2 {
		t.Fatalf("Analytics payment counts: %+v", a.PaymentStatusCounts)
	}

	popular, err := repo.PopularProducts(dbc, 10)
	if err != nil {
		t.Fatalf("PopularProducts: %v", err)
	}
	if len(popular) != 2 || popular[0].ProductID != pie.ID || popular[0].Quantity != 2 {
		t.Fatalf("PopularProducts: %+v", popular)
	}

	counts, err := repo.ItemCounts(dbc, []uuid.UUID{delivered.ID, pending.ID})
	if err != nil || counts[delivered.ID] != 2 || counts[pending.ID] != 1 {
		t.Fatalf("ItemCounts: %+v err=%v", counts, err)
	}

	rows, total, err := repo.List(dbc, ListFilter{
		UserID:   testutil.PtrUUID(u.ID),
		Statuses: []string{domainorders.StatusDelivered, domainorders.StatusPending},
		Sort:     SortTotalDesc,
		Limit:    20,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].ID != delivered.ID {
		t.Fatalf("List: total=%d rows=%+v", total, rows)
	}
}

func TestOrderRepoByStatusPutsUndatedLast(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewOrderRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "status@example.com")
	undated := testutil.SeedOrder(t, tx, u.ID, domainorders.StatusConfirmed)
	later := testutil.SeedOrder(t, tx, u.ID, domainorders.StatusConfirmed)
	sooner := testutil.SeedOrder(t, tx, u.ID, domainorders.StatusConfirmed)

	day := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateFields(dbc, later.ID, map[string]any{"delivery_date": day.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := repo.UpdateFields(dbc, sooner.ID, map[string]any{"delivery_date": day.Add(10 * time.Hour)}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	rows, err := repo.ByStatus(dbc, domainorders.StatusConfirmed)
	if err != nil {
		t.Fatalf("ByStatus: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != sooner.ID || rows[1].ID != later.ID || rows[2].ID != undated.ID {
		t.Fatalf("ByStatus: unexpected order")
	}

	onDay, err := repo.ByDeliveryDate(dbc, day, day.Add(24*time.Hour))
	if err != nil || len(onDay) != 1 || onDay[0].ID != sooner.ID {
		t.Fatalf("ByDeliveryDate: %+v err=%v", onDay, err)
	}

	h := &types.OrderStatusHistory{OrderID: sooner.ID, Status: domainorders.StatusConfirmed, Notes: "ok"}
	if err := repo.AddHistory(dbc, h); err != nil {
		t.Fatalf("AddHistory: %v", err)
	}
	got, err := repo.GetByID(dbc, sooner.ID)
	if err != nil || got == nil || len(got.History) != 1 {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}
}
