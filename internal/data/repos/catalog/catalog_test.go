package catalog

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
)

type bakeryFixture struct {
	cakes, birthday, cookies *types.Category
	chocolate, vanilla       *types.Product
	sugar, hidden            *types.Product
	vegan, birthdayTag       *types.Tag
	gluten, nuts             *types.Allergen
}

func seedBakery(t *testing.T, tx *gorm.DB) bakeryFixture {
	t.Helper()
	var f bakeryFixture
	f.cakes = testutil.SeedCategory(t, tx, "cakes", nil, 0)
	f.birthday = testutil.SeedCategory(t, tx, "birthday", testutil.PtrUUID(f.cakes.ID), 0)
	f.cookies = testutil.SeedCategory(t, tx, "cookies", nil, 1)

	f.chocolate = testutil.SeedProduct(t, tx, "chocolate-cake", testutil.PtrUUID(f.birthday.ID), 4500, 3)
	f.vanilla = testutil.SeedProduct(t, tx, "vanilla-cake", testutil.PtrUUID(f.cakes.ID), 3000, 0)
	f.sugar = testutil.SeedProduct(t, tx, "sugar-cookie", testutil.PtrUUID(f.cookies.ID), 500, 20)
	f.hidden = testutil.SeedProduct(t, tx, "retired-cookie", testutil.PtrUUID(f.cookies.ID), 400, 5)
	if err := tx.Model(f.hidden).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	f.vegan = testutil.SeedTag(t, tx, "Vegan", "dietary", f.sugar.ID)
	f.birthdayTag = testutil.SeedTag(t, tx, "Birthday", "occasion", f.chocolate.ID, f.vanilla.ID)
	f.gluten = testutil.SeedAllergen(t, tx, "Gluten", f.chocolate.ID, f.vanilla.ID, f.sugar.ID)
	f.nuts = testutil.SeedAllergen(t, tx, "Nuts", f.chocolate.ID)
	return f
}

func activeOnly() *bool { v := true; return &v }

func TestProductSearchFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	f := seedBakery(t, tx)
	repo := NewProductRepo(db, testutil.Logger(t))

	cases := []struct {
		name   string
		filter SearchFilter
		want   []uuid.UUID
	}{
		{"query matches name case-insensitively", SearchFilter{Query: "CAKE"}, []uuid.UUID{f.chocolate.ID, f.vanilla.ID}},
		{"category subtree", SearchFilter{CategoryIDs: []uuid.UUID{f.cakes.ID, f.birthday.ID}}, []uuid.UUID{f.chocolate.ID, f.vanilla.ID}},
		{"any tag", SearchFilter{TagIDs: []uuid.UUID{f.vegan.ID}}, []uuid.UUID{f.sugar.ID}},
		{"allergen free", SearchFilter{AllergenFreeIDs: []uuid.UUID{f.nuts.ID}}, []uuid.UUID{f.vanilla.ID, f.sugar.ID}},
		{"in stock and price band", SearchFilter{InStock: true, PriceMin: ptr64(1000), PriceMax: ptr64(5000)}, []uuid.UUID{f.chocolate.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.filter.Active = activeOnly()
			tc.filter.Sort = SortPriceDesc
			tc.filter.Limit = 20
			rows, total, err := repo.Search(dbc, tc.filter)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if int(total) != len(tc.want) || len(rows) != len(tc.want) {
				t.Fatalf("Search: total=%d rows=%d want=%d", total, len(rows), len(tc.want))
			}
			for i, id := range tc.want {
				if rows[i].ID != id {
					t.Fatalf("Search: row %d = %s want %s", i, rows[i].Slug, id)
				}
			}
		})
	}
}

func TestProductSearchTreatsWildcardsLiterally(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewProductRepo(db, testutil.Logger(t))

	butter := testutil.SeedProduct(t, tx, "butter-shortbread", nil, 800, 10)
	layers := testutil.SeedProduct(t, tx, "thousand-layer", nil, 900, 10)
	if err := tx.Model(butter).Update("name", "100% Butter Shortbread").Error; err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := tx.Model(layers).Update("name", "1000 Layer Crepe").Error; err != nil {
		t.Fatalf("rename: %v", err)
	}

	for _, q := range []string{"100%", "100% b"} {
		rows, total, err := repo.Search(dbc, SearchFilter{Query: q, Active: activeOnly(), Limit: 20})
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != butter.ID {
			t.Fatalf("Search(%q): total=%d rows=%d", q, total, len(rows))
		}
	}

	rows, _, err := repo.Search(dbc, SearchFilter{Query: "butter_shortbread", Active: activeOnly(), Limit: 20})
	if err != nil {
		t.Fatalf("Search underscore: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("underscore should not match a space, got %d rows", len(rows))
	}
}

func ptr64(v int64) *int64 { return &v }

func TestProductPopularityAndEnrich(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	f := seedBakery(t, tx)
	repo := NewProductRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "buyer@example.com")
	testutil.SeedOrder(t, tx, u.ID, orders.StatusDelivered, f.sugar, f.sugar, f.vanilla)

	rows, _, err := repo.Search(dbc, SearchFilter{Active: activeOnly(), Sort: SortPopularity, Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != f.sugar.ID || rows[1].ID != f.vanilla.ID {
		t.Fatalf("popularity order wrong: %+v", rows)
	}

	testutil.SeedVariant(t, tx, f.chocolate.ID, "CHOC-8", 5200, 2)
	if err := repo.Enrich(dbc, []*types.Product{f.chocolate}); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(f.chocolate.Variants) != 1 || len(f.chocolate.Tags) != 1 || len(f.chocolate.Allergens) != 2 {
		t.Fatalf("Enrich: variants=%d tags=%d allergens=%d",
			len(f.chocolate.Variants), len(f.chocolate.Tags), len(f.chocolate.Allergens))
	}
	if !f.chocolate.Allergens[0].ContainsAllergen {
		t.Fatalf("Enrich: contains flag lost")
	}

	rec, err := repo.Recommended(dbc, f.vanilla, 4)
	if err != nil {
		t.Fatalf("Recommended: %v", err)
	}
	if len(rec) != 1 || rec[0].ID != f.chocolate.ID {
		t.Fatalf("Recommended: %+v", rec)
	}

	if has, err := repo.HasOrderItems(dbc, f.sugar.ID); err != nil || !has {
		t.Fatalf("HasOrderItems: has=%v err=%v", has, err)
	}

	ok, err := repo.AdjustStock(dbc, f.chocolate.ID, -5)
	if err != nil || ok {
		t.Fatalf("AdjustStock beyond stock: ok=%v err=%v", ok, err)
	}
	ok, err = repo.AdjustStock(dbc, f.chocolate.ID, -3)
	if err != nil || !ok {
		t.Fatalf("AdjustStock: ok=%v err=%v", ok, err)
	}

	stats, err := repo.Stats(dbc)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.Active != 3 || stats.OutOfStock != 2 || stats.LowStock != 1 {
		t.Fatalf("Stats: %+v", stats)
	}
}

func TestFacetCounts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	f := seedBakery(t, tx)
	repo := NewFacetRepo(db, testutil.Logger(t))

	cats, err := repo.CategoryCounts(dbc, nil)
	if err != nil {
		t.Fatalf("CategoryCounts: %v", err)
	}
	if len(cats) != 3 {
		t.Fatalf("CategoryCounts: %+v", cats)
	}
	for _, c := range cats {
		if c.ID == f.cookies.ID && c.Count != 1 {
			t.Fatalf("inactive product counted: %+v", c)
		}
	}

	allergens, err := repo.AllergenCounts(dbc, nil)
	if err != nil {
		t.Fatalf("AllergenCounts: %v", err)
	}
	if len(allergens) != 2 || allergens[0].ID != f.gluten.ID || allergens[0].Count != 3 {
		t.Fatalf("AllergenCounts: %+v", allergens)
	}

	scoped := []uuid.UUID{f.cakes.ID, f.birthday.ID}
	tags, err := repo.TagCounts(dbc, scoped)
	if err != nil {
		t.Fatalf("TagCounts: %v", err)
	}
	if len(tags) != 1 || tags[0].ID != f.birthdayTag.ID || tags[0].Count != 2 {
		t.Fatalf("TagCounts: %+v", tags)
	}

	pr, err := repo.PriceRange(dbc, scoped)
	if err != nil {
		t.Fatalf("PriceRange: %v", err)
	}
	if pr.MinCents != 3000 || pr.MaxCents != 4500 {
		t.Fatalf("PriceRange: %+v", pr)
	}
	empty, err := repo.PriceRange(dbc, []uuid.UUID{uuid.New()})
	if err != nil || empty.MinCents != 0 || empty.MaxCents != 0 {
		t.Fatalf("PriceRange(empty): %+v err=%v", empty, err)
	}

	v1 := testutil.SeedVariant(t, tx, f.chocolate.ID, "CHOC-6", 4500, 1)
	v2 := testutil.SeedVariant(t, tx, f.vanilla.ID, "VAN-6", 3000, 1)
	for _, v := range []*types.ProductVariant{v1, v2} {
		if err := tx.Model(v).Update("size", "6 inch").Error; err != nil {
			t.Fatalf("set size: %v", err)
		}
	}
	sizes, err := repo.VariantValueCounts(dbc, nil, VariantSize)
	if err != nil {
		t.Fatalf("VariantValueCounts: %v", err)
	}
	if len(sizes) != 1 || sizes[0].Value != "6 inch" || sizes[0].Count != 2 {
		t.Fatalf("VariantValueCounts: %+v", sizes)
	}
	if _, err := repo.VariantValueCounts(dbc, nil, "sku"); err == nil {
		t.Fatalf("expected error for unsupported column")
	}
}

func TestCategoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	f := seedBakery(t, tx)
	repo := NewCategoryRepo(db, testutil.Logger(t))

	counts, err := repo.ActiveProductCounts(dbc)
	if err != nil {
		t.Fatalf("ActiveProductCounts: %v", err)
	}
	if counts[f.birthday.ID] != 1 || counts[f.cakes.ID] != 1 || counts[f.cookies.ID] != 1 {
		t.Fatalf("ActiveProductCounts: %+v", counts)
	}

	kids, err := repo.Children(dbc, f.cakes.ID, true)
	if err != nil || len(kids) != 1 || kids[0].ID != f.birthday.ID {
		t.Fatalf("Children: %+v err=%v", kids, err)
	}
	if n, _ := repo.CountChildren(dbc, f.cakes.ID); n != 1 {
		t.Fatalf("CountChildren: %d", n)
	}
	if exists, _ := repo.SlugExists(dbc, "cakes", testutil.PtrUUID(f.cakes.ID)); exists {
		t.Fatalf("SlugExists should ignore the excluded id")
	}
	ok, err := repo.SetSortOrder(dbc, uuid.New(), 3)
	if err != nil || ok {
		t.Fatalf("SetSortOrder(unknown): ok=%v err=%v", ok, err)
	}
}
