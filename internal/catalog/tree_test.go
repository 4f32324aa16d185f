package catalog

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

func cat(name string, sort int, parent *types.Category) types.Category {
	c := types.Category{ID: uuid.New(), Name: name, Slug: Slugify(name), SortOrder: sort, IsActive: true}
	if parent != nil {
		pid := parent.ID
		c.ParentID = &pid
	}
	return c
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestBuildTreeNestsAndOrders(t *testing.T) {
	cakes := cat("Cakes", 1, nil)
	pastries := cat("Pastries", 0, nil)
	wedding := cat("Wedding Cakes", 2, &cakes)
	birthday := cat("Birthday Cakes", 1, &cakes)
	cupcakes := cat("Cupcakes", 1, &cakes)
	tiered := cat("Tiered", 0, &wedding)

	rows := []types.Category{wedding, cakes, tiered, birthday, pastries, cupcakes}
	tree := BuildTree(rows, map[uuid.UUID]int64{birthday.ID: 4})

	if got := names(tree); len(got) != 2 || got[0] != "Pastries" || got[1] != "Cakes" {
		t.Fatalf("roots: got=%v", got)
	}
	children := tree[1].Children
	if got := names(children); len(got) != 3 || got[0] != "Birthday Cakes" || got[1] != "Cupcakes" || got[2] != "Wedding Cakes" {
		t.Fatalf("children: got=%v", got)
	}
	if children[0].ProductCount != 4 {
		t.Fatalf("product count: got=%d want=4", children[0].ProductCount)
	}
	if len(children[2].Children) != 1 || children[2].Children[0].Name != "Tiered" {
		t.Fatalf("grandchildren: %+v", children[2].Children)
	}
	if tree[0].Children == nil {
		t.Fatalf("leaf children should be an empty slice, not nil")
	}
}

func TestBuildTreeDropsOrphansAndCycles(t *testing.T) {
	root := cat("Breads", 0, nil)
	ghost := types.Category{ID: uuid.New(), Name: "Ghost"}
	orphan := cat("Orphan", 0, &ghost)
	orphanChild := cat("Orphan Child", 0, &orphan)

	a := cat("A", 0, nil)
	b := cat("B", 0, &a)
	aID := b.ID
	a.ParentID = &aID

	tree := BuildTree([]types.Category{root, orphan, orphanChild, a, b}, nil)
	if got := names(tree); len(got) != 1 || got[0] != "Breads" {
		t.Fatalf("expected only the real root, got=%v", got)
	}
}

func TestDescendantsAndValidParents(t *testing.T) {
	cakes := cat("Cakes", 0, nil)
	wedding := cat("Wedding", 0, &cakes)
	tiered := cat("Tiered", 0, &wedding)
	cookies := cat("Cookies", 1, nil)
	rows := []types.Category{cakes, wedding, tiered, cookies}

	desc := Descendants(rows, cakes.ID)
	if len(desc) != 2 || !desc[wedding.ID] || !desc[tiered.ID] {
		t.Fatalf("Descendants: %v", desc)
	}
	if !IsDescendantOf(rows, tiered.ID, cakes.ID) {
		t.Fatalf("tiered should be under cakes")
	}
	if IsDescendantOf(rows, cakes.ID, tiered.ID) {
		t.Fatalf("cakes is not under tiered")
	}
	if IsDescendantOf(rows, cakes.ID, cakes.ID) {
		t.Fatalf("a category is not its own descendant")
	}

	valid := ValidParents(rows, wedding.ID)
	if len(valid) != 2 || valid[0].ID != cakes.ID || valid[1].ID != cookies.ID {
		t.Fatalf("ValidParents: %+v", valid)
	}

	sub := SubtreeIDs(rows, wedding.ID)
	if len(sub) != 2 || sub[0] != wedding.ID {
		t.Fatalf("SubtreeIDs: %v", sub)
	}
}

func TestDescendantsTerminatesOnCycle(t *testing.T) {
	a := cat("A", 0, nil)
	b := cat("B", 0, &a)
	c := cat("C", 0, &b)
	cid := c.ID
	a.ParentID = &cid

	desc := Descendants([]types.Category{a, b, c}, a.ID)
	if len(desc) != 2 || desc[a.ID] {
		t.Fatalf("unexpected descendants: %v", desc)
	}
}

func TestBreadcrumb(t *testing.T) {
	cakes := cat("Cakes", 0, nil)
	wedding := cat("Wedding", 0, &cakes)
	tiered := cat("Tiered", 0, &wedding)
	rows := []types.Category{tiered, cakes, wedding}

	crumbs := Breadcrumb(rows, tiered.ID)
	if len(crumbs) != 3 || crumbs[0].ID != cakes.ID || crumbs[2].ID != tiered.ID {
		t.Fatalf("Breadcrumb: %+v", crumbs)
	}
	if Breadcrumb(rows, uuid.New()) != nil {
		t.Fatalf("unknown id should give nil")
	}

	loopA := cat("LoopA", 0, nil)
	loopB := cat("LoopB", 0, &loopA)
	bid := loopB.ID
	loopA.ParentID = &bid
	if got := Breadcrumb([]types.Category{loopA, loopB}, loopA.ID); len(got) != 2 {
		t.Fatalf("cyclic breadcrumb should stop, got %d", len(got))
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Birthday Cakes":       "birthday-cakes",
		"  Gluten-Free!! ":     "gluten-free",
		"Mum's 50th (Special)": "mum-s-50th-special",
		"---":                  "",
		"Crème brûlée":         "cr-me-br-l-e",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q): got=%q want=%q", in, got, want)
		}
	}
}
