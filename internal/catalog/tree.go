// Package catalog holds the storage-independent catalog logic: turning the
// flat parent-pointer category table into a tree and answering ancestry
// questions over it.
package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
)

type Node struct {
	types.Category
	ProductCount int64   `json:"product_count"`
	Children     []*Node `json:"children"`
}

func less(a, b types.Category) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

// SortCategories orders by sort_order, then name.
func SortCategories(rows []types.Category) {
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

func childIndex(rows []types.Category) (roots []types.Category, children map[uuid.UUID][]types.Category) {
	children = make(map[uuid.UUID][]types.Category, len(rows))
	for _, r := range rows {
		if r.ParentID == nil {
			roots = append(roots, r)
			continue
		}
		children[*r.ParentID] = append(children[*r.ParentID], r)
	}
	SortCategories(roots)
	for k := range children {
		SortCategories(children[k])
	}
	return roots, children
}

// BuildTree nests rows under their parents. Rows whose parent is missing from
// rows are dropped together with their subtree, and so are rows caught in a
// parent cycle since no root reaches them.
func BuildTree(rows []types.Category, counts map[uuid.UUID]int64) []*Node {
	roots, children := childIndex(rows)
	visited := make(map[uuid.UUID]bool, len(rows))

	var build func(c types.Category) *Node
	build = func(c types.Category) *Node {
		visited[c.ID] = true
		n := &Node{Category: c, ProductCount: counts[c.ID], Children: []*Node{}}
		for _, child := range children[c.ID] {
			if visited[child.ID] {
				continue
			}
			n.Children = append(n.Children, build(child))
		}
		return n
	}

	out := make([]*Node, 0, len(roots))
	for _, r := range roots {
		if visited[r.ID] {
			continue
		}
		out = append(out, build(r))
	}
	return out
}

// Descendants returns every id below id, excluding id itself.
func Descendants(rows []types.Category, id uuid.UUID) map[uuid.UUID]bool {
	_, children := childIndex(rows)
	out := map[uuid.UUID]bool{}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if child.ID == id || out[child.ID] {
				continue
			}
			out[child.ID] = true
			queue = append(queue, child.ID)
		}
	}
	return out
}

// SubtreeIDs is id plus its descendants.
func SubtreeIDs(rows []types.Category, id uuid.UUID) []uuid.UUID {
	desc := Descendants(rows, id)
	out := make([]uuid.UUID, 0, len(desc)+1)
	out = append(out, id)
	for _, r := range rows {
		if desc[r.ID] {
			out = append(out, r.ID)
		}
	}
	return out
}

func IsDescendantOf(rows []types.Category, candidate, ancestor uuid.UUID) bool {
	return Descendants(rows, ancestor)[candidate]
}

// ValidParents lists the categories id may be re-parented under: everything
// except id and its descendants.
func ValidParents(rows []types.Category, id uuid.UUID) []types.Category {
	desc := Descendants(rows, id)
	out := make([]types.Category, 0, len(rows))
	for _, r := range rows {
		if r.ID == id || desc[r.ID] {
			continue
		}
		out = append(out, r)
	}
	SortCategories(out)
	return out
}

// Breadcrumb returns the path from the root down to id.
func Breadcrumb(rows []types.Category, id uuid.UUID) []types.Category {
	byID := make(map[uuid.UUID]types.Category, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	cur, ok := byID[id]
	if !ok {
		return nil
	}
	seen := map[uuid.UUID]bool{}
	var path []types.Category
	for {
		if seen[cur.ID] {
			break
		}
		seen[cur.ID] = true
		path = append([]types.Category{cur}, path...)
		if cur.ParentID == nil {
			break
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		cur = parent
	}
	return path
}

// Slugify lowercases s and joins its alphanumeric runs with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
