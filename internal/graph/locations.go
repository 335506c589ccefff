package graph

import (
	"cmp"
	"slices"

	"github.com/untoldecay/lorebook/internal/types"
)

// ContainsType is the edge type linking a location to a child.
const ContainsType = "contains"

// LocationNode is a location shown on a map.
type LocationNode struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}

// LocationEdge links a parent location to a child.
type LocationEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// LocationGraph is the subgraph a map selects. Nodes and edges are sorted
// by id.
type LocationGraph struct {
	Nodes []LocationNode `json:"nodes"`
	Edges []LocationEdge `json:"edges"`
}

// NodeIDs returns the ids of every node in order.
func (g *LocationGraph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Hierarchy indexes locations by id and by parent.
type Hierarchy struct {
	byID     map[string]*types.Location
	children map[string][]string
	roots    []string
}

// NewHierarchy indexes locations. Children lists are sorted by id.
func NewHierarchy(locations []*types.Location) *Hierarchy {
	h := &Hierarchy{
		byID:     make(map[string]*types.Location, len(locations)),
		children: map[string][]string{},
	}
	for _, loc := range locations {
		h.byID[loc.ID] = loc
	}
	for _, loc := range locations {
		parent := loc.Profile.ParentID
		if parent == "" || h.byID[parent] == nil {
			h.roots = append(h.roots, loc.ID)
			continue
		}
		h.children[parent] = append(h.children[parent], loc.ID)
	}
	for _, kids := range h.children {
		slices.Sort(kids)
	}
	slices.Sort(h.roots)
	return h
}

// Location returns the location with id, or nil.
func (h *Hierarchy) Location(id string) *types.Location { return h.byID[id] }

// Children returns the sorted child ids of id.
func (h *Hierarchy) Children(id string) []string { return h.children[id] }

// Roots returns the sorted ids of locations without a known parent.
func (h *Hierarchy) Roots() []string { return h.roots }

// BuildLocationGraph materializes the subgraph of a map: a breadth-first
// walk from the root location down to include.depth hops. The root is
// always shown. Descendants are shown only when their type passes the
// include.types filter, but the walk continues beneath filtered-out nodes.
func BuildLocationGraph(h *Hierarchy, m *types.Map) *LocationGraph {
	g := &LocationGraph{Nodes: []LocationNode{}, Edges: []LocationEdge{}}
	root := h.Location(m.RootLocationID)
	if root == nil {
		return g
	}

	maxDepth := m.Include.MaxDepth()
	included := map[string]bool{root.ID: true}
	visited := map[string]bool{root.ID: true}

	type item struct {
		id    string
		depth int
	}
	queue := []item{{root.ID, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, child := range h.Children(cur.id) {
			if visited[child] {
				continue
			}
			visited[child] = true
			if m.Include.Allows(h.Location(child).Profile.Type) {
				included[child] = true
			}
			queue = append(queue, item{child, cur.depth + 1})
		}
	}

	for id := range included {
		loc := h.Location(id)
		label := loc.Profile.Name
		if label == "" {
			label = loc.ID
		}
		g.Nodes = append(g.Nodes, LocationNode{ID: loc.ID, Label: label, Type: loc.Profile.Type, Tags: nonNil(loc.Tags)})
		if parent := loc.Profile.ParentID; id != root.ID && included[parent] {
			g.Edges = append(g.Edges, LocationEdge{
				ID:     parent + "__" + ContainsType + "__" + loc.ID,
				Source: parent,
				Target: loc.ID,
				Type:   ContainsType,
			})
		}
	}
	slices.SortFunc(g.Nodes, func(a, b LocationNode) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(g.Edges, func(a, b LocationEdge) int { return cmp.Compare(a.ID, b.ID) })
	return g
}
