package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/untoldecay/lorebook/internal/graph"
)

func locationLabel(id, name, typ string) string {
	if name == "" {
		name = id
	}
	return fmt.Sprintf("%s %s", name, RenderMuted(fmt.Sprintf("(%s · %s)", id, typ)))
}

func newTree(root string) *tree.Tree {
	return tree.New().
		Root(root).
		EnumeratorStyle(lipgloss.NewStyle().Foreground(ColorAccent)).
		RootStyle(lipgloss.NewStyle().Bold(true).Foreground(ColorAccent))
}

// BuildHierarchyTree builds a tree rooted at id following the parent_id
// hierarchy. Children appear in id order.
func BuildHierarchyTree(h *graph.Hierarchy, id string) *tree.Tree {
	loc := h.Location(id)
	if loc == nil {
		return nil
	}
	t := newTree(locationLabel(loc.ID, loc.Profile.Name, loc.Profile.Type))

	// Iterative walk; pending holds subtrees still to be filled.
	type pending struct {
		id string
		t  *tree.Tree
	}
	stack := []pending{{id, t}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, childID := range h.Children(p.id) {
			child := h.Location(childID)
			sub := tree.New().
				Root(locationLabel(child.ID, child.Profile.Name, child.Profile.Type)).
				EnumeratorStyle(lipgloss.NewStyle().Foreground(ColorAccent))
			p.t.Child(sub)
			stack = append(stack, pending{childID, sub})
		}
	}
	return t
}

// RenderHierarchy renders every root location with its descendants.
func RenderHierarchy(h *graph.Hierarchy) string {
	roots := h.Roots()
	if len(roots) == 0 {
		return TableHintStyle.Render("No locations found.")
	}
	var out string
	for i, id := range roots {
		if i > 0 {
			out += "\n"
		}
		out += BuildHierarchyTree(h, id).String() + "\n"
	}
	return out
}

// BuildMapTree builds the tree of a map subgraph. Nodes hang under their
// nearest included ancestor, which is what the contains edges describe.
func BuildMapTree(title string, g *graph.LocationGraph, rootID string) *tree.Tree {
	nodes := make(map[string]graph.LocationNode, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	root, ok := nodes[rootID]
	if !ok {
		return nil
	}
	children := map[string][]string{}
	for _, e := range g.Edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	t := newTree(fmt.Sprintf("%s %s", title, RenderMuted("→ "+locationLabel(root.ID, root.Label, root.Type))))
	subtrees := map[string]*tree.Tree{rootID: t}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, childID := range children[id] {
			n := nodes[childID]
			sub := tree.New().
				Root(locationLabel(n.ID, n.Label, n.Type)).
				EnumeratorStyle(lipgloss.NewStyle().Foreground(ColorAccent))
			subtrees[id].Child(sub)
			subtrees[childID] = sub
			queue = append(queue, childID)
		}
	}
	// Included nodes whose ancestors were filtered out have no contains
	// edge; list them under the root.
	for _, n := range g.Nodes {
		if _, placed := subtrees[n.ID]; !placed {
			t.Child(locationLabel(n.ID, n.Label, n.Type) + " " + RenderMuted("(indirect)"))
		}
	}
	return t
}
