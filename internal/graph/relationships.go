// Package graph builds the relationship graph between characters and the
// map-scoped location subgraphs from a validated dataset.
package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/untoldecay/lorebook/internal/types"
)

// MutualTag marks an edge declared from both sides or flagged mutual.
const MutualTag = "dynamic/mutual"

// Node is a character in the relationship graph.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// Edge is one undirected relationship, identified by its stable id. Source
// and Target keep the direction of the side that declared it first.
type Edge struct {
	ID               string   `json:"id"`
	Source           string   `json:"source"`
	Target           string   `json:"target"`
	Type             string   `json:"type"`
	Intensity        int      `json:"intensity"`
	IntensityReverse *int     `json:"intensity_reverse,omitempty"`
	Summary          string   `json:"summary"`
	Tags             []string `json:"tags"`
}

// Graph is the relationship graph. Nodes and edges are sorted by id.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeIDs returns the ids of every node in order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgeID returns the stable id of an edge between a and b: the smaller id
// comes first regardless of declaration direction.
func EdgeID(a, relType, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s__%s__%s", a, relType, b)
}

// CharacterLabel returns the display label of a character, falling back to
// its id.
func CharacterLabel(c *types.Character) string {
	if label := c.Profile.Name.Label(); label != "" {
		return label
	}
	return c.ID
}

// BuildRelationshipGraph derives one node per character and one edge per
// distinct relationship. Characters are processed in id order, so the
// first declaring side is the one with the smallest id. A reciprocal
// declaration of the same type folds into the existing edge. Explicit
// edges then replace derived edges with the same id.
func BuildRelationshipGraph(ds *types.Dataset) *Graph {
	chars := slices.Clone(ds.Characters)
	slices.SortFunc(chars, func(a, b *types.Character) int { return cmp.Compare(a.ID, b.ID) })

	g := &Graph{Nodes: make([]Node, 0, len(chars))}
	known := make(map[string]bool, len(chars))
	for _, c := range chars {
		known[c.ID] = true
		g.Nodes = append(g.Nodes, Node{ID: c.ID, Label: CharacterLabel(c), Tags: nonNil(c.Tags)})
	}

	edges := map[string]*Edge{}
	for _, c := range chars {
		for _, rel := range c.Relationships {
			if !known[rel.TargetID] {
				continue
			}
			id := EdgeID(c.ID, rel.Type, rel.TargetID)
			existing, ok := edges[id]
			if !ok {
				e := &Edge{
					ID:        id,
					Source:    c.ID,
					Target:    rel.TargetID,
					Type:      rel.Type,
					Intensity: rel.IntensityOrDefault(),
					Summary:   rel.Description,
					Tags:      []string{},
				}
				if rel.Mutual {
					e.Tags = addTag(e.Tags, MutualTag)
				}
				edges[id] = e
				continue
			}
			if existing.Source == c.ID {
				// Same side declared twice; the first declaration stands.
				continue
			}
			foldReverse(existing, rel)
		}
	}

	for _, x := range ds.Edges {
		if !known[x.A] || !known[x.B] {
			continue
		}
		id := EdgeID(x.A, x.Type, x.B)
		tags := slices.Clone(x.Tags)
		slices.Sort(tags)
		edges[id] = &Edge{
			ID:        id,
			Source:    x.A,
			Target:    x.B,
			Type:      x.Type,
			Intensity: x.IntensityOrDefault(),
			Summary:   x.Summary,
			Tags:      nonNil(slices.Compact(tags)),
		}
	}

	g.Edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		g.Edges = append(g.Edges, *e)
	}
	slices.SortFunc(g.Edges, func(a, b Edge) int { return cmp.Compare(a.ID, b.ID) })
	return g
}

// foldReverse merges the reverse side's declaration into an edge.
func foldReverse(e *Edge, rel types.Relationship) {
	if rev := rel.IntensityOrDefault(); rev != e.Intensity && e.IntensityReverse == nil {
		e.IntensityReverse = &rev
	}
	if e.Summary == "" {
		e.Summary = rel.Description
	}
	e.Tags = addTag(e.Tags, MutualTag)
}

// addTag inserts tag keeping the slice sorted and free of duplicates.
func addTag(tags []string, tag string) []string {
	i, found := slices.BinarySearch(tags, tag)
	if found {
		return tags
	}
	return slices.Insert(tags, i, tag)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
