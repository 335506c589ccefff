// Package layout merges persisted node coordinates with the node set of a
// freshly built graph. Known nodes never move; new nodes are placed on a
// deterministic grid beside the existing drawing.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
)

// DefaultSpacing is the grid pitch used for newly placed nodes.
const DefaultSpacing = 150.0

// Position is a node's coordinates on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout maps node ids to positions. encoding/json writes map keys sorted,
// so a Layout always serializes deterministically.
type Layout map[string]Position

// Policy decides what happens to persisted entries whose node is gone.
type Policy string

const (
	// Prune drops entries for nodes no longer in the graph.
	Prune Policy = "prune"
	// Retain keeps them so a node that comes back regains its place.
	Retain Policy = "retain"
)

// ParsePolicy validates a policy name. The empty string selects Prune.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", Prune:
		return Prune, nil
	case Retain:
		return Retain, nil
	}
	return "", fmt.Errorf("invalid orphan policy %q (expected prune or retain)", s)
}

// LoadError reports a persisted layout that exists but cannot be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load layout %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a persisted layout. A missing file is an empty layout.
func Load(path string) (Layout, error) {
	// #nosec G304 - path is inside the configured output directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Layout{}, nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	l, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return l, nil
}

// Parse decodes layout JSON. The document must be an object of objects
// with numeric x and y; null is accepted as empty.
func Parse(data []byte) (Layout, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Layout{}, nil
	}
	var raw map[string]*struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	l := make(Layout, len(raw))
	for id, p := range raw {
		if p == nil || p.X == nil || p.Y == nil {
			return nil, fmt.Errorf("node %q: position must have numeric x and y", id)
		}
		l[id] = Position{X: *p.X, Y: *p.Y}
	}
	return l, nil
}

// Options configures Merge.
type Options struct {
	Spacing float64
	Orphans Policy
}

// Result is the outcome of a merge.
type Result struct {
	Layout Layout
	// Kept are node ids whose persisted position was reused.
	Kept []string
	// Placed are new node ids that received a grid position.
	Placed []string
	// Orphans are persisted ids not in the graph, pruned or retained per
	// policy.
	Orphans []string
}

// Merge combines a persisted layout with the current node ids. Positioned
// nodes keep their exact coordinates. New nodes are sorted and laid out on
// a grid of ceil(sqrt(n)) columns, one spacing to the right of the
// bounding box of every emitted position (kept nodes and retained orphans)
// and aligned with its top edge, or at the origin when nothing is
// positioned. Merging its own output is a no-op.
func Merge(persisted Layout, nodeIDs []string, opts Options) *Result {
	spacing := opts.Spacing
	if spacing <= 0 {
		spacing = DefaultSpacing
	}

	res := &Result{Layout: make(Layout, len(nodeIDs))}
	current := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		current[id] = true
		if pos, ok := persisted[id]; ok {
			res.Layout[id] = pos
			res.Kept = append(res.Kept, id)
		} else {
			res.Placed = append(res.Placed, id)
		}
	}
	slices.Sort(res.Kept)
	slices.Sort(res.Placed)
	res.Placed = slices.Compact(res.Placed)

	for id := range persisted {
		if !current[id] {
			res.Orphans = append(res.Orphans, id)
		}
	}
	slices.Sort(res.Orphans)
	if opts.Orphans == Retain {
		for _, id := range res.Orphans {
			res.Layout[id] = persisted[id]
		}
	}

	if len(res.Placed) == 0 {
		return res
	}

	// The box covers retained orphans too, so a new node never lands on a
	// position a returning node would reclaim.
	originX, originY := 0.0, 0.0
	if len(res.Layout) > 0 {
		maxX, minY := math.Inf(-1), math.Inf(1)
		for _, p := range res.Layout {
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
		}
		originX, originY = maxX+spacing, minY
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(res.Placed)))))
	for i, id := range res.Placed {
		res.Layout[id] = Position{
			X: originX + float64(i%cols)*spacing,
			Y: originY + float64(i/cols)*spacing,
		}
	}
	return res
}
