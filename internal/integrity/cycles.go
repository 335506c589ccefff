package integrity

import (
	"slices"

	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
)

// parentsOf maps every valid location id to its parent id ("" for roots).
// When an id is declared twice the first document wins, matching
// Snapshot.Dataset.
func parentsOf(snap *loader.Snapshot) map[string]string {
	parents := map[string]string{}
	for _, e := range snap.Entries {
		if e.Doc.Kind != types.KindLocation || !e.Valid() {
			continue
		}
		loc := e.Doc.Location
		if _, dup := parents[loc.ID]; dup {
			continue
		}
		parents[loc.ID] = loc.Profile.ParentID
	}
	return parents
}

// DetectCycles walks the parent chain from every location and returns one
// CycleError per distinct cycle. Each path is closed on its first id and
// rotated to start at the cycle's smallest id. Parents that are not keys of
// parents end a chain; those are reported as dangling references elsewhere.
func DetectCycles(parents map[string]string) []*validation.CycleError {
	ids := make([]string, 0, len(parents))
	for id := range parents {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	// visited holds every id whose chain has been fully walked.
	visited := make(map[string]bool, len(parents))
	var cycles []*validation.CycleError

	for _, start := range ids {
		if visited[start] {
			continue
		}
		onPath := map[string]int{}
		var path []string
		for cur := start; ; {
			if visited[cur] {
				break
			}
			if _, known := parents[cur]; !known {
				break
			}
			if idx, seen := onPath[cur]; seen {
				cycles = append(cycles, &validation.CycleError{Path: closeCycle(path[idx:])})
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			next := parents[cur]
			if next == "" {
				break
			}
			cur = next
		}
		for _, id := range path {
			visited[id] = true
		}
	}
	return cycles
}

// closeCycle rotates members so the smallest id comes first, then repeats
// it at the end.
func closeCycle(members []string) []string {
	smallest := 0
	for i, id := range members {
		if id < members[smallest] {
			smallest = i
		}
	}
	out := make([]string, 0, len(members)+1)
	out = append(out, members[smallest:]...)
	out = append(out, members[:smallest]...)
	return append(out, out[0])
}
