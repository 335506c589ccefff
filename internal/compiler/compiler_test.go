package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/untoldecay/lorebook/internal/export"
	"github.com/untoldecay/lorebook/internal/layout"
	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/validation"
	"github.com/untoldecay/lorebook/internal/vocab"
)

const vocabYAML = `tag_prefixes: [species, faction]
relationship_types: [friend, rival]
location_types: [city, district, street]
link_kinds: [lives_in, visits]
link_cardinality:
  lives_in: single
`

func dataset() map[string]string {
	return map[string]string{
		"schemas/vocab.yml": vocabYAML,
		"characters/alice.yml": `id: alice
tags: [species/human, faction/guild]
profile:
  name:
    display: Alice
    romanized: Arisu
  aliases: [Al]
story:
  role_in_narrative: protagonist
relationships:
  - target_id: bob
    type: friend
    intensity: 4
meta:
  created: "2024-02-29"
`,
		"characters/bob.yml": `id: bob
tags: [mood/grumpy]
profile:
  name: Bob
relationships:
  - target_id: alice
    type: friend
    intensity: 2
    description: Childhood friends
`,
		"locations/city.location.yml":       "id: city\nprofile:\n  name: City\n  type: city\n",
		"locations/district_a.location.yml": "id: district_a\nprofile:\n  name: District A\n  type: district\n  parent_id: city\n",
		"locations/street_x.location.yml":   "id: street_x\nprofile:\n  name: Street X\n  type: street\n  parent_id: district_a\n",
		"maps/overview.map.yml":             "id: overview\nroot_location_id: city\ninclude:\n  depth: 1\n  types: [district]\n",
		"links/character_locations.yml": `links:
  - character_id: alice
    kind: lives_in
    location_id: street_x
  - character_id: bob
    kind: visits
    location_id: city
`,
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func options(root string) Options {
	return Options{
		Paths:     loader.DefaultPaths(root),
		OutputDir: filepath.Join(root, "site", "data"),
		Workers:   2,
		Spacing:   layout.DefaultSpacing,
		Orphans:   layout.Prune,
	}
}

func readOutputs(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || e.Name() == export.LockFile {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = string(data)
	}
	return out
}

func TestBuildEmitsContract(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, dataset())
	opts := options(root)

	res, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Report.Warnings) != 1 {
		t.Errorf("expected one warning for the mood/ tag, got %v", res.Report.Warnings)
	}

	outputs := readOutputs(t, opts.OutputDir)
	var names []string
	for name := range outputs {
		names = append(names, name)
	}
	wantNames := []string{
		"character_locations.json",
		"characters.json",
		"graph.json",
		"layout.json",
		"location_graph_overview.json",
		"location_layout_overview.json",
		"locations.json",
		"maps.json",
	}
	slices.Sort(names)
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("artifacts (-want +got):\n%s", diff)
	}

	var chars []export.CharacterRecord
	if err := json.Unmarshal([]byte(outputs["characters.json"]), &chars); err != nil {
		t.Fatal(err)
	}
	if len(chars) != 2 || chars[0].ID != "alice" || chars[0].Species != "human" || chars[0].NameRomanized != "Arisu" {
		t.Errorf("characters = %+v", chars)
	}
	if diff := cmp.Diff([]string{"mood/grumpy"}, chars[1].Tags); diff != "" {
		t.Errorf("unregistered tag should still be emitted (-want +got):\n%s", diff)
	}

	var g struct {
		Edges []struct {
			ID               string `json:"id"`
			IntensityReverse *int   `json:"intensity_reverse"`
			Summary          string `json:"summary"`
		} `json:"edges"`
	}
	if err := json.Unmarshal([]byte(outputs["graph.json"]), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 || g.Edges[0].ID != "alice__friend__bob" || g.Edges[0].Summary != "Childhood friends" {
		t.Errorf("edges = %+v", g.Edges)
	}
	if g.Edges[0].IntensityReverse == nil || *g.Edges[0].IntensityReverse != 2 {
		t.Errorf("intensity_reverse = %v", g.Edges[0].IntensityReverse)
	}

	var sub struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(outputs["location_graph_overview.json"]), &sub); err != nil {
		t.Fatal(err)
	}
	if len(sub.Nodes) != 2 || sub.Nodes[0].ID != "city" || sub.Nodes[1].ID != "district_a" {
		t.Errorf("subgraph nodes = %+v", sub.Nodes)
	}

	var locs []map[string]any
	if err := json.Unmarshal([]byte(outputs["locations.json"]), &locs); err != nil {
		t.Fatal(err)
	}
	if locs[0]["id"] != "city" || locs[0]["parent_id"] != nil {
		t.Errorf("root location should have null parent_id: %+v", locs[0])
	}
}

func TestBuildEmitsFreeformContent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		artifact string
		id       string
		field    string
		want     any
	}{
		{
			name:     "lore keyed by year",
			file:     "locations/city.location.yml",
			content:  "id: city\nprofile:\n  name: City\n  type: city\nlore:\n  timeline:\n    1990: founded\n    2001: flooded\n",
			artifact: export.LocationsFile,
			id:       "city",
			field:    "lore",
			want:     map[string]any{"timeline": map[string]any{"1990": "founded", "2001": "flooded"}},
		},
		{
			name:     "lore with lists and numbers",
			file:     "locations/city.location.yml",
			content:  "id: city\nprofile:\n  name: City\n  type: city\nlore:\n  population: 12000\n  ratio: 0.5\n  gates: [north, {2: south}]\n  depth: .inf\n",
			artifact: export.LocationsFile,
			id:       "city",
			field:    "lore",
			want: map[string]any{
				"population": float64(12000),
				"ratio":      0.5,
				"gates":      []any{"north", map[string]any{"2": "south"}},
				"depth":      "+Inf",
			},
		},
		{
			name:     "display with numeric zoom levels",
			file:     "maps/overview.map.yml",
			content:  "id: overview\nroot_location_id: city\ninclude:\n  depth: 1\n  types: [district]\ndisplay:\n  zoom:\n    1: far\n    3: near\n",
			artifact: export.MapsFile,
			id:       "overview",
			field:    "display",
			want:     map[string]any{"zoom": map[string]any{"1": "far", "3": "near"}},
		},
		{
			name:     "age by era",
			file:     "characters/bob.yml",
			content:  "id: bob\nprofile:\n  name: Bob\n  age:\n    1990: 12\n    2001: 23\n",
			artifact: export.CharactersFile,
			id:       "bob",
			field:    "age",
			want:     map[string]any{"1990": float64(12), "2001": float64(23)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			files := dataset()
			files[tt.file] = tt.content
			writeTree(t, root, files)
			opts := options(root)

			res, err := Build(context.Background(), opts)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if res.Report.HasErrors() {
				t.Fatalf("unexpected errors: %v", res.Report.Errors)
			}

			var records []map[string]any
			if err := json.Unmarshal([]byte(readOutputs(t, opts.OutputDir)[tt.artifact]), &records); err != nil {
				t.Fatal(err)
			}
			var got any
			for _, r := range records {
				if r["id"] == tt.id {
					got = r[tt.field]
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s.%s (-want +got):\n%s", tt.id, tt.field, diff)
			}
		})
	}
}

func TestBuildRejectsCollidingFreeformKeys(t *testing.T) {
	root := t.TempDir()
	files := dataset()
	files["locations/city.location.yml"] = "id: city\nprofile:\n  name: City\n  type: city\nlore:\n  timeline:\n    1: founded\n    1.0: refounded\n"
	writeTree(t, root, files)
	opts := options(root)

	res, err := Build(context.Background(), opts)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	var schemaErr *validation.SchemaError
	if !errors.As(res.Report.Err(), &schemaErr) || schemaErr.Document != "locations/city.location.yml" {
		t.Errorf("report = %v", res.Report.Errors)
	}
	if _, err := os.Stat(opts.OutputDir); !os.IsNotExist(err) {
		t.Error("nothing should be written when validation fails")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, dataset())
	opts := options(root)

	if _, err := Build(context.Background(), opts); err != nil {
		t.Fatalf("first build: %v", err)
	}
	first := readOutputs(t, opts.OutputDir)

	res, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.Emission.Changed() {
		t.Error("second build reported changes")
	}
	if diff := cmp.Diff(first, readOutputs(t, opts.OutputDir)); diff != "" {
		t.Errorf("outputs differ between builds (-first +second):\n%s", diff)
	}
}

func TestBuildKeepsLayoutWhenNodeAdded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, dataset())
	opts := options(root)

	if _, err := Build(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	before, err := layout.Load(filepath.Join(opts.OutputDir, export.LayoutFile))
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, root, map[string]string{"characters/carol.yml": "id: carol\nprofile:\n  name: Carol\n"})
	res, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	for id, pos := range before {
		if res.Layout.Layout[id] != pos {
			t.Errorf("%s moved from %+v to %+v", id, pos, res.Layout.Layout[id])
		}
	}
	if diff := cmp.Diff([]string{"carol"}, res.Layout.Placed); diff != "" {
		t.Errorf("placed (-want +got):\n%s", diff)
	}
}

func TestBuildRefusesInvalidDataset(t *testing.T) {
	root := t.TempDir()
	files := dataset()
	files["characters/alice.yml"] = "id: alice\nprofile:\n  name: Alice\nrelationships:\n  - target_id: ghost\n    type: friend\n"
	writeTree(t, root, files)
	opts := options(root)

	res, err := Build(context.Background(), opts)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	var dangling *validation.DanglingReferenceError
	if !errors.As(res.Report.Err(), &dangling) || dangling.Source != "alice" || dangling.MissingID != "ghost" {
		t.Errorf("report = %v", res.Report.Errors)
	}
	if _, err := os.Stat(opts.OutputDir); !os.IsNotExist(err) {
		t.Error("nothing should be written when validation fails")
	}
}

func TestBuildCycle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"schemas/vocab.yml":        vocabYAML,
		"characters/alice.yml":     "id: alice\nprofile:\n  name: Alice\n",
		"locations/a.location.yml": "id: a\nprofile:\n  name: A\n  type: city\n  parent_id: b\n",
		"locations/b.location.yml": "id: b\nprofile:\n  name: B\n  type: city\n  parent_id: a\n",
	})
	res, err := Validate(context.Background(), options(root))
	if err != nil {
		t.Fatal(err)
	}
	var cycle *validation.CycleError
	if !errors.As(res.Report.Err(), &cycle) {
		t.Fatalf("report = %v", res.Report.Errors)
	}
	if diff := cmp.Diff([]string{"a", "b", "a"}, cycle.Path); diff != "" {
		t.Errorf("cycle path (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsMalformedLayout(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, dataset())
	opts := options(root)
	writeTree(t, root, map[string]string{"site/data/layout.json": `{"alice": {"x": "left"}}`})

	_, err := Build(context.Background(), opts)
	var le *layout.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *layout.LoadError", err)
	}
}

func TestValidateMissingVocabulary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"characters/alice.yml": "id: alice\nprofile:\n  name: Alice\n"})
	_, err := Validate(context.Background(), options(root))
	var le *vocab.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *vocab.LoadError", err)
	}
}
