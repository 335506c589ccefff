package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"github.com/untoldecay/lorebook/internal/types"
)

func TestEncode(t *testing.T) {
	data, err := Encode(map[string]any{"b": "<tag> & more", "a": []int{1}})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"a\": [\n    1\n  ],\n  \"b\": \"<tag> & more\"\n}\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteStagesAndReportsChanges(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site", "data")
	ctx := context.Background()
	artifacts := []Artifact{
		{Name: GraphFile, Value: map[string]any{"nodes": []string{}}},
		{Name: LocationGraphFile("overview"), Value: []string{"city"}},
	}

	first, err := Write(ctx, dir, artifacts)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if !first.Changed() || len(first.Files) != 2 {
		t.Errorf("first write should report changes: %+v", first)
	}

	second, err := Write(ctx, dir, artifacts)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if second.Changed() {
		t.Errorf("identical write should not change anything: %+v", second)
	}
	if first.Files[0].SHA256 != second.Files[0].SHA256 {
		t.Error("hashes of identical content differ")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".staging-") {
			t.Errorf("staging directory %s left behind", e.Name())
		}
	}
}

func TestWriteRemovesStaleMapFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{LocationGraphFile("old"), LocationLayoutFile("old"), "notes.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	res, err := Write(context.Background(), dir, []Artifact{{Name: LocationGraphFile("new"), Value: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"location_graph_old.json", "location_layout_old.json"}, res.Removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.json")); err != nil {
		t.Error("unrelated files must be left alone")
	}
}

func TestWriteLocked(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, LockFile))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer func() { _ = held.Unlock() }()

	_, err = Write(context.Background(), dir, []Artifact{{Name: GraphFile, Value: 1}})
	var ee *EmissionError
	if !errors.As(err, &ee) || !errors.Is(err, ErrLocked) {
		t.Fatalf("expected locked EmissionError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, GraphFile)); !errors.Is(err, os.ErrNotExist) {
		t.Error("nothing should be written while locked")
	}
}

func TestWriteEncodeFailureLeavesOutputUntouched(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, GraphFile), []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Write(context.Background(), dir, []Artifact{
		{Name: GraphFile, Value: 1},
		{Name: MapsFile, Value: make(chan int)},
	})
	var ee *EmissionError
	if !errors.As(err, &ee) || ee.Op != "encode" {
		t.Fatalf("expected encode EmissionError, got %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, GraphFile))
	if string(data) != "old\n" {
		t.Errorf("graph.json was replaced despite failure: %q", data)
	}
}

func TestCharacters(t *testing.T) {
	chars := []*types.Character{
		{
			ID:          "bob",
			Tags:        []string{"foo/bar", "species/elf/high"},
			Profile:     types.Profile{Name: types.Name{Display: "Bob", Romanized: "Bobu"}, Age: 40, Role: "smith", Affiliation: "guild"},
			Story:       types.Story{RoleInNarrative: "mentor"},
			Personality: types.Personality{Summary: "gruff"},
			AIPortrayal: types.AIPortrayal{Guidelines: types.StringList{"speak plainly", "never lie"}},
		},
		{ID: "alice", Profile: types.Profile{Name: types.Name{Full: "Alice Liddell"}}},
	}
	want := []CharacterRecord{
		{ID: "alice", NameDisplay: "Alice Liddell", Aliases: []string{}, Tags: []string{}},
		{
			ID: "bob", NameDisplay: "Bob", NameRomanized: "Bobu", Aliases: []string{},
			Tags: []string{"foo/bar", "species/elf/high"}, RoleInStory: "mentor", AISummary: "speak plainly",
			Age: 40, Species: "elf", Occupation: "smith", AffiliationPrimary: "guild", PersonalitySummary: "gruff",
		},
	}
	if diff := cmp.Diff(want, Characters(chars)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLocationsAndMaps(t *testing.T) {
	locs := Locations([]*types.Location{
		{ID: "district", Profile: types.LocationProfile{Name: "D", Type: "district", ParentID: "city"}},
		{ID: "city", Profile: types.LocationProfile{Name: "C", Type: "city"}},
	})
	if locs[0].ID != "city" || locs[0].ParentID != nil || *locs[1].ParentID != "city" {
		t.Errorf("unexpected locations: %+v", locs)
	}
	data, err := Encode(locs[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"parent_id": null`) || !strings.Contains(string(data), `"lore": {}`) {
		t.Errorf("root location should encode null parent and empty lore: %s", data)
	}

	maps := Maps([]*types.Map{{ID: "overview", RootLocationID: "city"}})
	if maps[0].Include.Depth != types.DefaultIncludeDepth || maps[0].Include.Types == nil {
		t.Errorf("include defaults not applied: %+v", maps[0].Include)
	}
}

func TestLinksSorted(t *testing.T) {
	got := Links([]types.Link{
		{CharacterID: "bob", Kind: "visits", LocationID: "city"},
		{CharacterID: "alice", Kind: "visits", LocationID: "town"},
		{CharacterID: "alice", Kind: "lives_in", LocationID: "city", Note: "since birth"},
		{CharacterID: "alice", Kind: "visits", LocationID: "city"},
		{CharacterID: "bob", Kind: "visits", LocationID: "city"},
	})
	want := []LinkRecord{
		{CharacterID: "alice", Kind: "lives_in", LocationID: "city", Note: "since birth"},
		{CharacterID: "alice", Kind: "visits", LocationID: "city"},
		{CharacterID: "alice", Kind: "visits", LocationID: "town"},
		{CharacterID: "bob", Kind: "visits", LocationID: "city"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRenameFailureRestoresPreviousEmission(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	before := []Artifact{
		{Name: CharactersFile, Value: []string{"alice"}},
		{Name: GraphFile, Value: map[string]int{"edges": 1}},
		{Name: MapsFile, Value: []string{"overview"}},
	}
	if _, err := Write(ctx, dir, before); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	snapshot := func() map[string]string {
		t.Helper()
		out := map[string]string{}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if e.IsDir() || e.Name() == LockFile {
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
	want := snapshot()

	failOn := filepath.Join(dir, MapsFile)
	renameFile = func(oldpath, newpath string) error {
		if newpath == failOn && strings.Contains(oldpath, ".staging-") && !strings.Contains(oldpath, ".previous") {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() { renameFile = os.Rename })

	after := []Artifact{
		{Name: CharactersFile, Value: []string{"alice", "bob"}},
		{Name: GraphFile, Value: map[string]int{"edges": 2}},
		{Name: LocationGraphFile("overview"), Value: []string{"city"}},
		{Name: MapsFile, Value: []string{"overview", "harbor"}},
	}
	_, err := Write(ctx, dir, after)
	var ee *EmissionError
	if !errors.As(err, &ee) || ee.Op != "rename" || ee.Path != MapsFile {
		t.Fatalf("expected rename EmissionError for %s, got %v", MapsFile, err)
	}
	if diff := cmp.Diff(want, snapshot()); diff != "" {
		t.Errorf("output directory not restored (-want +got):\n%s", diff)
	}
}
