package lorebook_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/untoldecay/lorebook"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func seed(t *testing.T, root string, alice string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "schemas", "vocab.yml"), `tag_prefixes: [species]
relationship_types: [friend]
location_types: [city]
link_kinds: [lives_in]
`)
	writeFile(t, filepath.Join(root, "characters", "alice.yml"), alice)
	writeFile(t, filepath.Join(root, "locations", "city.location.yml"), "id: city\nprofile:\n  name: City\n  type: city\n")
}

func TestDefaultOptions(t *testing.T) {
	root := t.TempDir()
	opts := lorebook.DefaultOptions(root)
	if want := filepath.Join(root, "site", "data"); opts.OutputDir != want {
		t.Errorf("OutputDir = %s, want %s", opts.OutputDir, want)
	}
	if opts.Paths.Characters != filepath.Join(root, "characters") {
		t.Errorf("Characters = %s", opts.Paths.Characters)
	}
	if opts.Workers < 1 {
		t.Errorf("Workers = %d, want at least 1", opts.Workers)
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "id: alice\ntags: [species/human]\nprofile:\n  name: Alice\n")

	res, err := lorebook.Build(context.Background(), lorebook.DefaultOptions(root))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Report.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Report.Err())
	}
	if _, err := os.Stat(filepath.Join(root, "site", "data", "characters.json")); err != nil {
		t.Errorf("characters.json not written: %v", err)
	}
}

func TestBuildRejectsInvalidDataset(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "id: alice\nprofile:\n  name: Alice\nrelationships:\n  - target_id: ghost\n    type: friend\n")

	_, err := lorebook.Build(context.Background(), lorebook.DefaultOptions(root))
	if !errors.Is(err, lorebook.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "site", "data")); !os.IsNotExist(err) {
		t.Errorf("output directory should not exist, stat err = %v", err)
	}
}
