// Package export serializes the compiled dataset to the JSON files read by
// the site. Files are staged and renamed into place under an exclusive lock
// so readers never observe a half-written dataset.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"

	"github.com/untoldecay/lorebook/internal/logging"
)

// LockFile is created in the output directory while a build is emitting.
const LockFile = ".lore.lock"

// Names of the fixed artifacts.
const (
	CharactersFile         = "characters.json"
	GraphFile              = "graph.json"
	LayoutFile             = "layout.json"
	LocationsFile          = "locations.json"
	MapsFile               = "maps.json"
	CharacterLocationsFile = "character_locations.json"
)

// Per-map artifact name prefixes.
const (
	LocationGraphPrefix  = "location_graph_"
	LocationLayoutPrefix = "location_layout_"
)

// LocationGraphFile names the subgraph artifact of a map.
func LocationGraphFile(mapID string) string { return LocationGraphPrefix + mapID + ".json" }

// LocationLayoutFile names the layout artifact of a map.
func LocationLayoutFile(mapID string) string { return LocationLayoutPrefix + mapID + ".json" }

// isPerMap reports whether name is a generated per-map artifact.
func isPerMap(name string) bool {
	return strings.HasSuffix(name, ".json") &&
		(strings.HasPrefix(name, LocationGraphPrefix) || strings.HasPrefix(name, LocationLayoutPrefix))
}

// EmissionError reports an I/O failure while writing the dataset.
type EmissionError struct {
	Path string
	Op   string
	Err  error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("emit %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *EmissionError) Unwrap() error { return e.Err }

// ErrLocked is wrapped by the EmissionError returned when another build
// holds the output lock.
var ErrLocked = errors.New("output directory is locked by another build")

// Artifact is one file to emit.
type Artifact struct {
	Name  string
	Value any
}

// FileResult describes one emitted file.
type FileResult struct {
	Name    string `json:"name"`
	SHA256  string `json:"sha256"`
	Bytes   int    `json:"bytes"`
	Changed bool   `json:"changed"`
}

// Result lists what an emission wrote and removed.
type Result struct {
	Dir     string       `json:"dir"`
	Files   []FileResult `json:"files"`
	Removed []string     `json:"removed,omitempty"`
}

// Changed reports whether any file content changed or any file was removed.
func (r *Result) Changed() bool {
	if len(r.Removed) > 0 {
		return true
	}
	for _, f := range r.Files {
		if f.Changed {
			return true
		}
	}
	return false
}

// Encode renders v as two-space indented JSON without HTML escaping,
// terminated by a newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write emits artifacts into dir. Everything is encoded and written to a
// staging directory first; only when every write succeeded are the files
// renamed into place, and a failed rename puts back the files already
// replaced. Per-map artifacts in dir that are not part of this emission are
// then deleted.
func Write(ctx context.Context, dir string, artifacts []Artifact) (*Result, error) {
	logger := logging.FromContext(ctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &EmissionError{Path: dir, Op: "mkdir", Err: err}
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, &EmissionError{Path: lock.Path(), Op: "lock", Err: err}
	}
	if !locked {
		return nil, &EmissionError{Path: lock.Path(), Op: "lock", Err: ErrLocked}
	}
	defer func() { _ = lock.Unlock() }()

	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, &EmissionError{Path: dir, Op: "stage", Err: err}
	}
	defer func() { _ = os.RemoveAll(staging) }()

	res := &Result{Dir: dir}
	keep := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := Encode(a.Value)
		if err != nil {
			return nil, &EmissionError{Path: a.Name, Op: "encode", Err: err}
		}
		if err := os.WriteFile(filepath.Join(staging, a.Name), data, 0o644); err != nil {
			return nil, &EmissionError{Path: a.Name, Op: "write", Err: err}
		}
		sum := sha256.Sum256(data)
		res.Files = append(res.Files, FileResult{
			Name:    a.Name,
			SHA256:  hex.EncodeToString(sum[:]),
			Bytes:   len(data),
			Changed: !sameContent(filepath.Join(dir, a.Name), data),
		})
		keep[a.Name] = true
	}

	if err := commit(dir, staging, res.Files); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &EmissionError{Path: dir, Op: "list", Err: err}
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || keep[name] || !isPerMap(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &EmissionError{Path: name, Op: "remove", Err: err}
		}
		res.Removed = append(res.Removed, name)
	}
	slices.Sort(res.Removed)

	logger.Debug("emitted dataset", "dir", dir, "files", len(res.Files), "removed", len(res.Removed))
	return res, nil
}

// renameFile is os.Rename; tests replace it to inject failures.
var renameFile = os.Rename

// commit moves staged files into dir. Each file it replaces is first moved
// aside into the staging directory so that, if any rename fails, the files
// already committed are restored (or removed when they are new) and dir
// holds the previous emission again.
func commit(dir, staging string, files []FileResult) error {
	previous := filepath.Join(staging, ".previous")
	if err := os.Mkdir(previous, 0o755); err != nil {
		return &EmissionError{Path: dir, Op: "stage", Err: err}
	}

	type step struct {
		name     string
		replaced bool
	}
	var done []step
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			target := filepath.Join(dir, done[i].name)
			if done[i].replaced {
				_ = renameFile(filepath.Join(previous, done[i].name), target)
			} else {
				_ = os.Remove(target)
			}
		}
	}

	for _, f := range files {
		target := filepath.Join(dir, f.Name)
		replaced := false
		if _, err := os.Lstat(target); err == nil {
			if err := renameFile(target, filepath.Join(previous, f.Name)); err != nil {
				rollback()
				return &EmissionError{Path: f.Name, Op: "backup", Err: err}
			}
			replaced = true
		}
		if err := renameFile(filepath.Join(staging, f.Name), target); err != nil {
			if replaced {
				_ = renameFile(filepath.Join(previous, f.Name), target)
			}
			rollback()
			return &EmissionError{Path: f.Name, Op: "rename", Err: err}
		}
		done = append(done, step{name: f.Name, replaced: replaced})
	}
	return nil
}

func sameContent(path string, data []byte) bool {
	// #nosec G304 - path is inside the output directory
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, data)
}
