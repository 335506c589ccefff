package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/untoldecay/lorebook/internal/types"
)

// TemplatePrefix marks scaffolding files that are never loaded.
const TemplatePrefix = "_TEMPLATE"

// Paths locates every source of a dataset. Directory entries are scanned;
// file entries are optional single documents.
type Paths struct {
	Root       string
	Characters string
	Locations  string
	Maps       string
	Links      string
	Relations  string
	Vocabulary string
}

// DefaultPaths returns the conventional layout under root. The vocabulary
// defaults to schemas/vocab.yml, falling back to schemas/vocab.toml when only
// the TOML form exists.
func DefaultPaths(root string) Paths {
	p := Paths{
		Root:       root,
		Characters: filepath.Join(root, "characters"),
		Locations:  filepath.Join(root, "locations"),
		Maps:       filepath.Join(root, "maps"),
		Links:      filepath.Join(root, "links", "character_locations.yml"),
		Relations:  filepath.Join(root, "relations", "graph.yml"),
		Vocabulary: filepath.Join(root, "schemas", "vocab.yml"),
	}
	if !exists(p.Vocabulary) {
		if alt := filepath.Join(root, "schemas", "vocab.toml"); exists(alt) {
			p.Vocabulary = alt
		}
	}
	return p
}

// Rel returns path relative to the dataset root for display.
func (p Paths) Rel(path string) string {
	if rel, err := filepath.Rel(p.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// Watched returns the directories and files whose changes affect a build.
func (p Paths) Watched() []string {
	return []string{p.Characters, p.Locations, p.Maps, filepath.Dir(p.Links), filepath.Dir(p.Relations), filepath.Dir(p.Vocabulary)}
}

// File is one discovered source document.
type File struct {
	Kind types.Kind
	Path string
}

// suffixesFor lists the accepted file name endings per scanned kind.
var suffixesFor = map[types.Kind][]string{
	types.KindCharacter: {".yml", ".yaml"},
	types.KindLocation:  {".location.yml", ".location.yaml"},
	types.KindMap:       {".map.yml", ".map.yaml"},
}

// Discover lists every source document in kind order, sorted by path within
// a kind. The characters directory must exist; every other source is
// optional.
func Discover(p Paths) ([]File, error) {
	var files []File

	for _, dir := range []struct {
		kind     types.Kind
		path     string
		required bool
	}{
		{types.KindCharacter, p.Characters, true},
		{types.KindLocation, p.Locations, false},
		{types.KindMap, p.Maps, false},
	} {
		found, err := scanDir(dir.path, suffixesFor[dir.kind])
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && !dir.required {
				continue
			}
			return nil, fmt.Errorf("scan %s directory: %w", dir.kind, err)
		}
		for _, path := range found {
			files = append(files, File{Kind: dir.kind, Path: path})
		}
	}

	for _, single := range []struct {
		kind types.Kind
		path string
	}{
		{types.KindLinks, p.Links},
		{types.KindRelations, p.Relations},
	} {
		if single.path != "" && exists(single.path) {
			files = append(files, File{Kind: single.kind, Path: single.path})
		}
	}
	return files, nil
}

func scanDir(dir string, suffixes []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, TemplatePrefix) || strings.HasPrefix(name, ".") {
			continue
		}
		if hasAnySuffix(name, suffixes) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
