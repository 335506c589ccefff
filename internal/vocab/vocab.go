// Package vocab loads the controlled vocabulary every document is checked
// against. A Vocabulary is immutable once loaded and is passed explicitly to
// the validators and builders that need it.
package vocab

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Cardinality limits how many links of one kind a character may hold.
type Cardinality string

const (
	// Multiple allows any number of links of a kind (the default).
	Multiple Cardinality = "multiple"
	// Single allows at most one link of a kind per character.
	Single Cardinality = "single"
)

// Format is the encoding of a vocabulary source.
type Format string

// Supported formats
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath infers the encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported vocabulary format %q", filepath.Ext(path))
}

// LoadError is returned when a vocabulary source is missing, unparsable or
// structurally malformed. It is always fatal.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load vocabulary %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// File is the on-disk shape of a vocabulary. The four list sections are
// required; link_cardinality is optional.
type File struct {
	TagPrefixes       *[]string         `yaml:"tag_prefixes" toml:"tag_prefixes"`
	RelationshipTypes *[]string         `yaml:"relationship_types" toml:"relationship_types"`
	LocationTypes     *[]string         `yaml:"location_types" toml:"location_types"`
	LinkKinds         *[]string         `yaml:"link_kinds" toml:"link_kinds"`
	LinkCardinality   map[string]string `yaml:"link_cardinality,omitempty" toml:"link_cardinality,omitempty"`
}

// Vocabulary is the closed set of registered terms.
type Vocabulary struct {
	source            string
	tagPrefixes       map[string]struct{}
	relationshipTypes map[string]struct{}
	locationTypes     map[string]struct{}
	linkKinds         map[string]struct{}
	cardinality       map[string]Cardinality
}

// Load reads a vocabulary from a YAML or TOML file.
func Load(path string) (*Vocabulary, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	// #nosec G304 - path comes from the configured dataset root
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return Parse(data, format, path)
}

// Parse decodes vocabulary content. source is used only in error messages.
func Parse(data []byte, format Format, source string) (*Vocabulary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Path: source, Err: errors.New("vocabulary is empty")}
	}

	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, &LoadError{Path: source, Err: err}
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, &LoadError{Path: source, Err: err}
		}
	default:
		return nil, &LoadError{Path: source, Err: fmt.Errorf("unsupported format %q", format)}
	}

	v, err := New(f)
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}
	v.source = source
	return v, nil
}

// New builds a Vocabulary from its decoded form, checking that every
// required section is present and every cardinality entry is meaningful.
func New(f File) (*Vocabulary, error) {
	var missing []string
	for _, s := range []struct {
		name string
		list *[]string
	}{
		{"tag_prefixes", f.TagPrefixes},
		{"relationship_types", f.RelationshipTypes},
		{"location_types", f.LocationTypes},
		{"link_kinds", f.LinkKinds},
	} {
		if s.list == nil {
			missing = append(missing, s.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required section(s): %s", strings.Join(missing, ", "))
	}

	v := &Vocabulary{
		tagPrefixes:       toSet(*f.TagPrefixes),
		relationshipTypes: toSet(*f.RelationshipTypes),
		locationTypes:     toSet(*f.LocationTypes),
		linkKinds:         toSet(*f.LinkKinds),
		cardinality:       make(map[string]Cardinality, len(f.LinkCardinality)),
	}

	// Sorted so the first reported problem is stable.
	kinds := make([]string, 0, len(f.LinkCardinality))
	for k := range f.LinkCardinality {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if _, ok := v.linkKinds[kind]; !ok {
			return nil, fmt.Errorf("link_cardinality: %q is not a registered link kind", kind)
		}
		switch c := Cardinality(f.LinkCardinality[kind]); c {
		case Single, Multiple:
			v.cardinality[kind] = c
		default:
			return nil, fmt.Errorf("link_cardinality: %q has invalid value %q (expected single or multiple)", kind, c)
		}
	}
	return v, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Source returns the path the vocabulary was loaded from, if any.
func (v *Vocabulary) Source() string { return v.source }

// TagPrefix splits a tag of the form prefix/value. ok is false for tags
// without a separator or with an empty prefix.
func TagPrefix(tag string) (prefix string, ok bool) {
	prefix, _, found := strings.Cut(tag, "/")
	if !found || prefix == "" {
		return "", false
	}
	return prefix, true
}

// IsValidTagPrefix reports whether tag is well formed and its prefix is
// registered.
func (v *Vocabulary) IsValidTagPrefix(tag string) bool {
	prefix, ok := TagPrefix(tag)
	if !ok {
		return false
	}
	_, ok = v.tagPrefixes[prefix]
	return ok
}

// IsValidRelationshipType reports whether t is a registered relationship type.
func (v *Vocabulary) IsValidRelationshipType(t string) bool {
	_, ok := v.relationshipTypes[t]
	return ok
}

// IsValidLocationType reports whether t is a registered location type.
func (v *Vocabulary) IsValidLocationType(t string) bool {
	_, ok := v.locationTypes[t]
	return ok
}

// IsValidLinkKind reports whether k is a registered link kind.
func (v *Vocabulary) IsValidLinkKind(k string) bool {
	_, ok := v.linkKinds[k]
	return ok
}

// Cardinality returns the cardinality of a link kind. Kinds without an
// explicit entry are Multiple.
func (v *Vocabulary) Cardinality(kind string) Cardinality {
	if c, ok := v.cardinality[kind]; ok {
		return c
	}
	return Multiple
}

// TagPrefixes returns the registered tag prefixes, sorted.
func (v *Vocabulary) TagPrefixes() []string { return sortedKeys(v.tagPrefixes) }

// RelationshipTypes returns the registered relationship types, sorted.
func (v *Vocabulary) RelationshipTypes() []string { return sortedKeys(v.relationshipTypes) }

// LocationTypes returns the registered location types, sorted.
func (v *Vocabulary) LocationTypes() []string { return sortedKeys(v.locationTypes) }

// LinkKinds returns the registered link kinds, sorted.
func (v *Vocabulary) LinkKinds() []string { return sortedKeys(v.linkKinds) }
