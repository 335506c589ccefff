// Package schema generates JSON Schemas for the source documents so that
// editors can validate and complete them while authoring.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"

	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/vocab"
)

// Patterns shared with the validator.
const (
	SlugPattern = `^[a-z0-9][a-z0-9_-]*$`
	DatePattern = `^\d{4}-\d{2}-\d{2}$`
)

// FileName is the conventional file name of a kind's schema.
func FileName(kind types.Kind) string {
	return string(kind) + ".schema.json"
}

var documents = map[types.Kind]any{
	types.KindCharacter: &types.Character{},
	types.KindLocation:  &types.Location{},
	types.KindMap:       &types.Map{},
	types.KindLinks:     &types.LinkSet{},
	types.KindRelations: &types.Relations{},
}

var (
	nameType       = reflect.TypeOf(types.Name{})
	stringListType = reflect.TypeOf(types.StringList{})
)

// mapper describes the types whose YAML form differs from their Go shape.
func mapper(t reflect.Type) *jsonschema.Schema {
	switch t {
	case nameType:
		props := jsonschema.NewProperties()
		for _, k := range []string{"display", "full", "romanized"} {
			props.Set(k, &jsonschema.Schema{Type: "string"})
		}
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			{Type: "string", MinLength: ptr(uint64(1))},
			{Type: "object", Properties: props, AdditionalProperties: jsonschema.FalseSchema, MinProperties: ptr(uint64(1))},
		}}
	case stringListType:
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		}}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// Generate returns the schema of one document kind. When v is non-nil the
// closed vocabulary lists become enums.
func Generate(kind types.Kind, v *vocab.Vocabulary) (*jsonschema.Schema, error) {
	doc, ok := documents[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
		Mapper:         mapper,
	}
	s := r.Reflect(doc)
	s.Title = fmt.Sprintf("lore %s document", kind)
	annotate(kind, s, v)
	return s, nil
}

// Marshal renders a schema as indented JSON with a trailing newline.
func Marshal(s *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// prop walks nested object properties, descending into array items when a
// step is "[]". It returns nil when the path does not exist.
func prop(s *jsonschema.Schema, path ...string) *jsonschema.Schema {
	for _, name := range path {
		if s == nil {
			return nil
		}
		if name == "[]" {
			s = s.Items
			continue
		}
		if s.Properties == nil {
			return nil
		}
		next, ok := s.Properties.Get(name)
		if !ok {
			return nil
		}
		s = next
	}
	return s
}

func setPattern(s *jsonschema.Schema, pattern string) {
	if s != nil {
		s.Pattern = pattern
	}
}

func setRange(s *jsonschema.Schema, lo, hi int) {
	if s != nil {
		s.Minimum = json.Number(fmt.Sprint(lo))
		s.Maximum = json.Number(fmt.Sprint(hi))
	}
}

func setEnum(s *jsonschema.Schema, values []string) {
	if s == nil || len(values) == 0 {
		return
	}
	s.Enum = make([]any, len(values))
	for i, v := range values {
		s.Enum[i] = v
	}
}

func annotate(kind types.Kind, s *jsonschema.Schema, v *vocab.Vocabulary) {
	if kind.HasID() {
		setPattern(prop(s, "id"), SlugPattern)
		setPattern(prop(s, "meta", "created"), DatePattern)
		setPattern(prop(s, "meta", "updated"), DatePattern)
	}

	switch kind {
	case types.KindCharacter:
		setRange(prop(s, "relationships", "[]", "intensity"), -5, 5)
		if v != nil {
			setEnum(prop(s, "relationships", "[]", "type"), v.RelationshipTypes())
		}
	case types.KindLocation:
		if v != nil {
			setEnum(prop(s, "profile", "type"), v.LocationTypes())
		}
	case types.KindMap:
		if depth := prop(s, "include", "depth"); depth != nil {
			depth.Minimum = json.Number("0")
		}
		if v != nil {
			setEnum(prop(s, "include", "types", "[]"), v.LocationTypes())
		}
	case types.KindLinks:
		if v != nil {
			setEnum(prop(s, "links", "[]", "kind"), v.LinkKinds())
		}
	case types.KindRelations:
		setRange(prop(s, "edges", "[]", "intensity"), -5, 5)
		if v != nil {
			setEnum(prop(s, "edges", "[]", "type"), v.RelationshipTypes())
		}
	}
}

// Kinds lists the kinds Generate accepts, sorted.
func Kinds() []types.Kind {
	kinds := make([]types.Kind, 0, len(documents))
	for k := range documents {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
