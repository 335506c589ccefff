// Package types defines the source document model shared by the loader,
// validators and builders.
package types

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies which family of source document a file belongs to.
type Kind string

// Document kinds
const (
	KindCharacter Kind = "character"
	KindLocation  Kind = "location"
	KindMap       Kind = "map"
	KindLinks     Kind = "links"
	KindRelations Kind = "relations"
)

// Kinds lists every document kind in discovery order.
var Kinds = []Kind{KindCharacter, KindLocation, KindMap, KindLinks, KindRelations}

// HasID reports whether documents of this kind carry their own identifier.
func (k Kind) HasID() bool {
	switch k {
	case KindCharacter, KindLocation, KindMap:
		return true
	}
	return false
}

// DefaultIntensity is used for relationships and explicit edges that omit one.
const DefaultIntensity = 3

// DefaultIncludeDepth is the traversal depth of a map that omits include.depth.
const DefaultIncludeDepth = 3

// Meta carries bookkeeping dates. Both are kept as the literal source text
// so the validator can report malformed values verbatim.
type Meta struct {
	Created string `yaml:"created,omitempty" json:"created,omitempty"`
	Updated string `yaml:"updated,omitempty" json:"updated,omitempty"`
}

// Name is a display name that may be written either as a plain string or as
// a mapping with display/full/romanized forms.
type Name struct {
	Display   string `yaml:"display,omitempty" json:"display,omitempty"`
	Full      string `yaml:"full,omitempty" json:"full,omitempty"`
	Romanized string `yaml:"romanized,omitempty" json:"romanized,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (n *Name) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		n.Display = value.Value
		return nil
	case yaml.MappingNode:
		type plain Name
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*n = Name(p)
		return nil
	}
	return &yaml.TypeError{Errors: []string{
		fmt.Sprintf("line %d: name must be a string or a mapping", value.Line),
	}}
}

// MarshalYAML writes the scalar form when only a display name is set.
func (n Name) MarshalYAML() (interface{}, error) {
	if n.Full == "" && n.Romanized == "" {
		return n.Display, nil
	}
	type plain Name
	return plain(n), nil
}

// Label returns the best human-readable form, or "" if none is set.
func (n Name) Label() string {
	if n.Display != "" {
		return n.Display
	}
	return n.Full
}

// IsZero reports whether no form of the name is set.
func (n Name) IsZero() bool {
	return n.Display == "" && n.Full == "" && n.Romanized == ""
}

// StringList decodes either a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = StringList{value.Value}
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// First returns the first entry or "".
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Character is a single character document.
type Character struct {
	ID            string         `yaml:"id" json:"id" validate:"required,slug"`
	Tags          []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Profile       Profile        `yaml:"profile" json:"profile"`
	Personality   Personality    `yaml:"personality,omitempty" json:"personality,omitempty"`
	Story         Story          `yaml:"story,omitempty" json:"story,omitempty"`
	Relationships []Relationship `yaml:"relationships,omitempty" json:"relationships,omitempty" validate:"dive"`
	AIPortrayal   AIPortrayal    `yaml:"ai_portrayal,omitempty" json:"ai_portrayal,omitempty"`
	Meta          Meta           `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// Profile holds the descriptive fields of a character.
type Profile struct {
	Name        Name     `yaml:"name" json:"name"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Age         any      `yaml:"age,omitempty" json:"age,omitempty"`
	Role        string   `yaml:"role,omitempty" json:"role,omitempty"`
	Affiliation string   `yaml:"affiliation,omitempty" json:"affiliation,omitempty"`
	Appearance  string   `yaml:"appearance,omitempty" json:"appearance,omitempty"`
}

// UnmarshalYAML decodes the profile and normalizes the free-form age.
func (p *Profile) UnmarshalYAML(value *yaml.Node) error {
	type plain Profile
	err := value.Decode((*plain)(p))
	age, nerr := Normalize(p.Age)
	if nerr == nil {
		p.Age = age
		return err
	}
	p.Age = nil
	msg := fmt.Sprintf("line %d: age: %v", value.Line, nerr)
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		typeErr.Errors = append(typeErr.Errors, msg)
		return typeErr
	}
	if err != nil {
		return err
	}
	return &yaml.TypeError{Errors: []string{msg}}
}

// Personality summarizes how a character behaves.
type Personality struct {
	Summary string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Traits  []string `yaml:"traits,omitempty" json:"traits,omitempty"`
	Flaws   []string `yaml:"flaws,omitempty" json:"flaws,omitempty"`
}

// Story places a character in the narrative.
type Story struct {
	Background      string `yaml:"background,omitempty" json:"background,omitempty"`
	RoleInNarrative string `yaml:"role_in_narrative,omitempty" json:"role_in_narrative,omitempty"`
}

// AIPortrayal holds portrayal guidance. Only guidelines are interpreted.
type AIPortrayal struct {
	Guidelines StringList `yaml:"guidelines,omitempty" json:"guidelines,omitempty"`
	Voice      string     `yaml:"voice,omitempty" json:"voice,omitempty"`
}

// Relationship is a directed relationship declared by a character.
type Relationship struct {
	TargetID    string `yaml:"target_id" json:"target_id" validate:"required"`
	Type        string `yaml:"type" json:"type" validate:"required"`
	Intensity   *int   `yaml:"intensity,omitempty" json:"intensity,omitempty" validate:"omitempty,min=-5,max=5"`
	Mutual      bool   `yaml:"mutual,omitempty" json:"mutual,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// IntensityOrDefault returns the declared intensity or DefaultIntensity.
func (r Relationship) IntensityOrDefault() int {
	if r.Intensity == nil {
		return DefaultIntensity
	}
	return *r.Intensity
}

// Location is a node of the location hierarchy.
type Location struct {
	ID      string          `yaml:"id" json:"id" validate:"required,slug"`
	Tags    []string        `yaml:"tags,omitempty" json:"tags,omitempty"`
	Profile LocationProfile `yaml:"profile" json:"profile"`
	Lore    Attributes      `yaml:"lore,omitempty" json:"lore,omitempty"`
	Meta    Meta            `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// LocationProfile holds the descriptive and structural fields of a location.
type LocationProfile struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Short       string `yaml:"short,omitempty" json:"short,omitempty"`
	Type        string `yaml:"type" json:"type" validate:"required"`
	ParentID    string `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Map is a filtered, depth-limited view rooted at one location.
type Map struct {
	ID             string     `yaml:"id" json:"id" validate:"required,slug"`
	Profile        MapProfile `yaml:"profile,omitempty" json:"profile,omitempty"`
	RootLocationID string     `yaml:"root_location_id" json:"root_location_id" validate:"required"`
	Include        Include    `yaml:"include,omitempty" json:"include,omitempty"`
	Display        Attributes `yaml:"display,omitempty" json:"display,omitempty"`
	Meta           Meta       `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// MapProfile describes a map.
type MapProfile struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Include selects which descendants of the root a map shows.
type Include struct {
	Depth *int     `yaml:"depth,omitempty" json:"depth,omitempty" validate:"omitempty,min=0"`
	Types []string `yaml:"types,omitempty" json:"types,omitempty"`
}

// MaxDepth returns the declared depth or DefaultIncludeDepth.
func (i Include) MaxDepth() int {
	if i.Depth == nil {
		return DefaultIncludeDepth
	}
	return *i.Depth
}

// Allows reports whether a location type passes the type filter.
// An empty filter allows every type.
func (i Include) Allows(locationType string) bool {
	if len(i.Types) == 0 {
		return true
	}
	for _, t := range i.Types {
		if t == locationType {
			return true
		}
	}
	return false
}

// LinkSet is the contents of links/character_locations.yml.
type LinkSet struct {
	Links []Link `yaml:"links" json:"links" validate:"dive"`
}

// Link associates a character with a location.
type Link struct {
	CharacterID string `yaml:"character_id" json:"character_id" validate:"required"`
	Kind        string `yaml:"kind" json:"kind" validate:"required"`
	LocationID  string `yaml:"location_id" json:"location_id" validate:"required"`
	Note        string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Relations is the contents of relations/graph.yml.
type Relations struct {
	Edges []ExplicitEdge `yaml:"edges" json:"edges" validate:"dive"`
}

// ExplicitEdge is a hand-authored relationship edge that overrides the one
// derived from character documents.
type ExplicitEdge struct {
	A         string   `yaml:"a" json:"a" validate:"required"`
	B         string   `yaml:"b" json:"b" validate:"required"`
	Type      string   `yaml:"type" json:"type" validate:"required"`
	Intensity *int     `yaml:"intensity,omitempty" json:"intensity,omitempty" validate:"omitempty,min=-5,max=5"`
	Summary   string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Tags      []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// IntensityOrDefault returns the declared intensity or DefaultIntensity.
func (e ExplicitEdge) IntensityOrDefault() int {
	if e.Intensity == nil {
		return DefaultIntensity
	}
	return *e.Intensity
}
