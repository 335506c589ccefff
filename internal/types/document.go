package types

// Document is one parsed source file. Exactly one of the entity pointers is
// set, matching Kind, unless the file could not be parsed at all.
type Document struct {
	Kind Kind
	// Path is the file path relative to the dataset root, used in reports.
	Path string
	// StemID is the identifier implied by the file name.
	StemID string

	Character *Character
	Location  *Location
	Map       *Map
	Links     *LinkSet
	Relations *Relations
}

// ID returns the identifier declared inside the document, or "" when the
// document has no identity or could not be decoded.
func (d *Document) ID() string {
	switch d.Kind {
	case KindCharacter:
		if d.Character != nil {
			return d.Character.ID
		}
	case KindLocation:
		if d.Location != nil {
			return d.Location.ID
		}
	case KindMap:
		if d.Map != nil {
			return d.Map.ID
		}
	}
	return ""
}

// Decoded reports whether the entity for the document's kind is present.
func (d *Document) Decoded() bool {
	switch d.Kind {
	case KindCharacter:
		return d.Character != nil
	case KindLocation:
		return d.Location != nil
	case KindMap:
		return d.Map != nil
	case KindLinks:
		return d.Links != nil
	case KindRelations:
		return d.Relations != nil
	}
	return false
}

// Dataset is the validated, ID-sorted content of a snapshot that the graph
// builder and emitter work from.
type Dataset struct {
	Characters []*Character
	Locations  []*Location
	Maps       []*Map
	Links      []Link
	Edges      []ExplicitEdge
}

// CharacterByID returns the character with the given id, or nil.
func (ds *Dataset) CharacterByID(id string) *Character {
	for _, c := range ds.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// LocationByID returns the location with the given id, or nil.
func (ds *Dataset) LocationByID(id string) *Location {
	for _, l := range ds.Locations {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// MapByID returns the map with the given id, or nil.
func (ds *Dataset) MapByID(id string) *Map {
	for _, m := range ds.Maps {
		if m.ID == id {
			return m
		}
	}
	return nil
}
