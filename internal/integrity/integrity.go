// Package integrity runs the cross-document checks on a complete snapshot:
// referential closure, vocabulary membership, id uniqueness, link
// cardinality and acyclicity of the location hierarchy.
package integrity

import (
	"fmt"
	"sort"

	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/utils"
	"github.com/untoldecay/lorebook/internal/validation"
	"github.com/untoldecay/lorebook/internal/vocab"
)

// SuggestionDistance is the largest edit distance offered as a hint.
const SuggestionDistance = 2

// registry holds the ids each kind contributes, with the documents that
// declared them.
type registry struct {
	ids    map[types.Kind]map[string][]string
	sorted map[types.Kind][]string
}

func newRegistry(snap *loader.Snapshot) *registry {
	r := &registry{
		ids:    map[types.Kind]map[string][]string{},
		sorted: map[types.Kind][]string{},
	}
	for _, e := range snap.Entries {
		doc := e.Doc
		if !doc.Kind.HasID() {
			continue
		}
		// An id is registered whenever it can be determined, so one broken
		// document does not turn every reference to it into an error.
		id := doc.ID()
		if id == "" || !validation.IsSlug(id) {
			continue
		}
		if r.ids[doc.Kind] == nil {
			r.ids[doc.Kind] = map[string][]string{}
		}
		r.ids[doc.Kind][id] = append(r.ids[doc.Kind][id], doc.Path)
	}
	for kind, ids := range r.ids {
		keys := make([]string, 0, len(ids))
		for id := range ids {
			keys = append(keys, id)
		}
		sort.Strings(keys)
		r.sorted[kind] = keys
	}
	return r
}

func (r *registry) has(kind types.Kind, id string) bool {
	_, ok := r.ids[kind][id]
	return ok
}

// checker carries the shared state of one Check call.
type checker struct {
	reg    *registry
	vocab  *vocab.Vocabulary
	report *validation.Report
}

// Check runs every cross-reference check on snap and adds the findings to
// report. Only documents that passed schema validation are used as sources
// of references.
func Check(snap *loader.Snapshot, v *vocab.Vocabulary, report *validation.Report) {
	c := &checker{reg: newRegistry(snap), vocab: v, report: report}

	c.checkDuplicates()
	for _, e := range snap.Entries {
		if !e.Valid() {
			continue
		}
		doc := e.Doc
		switch doc.Kind {
		case types.KindCharacter:
			c.checkCharacter(doc, doc.Character)
		case types.KindLocation:
			c.checkLocation(doc, doc.Location)
		case types.KindMap:
			c.checkMap(doc, doc.Map)
		case types.KindLinks:
			c.checkLinks(doc, doc.Links)
		case types.KindRelations:
			c.checkRelations(doc, doc.Relations)
		}
	}
	for _, err := range DetectCycles(parentsOf(snap)) {
		report.Add(err)
	}
}

func (c *checker) checkDuplicates() {
	for _, kind := range types.Kinds {
		for _, id := range c.reg.sorted[kind] {
			if docs := c.reg.ids[kind][id]; len(docs) > 1 {
				c.report.Add(&validation.DuplicateIDError{Kind: kind, ID: id, Documents: docs})
			}
		}
	}
}

// ref reports a dangling reference when id is not registered for kind.
func (c *checker) ref(doc *types.Document, source, field string, kind types.Kind, id string) {
	if id == "" || c.reg.has(kind, id) {
		return
	}
	c.report.Add(&validation.DanglingReferenceError{
		Document:   doc.Path,
		Source:     source,
		Field:      field,
		Target:     kind,
		MissingID:  id,
		Suggestion: utils.Suggest(id, c.reg.sorted[kind], SuggestionDistance),
	})
}

func (c *checker) tags(doc *types.Document, source, prefix string, tags []string) {
	for i, tag := range tags {
		field := fmt.Sprintf("%stags[%d]", prefix, i)
		if _, ok := vocab.TagPrefix(tag); !ok {
			c.report.Add(&validation.VocabularyError{
				Document: doc.Path, Source: source, Field: field, Value: tag,
				Reason: "is not in prefix/value format", Advisory: true,
			})
			continue
		}
		if !c.vocab.IsValidTagPrefix(tag) {
			p, _ := vocab.TagPrefix(tag)
			c.report.Add(&validation.VocabularyError{
				Document: doc.Path, Source: source, Field: field, Value: p,
				Vocabulary: "tag_prefixes", Advisory: true,
			})
		}
	}
}

func (c *checker) term(doc *types.Document, source, field, value, section string, valid bool) {
	if valid {
		return
	}
	c.report.Add(&validation.VocabularyError{
		Document: doc.Path, Source: source, Field: field, Value: value, Vocabulary: section,
	})
}

func (c *checker) checkCharacter(doc *types.Document, ch *types.Character) {
	c.tags(doc, ch.ID, "", ch.Tags)
	for i, rel := range ch.Relationships {
		c.ref(doc, ch.ID, fmt.Sprintf("relationships[%d].target_id", i), types.KindCharacter, rel.TargetID)
		c.term(doc, ch.ID, fmt.Sprintf("relationships[%d].type", i), rel.Type,
			"relationship_types", c.vocab.IsValidRelationshipType(rel.Type))
	}
}

func (c *checker) checkLocation(doc *types.Document, loc *types.Location) {
	c.tags(doc, loc.ID, "", loc.Tags)
	c.term(doc, loc.ID, "profile.type", loc.Profile.Type, "location_types", c.vocab.IsValidLocationType(loc.Profile.Type))
	c.ref(doc, loc.ID, "profile.parent_id", types.KindLocation, loc.Profile.ParentID)
}

func (c *checker) checkMap(doc *types.Document, m *types.Map) {
	c.ref(doc, m.ID, "root_location_id", types.KindLocation, m.RootLocationID)
	for i, t := range m.Include.Types {
		c.term(doc, m.ID, fmt.Sprintf("include.types[%d]", i), t, "location_types", c.vocab.IsValidLocationType(t))
	}
}

func (c *checker) checkLinks(doc *types.Document, set *types.LinkSet) {
	type key struct{ character, kind string }
	held := map[key][]string{}
	var order []key

	for i, link := range set.Links {
		c.ref(doc, "", fmt.Sprintf("links[%d].character_id", i), types.KindCharacter, link.CharacterID)
		c.ref(doc, "", fmt.Sprintf("links[%d].location_id", i), types.KindLocation, link.LocationID)
		if !c.vocab.IsValidLinkKind(link.Kind) {
			c.term(doc, "", fmt.Sprintf("links[%d].kind", i), link.Kind, "link_kinds", false)
			continue
		}
		if c.vocab.Cardinality(link.Kind) == vocab.Single {
			k := key{link.CharacterID, link.Kind}
			if _, ok := held[k]; !ok {
				order = append(order, k)
			}
			held[k] = append(held[k], link.LocationID)
		}
	}
	for _, k := range order {
		if locs := held[k]; len(locs) > 1 {
			c.report.Add(&validation.CardinalityError{
				Document: doc.Path, CharacterID: k.character, Kind: k.kind, Locations: locs,
			})
		}
	}
}

func (c *checker) checkRelations(doc *types.Document, rel *types.Relations) {
	for i, e := range rel.Edges {
		c.ref(doc, "", fmt.Sprintf("edges[%d].a", i), types.KindCharacter, e.A)
		c.ref(doc, "", fmt.Sprintf("edges[%d].b", i), types.KindCharacter, e.B)
		c.term(doc, "", fmt.Sprintf("edges[%d].type", i), e.Type,
			"relationship_types", c.vocab.IsValidRelationshipType(e.Type))
		c.tags(doc, "", fmt.Sprintf("edges[%d].", i), e.Tags)
	}
}
