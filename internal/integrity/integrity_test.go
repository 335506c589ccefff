package integrity

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
	"github.com/untoldecay/lorebook/internal/vocab"
)

const testVocab = `
tag_prefixes: [species, faction]
relationship_types: [friend, rival]
location_types: [city, district, street]
link_kinds: [lives_in, visits]
link_cardinality:
  lives_in: single
`

func mustVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.Parse([]byte(testVocab), vocab.FormatYAML, "vocab.yml")
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func character(id string, rels ...types.Relationship) loader.Entry {
	return loader.Entry{Doc: &types.Document{
		Kind: types.KindCharacter, Path: "characters/" + id + ".yml", StemID: id,
		Character: &types.Character{ID: id, Profile: types.Profile{Name: types.Name{Display: id}}, Relationships: rels},
	}}
}

func location(id, typ, parent string) loader.Entry {
	return loader.Entry{Doc: &types.Document{
		Kind: types.KindLocation, Path: "locations/" + id + ".location.yml", StemID: id,
		Location: &types.Location{ID: id, Profile: types.LocationProfile{Name: id, Type: typ, ParentID: parent}},
	}}
}

func check(t *testing.T, entries ...loader.Entry) *validation.Report {
	t.Helper()
	report := &validation.Report{}
	Check(&loader.Snapshot{Entries: entries}, mustVocab(t), report)
	report.Sort()
	return report
}

func TestDanglingRelationship(t *testing.T) {
	report := check(t, character("alice", types.Relationship{TargetID: "ghost", Type: "friend"}))
	if len(report.Errors) != 1 {
		t.Fatalf("errors = %v", report.Errors)
	}
	var dangling *validation.DanglingReferenceError
	if !errors.As(report.Errors[0], &dangling) {
		t.Fatalf("expected DanglingReferenceError, got %T", report.Errors[0])
	}
	if dangling.Source != "alice" || dangling.MissingID != "ghost" || dangling.Target != types.KindCharacter {
		t.Errorf("unexpected error fields: %+v", dangling)
	}
}

func TestSuggestion(t *testing.T) {
	report := check(t,
		character("alice", types.Relationship{TargetID: "bobb", Type: "friend"}),
		character("bob"),
	)
	var dangling *validation.DanglingReferenceError
	if len(report.Errors) != 1 || !errors.As(report.Errors[0], &dangling) || dangling.Suggestion != "bob" {
		t.Fatalf("expected suggestion bob, got %v", report.Errors)
	}
}

func TestBrokenDocumentStillRegistersID(t *testing.T) {
	bob := character("bob", types.Relationship{TargetID: "nobody", Type: "friend"})
	bob.Errors = []*validation.SchemaError{{Document: bob.Doc.Path, Field: "profile.name", Message: "is required"}}

	report := check(t, character("alice", types.Relationship{TargetID: "bob", Type: "friend"}), bob)
	if len(report.Errors) != 0 {
		t.Errorf("broken bob should neither be dangling nor be checked as a source: %v", report.Errors)
	}
}

func TestVocabularyChecks(t *testing.T) {
	alice := character("alice", types.Relationship{TargetID: "bob", Type: "enemy"})
	alice.Doc.Character.Tags = []string{"species/human", "foo/bar", "loner"}
	report := check(t, alice, character("bob"), location("city", "planet", ""))

	var got []string
	for _, err := range report.Errors {
		var v *validation.VocabularyError
		if errors.As(err, &v) {
			got = append(got, v.Field+"="+v.Value)
		}
	}
	if diff := cmp.Diff([]string{"relationships[0].type=enemy", "profile.type=planet"}, got); diff != "" {
		t.Errorf("fatal vocabulary errors (-want +got):\n%s", diff)
	}
	if len(report.Warnings) != 2 {
		t.Errorf("tag problems should be two warnings, got %v", report.Warnings)
	}
}

func TestUnregisteredTagIsWarningOnly(t *testing.T) {
	alice := character("alice")
	alice.Doc.Character.Tags = []string{"foo/bar"}
	report := check(t, alice)
	if report.HasErrors() {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %v", report.Warnings)
	}
}

func TestMapChecks(t *testing.T) {
	m := loader.Entry{Doc: &types.Document{
		Kind: types.KindMap, Path: "maps/overview.map.yml", StemID: "overview",
		Map: &types.Map{ID: "overview", RootLocationID: "citty", Include: types.Include{Types: []string{"district", "moon"}}},
	}}
	report := check(t, m, location("city", "city", ""))
	if len(report.Errors) != 2 {
		t.Fatalf("errors = %v", report.Errors)
	}
	var dangling *validation.DanglingReferenceError
	if !errors.As(report.Errors[0], &dangling) && !errors.As(report.Errors[1], &dangling) {
		t.Fatal("expected a dangling root_location_id")
	}
	if dangling.Suggestion != "city" {
		t.Errorf("suggestion = %q", dangling.Suggestion)
	}
}

func TestLinks(t *testing.T) {
	links := loader.Entry{Doc: &types.Document{
		Kind: types.KindLinks, Path: "links/character_locations.yml",
		Links: &types.LinkSet{Links: []types.Link{
			{CharacterID: "alice", Kind: "lives_in", LocationID: "city"},
			{CharacterID: "alice", Kind: "lives_in", LocationID: "town"},
			{CharacterID: "alice", Kind: "visits", LocationID: "city"},
			{CharacterID: "alice", Kind: "visits", LocationID: "town"},
			{CharacterID: "ghost", Kind: "haunts", LocationID: "city"},
		}},
	}}
	report := check(t, links, character("alice"), location("city", "city", ""), location("town", "city", ""))

	var kinds []string
	for _, err := range report.Errors {
		kinds = append(kinds, validation.KindOf(err))
	}
	want := []string{"cardinality", "dangling_reference", "vocabulary"}
	slices.Sort(kinds)
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("error kinds (-want +got):\n%s", diff)
	}
}

func TestRelationsChecks(t *testing.T) {
	rel := loader.Entry{Doc: &types.Document{
		Kind: types.KindRelations, Path: "relations/graph.yml",
		Relations: &types.Relations{Edges: []types.ExplicitEdge{
			{A: "alice", B: "bob", Type: "rival"},
			{A: "alice", B: "zed", Type: "nemesis"},
		}},
	}}
	report := check(t, rel, character("alice"), character("bob"))
	if len(report.Errors) != 2 {
		t.Errorf("expected dangling b and unknown type, got %v", report.Errors)
	}
}

func TestDuplicateIDs(t *testing.T) {
	dup := character("alice")
	dup.Doc.Path = "characters/alice.yaml"
	report := check(t, character("alice"), dup)

	var d *validation.DuplicateIDError
	if len(report.Errors) != 1 || !errors.As(report.Errors[0], &d) {
		t.Fatalf("expected one duplicate error, got %v", report.Errors)
	}
	if diff := cmp.Diff([]string{"characters/alice.yml", "characters/alice.yaml"}, d.Documents); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}
}

func TestCycleScenario(t *testing.T) {
	report := check(t, location("a", "city", "b"), location("b", "city", "a"))
	var cycle *validation.CycleError
	if len(report.Errors) != 1 || !errors.As(report.Errors[0], &cycle) {
		t.Fatalf("expected one cycle error, got %v", report.Errors)
	}
	if diff := cmp.Diff([]string{"a", "b", "a"}, cycle.Path); diff != "" {
		t.Errorf("cycle path (-want +got):\n%s", diff)
	}
}
