package export

import (
	"cmp"
	"slices"
	"strings"

	"github.com/untoldecay/lorebook/internal/types"
)

// CharacterRecord is one entry of characters.json.
type CharacterRecord struct {
	ID                 string   `json:"id"`
	NameDisplay        string   `json:"name_display"`
	NameRomanized      string   `json:"name_romanized"`
	Aliases            []string `json:"aliases"`
	Tags               []string `json:"tags"`
	RoleInStory        string   `json:"role_in_story"`
	AISummary          string   `json:"ai_summary"`
	Age                any      `json:"age,omitempty"`
	Species            string   `json:"species,omitempty"`
	Occupation         string   `json:"occupation,omitempty"`
	AffiliationPrimary string   `json:"affiliation_primary,omitempty"`
	PersonalitySummary string   `json:"personality_summary,omitempty"`
}

// SpeciesPrefix is the tag prefix that supplies CharacterRecord.Species.
const SpeciesPrefix = "species/"

// Characters projects characters into their summary records, sorted by id.
// Tags are copied verbatim, including those with unregistered prefixes.
func Characters(chars []*types.Character) []CharacterRecord {
	out := make([]CharacterRecord, 0, len(chars))
	for _, c := range chars {
		r := CharacterRecord{
			ID:                 c.ID,
			NameDisplay:        c.Profile.Name.Label(),
			NameRomanized:      c.Profile.Name.Romanized,
			Aliases:            nonNil(c.Profile.Aliases),
			Tags:               nonNil(c.Tags),
			RoleInStory:        c.Story.RoleInNarrative,
			AISummary:          c.AIPortrayal.Guidelines.First(),
			Age:                c.Profile.Age,
			Occupation:         c.Profile.Role,
			AffiliationPrimary: c.Profile.Affiliation,
			PersonalitySummary: c.Personality.Summary,
		}
		for _, tag := range c.Tags {
			if species, ok := strings.CutPrefix(tag, SpeciesPrefix); ok {
				r.Species, _, _ = strings.Cut(species, "/")
				break
			}
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b CharacterRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LocationRecord is one entry of locations.json. parent_id is null for
// root locations.
type LocationRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Short       string         `json:"short"`
	Type        string         `json:"type"`
	ParentID    *string        `json:"parent_id"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Lore        map[string]any `json:"lore"`
}

// Locations projects locations into records, sorted by id.
func Locations(locs []*types.Location) []LocationRecord {
	out := make([]LocationRecord, 0, len(locs))
	for _, l := range locs {
		r := LocationRecord{
			ID:          l.ID,
			Name:        l.Profile.Name,
			Short:       l.Profile.Short,
			Type:        l.Profile.Type,
			Description: l.Profile.Description,
			Tags:        nonNil(l.Tags),
			Lore:        l.Lore,
		}
		if r.Lore == nil {
			r.Lore = map[string]any{}
		}
		if l.Profile.ParentID != "" {
			parent := l.Profile.ParentID
			r.ParentID = &parent
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b LocationRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// IncludeRecord is a map's include block with defaults applied.
type IncludeRecord struct {
	Depth int      `json:"depth"`
	Types []string `json:"types"`
}

// MapRecord is one entry of maps.json.
type MapRecord struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	RootLocationID string         `json:"root_location_id"`
	Include        IncludeRecord  `json:"include"`
	Display        map[string]any `json:"display"`
}

// Maps projects maps into records, sorted by id.
func Maps(maps []*types.Map) []MapRecord {
	out := make([]MapRecord, 0, len(maps))
	for _, m := range maps {
		r := MapRecord{
			ID:             m.ID,
			Name:           m.Profile.Name,
			Description:    m.Profile.Description,
			RootLocationID: m.RootLocationID,
			Include:        IncludeRecord{Depth: m.Include.MaxDepth(), Types: nonNil(m.Include.Types)},
			Display:        m.Display,
		}
		if r.Display == nil {
			r.Display = map[string]any{}
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b MapRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LinkRecord is one entry of character_locations.json.
type LinkRecord struct {
	CharacterID string `json:"character_id"`
	Kind        string `json:"kind"`
	LocationID  string `json:"location_id"`
	Note        string `json:"note,omitempty"`
}

// Links projects links into records sorted by character, kind, then
// location. Exact duplicates are emitted once.
func Links(links []types.Link) []LinkRecord {
	out := make([]LinkRecord, 0, len(links))
	for _, l := range links {
		out = append(out, LinkRecord(l))
	}
	slices.SortStableFunc(out, func(a, b LinkRecord) int {
		return cmp.Or(
			cmp.Compare(a.CharacterID, b.CharacterID),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.LocationID, b.LocationID),
		)
	})
	return slices.CompactFunc(out, func(a, b LinkRecord) bool { return a == b })
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
