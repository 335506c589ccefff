package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/untoldecay/lorebook/internal/graph"
	"github.com/untoldecay/lorebook/internal/types"
)

// CharacterMarkdown writes a character card as markdown. edges are the
// relationship graph edges touching the character and links its location
// links.
func CharacterMarkdown(c *types.Character, edges []graph.Edge, links []types.Link) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", graph.CharacterLabel(c))

	var facts []string
	fact := func(label, value string) {
		if value != "" {
			facts = append(facts, fmt.Sprintf("- **%s:** %s", label, value))
		}
	}
	fact("ID", "`"+c.ID+"`")
	fact("Full name", c.Profile.Name.Full)
	fact("Romanized", c.Profile.Name.Romanized)
	fact("Aliases", strings.Join(c.Profile.Aliases, ", "))
	if c.Profile.Age != nil {
		fact("Age", fmt.Sprint(c.Profile.Age))
	}
	fact("Role", c.Profile.Role)
	fact("Affiliation", c.Profile.Affiliation)
	fact("Narrative role", c.Story.RoleInNarrative)
	if len(c.Tags) > 0 {
		fact("Tags", "`"+strings.Join(c.Tags, "` `")+"`")
	}
	b.WriteString(strings.Join(facts, "\n"))
	b.WriteString("\n")

	section := func(title, body string) {
		if strings.TrimSpace(body) != "" {
			fmt.Fprintf(&b, "\n## %s\n\n%s\n", title, strings.TrimSpace(body))
		}
	}
	section("Appearance", c.Profile.Appearance)
	section("Personality", c.Personality.Summary+bullets("Traits", c.Personality.Traits)+bullets("Flaws", c.Personality.Flaws))
	section("Background", c.Story.Background)

	if len(edges) > 0 {
		var rows strings.Builder
		rows.WriteString("| With | Type | Intensity | Summary |\n|---|---|---|---|\n")
		for _, e := range edges {
			other := e.Target
			if other == c.ID {
				other = e.Source
			}
			intensity := fmt.Sprint(e.Intensity)
			if e.IntensityReverse != nil {
				intensity += fmt.Sprintf(" / %d", *e.IntensityReverse)
			}
			fmt.Fprintf(&rows, "| %s | %s | %s | %s |\n", other, e.Type, intensity, escapeCell(e.Summary))
		}
		section("Relationships", rows.String())
	}

	if len(links) > 0 {
		var rows strings.Builder
		for _, l := range links {
			fmt.Fprintf(&rows, "- %s **%s**", strings.ReplaceAll(l.Kind, "_", " "), l.LocationID)
			if l.Note != "" {
				fmt.Fprintf(&rows, ": %s", l.Note)
			}
			rows.WriteString("\n")
		}
		section("Locations", rows.String())
	}

	section("Portrayal", strings.Join(prefixed("- ", c.AIPortrayal.Guidelines), "\n")+voice(c.AIPortrayal.Voice))
	return b.String()
}

// LocationMarkdown writes a location card as markdown. children are the
// ids of its direct children and residents the links pointing at it.
func LocationMarkdown(l *types.Location, children []string, residents []types.Link) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", l.Profile.Name)
	fmt.Fprintf(&b, "- **ID:** `%s`\n- **Type:** %s\n", l.ID, l.Profile.Type)
	if l.Profile.Short != "" {
		fmt.Fprintf(&b, "- **Short:** %s\n", l.Profile.Short)
	}
	if l.Profile.ParentID != "" {
		fmt.Fprintf(&b, "- **Parent:** `%s`\n", l.Profile.ParentID)
	}
	if len(l.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags:** `%s`\n", strings.Join(l.Tags, "` `"))
	}
	if d := strings.TrimSpace(l.Profile.Description); d != "" {
		fmt.Fprintf(&b, "\n%s\n", d)
	}
	if len(children) > 0 {
		fmt.Fprintf(&b, "\n## Contains\n\n%s\n", strings.Join(prefixed("- ", children), "\n"))
	}
	if len(residents) > 0 {
		b.WriteString("\n## Characters\n\n")
		for _, r := range residents {
			fmt.Fprintf(&b, "- **%s** %s\n", r.CharacterID, strings.ReplaceAll(r.Kind, "_", " "))
		}
	}
	if len(l.Lore) > 0 {
		keys := make([]string, 0, len(l.Lore))
		for k := range l.Lore {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n## Lore\n\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s:** %v\n", k, l.Lore[k])
		}
	}
	return b.String()
}

func bullets(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n**%s**\n\n%s", title, strings.Join(prefixed("- ", items), "\n"))
}

func voice(v string) string {
	if v == "" {
		return ""
	}
	return "\n\n> " + v
}

func prefixed(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = prefix + s
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

// RenderMarkdown renders markdown for the terminal through glamour. Plain
// output uses the notty style so nothing but text reaches pipes.
func RenderMarkdown(md string, width int) (string, error) {
	style := styles.NoTTYStyle
	if ShouldUseColor() {
		style = styles.DarkStyle
		if !lipgloss.HasDarkBackground() {
			style = styles.LightStyle
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}
