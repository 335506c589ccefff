package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table Styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorAccent).
				Align(lipgloss.Center)

	TableHintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	TableBorderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)
)

// NewTable creates a table with the default styling.
func NewTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(TableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle.Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})
}

// Count is one labelled number in a stats table.
type Count struct {
	Label string
	N     int
}

// RenderCounts renders labelled counts as a two-column table.
func RenderCounts(title string, counts []Count) string {
	t := NewTable(title, "count")
	for _, c := range counts {
		t.Row(c.Label, strconv.Itoa(c.N))
	}
	return t.String()
}

// MapStat summarizes one compiled map.
type MapStat struct {
	ID    string `json:"id"`
	Root  string `json:"root"`
	Depth int    `json:"depth"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// RenderMapStats renders one row per map.
func RenderMapStats(stats []MapStat) string {
	if len(stats) == 0 {
		return TableHintStyle.Render("No maps defined.")
	}
	t := NewTable("map", "root", "depth", "nodes", "edges")
	for _, s := range stats {
		t.Row(s.ID, s.Root, strconv.Itoa(s.Depth), strconv.Itoa(s.Nodes), strconv.Itoa(s.Edges))
	}
	return t.String()
}
