package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/graph"
	"github.com/untoldecay/lorebook/internal/ui"
)

type statsResult struct {
	Documents int            `json:"documents"`
	Errors    int            `json:"errors"`
	Warnings  int            `json:"warnings"`
	Entities  map[string]int `json:"entities"`
	Maps      []ui.MapStat   `json:"maps"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entity counts and per-map node counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := compiler.Validate(rootCtx, compileOptions())
		if err != nil {
			FatalError("%v", err)
		}
		ds := res.Snapshot.Dataset()
		rel := graph.BuildRelationshipGraph(ds)
		h := graph.NewHierarchy(ds.Locations)

		counts := []ui.Count{
			{Label: "characters", N: len(ds.Characters)},
			{Label: "relationships", N: len(rel.Edges)},
			{Label: "locations", N: len(ds.Locations)},
			{Label: "root locations", N: len(h.Roots())},
			{Label: "maps", N: len(ds.Maps)},
			{Label: "links", N: len(ds.Links)},
			{Label: "explicit edges", N: len(ds.Edges)},
		}
		var maps []ui.MapStat
		for _, m := range ds.Maps {
			g := graph.BuildLocationGraph(h, m)
			maps = append(maps, ui.MapStat{
				ID:    m.ID,
				Root:  m.RootLocationID,
				Depth: m.Include.MaxDepth(),
				Nodes: len(g.Nodes),
				Edges: len(g.Edges),
			})
		}

		if jsonOutput {
			entities := map[string]int{}
			for _, c := range counts {
				entities[c.Label] = c.N
			}
			outputJSON(statsResult{
				Documents: res.Report.Documents,
				Errors:    len(res.Report.Errors),
				Warnings:  len(res.Report.Warnings),
				Entities:  entities,
				Maps:      maps,
			})
			return
		}

		fmt.Println(ui.RenderCounts("entity", counts))
		fmt.Println(ui.RenderMapStats(maps))
		fmt.Println(ui.RenderSummary(res.Report))
		if res.Report.HasErrors() {
			fmt.Println(ui.RenderMuted(fmt.Sprintf("counts exclude %s with errors", invalidDocuments(res))))
		}
	},
}

func invalidDocuments(res *compiler.Result) string {
	n := 0
	for _, e := range res.Snapshot.Entries {
		if !e.Valid() {
			n++
		}
	}
	if n == 1 {
		return "1 document"
	}
	return fmt.Sprintf("%d documents", n)
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
