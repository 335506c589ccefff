package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/graph"
	"github.com/untoldecay/lorebook/internal/integrity"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/ui"
	"github.com/untoldecay/lorebook/internal/utils"
)

var treeCmd = &cobra.Command{
	Use:   "tree [map-id]",
	Short: "Show the location hierarchy or a map's subgraph",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds := loadDataset()
		h := graph.NewHierarchy(ds.Locations)

		if len(args) == 0 {
			fmt.Print(ui.RenderHierarchy(h))
			return
		}

		m := ds.MapByID(args[0])
		if m == nil {
			FatalError("unknown map %q%s", args[0], didYouMean(args[0], mapIDs(ds)))
		}
		g := graph.BuildLocationGraph(h, m)
		t := ui.BuildMapTree(m.ID, g, m.RootLocationID)
		if t == nil {
			FatalError("map %q: root location %q not found", m.ID, m.RootLocationID)
		}
		fmt.Println(t.String())
	},
}

// loadDataset validates and returns the usable documents. Invalid
// documents are left out with a warning rather than failing the command.
func loadDataset() *types.Dataset {
	res, err := compiler.Validate(rootCtx, compileOptions())
	if err != nil {
		FatalError("%v", err)
	}
	if res.Report.HasErrors() {
		logger.Warn("dataset has errors; run 'lore validate' for details", "errors", len(res.Report.Errors))
	}
	return res.Snapshot.Dataset()
}

func mapIDs(ds *types.Dataset) []string {
	ids := make([]string, len(ds.Maps))
	for i, m := range ds.Maps {
		ids[i] = m.ID
	}
	return ids
}

func didYouMean(id string, candidates []string) string {
	if s := utils.Suggest(id, candidates, integrity.SuggestionDistance); s != "" {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	if matches := utils.FuzzyFilter(id, candidates); len(matches) > 0 {
		return fmt.Sprintf(" (similar: %v)", matches)
	}
	return ""
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
