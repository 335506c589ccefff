package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/graph"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render a character or location card",
	Long: `Renders a character (with its relationships and locations) or a
location (with its children and linked characters) as a markdown card.
Use --raw to print the markdown source.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, _ := cmd.Flags().GetBool("raw")
		id := args[0]
		ds := loadDataset()

		var md string
		var entity any
		switch {
		case ds.CharacterByID(id) != nil:
			c := ds.CharacterByID(id)
			g := graph.BuildRelationshipGraph(ds)
			var edges []graph.Edge
			for _, e := range g.Edges {
				if e.Source == id || e.Target == id {
					edges = append(edges, e)
				}
			}
			var links []types.Link
			for _, l := range ds.Links {
				if l.CharacterID == id {
					links = append(links, l)
				}
			}
			md, entity = ui.CharacterMarkdown(c, edges, links), c

		case ds.LocationByID(id) != nil:
			l := ds.LocationByID(id)
			h := graph.NewHierarchy(ds.Locations)
			var residents []types.Link
			for _, link := range ds.Links {
				if link.LocationID == id {
					residents = append(residents, link)
				}
			}
			md, entity = ui.LocationMarkdown(l, h.Children(id), residents), l

		default:
			var ids []string
			for _, c := range ds.Characters {
				ids = append(ids, c.ID)
			}
			for _, l := range ds.Locations {
				ids = append(ids, l.ID)
			}
			slices.Sort(ids)
			FatalError("no character or location %q%s", id, didYouMean(id, ids))
		}

		if jsonOutput {
			outputJSON(entity)
			return
		}
		if raw {
			fmt.Print(md)
			return
		}
		out, err := ui.RenderMarkdown(md, min(ui.GetWidth(), 100))
		if err != nil {
			FatalError("%v", err)
		}
		fmt.Print(out)
	},
}

func init() {
	showCmd.Flags().Bool("raw", false, "print markdown without rendering")
	rootCmd.AddCommand(showCmd)
}
