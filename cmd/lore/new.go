package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/scaffold"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/ui"
	"github.com/untoldecay/lorebook/internal/vocab"
)

var newCmd = &cobra.Command{
	Use:       "new character|location <id>",
	Short:     "Scaffold a new character or location document",
	ValidArgs: []string{string(types.KindCharacter), string(types.KindLocation)},
	Long: `Creates a new source document with today's date in its meta block.
Missing fields are asked for in an interactive form when running in a
terminal; otherwise flags are used as given. Existing files are never
overwritten.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		kind := types.Kind(args[0])
		if kind != types.KindCharacter && kind != types.KindLocation {
			FatalError("cannot scaffold %q (expected character or location)", args[0])
		}

		d := &scaffold.Draft{Kind: kind, ID: args[1]}
		d.Name, _ = cmd.Flags().GetString("name")
		d.Role, _ = cmd.Flags().GetString("role")
		d.Type, _ = cmd.Flags().GetString("type")
		d.ParentID, _ = cmd.Flags().GetString("parent")
		d.Tags, _ = cmd.Flags().GetStringSlice("tag")
		interactive, _ := cmd.Flags().GetBool("interactive")

		if err := d.Validate(); err != nil {
			FatalError("%v", err)
		}

		if interactive && ui.IsInteractive() && len(d.Missing()) > 0 {
			var locationTypes, parents []string
			if v, err := vocab.Load(cfg.Paths.Vocabulary); err == nil {
				locationTypes = v.LocationTypes()
			} else {
				logger.Warn("vocabulary unavailable for type choices", "err", err)
			}
			if kind == types.KindLocation {
				for _, l := range loadDataset().Locations {
					parents = append(parents, l.ID)
				}
			}
			if form := ui.DraftForm(d, locationTypes, parents); form != nil {
				if err := form.Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						fmt.Fprintln(os.Stderr, "Scaffolding canceled.")
						exit(0)
					}
					FatalError("form error: %v", err)
				}
			}
		}

		path, err := scaffold.Write(cfg.Paths, d, time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"kind": string(kind), "id": d.ID, "path": path})
			return
		}
		fmt.Printf("%s %s\n", ui.RenderPass("✓ created"), cfg.Paths.Rel(path))
		if missing := d.Missing(); len(missing) > 0 {
			fmt.Printf("  %s\n", ui.RenderWarn(fmt.Sprintf("fill in: %v", missing)))
		}
	},
}

func init() {
	newCmd.Flags().String("name", "", "display name")
	newCmd.Flags().String("role", "", "character role or occupation")
	newCmd.Flags().String("type", "", "location type")
	newCmd.Flags().String("parent", "", "parent location id")
	newCmd.Flags().StringSlice("tag", nil, "tag in prefix/value form (repeatable)")
	newCmd.Flags().Bool("interactive", true, "prompt for missing fields when attached to a terminal")
	rootCmd.AddCommand(newCmd)
}
