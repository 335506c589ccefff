package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every document without writing output",
	Long: `Loads the vocabulary and every source document, checks their schema,
cross-references, vocabulary terms and the location hierarchy, and prints
all problems found. Warnings (such as unregistered tag prefixes) never
affect the exit status.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := compiler.Validate(rootCtx, compileOptions())
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(res.Report)
		} else {
			fmt.Print(ui.RenderReport(res.Report))
		}
		if res.Report.HasErrors() {
			exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
