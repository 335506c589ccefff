package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/schema"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/vocab"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [kind]",
	Short: "Print or write JSON Schemas for the source documents",
	Long: `Generates JSON Schemas that editors can use to validate and complete
documents while writing them. When the vocabulary can be loaded, relationship
types, location types and link kinds are listed as enums.

Without a kind, --out is required and one <kind>.schema.json file is written
per document kind.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: kindNames(),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")
		noVocab, _ := cmd.Flags().GetBool("no-vocab")

		var v *vocab.Vocabulary
		if !noVocab {
			loaded, err := vocab.Load(cfg.Paths.Vocabulary)
			if err != nil {
				logger.Warn("generating schemas without vocabulary enums", "err", err)
			} else {
				v = loaded
			}
		}

		kinds := schema.Kinds()
		if len(args) == 1 {
			kinds = []types.Kind{types.Kind(args[0])}
		} else if out == "" {
			FatalError("specify a kind or --out to write every schema")
		}

		for _, kind := range kinds {
			s, err := schema.Generate(kind, v)
			if err != nil {
				FatalError("%v", err)
			}
			data, err := schema.Marshal(s)
			if err != nil {
				FatalError("encoding schema: %v", err)
			}
			if out == "" {
				_, _ = os.Stdout.Write(data)
				continue
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				FatalError("%v", err)
			}
			path := filepath.Join(out, schema.FileName(kind))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				FatalError("%v", err)
			}
			fmt.Println(path)
		}
	},
}

func kindNames() []string {
	var names []string
	for _, k := range schema.Kinds() {
		names = append(names, string(k))
	}
	return names
}

func init() {
	schemaCmd.Flags().String("out", "", "directory to write <kind>.schema.json files into")
	schemaCmd.Flags().Bool("no-vocab", false, "do not embed vocabulary enums")
	rootCmd.AddCommand(schemaCmd)
}
