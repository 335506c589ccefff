// Package main provides the lore command-line interface.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/config"
	"github.com/untoldecay/lorebook/internal/logging"
	"github.com/untoldecay/lorebook/internal/ui"
)

var (
	configFile string
	jsonOutput bool

	cfg       *config.Config
	logger    *log.Logger
	logCloser io.Closer
	rootCtx   = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   "lore",
	Short: "Validate and compile a lore dataset into static JSON",
	Long: `lore checks characters, locations, maps, links and relations against a
closed vocabulary and each other, then compiles them into the JSON files
read by the site.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Setup()

		var err error
		cfg, err = config.Load(config.Options{File: configFile, Flags: cmd.Flags()})
		if err != nil {
			return err
		}

		logger, logCloser, err = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
		})
		if err != nil {
			return err
		}
		rootCtx = logging.WithLogger(cmd.Context(), logger)
		if cfg.File != "" {
			logger.Debug("loaded config", "file", cfg.File)
		}

		// version must work even when the project pins a newer release.
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return cfg.CheckRequiredVersion(Version)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default: nearest .lore/config.yaml or lore.yaml)")
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.String("root", ".", "dataset root directory")
	pf.String("out", "", "output directory (default: <root>/site/data)")
	pf.Int("workers", 0, "parallel document parsers (default: number of CPUs)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json, logfmt")
	pf.String("log-file", "", "also write logs to this rotating file")
	pf.String("orphans", "", "layout orphan policy: prune or retain")
}

// compileOptions maps the resolved config onto a pipeline run.
func compileOptions() compiler.Options {
	return compiler.Options{
		Paths:     cfg.Paths,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Spacing:   cfg.Spacing,
		Orphans:   cfg.Orphans,
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
