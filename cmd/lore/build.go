package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/export"
	"github.com/untoldecay/lorebook/internal/ui"
	"github.com/untoldecay/lorebook/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Validate and emit the site dataset",
	Long: `Validates the dataset and, only if it has no errors, writes the JSON
artifacts to the output directory. Existing layout files are merged so nodes
that were placed by hand keep their coordinates.

With --watch the build re-runs whenever a source file changes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		watchMode, _ := cmd.Flags().GetBool("watch")
		poll, _ := cmd.Flags().GetBool("poll")

		if !watchMode {
			if err := runBuild(rootCtx); err != nil {
				FatalError("%v", err)
			}
			return
		}

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := watchBuild(ctx, poll); err != nil {
			FatalError("%v", err)
		}
	},
}

// runBuild performs one build and prints its outcome.
func runBuild(ctx context.Context) error {
	res, err := compiler.Build(ctx, compileOptions())
	if res != nil && (err == nil || errors.Is(err, compiler.ErrValidationFailed)) {
		if jsonOutput {
			outputJSON(buildSummary(res))
		} else if res.Report.HasErrors() || len(res.Report.Warnings) > 0 {
			fmt.Print(ui.RenderReport(res.Report))
		}
	}
	if err != nil {
		return err
	}
	if !jsonOutput {
		printEmission(res.Emission)
	}
	return nil
}

func buildSummary(res *compiler.Result) any {
	return struct {
		Report   any            `json:"report"`
		Emission *export.Result `json:"emission,omitempty"`
	}{res.Report, res.Emission}
}

func printEmission(e *export.Result) {
	changed := 0
	for _, f := range e.Files {
		if f.Changed {
			changed++
			fmt.Printf("  %s %s\n", ui.RenderAccent("wrote"), f.Name)
		}
	}
	for _, name := range e.Removed {
		fmt.Printf("  %s %s\n", ui.RenderWarn("removed"), name)
	}
	if changed == 0 && len(e.Removed) == 0 {
		fmt.Println(ui.RenderPass("✓ dataset up to date") + " " + ui.RenderMuted(e.Dir))
		return
	}
	fmt.Println(ui.RenderPass(fmt.Sprintf("✓ built %d file(s)", len(e.Files))) + " " + ui.RenderMuted(e.Dir))
}

// watchBuild builds once, then rebuilds on every debounced change until
// ctx is canceled. Failed builds are reported and watching continues.
func watchBuild(ctx context.Context, poll bool) error {
	rebuild := func() {
		if err := runBuild(ctx); err != nil && ctx.Err() == nil {
			logger.Error("build failed", "err", err)
		}
	}
	rebuild()

	w, err := watch.New(watch.Options{
		Paths:        cfg.Paths.Watched(),
		Debounce:     cfg.Debounce,
		ForcePolling: poll,
		Logger:       logger,
	}, rebuild)
	if err != nil {
		return err
	}
	w.Start(ctx)
	logger.Info("watching for changes", "root", cfg.Root, "polling", w.Polling())

	<-ctx.Done()
	return w.Close()
}

func init() {
	buildCmd.Flags().Bool("watch", false, "rebuild when source files change")
	buildCmd.Flags().Bool("poll", false, "with --watch, poll instead of using filesystem events")
	rootCmd.AddCommand(buildCmd)
}
