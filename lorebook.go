// Package lorebook exposes the lore pipeline for programs that want to
// validate or compile a dataset without going through the lore command.
//
// Most callers only need DefaultOptions, Validate and Build.
package lorebook

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/untoldecay/lorebook/internal/compiler"
	"github.com/untoldecay/lorebook/internal/layout"
	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
)

// Options configures a pipeline run.
type Options = compiler.Options

// Result is everything one run produced.
type Result = compiler.Result

// Paths locates the sources of a dataset.
type Paths = loader.Paths

// Report collects the errors and warnings of a validation pass.
type Report = validation.Report

// Core entity types
type (
	Character    = types.Character
	Location     = types.Location
	Map          = types.Map
	Link         = types.Link
	ExplicitEdge = types.ExplicitEdge
	Dataset      = types.Dataset
)

// ErrValidationFailed is returned by Build when the dataset has errors.
var ErrValidationFailed = compiler.ErrValidationFailed

// DefaultOutputDir is where artifacts go relative to the dataset root.
const DefaultOutputDir = "site/data"

// DefaultOptions returns options for the conventional layout under root.
func DefaultOptions(root string) Options {
	return Options{
		Paths:     loader.DefaultPaths(root),
		OutputDir: filepath.Join(root, filepath.FromSlash(DefaultOutputDir)),
		Workers:   runtime.NumCPU(),
		Spacing:   layout.DefaultSpacing,
		Orphans:   layout.Prune,
	}
}

// Validate loads and checks the dataset without writing anything.
func Validate(ctx context.Context, opts Options) (*Result, error) {
	return compiler.Validate(ctx, opts)
}

// Build validates the dataset and, when it is clean, writes every artifact.
func Build(ctx context.Context, opts Options) (*Result, error) {
	return compiler.Build(ctx, opts)
}
