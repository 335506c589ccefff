// Package compiler runs the full pipeline: load the vocabulary and every
// document, validate them, and when the dataset is clean build the graphs,
// merge layouts and emit the JSON artifacts.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/untoldecay/lorebook/internal/export"
	"github.com/untoldecay/lorebook/internal/graph"
	"github.com/untoldecay/lorebook/internal/integrity"
	"github.com/untoldecay/lorebook/internal/layout"
	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/logging"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
	"github.com/untoldecay/lorebook/internal/vocab"
)

// ErrValidationFailed is returned by Build when the dataset has errors.
// Nothing is written in that case.
var ErrValidationFailed = errors.New("validation failed")

// Options configures a run.
type Options struct {
	Paths     loader.Paths
	OutputDir string
	Workers   int
	Spacing   float64
	Orphans   layout.Policy
}

// MapView is the compiled form of one map.
type MapView struct {
	Map    *types.Map
	Graph  *graph.LocationGraph
	Layout *layout.Result
}

// Result is everything a run produced. Fields past Report are only set
// once validation passed.
type Result struct {
	Report     *validation.Report
	Vocabulary *vocab.Vocabulary
	Snapshot   *loader.Snapshot
	Dataset    *types.Dataset
	Graph      *graph.Graph
	Layout     *layout.Result
	Hierarchy  *graph.Hierarchy
	Maps       []MapView
	Emission   *export.Result
}

// Validate loads and checks the dataset without writing anything. A
// returned error means the run could not happen at all (unreadable
// vocabulary or source tree, cancellation); problems in the documents are
// in the report.
func Validate(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	v, err := vocab.Load(opts.Paths.Vocabulary)
	if err != nil {
		return nil, err
	}

	snap, err := loader.Load(ctx, opts.Paths, loader.Options{Workers: opts.Workers})
	if err != nil {
		return nil, err
	}

	report := snap.Report()
	integrity.Check(snap, v, report)
	report.Sort()

	for _, w := range report.Warnings {
		logger.Warn(w.Error())
	}
	logger.Info("validated dataset",
		"documents", report.Documents,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"elapsed", time.Since(start))

	res := &Result{Report: report, Vocabulary: v, Snapshot: snap}
	if !report.HasErrors() {
		res.Dataset = snap.Dataset()
	}
	return res, nil
}

// Build validates the dataset and, only when it has no errors, compiles
// and emits it. On validation failure the result carries the report and
// the error wraps ErrValidationFailed.
func Build(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx)

	res, err := Validate(ctx, opts)
	if err != nil {
		return nil, err
	}
	if res.Report.HasErrors() {
		return res, fmt.Errorf("%w: %d error(s)", ErrValidationFailed, len(res.Report.Errors))
	}

	if err := res.compile(opts); err != nil {
		return res, err
	}

	emission, err := export.Write(ctx, opts.OutputDir, res.Artifacts())
	if err != nil {
		return res, err
	}
	res.Emission = emission

	logger.Info("built dataset",
		"dir", opts.OutputDir,
		"characters", len(res.Dataset.Characters),
		"edges", len(res.Graph.Edges),
		"maps", len(res.Maps),
		"changed", emission.Changed())
	return res, nil
}

// compile builds graphs and merges them with the persisted layouts found in
// the output directory.
func (r *Result) compile(opts Options) error {
	lopts := layout.Options{Spacing: opts.Spacing, Orphans: opts.Orphans}

	r.Graph = graph.BuildRelationshipGraph(r.Dataset)
	persisted, err := layout.Load(filepath.Join(opts.OutputDir, export.LayoutFile))
	if err != nil {
		return err
	}
	r.Layout = layout.Merge(persisted, r.Graph.NodeIDs(), lopts)

	r.Hierarchy = graph.NewHierarchy(r.Dataset.Locations)
	r.Maps = make([]MapView, 0, len(r.Dataset.Maps))
	for _, m := range r.Dataset.Maps {
		g := graph.BuildLocationGraph(r.Hierarchy, m)
		persisted, err := layout.Load(filepath.Join(opts.OutputDir, export.LocationLayoutFile(m.ID)))
		if err != nil {
			return err
		}
		r.Maps = append(r.Maps, MapView{Map: m, Graph: g, Layout: layout.Merge(persisted, g.NodeIDs(), lopts)})
	}
	return nil
}

// Artifacts lists every file of the output contract in a fixed order.
func (r *Result) Artifacts() []export.Artifact {
	artifacts := []export.Artifact{
		{Name: export.CharactersFile, Value: export.Characters(r.Dataset.Characters)},
		{Name: export.GraphFile, Value: r.Graph},
		{Name: export.LayoutFile, Value: r.Layout.Layout},
		{Name: export.LocationsFile, Value: export.Locations(r.Dataset.Locations)},
		{Name: export.MapsFile, Value: export.Maps(r.Dataset.Maps)},
		{Name: export.CharacterLocationsFile, Value: export.Links(r.Dataset.Links)},
	}
	for _, mv := range r.Maps {
		artifacts = append(artifacts,
			export.Artifact{Name: export.LocationGraphFile(mv.Map.ID), Value: mv.Graph},
			export.Artifact{Name: export.LocationLayoutFile(mv.Map.ID), Value: mv.Layout.Layout},
		)
	}
	return artifacts
}
