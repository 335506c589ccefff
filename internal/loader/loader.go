// Package loader discovers and parses every source document of a dataset
// into a Snapshot. Parsing and per-document schema validation run in
// parallel; cross-document checks happen later on the complete snapshot.
package loader

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/untoldecay/lorebook/internal/logging"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
)

// Options configures Load.
type Options struct {
	// Workers bounds parallel parsing. Zero or negative means NumCPU.
	Workers int
	// Schema is shared by all workers. A fresh one is built when nil.
	Schema *validation.Schema
}

// Entry is one loaded document with the schema errors found in it.
type Entry struct {
	Doc    *types.Document
	Errors []*validation.SchemaError
}

// Valid reports whether the document decoded and passed schema checks.
func (e Entry) Valid() bool {
	return len(e.Errors) == 0 && e.Doc.Decoded()
}

// Snapshot is the full set of documents read in one pass, in discovery order.
type Snapshot struct {
	Paths   Paths
	Entries []Entry
}

// Load discovers and parses every document under p. Only failures to scan
// the dataset itself or cancellation return an error; problems inside
// documents are attached to their entries.
func Load(ctx context.Context, p Paths, opts Options) (*Snapshot, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	files, err := Discover(p)
	if err != nil {
		return nil, err
	}

	schema := opts.Schema
	if schema == nil {
		schema = validation.NewSchema()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Each worker owns one slot, so results keep discovery order.
	entries := make([]Entry, len(files))
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, f := range files {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			doc, errs := parseFile(p, f)
			errs = append(errs, schema.Validate(doc)...)
			entries[i] = Entry{Doc: doc, Errors: errs}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	logger.Debug("loaded documents", "count", len(entries), "workers", workers, "elapsed", time.Since(start))
	return &Snapshot{Paths: p, Entries: entries}, nil
}

// parseFile reads and decodes one document. yaml type errors leave the
// partially decoded entity in place so later fields are still checked.
func parseFile(p Paths, f File) (*types.Document, []*validation.SchemaError) {
	doc := &types.Document{Kind: f.Kind, Path: p.Rel(f.Path)}
	if f.Kind.HasID() {
		doc.StemID = validation.StemID(f.Kind, f.Path)
	}

	// #nosec G304 - paths come from directory discovery under the dataset root
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return doc, []*validation.SchemaError{{Document: doc.Path, Message: fmt.Sprintf("cannot read file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, []*validation.SchemaError{{Document: doc.Path, Message: "document is empty"}}
	}

	var target any
	switch f.Kind {
	case types.KindCharacter:
		doc.Character = &types.Character{}
		target = doc.Character
	case types.KindLocation:
		doc.Location = &types.Location{}
		target = doc.Location
	case types.KindMap:
		doc.Map = &types.Map{}
		target = doc.Map
	case types.KindLinks:
		doc.Links = &types.LinkSet{}
		target = doc.Links
	case types.KindRelations:
		doc.Relations = &types.Relations{}
		target = doc.Relations
	default:
		return doc, []*validation.SchemaError{{Document: doc.Path, Message: fmt.Sprintf("unknown document kind %q", f.Kind)}}
	}

	err = yaml.Unmarshal(data, target)
	if err == nil {
		return doc, nil
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		errs := make([]*validation.SchemaError, 0, len(typeErr.Errors))
		for _, msg := range typeErr.Errors {
			errs = append(errs, &validation.SchemaError{Document: doc.Path, Message: msg})
		}
		return doc, errs
	}

	// Syntax errors leave nothing trustworthy to check.
	*doc = types.Document{Kind: doc.Kind, Path: doc.Path, StemID: doc.StemID}
	return doc, []*validation.SchemaError{{Document: doc.Path, Message: fmt.Sprintf("invalid YAML: %v", err)}}
}

// Report collects the schema errors of every entry.
func (s *Snapshot) Report() *validation.Report {
	r := &validation.Report{Documents: len(s.Entries)}
	for _, e := range s.Entries {
		r.AddSchema(e.Errors)
	}
	return r
}

// Count returns how many documents of kind were loaded.
func (s *Snapshot) Count(kind types.Kind) int {
	n := 0
	for _, e := range s.Entries {
		if e.Doc.Kind == kind {
			n++
		}
	}
	return n
}

// Dataset assembles the valid documents into ID-sorted collections. When an
// id is declared twice the first document in discovery order wins; the
// integrity checker reports the duplicate.
func (s *Snapshot) Dataset() *types.Dataset {
	ds := &types.Dataset{}
	seen := map[types.Kind]map[string]bool{
		types.KindCharacter: {},
		types.KindLocation:  {},
		types.KindMap:       {},
	}
	for _, e := range s.Entries {
		if !e.Valid() {
			continue
		}
		doc := e.Doc
		if doc.Kind.HasID() {
			if seen[doc.Kind][doc.ID()] {
				continue
			}
			seen[doc.Kind][doc.ID()] = true
		}
		switch doc.Kind {
		case types.KindCharacter:
			ds.Characters = append(ds.Characters, doc.Character)
		case types.KindLocation:
			ds.Locations = append(ds.Locations, doc.Location)
		case types.KindMap:
			ds.Maps = append(ds.Maps, doc.Map)
		case types.KindLinks:
			ds.Links = append(ds.Links, doc.Links.Links...)
		case types.KindRelations:
			ds.Edges = append(ds.Edges, doc.Relations.Edges...)
		}
	}
	slices.SortFunc(ds.Characters, func(a, b *types.Character) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Locations, func(a, b *types.Location) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ds.Maps, func(a, b *types.Map) int { return cmp.Compare(a.ID, b.ID) })
	return ds
}
