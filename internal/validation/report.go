package validation

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"
)

// Report accumulates every problem found in one validation pass.
// Advisory errors go to Warnings; everything else is fatal.
type Report struct {
	Errors   []error
	Warnings []error

	// Documents is the number of source documents that were examined.
	Documents int
}

// Add records err, routing advisory errors to Warnings. nil is ignored.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	var a advisory
	if errors.As(err, &a) && a.IsAdvisory() {
		r.Warnings = append(r.Warnings, err)
		return
	}
	r.Errors = append(r.Errors, err)
}

// AddSchema records a batch of schema errors.
func (r *Report) AddSchema(errs []*SchemaError) {
	for _, err := range errs {
		r.Errors = append(r.Errors, err)
	}
}

// Merge appends everything from other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Documents += other.Documents
}

// HasErrors reports whether any fatal error was recorded.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// Err joins all fatal errors, or returns nil when there are none.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return errors.Join(r.Errors...)
}

// Sort orders errors and warnings by document, then by message, so reports
// are stable regardless of check order.
func (r *Report) Sort() {
	slices.SortStableFunc(r.Errors, compareErrors)
	slices.SortStableFunc(r.Warnings, compareErrors)
}

func compareErrors(a, b error) int {
	if c := cmp.Compare(DocumentOf(a), DocumentOf(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.Error(), b.Error())
}

// Entry is the serializable form of one report item.
type Entry struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Document string `json:"document,omitempty"`
	Message  string `json:"message"`
}

// Entries flattens the report, errors first.
func (r *Report) Entries() []Entry {
	entries := make([]Entry, 0, len(r.Errors)+len(r.Warnings))
	for _, err := range r.Errors {
		entries = append(entries, newEntry("error", err))
	}
	for _, err := range r.Warnings {
		entries = append(entries, newEntry("warning", err))
	}
	return entries
}

func newEntry(severity string, err error) Entry {
	return Entry{
		Severity: severity,
		Kind:     KindOf(err),
		Document: DocumentOf(err),
		Message:  err.Error(),
	}
}

// MarshalJSON renders the report for machine consumption.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OK        bool    `json:"ok"`
		Documents int     `json:"documents"`
		Errors    int     `json:"error_count"`
		Warnings  int     `json:"warning_count"`
		Entries   []Entry `json:"entries"`
	}{
		OK:        !r.HasErrors(),
		Documents: r.Documents,
		Errors:    len(r.Errors),
		Warnings:  len(r.Warnings),
		Entries:   r.Entries(),
	})
}
