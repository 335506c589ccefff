package validation

import (
	"fmt"
	"strings"

	"github.com/untoldecay/lorebook/internal/types"
)

// SchemaError describes a single structural problem inside one document.
type SchemaError struct {
	Document string // path relative to the dataset root
	Field    string // dotted field path, empty for document-level problems
	Message  string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Document, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Document, e.Field, e.Message)
}

// DanglingReferenceError is reported when a field names an entity that does
// not exist in the snapshot.
type DanglingReferenceError struct {
	Document   string
	Source     string // id of the referring entity, empty for id-less documents
	Field      string
	Target     types.Kind
	MissingID  string
	Suggestion string // closest existing id, if any is near enough
}

func (e *DanglingReferenceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Document)
	b.WriteString(": ")
	if e.Source != "" {
		fmt.Fprintf(&b, "%s: ", e.Source)
	}
	fmt.Fprintf(&b, "%s references unknown %s %q", e.Field, e.Target, e.MissingID)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// CycleError is reported when following parent_id from a location revisits
// a location. Path is closed: it starts and ends on the same id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("location hierarchy cycle: %s", strings.Join(e.Path, " -> "))
}

// VocabularyError is reported when a value is not registered in the
// vocabulary. Advisory errors are warnings and never block a build.
type VocabularyError struct {
	Document   string
	Source     string
	Field      string
	Value      string
	Vocabulary string // which vocabulary section was consulted
	Reason     string // overrides the default message when set
	Advisory   bool
}

func (e *VocabularyError) Error() string {
	prefix := e.Document + ": "
	if e.Source != "" {
		prefix += e.Source + ": "
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s%s %q %s", prefix, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s%s %q is not in vocabulary %s", prefix, e.Field, e.Value, e.Vocabulary)
}

// IsAdvisory reports whether the error is only a warning.
func (e *VocabularyError) IsAdvisory() bool { return e.Advisory }

// DuplicateIDError is reported when two documents of one kind declare the
// same id.
type DuplicateIDError struct {
	Kind      types.Kind
	ID        string
	Documents []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %q declared in %s", e.Kind, e.ID, strings.Join(e.Documents, ", "))
}

// CardinalityError is reported when a character holds more links of a
// single-valued kind than allowed.
type CardinalityError struct {
	Document    string
	CharacterID string
	Kind        string
	Locations   []string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: character %q has %d %q links (%s) but the kind allows only one",
		e.Document, e.CharacterID, len(e.Locations), e.Kind, strings.Join(e.Locations, ", "))
}

// advisory is implemented by errors that should be reported as warnings.
type advisory interface {
	IsAdvisory() bool
}

// KindOf returns a short machine-readable name for a report entry.
func KindOf(err error) string {
	switch err.(type) {
	case *SchemaError:
		return "schema"
	case *DanglingReferenceError:
		return "dangling_reference"
	case *CycleError:
		return "cycle"
	case *VocabularyError:
		return "vocabulary"
	case *DuplicateIDError:
		return "duplicate_id"
	case *CardinalityError:
		return "cardinality"
	}
	return "error"
}

// DocumentOf returns the document an error is attached to, or "".
func DocumentOf(err error) string {
	switch e := err.(type) {
	case *SchemaError:
		return e.Document
	case *DanglingReferenceError:
		return e.Document
	case *VocabularyError:
		return e.Document
	case *CardinalityError:
		return e.Document
	case *DuplicateIDError:
		if len(e.Documents) > 0 {
			return e.Documents[0]
		}
	}
	return ""
}
