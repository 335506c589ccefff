package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/untoldecay/lorebook/internal/types"
)

// Schema checks the structure of individual documents. It is safe for
// concurrent use, so one instance is shared by all loader workers.
type Schema struct {
	v *validator.Validate
}

// NewSchema builds a Schema with field names reported by their YAML keys.
func NewSchema() *Schema {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(types.Profile)
		if p.Name.Label() == "" {
			sl.ReportError(p.Name, "name", "Name", "required", "")
		}
	}, types.Profile{})
	return &Schema{v: v}
}

// Validate runs the typed check for the document's kind and returns every
// violation found. Undecoded documents yield nothing here; the loader has
// already reported why they could not be read.
func (s *Schema) Validate(doc *types.Document) []*SchemaError {
	switch doc.Kind {
	case types.KindCharacter:
		if doc.Character != nil {
			return s.ValidateCharacter(doc, doc.Character)
		}
	case types.KindLocation:
		if doc.Location != nil {
			return s.ValidateLocation(doc, doc.Location)
		}
	case types.KindMap:
		if doc.Map != nil {
			return s.ValidateMap(doc, doc.Map)
		}
	case types.KindLinks:
		if doc.Links != nil {
			return s.structErrors(doc.Path, doc.Links)
		}
	case types.KindRelations:
		if doc.Relations != nil {
			return s.structErrors(doc.Path, doc.Relations)
		}
	}
	return nil
}

// ValidateCharacter checks required fields, intensity bounds, identity and
// dates of a character document.
func (s *Schema) ValidateCharacter(doc *types.Document, c *types.Character) []*SchemaError {
	errs := s.structErrors(doc.Path, c)
	errs = append(errs, identityErrors(doc, c.ID)...)
	errs = append(errs, dateErrors(doc.Path, c.Meta)...)
	return errs
}

// ValidateLocation checks required fields, identity and dates of a location.
func (s *Schema) ValidateLocation(doc *types.Document, l *types.Location) []*SchemaError {
	errs := s.structErrors(doc.Path, l)
	errs = append(errs, identityErrors(doc, l.ID)...)
	errs = append(errs, dateErrors(doc.Path, l.Meta)...)
	return errs
}

// ValidateMap checks required fields, include.depth, identity and dates of a
// map document.
func (s *Schema) ValidateMap(doc *types.Document, m *types.Map) []*SchemaError {
	errs := s.structErrors(doc.Path, m)
	errs = append(errs, identityErrors(doc, m.ID)...)
	errs = append(errs, dateErrors(doc.Path, m.Meta)...)
	return errs
}

func (s *Schema) structErrors(path string, v any) []*SchemaError {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*SchemaError{{Document: path, Message: err.Error()}}
	}
	out := make([]*SchemaError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &SchemaError{
			Document: path,
			Field:    fieldPath(fe.Namespace()),
			Message:  describe(fe),
		})
	}
	return out
}

// fieldPath drops the leading Go type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "slug":
		return fmt.Sprintf("%q is not a valid id (expected lowercase letters, digits, '-' or '_')", fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

func identityErrors(doc *types.Document, id string) []*SchemaError {
	if id == "" || !IsSlug(id) || doc.StemID == "" {
		return nil
	}
	if id != doc.StemID {
		return []*SchemaError{{
			Document: doc.Path,
			Field:    "id",
			Message:  fmt.Sprintf("%q does not match filename (expected %q)", id, doc.StemID),
		}}
	}
	return nil
}

func dateErrors(path string, meta types.Meta) []*SchemaError {
	var errs []*SchemaError
	for _, f := range []struct{ name, value string }{
		{"meta.created", meta.Created},
		{"meta.updated", meta.Updated},
	} {
		if err := ValidateDate(f.value); err != nil {
			errs = append(errs, &SchemaError{Document: path, Field: f.name, Message: err.Error()})
		}
	}
	return errs
}
