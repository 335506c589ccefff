// Package scaffold creates new source documents with every field a writer
// is expected to fill in.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/untoldecay/lorebook/internal/loader"
	"github.com/untoldecay/lorebook/internal/types"
	"github.com/untoldecay/lorebook/internal/validation"
)

// Draft holds what is known about a document before it is written.
type Draft struct {
	Kind     types.Kind
	ID       string
	Name     string
	Role     string // characters only
	Type     string // locations only
	ParentID string // locations only
	Tags     []string
}

// Missing lists the fields a form should still ask for.
func (d *Draft) Missing() []string {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Kind == types.KindLocation && d.Type == "" {
		missing = append(missing, "type")
	}
	return missing
}

// Validate checks what can be checked before writing.
func (d *Draft) Validate() error {
	if d.Kind != types.KindCharacter && d.Kind != types.KindLocation {
		return fmt.Errorf("cannot scaffold a %s document", d.Kind)
	}
	if err := validation.ValidateSlug(d.ID); err != nil {
		return err
	}
	if d.Kind == types.KindLocation && d.ParentID != "" {
		if err := validation.ValidateSlug(d.ParentID); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	return nil
}

// Path is where the document for d belongs.
func Path(p loader.Paths, d *Draft) string {
	if d.Kind == types.KindLocation {
		return filepath.Join(p.Locations, d.ID+".location.yml")
	}
	return filepath.Join(p.Characters, d.ID+".yml")
}

// Document builds the entity for d. Dates are stamped with today.
func Document(d *Draft, now time.Time) any {
	today := now.Format(time.DateOnly)
	meta := types.Meta{Created: today, Updated: today}
	name := d.Name
	if name == "" {
		name = d.ID
	}
	if d.Kind == types.KindLocation {
		return &types.Location{
			ID:   d.ID,
			Tags: d.Tags,
			Profile: types.LocationProfile{
				Name:     name,
				Type:     d.Type,
				ParentID: d.ParentID,
			},
			Meta: meta,
		}
	}
	return &types.Character{
		ID:      d.ID,
		Tags:    d.Tags,
		Profile: types.Profile{Name: types.Name{Display: name}, Role: d.Role},
		Meta:    meta,
	}
}

// Render encodes a document as YAML with two-space indentation.
func Render(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrExists is returned when the target file is already present.
var ErrExists = errors.New("document already exists")

// Write renders d and creates its file. An existing file is never
// overwritten.
func Write(p loader.Paths, d *Draft, now time.Time) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	data, err := Render(Document(d, now))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", d.ID, err)
	}

	path := Path(p, d)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	// #nosec G304 - path is built from the configured source directories
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
