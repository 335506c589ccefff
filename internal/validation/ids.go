package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/untoldecay/lorebook/internal/types"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// IsSlug reports whether id is a lowercase slug usable as a file name.
func IsSlug(id string) bool {
	return slugPattern.MatchString(id)
}

// ValidateSlug returns an error describing why id is not a slug.
func ValidateSlug(id string) error {
	if id == "" {
		return fmt.Errorf("id is empty")
	}
	if !IsSlug(id) {
		return fmt.Errorf("invalid id %q (expected lowercase letters, digits, '-' or '_', starting with a letter or digit)", id)
	}
	return nil
}

// ValidateDate checks that value is a real calendar date in YYYY-MM-DD form.
// An empty value is valid.
func ValidateDate(value string) error {
	if value == "" {
		return nil
	}
	if !datePattern.MatchString(value) {
		return fmt.Errorf("%q is not in YYYY-MM-DD format", value)
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return fmt.Errorf("%q is not a valid date", value)
	}
	return nil
}

// suffixes maps each id-bearing kind to the compound extension stripped
// from its file names.
var suffixes = map[types.Kind]string{
	types.KindCharacter: "",
	types.KindLocation:  ".location",
	types.KindMap:       ".map",
}

// StemID derives the identifier implied by a file name: the base name minus
// its extension and any kind suffix such as ".location".
func StemID(kind types.Kind, path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if suffix := suffixes[kind]; suffix != "" {
		stem = strings.TrimSuffix(stem, suffix)
	}
	return stem
}
