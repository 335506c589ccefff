package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Attributes is a free-form mapping such as a location's lore or a map's
// display hints. Nested values are normalized on decode so they always
// encode as JSON.
type Attributes map[string]any

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Attributes) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return typeErr
		}
		// Unhashable keys abort the inner decode; report them like any
		// other type problem so the rest of the document still decodes.
		return &yaml.TypeError{Errors: []string{fmt.Sprintf("line %d: %v", value.Line, err)}}
	}
	v, err := Normalize(raw)
	if err != nil {
		return &yaml.TypeError{Errors: []string{fmt.Sprintf("line %d: %v", value.Line, err)}}
	}
	switch m := v.(type) {
	case nil:
		*a = nil
	case map[string]any:
		*a = m
	default:
		return &yaml.TypeError{Errors: []string{fmt.Sprintf("line %d: expected a mapping", value.Line)}}
	}
	return nil
}

// Normalize rewrites a value decoded from YAML into one encoding/json
// accepts: mapping keys become strings, non-finite floats become their
// text form and timestamps become dates (or RFC 3339 when they carry a
// time of day). Keys that collide once converted are an error.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			key, err := keyString(k)
			if err != nil {
				return nil, err
			}
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("key %q appears more than once", key)
			}
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		}
		return x, nil
	case time.Time:
		return formatTime(x), nil
	}
	return v, nil
}

func keyString(k any) (string, error) {
	switch x := k.(type) {
	case string:
		return x, nil
	case nil:
		return "null", nil
	case time.Time:
		return formatTime(x), nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(x), nil
	}
	return "", fmt.Errorf("mapping keys must be scalars, got %T", k)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
