package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var dateLayouts = []string{DateLayout, "02.01.2006", "02/01/2006", time.RFC3339, "2006-01-02 15:04:05"}

var timeLayouts = []string{TimeLayout, "15:04", "15H04", "3:04PM", "3:04 PM"}

var ErrInvalidValue = errors.New("invalid value")

// FieldError reports a value that cannot be coerced to its column type.
type FieldError struct {
	Field string
	Type  FieldType
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("record: field %s: cannot use %v as %s", e.Field, e.Value, e.Type)
}

func (e *FieldError) Unwrap() error { return ErrInvalidValue }

// Normalize coerces a record to the column types of kind. Unknown columns are dropped,
// empty strings become NULL, and numero is kept when it is a valid key.
func Normalize(kind Kind, r Record) (Record, error) {
	out := make(Record, len(r))
	if key, ok := r.Key(); ok {
		out[KeyField] = key
	}
	for _, f := range kind.Schema() {
		raw, ok := r[f.Name]
		if !ok {
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func coerce(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		raw = s
	}
	bad := &FieldError{Field: f.Name, Type: f.Type, Value: raw}

	switch f.Type {
	case Text:
		return Display(raw), nil
	case Int:
		if n, ok := toInt64(raw); ok {
			return n, nil
		}
		return nil, bad
	case Float:
		switch t := raw.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case json.Number:
			n, err := t.Float64()
			if err != nil {
				return nil, bad
			}
			return n, nil
		case string:
			n, err := strconv.ParseFloat(strings.ReplaceAll(t, ",", "."), 64)
			if err != nil || math.IsNaN(n) {
				return nil, bad
			}
			return n, nil
		}
		return nil, bad
	case Bool:
		switch t := raw.(type) {
		case bool:
			return t, nil
		case string:
			if b, ok := ParseBool(t); ok {
				return b, nil
			}
		case float64:
			return t != 0, nil
		}
		return nil, bad
	case Date:
		if t, ok := raw.(time.Time); ok {
			return t.Format(DateLayout), nil
		}
		if s, ok := raw.(string); ok {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format(DateLayout), nil
				}
			}
		}
		return nil, bad
	case Time:
		if s, ok := raw.(string); ok {
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
					return t.Format(TimeLayout), nil
				}
			}
		}
		return nil, bad
	}
	return nil, bad
}

// ParseBool understands the French spreadsheet values alongside the usual spellings.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "true", "vrai", "yes", "1", "x":
		return true, true
	case "non", "false", "faux", "no", "0":
		return false, true
	}
	return false, false
}

// MissingRequired returns the required fields of kind that r leaves empty.
func MissingRequired(kind Kind, r Record) []string {
	var missing []string
	for _, name := range kind.Required() {
		if r.String(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
