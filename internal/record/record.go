package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeyField names the numeric identifier assigned by the store.
const KeyField = "numero"

// Record maps column names to values. Candidates parsed from an import carry no key.
type Record map[string]any

// Key returns the record's numero when it holds an integral value.
func (r Record) Key() (int64, bool) {
	return toInt64(r[KeyField])
}

func (r Record) HasKey() bool {
	_, ok := r.Key()
	return ok
}

// Clone returns a shallow copy; values are scalars so this is a full copy in practice.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// WithoutKey returns a copy with numero removed.
func (r Record) WithoutKey() Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	delete(out, KeyField)
	return out
}

// WithDefaults returns a copy carrying every schema field, absent ones set to "".
// Fields outside the schema are kept as they are.
func (r Record) WithDefaults(kind Kind) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for _, f := range kind.Schema() {
		if v, ok := out[f.Name]; !ok || v == nil {
			out[f.Name] = ""
		}
	}
	return out
}

// String returns the display form of a field, "" for missing and null values.
func (r Record) String(name string) string {
	return Display(r[name])
}

// Display formats a value the way the console and diff views show it.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
