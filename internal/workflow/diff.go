package workflow

import (
	"strings"

	"github.com/agenthands/annuaire/internal/record"
)

// FieldDiff is one schema field whose value differs between the working copy and an
// existing record.
type FieldDiff struct {
	Field    string
	Label    string
	New      string
	Existing string
}

// Diff compares the schema fields of kind in schema order. Values are compared in their
// display form, ignoring surrounding whitespace.
func Diff(kind record.Kind, edited, existing record.Record) []FieldDiff {
	var diffs []FieldDiff
	for _, f := range kind.Schema() {
		n := strings.TrimSpace(edited.String(f.Name))
		e := strings.TrimSpace(existing.String(f.Name))
		if n == e {
			continue
		}
		diffs = append(diffs, FieldDiff{Field: f.Name, Label: f.Label, New: n, Existing: e})
	}
	return diffs
}
