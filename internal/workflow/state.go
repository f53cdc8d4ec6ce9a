package workflow

import "github.com/agenthands/annuaire/internal/record"

// State is a copy of the workflow at one point in time. Mutating it has no effect on
// the workflow it came from.
type State struct {
	Phase  Phase
	Kind   record.Kind
	Cursor int
	Total  int

	// Current, Edited and Selected are set only while the workflow is in progress.
	Current  *record.ConflictItem
	Edited   record.Record
	Selected *record.Record

	// SelectedIndex is -1 when no existing entry is selected.
	SelectedIndex int
}

// Remaining counts the items not yet resolved or skipped.
func (s State) Remaining() int {
	return s.Total - s.Cursor
}

func (w *Workflow) snapshot() State {
	s := State{
		Phase:         w.phase,
		Kind:          w.kind,
		Cursor:        w.cursor,
		Total:         len(w.batch),
		SelectedIndex: -1,
	}
	if w.phase != InProgress {
		return s
	}

	item := w.batch[w.cursor]
	current := record.ConflictItem{
		NewEntry:        item.NewEntry.Clone(),
		ExistingEntries: make([]record.Record, len(item.ExistingEntries)),
	}
	for i, e := range item.ExistingEntries {
		current.ExistingEntries[i] = e.Clone()
	}
	s.Current = &current
	s.Edited = w.edited.Clone()
	if w.selected >= 0 {
		s.SelectedIndex = w.selected
		sel := current.ExistingEntries[w.selected]
		s.Selected = &sel
	}
	return s
}
