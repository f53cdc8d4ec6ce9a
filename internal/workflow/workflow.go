// Package workflow walks a batch of import conflicts and lets a person resolve each one
// by adding the candidate as a new record, replacing a selected existing record, or
// skipping it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agenthands/annuaire/internal/record"
)

// Phase is the lifecycle position of a workflow.
type Phase int

const (
	Idle Phase = iota
	InProgress
	Completed
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further operation is accepted.
func (p Phase) Terminal() bool {
	return p == Completed || p == Cancelled
}

var (
	ErrEmptyBatch    = errors.New("workflow: conflict batch is empty")
	ErrNotIdle       = errors.New("workflow: already started")
	ErrNotInProgress = errors.New("workflow: not in progress")
	ErrNoSelection   = errors.New("workflow: select an existing entry to replace")
	ErrBadSelection  = errors.New("workflow: no existing entry at that position")
	ErrBusy          = errors.New("workflow: a resolving call is already outstanding")
)

// Action names a resolving call that reaches the record store.
type Action string

const (
	ActionAdd     Action = "add"
	ActionReplace Action = "replace"
)

// ActionError reports a failed resolving call. The workflow stays on the same item.
type ActionError struct {
	Action Action
	Kind   record.Kind
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("failed to %s %s entry: %v", e.Action, e.Kind, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Resolver performs the resolving calls against the record store.
type Resolver interface {
	Create(ctx context.Context, kind record.Kind, rec record.Record) error
	Replace(ctx context.Context, kind record.Kind, recs []record.Record) error
}

// Workflow owns one conflict batch for its whole resolution. A Workflow is not reusable:
// once it is completed or cancelled, a new one must be created for the next batch.
type Workflow struct {
	resolver Resolver

	// call serializes resolving calls; mu guards the fields below.
	call sync.Mutex
	mu   sync.Mutex

	phase    Phase
	kind     record.Kind
	batch    record.ConflictBatch
	cursor   int
	edited   record.Record
	selected int
}

func New(resolver Resolver) *Workflow {
	return &Workflow{resolver: resolver, selected: -1}
}

// Start takes ownership of batch and presents its first item.
func (w *Workflow) Start(kind record.Kind, batch record.ConflictBatch) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != Idle {
		return w.snapshot(), ErrNotIdle
	}
	if !kind.Valid() {
		return w.snapshot(), fmt.Errorf("workflow: invalid kind %d", int(kind))
	}
	if len(batch) == 0 {
		return w.snapshot(), ErrEmptyBatch
	}
	if err := batch.Validate(); err != nil {
		return w.snapshot(), err
	}

	w.kind = kind
	w.batch = batch
	w.phase = InProgress
	w.moveTo(0)
	return w.snapshot(), nil
}

// EditField sets one field of the working copy. Names outside the kind's schema are
// accepted and sent along with the record.
func (w *Workflow) EditField(name string, value any) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != InProgress {
		return w.snapshot(), ErrNotInProgress
	}
	w.edited[name] = value
	return w.snapshot(), nil
}

// SelectExisting marks the i-th existing entry of the current item as the replace target
// and copies its numero into the working copy.
func (w *Workflow) SelectExisting(i int) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != InProgress {
		return w.snapshot(), ErrNotInProgress
	}
	existing := w.batch[w.cursor].ExistingEntries
	if i < 0 || i >= len(existing) {
		return w.snapshot(), ErrBadSelection
	}
	w.selected = i
	w.edited[record.KeyField] = existing[i][record.KeyField]
	return w.snapshot(), nil
}

// ResolveAsNew creates the working copy as a new record, without its numero.
func (w *Workflow) ResolveAsNew(ctx context.Context) (State, error) {
	if !w.call.TryLock() {
		return w.State(), ErrBusy
	}
	defer w.call.Unlock()

	w.mu.Lock()
	if w.phase != InProgress {
		defer w.mu.Unlock()
		return w.snapshot(), ErrNotInProgress
	}
	kind, cursor := w.kind, w.cursor
	payload := w.edited.WithoutKey()
	w.mu.Unlock()

	err := w.resolver.Create(ctx, kind, payload)
	return w.settle(cursor, ActionAdd, err)
}

// ResolveAsReplace overwrites the selected existing record with the working copy.
// Without a selection it fails locally and nothing is sent.
func (w *Workflow) ResolveAsReplace(ctx context.Context) (State, error) {
	if !w.call.TryLock() {
		return w.State(), ErrBusy
	}
	defer w.call.Unlock()

	w.mu.Lock()
	if w.phase != InProgress {
		defer w.mu.Unlock()
		return w.snapshot(), ErrNotInProgress
	}
	if w.selected < 0 {
		defer w.mu.Unlock()
		return w.snapshot(), ErrNoSelection
	}
	kind, cursor := w.kind, w.cursor
	payload := w.edited.Clone()
	w.mu.Unlock()

	err := w.resolver.Replace(ctx, kind, []record.Record{payload})
	return w.settle(cursor, ActionReplace, err)
}

// Skip leaves the current item unresolved and moves on.
func (w *Workflow) Skip() (State, error) {
	if !w.call.TryLock() {
		return w.State(), ErrBusy
	}
	defer w.call.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != InProgress {
		return w.snapshot(), ErrNotInProgress
	}
	w.advance()
	return w.snapshot(), nil
}

// Cancel abandons the remaining items. It is refused while a resolving call is outstanding.
func (w *Workflow) Cancel() (State, error) {
	if !w.call.TryLock() {
		return w.State(), ErrBusy
	}
	defer w.call.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != InProgress {
		return w.snapshot(), ErrNotInProgress
	}
	w.phase = Cancelled
	w.discard()
	return w.snapshot(), nil
}

// State returns a snapshot of the workflow.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Workflow) settle(cursor int, action Action, err error) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		return w.snapshot(), &ActionError{Action: action, Kind: w.kind, Err: err}
	}
	if w.phase == InProgress && w.cursor == cursor {
		w.advance()
	}
	return w.snapshot(), nil
}

func (w *Workflow) advance() {
	next := w.cursor + 1
	if next >= len(w.batch) {
		w.cursor = len(w.batch)
		w.phase = Completed
		w.discard()
		return
	}
	w.moveTo(next)
}

func (w *Workflow) moveTo(i int) {
	w.cursor = i
	w.edited = w.batch[i].NewEntry.WithDefaults(w.kind)
	w.selected = -1
}

func (w *Workflow) discard() {
	w.edited = nil
	w.selected = -1
}
