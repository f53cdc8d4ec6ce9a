// Package console resolves import conflicts interactively on a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/workflow"
)

const help = `Commands:
  <n>              select existing entry n
  a                add the entry as new
  r                replace the selected entry
  s                skip this entry
  c                cancel the remaining entries
  set field=value  edit a field of the entry
  show             show the entry again
  diff             compare the entry with the selected (or every) existing entry
  help             show this help`

// RefreshFunc is called after each successful add or replace.
type RefreshFunc func(ctx context.Context, kind record.Kind) error

type Session struct {
	in       *bufio.Scanner
	out      io.Writer
	resolver workflow.Resolver
	refresh  RefreshFunc
	log      logrus.FieldLogger
}

func NewSession(in io.Reader, out io.Writer, resolver workflow.Resolver, refresh RefreshFunc, log logrus.FieldLogger) *Session {
	return &Session{
		in:       bufio.NewScanner(in),
		out:      out,
		resolver: resolver,
		refresh:  refresh,
		log:      log,
	}
}

// Resolve walks batch until every conflict is handled or the user cancels. End of input
// cancels the remaining conflicts.
func (s *Session) Resolve(ctx context.Context, kind record.Kind, batch record.ConflictBatch) (workflow.Phase, error) {
	wf := workflow.New(s.resolver)
	state, err := wf.Start(kind, batch)
	if err != nil {
		return state.Phase, err
	}

	s.present(state)
	for !state.Phase.Terminal() {
		if err := ctx.Err(); err != nil {
			state, _ = wf.Cancel()
			return state.Phase, err
		}

		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			state, _ = wf.Cancel()
			break
		}

		next, err := s.dispatch(ctx, wf, state, strings.TrimSpace(s.in.Text()))
		if err != nil {
			s.report(err)
			var actionErr *workflow.ActionError
			if errors.As(err, &actionErr) {
				s.present(state)
			}
			continue
		}
		moved := next.Cursor != state.Cursor || next.Phase != state.Phase
		state = next
		if moved && state.Phase == workflow.InProgress {
			s.present(state)
		}
	}

	switch state.Phase {
	case workflow.Completed:
		fmt.Fprintln(s.out, "All conflicts handled.")
	case workflow.Cancelled:
		fmt.Fprintln(s.out, "Cancelled.")
	}
	return state.Phase, s.in.Err()
}

func (s *Session) dispatch(ctx context.Context, wf *workflow.Workflow, state workflow.State, line string) (workflow.State, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "":
		return state, nil
	case "a", "add":
		next, err := wf.ResolveAsNew(ctx)
		if err == nil {
			s.afterResolve(ctx, state.Kind)
		}
		return next, err
	case "r", "replace":
		next, err := wf.ResolveAsReplace(ctx)
		if err == nil {
			s.afterResolve(ctx, state.Kind)
		}
		return next, err
	case "s", "skip":
		return wf.Skip()
	case "c", "cancel":
		return wf.Cancel()
	case "set":
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return state, fmt.Errorf("usage: set field=value")
		}
		if _, known := state.Kind.Schema().Lookup(name); !known {
			fmt.Fprintf(s.out, "note: %s is not a column of %s\n", name, state.Kind)
		}
		next, err := wf.EditField(name, strings.TrimSpace(value))
		if err == nil {
			fmt.Fprintf(s.out, "%s = %q\n", name, strings.TrimSpace(value))
		}
		return next, err
	case "show":
		s.present(state)
		return state, nil
	case "diff":
		s.diff(state)
		return state, nil
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return state, nil
	}

	n, err := strconv.Atoi(cmd)
	if err != nil {
		return state, fmt.Errorf("unknown command %q, type help", line)
	}
	next, err := wf.SelectExisting(n - 1)
	if err == nil {
		fmt.Fprintf(s.out, "Selected existing entry %d (N° %s).\n", n, next.Selected.String(record.KeyField))
	}
	return next, err
}

func (s *Session) afterResolve(ctx context.Context, kind record.Kind) {
	if s.refresh == nil {
		return
	}
	if err := s.refresh(ctx, kind); err != nil {
		s.log.WithError(err).Warn("refresh failed")
	}
}

func (s *Session) report(err error) {
	var actionErr *workflow.ActionError
	switch {
	case errors.As(err, &actionErr):
		fmt.Fprintf(s.out, "Error: %v. The entry is still pending.\n", actionErr)
	case errors.Is(err, workflow.ErrNoSelection):
		fmt.Fprintln(s.out, "Select an existing entry first.")
	case errors.Is(err, workflow.ErrBadSelection):
		fmt.Fprintln(s.out, "No existing entry with that number.")
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Session) present(state workflow.State) {
	if state.Current == nil {
		return
	}
	fmt.Fprintf(s.out, "\nConflict %d of %d (%s)\n", state.Cursor+1, state.Total, state.Kind)
	fmt.Fprintln(s.out, "New entry:")
	printRecord(s.out, state.Kind, state.Edited, "  ")
	fmt.Fprintln(s.out, "Existing entries:")
	for i, e := range state.Current.ExistingEntries {
		marker := " "
		if i == state.SelectedIndex {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s[%d]\n", marker, i+1)
		printRecord(s.out, state.Kind, e, "    ")
	}
	fmt.Fprintln(s.out, "Choose: <n> select, a add, r replace, s skip, c cancel, help")
}

func (s *Session) diff(state workflow.State) {
	if state.Current == nil {
		return
	}
	targets := state.Current.ExistingEntries
	first := 0
	if state.Selected != nil {
		targets = []record.Record{*state.Selected}
		first = state.SelectedIndex
	}
	for i, e := range targets {
		fmt.Fprintf(s.out, "[%d] N° %s\n", first+i+1, e.String(record.KeyField))
		diffs := workflow.Diff(state.Kind, state.Edited, e)
		if len(diffs) == 0 {
			fmt.Fprintln(s.out, "  identical")
			continue
		}
		for _, d := range diffs {
			fmt.Fprintf(s.out, "  %s: %q -> %q\n", d.Label, d.Existing, d.New)
		}
	}
}
