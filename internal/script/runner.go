// Package script runs line-oriented command scripts against a session.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rbright/vendctl/internal/fsm"
	"github.com/rbright/vendctl/internal/history"
	"github.com/rbright/vendctl/internal/session"
)

// Target is the session surface a script drives.
type Target interface {
	Execute(name string) (fsm.State, error)
	Undo() (fsm.State, error)
	Redo() (fsm.State, error)
	State() fsm.State
	Explain(name string) (string, error)
	Snapshot() session.Snapshot
}

// Summary counts what a run did.
type Summary struct {
	Steps    int
	Executed int
	Failed   int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d steps, %d ok, %d failed", s.Steps, s.Executed, s.Failed)
}

// Runner executes scripts line by line so interactive input works.
type Runner struct {
	Target Target
	Out    io.Writer
	// Strict aborts on the first recoverable failure.
	Strict bool
}

// Run reads steps from in until EOF, a fatal error, or ctx cancellation.
// Recoverable failures are printed and counted. Inconsistent history and
// malformed lines always abort. Cancellation is noticed while waiting for
// input; the pending read is abandoned.
func (r Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	if r.Target == nil {
		return Summary{}, errors.New("script target is nil")
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	var summary Summary
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var text string
		var more bool
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case text, more = <-lines:
		}
		if !more {
			break
		}

		step, ok, err := ParseLine(n, text)
		if err != nil {
			return summary, err
		}
		if !ok {
			continue
		}

		summary.Steps++
		err = r.apply(out, step)
		switch {
		case err == nil:
			summary.Executed++
		case errors.Is(err, history.ErrInconsistentHistory):
			return summary, fmt.Errorf("line %d: %w", step.Line, err)
		case recoverable(err):
			summary.Failed++
			fmt.Fprintf(out, "line %d: %s: %v\n", step.Line, session.Kind(err), err)
			if r.Strict {
				return summary, fmt.Errorf("line %d: %w", step.Line, err)
			}
		default:
			return summary, fmt.Errorf("line %d: %w", step.Line, err)
		}
	}
	if err := <-readErr; err != nil {
		return summary, fmt.Errorf("read script: %w", err)
	}
	return summary, nil
}

// readLines scans in on its own goroutine. lines is closed at EOF, after the
// scan error (possibly nil) has been sent on errc. Closing done stops the
// reader before its next send.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func (r Runner) apply(out io.Writer, step Step) error {
	switch step.Verb {
	case VerbExec:
		from := r.Target.State()
		state, err := r.Target.Execute(step.Arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s -> %s\n", step.Arg, from, state)
	case VerbUndo:
		from := r.Target.State()
		state, err := r.Target.Undo()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "undo: %s -> %s\n", from, state)
	case VerbRedo:
		from := r.Target.State()
		state, err := r.Target.Redo()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "redo: %s -> %s\n", from, state)
	case VerbState:
		fmt.Fprintf(out, "state: %s\n", r.Target.State())
	case VerbCan:
		message, err := r.Target.Explain(step.Arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, message)
	case VerbHistory:
		WriteHistory(out, r.Target.Snapshot())
	default:
		return fmt.Errorf("unsupported verb %q", step.Verb)
	}
	return nil
}

// WriteHistory prints one line per entry. Applied entries are marked with *.
func WriteHistory(out io.Writer, snap session.Snapshot) {
	if len(snap.Entries) == 0 {
		fmt.Fprintf(out, "history: empty (state %s)\n", snap.State)
		return
	}
	for i, e := range snap.Entries {
		mark := " "
		if i <= snap.Cursor {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %d %s: %s -> %s\n", mark, i, e.Command.Name(), e.From, e.To)
	}
}

func recoverable(err error) bool {
	return errors.Is(err, history.ErrRejected) ||
		errors.Is(err, history.ErrNothingToUndo) ||
		errors.Is(err, history.ErrNothingToRedo) ||
		errors.Is(err, session.ErrUnknownCommand)
}
