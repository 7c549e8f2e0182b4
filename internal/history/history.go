package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/vendctl/internal/command"
	"github.com/rbright/vendctl/internal/fsm"
)

// Common errors for history operations.
var (
	ErrRejected            = errors.New("command rejected")
	ErrNothingToUndo       = errors.New("nothing to undo")
	ErrNothingToRedo       = errors.New("nothing to redo")
	ErrInconsistentHistory = errors.New("inconsistent history")
)

// Entry is one applied command with the states on either side of it.
type Entry struct {
	ID         uuid.UUID
	Command    command.Command
	From       fsm.State
	To         fsm.State
	RecordedAt time.Time
}

// InconsistencyError reports an entry that can no longer be replayed.
type InconsistencyError struct {
	Op    string
	Entry Entry
	State fsm.State
	Err   error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: %s %q (%s -> %s) at %s: %v",
		ErrInconsistentHistory, e.Op, e.Entry.Command.Name(), e.Entry.From, e.Entry.To, e.State, e.Err)
}

func (e *InconsistencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInconsistentHistory}
	}
	return []error{ErrInconsistentHistory, e.Err}
}

// History manages the undo/redo sequence for one machine.
type History struct {
	machine *fsm.Machine
	entries []Entry
	cursor  int
}

// New creates an empty history bound to machine.
func New(machine *fsm.Machine) *History {
	if machine == nil {
		panic("history: nil machine")
	}
	return &History{machine: machine, cursor: -1}
}

// Machine returns the machine commands are applied to.
func (h *History) Machine() *fsm.Machine {
	return h.machine
}

// Execute applies cmd's forward action. On success it discards the redo
// tail, records the entry and returns the new state.
func (h *History) Execute(cmd command.Command) (fsm.State, error) {
	from := h.machine.CurrentState()
	to, err := h.machine.Apply(cmd.Forward())
	if err != nil {
		return to, fmt.Errorf("%w: %s: %w", ErrRejected, cmd.Name(), err)
	}

	clear(h.entries[h.cursor+1:])
	h.entries = append(h.entries[:h.cursor+1], Entry{
		ID:         uuid.New(),
		Command:    cmd,
		From:       from,
		To:         to,
		RecordedAt: time.Now(),
	})
	h.cursor = len(h.entries) - 1
	return to, nil
}

// Undo applies the inverse of the entry at the cursor and moves the cursor back.
// The entry stays available for Redo.
func (h *History) Undo() (fsm.State, error) {
	if h.cursor < 0 {
		return h.machine.CurrentState(), ErrNothingToUndo
	}

	entry := h.entries[h.cursor]
	state, err := h.replay("undo", entry, entry.Command.Inverse(), entry.To, entry.From)
	if err != nil {
		return state, err
	}
	h.cursor--
	return state, nil
}

// Redo re-applies the forward action of the entry after the cursor.
func (h *History) Redo() (fsm.State, error) {
	if h.cursor+1 >= len(h.entries) {
		return h.machine.CurrentState(), ErrNothingToRedo
	}

	entry := h.entries[h.cursor+1]
	state, err := h.replay("redo", entry, entry.Command.Forward(), entry.From, entry.To)
	if err != nil {
		return state, err
	}
	h.cursor++
	return state, nil
}

// replay applies action only if the machine sits at from and the table maps
// the action to want. Anything else is an InconsistencyError with no mutation.
func (h *History) replay(op string, entry Entry, action fsm.Action, from, want fsm.State) (fsm.State, error) {
	current := h.machine.CurrentState()
	if current != from {
		return current, &InconsistencyError{
			Op: op, Entry: entry, State: current,
			Err: fmt.Errorf("machine is at %s, entry expects %s", current, from),
		}
	}

	target, err := fsm.Resolve(h.machine.Table(), current, action)
	if err != nil {
		return current, &InconsistencyError{Op: op, Entry: entry, State: current, Err: err}
	}
	if target != want {
		return current, &InconsistencyError{
			Op: op, Entry: entry, State: current,
			Err: fmt.Errorf("%s leads to %s, entry expects %s", action, target, want),
		}
	}

	next, err := h.machine.Apply(action)
	if err != nil {
		return next, &InconsistencyError{Op: op, Entry: entry, State: next, Err: err}
	}
	return next, nil
}

// Cursor returns the index of the most recently applied entry, or -1.
func (h *History) Cursor() int { return h.cursor }

// Len returns the number of recorded entries, including the redo tail.
func (h *History) Len() int { return len(h.entries) }

func (h *History) CanUndo() bool { return h.cursor >= 0 }

func (h *History) CanRedo() bool { return h.cursor+1 < len(h.entries) }

// Entries returns a copy of every recorded entry.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

// PeekUndo returns the entry Undo would reverse.
func (h *History) PeekUndo() (Entry, bool) {
	if h.cursor < 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

// PeekRedo returns the entry Redo would replay.
func (h *History) PeekRedo() (Entry, bool) {
	if h.cursor+1 >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[h.cursor+1], true
}

// Clear drops all entries. The machine keeps its current state.
func (h *History) Clear() {
	h.entries = nil
	h.cursor = -1
}
