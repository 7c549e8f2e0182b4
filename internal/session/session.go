// Package session binds one machine and its command history to a session key
// and shards many of them behind a Registry.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/vendctl/internal/command"
	"github.com/rbright/vendctl/internal/definition"
	"github.com/rbright/vendctl/internal/fsm"
	"github.com/rbright/vendctl/internal/history"
)

// ErrUnknownCommand reports a command name missing from the catalog.
var ErrUnknownCommand = errors.New("unknown command")

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	Key     string
	State   fsm.State
	Cursor  int
	Length  int
	Entries []history.Entry
}

// Session owns exactly one machine and history. The mutex only serializes
// callers reaching the same key from several goroutines.
type Session struct {
	key     string
	catalog *command.Catalog
	logger  *slog.Logger

	mu      sync.Mutex
	machine *fsm.Machine
	history *history.History
}

// New builds a session at the definition's initial state.
func New(key string, def definition.Definition, logger *slog.Logger) (*Session, error) {
	if def.Catalog == nil {
		return nil, errors.New("definition has no command catalog")
	}
	machine, err := def.NewMachine()
	if err != nil {
		return nil, fmt.Errorf("start machine: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		key:     key,
		catalog: def.Catalog,
		logger:  logger.With("session", key),
		machine: machine,
		history: history.New(machine),
	}
	machine.Subscribe(func(c fsm.Change) {
		s.logger.Debug("state transition", "from", c.From, "action", c.Action, "to", c.To)
	})
	return s, nil
}

func (s *Session) Key() string { return s.key }

// Catalog returns the commands this session accepts.
func (s *Session) Catalog() *command.Catalog { return s.catalog }

// Execute runs the named command through the history.
func (s *Session) Execute(name string) (fsm.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.catalog.Lookup(name)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, name)
		s.logFailure("execute", name, err)
		return s.machine.CurrentState(), err
	}

	state, err := s.history.Execute(cmd)
	if err != nil {
		s.logFailure("execute", name, err)
		return state, err
	}
	s.logger.Info("command executed", "command", name, "state", state, "cursor", s.history.Cursor())
	return state, nil
}

// Undo reverses the most recently applied command.
func (s *Session) Undo() (fsm.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ""
	if entry, ok := s.history.PeekUndo(); ok {
		name = entry.Command.Name()
	}
	state, err := s.history.Undo()
	if err != nil {
		s.logFailure("undo", name, err)
		return state, err
	}
	s.logger.Info("command undone", "command", name, "state", state, "cursor", s.history.Cursor())
	return state, nil
}

// Redo replays the next command of the redo tail.
func (s *Session) Redo() (fsm.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ""
	if entry, ok := s.history.PeekRedo(); ok {
		name = entry.Command.Name()
	}
	state, err := s.history.Redo()
	if err != nil {
		s.logFailure("redo", name, err)
		return state, err
	}
	s.logger.Info("command redone", "command", name, "state", state, "cursor", s.history.Cursor())
	return state, nil
}

// State returns the machine's current state.
func (s *Session) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.CurrentState()
}

// Check previews the named command. It returns the target state, an
// *fsm.InvalidTransitionError when the machine would reject it, or
// ErrUnknownCommand.
func (s *Session) Check(name string) (fsm.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.catalog.Lookup(name)
	if !ok {
		return s.machine.CurrentState(), fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	current := s.machine.CurrentState()
	target, ok := s.machine.Target(cmd.Forward())
	if !ok {
		return current, &fsm.InvalidTransitionError{
			From:   current,
			Action: cmd.Forward(),
			Hint:   s.machine.Table().Hint(current, cmd.Forward()),
		}
	}
	return target, nil
}

// CanApply reports whether the named command is valid in the current state.
func (s *Session) CanApply(name string) (bool, error) {
	_, err := s.Check(name)
	if errors.Is(err, ErrUnknownCommand) {
		return false, err
	}
	return err == nil, nil
}

// Explain describes whether the named command is allowed right now, including
// the rejection hint when there is one.
func (s *Session) Explain(name string) (string, error) {
	target, err := s.Check(name)
	if err == nil {
		return fmt.Sprintf("%s: allowed (-> %s)", name, target), nil
	}
	var invalid *fsm.InvalidTransitionError
	if !errors.As(err, &invalid) {
		return "", err
	}
	if invalid.Hint != "" {
		return fmt.Sprintf("%s: not allowed in %s: %s", name, invalid.From, invalid.Hint), nil
	}
	return fmt.Sprintf("%s: not allowed in %s", name, invalid.From), nil
}

// Snapshot copies the current state and history.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Key:     s.key,
		State:   s.machine.CurrentState(),
		Cursor:  s.history.Cursor(),
		Length:  s.history.Len(),
		Entries: s.history.Entries(),
	}
}

func (s *Session) logFailure(op, name string, err error) {
	attrs := []any{"op", op, "command", name, "state", s.machine.CurrentState(), "cursor", s.history.Cursor(), "error", err}
	if errors.Is(err, history.ErrInconsistentHistory) {
		s.logger.Error("history is inconsistent with the transition table", attrs...)
		return
	}
	s.logger.Info("command not applied", attrs...)
}
