package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/vendctl/internal/history"
	"github.com/rbright/vendctl/internal/ipc"
)

// Handle serves IPC commands against the registry's sessions.
func (r *Registry) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandExec:
		return r.withSession(req, func(s *Session) (string, error) {
			name, err := requireAction(req)
			if err != nil {
				return "", err
			}
			state, err := s.Execute(name)
			return fmt.Sprintf("%s -> %s", name, state), err
		})
	case ipc.CommandUndo:
		return r.withSession(req, func(s *Session) (string, error) {
			state, err := s.Undo()
			return fmt.Sprintf("undo -> %s", state), err
		})
	case ipc.CommandRedo:
		return r.withSession(req, func(s *Session) (string, error) {
			state, err := s.Redo()
			return fmt.Sprintf("redo -> %s", state), err
		})
	case ipc.CommandCan:
		return r.withExisting(req, func(s *Session) (string, error) {
			name, err := requireAction(req)
			if err != nil {
				return "", err
			}
			return s.Explain(name)
		})
	case ipc.CommandStatus:
		return r.withExisting(req, func(*Session) (string, error) { return "status", nil })
	case ipc.CommandHistory:
		s, err := r.existing(req.Session)
		if err != nil {
			return failure(ipc.Response{Session: r.normalize(req.Session), Cursor: -1}, err)
		}
		snap := s.Snapshot()
		resp := response(snap, fmt.Sprintf("%d entries", snap.Length))
		resp.Entries = wireEntries(snap)
		return resp
	case ipc.CommandSessions:
		keys := r.Keys()
		return ipc.Response{OK: true, Sessions: keys, Message: fmt.Sprintf("%d open", len(keys)), Cursor: -1}
	case ipc.CommandOpen:
		s, err := r.Open()
		if err != nil {
			return failure(ipc.Response{Cursor: -1}, err)
		}
		return describe(s, "opened")
	case ipc.CommandClose:
		key := r.normalize(req.Session)
		if !r.Remove(key) {
			return failure(ipc.Response{Session: key, Cursor: -1}, fmt.Errorf("%w: %s", ErrUnknownSession, key))
		}
		return ipc.Response{OK: true, Session: key, Cursor: -1, Message: "closed"}
	default:
		return ipc.Response{OK: false, Cursor: -1, Kind: ipc.KindBadRequest, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

var errMissingAction = errors.New("command name is required")

func requireAction(req ipc.Request) (string, error) {
	name := strings.TrimSpace(req.Action)
	if name == "" {
		return "", errMissingAction
	}
	return name, nil
}

// existing returns the session for key without creating one. Only the
// default session is created on first use.
func (r *Registry) existing(key string) (*Session, error) {
	key = r.normalize(key)
	if key == r.defaultKey {
		return r.Get(key)
	}
	s, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, key)
	}
	return s, nil
}

func (r *Registry) withSession(req ipc.Request, op func(*Session) (string, error)) ipc.Response {
	s, err := r.Get(req.Session)
	if err != nil {
		return failure(ipc.Response{Session: r.normalize(req.Session), Cursor: -1}, err)
	}
	return run(s, op)
}

// withExisting is withSession for read-only commands, which never create a
// non-default session.
func (r *Registry) withExisting(req ipc.Request, op func(*Session) (string, error)) ipc.Response {
	s, err := r.existing(req.Session)
	if err != nil {
		return failure(ipc.Response{Session: r.normalize(req.Session), Cursor: -1}, err)
	}
	return run(s, op)
}

func run(s *Session, op func(*Session) (string, error)) ipc.Response {
	message, opErr := op(s)
	resp := describe(s, message)
	if opErr != nil {
		return failure(resp, opErr)
	}
	return resp
}

func describe(s *Session, message string) ipc.Response {
	return response(s.Snapshot(), message)
}

func response(snap Snapshot, message string) ipc.Response {
	return ipc.Response{
		OK:      true,
		Session: snap.Key,
		State:   string(snap.State),
		Cursor:  snap.Cursor,
		Length:  snap.Length,
		Message: message,
	}
}

func failure(resp ipc.Response, err error) ipc.Response {
	resp.OK = false
	resp.Message = ""
	resp.Error = err.Error()
	resp.Kind = Kind(err)
	return resp
}

// Kind maps an error to its stable wire kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, history.ErrInconsistentHistory):
		return ipc.KindInconsistentHistory
	case errors.Is(err, history.ErrRejected):
		return ipc.KindRejected
	case errors.Is(err, history.ErrNothingToUndo):
		return ipc.KindNothingToUndo
	case errors.Is(err, history.ErrNothingToRedo):
		return ipc.KindNothingToRedo
	case errors.Is(err, ErrUnknownCommand):
		return ipc.KindUnknownCommand
	case errors.Is(err, ErrSessionLimit):
		return ipc.KindSessionLimit
	default:
		return ipc.KindBadRequest
	}
}

func wireEntries(snap Snapshot) []ipc.Entry {
	out := make([]ipc.Entry, 0, len(snap.Entries))
	for i, e := range snap.Entries {
		out = append(out, ipc.Entry{
			Index:      i,
			ID:         e.ID.String(),
			Command:    e.Command.Name(),
			From:       string(e.From),
			To:         string(e.To),
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339Nano),
			Applied:    i <= snap.Cursor,
		})
	}
	return out
}
