package ipc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request commands understood by the owner process.
const (
	CommandExec     = "exec"
	CommandUndo     = "undo"
	CommandRedo     = "redo"
	CommandCan      = "can"
	CommandStatus   = "status"
	CommandHistory  = "history"
	CommandSessions = "sessions"
	CommandOpen     = "open"
	CommandClose    = "close"
)

// Failure kinds carried in Response.Kind.
const (
	KindRejected            = "rejected"
	KindNothingToUndo       = "nothing_to_undo"
	KindNothingToRedo       = "nothing_to_redo"
	KindInconsistentHistory = "inconsistent_history"
	KindUnknownCommand      = "unknown_command"
	KindSessionLimit        = "session_limit"
	KindBadRequest          = "bad_request"
)

// Request is one CLI call forwarded to the owner process.
type Request struct {
	Command string `json:"command"`
	Session string `json:"session,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Response reports the session after a request. Cursor and Length always
// describe the history, even when OK is false.
type Response struct {
	OK       bool     `json:"ok"`
	Session  string   `json:"session,omitempty"`
	State    string   `json:"state,omitempty"`
	Cursor   int      `json:"cursor"`
	Length   int      `json:"length"`
	Message  string   `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Entries  []Entry  `json:"entries,omitempty"`
	Sessions []string `json:"sessions,omitempty"`
}

// Entry is the wire form of one history entry.
type Entry struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Command    string `json:"command"`
	From       string `json:"from"`
	To         string `json:"to"`
	RecordedAt string `json:"recorded_at"`
	Applied    bool   `json:"applied"`
}

// encodeStruct converts a JSON-tagged value into a protobuf Struct.
func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("build struct payload: %w", err)
	}
	return out, nil
}

// decodeStruct converts a protobuf Struct back into a JSON-tagged value.
func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("read struct payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
