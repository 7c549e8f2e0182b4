// Package config resolves, parses, validates, and defaults vendctl configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by vendctl.
type Config struct {
	Machine MachineConfig
	Session SessionConfig
	Server  ServerConfig
	Log     LogConfig
}

// MachineConfig selects the machine definition sessions are built from.
type MachineConfig struct {
	// Definition is a YAML definition path. Empty selects the built-in coffee machine.
	Definition string
}

// SessionConfig controls session sharding in the owner process.
type SessionConfig struct {
	Default     string
	MaxSessions int
}

// ServerConfig controls the owner socket and client request deadlines.
type ServerConfig struct {
	// Socket overrides $XDG_RUNTIME_DIR/vendctl.sock when set.
	Socket           string
	RequestTimeoutMS int
}

// RequestTimeout returns the client deadline for one IPC roundtrip.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// LogConfig controls the JSONL runtime log.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
