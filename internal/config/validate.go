package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rbright/vendctl/internal/logging"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Session.Default) == "" {
		return nil, fmt.Errorf("session.default must not be empty")
	}
	if cfg.Session.MaxSessions <= 0 {
		return nil, fmt.Errorf("session.max_sessions must be > 0")
	}
	if cfg.Server.RequestTimeoutMS <= 0 {
		return nil, fmt.Errorf("server.request_timeout_ms must be > 0")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("log.level must be one of: %s", strings.Join(logging.Levels, ", "))
	}

	if socket := strings.TrimSpace(cfg.Server.Socket); socket != "" && !filepath.IsAbs(socket) {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("server.socket %q is relative; it resolves against the working directory", socket),
		})
	}

	return warnings, nil
}
