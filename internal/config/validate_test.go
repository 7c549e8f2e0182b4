package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty default session", mutate: func(c *Config) { c.Session.Default = "  " }, wantErr: "session.default"},
		{name: "zero max sessions", mutate: func(c *Config) { c.Session.MaxSessions = 0 }, wantErr: "session.max_sessions"},
		{name: "negative timeout", mutate: func(c *Config) { c.Server.RequestTimeoutMS = -5 }, wantErr: "server.request_timeout_ms"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnRelativeSocket(t *testing.T) {
	cfg := Default()
	cfg.Server.Socket = "run/vendctl.sock"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "server.socket")

	cfg.Server.Socket = "/run/user/1000/vendctl.sock"
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateAcceptsEveryLevelTheLoggerParses(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "warning", "error"} {
		cfg := Default()
		cfg.Log.Level = level
		_, err := Validate(cfg)
		require.NoError(t, err, level)
	}
}
