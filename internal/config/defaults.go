package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Machine: MachineConfig{Definition: ""},
		Session: SessionConfig{
			Default:     "default",
			MaxSessions: 64,
		},
		Server: ServerConfig{
			Socket:           "",
			RequestTimeoutMS: 500,
		},
		Log: LogConfig{Level: "info"},
	}
}
