// Package doctor runs runtime readiness diagnostics for config, the machine
// definition, and the owner socket.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rbright/vendctl/internal/config"
	"github.com/rbright/vendctl/internal/definition"
	"github.com/rbright/vendctl/internal/ipc"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}

	checks = append(checks, checkDefinition(cfg.Config.Machine.Definition))

	if strings.TrimSpace(cfg.Config.Server.Socket) == "" {
		checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "runtime dir is set", "XDG_RUNTIME_DIR is empty; set server.socket instead"))
	}

	checks = append(checks, checkServer(ctx, cfg.Config.Server))

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", cfg.Path)}
	}
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if n := len(cfg.Warnings); n > 0 {
		message = fmt.Sprintf("%s (%d warnings)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkDefinition loads and verifies the configured machine definition.
func checkDefinition(path string) Check {
	def, err := definition.Load(path)
	if err != nil {
		return Check{Name: "machine.definition", Pass: false, Message: err.Error()}
	}
	return Check{
		Name: "machine.definition",
		Pass: true,
		Message: fmt.Sprintf("%s from %s: %d states, %d commands, initial %s",
			def.Name, def.Source, len(def.Table.States()), def.Catalog.Len(), def.Initial),
	}
}

// checkServer probes the owner socket. No running server is not a failure.
func checkServer(ctx context.Context, cfg config.ServerConfig) Check {
	path, err := ipc.ResolveSocketPath(cfg.Socket)
	if err != nil {
		return Check{Name: "server", Pass: false, Message: err.Error()}
	}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	alive, err := ipc.Probe(ctx, path, timeout)
	if err != nil {
		return Check{Name: "server", Pass: false, Message: err.Error()}
	}
	if !alive {
		return Check{Name: "server", Pass: true, Message: fmt.Sprintf("no server running at %s", path)}
	}
	return Check{Name: "server", Pass: true, Message: fmt.Sprintf("serving at %s", path)}
}
