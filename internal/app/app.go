package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/vendctl/internal/cli"
	"github.com/rbright/vendctl/internal/config"
	"github.com/rbright/vendctl/internal/definition"
	"github.com/rbright/vendctl/internal/doctor"
	"github.com/rbright/vendctl/internal/ipc"
	"github.com/rbright/vendctl/internal/logging"
	"github.com/rbright/vendctl/internal/script"
	"github.com/rbright/vendctl/internal/session"
	"github.com/rbright/vendctl/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args, r.Stdout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText())
		return 2
	}

	if parsed.Handled {
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger := r.Logger
	if logger == nil {
		logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
			return 1
		}
		defer func() { _ = logRuntime.Close() }()
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"session", parsed.Session,
		"version", version.Short(),
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandRun:
		return r.commandRun(ctx, parsed, cfg, logger)
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx, parsed, cfg)
	case cli.CommandExec, cli.CommandUndo, cli.CommandRedo, cli.CommandCan,
		cli.CommandHistory, cli.CommandSessions, cli.CommandOpen, cli.CommandClose:
		return r.forwardOrFail(ctx, parsed, cfg)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	defPath := parsed.Definition
	if strings.TrimSpace(defPath) == "" {
		defPath = cfg.Machine.Definition
	}
	def, err := definition.Load(defPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	key := sessionKey(parsed, cfg)
	s, err := session.New(key, def, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	in := r.Stdin
	if in == nil {
		in = os.Stdin
	}
	if path := strings.TrimSpace(parsed.Script); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: open script: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	started := time.Now()
	summary, err := script.Runner{Target: s, Out: r.Stdout, Strict: parsed.Strict}.Run(ctx, in)
	fields := []any{
		"definition", def.Name,
		"session", key,
		"steps", summary.Steps,
		"executed", summary.Executed,
		"failed", summary.Failed,
		"state", s.State(),
		"duration_ms", time.Since(started).Milliseconds(),
	}
	fmt.Fprintf(r.Stdout, "summary: %s\n", summary)
	if err != nil {
		logger.Error("script aborted", append(fields, "error", err.Error())...)
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("script complete", fields...)
	return 0
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.ResolveSocketPath(cfg.Server.Socket)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	def, err := definition.Load(cfg.Machine.Definition)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v at %s\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	registry := session.NewRegistry(def, session.Options{
		DefaultKey:  cfg.Session.Default,
		MaxSessions: cfg.Session.MaxSessions,
		Logger:      logger,
	})

	logger.Info("server started", "socket", socketPath, "definition", def.Name, "source", def.Source)
	fmt.Fprintf(r.Stdout, "serving %s on %s\n", def.Name, socketPath)

	if err := ipc.Serve(ctx, listener, registry, logger); err != nil {
		logger.Error("server failed", "error", err.Error())
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}
	logger.Info("server stopped", "sessions", registry.Len())
	return 0
}

// commandStatus prints the server session state, or the definition's
// initial state when no server is running.
func (r Runner) commandStatus(ctx context.Context, parsed cli.Parsed, cfg config.Config) int {
	if socketPath, err := ipc.ResolveSocketPath(cfg.Server.Socket); err == nil {
		req := ipc.Request{Command: ipc.CommandStatus, Session: parsed.Session}
		resp, handled, err := tryForward(ctx, socketPath, req, cfg.Server.RequestTimeout())
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			fmt.Fprintln(r.Stdout, resp.State)
			return 0
		}
	}

	def, err := definition.Load(cfg.Machine.Definition)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, def.Initial)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, parsed cli.Parsed, cfg config.Config) int {
	socketPath, err := ipc.ResolveSocketPath(cfg.Server.Socket)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	req := ipc.Request{Command: string(parsed.Command), Session: parsed.Session, Action: parsed.Action}
	resp, handled, err := tryForward(ctx, socketPath, req, cfg.Server.RequestTimeout())
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active vendctl server\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	switch parsed.Command {
	case cli.CommandHistory:
		writeEntries(r.Stdout, resp)
	case cli.CommandSessions:
		if len(resp.Sessions) == 0 {
			fmt.Fprintln(r.Stdout, "no sessions")
		}
		for _, key := range resp.Sessions {
			fmt.Fprintln(r.Stdout, key)
		}
	case cli.CommandOpen:
		fmt.Fprintln(r.Stdout, resp.Session)
	default:
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
	}
	return 0
}

func writeEntries(out io.Writer, resp ipc.Response) {
	if len(resp.Entries) == 0 {
		fmt.Fprintf(out, "history: empty (state %s)\n", resp.State)
		return
	}
	for _, e := range resp.Entries {
		mark := " "
		if e.Applied {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %d %s: %s -> %s\n", mark, e.Index, e.Command, e.From, e.To)
	}
}

func sessionKey(parsed cli.Parsed, cfg config.Config) string {
	if key := strings.TrimSpace(parsed.Session); key != "" {
		return key
	}
	return cfg.Session.Default
}

// tryForward reports handled=false only when no server is listening.
func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		if resp.Kind != "" {
			return resp, true, fmt.Errorf("%s: %s", resp.Kind, resp.Error)
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsUnavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
