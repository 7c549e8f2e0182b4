// Package cli defines the vendctl command tree and turns argv into one
// Parsed invocation. Dispatch happens in package app.
package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbright/vendctl/internal/version"
)

type Command string

const (
	CommandRun      Command = "run"
	CommandServe    Command = "serve"
	CommandExec     Command = "exec"
	CommandUndo     Command = "undo"
	CommandRedo     Command = "redo"
	CommandCan      Command = "can"
	CommandStatus   Command = "status"
	CommandHistory  Command = "history"
	CommandSessions Command = "sessions"
	CommandOpen     Command = "open"
	CommandClose    Command = "close"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
)

// Parsed is one resolved invocation.
type Parsed struct {
	Command    Command
	ConfigPath string
	Session    string
	// Action is the command name argument of exec and can.
	Action     string
	Script     string
	Definition string
	Strict     bool
	// Handled means cobra already answered (help or --version) and there is
	// nothing left to dispatch.
	Handled bool
}

// Parse resolves args against the command tree. Help and version output
// produced by cobra itself is written to out.
func Parse(args []string, out io.Writer) (Parsed, error) {
	var parsed Parsed
	root := newRootCommand(&parsed)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	if parsed.Command == "" {
		parsed.Handled = true
	}
	return parsed, nil
}

// HelpText renders root usage for error output.
func HelpText() string {
	var parsed Parsed
	return newRootCommand(&parsed).UsageString()
}

func newRootCommand(parsed *Parsed) *cobra.Command {
	root := &cobra.Command{
		Use:   "vendctl",
		Short: "Undoable commands over a table-driven state machine",
		Long: `vendctl runs commands against a finite-state machine and keeps an
undo/redo history of everything it applied.

Scripts run in-process with "vendctl run". "vendctl serve" keeps sessions in
memory behind a per-user socket; exec, undo, redo, can, history and sessions
talk to that server.`,
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&parsed.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/vendctl/config.jsonc)")
	flags.StringVar(&parsed.Session, "session", "", "session key (default: session.default)")

	record := func(command Command) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			parsed.Command = command
			if len(args) > 0 {
				parsed.Action = strings.TrimSpace(args[0])
			}
			return nil
		}
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a command script in a local session",
		Long: `Run reads one step per line from --script, or stdin when the path is
empty or "-". Steps: exec NAME (or a bare NAME), undo, redo, state, can NAME,
history. Blank lines and # comments are skipped.`,
		Args: cobra.NoArgs,
		RunE: record(CommandRun),
	}
	run.Flags().StringVar(&parsed.Script, "script", "", "script file (default: stdin)")
	run.Flags().StringVar(&parsed.Definition, "definition", "", "machine definition YAML (overrides machine.definition)")
	run.Flags().BoolVar(&parsed.Strict, "strict", false, "stop at the first rejected command")

	root.AddCommand(
		run,
		&cobra.Command{Use: "serve", Short: "Serve sessions on the runtime socket until interrupted", Args: cobra.NoArgs, RunE: record(CommandServe)},
		&cobra.Command{Use: "exec NAME", Short: "Execute a command in the server session", Args: cobra.ExactArgs(1), RunE: record(CommandExec)},
		&cobra.Command{Use: "undo", Short: "Undo the last applied command", Args: cobra.NoArgs, RunE: record(CommandUndo)},
		&cobra.Command{Use: "redo", Short: "Redo the next undone command", Args: cobra.NoArgs, RunE: record(CommandRedo)},
		&cobra.Command{Use: "can NAME", Short: "Report whether a command is allowed in the current state", Args: cobra.ExactArgs(1), RunE: record(CommandCan)},
		&cobra.Command{Use: "status", Short: "Print the current state", Args: cobra.NoArgs, RunE: record(CommandStatus)},
		&cobra.Command{Use: "history", Short: "Print the session history", Args: cobra.NoArgs, RunE: record(CommandHistory)},
		&cobra.Command{Use: "sessions", Short: "List open server sessions", Args: cobra.NoArgs, RunE: record(CommandSessions)},
		&cobra.Command{Use: "open", Short: "Open a server session under a fresh key", Args: cobra.NoArgs, RunE: record(CommandOpen)},
		&cobra.Command{Use: "close", Short: "Close the selected server session", Args: cobra.NoArgs, RunE: record(CommandClose)},
		&cobra.Command{Use: "doctor", Short: "Run configuration and environment checks", Args: cobra.NoArgs, RunE: record(CommandDoctor)},
		&cobra.Command{Use: "version", Short: "Print version information", Args: cobra.NoArgs, RunE: record(CommandVersion)},
	)
	return root
}
