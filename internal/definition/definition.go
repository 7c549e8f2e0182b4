// Package definition loads machine definitions: the transition table, the
// initial state, and the commands that may be recorded in history.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbright/vendctl/internal/command"
	"github.com/rbright/vendctl/internal/fsm"
)

// SourceBuiltin is the Source of the built-in coffee machine definition.
const SourceBuiltin = "builtin"

// Definition is a validated machine blueprint. Each session builds its own
// Machine from it; Table and Catalog are shared read-only.
type Definition struct {
	Name    string
	Initial fsm.State
	Table   *fsm.Table
	Catalog *command.Catalog
	Source  string
}

// NewMachine starts a fresh machine at the definition's initial state.
func (d Definition) NewMachine() (*fsm.Machine, error) {
	return fsm.NewMachine(d.Initial, d.Table)
}

// Builtin returns the coffee machine definition.
func Builtin() Definition {
	return Definition{
		Name:    "coffee",
		Initial: fsm.StateIdle,
		Table:   fsm.CoffeeTable(),
		Catalog: command.CoffeeCatalog(),
		Source:  SourceBuiltin,
	}
}

type document struct {
	Name        string        `yaml:"name"`
	Initial     string        `yaml:"initial"`
	States      []string      `yaml:"states"`
	Transitions []transitionY `yaml:"transitions"`
	Commands    []commandY    `yaml:"commands"`
}

type transitionY struct {
	From   string `yaml:"from"`
	Action string `yaml:"action"`
	To     string `yaml:"to"`
	Hint   string `yaml:"hint"`
}

type commandY struct {
	Name        string `yaml:"name"`
	Action      string `yaml:"action"`
	Inverse     string `yaml:"inverse"`
	Description string `yaml:"description"`
}

// Load reads a YAML definition from path. An empty path returns Builtin.
func Load(path string) (Definition, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read definition %q: %w", path, err)
	}

	def, err := Parse(data, path)
	if err != nil {
		return Definition{}, fmt.Errorf("parse definition %q: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected and
// every command must be invertible under the table.
func Parse(data []byte, source string) (Definition, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, errors.New("definition is empty")
		}
		return Definition{}, err
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return Definition{}, errors.New("name must not be empty")
	}
	initial := fsm.State(strings.TrimSpace(doc.Initial))
	if initial == "" {
		return Definition{}, errors.New("initial must not be empty")
	}

	rows := make([]fsm.Transition, 0, len(doc.Transitions))
	for _, tr := range doc.Transitions {
		rows = append(rows, fsm.Transition{
			From:   fsm.State(tr.From),
			Action: fsm.Action(tr.Action),
			To:     fsm.State(tr.To),
			Hint:   tr.Hint,
		})
	}
	table, err := fsm.NewTable(rows)
	if err != nil {
		return Definition{}, fmt.Errorf("transitions: %w", err)
	}

	if err := checkDeclaredStates(doc.States, initial, table); err != nil {
		return Definition{}, err
	}

	cmds := make([]command.Command, 0, len(doc.Commands))
	for i, c := range doc.Commands {
		cmdName := c.Name
		if strings.TrimSpace(cmdName) == "" {
			cmdName = c.Action
		}
		cmd, err := command.New(cmdName, fsm.Action(c.Action), fsm.Action(c.Inverse), c.Description)
		if err != nil {
			return Definition{}, fmt.Errorf("commands[%d]: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return Definition{}, errors.New("commands must not be empty")
	}

	catalog, err := command.NewCatalog(cmds...)
	if err != nil {
		return Definition{}, err
	}
	if err := catalog.Verify(table); err != nil {
		return Definition{}, fmt.Errorf("commands are not invertible: %w", err)
	}

	return Definition{
		Name:    name,
		Initial: initial,
		Table:   table,
		Catalog: catalog,
		Source:  source,
	}, nil
}

// checkDeclaredStates enforces that an explicit states list covers the table
// and the initial state. An omitted list is derived from the table.
func checkDeclaredStates(declared []string, initial fsm.State, table *fsm.Table) error {
	if !table.Has(initial) {
		return fmt.Errorf("initial state %q does not appear in transitions", initial)
	}
	if len(declared) == 0 {
		return nil
	}

	known := make(map[fsm.State]struct{}, len(declared))
	for _, s := range declared {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("states contains an empty name")
		}
		if _, dup := known[fsm.State(s)]; dup {
			return fmt.Errorf("states lists %q twice", s)
		}
		known[fsm.State(s)] = struct{}{}
	}

	for _, s := range table.States() {
		if _, ok := known[s]; !ok {
			return fmt.Errorf("state %q is used by transitions but not declared in states", s)
		}
	}
	return nil
}
