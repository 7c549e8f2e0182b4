package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/vendctl/internal/fsm"
)

func TestLoadEmptyPathReturnsBuiltin(t *testing.T) {
	def, err := Load("  ")
	require.NoError(t, err)
	require.Equal(t, "coffee", def.Name)
	require.Equal(t, SourceBuiltin, def.Source)
	require.Equal(t, fsm.StateIdle, def.Initial)
	require.NoError(t, def.Catalog.Verify(def.Table))
}

func TestLoadCoffeeYAMLMatchesBuiltinBehaviour(t *testing.T) {
	path := filepath.Join("testdata", "coffee.yaml")
	def, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, def.Source)
	require.Equal(t, []string{"insertCoin", "select", "dispense"}, def.Catalog.Names())

	builtin := Builtin()
	for _, row := range builtin.Table.Transitions() {
		to, ok := def.Table.Next(row.From, row.Action)
		require.True(t, ok, "%s --(%s)-->", row.From, row.Action)
		require.Equal(t, row.To, to)
	}
	require.Equal(t, "Please insert a coin first.", def.Table.Hint(fsm.StateIdle, fsm.ActionSelect))
}

func TestLoadBulbDefinitionDefaultsCommandNames(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "bulb.yaml"))
	require.NoError(t, err)
	require.Equal(t, "bulb", def.Name)
	require.Equal(t, fsm.State("off"), def.Initial)

	cmd, ok := def.Catalog.Lookup("turnOn")
	require.True(t, ok)
	require.Equal(t, fsm.Action("turnOff"), cmd.Inverse())
	require.Equal(t, "Turn the bulb on", cmd.Description())

	m, err := def.NewMachine()
	require.NoError(t, err)
	require.Equal(t, fsm.State("off"), m.CurrentState())
}

func TestLoadMissingFileIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "read definition")
	require.Contains(t, err.Error(), path)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse definition")
	require.Contains(t, err.Error(), path)
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty document", yaml: "", wantErr: "definition is empty"},
		{name: "unknown field", yaml: "name: x\ncolour: blue\n", wantErr: "colour"},
		{name: "missing name", yaml: "initial: a\n", wantErr: "name must not be empty"},
		{name: "missing initial", yaml: "name: x\n", wantErr: "initial must not be empty"},
		{name: "no transitions", yaml: "name: x\ninitial: a\n", wantErr: "no transitions"},
		{
			name: "initial not in table",
			yaml: `
name: x
initial: z
transitions:
  - {from: a, action: go, to: b}
  - {from: b, action: back, to: a}
commands:
  - {action: go, inverse: back}
`,
			wantErr: `initial state "z"`,
		},
		{
			name: "undeclared state",
			yaml: `
name: x
initial: a
states: [a]
transitions:
  - {from: a, action: go, to: b}
  - {from: b, action: back, to: a}
commands:
  - {action: go, inverse: back}
`,
			wantErr: `state "b" is used by transitions but not declared`,
		},
		{
			name: "duplicate declared state",
			yaml: `
name: x
initial: a
states: [a, b, a]
transitions:
  - {from: a, action: go, to: b}
  - {from: b, action: back, to: a}
commands:
  - {action: go, inverse: back}
`,
			wantErr: "twice",
		},
		{
			name: "no commands",
			yaml: `
name: x
initial: a
transitions:
  - {from: a, action: go, to: b}
`,
			wantErr: "commands must not be empty",
		},
		{
			name: "bad command",
			yaml: `
name: x
initial: a
transitions:
  - {from: a, action: go, to: b}
commands:
  - {action: go}
`,
			wantErr: "commands[0]",
		},
		{
			name: "duplicate command",
			yaml: `
name: x
initial: a
transitions:
  - {from: a, action: go, to: b}
  - {from: b, action: back, to: a}
commands:
  - {action: go, inverse: back}
  - {name: go, action: back, inverse: go}
`,
			wantErr: "duplicate command",
		},
		{
			name: "not invertible",
			yaml: `
name: x
initial: a
transitions:
  - {from: a, action: go, to: b}
commands:
  - {action: go, inverse: back}
`,
			wantErr: "not invertible",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), "test")
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
