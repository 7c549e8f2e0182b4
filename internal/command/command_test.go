package command

import (
	"testing"

	"github.com/rbright/vendctl/internal/fsm"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesFields(t *testing.T) {
	tests := []struct {
		name    string
		cmdName string
		forward fsm.Action
		inverse fsm.Action
		wantErr string
	}{
		{name: "empty name", cmdName: " ", forward: "a", inverse: "b", wantErr: "name is empty"},
		{name: "empty forward", cmdName: "x", inverse: "b", wantErr: "forward action is empty"},
		{name: "empty inverse", cmdName: "x", forward: "a", wantErr: "inverse action is empty"},
		{name: "self inverse", cmdName: "x", forward: "a", inverse: "a", wantErr: "forward and inverse"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cmdName, tc.forward, tc.inverse, "")
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCommandAccessors(t *testing.T) {
	cmd, err := New(" toggle ", " on ", " off ", "")
	require.NoError(t, err)
	require.Equal(t, "toggle", cmd.Name())
	require.Equal(t, fsm.Action("on"), cmd.Forward())
	require.Equal(t, fsm.Action("off"), cmd.Inverse())
	require.Equal(t, "toggle", cmd.Description())
	require.Equal(t, "toggle (on, undo off)", cmd.String())

	require.Equal(t, "Insert a coin", InsertCoin().Description())
}

func TestBuiltinsPairCoffeeInverses(t *testing.T) {
	require.Equal(t, fsm.ActionEject, InsertCoin().Inverse())
	require.Equal(t, fsm.ActionCancelSelect, Select().Inverse())
	require.Equal(t, fsm.ActionRefill, Dispense().Inverse())
}

func TestCatalogLookupAndOrder(t *testing.T) {
	c := CoffeeCatalog()
	require.Equal(t, 3, c.Len())
	require.Equal(t, []string{"insertCoin", "select", "dispense"}, c.Names())

	cmd, ok := c.Lookup("select")
	require.True(t, ok)
	require.Equal(t, Select(), cmd)

	_, ok = c.Lookup("espresso")
	require.False(t, ok)

	all := c.All()
	require.Len(t, all, 3)
	require.Equal(t, "dispense", all[2].Name())
}

func TestNewCatalogRejectsDuplicatesAndZeroValues(t *testing.T) {
	_, err := NewCatalog(InsertCoin(), InsertCoin())
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate command")

	_, err = NewCatalog(Command{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no name")
}

func TestVerifyAcceptsCoffeeTable(t *testing.T) {
	require.NoError(t, CoffeeCatalog().Verify(fsm.CoffeeTable()))
}

func TestVerifyReportsMissingAndWrongInverses(t *testing.T) {
	table, err := fsm.NewTable([]fsm.Transition{
		{From: "off", Action: "on", To: "lit"},
		{From: "lit", Action: "dim", To: "dimmed"},
		{From: "dimmed", Action: "brighten", To: "off"},
	})
	require.NoError(t, err)

	on, err := New("on", "on", "off", "")
	require.NoError(t, err)
	dim, err := New("dim", "dim", "brighten", "")
	require.NoError(t, err)
	ghost, err := New("ghost", "haunt", "exorcise", "")
	require.NoError(t, err)

	catalog, err := NewCatalog(on, dim, ghost)
	require.NoError(t, err)

	err = catalog.Verify(table)
	require.Error(t, err)
	require.Contains(t, err.Error(), `command "on": off --(on)--> lit has no inverse`)
	require.Contains(t, err.Error(), `command "dim": inverse dimmed --(brighten)--> off does not return to lit`)
	require.Contains(t, err.Error(), `command "ghost": forward action "haunt" has no transitions`)

	require.Error(t, catalog.Verify(nil))
}
