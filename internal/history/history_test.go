package history

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/vendctl/internal/command"
	"github.com/rbright/vendctl/internal/fsm"
)

func newCoffeeHistory(t *testing.T) *History {
	t.Helper()

	m, err := fsm.NewMachine(fsm.StateIdle, fsm.CoffeeTable())
	require.NoError(t, err)
	return New(m)
}

func TestNewPanicsWithoutMachine(t *testing.T) {
	require.Panics(t, func() { New(nil) })
}

func TestNewHistoryIsEmpty(t *testing.T) {
	h := newCoffeeHistory(t)
	require.Equal(t, -1, h.Cursor())
	require.Equal(t, 0, h.Len())
	require.False(t, h.CanUndo())
	require.False(t, h.CanRedo())
	require.Empty(t, h.Entries())
}

func TestCoffeeMachineScenario(t *testing.T) {
	h := newCoffeeHistory(t)

	state, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)
	require.Equal(t, fsm.StateSelecting, state)

	state, err = h.Execute(command.Select())
	require.NoError(t, err)
	require.Equal(t, fsm.StateDispensing, state)

	state, err = h.Undo()
	require.NoError(t, err)
	require.Equal(t, fsm.StateSelecting, state)

	state, err = h.Undo()
	require.NoError(t, err)
	require.Equal(t, fsm.StateIdle, state)

	state, err = h.Redo()
	require.NoError(t, err)
	require.Equal(t, fsm.StateSelecting, state)

	state, err = h.Execute(command.Dispense())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRejected)
	var invalid *fsm.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, fsm.StateSelecting, invalid.From)
	require.Equal(t, fsm.ActionDispense, invalid.Action)
	require.Equal(t, fsm.StateSelecting, state)
	require.Equal(t, fsm.StateSelecting, h.Machine().CurrentState())
}

func TestExecuteFoldsTransitionTable(t *testing.T) {
	table := fsm.CoffeeTable()
	catalog := command.CoffeeCatalog()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		h := newCoffeeHistory(t)
		want := fsm.StateIdle

		steps := rng.Intn(20)
		for i := 0; i < steps; i++ {
			var valid []command.Command
			for _, cmd := range catalog.All() {
				if _, ok := table.Next(want, cmd.Forward()); ok {
					valid = append(valid, cmd)
				}
			}
			require.NotEmpty(t, valid)
			cmd := valid[rng.Intn(len(valid))]

			want, _ = table.Next(want, cmd.Forward())
			got, err := h.Execute(cmd)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}

		require.Equal(t, want, h.Machine().CurrentState())
		require.Equal(t, steps, h.Len())
		require.Equal(t, steps-1, h.Cursor())
	}
}

func TestUndoRestoresPrecedingState(t *testing.T) {
	for _, cmds := range [][]command.Command{
		{command.InsertCoin()},
		{command.InsertCoin(), command.Select()},
		{command.InsertCoin(), command.Select(), command.Dispense()},
	} {
		h := newCoffeeHistory(t)
		for _, cmd := range cmds[:len(cmds)-1] {
			_, err := h.Execute(cmd)
			require.NoError(t, err)
		}

		before := h.Machine().CurrentState()
		last := cmds[len(cmds)-1]
		_, err := h.Execute(last)
		require.NoError(t, err)
		cursor := h.Cursor()

		state, err := h.Undo()
		require.NoError(t, err)
		require.Equal(t, before, state, last.Name())
		require.Equal(t, cursor-1, h.Cursor())
		require.Equal(t, len(cmds), h.Len())
	}
}

func TestRedoReversesUndo(t *testing.T) {
	h := newCoffeeHistory(t)
	_, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)

	after, err := h.Execute(command.Select())
	require.NoError(t, err)
	cursor := h.Cursor()

	_, err = h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	state, err := h.Redo()
	require.NoError(t, err)
	require.Equal(t, after, state)
	require.Equal(t, cursor, h.Cursor())
	require.Equal(t, 2, h.Len())
}

func TestExecuteAfterUndoDiscardsRedoTail(t *testing.T) {
	h := newCoffeeHistory(t)

	_, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)
	_, err = h.Execute(command.Select())
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	eject, err := command.New("eject", fsm.ActionEject, fsm.ActionInsertCoin, "Eject the coin")
	require.NoError(t, err)
	state, err := h.Execute(eject)
	require.NoError(t, err)
	require.Equal(t, fsm.StateIdle, state)
	require.Equal(t, 2, h.Len())
	require.Equal(t, 1, h.Cursor())

	_, err = h.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)

	entries := h.Entries()
	require.Equal(t, "insertCoin", entries[0].Command.Name())
	require.Equal(t, "eject", entries[1].Command.Name())
}

func TestBoundaryErrors(t *testing.T) {
	h := newCoffeeHistory(t)

	state, err := h.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)
	require.Equal(t, fsm.StateIdle, state)

	_, err = h.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)

	_, err = h.Execute(command.InsertCoin())
	require.NoError(t, err)

	_, err = h.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)
	require.Equal(t, 0, h.Cursor())

	_, err = h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)
	require.Equal(t, -1, h.Cursor())
}

func TestRejectedExecuteDoesNotMutate(t *testing.T) {
	h := newCoffeeHistory(t)
	_, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)
	_, err = h.Execute(command.Select())
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	before := h.Entries()
	_, err = h.Execute(command.InsertCoin())
	require.ErrorIs(t, err, ErrRejected)
	require.Contains(t, err.Error(), "Coin already inserted")

	require.Equal(t, fsm.StateSelecting, h.Machine().CurrentState())
	require.Equal(t, before, h.Entries())
	require.Equal(t, 0, h.Cursor())
	require.True(t, h.CanRedo(), "rejected execute must not discard the redo tail")
}

func TestUndoWithoutInverseEdgeIsInconsistent(t *testing.T) {
	table, err := fsm.NewTable([]fsm.Transition{
		{From: "off", Action: "on", To: "lit"},
		{From: "lit", Action: "shutdown", To: "off"},
	})
	require.NoError(t, err)
	m, err := fsm.NewMachine("off", table)
	require.NoError(t, err)
	h := New(m)

	on, err := command.New("on", "on", "off", "")
	require.NoError(t, err)
	_, err = h.Execute(on)
	require.NoError(t, err)

	state, err := h.Undo()
	require.ErrorIs(t, err, ErrInconsistentHistory)
	require.Equal(t, fsm.State("lit"), state)
	require.Equal(t, fsm.State("lit"), m.CurrentState())
	require.Equal(t, 0, h.Cursor())

	var inconsistent *InconsistencyError
	require.True(t, errors.As(err, &inconsistent))
	require.Equal(t, "undo", inconsistent.Op)
	require.Equal(t, "on", inconsistent.Entry.Command.Name())

	var invalid *fsm.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, fsm.Action("off"), invalid.Action)
}

func TestUndoLandingElsewhereIsInconsistent(t *testing.T) {
	table, err := fsm.NewTable([]fsm.Transition{
		{From: "a", Action: "next", To: "b"},
		{From: "b", Action: "back", To: "c"},
	})
	require.NoError(t, err)
	m, err := fsm.NewMachine("a", table)
	require.NoError(t, err)
	h := New(m)

	next, err := command.New("next", "next", "back", "")
	require.NoError(t, err)
	_, err = h.Execute(next)
	require.NoError(t, err)

	_, err = h.Undo()
	require.ErrorIs(t, err, ErrInconsistentHistory)
	require.Contains(t, err.Error(), "back leads to c, entry expects a")
	require.Equal(t, fsm.State("b"), m.CurrentState())
	require.Equal(t, 0, h.Cursor())
}

func TestRedoAfterStateDriftIsInconsistent(t *testing.T) {
	h := newCoffeeHistory(t)
	_, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	_, err = h.Machine().Apply(fsm.ActionRefill)
	require.NoError(t, err)

	state, err := h.Redo()
	require.ErrorIs(t, err, ErrInconsistentHistory)
	require.Contains(t, err.Error(), "machine is at dispensing, entry expects idle")
	require.Equal(t, fsm.StateDispensing, state)
	require.Equal(t, -1, h.Cursor())
	require.True(t, h.CanRedo())
}

func TestEntriesRecordStatesAndUniqueIDs(t *testing.T) {
	h := newCoffeeHistory(t)
	for _, cmd := range []command.Command{command.InsertCoin(), command.Select(), command.Dispense()} {
		_, err := h.Execute(cmd)
		require.NoError(t, err)
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, fsm.StateIdle, entries[0].From)
	require.Equal(t, fsm.StateSelecting, entries[0].To)
	require.Equal(t, fsm.StateDispensing, entries[2].From)
	require.Equal(t, fsm.StateIdle, entries[2].To)

	seen := map[string]struct{}{}
	for _, e := range entries {
		require.False(t, e.RecordedAt.IsZero())
		seen[e.ID.String()] = struct{}{}
	}
	require.Len(t, seen, 3)

	entries[0].From = "tampered"
	require.Equal(t, fsm.StateIdle, h.Entries()[0].From)
}

func TestPeekAndClear(t *testing.T) {
	h := newCoffeeHistory(t)
	_, ok := h.PeekUndo()
	require.False(t, ok)

	_, err := h.Execute(command.InsertCoin())
	require.NoError(t, err)
	_, err = h.Execute(command.Select())
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	undo, ok := h.PeekUndo()
	require.True(t, ok)
	require.Equal(t, "insertCoin", undo.Command.Name())

	redo, ok := h.PeekRedo()
	require.True(t, ok)
	require.Equal(t, "select", redo.Command.Name())

	h.Clear()
	require.Equal(t, -1, h.Cursor())
	require.Equal(t, 0, h.Len())
	require.Equal(t, fsm.StateSelecting, h.Machine().CurrentState())
	_, ok = h.PeekRedo()
	require.False(t, ok)
}
