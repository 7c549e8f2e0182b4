// Package history provides undo/redo over a guarded state machine.
//
// A History records every command that a Machine accepted, together with the
// state it was applied from and the state it produced:
//
//	h := history.New(machine)
//	h.Execute(command.InsertCoin()) // idle -> selecting
//	h.Undo()                        // applies eject: selecting -> idle
//	h.Redo()                        // re-applies insertCoin
//
// # Cursor
//
// The history is one ordered sequence plus a cursor pointing at the most
// recently applied entry (-1 when nothing is applied). Undo moves the cursor
// back, Redo moves it forward, and Execute discards every entry past the
// cursor before appending.
//
// # Errors
//
// A command the machine rejects fails with ErrRejected and leaves the history
// untouched. Undo and Redo at the ends of the sequence fail with
// ErrNothingToUndo and ErrNothingToRedo. When replaying an entry no longer
// agrees with the transition table, Undo and Redo fail with
// ErrInconsistentHistory and change nothing; this means the table does not
// define a true inverse for a recorded command.
//
// A History and its Machine are owned by one caller and are not safe for
// concurrent use.
package history
