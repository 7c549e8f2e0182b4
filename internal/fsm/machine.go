package fsm

import (
	"errors"
	"fmt"
)

// Change describes one applied transition.
type Change struct {
	From   State
	Action Action
	To     State
}

// Listener observes applied transitions. It runs on the caller's goroutine.
type Listener func(Change)

// Machine holds the current state of one guarded device.
// It is not safe for concurrent use; one caller owns a machine.
type Machine struct {
	table     *Table
	current   State
	listeners []Listener
}

// NewMachine starts a machine at initial, which must appear in table.
func NewMachine(initial State, table *Table) (*Machine, error) {
	if table == nil {
		return nil, errors.New("transition table is nil")
	}
	if !table.Has(initial) {
		return nil, fmt.Errorf("unknown initial state %q", initial)
	}
	return &Machine{table: table, current: initial}, nil
}

// CurrentState returns the current state.
func (m *Machine) CurrentState() State {
	return m.current
}

// Table returns the machine's transition table.
func (m *Machine) Table() *Table {
	return m.table
}

// CanApply reports whether action has a table entry from the current state.
func (m *Machine) CanApply(action Action) bool {
	_, ok := m.table.Next(m.current, action)
	return ok
}

// Target previews the state Apply(action) would produce without applying it.
func (m *Machine) Target(action Action) (State, bool) {
	return m.table.Next(m.current, action)
}

// Apply moves to the table's target for action, or returns an
// *InvalidTransitionError and leaves the state unchanged.
func (m *Machine) Apply(action Action) (State, error) {
	from := m.current
	next, err := Resolve(m.table, from, action)
	if err != nil {
		return from, err
	}

	m.current = next
	change := Change{From: from, Action: action, To: next}
	for _, l := range m.listeners {
		l(change)
	}
	return next, nil
}

// Subscribe registers l for every successful Apply.
func (m *Machine) Subscribe(l Listener) {
	if l == nil {
		return
	}
	m.listeners = append(m.listeners, l)
}
