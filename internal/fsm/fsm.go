package fsm

import (
	"errors"
	"fmt"
	"strings"
)

type State string

type Action string

// Transition is one table row. A row without To marks (From, Action) as
// rejected and carries Hint as the message reported for it.
type Transition struct {
	From   State
	Action Action
	To     State
	Hint   string
}

type edge struct {
	from   State
	action Action
}

// Table is an immutable lookup from (state, action) to the next state.
type Table struct {
	next    map[edge]State
	hints   map[edge]string
	rows    []Transition
	states  []State
	actions []Action
}

// NewTable indexes rows and rejects empty fields and duplicate (From, Action) pairs.
func NewTable(rows []Transition) (*Table, error) {
	t := &Table{
		next:  make(map[edge]State, len(rows)),
		hints: make(map[edge]string),
	}
	seenState := make(map[State]struct{})
	seenAction := make(map[Action]struct{})
	addState := func(s State) {
		if _, ok := seenState[s]; ok {
			return
		}
		seenState[s] = struct{}{}
		t.states = append(t.states, s)
	}

	for i, row := range rows {
		row.From = State(strings.TrimSpace(string(row.From)))
		row.Action = Action(strings.TrimSpace(string(row.Action)))
		row.To = State(strings.TrimSpace(string(row.To)))
		row.Hint = strings.TrimSpace(row.Hint)

		if row.From == "" {
			return nil, fmt.Errorf("transition %d: from state is empty", i)
		}
		if row.Action == "" {
			return nil, fmt.Errorf("transition %d: action is empty", i)
		}
		if row.To == "" && row.Hint == "" {
			return nil, fmt.Errorf("transition %d: %s --(%s)--> has neither target nor hint", i, row.From, row.Action)
		}

		k := edge{from: row.From, action: row.Action}
		if _, dup := t.next[k]; dup {
			return nil, fmt.Errorf("duplicate transition: %s --(%s)-->", row.From, row.Action)
		}
		if _, dup := t.hints[k]; dup {
			return nil, fmt.Errorf("duplicate transition: %s --(%s)-->", row.From, row.Action)
		}

		addState(row.From)
		if _, ok := seenAction[row.Action]; !ok {
			seenAction[row.Action] = struct{}{}
			t.actions = append(t.actions, row.Action)
		}

		if row.To == "" {
			t.hints[k] = row.Hint
			continue
		}
		addState(row.To)
		t.next[k] = row.To
		t.rows = append(t.rows, Transition{From: row.From, Action: row.Action, To: row.To})
	}

	if len(t.rows) == 0 {
		return nil, errors.New("transition table has no transitions")
	}
	return t, nil
}

// Next returns the target of (from, action) when the table defines one.
func (t *Table) Next(from State, action Action) (State, bool) {
	to, ok := t.next[edge{from: from, action: action}]
	return to, ok
}

// Hint returns the rejection message recorded for (from, action), if any.
func (t *Table) Hint(from State, action Action) string {
	return t.hints[edge{from: from, action: action}]
}

// Has reports whether state appears anywhere in the table.
func (t *Table) Has(state State) bool {
	for _, s := range t.states {
		if s == state {
			return true
		}
	}
	return false
}

// States returns every state in first-seen order.
func (t *Table) States() []State {
	return append([]State(nil), t.states...)
}

// Actions returns every action in first-seen order.
func (t *Table) Actions() []Action {
	return append([]Action(nil), t.actions...)
}

// Transitions returns the edges that have a target, in declaration order.
func (t *Table) Transitions() []Transition {
	return append([]Transition(nil), t.rows...)
}

// InvalidTransitionError reports an action the table does not allow from From.
type InvalidTransitionError struct {
	From   State
	Action Action
	Hint   string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition: %s --(%s)--> ?", e.From, e.Action)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// Resolve looks up the next state for current and action.
// On failure it returns current unchanged with an *InvalidTransitionError.
func Resolve(table *Table, current State, action Action) (State, error) {
	if table == nil {
		return current, errors.New("transition table is nil")
	}
	if !table.Has(current) {
		return current, fmt.Errorf("unknown state %q", current)
	}

	next, ok := table.Next(current, action)
	if !ok {
		return current, &InvalidTransitionError{
			From:   current,
			Action: action,
			Hint:   table.Hint(current, action),
		}
	}
	return next, nil
}
