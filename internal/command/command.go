// Package command defines immutable reversible commands and the catalog that owns them.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/vendctl/internal/fsm"
)

// Command is a reversible unit of work expressed as a forward action and the
// action that reverses it. The zero value is not a valid command.
type Command struct {
	name        string
	forward     fsm.Action
	inverse     fsm.Action
	description string
}

// New validates and builds a command.
func New(name string, forward, inverse fsm.Action, description string) (Command, error) {
	name = strings.TrimSpace(name)
	forward = fsm.Action(strings.TrimSpace(string(forward)))
	inverse = fsm.Action(strings.TrimSpace(string(inverse)))

	if name == "" {
		return Command{}, errors.New("command name is empty")
	}
	if forward == "" {
		return Command{}, fmt.Errorf("command %q: forward action is empty", name)
	}
	if inverse == "" {
		return Command{}, fmt.Errorf("command %q: inverse action is empty", name)
	}
	if forward == inverse {
		return Command{}, fmt.Errorf("command %q: forward and inverse are both %q", name, forward)
	}

	return Command{
		name:        name,
		forward:     forward,
		inverse:     inverse,
		description: strings.TrimSpace(description),
	}, nil
}

func mustNew(name string, forward, inverse fsm.Action, description string) Command {
	c, err := New(name, forward, inverse, description)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Command) Name() string        { return c.name }
func (c Command) Forward() fsm.Action { return c.forward }
func (c Command) Inverse() fsm.Action { return c.inverse }

// Description returns the human-readable description, falling back to the name.
func (c Command) Description() string {
	if c.description != "" {
		return c.description
	}
	return c.name
}

func (c Command) String() string {
	return fmt.Sprintf("%s (%s, undo %s)", c.name, c.forward, c.inverse)
}

// InsertCoin moves an idle machine to selection; undone by ejecting the coin.
func InsertCoin() Command {
	return mustNew(string(fsm.ActionInsertCoin), fsm.ActionInsertCoin, fsm.ActionEject, "Insert a coin")
}

// Select starts dispensing; undone by cancelling the selection.
func Select() Command {
	return mustNew(string(fsm.ActionSelect), fsm.ActionSelect, fsm.ActionCancelSelect, "Select a coffee")
}

// Dispense delivers the drink; undone by refilling the cup.
func Dispense() Command {
	return mustNew(string(fsm.ActionDispense), fsm.ActionDispense, fsm.ActionRefill, "Dispense the coffee")
}
