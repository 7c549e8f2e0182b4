package command

import (
	"errors"
	"fmt"

	"github.com/rbright/vendctl/internal/fsm"
)

// Catalog is a read-only registry of commands keyed by name.
type Catalog struct {
	byName map[string]Command
	order  []string
}

// NewCatalog registers cmds in order and rejects duplicate or invalid entries.
func NewCatalog(cmds ...Command) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Command, len(cmds))}
	for _, cmd := range cmds {
		if cmd.name == "" {
			return nil, errors.New("catalog: command has no name")
		}
		if _, dup := c.byName[cmd.name]; dup {
			return nil, fmt.Errorf("catalog: duplicate command %q", cmd.name)
		}
		c.byName[cmd.name] = cmd
		c.order = append(c.order, cmd.name)
	}
	return c, nil
}

// CoffeeCatalog registers the coffee machine commands.
func CoffeeCatalog() *Catalog {
	c, err := NewCatalog(InsertCoin(), Select(), Dispense())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(name string) (Command, bool) {
	cmd, ok := c.byName[name]
	return cmd, ok
}

func (c *Catalog) Len() int { return len(c.order) }

// Names returns command names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// All returns commands in registration order.
func (c *Catalog) All() []Command {
	out := make([]Command, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Verify checks that every edge a command's forward action can take has a
// matching inverse edge back to its source. All gaps are reported together.
func (c *Catalog) Verify(table *fsm.Table) error {
	if table == nil {
		return errors.New("verify: transition table is nil")
	}

	var errs []error
	for _, cmd := range c.All() {
		used := false
		for _, row := range table.Transitions() {
			if row.Action != cmd.forward {
				continue
			}
			used = true

			back, ok := table.Next(row.To, cmd.inverse)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("command %q: %s --(%s)--> %s has no inverse %s --(%s)-->",
					cmd.name, row.From, cmd.forward, row.To, row.To, cmd.inverse))
			case back != row.From:
				errs = append(errs, fmt.Errorf("command %q: inverse %s --(%s)--> %s does not return to %s",
					cmd.name, row.To, cmd.inverse, back, row.From))
			}
		}
		if !used {
			errs = append(errs, fmt.Errorf("command %q: forward action %q has no transitions", cmd.name, cmd.forward))
		}
	}
	return errors.Join(errs...)
}
