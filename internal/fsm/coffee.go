package fsm

const (
	StateIdle       State = "idle"
	StateSelecting  State = "selecting"
	StateDispensing State = "dispensing"
)

const (
	ActionInsertCoin   Action = "insertCoin"
	ActionSelect       Action = "select"
	ActionDispense     Action = "dispense"
	ActionEject        Action = "eject"
	ActionCancelSelect Action = "cancelSelect"
	ActionRefill       Action = "refill"
)

// CoffeeTransitions returns the coffee machine rows: the forward cycle, the
// inverse of each forward step, and customer-facing rejection hints.
func CoffeeTransitions() []Transition {
	return []Transition{
		{From: StateIdle, Action: ActionInsertCoin, To: StateSelecting},
		{From: StateSelecting, Action: ActionSelect, To: StateDispensing},
		{From: StateDispensing, Action: ActionDispense, To: StateIdle},

		{From: StateSelecting, Action: ActionEject, To: StateIdle},
		{From: StateDispensing, Action: ActionCancelSelect, To: StateSelecting},
		{From: StateIdle, Action: ActionRefill, To: StateDispensing},

		{From: StateIdle, Action: ActionSelect, Hint: "Please insert a coin first."},
		{From: StateIdle, Action: ActionDispense, Hint: "Please insert a coin and select a coffee first."},
		{From: StateSelecting, Action: ActionInsertCoin, Hint: "Coin already inserted. Please select a coffee."},
		{From: StateSelecting, Action: ActionDispense, Hint: "Please select a coffee first."},
		{From: StateDispensing, Action: ActionInsertCoin, Hint: "Please wait, coffee is being dispensed."},
		{From: StateDispensing, Action: ActionSelect, Hint: "Please wait, coffee is being dispensed."},
	}
}

// CoffeeTable builds the table from CoffeeTransitions.
func CoffeeTable() *Table {
	t, err := NewTable(CoffeeTransitions())
	if err != nil {
		panic(err)
	}
	return t
}
