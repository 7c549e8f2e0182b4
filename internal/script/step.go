package script

import (
	"errors"
	"fmt"
)

// Verb selects what a script step does.
type Verb string

const (
	VerbExec    Verb = "exec"
	VerbUndo    Verb = "undo"
	VerbRedo    Verb = "redo"
	VerbState   Verb = "state"
	VerbCan     Verb = "can"
	VerbHistory Verb = "history"
)

// Step is one parsed script line.
type Step struct {
	Line int
	Verb Verb
	Arg  string
}

func (s Step) String() string {
	if s.Arg == "" {
		return string(s.Verb)
	}
	return fmt.Sprintf("%s %s", s.Verb, s.Arg)
}

// ParseError is a malformed script line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// ParseLine parses line n. ok is false for blank and comment lines.
// A lone word that is not a verb is shorthand for exec.
func ParseLine(n int, text string) (step Step, ok bool, err error) {
	words, err := splitWords(text)
	if err != nil {
		return Step{}, false, &ParseError{Line: n, Err: err}
	}
	if len(words) == 0 {
		return Step{}, false, nil
	}

	verb, args := Verb(words[0]), words[1:]
	switch verb {
	case VerbUndo, VerbRedo, VerbState, VerbHistory:
		if len(args) > 0 {
			return Step{}, false, &ParseError{Line: n, Err: fmt.Errorf("%s takes no arguments", verb)}
		}
		return Step{Line: n, Verb: verb}, true, nil
	case VerbExec, VerbCan:
		if len(args) != 1 || args[0] == "" {
			return Step{}, false, &ParseError{Line: n, Err: fmt.Errorf("%s needs exactly one command name", verb)}
		}
		return Step{Line: n, Verb: verb, Arg: args[0]}, true, nil
	default:
		if len(args) > 0 {
			return Step{}, false, &ParseError{Line: n, Err: fmt.Errorf("unexpected arguments after %q", words[0])}
		}
		if words[0] == "" {
			return Step{}, false, &ParseError{Line: n, Err: errors.New("empty command name")}
		}
		return Step{Line: n, Verb: VerbExec, Arg: words[0]}, true, nil
	}
}
