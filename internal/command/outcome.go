package command

import "github.com/dshills/perch/internal/trace"

// OutcomeKind tells the session loop what to do after a command.
type OutcomeKind uint8

const (
	// OutcomeContinue keeps the session reading input.
	OutcomeContinue OutcomeKind = iota
	// OutcomeResume hands Directive to the execution controller.
	OutcomeResume
	// OutcomeQuit ends the session level.
	OutcomeQuit
)

// String returns a string representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeResume:
		return "resume"
	case OutcomeQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Outcome is the result of dispatching one line.
type Outcome struct {
	Kind      OutcomeKind
	Directive trace.Directive

	// Evaluated is set when no command matched and the line was evaluated
	// as an expression instead.
	Evaluated bool

	// Err is the error reported for the line, if any. It has already been
	// shown to the user.
	Err error

	// Line is the command line that actually ran, after history recall and
	// alias expansion.
	Line string
}

// Continue is the outcome of commands that leave the program paused.
func Continue() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

// Resume returns an outcome that resumes the program with d.
func Resume(d trace.Directive) Outcome {
	return Outcome{Kind: OutcomeResume, Directive: d}
}

// Quit returns an outcome that ends the session level.
func Quit() Outcome {
	return Outcome{Kind: OutcomeQuit}
}

// Fatal reports whether the outcome ends the session because the runtime
// went away.
func (o Outcome) Fatal() bool {
	return o.Kind == OutcomeQuit && o.Err != nil
}
