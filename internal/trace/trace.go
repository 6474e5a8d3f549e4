package trace

import "fmt"

// StopKind identifies why execution paused.
type StopKind int

const (
	// StopLine is a plain line step.
	StopLine StopKind = iota
	// StopCall is the first line of a newly entered function.
	StopCall
	// StopReturn is the first line executed after the starting frame returned.
	StopReturn
	// StopException is an uncaught error.
	StopException
	// StopBreakpoint is a stop at a breakpoint location. Runtimes report it
	// as a candidate; the engine confirms or suppresses it.
	StopBreakpoint
	// StopInterrupt is a stop requested by Interrupt.
	StopInterrupt
	// StopTerminated means the program (or a nested evaluation) has finished.
	StopTerminated
)

// String returns a string representation of the kind.
func (k StopKind) String() string {
	switch k {
	case StopLine:
		return "line"
	case StopCall:
		return "call"
	case StopReturn:
		return "return"
	case StopException:
		return "exception"
	case StopBreakpoint:
		return "breakpoint"
	case StopInterrupt:
		return "interrupt"
	case StopTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// FrameInfo describes one entry of the paused call chain.
type FrameInfo struct {
	// File is the source path of the frame.
	File string
	// Line is the 1-based current line, 0 when unknown.
	Line int
	// Function is the function name.
	Function string
	// Hidden marks frames the user normally does not want to see, such as
	// builtins or runtime internals.
	Hidden bool
}

// String formats the frame as "file:line function".
func (f FrameInfo) String() string {
	if f.Function == "" {
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return fmt.Sprintf("%s:%d %s()", f.File, f.Line, f.Function)
}

// StopEvent is a notification that execution has paused.
type StopEvent struct {
	Kind StopKind

	// Frame is the innermost frame at the time of the stop.
	Frame FrameInfo

	// Err describes the error for StopException.
	Err string

	// ExitCode is set for StopTerminated when the runtime knows it.
	ExitCode int

	// Nested marks a StopTerminated that ends a nested evaluation rather
	// than the program.
	Nested bool
}

// Terminal reports whether the event ends the current session level.
func (e StopEvent) Terminal() bool {
	return e.Kind == StopTerminated
}

// DirectiveKind is the instruction given to the runtime on resume.
type DirectiveKind int

const (
	// StepInto stops at the next line, entering calls.
	StepInto DirectiveKind = iota
	// StepOver stops at the next line in the current frame or a caller.
	StepOver
	// StepOut runs until the current frame returns.
	StepOut
	// Continue runs until a breakpoint, an exception or termination.
	Continue
	// ContinueUntil runs until a target line is reached.
	ContinueUntil
	// RunUntilReturn runs until the current function is about to return to
	// its caller.
	RunUntilReturn
)

// String returns a string representation of the directive kind.
func (k DirectiveKind) String() string {
	switch k {
	case StepInto:
		return "step"
	case StepOver:
		return "next"
	case StepOut:
		return "step-out"
	case Continue:
		return "continue"
	case ContinueUntil:
		return "until"
	case RunUntilReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Directive tells the runtime how to resume.
type Directive struct {
	Kind DirectiveKind

	// File and Line are the target of ContinueUntil.
	File string
	Line int

	// Exact makes ContinueUntil behave like a temporary breakpoint: it stops
	// at File:Line at any depth. Otherwise it stops at the first line >= Line
	// in the starting frame, or when that frame returns.
	Exact bool

	// Reissue continues the previous directive from where it was anchored
	// instead of anchoring a new one at the current position. The engine
	// uses it after suppressing a breakpoint stop.
	Reissue bool
}

// String formats the directive for logs and messages.
func (d Directive) String() string {
	if d.Kind == ContinueUntil {
		return fmt.Sprintf("until %s:%d", d.File, d.Line)
	}
	return d.Kind.String()
}

// Variable is a named value in a frame's namespace.
type Variable struct {
	Name  string
	Type  string
	Value string
	// Param marks function parameters.
	Param bool
}
