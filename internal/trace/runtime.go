package trace

import "context"

// Runtime is the execution-tracing runtime the engine drives.
//
// Runtime methods other than Interrupt are called from a single goroutine at
// a time. Frame indices are 0 for the innermost frame and are valid only
// until the next Resume.
type Runtime interface {
	// Start runs the program until its first stop.
	Start(ctx context.Context) (StopEvent, error)

	// Resume hands control back to the program and blocks until the next stop.
	Resume(ctx context.Context, d Directive) (StopEvent, error)

	// Frames returns the live call chain, innermost first.
	Frames(ctx context.Context) ([]FrameInfo, error)

	// Locals returns the local variables of the frame at index.
	Locals(ctx context.Context, frame int) ([]Variable, error)

	// Globals returns the global variables visible from the frame at index.
	Globals(ctx context.Context, frame int) ([]Variable, error)

	// Eval evaluates an expression in the namespace of the frame at index
	// and returns the printable representation of the result.
	Eval(ctx context.Context, expr string, frame int) (string, error)

	// EvalCondition evaluates a breakpoint condition in the frame at index
	// and reports its truth value.
	EvalCondition(ctx context.Context, expr string, frame int) (bool, error)

	// Exec executes a statement in the namespace of the frame at index.
	Exec(ctx context.Context, stmt string, frame int) error

	// SetBreakpoints replaces the set of breakpoint lines for file. Lines
	// are candidates: under Continue-like directives the runtime stops there
	// with StopBreakpoint and the engine decides whether the stop stands.
	SetBreakpoints(ctx context.Context, file string, lines []int) error

	// SetNestedHandler installs the handler for stops raised while Eval or
	// Exec runs program code.
	SetNestedHandler(h NestedHandler)

	// Interrupt asks a running program to stop at the next opportunity. It
	// may be called from any goroutine.
	Interrupt()

	// Detach ends tracing. The program is abandoned or killed, depending on
	// the runtime.
	Detach(ctx context.Context) error
}

// NestedHandler drives a nested session for a stop raised during Eval or
// Exec. It returns true when the nested session quit, which asks the runtime
// to abandon the evaluation.
type NestedHandler func(ctx context.Context, ev StopEvent) (abandon bool)

// Locator is implemented by runtimes that can find where a value was
// defined, such as the def statement of a function.
type Locator interface {
	Locate(ctx context.Context, expr string, frame int) (FrameInfo, error)
}
