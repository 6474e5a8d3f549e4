package trace

import "errors"

var (
	// ErrDetached is returned once the runtime is no longer available, for
	// example because the traced process already exited.
	ErrDetached = errors.New("trace runtime detached")

	// ErrNotPaused is returned by inspection calls while the program runs.
	ErrNotPaused = errors.New("program is not paused")

	// ErrNoFrame is returned for a frame index outside the call chain.
	ErrNoFrame = errors.New("no such frame")

	// ErrEvalAbandoned is returned by Eval or Exec when a nested session quit
	// before the evaluation finished.
	ErrEvalAbandoned = errors.New("evaluation abandoned")
)

// EvalError is a failure of user code evaluated in a frame.
type EvalError struct {
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return e.Err.Error()
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
