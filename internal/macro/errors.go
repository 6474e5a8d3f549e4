package macro

import "errors"

var (
	// ErrClosed is returned when using a closed Set.
	ErrClosed = errors.New("macro set is closed")

	// ErrUnknown is returned when expanding a name that is not a macro.
	ErrUnknown = errors.New("unknown macro")

	// ErrTimeout is returned when a macro runs longer than its limit.
	ErrTimeout = errors.New("macro execution timeout")
)
