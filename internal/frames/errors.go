package frames

import "errors"

var (
	// ErrStaleFrame is returned when a handle from an earlier stop is used.
	ErrStaleFrame = errors.New("stale frame: program has resumed since this frame was taken")

	// ErrNoFrames is returned when the stack is empty (program running or
	// finished).
	ErrNoFrames = errors.New("no frames: program is not paused")
)

// Boundary identifies which end of the stack was hit.
type Boundary int

const (
	// Oldest is the outermost frame.
	Oldest Boundary = iota
	// Newest is the innermost frame.
	Newest
	// OutOfRange is an absolute index outside the stack.
	OutOfRange
)

// BoundaryError reports navigation past the end of the stack. It is a
// condition rather than a failure: the selected frame is left unchanged.
type BoundaryError struct {
	Boundary Boundary
}

func (e *BoundaryError) Error() string {
	switch e.Boundary {
	case Oldest:
		return "Oldest frame"
	case Newest:
		return "Newest frame"
	default:
		return "Out of range"
	}
}

// IsBoundary reports whether err is a BoundaryError.
func IsBoundary(err error) bool {
	var be *BoundaryError
	return errors.As(err, &be)
}
