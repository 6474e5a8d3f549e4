package frames

import (
	"github.com/dshills/perch/internal/trace"
)

// Frame is a generation-tagged handle to one entry of a Stack.
type Frame struct {
	stack *Stack
	gen   uint64
	index int
}

// Index returns the frame's position, 0 being the innermost frame.
func (f Frame) Index() (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.index, nil
}

// Info returns the frame's location.
func (f Frame) Info() (trace.FrameInfo, error) {
	if err := f.check(); err != nil {
		return trace.FrameInfo{}, err
	}
	return f.stack.frames[f.index], nil
}

// Valid reports whether the handle still refers to the live stack.
func (f Frame) Valid() bool {
	return f.check() == nil
}

// Generation returns the generation the handle was taken from.
func (f Frame) Generation() uint64 {
	return f.gen
}

func (f Frame) check() error {
	if f.stack == nil || f.gen != f.stack.gen || f.index >= len(f.stack.frames) {
		return ErrStaleFrame
	}
	return nil
}

// Stack is the call chain of the current pause.
type Stack struct {
	gen        uint64
	frames     []trace.FrameInfo
	current    int
	showHidden bool
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Rebuild replaces the chain with frames (innermost first), starts a new
// generation and selects the innermost frame.
func (s *Stack) Rebuild(frames []trace.FrameInfo) {
	s.gen++
	s.frames = append(s.frames[:0:0], frames...)
	s.current = 0
}

// Invalidate drops the chain. Called when the program resumes.
func (s *Stack) Invalidate() {
	s.gen++
	s.frames = nil
	s.current = 0
}

// Generation returns the current generation.
func (s *Stack) Generation() uint64 {
	return s.gen
}

// Depth returns the number of frames, hidden ones included.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// SetShowHidden controls whether relative navigation visits hidden frames.
func (s *Stack) SetShowHidden(show bool) {
	s.showHidden = show
}

// ShowHidden reports whether hidden frames are visited.
func (s *Stack) ShowHidden() bool {
	return s.showHidden
}

// Current returns the selected frame.
func (s *Stack) Current() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrNoFrames
	}
	return s.handle(s.current), nil
}

// At returns a handle to the frame at index.
func (s *Stack) At(index int) (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrNoFrames
	}
	if index < 0 || index >= len(s.frames) {
		return Frame{}, &BoundaryError{Boundary: OutOfRange}
	}
	return s.handle(index), nil
}

// All returns handles to every frame, innermost first.
func (s *Stack) All() []Frame {
	out := make([]Frame, len(s.frames))
	for i := range s.frames {
		out[i] = s.handle(i)
	}
	return out
}

// Visible returns handles to the frames navigation can land on, innermost
// first.
func (s *Stack) Visible() []Frame {
	idx := s.visible()
	out := make([]Frame, len(idx))
	for i, n := range idx {
		out[i] = s.handle(n)
	}
	return out
}

// HiddenCount returns the number of hidden frames.
func (s *Stack) HiddenCount() int {
	n := 0
	for i, f := range s.frames {
		if f.Hidden && i != 0 {
			n++
		}
	}
	return n
}

// Move shifts the selection by delta visible frames; positive deltas move
// toward callers. The move is clamped to the ends of the stack. When no move
// is possible at all the selection is unchanged and a *BoundaryError is
// returned.
func (s *Stack) Move(delta int) (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrNoFrames
	}
	if delta == 0 {
		return s.handle(s.current), nil
	}

	visible := s.visible()
	pos := 0
	for i, idx := range visible {
		if idx <= s.current {
			pos = i
		}
	}

	target := pos + delta
	if target < 0 {
		target = 0
	}
	if target > len(visible)-1 {
		target = len(visible) - 1
	}
	if visible[target] == s.current {
		if delta > 0 {
			return s.handle(s.current), &BoundaryError{Boundary: Oldest}
		}
		return s.handle(s.current), &BoundaryError{Boundary: Newest}
	}

	s.current = visible[target]
	return s.handle(s.current), nil
}

// Select makes the frame at index current. Negative indices count from the
// outermost frame, so -1 is the oldest frame.
func (s *Stack) Select(index int) (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrNoFrames
	}
	if index < 0 {
		index += len(s.frames)
	}
	if index < 0 || index >= len(s.frames) {
		return s.handle(s.current), &BoundaryError{Boundary: OutOfRange}
	}
	s.current = index
	return s.handle(index), nil
}

// Top selects the oldest visible frame.
func (s *Stack) Top() (Frame, error) {
	return s.Move(len(s.frames))
}

// Bottom selects the newest frame.
func (s *Stack) Bottom() (Frame, error) {
	return s.Move(-len(s.frames))
}

// visible lists the indices navigation may land on. The innermost frame is
// always visible, as is the current selection.
func (s *Stack) visible() []int {
	out := make([]int, 0, len(s.frames))
	for i, f := range s.frames {
		if i == 0 || i == s.current || s.showHidden || !f.Hidden {
			out = append(out, i)
		}
	}
	return out
}

func (s *Stack) handle(index int) Frame {
	return Frame{stack: s, gen: s.gen, index: index}
}
