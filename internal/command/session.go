package command

import (
	"context"

	"github.com/dshills/perch/internal/control"
	"github.com/dshills/perch/internal/frames"
	"github.com/dshills/perch/internal/source"
	"github.com/dshills/perch/internal/trace"
)

// Session is the view of one paused session level that handlers work on.
type Session interface {
	Context() context.Context
	Controller() *control.Controller
	Stack() *frames.Stack
	Source() *source.Cache
	Displays() *Displays
	Listing() *Listing

	// Printf writes to the user. Handlers terminate their own lines.
	Printf(format string, args ...any)
	// Warn reports a diagnostic on a single line.
	Warn(err error)

	// ShowFrame presents the selected frame after navigation, either by
	// refreshing the sticky view or by printing its location.
	ShowFrame()

	Sticky() bool
	SetSticky(on bool)
	// SetStickyRange pins the sticky view to first..last. Zero values
	// return to following the current line.
	SetStickyRange(first, last int)

	// Edit opens file at line in the configured editor.
	Edit(file string, line int) error
}

// selected returns the selected frame and its index in the runtime's chain.
func selected(s Session) (trace.FrameInfo, int, error) {
	f, err := s.Stack().Current()
	if err != nil {
		return trace.FrameInfo{}, 0, err
	}
	info, err := f.Info()
	if err != nil {
		return trace.FrameInfo{}, 0, err
	}
	idx, err := f.Index()
	if err != nil {
		return trace.FrameInfo{}, 0, err
	}
	return info, idx, nil
}
