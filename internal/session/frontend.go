package session

import (
	"io"

	"github.com/dshills/perch/internal/sticky"
)

// Frontend is the terminal a session talks to.
type Frontend interface {
	io.Writer

	// ReadLine reads one line. io.EOF ends the session level and
	// terminal.ErrInterrupted discards the line.
	ReadLine(prompt string) (string, error)
	// Warn shows a single-line diagnostic.
	Warn(msg string)
	// Size returns the terminal dimensions. A zero height means unknown.
	Size() (width, height int)
	// Draw applies a sticky view diff.
	Draw(d sticky.Diff) error
	// Leave drops the sticky view; the next Draw is full.
	Leave()
	// Suspend runs fn with the terminal released, for external programs.
	Suspend(fn func() error) error
}
