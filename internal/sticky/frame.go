package sticky

import (
	"strconv"

	farm "github.com/dgryski/go-farm"
)

// Window is the visible slice of a file.
type Window struct {
	File string
	// First and Last bound the visible source lines, inclusive.
	First int
	Last  int
	// Head and Tail report cutoff rows above and below.
	Head bool
	Tail bool
}

// Rows returns the number of screen rows the window occupies.
func (w Window) Rows() int {
	n := w.Last - w.First + 1
	if n < 0 {
		n = 0
	}
	if w.Head {
		n++
	}
	if w.Tail {
		n++
	}
	return n
}

// RenderFrame is the memo of the last painted screen.
type RenderFrame struct {
	// base is the window before height cutoff; it stays fixed while the
	// current line remains inside it.
	base   Window
	window Window
	header string
	lines  map[int]uint64
}

func newRenderFrame(base, window Window, header string) *RenderFrame {
	return &RenderFrame{
		base:   base,
		window: window,
		header: header,
		lines:  make(map[int]uint64),
	}
}

// Window returns the painted window.
func (f *RenderFrame) Window() Window {
	return f.window
}

func fingerprint(l Line) uint64 {
	b := make([]byte, 0, len(l.Text)+16)
	b = strconv.AppendInt(b, int64(l.Number), 10)
	b = append(b, l.Marker()...)
	b = append(b, l.Text...)
	return farm.Fingerprint64(b)
}
