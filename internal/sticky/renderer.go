package sticky

import (
	"fmt"

	"github.com/dshills/perch/internal/trace"
)

// Source supplies file text.
type Source interface {
	LineCount(path string) (int, error)
	Lines(path string, first, last int) ([]string, error)
}

// Highlighter colours source lines. It receives every line from the top of
// the file to the end of the window so multi-line constructs are tracked.
type Highlighter interface {
	Highlight(path string, lines []string) []string
}

// BreakpointLines reports the lines of a file that carry enabled
// breakpoints.
type BreakpointLines func(file string) []int

// Diff is the result of one render.
type Diff struct {
	// Full means the consumer must clear and repaint everything.
	Full bool
	// Header is the location line shown above the source.
	Header string
	// HeaderChanged is set when Header differs from the previous render.
	HeaderChanged bool
	// Window is the visible window.
	Window Window
	// Lines holds every row for a full repaint, or only changed rows
	// otherwise, in screen order.
	Lines []Line
	// NumWidth is the column width for line numbers.
	NumWidth int
}

// Empty reports whether nothing needs redrawing.
func (d Diff) Empty() bool {
	return !d.Full && !d.HeaderChanged && len(d.Lines) == 0
}

// Row returns the screen row (0-based, relative to the first source row) of
// source line n, or -1 when n is not visible.
func (d Diff) Row(n int) int {
	if n < d.Window.First || n > d.Window.Last {
		return -1
	}
	row := n - d.Window.First
	if d.Window.Head {
		row++
	}
	return row
}

// Renderer produces sticky views.
type Renderer struct {
	src         Source
	highlighter Highlighter
	breakpoints BreakpointLines

	margin   int
	width    int
	height   int
	truncate bool

	fixedFirst int
	fixedLast  int

	memo *RenderFrame
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMargin sets the number of context lines above and below the current
// line when a window is centred.
func WithMargin(n int) Option {
	return func(r *Renderer) {
		r.margin = n
	}
}

// WithHighlighter sets the syntax highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) {
		r.highlighter = h
	}
}

// WithBreakpoints sets the breakpoint marker source.
func WithBreakpoints(fn BreakpointLines) Option {
	return func(r *Renderer) {
		r.breakpoints = fn
	}
}

// WithTruncate enables truncation of lines wider than the terminal.
func WithTruncate(on bool) Option {
	return func(r *Renderer) {
		r.truncate = on
	}
}

// NewRenderer creates a renderer reading from src.
func NewRenderer(src Source, opts ...Option) *Renderer {
	r := &Renderer{
		src:    src,
		margin: 10,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resize sets the terminal size available to source rows. A zero height
// disables cutoff. Any change invalidates the memo.
func (r *Renderer) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width = width
	r.height = height
	r.memo = nil
}

// SetMargin changes the context margin.
func (r *Renderer) SetMargin(n int) {
	if n < 0 {
		n = 0
	}
	r.margin = n
	r.memo = nil
}

// SetTruncate changes long-line truncation.
func (r *Renderer) SetTruncate(on bool) {
	r.truncate = on
	r.memo = nil
}

// SetRange pins the window to first..last. Zero values unpin it.
func (r *Renderer) SetRange(first, last int) {
	r.fixedFirst, r.fixedLast = first, last
	r.memo = nil
}

// Invalidate forgets the last painted screen.
func (r *Renderer) Invalidate() {
	r.memo = nil
}

// Memo returns the last painted screen, nil if none.
func (r *Renderer) Memo() *RenderFrame {
	return r.memo
}

// Render computes the view for frame.
func (r *Renderer) Render(frame trace.FrameInfo, forceFull bool) (Diff, error) {
	count, err := r.src.LineCount(frame.File)
	if err != nil {
		return Diff{}, err
	}
	if count == 0 {
		return Diff{}, fmt.Errorf("%s is empty", frame.File)
	}

	line := frame.Line
	if line < 1 {
		line = 1
	}
	if line > count {
		line = count
	}

	base := r.baseWindow(frame.File, line, count, forceFull)
	window := r.cut(base, line)
	header := fmt.Sprintf("> %s(%d)%s()", frame.File, frame.Line, frame.Function)

	full := forceFull || r.memo == nil || r.memo.window != window
	diff := Diff{
		Full:     full,
		Header:   header,
		Window:   window,
		NumWidth: digits(count),
	}
	if full || r.memo.header != header {
		diff.HeaderChanged = true
	}

	rows, err := r.rows(window, line, diff.NumWidth)
	if err != nil {
		return Diff{}, err
	}

	if full {
		r.memo = newRenderFrame(base, window, header)
	}
	r.memo.header = header

	for _, row := range rows {
		if row.Cutoff {
			if full {
				diff.Lines = append(diff.Lines, row)
			}
			continue
		}
		fp := fingerprint(row)
		if !full && r.memo.lines[row.Number] == fp {
			continue
		}
		r.memo.lines[row.Number] = fp
		diff.Lines = append(diff.Lines, row)
	}
	return diff, nil
}

// baseWindow returns the window before cutoff, reusing the painted one when
// the current line is still inside it.
func (r *Renderer) baseWindow(file string, line, count int, force bool) Window {
	if r.fixedFirst > 0 {
		first, last := r.fixedFirst, r.fixedLast
		if last < first {
			last = first + 2*r.margin
		}
		return clip(Window{File: file, First: first, Last: last}, count)
	}

	if !force && r.memo != nil && r.memo.base.File == file &&
		line >= r.memo.base.First && line <= r.memo.base.Last {
		return r.memo.base
	}

	first := line - r.margin
	last := line + r.margin
	if first < 1 {
		last += 1 - first
		first = 1
	}
	if last > count {
		first -= last - count
		last = count
	}
	return clip(Window{File: file, First: first, Last: last}, count)
}

// cut fits base into the available height, keeping line visible and
// replacing what does not fit with "..." rows.
func (r *Renderer) cut(base Window, line int) Window {
	n := base.Last - base.First + 1
	if r.height <= 0 || n <= r.height {
		return base
	}
	if line < base.First || line > base.Last {
		line = base.First
	}
	if r.height < 3 {
		return Window{File: base.File, First: line, Last: line}
	}

	span := r.height - 2
	a := line - span/2
	if a < base.First {
		a = base.First
	}
	b := a + span - 1
	if b > base.Last {
		b = base.Last
		a = b - span + 1
	}
	w := Window{File: base.File, First: a, Last: b, Head: a > base.First, Tail: b < base.Last}

	// Give the row of an absent cutoff marker back to the source.
	if !w.Head && w.Last < base.Last {
		w.Last++
		w.Tail = w.Last < base.Last
	}
	if !w.Tail && w.First > base.First {
		w.First--
		w.Head = w.First > base.First
	}
	return w
}

func (r *Renderer) rows(w Window, current, numWidth int) ([]Line, error) {
	texts, err := r.src.Lines(w.File, w.First, w.Last)
	if err != nil {
		return nil, err
	}
	// The lexer sees whole lines; cutting happens on the coloured result.
	if r.highlighter != nil {
		texts = r.highlight(w, texts)
	}
	if r.truncate && r.width > 0 {
		for i := range texts {
			texts[i] = truncate(texts[i], r.width-gutterWidth(numWidth))
		}
	}

	marks := make(map[int]bool)
	if r.breakpoints != nil {
		for _, l := range r.breakpoints(w.File) {
			marks[l] = true
		}
	}

	rows := make([]Line, 0, w.Rows())
	if w.Head {
		rows = append(rows, Line{Cutoff: true})
	}
	for i, text := range texts {
		n := w.First + i
		rows = append(rows, Line{
			Number:     n,
			Text:       text,
			Current:    n == current,
			Breakpoint: marks[n],
		})
	}
	if w.Tail {
		rows = append(rows, Line{Cutoff: true})
	}
	return rows, nil
}

func (r *Renderer) highlight(w Window, texts []string) []string {
	prefix, err := r.src.Lines(w.File, 1, w.First-1)
	if err != nil {
		prefix = nil
	}
	all := append(prefix, texts...)
	out := r.highlighter.Highlight(w.File, all)
	if len(out) != len(all) {
		return texts
	}
	return out[len(prefix):]
}

func clip(w Window, count int) Window {
	if w.First < 1 {
		w.First = 1
	}
	if w.Last > count {
		w.Last = count
	}
	if w.First > w.Last {
		w.First = w.Last
	}
	return w
}
