package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/dshills/perch/internal/sticky"
)

type fder interface {
	Fd() uintptr
}

// Console is a line-oriented frontend. On a terminal it edits input in raw
// mode with golang.org/x/term; otherwise it reads plain lines.
type Console struct {
	mu sync.Mutex

	in      *interruptReader
	out     io.Writer
	fd      int
	tty     bool
	editor  *term.Terminal
	scanner *bufio.Scanner

	palette  Palette
	complete Completer

	view view
	// outRows counts lines written below the view since it was painted.
	outRows int
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPalette sets the output styles.
func WithPalette(p Palette) ConsoleOption {
	return func(c *Console) {
		c.palette = p
	}
}

// WithCompleter sets the tab completion source.
func WithCompleter(fn Completer) ConsoleOption {
	return func(c *Console) {
		c.complete = fn
	}
}

// NewConsole creates a console reading in and writing out. Raw mode and
// line editing are used only when in is a terminal.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		in:      &interruptReader{r: in},
		out:     out,
		fd:      -1,
		palette: DefaultPalette(false),
	}
	if f, ok := in.(fder); ok {
		c.fd = int(f.Fd())
		c.tty = term.IsTerminal(c.fd)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tty {
		c.editor = term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{c.in, out}, "")
		c.editor.AutoCompleteCallback = c.autoComplete
	} else {
		c.scanner = bufio.NewScanner(c.in)
	}
	return c
}

// SetCompleter replaces the tab completion source.
func (c *Console) SetCompleter(fn Completer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.complete = fn
}

// SetHistory seeds the line editor's history, oldest entry first.
func (c *Console) SetHistory(entries []string) {
	if c.editor == nil {
		return
	}
	for _, e := range entries {
		c.editor.History.Add(e)
	}
}

func (c *Console) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}
	c.mu.Lock()
	fn := c.complete
	c.mu.Unlock()
	return completeLine(line, pos, fn)
}

// ReadLine prompts for one line. It returns io.EOF on Ctrl-D or end of
// input and ErrInterrupted on Ctrl-C.
func (c *Console) ReadLine(prompt string) (string, error) {
	if !c.tty {
		c.write(prompt)
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		line := c.scanner.Text()
		if strings.IndexByte(line, 0x03) >= 0 {
			c.in.take()
			return "", ErrInterrupted
		}
		return line, nil
	}

	state, err := term.MakeRaw(c.fd)
	if err != nil {
		return "", fmt.Errorf("raw mode: %w", err)
	}
	defer func() { _ = term.Restore(c.fd, state) }()

	if w, h, err := term.GetSize(c.fd); err == nil {
		_ = c.editor.SetSize(w, h)
	}
	c.editor.SetPrompt(prompt)
	line, err := c.editor.ReadLine()

	c.mu.Lock()
	c.outRows++
	c.mu.Unlock()

	if errors.Is(err, io.EOF) && c.in.take() {
		return "", ErrInterrupted
	}
	return line, err
}

// Write prints command output below the sticky view.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outRows += strings.Count(string(p), "\n")
	return c.out.Write(p)
}

func (c *Console) write(s string) {
	_, _ = c.Write([]byte(s))
}

// Warn prints an error message.
func (c *Console) Warn(msg string) {
	c.write("*** " + c.palette.paint(c.palette.Error, msg) + "\n")
}

// Size returns the terminal size. Height is zero when output is not a
// terminal, which disables cutting the sticky view to fit.
func (c *Console) Size() (int, int) {
	if !c.tty {
		return 80, 0
	}
	w, h, err := term.GetSize(c.fd)
	if err != nil {
		return 80, 0
	}
	return w, h
}

// Draw applies a sticky diff. Partial diffs rewrite their rows in place
// unless output has scrolled the view away, in which case everything is
// repainted.
func (c *Console) Draw(d sticky.Diff) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed, full := c.view.apply(d, c.palette)
	if !c.tty {
		c.outRows = 0
		_, err := io.WriteString(c.out, strings.Join(c.view.rows, "\n")+"\n")
		return err
	}
	if full || c.scrolled() {
		return c.repaint()
	}

	var sb strings.Builder
	for _, row := range changed {
		fmt.Fprintf(&sb, "\x1b[%d;1H\x1b[2K%s", row+1, c.view.rows[row])
	}
	fmt.Fprintf(&sb, "\x1b[%d;1H\x1b[J", len(c.view.rows)+1)
	c.outRows = 0
	_, err := io.WriteString(c.out, sb.String())
	return err
}

func (c *Console) scrolled() bool {
	_, h, err := term.GetSize(c.fd)
	if err != nil {
		return true
	}
	return len(c.view.rows)+c.outRows >= h
}

func (c *Console) repaint() error {
	c.outRows = 0
	_, err := io.WriteString(c.out, "\x1b[H\x1b[2J"+strings.Join(c.view.rows, "\n")+"\n")
	return err
}

// Leave forgets the painted view; the next Draw must be full.
func (c *Console) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.reset()
}

// Suspend runs fn with the terminal in its normal state, for external
// editors.
func (c *Console) Suspend(fn func() error) error {
	err := fn()
	c.Leave()
	return err
}
