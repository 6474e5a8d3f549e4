package terminal

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/perch/internal/sticky"
)

// maxLog bounds the scrollback kept for the output area.
const maxLog = 2000

// Screen is a full-screen frontend on tcell. The sticky view occupies the
// top rows, command output scrolls beneath it and the prompt is on the last
// row.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen

	palette  Palette
	complete Completer

	view    view
	log     []string
	partial string
	history []string
}

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithScreenPalette sets the output styles.
func WithScreenPalette(p Palette) ScreenOption {
	return func(s *Screen) {
		s.palette = p
	}
}

// WithScreenCompleter sets the tab completion source.
func WithScreenCompleter(fn Completer) ScreenOption {
	return func(s *Screen) {
		s.complete = fn
	}
}

// NewScreen opens the controlling terminal.
func NewScreen(opts ...ScreenOption) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewScreenOn(screen, opts...)
}

// NewScreenOn initializes s and takes it over. Tests pass a simulation
// screen.
func NewScreenOn(screen tcell.Screen, opts ...ScreenOption) (*Screen, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnablePaste()
	s := &Screen{screen: screen, palette: DefaultPalette(true)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

// SetCompleter replaces the tab completion source.
func (s *Screen) SetCompleter(fn Completer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = fn
}

// SetHistory seeds the recall list, oldest entry first.
func (s *Screen) SetHistory(entries []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history[:0], entries...)
}

// Size returns the rows available to the session. The prompt row is not
// counted.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.screen.Size()
	return w, max(h-1, 0)
}

// Write appends output to the scrollback.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial += string(p)
	for {
		i := strings.IndexByte(s.partial, '\n')
		if i < 0 {
			break
		}
		s.appendLog(s.partial[:i])
		s.partial = s.partial[i+1:]
	}
	s.paintOutput()
	s.screen.Show()
	return len(p), nil
}

// Warn writes an error message.
func (s *Screen) Warn(msg string) {
	_, _ = s.Write([]byte("*** " + s.palette.paint(s.palette.Error, msg) + "\n"))
}

func (s *Screen) appendLog(line string) {
	s.log = append(s.log, strings.ReplaceAll(line, "\t", "    "))
	if len(s.log) > maxLog {
		s.log = append(s.log[:0], s.log[len(s.log)-maxLog:]...)
	}
}

// Draw applies a sticky diff, painting only the rows it changes unless it
// is full.
func (s *Screen) Draw(d sticky.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.view.rows)
	changed, full := s.view.apply(d, s.palette)
	if full {
		if len(s.view.rows) != before {
			s.paintOutput()
		}
		for y := range s.view.rows {
			s.paintRow(y, s.view.rows[y])
		}
	} else {
		for _, y := range changed {
			s.paintRow(y, s.view.rows[y])
		}
	}
	s.screen.Show()
	return nil
}

// Leave removes the sticky view and gives its rows back to the output.
func (s *Screen) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.reset()
	s.paintOutput()
	s.screen.Show()
}

// Suspend hands the terminal to fn and repaints afterwards.
func (s *Screen) Suspend(fn func() error) error {
	s.mu.Lock()
	if err := s.screen.Suspend(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	ferr := fn()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.screen.Resume(); err != nil {
		return err
	}
	s.view.reset()
	s.screen.Clear()
	s.paintOutput()
	s.screen.Show()
	return ferr
}

// ReadLine edits a line on the prompt row. Ctrl-C discards the line and
// returns ErrInterrupted; Ctrl-D on an empty line returns io.EOF.
func (s *Screen) ReadLine(prompt string) (string, error) {
	s.mu.Lock()
	ed := &lineEditor{hist: append([]string(nil), s.history...)}
	ed.hidx = len(ed.hist)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		s.paintPrompt(prompt, ed)
		s.screen.Show()
		s.mu.Unlock()

		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return "", io.EOF
		case *tcell.EventResize:
			s.mu.Lock()
			s.screen.Sync()
			s.repaint()
			s.mu.Unlock()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEnter:
				line := string(ed.buf)
				s.finishLine(prompt + line)
				if strings.TrimSpace(line) != "" {
					s.mu.Lock()
					s.history = append(s.history, line)
					s.mu.Unlock()
				}
				return line, nil
			case tcell.KeyCtrlC:
				s.finishLine(prompt + string(ed.buf) + "^C")
				return "", ErrInterrupted
			case tcell.KeyCtrlD:
				if len(ed.buf) == 0 {
					s.finishLine(prompt)
					return "", io.EOF
				}
				ed.deleteForward()
			case tcell.KeyTab:
				s.mu.Lock()
				fn := s.complete
				s.mu.Unlock()
				ed.completeWith(fn)
			default:
				ed.handle(ev)
			}
		}
	}
}

func (s *Screen) finishLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLog(text)
	s.paintOutput()
	s.screen.Show()
}

func (s *Screen) repaint() {
	s.screen.Clear()
	for y := range s.view.rows {
		s.paintRow(y, s.view.rows[y])
	}
	s.paintOutput()
}

func (s *Screen) clearRow(y int) {
	w, _ := s.screen.Size()
	for x := 0; x < w; x++ {
		s.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

func (s *Screen) paintRow(y int, text string) {
	w, h := s.screen.Size()
	if y >= h-1 {
		return
	}
	s.clearRow(y)
	s.drawText(0, y, text, w)
}

// paintOutput fills the rows between the sticky view and the prompt with
// the tail of the scrollback.
func (s *Screen) paintOutput() {
	w, h := s.screen.Size()
	top := len(s.view.rows)
	n := h - 1 - top
	if n <= 0 {
		return
	}
	lines := s.log
	if s.partial != "" {
		lines = append(lines[:len(lines):len(lines)], s.partial)
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for y := top; y < h-1; y++ {
		s.clearRow(y)
	}
	for i, l := range lines {
		s.drawText(0, top+i, l, w)
	}
}

func (s *Screen) paintPrompt(prompt string, ed *lineEditor) {
	w, h := s.screen.Size()
	if h == 0 {
		return
	}
	y := h - 1
	s.clearRow(y)
	x := s.drawText(0, y, prompt, w)
	s.drawText(x, y, string(ed.buf), w)
	s.screen.ShowCursor(x+uniseg.StringWidth(string(ed.buf[:ed.pos])), y)
}

// drawText paints text from column x, interpreting SGR colour sequences,
// and returns the column after the last cell written.
func (s *Screen) drawText(x, y int, text string, width int) int {
	style := tcell.StyleDefault
	state := -1
	for text != "" && x < width {
		if text[0] == 0x1b {
			params, final, rest, ok := cutCSI(text)
			if !ok {
				text = text[1:]
				continue
			}
			if final == 'm' {
				style = applySGR(style, params)
			}
			text = rest
			state = -1
			continue
		}
		var cluster string
		var w int
		cluster, text, w, state = uniseg.FirstGraphemeClusterInString(text, state)
		if w == 0 {
			continue
		}
		if x+w > width {
			break
		}
		runes := []rune(cluster)
		s.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}

// lineEditor holds the state of the prompt being edited.
type lineEditor struct {
	buf  []rune
	pos  int
	hist []string
	hidx int
}

func (ed *lineEditor) insert(r rune) {
	ed.buf = append(ed.buf, 0)
	copy(ed.buf[ed.pos+1:], ed.buf[ed.pos:])
	ed.buf[ed.pos] = r
	ed.pos++
}

func (ed *lineEditor) deleteBack() {
	if ed.pos == 0 {
		return
	}
	ed.buf = append(ed.buf[:ed.pos-1], ed.buf[ed.pos:]...)
	ed.pos--
}

func (ed *lineEditor) deleteForward() {
	if ed.pos >= len(ed.buf) {
		return
	}
	ed.buf = append(ed.buf[:ed.pos], ed.buf[ed.pos+1:]...)
}

func (ed *lineEditor) set(text string) {
	ed.buf = []rune(text)
	ed.pos = len(ed.buf)
}

func (ed *lineEditor) recall(delta int) {
	i := ed.hidx + delta
	if i < 0 || i > len(ed.hist) {
		return
	}
	ed.hidx = i
	if i == len(ed.hist) {
		ed.set("")
		return
	}
	ed.set(ed.hist[i])
}

func (ed *lineEditor) completeWith(fn Completer) {
	line := string(ed.buf)
	bytePos := len(string(ed.buf[:ed.pos]))
	next, pos, ok := completeLine(line, bytePos, fn)
	if !ok {
		return
	}
	ed.buf = []rune(next)
	ed.pos = utf8.RuneCountInString(next[:pos])
}

func (ed *lineEditor) handle(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		ed.insert(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.deleteBack()
	case tcell.KeyDelete:
		ed.deleteForward()
	case tcell.KeyLeft:
		if ed.pos > 0 {
			ed.pos--
		}
	case tcell.KeyRight:
		if ed.pos < len(ed.buf) {
			ed.pos++
		}
	case tcell.KeyHome, tcell.KeyCtrlA:
		ed.pos = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		ed.pos = len(ed.buf)
	case tcell.KeyCtrlU:
		ed.buf = append(ed.buf[:0], ed.buf[ed.pos:]...)
		ed.pos = 0
	case tcell.KeyCtrlK:
		ed.buf = ed.buf[:ed.pos]
	case tcell.KeyUp, tcell.KeyCtrlP:
		ed.recall(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		ed.recall(1)
	}
}
