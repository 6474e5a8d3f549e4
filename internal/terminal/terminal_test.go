package terminal

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/sticky"
)

func sampleDiff() sticky.Diff {
	return sticky.Diff{
		Full:     true,
		Header:   "> a.star(2)f()",
		NumWidth: 3,
		Window:   sticky.Window{File: "a.star", First: 1, Last: 3},
		Lines: []sticky.Line{
			{Number: 1, Text: "def f():"},
			{Number: 2, Text: "    x = 1", Current: true},
			{Number: 3, Text: "    return x", Breakpoint: true},
		},
	}
}

func TestFormatRowPlain(t *testing.T) {
	p := DefaultPalette(false)
	l := sticky.Line{Number: 7, Text: "x = 1", Current: true}
	assert.Equal(t, l.Format(3), FormatRow(l, 3, p))
	assert.Equal(t, "  7 -> x = 1", FormatRow(l, 3, p))
}

func TestFormatRowColoured(t *testing.T) {
	p := DefaultPalette(true)
	row := FormatRow(sticky.Line{Number: 2, Text: "y", Breakpoint: true}, 2, p)
	assert.Contains(t, row, "\x1b[")
	assert.True(t, strings.HasSuffix(row, " y"))
}

func TestCompleteLine(t *testing.T) {
	words := func(head, word string) []string {
		if head == "" {
			return []string{"break", "bottom", "tbreak"}
		}
		return []string{"value", "variable"}
	}

	line, pos, ok := completeLine("bre", 3, words)
	require.True(t, ok)
	assert.Equal(t, "break", line)
	assert.Equal(t, 5, pos)

	line, pos, ok = completeLine("b", 1, words)
	require.True(t, ok, "ambiguous with no common extension")
	assert.Equal(t, "b", line)
	assert.Equal(t, 1, pos)

	_, _, ok = completeLine("zz", 2, words)
	assert.False(t, ok, "no candidate")

	line, pos, ok = completeLine("p va + 1", 4, words)
	require.True(t, ok)
	assert.Equal(t, "p va + 1", line)
	assert.Equal(t, 4, pos)

	line, pos, ok = completeLine("p valu", 6, words)
	require.True(t, ok)
	assert.Equal(t, "p value", line)
	assert.Equal(t, 7, pos)
}

func TestInterruptReader(t *testing.T) {
	ir := &interruptReader{r: strings.NewReader("ab\x03")}
	_, err := io.ReadAll(ir)
	require.NoError(t, err)
	assert.True(t, ir.take())
	assert.False(t, ir.take())
}

func TestConsolePiped(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("p x\n\x03\n"), &out)

	line, err := c.ReadLine("(perch) ")
	require.NoError(t, err)
	assert.Equal(t, "p x", line)

	_, err = c.ReadLine("(perch) ")
	assert.ErrorIs(t, err, ErrInterrupted)

	_, err = c.ReadLine("(perch) ")
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, c.Draw(sampleDiff()))
	c.Warn("boom")
	assert.Contains(t, out.String(), "(perch) ")
	assert.Contains(t, out.String(), "> a.star(2)f()\n  1    def f():\n  2 ->     x = 1\n  3 B      return x\n")
	assert.Contains(t, out.String(), "*** boom\n")

	w, h := c.Size()
	assert.Equal(t, 80, w)
	assert.Zero(t, h)
}

func TestApplySGR(t *testing.T) {
	st := applySGR(tcell.StyleDefault, "1;31")
	fg, _, attrs := st.Decompose()
	assert.Equal(t, tcell.PaletteColor(1), fg)
	assert.NotZero(t, attrs&tcell.AttrBold)

	st = applySGR(st, "38;5;200")
	fg, _, _ = st.Decompose()
	assert.Equal(t, tcell.PaletteColor(200), fg)

	st = applySGR(st, "0")
	assert.Equal(t, tcell.StyleDefault, st)

	params, final, rest, ok := cutCSI("\x1b[32mok")
	require.True(t, ok)
	assert.Equal(t, "32", params)
	assert.Equal(t, byte('m'), final)
	assert.Equal(t, "ok", rest)
}

func newSimScreen(t *testing.T, w, h int) (tcell.SimulationScreen, *Screen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := NewScreenOn(sim, WithScreenPalette(DefaultPalette(false)))
	require.NoError(t, err)
	sim.SetSize(w, h)
	t.Cleanup(s.Close)
	return sim, s
}

func rowText(sim tcell.SimulationScreen, y int) string {
	cells, w, _ := sim.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(string(c.Runes))
	}
	return strings.TrimRight(sb.String(), " ")
}

func TestScreenDraw(t *testing.T) {
	sim, s := newSimScreen(t, 40, 10)

	require.NoError(t, s.Draw(sampleDiff()))
	assert.Equal(t, "> a.star(2)f()", rowText(sim, 0))
	assert.Equal(t, "  2 ->     x = 1", rowText(sim, 2))

	d := sticky.Diff{
		Header:   "> a.star(3)f()",
		NumWidth: 3,
		Window:   sticky.Window{File: "a.star", First: 1, Last: 3},
		Lines: []sticky.Line{
			{Number: 2, Text: "    x = 1"},
			{Number: 3, Text: "    return x", Current: true},
		},
		HeaderChanged: true,
	}
	require.NoError(t, s.Draw(d))
	assert.Equal(t, "> a.star(3)f()", rowText(sim, 0))
	assert.Equal(t, "  1    def f():", rowText(sim, 1))
	assert.Equal(t, "  2        x = 1", rowText(sim, 2))
	assert.Equal(t, "  3 ->     return x", rowText(sim, 3))

	_, err := s.Write([]byte("hello\nwor"))
	require.NoError(t, err)
	assert.Equal(t, "hello", rowText(sim, 4))
	assert.Equal(t, "wor", rowText(sim, 5))

	w, h := s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 9, h)
}

func TestScreenReadLine(t *testing.T) {
	sim, s := newSimScreen(t, 40, 6)
	s.SetHistory([]string{"p old"})
	s.SetCompleter(func(head, word string) []string {
		return []string{"longlist"}
	})

	for _, r := range "p y" {
		sim.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	sim.InjectKey(tcell.KeyBackspace2, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	line, err := s.ReadLine("(perch) ")
	require.NoError(t, err)
	assert.Equal(t, "p x", line)
	assert.Equal(t, "(perch) p x", rowText(sim, 0))

	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	line, err = s.ReadLine("(perch) ")
	require.NoError(t, err)
	assert.Equal(t, "p old", line)

	sim.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	sim.InjectKey(tcell.KeyTab, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	line, err = s.ReadLine("(perch) ")
	require.NoError(t, err)
	assert.Equal(t, "longlist", line)

	sim.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
	sim.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	_, err = s.ReadLine("(perch) ")
	assert.ErrorIs(t, err, ErrInterrupted)

	sim.InjectKey(tcell.KeyCtrlD, 0, tcell.ModCtrl)
	_, err = s.ReadLine("(perch) ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuffer(t *testing.T) {
	b := NewBuffer("n", "^C")
	line, err := b.ReadLine("(perch) ")
	require.NoError(t, err)
	assert.Equal(t, "n", line)
	_, err = b.ReadLine("(perch) ")
	assert.ErrorIs(t, err, ErrInterrupted)
	_, err = b.ReadLine("((perch)) ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"(perch) ", "(perch) ", "((perch)) "}, b.Prompts())

	require.NoError(t, b.Draw(sampleDiff()))
	assert.Len(t, b.Draws(), 1)
	b.Warn("x")
	assert.Equal(t, "*** x\n", b.Output())
}
