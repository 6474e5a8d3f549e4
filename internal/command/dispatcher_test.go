package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/frames"
	"github.com/dshills/perch/internal/trace"
	"github.com/dshills/perch/internal/trace/tracetest"
)

// advance dispatches line n times, applying each resume.
func advance(t *testing.T, d *Dispatcher, s *fakeSession, line string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		s.apply(d.Dispatch(s, line))
	}
	s.output()
}

func selectedIndex(t *testing.T, s *fakeSession) int {
	t.Helper()
	f, err := s.stack.Current()
	require.NoError(t, err)
	idx, err := f.Index()
	require.NoError(t, err)
	return idx
}

func TestUnknownCommandEvaluatesExpression(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "x")
	assert.Equal(t, OutcomeContinue, out.Kind)
	assert.True(t, out.Evaluated)
	assert.NoError(t, out.Err)
	assert.Equal(t, "1\n", s.output())

	out = d.Dispatch(s, "foo(1)")
	assert.Equal(t, OutcomeContinue, out.Kind)
	assert.True(t, out.Evaluated)
	require.Error(t, out.Err)
	assert.False(t, IsUserInput(out.Err))
	var evalErr *trace.EvalError
	assert.ErrorAs(t, out.Err, &evalErr)
	assert.Contains(t, s.output(), "*** ")
}

func TestCommandsAreNotEvaluated(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "p x")
	assert.False(t, out.Evaluated)
	assert.Equal(t, "1\n", s.output())
	assert.Equal(t, []string{"x"}, s.rt.Evaluated())
}

func TestEmptyLineRepeatsLastCommand(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "next")
	assert.Equal(t, trace.StepOver, out.Directive.Kind)
	stop := s.apply(out)
	assert.Equal(t, 2, stop.Event.Frame.Line)

	out = d.Dispatch(s, "")
	assert.Equal(t, OutcomeResume, out.Kind)
	assert.Equal(t, trace.StepOver, out.Directive.Kind)
	assert.Equal(t, "next", out.Line)
	stop = s.apply(out)
	assert.Equal(t, 3, stop.Event.Frame.Line, "next steps over the call to f")

	assert.Equal(t, []string{"next"}, d.History().Entries())
}

func TestEmptyLineAfterListIsNoOp(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "list")
	require.NotEmpty(t, s.output())

	out := d.Dispatch(s, "")
	assert.Equal(t, OutcomeContinue, out.Kind)
	assert.Empty(t, out.Line)
	assert.Empty(t, s.output())
}

func TestBreakAndContinue(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "break a.py:10")
	assert.Equal(t, "Breakpoint 1 at a.py:10\n", s.output())

	stop := s.apply(d.Dispatch(s, "c"))
	assert.Equal(t, trace.StopBreakpoint, stop.Event.Kind)
	assert.Equal(t, 10, stop.Event.Frame.Line)
	require.NotNil(t, stop.Breakpoint)
	assert.Equal(t, 1, stop.Breakpoint.Hits)
}

func TestBreakValidatesLocation(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "break 40")
	assert.True(t, IsUserInput(out.Err))

	out = d.Dispatch(s, "break nowhere")
	assert.True(t, IsUserInput(out.Err))
	assert.Empty(t, s.ctl.Breakpoints().List())
}

func TestBreakpointManagement(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "b 6, a > 1")
	d.Dispatch(s, "tbreak 10")
	s.output()

	d.Dispatch(s, "break")
	listing := s.output()
	assert.Contains(t, listing, "stop only if a > 1")
	assert.Contains(t, listing, "del ")

	d.Dispatch(s, "disable 1")
	assert.Equal(t, "Disabled breakpoint 1 at a.py:6\n", s.output())
	bp, _ := s.ctl.Breakpoints().Get(1)
	assert.False(t, bp.Enabled)
	assert.Equal(t, []int{10}, s.rt.Breakpoints("a.py"))

	d.Dispatch(s, "enable 1")
	assert.Equal(t, "Enabled breakpoint 1 at a.py:6\n", s.output())
	bp, _ = s.ctl.Breakpoints().Get(1)
	assert.True(t, bp.Enabled)
	assert.Equal(t, "a > 1", bp.Condition)
	assert.Equal(t, []int{6, 10}, s.rt.Breakpoints("a.py"))

	d.Dispatch(s, "condition 1")
	assert.Equal(t, "Breakpoint 1 is now unconditional.\n", s.output())

	d.Dispatch(s, "ignore 1 2")
	assert.Equal(t, "Will ignore next 2 crossings of breakpoint 1.\n", s.output())

	out := d.Dispatch(s, "enable 9")
	assert.NoError(t, out.Err)
	assert.Equal(t, "*** no breakpoint number 9\n", s.output())

	d.Dispatch(s, "clear 1")
	assert.Equal(t, "Deleted breakpoint 1 at a.py:6\n", s.output())
	d.Dispatch(s, "clear")
	assert.Equal(t, "Deleted breakpoint 2 at a.py:10\n", s.output())
	assert.Empty(t, s.ctl.Breakpoints().List())
}

func TestStepEntersCallee(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	advance(t, d, s, "n", 1)
	depth := s.stack.Depth()

	stop := s.apply(d.Dispatch(s, "s"))
	assert.Equal(t, "f", stop.Event.Frame.Function)
	assert.Equal(t, depth+1, s.stack.Depth())
}

func TestFrameNavigation(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	advance(t, d, s, "s", 3)

	d.Dispatch(s, "up")
	assert.Equal(t, 1, selectedIndex(t, s))
	assert.Equal(t, 1, s.shown)

	out := d.Dispatch(s, "up")
	assert.True(t, frames.IsBoundary(out.Err))
	assert.Equal(t, "*** Oldest frame\n", s.output())
	assert.Equal(t, 1, selectedIndex(t, s))

	d.Dispatch(s, "where")
	assert.Equal(t, "> [1] a.py(2)<toplevel>()\n  [0] a.py(6)f()\n", s.output())

	d.Dispatch(s, "down 5")
	assert.Equal(t, 0, selectedIndex(t, s))

	d.Dispatch(s, "frame -1")
	assert.Equal(t, 1, selectedIndex(t, s))

	out = d.Dispatch(s, "frame 7")
	assert.True(t, frames.IsBoundary(out.Err))
	assert.Equal(t, 1, selectedIndex(t, s))

	d.Dispatch(s, "bottom")
	assert.Equal(t, 0, selectedIndex(t, s))
	d.Dispatch(s, "top")
	assert.Equal(t, 1, selectedIndex(t, s))
}

func TestHiddenFrames(t *testing.T) {
	p := tracetest.NewProgram("a.py").Line(1).CallHidden("map").CallIn("a.py", "cb", 5).Line(6)
	d := New()
	s := newSession(t, p)
	advance(t, d, s, "s", 1)
	s.output()

	d.Dispatch(s, "where")
	assert.Equal(t, "  [2] a.py(1)<toplevel>()\n> [0] a.py(5)cb()\n   [1 hidden frames, use hf_unhide to show them]\n", s.output())

	d.Dispatch(s, "hf_list")
	assert.Equal(t, "  [1] <builtin>(0)map()\n", s.output())

	d.Dispatch(s, "up")
	assert.Equal(t, 2, selectedIndex(t, s))

	d.Dispatch(s, "hf_unhide")
	d.Dispatch(s, "down")
	assert.Equal(t, 1, selectedIndex(t, s))
}

func TestInspectionCommands(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	advance(t, d, s, "s", 4)

	d.Dispatch(s, "args")
	assert.Equal(t, "a = 3\n", s.output())
	d.Dispatch(s, "locals")
	assert.Equal(t, "a = 3\ny = 4\n", s.output())
	d.Dispatch(s, "globals")
	assert.Equal(t, "g = 7\n", s.output())

	d.Dispatch(s, "up")
	s.output()
	d.Dispatch(s, "p x")
	assert.Equal(t, "1\n", s.output(), "p evaluates in the selected frame")

	out := d.Dispatch(s, "p")
	assert.True(t, IsUserInput(out.Err))
}

func TestDisplay(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	advance(t, d, s, "s", 3)

	d.Dispatch(s, "display y")
	assert.Equal(t, "y: <undefined>\n", s.output())

	out := d.Dispatch(s, "display y")
	assert.True(t, IsUserInput(out.Err))
	s.output()

	s.apply(d.Dispatch(s, "n"))
	changed := s.displays.Update(func(expr string) (string, error) {
		return s.rt.Eval(s.ctx, expr, 0)
	})
	assert.Equal(t, []string{"y: <undefined> --> 4"}, changed)

	d.Dispatch(s, "undisplay y")
	assert.Zero(t, s.displays.Len())
}

func TestAliases(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "alias pv p %1")
	d.Dispatch(s, "pv g")
	assert.Equal(t, "7\n", s.output())

	d.Dispatch(s, "alias n p x")
	require.Len(t, s.warnings, 1)
	var shadow *ShadowWarning
	assert.ErrorAs(t, s.warnings[0], &shadow)
	s.output()

	out := d.Dispatch(s, "n")
	assert.Equal(t, OutcomeContinue, out.Kind, "the alias shadows next")
	assert.Equal(t, "1\n", s.output())

	d.Dispatch(s, "alias p p x")
	s.output()
	d.Dispatch(s, "p")
	assert.Equal(t, "1\n", s.output(), "a self-referencing alias expands once")

	d.Dispatch(s, "unalias n")
	out = d.Dispatch(s, "n")
	assert.Equal(t, OutcomeResume, out.Kind)
}

func TestCommandSplitting(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "p x;; p g")
	assert.Equal(t, "1\n", s.output())
	require.True(t, d.Pending())

	_, ok := d.RunPending(s)
	assert.True(t, ok)
	assert.Equal(t, "7\n", s.output())
	assert.False(t, d.Pending())

	d.Dispatch(s, `p ";;"`)
	assert.False(t, d.Pending())
}

func TestHistoryRecall(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "p x")
	d.Dispatch(s, "p g")
	s.output()

	d.Dispatch(s, "!1")
	assert.Equal(t, "1\n", s.output())
	d.Dispatch(s, "!!")
	assert.Equal(t, "1\n", s.output())
	assert.Equal(t, []string{"p x", "p g", "p x", "p x"}, d.History().Entries())

	out := d.Dispatch(s, "!9")
	assert.True(t, IsUserInput(out.Err))
	assert.Contains(t, s.output(), "no history entry 9")

	d.Dispatch(s, "history")
	assert.True(t, strings.HasPrefix(s.output(), "   1  p x\n"))
}

func TestExecStatement(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "! x = 5")
	assert.Equal(t, []string{"x = 5"}, s.rt.Executed())
	d.Dispatch(s, "p x")
	assert.Equal(t, "5\n", s.output())
}

func TestContinueToLine(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "continue 10")
	assert.Equal(t, "Breakpoint 1 at a.py:10\n", s.output())
	stop := s.apply(out)
	assert.Equal(t, trace.StopBreakpoint, stop.Event.Kind)
	assert.Equal(t, 10, stop.Event.Frame.Line)
	assert.True(t, stop.Deleted)
	assert.Empty(t, s.ctl.Breakpoints().List())
}

func TestUntil(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	out := d.Dispatch(s, "until")
	assert.Equal(t, trace.Directive{Kind: trace.ContinueUntil, File: "a.py", Line: 2}, out.Directive)

	out = d.Dispatch(s, "until 1")
	assert.Equal(t, OutcomeContinue, out.Kind)
	assert.True(t, IsUserInput(out.Err))

	out = d.Dispatch(s, "until 10")
	stop := s.apply(out)
	assert.Equal(t, 10, stop.Event.Frame.Line)
}

func TestExecutionDirectives(t *testing.T) {
	tests := []struct {
		line string
		kind trace.DirectiveKind
	}{
		{"step", trace.StepInto},
		{"s", trace.StepInto},
		{"next", trace.StepOver},
		{"return", trace.RunUntilReturn},
		{"r", trace.RunUntilReturn},
		{"finish", trace.StepOut},
		{"continue", trace.Continue},
		{"cont", trace.Continue},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s := newSession(t, sample())
			out := New().Dispatch(s, tt.line)
			assert.Equal(t, OutcomeResume, out.Kind)
			assert.Equal(t, tt.kind, out.Directive.Kind)
		})
	}
}

func TestListing(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "list")
	lines := strings.Split(strings.TrimSuffix(s.output(), "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "  1 -> x = 1", lines[0])
	assert.Equal(t, "  2    r = f(3)", lines[1])

	d.Dispatch(s, "list")
	assert.Equal(t, "[EOF]\n", s.output())

	d.Dispatch(s, "break 2")
	s.output()
	d.Dispatch(s, "list 2,3")
	assert.Equal(t, "  2 B  r = f(3)\n  3    print(r)\n", s.output())

	d.Dispatch(s, "list 5, 2")
	assert.Equal(t, 3, strings.Count(s.output(), "\n"))
}

func TestLongList(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	advance(t, d, s, "s", 3)

	d.Dispatch(s, "ll")
	assert.Equal(t, "  5    def f(a):\n  6 ->     y = a + 1\n  7        return y\n", s.output())
}

func TestStickyCommand(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "sticky")
	assert.True(t, s.sticky)
	d.Dispatch(s, "sticky off")
	assert.False(t, s.sticky)
	d.Dispatch(s, "sticky 3 8")
	assert.True(t, s.sticky)
	assert.Equal(t, 3, s.first)
	assert.Equal(t, 8, s.last)

	out := d.Dispatch(s, "sticky 3")
	assert.True(t, IsUserInput(out.Err))
}

func TestEdit(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	d.Dispatch(s, "edit")
	assert.Equal(t, []string{"a.py:1"}, s.edited)
}

func TestHelp(t *testing.T) {
	d := New()
	s := newSession(t, sample())

	d.Dispatch(s, "help b")
	assert.Contains(t, s.output(), CmdBreak.Spec().Usage)

	out := d.Dispatch(s, "help nosuch")
	assert.ErrorIs(t, out.Err, ErrUnknownCommand)

	d.Dispatch(s, "help")
	assert.Contains(t, s.output(), "longlist")
}

func TestQuit(t *testing.T) {
	d := New()
	s := newSession(t, sample())
	d.Dispatch(s, "p x;; p g")

	out := d.Dispatch(s, "q")
	assert.Equal(t, OutcomeQuit, out.Kind)
	assert.False(t, out.Fatal())
	assert.False(t, d.Pending())
}

func TestDetachIsFatal(t *testing.T) {
	gone := func(string, map[string]string, map[string]string) (string, error) {
		return "", trace.ErrDetached
	}
	d := New()
	s := newSession(t, sample(), tracetest.WithEval(gone))

	out := d.Dispatch(s, "p x")
	assert.Equal(t, OutcomeQuit, out.Kind)
	assert.True(t, out.Fatal())
	assert.Empty(t, s.warnings)
}

type fakeMacros map[string][]string

func (m fakeMacros) Has(name string) bool {
	_, ok := m[name]
	return ok
}

func (m fakeMacros) Names() []string {
	var out []string
	for n := range m {
		out = append(out, n)
	}
	return out
}

func (m fakeMacros) Expand(name string, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("argument expected")
	}
	var out []string
	for _, l := range m[name] {
		out = append(out, strings.ReplaceAll(l, "$1", args[0]))
	}
	return out, nil
}

func TestMacros(t *testing.T) {
	d := New(WithMacros(fakeMacros{
		"show": {"p $1", "p g"},
		"loop": {"loop x"},
	}))
	s := newSession(t, sample())

	d.Dispatch(s, "show x")
	assert.Equal(t, "1\n", s.output())
	_, ok := d.RunPending(s)
	require.True(t, ok)
	assert.Equal(t, "7\n", s.output())

	out := d.Dispatch(s, "loop x")
	assert.True(t, out.Evaluated, "macro output is not expanded again")

	out = d.Dispatch(s, "show")
	assert.Error(t, out.Err)
}
