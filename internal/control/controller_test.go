package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/trace"
	"github.com/dshills/perch/internal/trace/tracetest"
)

// loop runs line 5 of a.py n times inside a function called from line 1.
func loop(n int) *tracetest.Program {
	p := tracetest.NewProgram("a.py").Line(1).Call("work", 4)
	for i := 0; i < n; i++ {
		p.Set("i", string(rune('0'+i))).Line(5)
	}
	return p.Return().Line(2)
}

func start(t *testing.T, p *tracetest.Program, opts ...Option) (*Controller, *tracetest.Runtime) {
	t.Helper()
	rt := tracetest.New(p)
	c := New(rt, opts...)
	stop, err := c.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, Paused, c.State())
	require.Equal(t, trace.StopLine, stop.Event.Kind)
	return c, rt
}

func TestContinueStopsAtBreakpoint(t *testing.T) {
	ctx := context.Background()
	p := tracetest.NewProgram("a.py").Lines(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	c, rt := start(t, p)

	bp, err := c.AddBreakpoint(ctx, "a.py", 10, "", false)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, rt.Breakpoints("a.py"))

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopBreakpoint, stop.Event.Kind)
	assert.Equal(t, 10, stop.Event.Frame.Line)
	require.NotNil(t, stop.Breakpoint)
	assert.Equal(t, bp.ID, stop.Breakpoint.ID)
	assert.Equal(t, 1, stop.Breakpoint.Hits)
}

func TestIgnoreCountSuppressesHits(t *testing.T) {
	ctx := context.Background()
	c, rt := start(t, loop(5))

	bp, err := c.AddBreakpoint(ctx, "a.py", 5, "", false)
	require.NoError(t, err)
	require.NoError(t, c.SetBreakpointIgnore(bp.ID, 3))

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopBreakpoint, stop.Event.Kind)
	assert.Equal(t, 4, stop.Breakpoint.Hits)

	v, err := rt.Eval(ctx, "i", 0)
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	directives := rt.Directives()
	require.Len(t, directives, 4)
	for _, d := range directives[1:] {
		assert.True(t, d.Reissue)
	}
}

func TestDisabledBreakpointDoesNotStop(t *testing.T) {
	ctx := context.Background()
	c, _ := start(t, loop(3))

	bp, err := c.AddBreakpoint(ctx, "a.py", 5, "i", false)
	require.NoError(t, err)
	require.NoError(t, c.SetBreakpointEnabled(ctx, bp.ID, false))

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopTerminated, stop.Event.Kind)
	assert.Equal(t, Terminated, c.State())

	got, ok := c.Breakpoints().Get(bp.ID)
	require.True(t, ok)
	assert.Equal(t, "i", got.Condition)
	assert.Equal(t, 0, got.Hits)
}

func TestResumeAfterTermination(t *testing.T) {
	ctx := context.Background()
	c, _ := start(t, tracetest.NewProgram("a.py").Line(1))

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.StepOver})
	require.NoError(t, err)
	assert.True(t, stop.Event.Terminal())

	_, err = c.Resume(ctx, trace.Directive{Kind: trace.StepOver})
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = c.Start(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestStepIntoNeverLosesDepth(t *testing.T) {
	ctx := context.Background()
	c, rt := start(t, loop(1))

	frames, _ := rt.Frames(ctx)
	depth := len(frames)

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.StepInto})
	require.NoError(t, err)
	assert.Equal(t, trace.StopCall, stop.Event.Kind)

	frames, _ = rt.Frames(ctx)
	assert.Equal(t, depth+1, len(frames))
	depth = len(frames)

	_, err = c.Resume(ctx, trace.Directive{Kind: trace.StepInto})
	require.NoError(t, err)
	frames, _ = rt.Frames(ctx)
	assert.GreaterOrEqual(t, len(frames), depth)
}

func TestConditionErrorIsWarning(t *testing.T) {
	ctx := context.Background()
	c, _ := start(t, loop(2))

	_, err := c.AddBreakpoint(ctx, "a.py", 5, "undefined_name", false)
	require.NoError(t, err)

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopTerminated, stop.Event.Kind)
	assert.Len(t, stop.Warnings, 2)
}

func TestTemporaryBreakpointIsDeleted(t *testing.T) {
	ctx := context.Background()
	c, rt := start(t, loop(3))

	bp, err := c.AddBreakpoint(ctx, "a.py", 5, "", true)
	require.NoError(t, err)

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.True(t, stop.Deleted)
	assert.Equal(t, bp.ID, stop.Breakpoint.ID)
	assert.Empty(t, c.Breakpoints().List())
	assert.Empty(t, rt.Breakpoints("a.py"))
}

func TestExceptionPolicy(t *testing.T) {
	ctx := context.Background()
	p := func() *tracetest.Program {
		return tracetest.NewProgram("a.py").Line(1).Line(2).Raise("boom")
	}

	c, _ := start(t, p())
	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopException, stop.Event.Kind)
	assert.Equal(t, Paused, c.State())

	c, _ = start(t, p(), WithContinuePastExceptions(true))
	stop, err = c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	require.NoError(t, err)
	assert.Equal(t, trace.StopTerminated, stop.Event.Kind)
}

func TestStepOverResumesAfterSuppressedCalleeBreakpoint(t *testing.T) {
	ctx := context.Background()
	p := tracetest.NewProgram("a.py").Line(1).Call("f", 10).Line(11).Return().Line(2)
	c, rt := start(t, p)

	bp, err := c.AddBreakpoint(ctx, "a.py", 11, "", false)
	require.NoError(t, err)
	require.NoError(t, c.SetBreakpointIgnore(bp.ID, 1))

	stop, err := c.Resume(ctx, trace.Directive{Kind: trace.StepOver})
	require.NoError(t, err)
	assert.Equal(t, trace.StopLine, stop.Event.Kind)
	assert.Equal(t, 2, stop.Event.Frame.Line)

	frames, _ := rt.Frames(ctx)
	assert.Len(t, frames, 1)
}

func TestDetach(t *testing.T) {
	ctx := context.Background()
	c, _ := start(t, loop(1))
	require.NoError(t, c.Detach(ctx))
	assert.Equal(t, Terminated, c.State())

	_, err := c.Resume(ctx, trace.Directive{Kind: trace.Continue})
	assert.ErrorIs(t, err, ErrSessionClosed)
}
