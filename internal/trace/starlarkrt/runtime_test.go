package starlarkrt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/trace"
)

const addSource = `def add(a, b):
    c = a + b
    return c

x = 1
y = add(x, 2)
z = y * 2
`

func start(t *testing.T, src string, opts ...Option) (*Runtime, trace.StopEvent) {
	t.Helper()
	rt := New("prog.star", []byte(src), opts...)
	t.Cleanup(func() { _ = rt.Detach(context.Background()) })
	ev, err := rt.Start(context.Background())
	require.NoError(t, err)
	return rt, ev
}

func resume(t *testing.T, rt *Runtime, kind trace.DirectiveKind) trace.StopEvent {
	t.Helper()
	ev, err := rt.Resume(context.Background(), trace.Directive{Kind: kind})
	require.NoError(t, err)
	return ev
}

func names(vars []trace.Variable) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Name] = v.Value
	}
	return out
}

func TestStepping(t *testing.T) {
	ctx := context.Background()
	rt, ev := start(t, addSource)
	assert.Equal(t, trace.StopLine, ev.Kind)
	assert.Equal(t, 1, ev.Frame.Line)
	assert.Equal(t, "prog.star", ev.Frame.File)

	ev = resume(t, rt, trace.StepOver)
	assert.Equal(t, 5, ev.Frame.Line)
	ev = resume(t, rt, trace.StepOver)
	assert.Equal(t, 6, ev.Frame.Line)

	ev = resume(t, rt, trace.StepInto)
	assert.Equal(t, trace.StopCall, ev.Kind)
	assert.Equal(t, 2, ev.Frame.Line)
	assert.Equal(t, "add", ev.Frame.Function)

	frames, err := rt.Frames(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "add", frames[0].Function)
	assert.Equal(t, 6, frames[1].Line)
	assert.Equal(t, "<toplevel>", frames[1].Function)

	locals, err := rt.Locals(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, names(locals))
	for _, v := range locals {
		assert.True(t, v.Param, v.Name)
		assert.Equal(t, "int", v.Type)
	}

	globals, err := rt.Globals(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", names(globals)["x"])

	v, err := rt.Eval(ctx, "a + b", 0)
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	v, err = rt.Eval(ctx, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	ev = resume(t, rt, trace.StepOut)
	assert.Equal(t, trace.StopReturn, ev.Kind)
	assert.Equal(t, 7, ev.Frame.Line)

	ev = resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
	assert.Zero(t, ev.ExitCode)

	_, err = rt.Frames(ctx)
	assert.ErrorIs(t, err, trace.ErrNotPaused)
}

func TestBreakpoint(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{3}))

	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopBreakpoint, ev.Kind)
	assert.Equal(t, 3, ev.Frame.Line)

	locals, err := rt.Locals(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "3", names(locals)["c"])

	ok, err := rt.EvalCondition(ctx, "c == 3", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = rt.EvalCondition(ctx, "c > 3", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", nil))
	ev = resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
}

func TestStepIntoVisitsEveryStatement(t *testing.T) {
	rt, ev := start(t, addSource)
	type stop struct {
		kind trace.StopKind
		line int
	}
	got := []stop{{ev.Kind, ev.Frame.Line}}
	for ev.Kind != trace.StopTerminated {
		ev = resume(t, rt, trace.StepInto)
		got = append(got, stop{ev.Kind, ev.Frame.Line})
	}
	assert.Equal(t, []stop{
		{trace.StopLine, 1},
		{trace.StopLine, 5},
		{trace.StopLine, 6},
		{trace.StopCall, 2},
		{trace.StopLine, 3},
		{trace.StopReturn, 7},
		{trace.StopTerminated, 0},
	}, got)
}

func TestBreakpointOnConstantAssignment(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{5, 7}))

	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopBreakpoint, ev.Kind)
	assert.Equal(t, 5, ev.Frame.Line)

	// Stopped before the assignment runs.
	_, err := rt.Eval(ctx, "x", 0)
	assert.Error(t, err)

	ev = resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopBreakpoint, ev.Kind)
	assert.Equal(t, 7, ev.Frame.Line)
}

func TestControlFlowLines(t *testing.T) {
	src := `n = 0
i = 0
while i < 2:
    i += 1
for v in [1, 2]:
    if v == 1:
        n += v
    elif v == 2:
        n -= v
    else:
        pass
`
	rt, ev := start(t, src)
	lines := []int{ev.Frame.Line}
	for {
		ev = resume(t, rt, trace.StepOver)
		if ev.Kind == trace.StopTerminated {
			break
		}
		lines = append(lines, ev.Frame.Line)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 4, 5, 6, 7, 6, 8, 9}, lines)
}

func TestBreakpointInWhileLoop(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, "i = 0\nwhile i < 3:\n    i += 1\n")
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{3}))

	for want := 0; want < 3; want++ {
		ev := resume(t, rt, trace.Continue)
		require.Equal(t, trace.StopBreakpoint, ev.Kind)
		assert.Equal(t, 3, ev.Frame.Line)
		v, err := rt.Eval(ctx, "i", 0)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(want), v)
	}
	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
}

func TestOneStopPerLine(t *testing.T) {
	rt, ev := start(t, "a = 1; b = 2\nc = a + b\n")
	assert.Equal(t, 1, ev.Frame.Line)
	ev = resume(t, rt, trace.StepOver)
	assert.Equal(t, 2, ev.Frame.Line)
	ev = resume(t, rt, trace.StepOver)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
}

func TestEvalErrors(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)

	_, err := rt.Eval(ctx, "nope", 0)
	var evalErr *trace.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "nope", evalErr.Expr)
	assert.Contains(t, err.Error(), "undefined")

	_, err = rt.Eval(ctx, "1 +", 0)
	assert.ErrorAs(t, err, &evalErr)

	_, err = rt.Eval(ctx, "x", 7)
	assert.ErrorIs(t, err, trace.ErrNoFrame)
}

func TestExecPersistsNames(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	resume(t, rt, trace.StepOver)
	resume(t, rt, trace.StepOver)

	require.NoError(t, rt.Exec(ctx, "w = x + 41", 0))
	v, err := rt.Eval(ctx, "w", 0)
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	err = rt.Exec(ctx, "w = ", 0)
	var evalErr *trace.EvalError
	assert.ErrorAs(t, err, &evalErr)
}

func TestNestedEvaluation(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	require.Equal(t, 5, resume(t, rt, trace.StepOver).Frame.Line)
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{2}))

	var stops []trace.StopEvent
	var innerFrames []trace.FrameInfo
	var innerLocals map[string]string
	rt.SetNestedHandler(func(ctx context.Context, ev trace.StopEvent) bool {
		stops = append(stops, ev)
		frames, err := rt.Frames(ctx)
		require.NoError(t, err)
		innerFrames = frames
		locals, err := rt.Locals(ctx, 0)
		require.NoError(t, err)
		innerLocals = names(locals)

		done, err := rt.Resume(ctx, trace.Directive{Kind: trace.Continue})
		require.NoError(t, err)
		assert.Equal(t, trace.StopTerminated, done.Kind)
		assert.True(t, done.Nested)
		return false
	})

	v, err := rt.Eval(ctx, "add(20, 22)", 0)
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	require.Len(t, stops, 1)
	assert.Equal(t, trace.StopBreakpoint, stops[0].Kind)
	assert.True(t, stops[0].Nested)
	assert.Equal(t, 2, stops[0].Frame.Line)
	assert.Equal(t, map[string]string{"a": "20", "b": "22"}, innerLocals)

	require.GreaterOrEqual(t, len(innerFrames), 3)
	assert.Equal(t, "add", innerFrames[0].Function)
	assert.True(t, innerFrames[1].Hidden, "expression frame is synthetic")
	assert.Equal(t, 5, innerFrames[len(innerFrames)-1].Line)

	// The paused program is untouched by the evaluation.
	ev := resume(t, rt, trace.StepOver)
	assert.Equal(t, 6, ev.Frame.Line)
}

func TestNestedEvaluationAbandoned(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	resume(t, rt, trace.StepOver)
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{2}))
	rt.SetNestedHandler(func(context.Context, trace.StopEvent) bool { return true })

	_, err := rt.Eval(ctx, "add(1, 1)", 0)
	assert.ErrorIs(t, err, trace.ErrEvalAbandoned)

	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopBreakpoint, ev.Kind)
	assert.Equal(t, 2, ev.Frame.Line)
	assert.False(t, ev.Nested)
}

func TestConditionIgnoresBreakpoints(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	resume(t, rt, trace.StepOver)
	require.NoError(t, rt.SetBreakpoints(ctx, "prog.star", []int{2}))
	called := false
	rt.SetNestedHandler(func(context.Context, trace.StopEvent) bool {
		called = true
		return true
	})

	ok, err := rt.EvalCondition(ctx, "add(1, 1) == 2", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, called)
}

func TestUncaughtException(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, "x = 1\ny = x // 0\n")

	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopException, ev.Kind)
	assert.Equal(t, 2, ev.Frame.Line)
	assert.Contains(t, ev.Err, "division by zero")

	frames, err := rt.Frames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, frames[0].Line)

	v, err := rt.Eval(ctx, "x", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	ev = resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
	assert.Equal(t, 1, ev.ExitCode)

	_, err = rt.Resume(ctx, trace.Directive{Kind: trace.Continue})
	assert.ErrorIs(t, err, trace.ErrDetached)
}

func TestInterrupt(t *testing.T) {
	rt, _ := start(t, "i = 0\nwhile i < 1000000:\n    i += 1\n")
	rt.Interrupt()
	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopInterrupt, ev.Kind)
	assert.Contains(t, []int{2, 3}, ev.Frame.Line)
}

func TestPrintAndArgs(t *testing.T) {
	var out bytes.Buffer
	rt, _ := start(t, "print('hello', argv[0])\n", WithOutput(&out), WithArgs([]string{"world"}))
	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopTerminated, ev.Kind)
	assert.Equal(t, "hello world\n", out.String())
}

func TestLocate(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	resume(t, rt, trace.StepOver)

	loc, err := rt.Locate(ctx, "add", 0)
	require.NoError(t, err)
	assert.Equal(t, trace.FrameInfo{File: "prog.star", Line: 1, Function: "add"}, loc)

	_, err = rt.Locate(ctx, "1", 0)
	assert.Error(t, err)
}

func TestLoadedModule(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.star")
	require.NoError(t, os.WriteFile(lib, []byte("def double(n):\n    return n * 2\n"), 0o644))
	main := filepath.Join(dir, "main.star")
	require.NoError(t, os.WriteFile(main, []byte("load('lib.star', 'double')\nx = double(2)\n"), 0o644))

	rt, err := Open(main)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Detach(ctx) })
	_, err = rt.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, rt.SetBreakpoints(ctx, lib, []int{2}))

	ev := resume(t, rt, trace.Continue)
	assert.Equal(t, trace.StopBreakpoint, ev.Kind)
	assert.Equal(t, lib, ev.Frame.File)
	assert.Equal(t, "double", ev.Frame.Function)

	locals, err := rt.Locals(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n": "2"}, names(locals))
}

func TestDetach(t *testing.T) {
	ctx := context.Background()
	rt, _ := start(t, addSource)
	require.NoError(t, rt.Detach(ctx))
	_, err := rt.Resume(ctx, trace.Directive{Kind: trace.StepOver})
	assert.ErrorIs(t, err, trace.ErrDetached)
	_, err = rt.Frames(ctx)
	assert.ErrorIs(t, err, trace.ErrDetached)
}

func TestCompileError(t *testing.T) {
	rt := New("bad.star", []byte("def (:\n"))
	_, err := rt.Start(context.Background())
	assert.Error(t, err)
}
