package starlarkrt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/dshills/perch/internal/trace"
)

// abandonSignal unwinds a parked program goroutine. It is raised from the
// step hook and recovered at the top of the goroutine.
type abandonSignal struct{}

type resumeCmd struct {
	d     trace.Directive
	abort bool
}

type outcome struct {
	value   starlark.Value
	globals starlark.StringDict
	err     error
}

// execution is one program or evaluation running on its own goroutine.
type execution struct {
	rt      *Runtime
	thread  *starlark.Thread
	nested  bool
	stepper trace.Stepper

	events     chan trace.StopEvent
	directives chan resumeCmd
	finished   chan outcome

	// Owned by the session goroutine.
	paused          bool
	done            bool
	result          outcome
	failure         *starlark.EvalError
	failureReported bool
}

func (r *Runtime) newExecution(name string, nested bool) *execution {
	ex := &execution{
		rt:         r,
		thread:     r.newThread(name),
		nested:     nested,
		events:     make(chan trace.StopEvent),
		directives: make(chan resumeCmd),
		finished:   make(chan outcome, 1),
	}
	ex.thread.SetLocal(executionKey, ex)
	return ex
}

func (ex *execution) start(fn func(*starlark.Thread) (starlark.Value, starlark.StringDict, error)) {
	go func() {
		var out outcome
		defer func() {
			if p := recover(); p != nil {
				if _, ok := p.(abandonSignal); ok {
					out.err = trace.ErrEvalAbandoned
				} else {
					out.err = fmt.Errorf("starlark: panic: %v", p)
				}
			}
			ex.finished <- out
		}()
		out.value, out.globals, out.err = fn(ex.thread)
	}()
}

// hook runs on entry to each statement, called from the line marker. The
// program frame is the marker's caller.
func (ex *execution) hook(th *starlark.Thread) {
	depth := th.CallStackDepth() - markerFrames
	if depth < 1 {
		return
	}
	fr := th.DebugFrame(markerFrames)
	pos := fr.Position()
	file, line := pos.Filename(), int(pos.Line)
	if line <= 0 {
		return
	}

	if ex.rt.interrupted.CompareAndSwap(true, false) {
		ex.pause(trace.StopInterrupt, fr, file, line, depth)
		return
	}
	if kind, ok := ex.stepper.Step(file, line, depth, ex.rt.hasBreakpoint(file, line)); ok {
		ex.pause(kind, fr, file, line, depth)
	}
}

func (ex *execution) pause(kind trace.StopKind, fr starlark.DebugFrame, file string, line, depth int) {
	ex.events <- trace.StopEvent{Kind: kind, Frame: frameInfo(fr), Nested: ex.nested}
	cmd := <-ex.directives
	if cmd.abort {
		panic(abandonSignal{})
	}
	ex.stepper.Begin(cmd.d, file, line, depth)
}

// wait blocks until ex stops or finishes.
func (r *Runtime) wait(ctx context.Context, ex *execution) (trace.StopEvent, error) {
	select {
	case ev := <-ex.events:
		ex.paused = true
		return ev, nil

	case out := <-ex.finished:
		ex.paused = false
		ex.done = true
		ex.result = out

		var evalErr *starlark.EvalError
		if !ex.nested && errors.As(out.err, &evalErr) {
			ex.failure = evalErr
			r.logger.Debug().Str("error", evalErr.Msg).Msg("program raised")
			return trace.StopEvent{
				Kind:  trace.StopException,
				Frame: raisedAt(evalErr.CallStack),
				Err:   evalErr.Msg,
			}, nil
		}
		code := 0
		if out.err != nil {
			code = 1
			r.logger.Debug().Err(out.err).Bool("nested", ex.nested).Msg("execution failed")
		}
		return trace.StopEvent{Kind: trace.StopTerminated, Nested: ex.nested, ExitCode: code}, nil

	case <-ctx.Done():
		return trace.StopEvent{}, ctx.Err()
	}
}

// abort unwinds ex and waits for its goroutine to exit.
func (ex *execution) abort() {
	if ex.done {
		return
	}
	ex.thread.Cancel("abandoned")
	if ex.paused {
		ex.paused = false
		ex.directives <- resumeCmd{abort: true}
	}
	for {
		select {
		case <-ex.events:
			ex.directives <- resumeCmd{abort: true}
		case out := <-ex.finished:
			ex.done = true
			ex.result = out
			return
		}
	}
}

// frames lists the frames of ex, innermost first.
func (ex *execution) frames() []trace.FrameInfo {
	if ex.failure != nil {
		stack := ex.failure.CallStack
		out := make([]trace.FrameInfo, 0, len(stack))
		for i := range stack {
			out = append(out, callFrameInfo(stack.At(i)))
		}
		return out
	}
	if !ex.paused {
		return nil
	}
	n := ex.thread.CallStackDepth()
	out := make([]trace.FrameInfo, 0, n)
	for d := markerFrames; d < n; d++ {
		out = append(out, frameInfo(ex.thread.DebugFrame(d)))
	}
	return out
}

func (ex *execution) depth() int {
	if ex.failure != nil {
		return len(ex.failure.CallStack)
	}
	if !ex.paused {
		return 0
	}
	return ex.thread.CallStackDepth() - markerFrames
}

func frameInfo(fr starlark.DebugFrame) trace.FrameInfo {
	pos := fr.Position()
	_, isFunc := fr.Callable().(*starlark.Function)
	return trace.FrameInfo{
		File:     pos.Filename(),
		Line:     int(pos.Line),
		Function: fr.Callable().Name(),
		Hidden:   !isFunc || synthetic(pos.Filename()),
	}
}

func callFrameInfo(cf starlark.CallFrame) trace.FrameInfo {
	return trace.FrameInfo{
		File:     cf.Pos.Filename(),
		Line:     int(cf.Pos.Line),
		Function: cf.Name,
		Hidden:   synthetic(cf.Pos.Filename()),
	}
}

// raisedAt is the innermost frame of stack that has source.
func raisedAt(stack starlark.CallStack) trace.FrameInfo {
	for i := range stack {
		if f := callFrameInfo(stack.At(i)); !f.Hidden {
			return f
		}
	}
	if len(stack) == 0 {
		return trace.FrameInfo{}
	}
	return callFrameInfo(stack.At(0))
}

// synthetic reports names like <expr> and <builtin> that have no source.
func synthetic(file string) bool {
	return strings.HasPrefix(file, "<")
}
