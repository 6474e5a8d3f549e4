package starlarkrt

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.starlark.net/starlark"

	"github.com/dshills/perch/internal/trace"
)

// Frames implements trace.Runtime. A nested evaluation's frames come first,
// followed by the frames of the execution it was started from.
func (r *Runtime) Frames(ctx context.Context) ([]trace.FrameInfo, error) {
	if _, err := r.top(); err != nil {
		return nil, err
	}
	var out []trace.FrameInfo
	for i := len(r.stack) - 1; i >= 0; i-- {
		out = append(out, r.stack[i].frames()...)
	}
	if len(out) == 0 {
		return nil, trace.ErrNotPaused
	}
	return out, nil
}

// frameAt maps a frame index across the execution stack.
func (r *Runtime) frameAt(frame int) (*execution, int, error) {
	top, err := r.top()
	if err != nil {
		return nil, 0, err
	}
	if top.depth() == 0 {
		return nil, 0, trace.ErrNotPaused
	}
	if frame < 0 {
		return nil, 0, trace.ErrNoFrame
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		ex := r.stack[i]
		n := ex.depth()
		if frame < n {
			return ex, frame, nil
		}
		frame -= n
	}
	return nil, 0, trace.ErrNoFrame
}

// function returns the Starlark function running in a live frame, or nil
// for built-ins and unwound frames.
func (ex *execution) function(depth int) (starlark.DebugFrame, *starlark.Function) {
	if ex.failure != nil || !ex.paused {
		return nil, nil
	}
	fr := ex.thread.DebugFrame(depth + markerFrames)
	fn, _ := fr.Callable().(*starlark.Function)
	return fr, fn
}

// Locals implements trace.Runtime. Unassigned locals and closure cells are
// omitted.
func (r *Runtime) Locals(ctx context.Context, frame int) ([]trace.Variable, error) {
	ex, depth, err := r.frameAt(frame)
	if err != nil {
		return nil, err
	}
	fr, fn := ex.function(depth)
	if fn == nil {
		return nil, nil
	}
	var vars []trace.Variable
	for i := 0; i < fr.NumLocals(); i++ {
		b, v := fr.Local(i)
		if v == nil || v.Type() == "cell" {
			continue
		}
		vars = append(vars, variable(b.Name, v, i < fn.NumParams()))
	}
	return vars, nil
}

// Globals implements trace.Runtime.
func (r *Runtime) Globals(ctx context.Context, frame int) ([]trace.Variable, error) {
	ex, depth, err := r.frameAt(frame)
	if err != nil {
		return nil, err
	}
	globals := ex.globals(depth)
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]trace.Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, variable(name, globals[name], false))
	}
	return vars, nil
}

func (ex *execution) globals(depth int) starlark.StringDict {
	if ex.failure != nil {
		return ex.result.globals
	}
	if _, fn := ex.function(depth); fn != nil {
		return fn.Globals()
	}
	return nil
}

func variable(name string, v starlark.Value, param bool) trace.Variable {
	return trace.Variable{Name: name, Type: v.Type(), Value: v.String(), Param: param}
}

// namespace builds the environment expressions see in frame: predeclared
// names, then the module globals, the frame locals and finally names
// introduced by earlier statements.
func (r *Runtime) namespace(frame int) (starlark.StringDict, error) {
	ex, depth, err := r.frameAt(frame)
	if err != nil {
		return nil, err
	}
	env := starlark.StringDict{}
	for k, v := range r.predeclared {
		env[k] = v
	}
	for k, v := range ex.globals(depth) {
		if v != nil {
			env[k] = v
		}
	}
	if fr, fn := ex.function(depth); fn != nil {
		for i := 0; i < fr.NumLocals(); i++ {
			if b, v := fr.Local(i); v != nil && v.Type() != "cell" {
				env[b.Name] = v
			}
		}
	}
	for k, v := range r.scratch {
		env[k] = v
	}
	return env, nil
}

// evaluate runs fn on a fresh execution stacked above the paused one. With
// nested set, breakpoints reached during the evaluation are offered to the
// nested handler; otherwise they are passed over.
func (r *Runtime) evaluate(ctx context.Context, nested bool, fn func(*starlark.Thread) (starlark.Value, error)) (starlark.Value, error) {
	ex := r.newExecution("eval", true)
	ex.stepper.Begin(trace.Directive{Kind: trace.Continue}, "", 0, 0)
	r.stack = append(r.stack, ex)
	defer func() {
		ex.abort()
		if len(r.stack) > 0 {
			r.stack = r.stack[:len(r.stack)-1]
		}
	}()

	ex.start(func(th *starlark.Thread) (starlark.Value, starlark.StringDict, error) {
		v, err := fn(th)
		return v, nil, err
	})

	for {
		ev, err := r.wait(ctx, ex)
		if err != nil {
			return nil, err
		}
		if ev.Kind == trace.StopTerminated {
			return ex.result.value, ex.result.err
		}
		if nested && r.nested != nil {
			if r.nested(ctx, ev) {
				return nil, trace.ErrEvalAbandoned
			}
			if r.detached {
				return nil, trace.ErrDetached
			}
			if ex.done {
				return ex.result.value, ex.result.err
			}
		}
		ex.paused = false
		ex.directives <- resumeCmd{d: trace.Directive{Kind: trace.Continue, Reissue: true}}
	}
}

func evalFailure(expr string, err error) error {
	if errors.Is(err, trace.ErrEvalAbandoned) || errors.Is(err, trace.ErrDetached) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		err = errors.New(evalErr.Msg)
	}
	return &trace.EvalError{Expr: expr, Err: err}
}

func (r *Runtime) eval(ctx context.Context, expr string, frame int, nested bool) (starlark.Value, error) {
	env, err := r.namespace(frame)
	if err != nil {
		return nil, err
	}
	v, err := r.evaluate(ctx, nested, func(th *starlark.Thread) (starlark.Value, error) {
		return starlark.EvalOptions(r.opts, th, "<expr>", expr, env)
	})
	if err != nil {
		return nil, evalFailure(expr, err)
	}
	return v, nil
}

// Eval implements trace.Runtime. The result is the value's repr.
func (r *Runtime) Eval(ctx context.Context, expr string, frame int) (string, error) {
	v, err := r.eval(ctx, expr, frame, true)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// EvalCondition implements trace.Runtime. Breakpoints are not honoured
// while a condition is evaluated.
func (r *Runtime) EvalCondition(ctx context.Context, expr string, frame int) (bool, error) {
	v, err := r.eval(ctx, expr, frame, false)
	if err != nil {
		return false, err
	}
	return bool(v.Truth()), nil
}

// Exec implements trace.Runtime. Starlark frames cannot be written from
// outside, so names bound by stmt live in a session namespace that later
// expressions and statements see ahead of the program's own bindings.
func (r *Runtime) Exec(ctx context.Context, stmt string, frame int) error {
	f, err := r.opts.Parse("<stmt>", stmt, 0)
	if err != nil {
		return &trace.EvalError{Expr: stmt, Err: err}
	}
	env, err := r.namespace(frame)
	if err != nil {
		return err
	}
	before := make(starlark.StringDict, len(env))
	for k, v := range env {
		before[k] = v
	}
	_, err = r.evaluate(ctx, true, func(th *starlark.Thread) (starlark.Value, error) {
		return starlark.None, starlark.ExecREPLChunk(f, th, env)
	})
	if err != nil {
		return evalFailure(stmt, err)
	}
	for k, v := range env {
		if old, ok := before[k]; !ok || old != v {
			r.scratch[k] = v
		}
	}
	return nil
}

// Locate implements trace.Locator for expressions naming a function.
func (r *Runtime) Locate(ctx context.Context, expr string, frame int) (trace.FrameInfo, error) {
	v, err := r.eval(ctx, expr, frame, false)
	if err != nil {
		return trace.FrameInfo{}, err
	}
	fn, ok := v.(*starlark.Function)
	if !ok {
		return trace.FrameInfo{}, fmt.Errorf("%s is a %s, not a function", expr, v.Type())
	}
	pos := fn.Position()
	return trace.FrameInfo{File: pos.Filename(), Line: int(pos.Line), Function: fn.Name()}, nil
}
