package tracetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/perch/internal/trace"
)

// EvalFunc evaluates an expression against a frame's namespace.
type EvalFunc func(expr string, locals, globals map[string]string) (string, error)

type execution struct {
	events  []Event
	pos     int
	raised  bool
	done    bool
	nested  bool
	stepper trace.Stepper
}

func (ex *execution) current() (Event, bool) {
	if ex.done || ex.pos < 0 || ex.pos >= len(ex.events) {
		return Event{}, false
	}
	return ex.events[ex.pos], true
}

// Runtime replays a Program.
type Runtime struct {
	prog   *Program
	eval   EvalFunc
	nested trace.NestedHandler

	stack       []*execution
	breakpoints map[string]map[int]bool
	interrupted atomic.Bool
	detached    bool

	mu         sync.Mutex
	directives []trace.Directive
	evaluated  []string
	executed   []string
}

var _ trace.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithEval replaces the default evaluator, which resolves plain names and
// literals only.
func WithEval(fn EvalFunc) Option {
	return func(r *Runtime) {
		r.eval = fn
	}
}

// New creates a runtime replaying p.
func New(p *Program, opts ...Option) *Runtime {
	r := &Runtime{
		prog:        p,
		eval:        DefaultEval,
		breakpoints: make(map[string]map[int]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Directives returns every directive received, in order.
func (r *Runtime) Directives() []trace.Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trace.Directive(nil), r.directives...)
}

// Evaluated returns every expression passed to Eval or EvalCondition.
func (r *Runtime) Evaluated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.evaluated...)
}

// Executed returns every statement passed to Exec.
func (r *Runtime) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.executed...)
}

// Breakpoints returns the lines the engine registered for file.
func (r *Runtime) Breakpoints(file string) []int {
	var lines []int
	for l := range r.breakpoints[file] {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// Start implements trace.Runtime.
func (r *Runtime) Start(ctx context.Context) (trace.StopEvent, error) {
	if len(r.stack) > 0 {
		return trace.StopEvent{}, fmt.Errorf("program already started")
	}
	ex := &execution{events: r.prog.events}
	r.stack = append(r.stack, ex)
	if len(ex.events) == 0 {
		ex.done = true
		return trace.StopEvent{Kind: trace.StopTerminated}, nil
	}
	return stopAt(trace.StopLine, ex.events[0]), nil
}

// Resume implements trace.Runtime.
func (r *Runtime) Resume(ctx context.Context, d trace.Directive) (trace.StopEvent, error) {
	if err := ctx.Err(); err != nil {
		return trace.StopEvent{}, err
	}
	ex, err := r.top()
	if err != nil {
		return trace.StopEvent{}, err
	}
	if ex.done {
		return trace.StopEvent{}, trace.ErrDetached
	}

	r.mu.Lock()
	r.directives = append(r.directives, d)
	r.mu.Unlock()

	if cur, ok := ex.current(); ok {
		ex.stepper.Begin(d, cur.Frames[0].File, cur.Frames[0].Line, cur.Depth())
	}
	return r.run(ex), nil
}

func (r *Runtime) run(ex *execution) trace.StopEvent {
	for {
		if ex.raised {
			ex.done = true
			return trace.StopEvent{Kind: trace.StopTerminated, Nested: ex.nested, ExitCode: 1}
		}
		ex.pos++
		if ex.pos >= len(ex.events) {
			ex.done = true
			return trace.StopEvent{Kind: trace.StopTerminated, Nested: ex.nested}
		}
		ev := ex.events[ex.pos]
		if ev.Exception != "" {
			ex.raised = true
			stop := stopAt(trace.StopException, ev)
			stop.Err = ev.Exception
			return stop
		}
		if r.interrupted.CompareAndSwap(true, false) {
			return stopAt(trace.StopInterrupt, ev)
		}
		f := ev.Frames[0]
		if kind, ok := ex.stepper.Step(f.File, f.Line, ev.Depth(), r.breakpoints[f.File][f.Line]); ok {
			return stopAt(kind, ev)
		}
	}
}

func stopAt(kind trace.StopKind, ev Event) trace.StopEvent {
	return trace.StopEvent{Kind: kind, Frame: ev.Frames[0]}
}

func (r *Runtime) top() (*execution, error) {
	if r.detached {
		return nil, trace.ErrDetached
	}
	if len(r.stack) == 0 {
		return nil, trace.ErrNotPaused
	}
	return r.stack[len(r.stack)-1], nil
}

func (r *Runtime) event() (Event, error) {
	ex, err := r.top()
	if err != nil {
		return Event{}, err
	}
	ev, ok := ex.current()
	if !ok {
		return Event{}, trace.ErrNotPaused
	}
	return ev, nil
}

// Frames implements trace.Runtime.
func (r *Runtime) Frames(ctx context.Context) ([]trace.FrameInfo, error) {
	ev, err := r.event()
	if err != nil {
		return nil, err
	}
	return append([]trace.FrameInfo(nil), ev.Frames...), nil
}

func (r *Runtime) locals(frame int) (map[string]string, error) {
	ev, err := r.event()
	if err != nil {
		return nil, err
	}
	if frame < 0 || frame >= len(ev.Locals) {
		return nil, trace.ErrNoFrame
	}
	return ev.Locals[frame], nil
}

// Locals implements trace.Runtime.
func (r *Runtime) Locals(ctx context.Context, frame int) ([]trace.Variable, error) {
	locals, err := r.locals(frame)
	if err != nil {
		return nil, err
	}
	vars := variables(locals)
	ev, _ := r.event()
	for i := range vars {
		vars[i].Param = ev.Params[frame][vars[i].Name]
	}
	return vars, nil
}

// Globals implements trace.Runtime.
func (r *Runtime) Globals(ctx context.Context, frame int) ([]trace.Variable, error) {
	if _, err := r.locals(frame); err != nil {
		return nil, err
	}
	return variables(r.prog.globals), nil
}

func variables(m map[string]string) []trace.Variable {
	out := make([]trace.Variable, 0, len(m))
	for name, value := range m {
		out = append(out, trace.Variable{Name: name, Type: typeOf(value), Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeOf(v string) string {
	switch {
	case v == "None":
		return "NoneType"
	case v == "True" || v == "False":
		return "bool"
	case strings.HasPrefix(v, `"`):
		return "string"
	case strings.HasPrefix(v, "["):
		return "list"
	}
	if _, err := strconv.Atoi(v); err == nil {
		return "int"
	}
	return "value"
}

// Eval implements trace.Runtime.
func (r *Runtime) Eval(ctx context.Context, expr string, frame int) (string, error) {
	r.mu.Lock()
	r.evaluated = append(r.evaluated, expr)
	r.mu.Unlock()

	locals, err := r.locals(frame)
	if err != nil {
		return "", err
	}
	if sub, ok := r.prog.evals[expr]; ok {
		if err := r.runNested(ctx, sub); err != nil {
			return "", err
		}
		return "None", nil
	}
	v, err := r.eval(expr, locals, r.prog.globals)
	if err != nil {
		return "", &trace.EvalError{Expr: expr, Err: err}
	}
	return v, nil
}

// EvalCondition implements trace.Runtime.
func (r *Runtime) EvalCondition(ctx context.Context, expr string, frame int) (bool, error) {
	v, err := r.Eval(ctx, expr, frame)
	if err != nil {
		return false, err
	}
	switch v {
	case "False", "None", "0", `""`, "[]", "{}":
		return false, nil
	}
	return true, nil
}

// Exec implements trace.Runtime. Only "name = value" statements are
// understood; they assign into the frame's locals for the current event.
func (r *Runtime) Exec(ctx context.Context, stmt string, frame int) error {
	r.mu.Lock()
	r.executed = append(r.executed, stmt)
	r.mu.Unlock()

	locals, err := r.locals(frame)
	if err != nil {
		return err
	}
	name, value, ok := strings.Cut(stmt, "=")
	if !ok {
		return &trace.EvalError{Expr: stmt, Err: fmt.Errorf("unsupported statement")}
	}
	name = strings.TrimSpace(name)
	v, err := r.eval(strings.TrimSpace(value), locals, r.prog.globals)
	if err != nil {
		return &trace.EvalError{Expr: stmt, Err: err}
	}
	locals[name] = v
	return nil
}

// runNested executes sub under Continue. Candidate stops go to the nested
// handler, which drives the sub-execution through Resume.
func (r *Runtime) runNested(ctx context.Context, sub *Program) error {
	ex := &execution{events: sub.events, pos: -1, nested: true}
	ex.stepper.Begin(trace.Directive{Kind: trace.Continue}, "", 0, 0)
	r.stack = append(r.stack, ex)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
	}()

	for {
		ev := r.run(ex)
		if ev.Kind == trace.StopTerminated {
			return nil
		}
		if r.nested == nil {
			continue
		}
		if r.nested(ctx, ev) {
			return trace.ErrEvalAbandoned
		}
		if ex.done {
			return nil
		}
		ex.stepper.Begin(trace.Directive{Kind: trace.Continue, Reissue: true}, "", 0, 0)
	}
}

// SetBreakpoints implements trace.Runtime.
func (r *Runtime) SetBreakpoints(ctx context.Context, file string, lines []int) error {
	set := make(map[int]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	r.breakpoints[file] = set
	return nil
}

// SetNestedHandler implements trace.Runtime.
func (r *Runtime) SetNestedHandler(h trace.NestedHandler) {
	r.nested = h
}

// Interrupt implements trace.Runtime.
func (r *Runtime) Interrupt() {
	r.interrupted.Store(true)
}

// Detach implements trace.Runtime.
func (r *Runtime) Detach(ctx context.Context) error {
	r.detached = true
	return nil
}

// DefaultEval resolves names from locals then globals and accepts literals.
func DefaultEval(expr string, locals, globals map[string]string) (string, error) {
	expr = strings.TrimSpace(expr)
	if v, ok := locals[expr]; ok {
		return v, nil
	}
	if v, ok := globals[expr]; ok {
		return v, nil
	}
	switch expr {
	case "True", "False", "None":
		return expr, nil
	}
	if _, err := strconv.Atoi(expr); err == nil {
		return expr, nil
	}
	if len(expr) >= 2 && (expr[0] == '"' || expr[0] == '\'') && expr[len(expr)-1] == expr[0] {
		return strconv.Quote(expr[1 : len(expr)-1]), nil
	}
	return "", fmt.Errorf("name '%s' is not defined", expr)
}
