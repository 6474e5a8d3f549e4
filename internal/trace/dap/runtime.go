package dap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/trace"
)

// Launch describes how the debuggee is started: the request name
// ("launch" or "attach") and its adapter-specific arguments.
type Launch struct {
	AdapterID string
	Request   string
	Args      json.RawMessage
}

type frame struct {
	id   int
	info trace.FrameInfo
}

// Runtime is a trace.Runtime backed by a debug adapter.
type Runtime struct {
	client *Client
	launch Launch
	out    io.Writer
	logger zerolog.Logger

	caps    Capabilities
	thread  atomic.Int64
	started bool
	frames  []frame

	// anchor is the directive being carried out and the depth it began at.
	anchor      trace.Directive
	anchorDepth int

	pending    map[string][]int
	configured bool

	exitCode   int
	terminated bool
	detached   bool
	nested     trace.NestedHandler
}

var _ trace.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithOutput sets where debuggee output events are written.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime wraps a connected client.
func NewRuntime(c *Client, launch Launch, opts ...Option) *Runtime {
	r := &Runtime{
		client:  c,
		launch:  launch,
		out:     os.Stdout,
		logger:  zerolog.Nop(),
		pending: make(map[string][]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start implements trace.Runtime. It performs the initialize, launch and
// configuration handshake and waits for the entry stop.
func (r *Runtime) Start(ctx context.Context) (trace.StopEvent, error) {
	if r.detached {
		return trace.StopEvent{}, trace.ErrDetached
	}
	if r.started {
		return trace.StopEvent{}, errors.New("program already started")
	}
	r.started = true

	err := r.client.Call(ctx, "initialize", InitializeArguments{
		ClientID:             "perch",
		ClientName:           "perch",
		AdapterID:            r.launch.AdapterID,
		LinesStartAt1:        true,
		ColumnsStartAt1:      true,
		PathFormat:           "path",
		SupportsVariableType: true,
	}, &r.caps)
	if err != nil {
		return trace.StopEvent{}, fmt.Errorf("initialize: %w", err)
	}

	// Some adapters answer launch only after configurationDone, so the
	// request is left in flight while configuration proceeds.
	launched := make(chan error, 1)
	go func() {
		launched <- r.client.Call(ctx, r.launch.Request, r.launch.Args, nil)
	}()

	launchDone, err := r.awaitInitialized(ctx, launched)
	if err != nil {
		return trace.StopEvent{}, err
	}
	r.configured = true
	for file, lines := range r.pending {
		if err := r.sendBreakpoints(ctx, file, lines); err != nil {
			r.logger.Warn().Err(err).Str("file", file).Msg("breakpoints rejected")
		}
	}
	if r.caps.SupportsConfigurationDoneRequest {
		if err := r.client.Call(ctx, "configurationDone", nil, nil); err != nil {
			return trace.StopEvent{}, fmt.Errorf("configurationDone: %w", err)
		}
	}
	if !launchDone {
		select {
		case err := <-launched:
			if err != nil {
				return trace.StopEvent{}, fmt.Errorf("%s: %w", r.launch.Request, err)
			}
		case <-ctx.Done():
			return trace.StopEvent{}, ctx.Err()
		}
	}

	r.anchor = trace.Directive{Kind: trace.StepInto}
	r.anchorDepth = 1
	return r.awaitStop(ctx)
}

// awaitInitialized waits for the initialized event and reports whether the
// launch request has already been answered.
func (r *Runtime) awaitInitialized(ctx context.Context, launched <-chan error) (bool, error) {
	done := false
	for {
		select {
		case ev, ok := <-r.client.Events():
			if !ok {
				return done, fmt.Errorf("adapter exited during startup: %w", r.connErr())
			}
			switch ev.Name {
			case "initialized":
				return done, nil
			case "output":
				r.output(ev)
			case "terminated", "exited":
				return done, errors.New("debuggee ended during startup")
			}
		case err := <-launched:
			if err != nil {
				return true, fmt.Errorf("%s: %w", r.launch.Request, err)
			}
			done = true
			launched = nil
		case <-ctx.Done():
			return done, ctx.Err()
		}
	}
}

func (r *Runtime) connErr() error {
	if err := r.client.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// awaitStop consumes events until the debuggee stops or ends.
func (r *Runtime) awaitStop(ctx context.Context) (trace.StopEvent, error) {
	for {
		select {
		case ev, ok := <-r.client.Events():
			if !ok {
				if r.detached {
					return trace.StopEvent{}, trace.ErrDetached
				}
				r.terminated = true
				return trace.StopEvent{Kind: trace.StopTerminated, ExitCode: r.exitCode}, nil
			}
			switch ev.Name {
			case "stopped":
				var body StoppedEvent
				if err := json.Unmarshal(ev.Body, &body); err != nil {
					return trace.StopEvent{}, fmt.Errorf("decode stopped event: %w", err)
				}
				return r.stopped(ctx, body)
			case "exited":
				var body ExitedEvent
				if err := json.Unmarshal(ev.Body, &body); err == nil {
					r.exitCode = body.ExitCode
				}
			case "terminated":
				r.terminated = true
				r.frames = nil
				return trace.StopEvent{Kind: trace.StopTerminated, ExitCode: r.exitCode}, nil
			case "output":
				r.output(ev)
			}
		case <-ctx.Done():
			return trace.StopEvent{}, ctx.Err()
		}
	}
}

func (r *Runtime) output(ev Event) {
	var body OutputEvent
	if err := json.Unmarshal(ev.Body, &body); err != nil {
		return
	}
	if body.Category == "telemetry" {
		return
	}
	fmt.Fprint(r.out, body.Output)
}

func (r *Runtime) stopped(ctx context.Context, body StoppedEvent) (trace.StopEvent, error) {
	if body.ThreadID != 0 {
		r.thread.Store(int64(body.ThreadID))
	} else if r.thread.Load() == 0 {
		var threads ThreadsResponse
		if err := r.client.Call(ctx, "threads", nil, &threads); err != nil {
			return trace.StopEvent{}, fmt.Errorf("threads: %w", err)
		}
		if len(threads.Threads) == 0 {
			return trace.StopEvent{}, errors.New("stopped without threads")
		}
		r.thread.Store(int64(threads.Threads[0].ID))
	}
	if err := r.loadFrames(ctx); err != nil {
		return trace.StopEvent{}, err
	}

	ev := trace.StopEvent{}
	if len(r.frames) > 0 {
		ev.Frame = r.frames[0].info
	}
	depth := len(r.frames)
	switch body.Reason {
	case "breakpoint", "function breakpoint", "data breakpoint", "instruction breakpoint":
		ev.Kind = trace.StopBreakpoint
	case "exception":
		ev.Kind = trace.StopException
		ev.Err = body.Text
		if ev.Err == "" {
			ev.Err = body.Description
		}
	case "pause":
		ev.Kind = trace.StopInterrupt
	default:
		switch {
		case depth > r.anchorDepth && r.anchor.Kind == trace.StepInto:
			ev.Kind = trace.StopCall
		case depth < r.anchorDepth:
			ev.Kind = trace.StopReturn
		default:
			ev.Kind = trace.StopLine
		}
	}
	r.logger.Debug().Str("reason", body.Reason).Stringer("kind", ev.Kind).Str("at", ev.Frame.String()).Msg("stopped")
	return ev, nil
}

func (r *Runtime) loadFrames(ctx context.Context) error {
	var st StackTraceResponse
	if err := r.client.Call(ctx, "stackTrace", StackTraceArguments{ThreadID: int(r.thread.Load())}, &st); err != nil {
		return fmt.Errorf("stackTrace: %w", err)
	}
	r.frames = r.frames[:0]
	for _, sf := range st.StackFrames {
		info := trace.FrameInfo{Line: sf.Line, Function: sf.Name}
		if sf.Source != nil {
			info.File = sf.Source.Path
			if info.File == "" {
				info.File = sf.Source.Name
			}
		}
		info.Hidden = info.File == "" || sf.PresentationHint == "label" || sf.PresentationHint == "subtle"
		r.frames = append(r.frames, frame{id: sf.ID, info: info})
	}
	return nil
}

// Resume implements trace.Runtime.
func (r *Runtime) Resume(ctx context.Context, d trace.Directive) (trace.StopEvent, error) {
	if err := r.paused(); err != nil {
		return trace.StopEvent{}, err
	}
	if !d.Reissue {
		r.anchor = d
		r.anchorDepth = len(r.frames)
	}

	switch r.anchor.Kind {
	case trace.ContinueUntil:
		if r.anchor.Exact {
			return r.runToLine(ctx, r.anchor.File, r.anchor.Line)
		}
		return r.until(ctx)
	case trace.Continue:
		return r.step(ctx, "continue")
	}

	// A stop suppressed inside a callee finishes the callee first.
	if d.Reissue && len(r.frames) > r.anchorDepth {
		return r.step(ctx, "stepOut")
	}
	switch r.anchor.Kind {
	case trace.StepInto:
		return r.step(ctx, "stepIn")
	case trace.StepOver:
		return r.step(ctx, "next")
	default:
		return r.step(ctx, "stepOut")
	}
}

func (r *Runtime) paused() error {
	switch {
	case r.detached:
		return trace.ErrDetached
	case r.terminated:
		return trace.ErrDetached
	case !r.started || len(r.frames) == 0:
		return trace.ErrNotPaused
	}
	return nil
}

func (r *Runtime) step(ctx context.Context, command string) (trace.StopEvent, error) {
	if err := r.client.Call(ctx, command, ThreadArguments{ThreadID: int(r.thread.Load())}, nil); err != nil {
		return trace.StopEvent{}, r.requestFailed(command, err)
	}
	return r.awaitStop(ctx)
}

func (r *Runtime) requestFailed(command string, err error) error {
	if errors.Is(err, ErrClosed) {
		return trace.ErrDetached
	}
	return fmt.Errorf("%s: %w", command, err)
}

// until steps over lines until the anchored frame reaches the target line
// or returns.
func (r *Runtime) until(ctx context.Context) (trace.StopEvent, error) {
	for {
		ev, err := r.step(ctx, "next")
		if err != nil || ev.Kind != trace.StopLine {
			return ev, err
		}
		depth := len(r.frames)
		if depth < r.anchorDepth {
			ev.Kind = trace.StopReturn
			return ev, nil
		}
		if depth == r.anchorDepth && ev.Frame.Line >= r.anchor.Line {
			return ev, nil
		}
	}
}

// runToLine continues with an extra adapter breakpoint on the target line.
func (r *Runtime) runToLine(ctx context.Context, file string, line int) (trace.StopEvent, error) {
	lines := append(append([]int(nil), r.pending[file]...), line)
	if err := r.sendBreakpoints(ctx, file, lines); err != nil {
		return trace.StopEvent{}, err
	}
	ev, err := r.step(ctx, "continue")
	if r.terminated || r.detached {
		return ev, err
	}
	if restoreErr := r.sendBreakpoints(ctx, file, r.pending[file]); restoreErr != nil {
		r.logger.Warn().Err(restoreErr).Str("file", file).Msg("restoring breakpoints")
	}
	if err == nil && ev.Kind == trace.StopBreakpoint && ev.Frame.File == file && ev.Frame.Line == line && !contains(r.pending[file], line) {
		ev.Kind = trace.StopLine
	}
	return ev, err
}

func contains(lines []int, line int) bool {
	for _, l := range lines {
		if l == line {
			return true
		}
	}
	return false
}

// Frames implements trace.Runtime.
func (r *Runtime) Frames(ctx context.Context) ([]trace.FrameInfo, error) {
	if err := r.paused(); err != nil {
		return nil, err
	}
	out := make([]trace.FrameInfo, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.info
	}
	return out, nil
}

func (r *Runtime) frameID(frame int) (int, error) {
	if err := r.paused(); err != nil {
		return 0, err
	}
	if frame < 0 || frame >= len(r.frames) {
		return 0, trace.ErrNoFrame
	}
	return r.frames[frame].id, nil
}

// Locals implements trace.Runtime. Variables from argument scopes are
// flagged as parameters.
func (r *Runtime) Locals(ctx context.Context, frame int) ([]trace.Variable, error) {
	return r.scoped(ctx, frame, func(s Scope) (bool, bool) {
		name := strings.ToLower(s.Name)
		switch {
		case s.PresentationHint == "arguments" || strings.HasPrefix(name, "argument"):
			return true, true
		case s.PresentationHint == "locals" || strings.HasPrefix(name, "local"):
			return true, false
		}
		return false, false
	})
}

// Globals implements trace.Runtime.
func (r *Runtime) Globals(ctx context.Context, frame int) ([]trace.Variable, error) {
	return r.scoped(ctx, frame, func(s Scope) (bool, bool) {
		return strings.HasPrefix(strings.ToLower(s.Name), "global"), false
	})
}

func (r *Runtime) scoped(ctx context.Context, frame int, pick func(Scope) (use, param bool)) ([]trace.Variable, error) {
	id, err := r.frameID(frame)
	if err != nil {
		return nil, err
	}
	var scopes ScopesResponse
	if err := r.client.Call(ctx, "scopes", ScopesArguments{FrameID: id}, &scopes); err != nil {
		return nil, r.requestFailed("scopes", err)
	}
	var vars []trace.Variable
	for _, s := range scopes.Scopes {
		use, param := pick(s)
		if !use || s.VariablesReference == 0 {
			continue
		}
		var resp VariablesResponse
		if err := r.client.Call(ctx, "variables", VariablesArguments{VariablesReference: s.VariablesReference}, &resp); err != nil {
			return nil, r.requestFailed("variables", err)
		}
		for _, v := range resp.Variables {
			vars = append(vars, trace.Variable{Name: v.Name, Type: v.Type, Value: v.Value, Param: param})
		}
	}
	return vars, nil
}

// Eval implements trace.Runtime. Adapters do not report stops raised while
// evaluating, so the nested handler is never invoked.
func (r *Runtime) Eval(ctx context.Context, expr string, frame int) (string, error) {
	resp, err := r.evaluate(ctx, expr, frame, "repl")
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

func (r *Runtime) evaluate(ctx context.Context, expr string, frame int, evalContext string) (EvaluateResponse, error) {
	id, err := r.frameID(frame)
	if err != nil {
		return EvaluateResponse{}, err
	}
	var resp EvaluateResponse
	err = r.client.Call(ctx, "evaluate", EvaluateArguments{Expression: expr, FrameID: id, Context: evalContext}, &resp)
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return resp, &trace.EvalError{Expr: expr, Err: errors.New(reqErr.Message)}
	}
	if err != nil {
		return resp, r.requestFailed("evaluate", err)
	}
	return resp, nil
}

// EvalCondition implements trace.Runtime. Truth is judged from the
// rendered result, which covers the falsy literals of Go, Python and
// JavaScript.
func (r *Runtime) EvalCondition(ctx context.Context, expr string, frame int) (bool, error) {
	resp, err := r.evaluate(ctx, expr, frame, "watch")
	if err != nil {
		return false, err
	}
	return truthy(resp.Result), nil
}

func truthy(result string) bool {
	switch strings.TrimSpace(result) {
	case "", "false", "False", "0", "0.0", "None", "nil", "null", "undefined",
		`""`, "''", "[]", "{}", "()", "NaN":
		return false
	}
	return true
}

// Exec implements trace.Runtime by evaluating the statement in the repl
// context, which adapters execute for its effect.
func (r *Runtime) Exec(ctx context.Context, stmt string, frame int) error {
	_, err := r.evaluate(ctx, stmt, frame, "repl")
	return err
}

// SetBreakpoints implements trace.Runtime. Before the configuration phase
// the lines are held and sent during startup.
func (r *Runtime) SetBreakpoints(ctx context.Context, file string, lines []int) error {
	if r.detached {
		return trace.ErrDetached
	}
	r.pending[file] = append([]int(nil), lines...)
	if !r.configured || r.terminated {
		return nil
	}
	return r.sendBreakpoints(ctx, file, lines)
}

func (r *Runtime) sendBreakpoints(ctx context.Context, file string, lines []int) error {
	args := SetBreakpointsArguments{Source: Source{Path: file}, Breakpoints: []SourceBreakpoint{}}
	for _, l := range lines {
		args.Breakpoints = append(args.Breakpoints, SourceBreakpoint{Line: l})
	}
	var resp SetBreakpointsResponse
	if err := r.client.Call(ctx, "setBreakpoints", args, &resp); err != nil {
		return r.requestFailed("setBreakpoints", err)
	}
	for _, bp := range resp.Breakpoints {
		if !bp.Verified {
			r.logger.Debug().Str("file", file).Int("line", bp.Line).Str("message", bp.Message).Msg("breakpoint not verified")
		}
	}
	return nil
}

// SetNestedHandler implements trace.Runtime.
func (r *Runtime) SetNestedHandler(h trace.NestedHandler) {
	r.nested = h
}

// Interrupt implements trace.Runtime. The pause request is sent in the
// background; the resulting stop arrives through the pending Resume.
func (r *Runtime) Interrupt() {
	thread := int(r.thread.Load())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.Call(ctx, "pause", ThreadArguments{ThreadID: thread}, nil); err != nil {
			r.logger.Debug().Err(err).Msg("pause")
		}
	}()
}

// Detach implements trace.Runtime. A launched debuggee is terminated; an
// attached one is left running.
func (r *Runtime) Detach(ctx context.Context) error {
	if r.detached {
		return nil
	}
	r.detached = true
	var err error
	if r.started && !r.terminated {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err = r.client.Call(ctx, "disconnect", DisconnectArguments{
			TerminateDebuggee: r.launch.Request == "launch",
		}, nil)
		if errors.Is(err, ErrClosed) {
			err = nil
		}
	}
	if closeErr := r.client.Close(); err == nil {
		err = closeErr
	}
	return err
}
