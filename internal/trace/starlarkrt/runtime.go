package starlarkrt

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/dshills/perch/internal/trace"
)

// Runtime runs one Starlark program under trace.
type Runtime struct {
	filename    string
	src         []byte
	opts        *syntax.FileOptions
	predeclared starlark.StringDict
	out         io.Writer
	logger      zerolog.Logger

	mu          sync.Mutex
	breakpoints map[string]map[int]bool
	loaded      map[string]*loadEntry

	interrupted atomic.Bool

	// Fields below are touched only by the goroutine driving the session.
	nested   trace.NestedHandler
	stack    []*execution
	scratch  starlark.StringDict
	started  bool
	detached bool
}

var (
	_ trace.Runtime = (*Runtime)(nil)
	_ trace.Locator = (*Runtime)(nil)
)

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithPredeclared adds names visible to the program and to evaluated
// expressions.
func WithPredeclared(env starlark.StringDict) Option {
	return func(r *Runtime) {
		for k, v := range env {
			r.predeclared[k] = v
		}
	}
}

// WithArgs exposes the program arguments as the predeclared list argv.
func WithArgs(args []string) Option {
	return func(r *Runtime) {
		elems := make([]starlark.Value, len(args))
		for i, a := range args {
			elems[i] = starlark.String(a)
		}
		argv := starlark.NewList(elems)
		argv.Freeze()
		r.predeclared["argv"] = argv
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithFileOptions replaces the dialect options.
func WithFileOptions(opts *syntax.FileOptions) Option {
	return func(r *Runtime) {
		r.opts = opts
	}
}

// DefaultFileOptions enables the language extensions scripts commonly use.
func DefaultFileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

// New creates a runtime for the program src, reported under filename.
func New(filename string, src []byte, opts ...Option) *Runtime {
	r := &Runtime{
		filename:    filename,
		src:         src,
		opts:        DefaultFileOptions(),
		predeclared: starlark.StringDict{},
		out:         os.Stdout,
		logger:      zerolog.Nop(),
		breakpoints: make(map[string]map[int]bool),
		loaded:      make(map[string]*loadEntry),
		scratch:     starlark.StringDict{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open reads the program at path.
func Open(path string, opts ...Option) (*Runtime, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return New(abs, src, opts...), nil
}

func (r *Runtime) newThread(name string) *starlark.Thread {
	th := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(r.out, msg)
		},
		Load: r.load,
	}
	return th
}

// compile parses src, marks its statements and resolves it.
func (r *Runtime) compile(filename string, src []byte) (*starlark.Program, error) {
	f, err := r.opts.Parse(filename, src, 0)
	if err != nil {
		return nil, err
	}
	instrument(f)
	return starlark.FileProgram(f, func(name string) bool {
		return name == lineMarker || r.predeclared.Has(name)
	})
}

// programEnv is what traced files see: the predeclared names plus the line
// marker. Expressions typed at the prompt see only the former.
func (r *Runtime) programEnv() starlark.StringDict {
	env := make(starlark.StringDict, len(r.predeclared)+1)
	for k, v := range r.predeclared {
		env[k] = v
	}
	env[lineMarker] = lineBuiltin
	return env
}

// Start implements trace.Runtime.
func (r *Runtime) Start(ctx context.Context) (trace.StopEvent, error) {
	if r.detached {
		return trace.StopEvent{}, trace.ErrDetached
	}
	if r.started {
		return trace.StopEvent{}, fmt.Errorf("program already started")
	}
	r.started = true

	prog, err := r.compile(r.filename, r.src)
	if err != nil {
		return trace.StopEvent{}, fmt.Errorf("compile %s: %w", r.filename, err)
	}

	ex := r.newExecution("main", false)
	ex.stepper.Begin(trace.Directive{Kind: trace.StepInto}, r.filename, 0, 1)
	r.stack = append(r.stack, ex)
	r.logger.Debug().Str("file", r.filename).Msg("starting program")

	ex.start(func(th *starlark.Thread) (starlark.Value, starlark.StringDict, error) {
		globals, err := prog.Init(th, r.programEnv())
		return starlark.None, globals, err
	})
	return r.wait(ctx, ex)
}

// Resume implements trace.Runtime.
func (r *Runtime) Resume(ctx context.Context, d trace.Directive) (trace.StopEvent, error) {
	ex, err := r.top()
	if err != nil {
		return trace.StopEvent{}, err
	}
	if ex.done {
		if ex.failure != nil && !ex.failureReported {
			ex.failureReported = true
			return trace.StopEvent{Kind: trace.StopTerminated, Nested: ex.nested, ExitCode: 1}, nil
		}
		return trace.StopEvent{}, trace.ErrDetached
	}
	if !ex.paused {
		return trace.StopEvent{}, trace.ErrNotPaused
	}
	ex.paused = false
	ex.directives <- resumeCmd{d: d}
	return r.wait(ctx, ex)
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

// SetBreakpoints implements trace.Runtime.
func (r *Runtime) SetBreakpoints(ctx context.Context, file string, lines []int) error {
	set := make(map[int]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakpoints[file] = set
	return nil
}

func (r *Runtime) hasBreakpoint(file string, line int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakpoints[file][line]
}

// SetNestedHandler implements trace.Runtime.
func (r *Runtime) SetNestedHandler(h trace.NestedHandler) {
	r.nested = h
}

// Interrupt implements trace.Runtime.
func (r *Runtime) Interrupt() {
	r.interrupted.Store(true)
}

// Detach implements trace.Runtime. Every execution still alive is unwound.
func (r *Runtime) Detach(ctx context.Context) error {
	if r.detached {
		return nil
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		r.stack[i].abort()
	}
	r.stack = nil
	r.detached = true
	r.logger.Debug().Msg("detached")
	return nil
}

// load implements the load statement relative to the main program.
func (r *Runtime) load(th *starlark.Thread, module string) (starlark.StringDict, error) {
	path := module
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(r.filename), module)
	}

	r.mu.Lock()
	if e, ok := r.loaded[path]; ok {
		r.mu.Unlock()
		if e == nil {
			return nil, fmt.Errorf("cycle in load graph at %s", module)
		}
		return e.globals, e.err
	}
	r.loaded[path] = nil
	r.mu.Unlock()

	e := &loadEntry{}
	src, err := os.ReadFile(path)
	if err == nil {
		var prog *starlark.Program
		prog, err = r.compile(path, src)
		if err == nil {
			e.globals, err = prog.Init(th, r.programEnv())
			e.globals.Freeze()
		}
	}
	e.err = err

	r.mu.Lock()
	r.loaded[path] = e
	r.mu.Unlock()
	return e.globals, e.err
}
