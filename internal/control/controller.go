package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/breakpoint"
	"github.com/dshills/perch/internal/trace"
)

// Stop is a surfaced stop: the runtime event after breakpoint processing.
type Stop struct {
	Event trace.StopEvent

	// Breakpoint is the breakpoint that caused a StopBreakpoint.
	Breakpoint *breakpoint.Breakpoint

	// Deleted is set when Breakpoint was temporary and has been removed.
	Deleted bool

	// Warnings collects condition failures seen while getting here,
	// including those of suppressed stops.
	Warnings []error
}

// Controller drives one session level's execution.
type Controller struct {
	rt     trace.Runtime
	table  *breakpoint.Table
	logger zerolog.Logger

	continuePastExceptions bool

	mu    sync.RWMutex
	state State
	last  trace.StopEvent
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithContinuePastExceptions makes exception stops resume automatically.
func WithContinuePastExceptions(on bool) Option {
	return func(c *Controller) {
		c.continuePastExceptions = on
	}
}

// WithTable shares an existing breakpoint table.
func WithTable(t *breakpoint.Table) Option {
	return func(c *Controller) {
		c.table = t
	}
}

// New creates a controller in the Running state: the program is assumed to
// be starting and the first stop has not yet been seen.
func New(rt trace.Runtime, opts ...Option) *Controller {
	c := &Controller{
		rt:     rt,
		logger: zerolog.Nop(),
		state:  Running,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.table == nil {
		c.table = breakpoint.NewTable()
	}
	return c
}

// Nested returns a controller for a nested session. It shares the runtime,
// the breakpoint table and the settings, and starts in the Running state
// until Accept is called with the stop that created it.
func (c *Controller) Nested() *Controller {
	return &Controller{
		rt:                     c.rt,
		table:                  c.table,
		logger:                 c.logger,
		continuePastExceptions: c.continuePastExceptions,
		state:                  Running,
	}
}

// Runtime returns the trace runtime.
func (c *Controller) Runtime() trace.Runtime {
	return c.rt
}

// Breakpoints returns the read-only view of the breakpoint table.
func (c *Controller) Breakpoints() breakpoint.Reader {
	return c.table
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastStop returns the event of the most recent surfaced stop.
func (c *Controller) LastStop() trace.StopEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// SetContinuePastExceptions updates the exception policy.
func (c *Controller) SetContinuePastExceptions(on bool) {
	c.mu.Lock()
	c.continuePastExceptions = on
	c.mu.Unlock()
}

// Start runs the program to its first surfaced stop.
func (c *Controller) Start(ctx context.Context) (Stop, error) {
	if c.State() == Terminated {
		return Stop{}, ErrSessionClosed
	}
	ev, err := c.rt.Start(ctx)
	if err != nil {
		return Stop{}, c.fail(err)
	}
	stop, ok := c.process(ctx, ev, nil)
	if ok {
		return c.surface(stop), nil
	}
	return c.resume(ctx, trace.Directive{Kind: trace.Continue, Reissue: true}, stop.Warnings)
}

// Accept processes a stop that arrived without a Resume call, such as a
// nested stop raised during evaluation. The boolean is false when the stop
// was suppressed; the caller should then let execution go on.
func (c *Controller) Accept(ctx context.Context, ev trace.StopEvent) (Stop, bool) {
	stop, ok := c.process(ctx, ev, nil)
	if !ok {
		return stop, false
	}
	return c.surface(stop), true
}

// Resume issues a directive and blocks until the next surfaced stop.
func (c *Controller) Resume(ctx context.Context, d trace.Directive) (Stop, error) {
	switch c.State() {
	case Terminated:
		return Stop{}, ErrSessionClosed
	case Running:
		return Stop{}, fmt.Errorf("resume %s: program is already running", d)
	}
	return c.resume(ctx, d, nil)
}

func (c *Controller) resume(ctx context.Context, d trace.Directive, warnings []error) (Stop, error) {
	c.setState(Running)
	c.logger.Debug().Str("directive", d.String()).Msg("resume")

	for {
		ev, err := c.rt.Resume(ctx, d)
		if err != nil {
			return Stop{}, c.fail(err)
		}
		stop, ok := c.process(ctx, ev, warnings)
		if ok {
			return c.surface(stop), nil
		}
		warnings = stop.Warnings
		d.Reissue = true
		c.logger.Debug().
			Str("file", ev.Frame.File).
			Int("line", ev.Frame.Line).
			Msg("stop suppressed")
	}
}

// process decides whether ev surfaces. It returns false for suppressed stops.
func (c *Controller) process(ctx context.Context, ev trace.StopEvent, warnings []error) (Stop, bool) {
	stop := Stop{Event: ev, Warnings: warnings}

	switch ev.Kind {
	case trace.StopTerminated:
		return stop, true
	case trace.StopInterrupt:
		return stop, true
	case trace.StopException:
		c.mu.RLock()
		skip := c.continuePastExceptions
		c.mu.RUnlock()
		return stop, !skip
	}

	m := c.table.Check(ev.Frame.File, ev.Frame.Line, func(expr string) (bool, error) {
		return c.rt.EvalCondition(ctx, expr, 0)
	})
	stop.Warnings = append(stop.Warnings, m.Warnings...)

	if m.Stop != nil {
		stop.Event.Kind = trace.StopBreakpoint
		stop.Breakpoint = m.Stop
		if m.Stop.Temporary {
			if _, err := c.table.Remove(m.Stop.ID); err == nil {
				stop.Deleted = true
				c.sync(ctx, m.Stop.File)
			}
		}
		return stop, true
	}

	if ev.Kind == trace.StopBreakpoint {
		// Only the breakpoint wanted this stop and it declined.
		return stop, false
	}
	return stop, true
}

func (c *Controller) surface(stop Stop) Stop {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = stop.Event
	if stop.Event.Kind == trace.StopTerminated {
		c.state = Terminated
	} else {
		c.state = Paused
	}
	c.logger.Debug().
		Str("kind", stop.Event.Kind.String()).
		Str("file", stop.Event.Frame.File).
		Int("line", stop.Event.Frame.Line).
		Msg("stop")
	return stop
}

func (c *Controller) fail(err error) error {
	if errors.Is(err, trace.ErrDetached) {
		c.setState(Terminated)
		return err
	}
	// A failed resume leaves the program where it was.
	c.setState(Paused)
	return err
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Interrupt asks the runtime to stop at the next opportunity. Safe to call
// from a signal handler goroutine.
func (c *Controller) Interrupt() {
	if c.State() == Running {
		c.rt.Interrupt()
	}
}

// Detach ends tracing and terminates this level.
func (c *Controller) Detach(ctx context.Context) error {
	if c.State() == Terminated {
		return nil
	}
	c.setState(Terminated)
	return c.rt.Detach(ctx)
}

// Terminate marks this level finished without touching the runtime. Used by
// nested sessions, whose runtime belongs to the outer level.
func (c *Controller) Terminate() {
	c.setState(Terminated)
}
