package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/command"
	"github.com/dshills/perch/internal/control"
	"github.com/dshills/perch/internal/source"
	"github.com/dshills/perch/internal/sticky"
	"github.com/dshills/perch/internal/trace"
)

// Manager owns the stack of session levels.
type Manager struct {
	fe          Frontend
	src         *source.Cache
	highlighter sticky.Highlighter
	aliases     *command.AliasTable
	history     *command.History
	macros      command.Macros
	logger      zerolog.Logger

	mu      sync.Mutex
	cfg     Config
	pending *Config
	levels  []*State

	// fatal is set when a nested level saw the runtime go away; the outer
	// levels unwind on it.
	fatal error
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the initial settings.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithSource shares a source cache.
func WithSource(c *source.Cache) Option {
	return func(m *Manager) {
		m.src = c
	}
}

// WithHighlighter sets the syntax highlighter of the sticky view.
func WithHighlighter(h sticky.Highlighter) Option {
	return func(m *Manager) {
		m.highlighter = h
	}
}

// WithAliases sets the alias table shared by all levels.
func WithAliases(t *command.AliasTable) Option {
	return func(m *Manager) {
		m.aliases = t
	}
}

// WithHistory sets the command history shared by all levels.
func WithHistory(h *command.History) Option {
	return func(m *Manager) {
		m.history = h
	}
}

// WithMacros sets the macro expander.
func WithMacros(mac command.Macros) Option {
	return func(m *Manager) {
		m.macros = mac
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a manager talking to fe.
func NewManager(fe Frontend, opts ...Option) *Manager {
	m := &Manager{
		fe:     fe,
		cfg:    DefaultConfig(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.src == nil {
		m.src = source.NewCache()
	}
	if m.aliases == nil {
		m.aliases = command.NewAliasTable()
	}
	if m.history == nil {
		m.history = command.NewHistory()
	}
	return m
}

// History returns the shared command history.
func (m *Manager) History() *command.History {
	return m.history
}

// Source returns the source cache.
func (m *Manager) Source() *source.Cache {
	return m.src
}

func (m *Manager) config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Reload replaces the settings. They take effect at the next prompt.
func (m *Manager) Reload(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &cfg
}

func (m *Manager) applyPending() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	if pending != nil {
		m.cfg = *pending
	}
	levels := append([]*State(nil), m.levels...)
	m.mu.Unlock()

	if pending == nil {
		return
	}
	for _, st := range levels {
		st.applyConfig(*pending)
	}
	m.logger.Info().Msg("configuration reloaded")
}

// Depth returns the number of active levels.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.levels)
}

func (m *Manager) top() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.levels) == 0 {
		return nil
	}
	return m.levels[len(m.levels)-1]
}

func (m *Manager) push(ctx context.Context, ctl *control.Controller) *State {
	m.mu.Lock()
	depth := len(m.levels)
	m.mu.Unlock()

	st := newState(ctx, m, ctl, depth)

	m.mu.Lock()
	m.levels = append(m.levels, st)
	m.mu.Unlock()
	st.logger.Debug().Msg("session level entered")
	return st
}

func (m *Manager) pop() {
	m.mu.Lock()
	st := m.levels[len(m.levels)-1]
	m.levels = m.levels[:len(m.levels)-1]
	m.mu.Unlock()
	st.disp.Reset()
	st.logger.Debug().Bool("quit", st.quit).Msg("session level left")
}

// Interrupt asks the running program to stop. It is safe to call from a
// signal handler goroutine.
func (m *Manager) Interrupt() {
	if st := m.top(); st != nil {
		st.ctl.Interrupt()
	}
}

// Run debugs the program behind rt until the user quits or the runtime goes
// away. Only a detached runtime is reported as an error.
func (m *Manager) Run(ctx context.Context, rt trace.Runtime) error {
	cfg := m.config()
	ctl := control.New(rt,
		control.WithLogger(m.logger),
		control.WithContinuePastExceptions(cfg.ContinuePastExceptions),
	)
	rt.SetNestedHandler(m.nested)

	st := m.push(ctx, ctl)
	defer m.pop()

	stop, err := ctl.Start(ctx)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	loopErr := m.loop(st, stop)

	ctl.Terminate()
	if err := rt.Detach(ctx); err != nil && !errors.Is(err, trace.ErrDetached) {
		m.logger.Warn().Err(err).Msg("detach")
	}
	return loopErr
}

// nested drives a level for a stop raised while an expression of the
// innermost level was being evaluated.
func (m *Manager) nested(ctx context.Context, ev trace.StopEvent) bool {
	parent := m.top()
	if parent == nil {
		return false
	}
	ctl := parent.ctl.Nested()
	stop, ok := ctl.Accept(ctx, ev)
	if !ok {
		return false
	}

	st := m.push(ctx, ctl)
	err := m.loop(st, stop)
	ctl.Terminate()
	m.pop()
	parent.reenter()

	if err != nil {
		m.mu.Lock()
		m.fatal = err
		m.mu.Unlock()
		return true
	}
	return st.quit
}

func (m *Manager) takeFatal() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fatal
}
