package macro

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/perch/internal/command"
)

var _ command.Macros = (*Set)(nil)

// Macro is one registered macro.
type Macro struct {
	Name string
	Help string
	// Source is the file that registered the macro.
	Source string

	text string
	fn   *lua.LFunction
}

// Set holds the macros of one Lua state. It is safe for concurrent use;
// Lua code itself runs one call at a time.
type Set struct {
	mu      sync.Mutex
	L       *lua.LState
	macros  map[string]*Macro
	timeout time.Duration
	logger  zerolog.Logger
	out     io.Writer
	loading string
	closed  bool
}

// Option configures a Set.
type Option func(*Set)

// WithTimeout bounds each load and expansion.
func WithTimeout(d time.Duration) Option {
	return func(s *Set) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithOutput receives what macros print.
func WithOutput(w io.Writer) Option {
	return func(s *Set) {
		s.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Set) {
		s.logger = l
	}
}

// New creates an empty set.
func New(opts ...Option) *Set {
	s := &Set{
		macros:  make(map[string]*Macro),
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.L = newState(s.out)
	s.L.SetGlobal("macro", s.L.NewFunction(s.register))
	return s
}

// Load creates a set from a macro file. A missing file gives an empty set.
func Load(path string, opts ...Option) (*Set, error) {
	s := New(opts...)
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.DoFile(path); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// register implements macro(name, help, body).
func (s *Set) register(L *lua.LState) int {
	name := L.CheckString(1)
	help := L.OptString(2, "")
	m := &Macro{Name: name, Help: help, Source: s.loading}

	switch body := L.Get(3).(type) {
	case lua.LString:
		m.text = string(body)
	case *lua.LFunction:
		m.fn = body
	default:
		L.ArgError(3, "string or function expected")
		return 0
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		L.ArgError(1, "macro names are single words")
		return 0
	}
	if prev, ok := s.macros[name]; ok {
		s.logger.Warn().Str("macro", name).Str("previous", prev.Source).Msg("macro redefined")
	}
	s.macros[name] = m
	return 0
}

// DoFile runs a macro file.
func (s *Set) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.loading = path
	defer func() { s.loading = "" }()

	err := run(s.L, s.timeout, func() error { return s.L.DoFile(path) })
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	s.logger.Debug().Str("file", path).Int("macros", len(s.macros)).Msg("macros loaded")
	return nil
}

// DoString runs macro definitions given as text.
func (s *Set) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.loading = "<string>"
	defer func() { s.loading = "" }()
	return run(s.L, s.timeout, func() error { return s.L.DoString(code) })
}

// Has reports whether name is a macro.
func (s *Set) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.macros[name]
	return ok
}

// Get returns the macro called name.
func (s *Set) Get(name string) (Macro, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.macros[name]
	if !ok {
		return Macro{}, false
	}
	return *m, true
}

// Names returns the macro names, sorted.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.macros))
	for name := range s.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand runs the macro and returns the command lines it produces.
func (s *Set) Expand(name string, args []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	m, ok := s.macros[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	if m.fn == nil {
		return splitCommands(m.text), nil
	}

	var lines []string
	err := run(s.L, s.timeout, func() error {
		top := s.L.GetTop()
		s.L.Push(m.fn)
		for _, a := range args {
			s.L.Push(lua.LString(a))
		}
		if err := s.L.PCall(len(args), 1, nil); err != nil {
			s.L.SetTop(top)
			return err
		}
		ret := s.L.Get(-1)
		s.L.SetTop(top)

		var err error
		lines, err = toLines(ret)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func toLines(v lua.LValue) ([]string, error) {
	switch t := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return splitCommands(string(t)), nil
	case *lua.LTable:
		var lines []string
		var bad lua.LValue
		n := t.Len()
		for i := 1; i <= n; i++ {
			e := t.RawGetInt(i)
			s, ok := e.(lua.LString)
			if !ok {
				bad = e
				break
			}
			lines = append(lines, string(s))
		}
		if bad != nil {
			return nil, fmt.Errorf("macro returned a %s in its command list", bad.Type())
		}
		return lines, nil
	}
	return nil, fmt.Errorf("macro returned a %s, want string or list of strings", v.Type())
}

func splitCommands(text string) []string {
	var lines []string
	for _, part := range strings.Split(text, ";;") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}

// Close releases the Lua state.
func (s *Set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
