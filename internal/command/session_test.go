package command

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/perch/internal/control"
	"github.com/dshills/perch/internal/frames"
	"github.com/dshills/perch/internal/source"
	"github.com/dshills/perch/internal/trace/tracetest"
)

const sampleSource = `x = 1
r = f(3)
print(r)

def f(a):
    y = a + 1
    return y

# tail
total = r + x
print(total)
`

// sample runs a.py: the module calls f at line 2, which runs 5..7 and
// returns to line 3.
func sample() *tracetest.Program {
	p := tracetest.NewProgram("a.py").Global("g", "7")
	p.Set("x", "1").Line(1).Line(2).Call("f", 5)
	p.Param("a", "3").Line(6).Set("y", "4").Line(7)
	return p.Return().Lines(3, 10, 11)
}

type fakeSession struct {
	t     *testing.T
	ctx   context.Context
	rt    *tracetest.Runtime
	ctl   *control.Controller
	stack *frames.Stack
	src   *source.Cache

	displays Displays
	listing  Listing

	out      strings.Builder
	warnings []error
	shown    int
	sticky   bool
	first    int
	last     int
	edited   []string
}

func newSession(t *testing.T, p *tracetest.Program, opts ...tracetest.Option) *fakeSession {
	t.Helper()
	rt := tracetest.New(p, opts...)
	s := &fakeSession{
		t:     t,
		ctx:   context.Background(),
		rt:    rt,
		ctl:   control.New(rt),
		stack: frames.NewStack(),
		src:   source.NewCache(),
	}
	s.src.Register("a.py", []byte(sampleSource))
	_, err := s.ctl.Start(s.ctx)
	require.NoError(t, err)
	s.rebuild()
	return s
}

func (s *fakeSession) rebuild() {
	fr, err := s.rt.Frames(s.ctx)
	require.NoError(s.t, err)
	s.stack.Rebuild(fr)
	s.listing.Reset()
}

// apply performs what the session loop does with an outcome.
func (s *fakeSession) apply(out Outcome) control.Stop {
	s.t.Helper()
	require.Equal(s.t, OutcomeResume, out.Kind)
	stop, err := s.ctl.Resume(s.ctx, out.Directive)
	require.NoError(s.t, err)
	if !stop.Event.Terminal() {
		s.rebuild()
	}
	return stop
}

func (s *fakeSession) output() string {
	out := s.out.String()
	s.out.Reset()
	return out
}

func (s *fakeSession) Context() context.Context        { return s.ctx }
func (s *fakeSession) Controller() *control.Controller { return s.ctl }
func (s *fakeSession) Stack() *frames.Stack            { return s.stack }
func (s *fakeSession) Source() *source.Cache           { return s.src }
func (s *fakeSession) Displays() *Displays             { return &s.displays }
func (s *fakeSession) Listing() *Listing               { return &s.listing }
func (s *fakeSession) ShowFrame()                      { s.shown++ }
func (s *fakeSession) Sticky() bool                    { return s.sticky }
func (s *fakeSession) SetSticky(on bool)               { s.sticky = on }

func (s *fakeSession) Printf(format string, args ...any) {
	fmt.Fprintf(&s.out, format, args...)
}

func (s *fakeSession) Warn(err error) {
	s.warnings = append(s.warnings, err)
	fmt.Fprintf(&s.out, "*** %s\n", err)
}

func (s *fakeSession) SetStickyRange(first, last int) {
	s.first, s.last = first, last
}

func (s *fakeSession) Edit(file string, line int) error {
	s.edited = append(s.edited, fmt.Sprintf("%s:%d", file, line))
	return nil
}
