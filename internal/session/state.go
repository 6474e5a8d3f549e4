package session

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/command"
	"github.com/dshills/perch/internal/control"
	"github.com/dshills/perch/internal/frames"
	"github.com/dshills/perch/internal/source"
	"github.com/dshills/perch/internal/sticky"
	"github.com/dshills/perch/internal/trace"
)

// stickyReserve is the number of terminal rows kept free below the sticky
// view for the prompt and command output.
const stickyReserve = 4

// State is one session level: everything tied to a single pause-to-resume
// cycle of one controller.
type State struct {
	m      *Manager
	ctx    context.Context
	id     string
	depth  int
	logger zerolog.Logger

	ctl      *control.Controller
	stack    *frames.Stack
	disp     *command.Dispatcher
	renderer *sticky.Renderer
	displays command.Displays
	listing  command.Listing

	sticky bool
	stop   control.Stop

	// done is set when a nested evaluation finished.
	done bool
	// quit is set when the user ended the level.
	quit bool
}

func newState(ctx context.Context, m *Manager, ctl *control.Controller, depth int) *State {
	cfg := m.config()
	id := uuid.NewString()
	st := &State{
		m:      m,
		ctx:    ctx,
		id:     id,
		depth:  depth,
		logger: m.logger.With().Str("session_id", id).Int("depth", depth).Logger(),
		ctl:    ctl,
		stack:  frames.NewStack(),
		sticky: cfg.Sticky,
	}
	st.disp = command.New(
		command.WithAliases(m.aliases),
		command.WithHistory(m.history),
		command.WithMacros(m.macros),
		command.WithLogger(st.logger),
	)

	opts := []sticky.Option{
		sticky.WithMargin(cfg.Margin),
		sticky.WithTruncate(cfg.Truncate),
		sticky.WithBreakpoints(ctl.Breakpoints().Lines),
	}
	if cfg.Highlight && m.highlighter != nil {
		opts = append(opts, sticky.WithHighlighter(m.highlighter))
	}
	st.renderer = sticky.NewRenderer(m.src, opts...)
	return st
}

// ID returns the session id used in logs.
func (st *State) ID() string { return st.id }

// Depth returns 0 for the outermost level.
func (st *State) Depth() int { return st.depth }

func (st *State) Context() context.Context { return st.ctx }
func (st *State) Controller() *control.Controller { return st.ctl }
func (st *State) Stack() *frames.Stack { return st.stack }
func (st *State) Source() *source.Cache { return st.m.src }
func (st *State) Displays() *command.Displays { return &st.displays }
func (st *State) Listing() *command.Listing { return &st.listing }
func (st *State) Sticky() bool { return st.sticky }
func (st *State) Dispatcher() *command.Dispatcher { return st.disp }
func (st *State) LastStop() control.Stop { return st.stop }
func (st *State) Printf(format string, args ...any) { fmt.Fprintf(st.m.fe, format, args...) }
func (st *State) SetStickyRange(first, last int) { st.renderer.SetRange(first, last) }
func (st *State) Edit(file string, line int) error { return st.m.edit(st, file, line) }

// Warn implements command.Session.
func (st *State) Warn(err error) {
	st.m.fe.Warn(err.Error())
}

// SetSticky implements command.Session.
func (st *State) SetSticky(on bool) {
	st.sticky = on
	if !on {
		st.renderer.Invalidate()
		st.m.fe.Leave()
		return
	}
	st.render(true)
}

// ShowFrame implements command.Session.
func (st *State) ShowFrame() {
	st.listing.Reset()
	st.render(false)
}

func (st *State) prompt() string {
	p := st.m.config().Prompt
	if st.depth == 0 {
		return p
	}
	base := strings.TrimSpace(p)
	return strings.Repeat("(", st.depth) + base + strings.Repeat(")", st.depth) + " "
}

// present shows a surfaced stop.
func (st *State) present(stop control.Stop) {
	st.stop = stop
	st.listing.Reset()
	for _, w := range stop.Warnings {
		st.Warn(w)
	}

	ev := stop.Event
	if ev.Kind == trace.StopTerminated {
		st.stack.Invalidate()
		if st.depth > 0 {
			st.done = true
			return
		}
		if st.sticky {
			st.m.fe.Leave()
		}
		if ev.ExitCode != 0 {
			st.Printf("The program exited with status %d.\n", ev.ExitCode)
		} else {
			st.Printf("The program finished.\n")
		}
		st.logger.Info().Int("exit_code", ev.ExitCode).Msg("program finished")
		return
	}

	if err := st.refresh(); err != nil {
		st.Warn(err)
	}

	switch ev.Kind {
	case trace.StopCall:
		st.Printf("--Call--\n")
	case trace.StopReturn:
		st.Printf("--Return--\n")
	case trace.StopInterrupt:
		st.Printf("Program interrupted. (Use 'cont' to resume).\n")
	case trace.StopException:
		st.Printf("Uncaught exception: %s\n", ev.Err)
	case trace.StopBreakpoint:
		if stop.Deleted && stop.Breakpoint != nil {
			st.Printf("Deleted breakpoint %d at %s:%d\n", stop.Breakpoint.ID, stop.Breakpoint.File, stop.Breakpoint.Line)
		}
	}
	st.render(false)
	st.updateDisplays()
}

// refresh rebuilds the frame stack from the runtime.
func (st *State) refresh() error {
	fs, err := st.ctl.Runtime().Frames(st.ctx)
	if err != nil {
		st.stack.Invalidate()
		return err
	}
	globs := st.m.config().HideFrames
	for i := range fs {
		if i > 0 && hiddenByGlob(fs[i], globs) {
			fs[i].Hidden = true
		}
	}
	st.stack.Rebuild(fs)
	return nil
}

func hiddenByGlob(f trace.FrameInfo, globs []string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, f.Function); ok {
			return true
		}
		if ok, _ := path.Match(g, f.File); ok {
			return true
		}
	}
	return false
}

// render shows the selected frame: the sticky view when sticky mode is on,
// the location and current line otherwise.
func (st *State) render(force bool) {
	fr, err := st.stack.Current()
	if err != nil {
		return
	}
	info, err := fr.Info()
	if err != nil {
		return
	}

	if st.sticky {
		w, h := st.m.fe.Size()
		if h > 0 {
			h = max(h-stickyReserve, 1)
		}
		st.renderer.Resize(w, h)
		d, err := st.renderer.Render(info, force)
		if err == nil {
			if !d.Empty() {
				if err := st.m.fe.Draw(d); err != nil {
					st.logger.Warn().Err(err).Msg("draw failed")
				}
			}
			return
		}
		st.logger.Debug().Err(err).Str("file", info.File).Msg("sticky view unavailable")
	}

	st.Printf("> %s\n", command.FormatFrame(info))
	if text, err := st.m.src.Line(info.File, info.Line); err == nil {
		st.Printf("-> %s\n", strings.TrimSpace(text))
	}
}

func (st *State) updateDisplays() {
	if st.displays.Len() == 0 {
		return
	}
	fr, err := st.stack.Current()
	if err != nil {
		return
	}
	idx, err := fr.Index()
	if err != nil {
		return
	}
	rt := st.ctl.Runtime()
	for _, line := range st.displays.Update(func(expr string) (string, error) {
		return rt.Eval(st.ctx, expr, idx)
	}) {
		st.Printf("%s\n", line)
	}
}

// resumed drops everything that belongs to the pause being left.
func (st *State) resumed() {
	st.stack.Invalidate()
	st.listing.Reset()
}

// reenter is called when a nested level returns control to this one. The
// nested level painted over the sticky view.
func (st *State) reenter() {
	st.renderer.Invalidate()
	if st.ctl.State() == control.Paused && st.sticky {
		st.render(true)
	}
}

func (st *State) applyConfig(cfg Config) {
	st.renderer.SetMargin(cfg.Margin)
	st.renderer.SetTruncate(cfg.Truncate)
	st.ctl.SetContinuePastExceptions(cfg.ContinuePastExceptions)
}
