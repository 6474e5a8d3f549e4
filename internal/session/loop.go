package session

import (
	"errors"
	"io"

	"github.com/dshills/perch/internal/command"
	"github.com/dshills/perch/internal/control"
	"github.com/dshills/perch/internal/terminal"
	"github.com/dshills/perch/internal/trace"
)

// loop is the read-eval-print loop of one level. It returns nil when the
// level ends normally and trace.ErrDetached when the runtime went away.
func (m *Manager) loop(st *State, stop control.Stop) error {
	st.present(stop)
	for {
		if err := m.takeFatal(); err != nil {
			return err
		}
		if st.done {
			return nil
		}
		m.applyPending()

		out, err := m.read(st)
		if err != nil {
			if errors.Is(err, io.EOF) {
				st.quit = true
				return nil
			}
			return err
		}

		switch out.Kind {
		case command.OutcomeQuit:
			if out.Fatal() {
				return out.Err
			}
			st.quit = true
			return nil
		case command.OutcomeResume:
			if err := m.resume(st, out); err != nil {
				return err
			}
		}
	}
}

func (m *Manager) read(st *State) (command.Outcome, error) {
	if out, ok := st.disp.RunPending(st); ok {
		return out, nil
	}
	line, err := m.fe.ReadLine(st.prompt())
	if errors.Is(err, terminal.ErrInterrupted) {
		st.disp.Reset()
		return command.Continue(), nil
	}
	if err != nil {
		return command.Outcome{}, err
	}
	return st.disp.Dispatch(st, line), nil
}

func (m *Manager) resume(st *State, out command.Outcome) error {
	if st.ctl.State() == control.Terminated {
		st.Warn(control.ErrSessionClosed)
		st.disp.Reset()
		return nil
	}

	st.resumed()
	st.logger.Debug().Str("directive", out.Directive.String()).Msg("resume")
	stop, err := st.ctl.Resume(st.ctx, out.Directive)
	switch {
	case err == nil:
		st.present(stop)
	case errors.Is(err, trace.ErrDetached):
		return err
	default:
		st.Warn(err)
		st.disp.Reset()
		if st.ctl.State() == control.Paused {
			if err := st.refresh(); err != nil {
				st.logger.Warn().Err(err).Msg("refresh after failed resume")
			}
		}
	}
	return nil
}
