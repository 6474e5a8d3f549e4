package session

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// edit opens file at line in the configured editor and reloads the file
// afterwards.
func (m *Manager) edit(st *State, file string, line int) error {
	editor := m.config().Editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	args := strings.Fields(editor)
	args = append(args, fmt.Sprintf("+%d", line), file)

	st.logger.Debug().Strs("argv", args).Msg("launching editor")
	err := m.fe.Suspend(func() error {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	})

	m.src.Invalidate(file)
	st.renderer.Invalidate()
	if st.sticky {
		st.render(true)
	}
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	return nil
}
