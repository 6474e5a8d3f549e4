package command

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned when a name is neither a command, an
	// alias nor a macro.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrPanic is returned when a handler panicked.
	ErrPanic = errors.New("command panicked")
)

// UserInputError reports an unparseable command or argument.
type UserInputError struct {
	Command string
	Msg     string
}

func (e *UserInputError) Error() string {
	if e.Command == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Msg)
}

func inputErrorf(cmd, format string, args ...any) error {
	return &UserInputError{Command: cmd, Msg: fmt.Sprintf(format, args...)}
}

// IsUserInput reports whether err is a UserInputError.
func IsUserInput(err error) bool {
	var ue *UserInputError
	return errors.As(err, &ue)
}
