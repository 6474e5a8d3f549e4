package terminal

import "errors"

// ErrInterrupted is returned by ReadLine when the user pressed Ctrl-C. The
// partial line is discarded.
var ErrInterrupted = errors.New("interrupted")
