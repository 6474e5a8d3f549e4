package control

import "errors"

// ErrSessionClosed is returned for directives issued after termination.
var ErrSessionClosed = errors.New("the program has finished; no further execution control is possible")
