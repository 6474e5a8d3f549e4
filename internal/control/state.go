package control

// State is the execution state of a session level.
type State int

const (
	// Running means the program owns the thread of control.
	Running State = iota
	// Paused means the program is stopped and the session may inspect it.
	Paused
	// Terminated means the program, or the nested evaluation, is gone.
	Terminated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
