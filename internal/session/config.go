package session

// Config holds the settings a session reads.
type Config struct {
	// Sticky starts new sessions in sticky mode.
	Sticky bool
	// Margin is the number of context lines around the current line.
	Margin int
	// Truncate cuts source lines wider than the terminal.
	Truncate bool
	// Highlight enables syntax colouring of the sticky view.
	Highlight bool
	// Editor is the command used by edit. $EDITOR is used when empty.
	Editor string
	// ContinuePastExceptions resumes automatically on uncaught errors.
	ContinuePastExceptions bool
	// HideFrames lists glob patterns; frames whose function or file
	// matches are hidden from navigation.
	HideFrames []string
	// Prompt is the outermost prompt.
	Prompt string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Margin:    10,
		Truncate:  true,
		Highlight: true,
		Prompt:    "(perch) ",
	}
}
