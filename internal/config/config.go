package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/perch/internal/session"
)

// Frontend names.
const (
	FrontendLine   = "line"
	FrontendScreen = "screen"
)

// DAP holds the settings of the debug adapter runtime.
type DAP struct {
	// Adapter is the default adapter name used by "perch dap".
	Adapter string
	// LaunchOverrides is a JSON object merged into launch arguments.
	LaunchOverrides string
}

// Config is the complete set of user settings.
type Config struct {
	StickyByDefault        bool
	ContextMargin          int
	UseColor               bool
	TruncateLongLines      bool
	Editor                 string
	ContinuePastExceptions bool
	Highlight              bool
	HideFrames             []string
	HistoryFile            string
	HistorySize            int
	LogLevel               string
	LogFile                string
	Frontend               string
	Aliases                map[string]string
	MacrosFile             string
	DAP                    DAP
}

// Default returns the built-in settings.
func Default() Config {
	s := session.DefaultConfig()
	return Config{
		StickyByDefault:        s.Sticky,
		ContextMargin:          s.Margin,
		UseColor:               true,
		TruncateLongLines:      s.Truncate,
		ContinuePastExceptions: s.ContinuePastExceptions,
		Highlight:              s.Highlight,
		HistoryFile:            filepath.Join(StateDir(), "history"),
		HistorySize:            1000,
		LogLevel:               "info",
		LogFile:                filepath.Join(StateDir(), "perch.log"),
		Frontend:               FrontendLine,
		Aliases:                map[string]string{},
		MacrosFile:             filepath.Join(Dir(), "macros.lua"),
	}
}

// Session returns the settings a debugging session reads.
func (c Config) Session() session.Config {
	s := session.DefaultConfig()
	s.Sticky = c.StickyByDefault
	s.Margin = c.ContextMargin
	s.Truncate = c.TruncateLongLines
	s.Highlight = c.Highlight && c.UseColor
	s.Editor = c.Editor
	s.ContinuePastExceptions = c.ContinuePastExceptions
	s.HideFrames = append([]string(nil), c.HideFrames...)
	return s
}

// AliasNames returns the configured alias names, sorted.
func (c Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for name := range c.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dir returns the user configuration directory of perch.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".perch"
	}
	return filepath.Join(dir, "perch")
}

// StateDir returns the directory for history and logs: $XDG_STATE_HOME/perch,
// falling back to ~/.local/state/perch.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, "perch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".perch"
	}
	return filepath.Join(home, ".local", "state", "perch")
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
