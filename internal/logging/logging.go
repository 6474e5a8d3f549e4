package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects where and how much to log.
type Options struct {
	// Level is a zerolog level name. Invalid names fall back to info.
	Level string
	// File receives JSON records. Ignored when Console is set.
	File string
	// Console writes human readable records to Stderr.
	Console bool
	// Stderr overrides os.Stderr, for tests.
	Stderr io.Writer
}

// Logger is the configured logger and the file it writes to.
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// New builds a logger. A log file that cannot be opened is reported and
// logging is disabled rather than failing the debugger.
func New(opts Options) (*Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var out io.Writer
	var closer io.Closer
	switch {
	case opts.Console:
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	case opts.File != "":
		f, ferr := open(opts.File)
		if ferr != nil {
			return &Logger{Logger: zerolog.Nop()}, ferr
		}
		out, closer = f, f
	default:
		return &Logger{Logger: zerolog.Nop()}, nil
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	if err != nil {
		l.Warn().Str("level", opts.Level).Msg("invalid log level, using info")
	}
	return &Logger{Logger: l, closer: closer}, nil
}

func open(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
