// Package app provides the application structure of perch. It wires the
// configuration, logging, terminal frontend, history, macros and session
// manager together and owns their lifecycle.
package app

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/command"
	"github.com/dshills/perch/internal/config"
	"github.com/dshills/perch/internal/history"
	"github.com/dshills/perch/internal/logging"
	"github.com/dshills/perch/internal/macro"
	"github.com/dshills/perch/internal/session"
	"github.com/dshills/perch/internal/terminal"
)

// Options configures the application.
type Options struct {
	// ConfigPath is an explicit configuration file.
	ConfigPath string

	// WorkspacePath is the project directory searched for perch.toml.
	WorkspacePath string

	// UserConfigDir overrides the user configuration directory.
	UserConfigDir string

	// Environ overrides the process environment for configuration.
	Environ []string

	// Flags are command line settings, keyed like the configuration file.
	Flags map[string]any

	// LogConsole sends logs to stderr instead of the log file.
	LogConsole bool

	// Watch reloads the configuration when its files change.
	Watch bool

	// Frontend replaces the terminal frontend, for tests.
	Frontend session.Frontend

	// Stdin and Stdout are used by the line frontend.
	Stdin  io.Reader
	Stdout io.Writer
}

// Application is the debugger with everything around a session.
type Application struct {
	mu sync.Mutex

	opts     Options
	loadOpts config.Options

	cfg        config.Config
	warnings   []config.Warning
	candidates []string

	log    *logging.Logger
	logger zerolog.Logger

	fe      session.Frontend
	screen  *terminal.Screen
	aliases *command.AliasTable
	history *history.Store
	macros  *macro.Set
	manager *session.Manager

	reloader *config.Reloader

	shutdown bool
}

// New creates the application. Configuration problems that are not fatal
// are shown on the frontend as warnings.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the loaded configuration.
func (app *Application) Config() config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Warnings returns the configuration warnings of the initial load.
func (app *Application) Warnings() []config.Warning {
	return append([]config.Warning(nil), app.warnings...)
}

// Logger returns the process logger.
func (app *Application) Logger() zerolog.Logger {
	return app.logger
}

// Output is where the debugged program's output goes.
func (app *Application) Output() io.Writer {
	return app.fe
}

// Manager returns the session manager.
func (app *Application) Manager() *session.Manager {
	return app.manager
}

// reload applies a configuration read by the watcher. Frontend and
// logging settings need a restart; everything else takes effect at the
// next prompt.
func (app *Application) reload(res *config.Result) {
	for _, w := range res.Warnings {
		app.logger.Warn().Str("setting", w.Key).Str("source", w.Source).Msg(w.Message)
	}
	for _, w := range res.Config.DefineAliases(app.aliases) {
		app.logger.Warn().Str("alias", w.Key).Msg(w.Message)
	}

	app.mu.Lock()
	app.cfg = res.Config
	app.mu.Unlock()

	app.manager.Reload(res.Config.Session())
}

// Shutdown saves the history and releases the terminal. It is safe to call
// more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	if app.shutdown {
		app.mu.Unlock()
		return
	}
	app.shutdown = true
	app.mu.Unlock()

	if app.reloader != nil {
		if err := app.reloader.Close(); err != nil {
			app.logger.Warn().Err(err).Msg("stopping config watcher")
		}
	}
	if app.history != nil {
		if err := app.history.Save(app.manager.History().Entries()); err != nil {
			app.logger.Error().Err(err).Str("file", app.history.Path()).Msg("saving history")
		}
	}
	if app.macros != nil {
		app.macros.Close()
	}
	if app.screen != nil {
		app.screen.Close()
	}
	app.logger.Info().Msg("shutdown")
	if app.log != nil {
		_ = app.log.Close()
	}
}
