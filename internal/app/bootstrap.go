package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/command"
	"github.com/dshills/perch/internal/config"
	"github.com/dshills/perch/internal/highlight"
	"github.com/dshills/perch/internal/history"
	"github.com/dshills/perch/internal/logging"
	"github.com/dshills/perch/internal/macro"
	"github.com/dshills/perch/internal/session"
	"github.com/dshills/perch/internal/terminal"
)

// reloadDebounce collapses the burst of events an editor save produces.
const reloadDebounce = 150 * time.Millisecond

// bootstrapper initializes components in dependency order and undoes the
// finished steps when a later one fails.
type bootstrapper struct {
	app *Application
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{app: app}
}

func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", b.initConfig},
		{"logging", b.initLogging},
		{"frontend", b.initFrontend},
		{"history", b.initHistory},
		{"macros", b.initMacros},
		{"session", b.initSession},
		{"config watcher", b.initWatcher},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			b.cleanup()
			return &InitError{Component: step.name, Err: err}
		}
	}
	b.report()
	return nil
}

func (b *bootstrapper) initConfig() error {
	app := b.app
	app.loadOpts = config.Options{
		UserDir:    app.opts.UserConfigDir,
		ProjectDir: app.opts.WorkspacePath,
		File:       app.opts.ConfigPath,
		Environ:    app.opts.Environ,
		Flags:      app.opts.Flags,
	}
	res, err := config.Load(app.loadOpts)
	if err != nil {
		return err
	}
	app.cfg = res.Config
	app.warnings = res.Warnings
	app.candidates = res.Candidates
	return nil
}

func (b *bootstrapper) initLogging() error {
	app := b.app
	l, err := logging.New(logging.Options{
		Level:   app.cfg.LogLevel,
		File:    app.cfg.LogFile,
		Console: app.opts.LogConsole,
	})
	app.log = l
	app.logger = l.Logger
	if err != nil {
		// Logging is not worth failing the debugger for.
		app.warnings = append(app.warnings, config.Warning{Source: "log_file", Message: err.Error()})
	}
	app.logger.Info().Str("version", Version).Msg("starting")
	return nil
}

func (b *bootstrapper) initFrontend() error {
	app := b.app
	if app.opts.Frontend != nil {
		app.fe = app.opts.Frontend
		return nil
	}
	palette := terminal.DefaultPalette(app.cfg.UseColor)
	if app.cfg.Frontend == config.FrontendScreen {
		s, err := terminal.NewScreen(terminal.WithScreenPalette(palette))
		if err != nil {
			return err
		}
		app.screen = s
		app.fe = s
		return nil
	}
	in, out := app.opts.Stdin, app.opts.Stdout
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	app.fe = terminal.NewConsole(in, out, terminal.WithPalette(palette))
	return nil
}

func (b *bootstrapper) initHistory() error {
	app := b.app
	app.history = history.NewStore(app.cfg.HistoryFile, app.cfg.HistorySize,
		history.WithLogger(app.logger))
	return nil
}

func (b *bootstrapper) initMacros() error {
	app := b.app
	set, err := macro.Load(app.cfg.MacrosFile,
		macro.WithOutput(app.fe),
		macro.WithLogger(app.logger.With().Str("component", "macro").Logger()))
	if err != nil {
		app.warnings = append(app.warnings, config.Warning{Source: "macros_file", Message: err.Error()})
		set = macro.New(macro.WithOutput(app.fe))
	}
	app.macros = set
	return nil
}

func (b *bootstrapper) initSession() error {
	app := b.app
	app.aliases = command.NewAliasTable()
	app.warnings = append(app.warnings, app.cfg.DefineAliases(app.aliases)...)

	entries, err := app.history.Load()
	if err != nil {
		app.warnings = append(app.warnings, config.Warning{Source: "history_file", Message: err.Error()})
	}

	opts := []session.Option{
		session.WithConfig(app.cfg.Session()),
		session.WithAliases(app.aliases),
		session.WithHistory(command.NewHistory(entries...)),
		session.WithMacros(app.macros),
		session.WithLogger(app.logger),
	}
	if app.cfg.UseColor {
		opts = append(opts, session.WithHighlighter(highlight.NewANSI(nil, nil)))
	}
	app.manager = session.NewManager(app.fe, opts...)

	if c, ok := app.fe.(interface{ SetCompleter(terminal.Completer) }); ok {
		c.SetCompleter(app.manager.Complete)
	}
	if h, ok := app.fe.(interface{ SetHistory([]string) }); ok {
		h.SetHistory(entries)
	}
	return nil
}

func (b *bootstrapper) initWatcher() error {
	app := b.app
	if !app.opts.Watch {
		return nil
	}
	r, err := config.NewReloader(app.loadOpts, app.candidates, app.reload, func(err error) {
		app.logger.Warn().Err(err).Msg("config reload")
	}, reloadDebounce)
	if err != nil {
		// Running without live reload is fine.
		app.logger.Warn().Err(err).Msg("config watcher unavailable")
		return nil
	}
	app.reloader = r
	app.logger.Debug().Strs("files", r.Watching()).Msg("watching configuration")
	return nil
}

// report shows the collected warnings once the frontend exists.
func (b *bootstrapper) report() {
	app := b.app
	for _, w := range app.warnings {
		app.logger.Warn().Str("setting", w.Key).Str("source", w.Source).Msg(w.Message)
		app.fe.Warn("config: " + w.String())
	}
}

func (b *bootstrapper) cleanup() {
	app := b.app
	if app.macros != nil {
		app.macros.Close()
	}
	if app.screen != nil {
		app.screen.Close()
	}
	if app.log != nil {
		_ = app.log.Close()
	}
	app.logger = zerolog.Nop()
}
