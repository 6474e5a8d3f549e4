package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/dshills/perch/internal/trace"
)

// Version is set via ldflags during build.
var Version = "dev"

// Run debugs the program behind rt. SIGINT received while the program runs
// interrupts it at the next line; at the prompt the frontend sees Ctrl-C
// itself.
func (app *Application) Run(ctx context.Context, rt trace.Runtime) error {
	app.mu.Lock()
	closed := app.shutdown
	app.mu.Unlock()
	if closed {
		return ErrShutdown
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	defer signal.Stop(signals)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				app.logger.Debug().Msg("interrupt")
				app.manager.Interrupt()
			}
		}
	}()

	err := app.manager.Run(ctx, rt)
	switch {
	case err == nil:
		app.logger.Info().Msg("session ended")
	case errors.Is(err, trace.ErrDetached):
		app.logger.Warn().Msg("runtime detached")
	default:
		app.logger.Error().Err(err).Msg("session failed")
	}
	return err
}
