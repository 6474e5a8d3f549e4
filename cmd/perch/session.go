package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dshills/perch/internal/app"
	"github.com/dshills/perch/internal/trace"
)

// flagLayer turns the global flags the user actually gave into the
// command line configuration layer.
func flagLayer(cmd *cobra.Command) map[string]any {
	flags := cmd.Flags()
	layer := make(map[string]any)
	if flags.Changed("sticky") {
		layer["sticky_by_default"] = globals.sticky
	}
	if flags.Changed("no-color") {
		layer["use_color"] = !globals.noColor
	}
	if flags.Changed("log-level") {
		layer["log_level"] = globals.logLevel
	}
	if flags.Changed("frontend") {
		layer["frontend"] = globals.frontend
	}
	return layer
}

func newApp(cmd *cobra.Command) (*app.Application, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Options{
		ConfigPath:    globals.configPath,
		WorkspacePath: wd,
		Flags:         flagLayer(cmd),
		LogConsole:    globals.logConsole,
		Watch:         !globals.noWatch,
	})
	if err != nil {
		return nil, err
	}
	if !a.Config().UseColor {
		color.Disable()
	}
	return a, nil
}

// debug runs one session over the runtime built by open and shuts the
// application down.
func debug(cmd *cobra.Command, open func(ctx context.Context, a *app.Application) (trace.Runtime, error)) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx, a)
	if err != nil {
		return err
	}
	err = a.Run(ctx, rt)
	// Run detaches after a session; this covers a runtime that failed to
	// start.
	if derr := rt.Detach(context.Background()); derr != nil && !errors.Is(derr, trace.ErrDetached) {
		logger := a.Logger()
		logger.Warn().Err(derr).Msg("detach")
	}
	if errors.Is(err, trace.ErrDetached) {
		fmt.Fprintln(a.Output(), "The debugged program went away.")
		return nil
	}
	return err
}
