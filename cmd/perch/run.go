package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/perch/internal/app"
	"github.com/dshills/perch/internal/trace"
	"github.com/dshills/perch/internal/trace/starlarkrt"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT [ARGS...]",
	Short: "Debug a Starlark script",
	Long: `Run a Starlark script under the debugger. The script stops before its
first line. Arguments after the script are available to it as argv.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return debug(cmd, func(ctx context.Context, a *app.Application) (trace.Runtime, error) {
			rt, err := starlarkrt.Open(args[0],
				starlarkrt.WithArgs(args),
				starlarkrt.WithOutput(a.Output()),
				starlarkrt.WithLogger(a.Logger().With().Str("runtime", "starlark").Logger()),
			)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", args[0], err)
			}
			return rt, nil
		})
	},
}

func init() {
	runCmd.Flags().SetInterspersed(false)
}
