package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/perch/internal/app"
	"github.com/dshills/perch/internal/trace"
	"github.com/dshills/perch/internal/trace/dap"
	"github.com/dshills/perch/internal/trace/dap/adapters"
)

var dapFlags struct {
	adapter   string
	path      string
	cwd       string
	env       []string
	port      int
	overrides string
	pid       int
}

var dapCmd = &cobra.Command{
	Use:   "dap [--adapter NAME] PROGRAM [ARGS...]",
	Short: "Debug a program through a debug adapter",
	Long: `Launch PROGRAM under a Debug Adapter Protocol server and debug it.
The adapter is taken from --adapter, the dap.adapter setting, or the
program's file extension (` + strings.Join(adapters.Names(), ", ") + `).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := adapters.Config{
			Program: args[0],
			Args:    args[1:],
			Cwd:     dapFlags.cwd,
			Port:    dapFlags.port,
			Path:    dapFlags.path,
		}
		env, err := parseEnv(dapFlags.env)
		if err != nil {
			return err
		}
		cfg.Env = env
		return debugAdapter(cmd, cfg, false)
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach [--adapter NAME] [HOST:PORT]",
	Short: "Attach to a running program through a debug adapter",
	Long: `Attach to a debug adapter already listening on HOST:PORT, or to the
local process given with --pid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := adapters.Config{Path: dapFlags.path}
		if dapFlags.pid > 0 {
			cfg.Program = strconv.Itoa(dapFlags.pid)
		}
		if len(args) == 1 {
			host, port, err := net.SplitHostPort(args[0])
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[0], err)
			}
			cfg.Host = host
			if cfg.Port, err = strconv.Atoi(port); err != nil {
				return fmt.Errorf("invalid port %q", port)
			}
		}
		if cfg.Program == "" && cfg.Port == 0 {
			return fmt.Errorf("attach needs an address or --pid")
		}
		return debugAdapter(cmd, cfg, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{dapCmd, attachCmd} {
		f := c.Flags()
		f.StringVarP(&dapFlags.adapter, "adapter", "a", "", "Debug adapter: "+strings.Join(adapters.Names(), ", "))
		f.StringVar(&dapFlags.path, "adapter-path", "", "Path to the adapter executable")
		f.StringVar(&dapFlags.overrides, "launch-overrides", "", "JSON object merged into the launch or attach arguments")
	}
	dapCmd.Flags().StringVar(&dapFlags.cwd, "cwd", "", "Working directory of the program")
	dapCmd.Flags().StringArrayVarP(&dapFlags.env, "env", "e", nil, "Environment variable KEY=VALUE for the program (repeatable)")
	dapCmd.Flags().IntVar(&dapFlags.port, "port", 0, "Run the adapter on a TCP port instead of stdio")
	dapCmd.Flags().SetInterspersed(false)
	attachCmd.Flags().IntVar(&dapFlags.pid, "pid", 0, "Process id to attach to")
}

func parseEnv(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q, want KEY=VALUE", kv)
		}
		env[k] = v
	}
	return env, nil
}

func adapterName(configured, program string) (string, error) {
	if dapFlags.adapter != "" {
		return dapFlags.adapter, nil
	}
	if configured != "" {
		return configured, nil
	}
	if name, ok := adapters.Detect(program); ok {
		return name, nil
	}
	return "", fmt.Errorf("cannot tell the adapter for %q; use --adapter (%s)", program, strings.Join(adapters.Names(), ", "))
}

func debugAdapter(cmd *cobra.Command, cfg adapters.Config, attach bool) error {
	return debug(cmd, func(ctx context.Context, a *app.Application) (trace.Runtime, error) {
		settings := a.Config().DAP
		name, err := adapterName(settings.Adapter, cfg.Program)
		if err != nil {
			return nil, err
		}
		factory, err := adapters.Lookup(name)
		if err != nil {
			return nil, err
		}
		adapter := factory(cfg)

		launch, err := adapters.Launch(adapter, attach)
		if err != nil {
			return nil, err
		}
		for _, overrides := range []string{settings.LaunchOverrides, dapFlags.overrides} {
			if launch, err = launch.WithOverrides(overrides); err != nil {
				return nil, err
			}
		}

		logger := a.Logger().With().Str("runtime", "dap").Str("adapter", adapter.Name()).Logger()
		transport, err := adapters.Connect(ctx, adapter, attach)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", adapter.Name(), err)
		}
		client := dap.NewClient(transport, dap.WithClientLogger(logger))
		return dap.NewRuntime(client, launch,
			dap.WithOutput(a.Output()),
			dap.WithLogger(logger),
		), nil
	})
}
