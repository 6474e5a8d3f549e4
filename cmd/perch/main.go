// Command perch is an interactive, sticky pdb-style debugger.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/perch/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var globals struct {
	configPath string
	sticky     bool
	noColor    bool
	logLevel   string
	logConsole bool
	frontend   string
	noWatch    bool
}

var rootCmd = &cobra.Command{
	Use:   "perch",
	Short: "A sticky, pdb-style debugger for the terminal",
	Long: `perch debugs Starlark scripts in process, and Go, Python and Node.js
programs through their Debug Adapter Protocol servers. It keeps the current
function on screen while you step ("sticky" mode).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		app.Version = version
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&globals.configPath, "config", "c", os.Getenv("PERCH_CONFIG"), "Path to configuration file")
	pf.BoolVar(&globals.sticky, "sticky", false, "Start in sticky mode")
	pf.BoolVar(&globals.noColor, "no-color", false, "Disable colour output")
	pf.StringVar(&globals.logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")
	pf.BoolVar(&globals.logConsole, "log-console", false, "Write logs to stderr instead of the log file")
	pf.StringVar(&globals.frontend, "frontend", "", "Terminal frontend: line or screen")
	pf.BoolVar(&globals.noWatch, "no-watch", false, "Do not reload the configuration when it changes")

	rootCmd.AddCommand(runCmd, dapCmd, attachCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "perch:", err)
		os.Exit(1)
	}
}
