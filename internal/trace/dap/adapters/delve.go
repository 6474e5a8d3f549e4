package adapters

import (
	"os/exec"
	"strconv"
)

// Delve drives dlv dap for Go programs.
type Delve struct {
	cfg  Config
	mode string
}

// NewDelve returns a delve adapter in debug mode.
func NewDelve(c Config) Adapter {
	return &Delve{cfg: c, mode: "debug"}
}

func (d *Delve) ID() string   { return "go" }
func (d *Delve) Name() string { return "delve" }

func (d *Delve) Command(attach bool) (*exec.Cmd, error) {
	if attach && d.cfg.Port > 0 {
		// Connect to a headless dlv already serving DAP.
		return nil, nil
	}
	path, err := executable(d.cfg.Path, "dlv", "go install github.com/go-delve/delve/cmd/dlv@latest")
	if err != nil {
		return nil, err
	}
	argv := []string{"dap"}
	if d.cfg.Port > 0 {
		argv = append(argv, "--listen", d.cfg.address(d.cfg.Port))
	}
	return command(path, argv, d.cfg), nil
}

func (d *Delve) Address(attach bool) string {
	if d.cfg.Port > 0 {
		return d.cfg.address(d.cfg.Port)
	}
	return ""
}

func (d *Delve) LaunchArgs() ([]byte, error) {
	return args(
		"mode", d.mode,
		"program", d.cfg.Program,
		"args", d.cfg.Args,
		"cwd", d.cfg.Cwd,
		"env", d.cfg.Env,
		"stopOnEntry", true,
		"stackTraceDepth", 50,
		"showGlobalVariables", true,
	)
}

func (d *Delve) AttachArgs() ([]byte, error) {
	mode := "local"
	if d.cfg.Port > 0 {
		mode = "remote"
	}
	return args(
		"mode", mode,
		"processId", pid(d.cfg.Program),
		"showGlobalVariables", true,
	)
}

// pid reads a process id given in place of a program.
func pid(program string) int {
	n, err := strconv.Atoi(program)
	if err != nil {
		return 0
	}
	return n
}
