package adapters

import (
	"os/exec"
)

// Python drives debugpy.
type Python struct {
	cfg Config
}

// NewPython returns a debugpy adapter.
func NewPython(c Config) Adapter {
	return &Python{cfg: c}
}

func (p *Python) ID() string   { return "debugpy" }
func (p *Python) Name() string { return "debugpy" }

func (p *Python) Command(attach bool) (*exec.Cmd, error) {
	path, err := executable(p.cfg.Path, "python3", "install Python 3 and pip install debugpy")
	if err != nil {
		return nil, err
	}
	return command(path, []string{"-m", "debugpy.adapter"}, p.cfg), nil
}

// Address is always empty: debugpy.adapter speaks DAP on stdio and
// connects to the debuggee itself when attaching.
func (p *Python) Address(attach bool) string { return "" }

func (p *Python) LaunchArgs() ([]byte, error) {
	return args(
		"type", "python",
		"request", "launch",
		"program", p.cfg.Program,
		"args", p.cfg.Args,
		"cwd", p.cfg.Cwd,
		"env", p.cfg.Env,
		"stopOnEntry", true,
		"justMyCode", true,
		"console", "internalConsole",
		"redirectOutput", true,
		"showReturnValue", true,
	)
}

func (p *Python) AttachArgs() ([]byte, error) {
	return args(
		"type", "python",
		"request", "attach",
		"connect.host", p.cfg.host(),
		"connect.port", p.cfg.Port,
		"justMyCode", true,
		"redirectOutput", true,
	)
}
