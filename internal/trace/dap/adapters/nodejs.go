package adapters

import (
	"fmt"
	"os/exec"
)

const (
	nodeAdapterPort = 8123
	nodeInspectPort = 9229
)

// Node drives the js-debug DAP server.
type Node struct {
	cfg Config
}

// NewNode returns a js-debug adapter.
func NewNode(c Config) Adapter {
	return &Node{cfg: c}
}

func (n *Node) ID() string   { return "pwa-node" }
func (n *Node) Name() string { return "js-debug" }

func (n *Node) Command(attach bool) (*exec.Cmd, error) {
	path, err := executable(n.cfg.Path, "js-debug-adapter", "npm install -g js-debug-adapter")
	if err != nil {
		return nil, err
	}
	return command(path, []string{fmt.Sprint(nodeAdapterPort), n.cfg.host()}, n.cfg), nil
}

func (n *Node) Address(attach bool) string {
	return n.cfg.address(nodeAdapterPort)
}

func (n *Node) LaunchArgs() ([]byte, error) {
	return args(
		"type", "pwa-node",
		"request", "launch",
		"program", n.cfg.Program,
		"args", n.cfg.Args,
		"cwd", n.cfg.Cwd,
		"env", n.cfg.Env,
		"stopOnEntry", true,
		"console", "internalConsole",
		"sourceMaps", true,
		"skipFiles", []string{"<node_internals>/**"},
	)
}

func (n *Node) AttachArgs() ([]byte, error) {
	port := n.cfg.Port
	if port == 0 {
		port = nodeInspectPort
	}
	return args(
		"type", "pwa-node",
		"request", "attach",
		"address", n.cfg.host(),
		"port", port,
		"skipFiles", []string{"<node_internals>/**"},
	)
}
