// Package adapters knows how to start the debug adapters perch can drive
// and what launch and attach arguments each expects.
package adapters

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/perch/internal/trace/dap"
)

// Config is what the command line and configuration file provide.
type Config struct {
	Program     string
	Args        []string
	Cwd         string
	Env         map[string]string

	// Host and Port select a socket connection, for attach or for adapters
	// that only listen on TCP.
	Host string
	Port int

	// Path overrides the adapter executable.
	Path string
}

func (c Config) host() string {
	if c.Host != "" {
		return c.Host
	}
	return "127.0.0.1"
}

func (c Config) address(port int) string {
	return net.JoinHostPort(c.host(), fmt.Sprint(port))
}

// Adapter describes one debug adapter.
type Adapter interface {
	// ID is the adapterID sent with initialize.
	ID() string
	Name() string
	// Command returns the adapter process, or nil when perch only connects.
	Command(attach bool) (*exec.Cmd, error)
	// Address is the TCP address to connect to; empty means stdio.
	Address(attach bool) string
	LaunchArgs() ([]byte, error)
	AttachArgs() ([]byte, error)
}

// Factory builds an adapter from a configuration.
type Factory func(Config) Adapter

var registry = map[string]Factory{
	"delve":  NewDelve,
	"python": NewPython,
	"nodejs": NewNode,
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names lists the registered adapters.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Detect picks an adapter from a program's file extension.
func Detect(program string) (string, bool) {
	switch {
	case strings.HasSuffix(program, ".go"):
		return "delve", true
	case strings.HasSuffix(program, ".py"):
		return "python", true
	case strings.HasSuffix(program, ".js"), strings.HasSuffix(program, ".mjs"), strings.HasSuffix(program, ".cjs"):
		return "nodejs", true
	}
	return "", false
}

// Launch returns the launch description for a.
func Launch(a Adapter, attach bool) (dap.Launch, error) {
	l := dap.Launch{AdapterID: a.ID(), Request: "launch"}
	var (
		args []byte
		err  error
	)
	if attach {
		l.Request = "attach"
		args, err = a.AttachArgs()
	} else {
		args, err = a.LaunchArgs()
	}
	if err != nil {
		return l, err
	}
	l.Args = args
	return l, nil
}

// Connect starts the adapter process when it has one and returns a
// transport to it.
func Connect(ctx context.Context, a Adapter, attach bool) (dap.Transport, error) {
	cmd, err := a.Command(attach)
	if err != nil {
		return nil, err
	}
	addr := a.Address(attach)
	if addr == "" {
		if cmd == nil {
			return nil, fmt.Errorf("%s: no command and no address", a.Name())
		}
		return dap.Spawn(cmd)
	}

	if cmd != nil {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", a.Name(), err)
		}
	}
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := WaitForAddress(waitCtx, addr); err != nil {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return nil, err
	}
	t, err := dap.Dial(addr)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return t, nil
	}
	return &owned{Transport: t, cmd: cmd}, nil
}

// owned is a socket transport to an adapter process perch started.
type owned struct {
	dap.Transport
	cmd *exec.Cmd
}

func (o *owned) Close() error {
	err := o.Transport.Close()
	if o.cmd.Process != nil {
		_ = o.cmd.Process.Kill()
		_ = o.cmd.Wait()
	}
	return err
}

// WaitForAddress polls until address accepts connections.
func WaitForAddress(ctx context.Context, address string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		conn, err := net.DialTimeout("tcp", address, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", address, ctx.Err())
		case <-ticker.C:
		}
	}
}

func command(path string, args []string, c Config) *exec.Cmd {
	cmd := exec.Command(path, args...)
	cmd.Dir = c.Cwd
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

func executable(configured, fallback, hint string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	path, err := exec.LookPath(fallback)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH (%s): %w", fallback, hint, err)
	}
	return path, nil
}

// args builds a JSON object from alternating path and value pairs,
// skipping zero values.
func args(kv ...any) ([]byte, error) {
	out := []byte("{}")
	for i := 0; i+1 < len(kv); i += 2 {
		path := kv[i].(string)
		v := kv[i+1]
		if empty(v) {
			continue
		}
		var err error
		if out, err = sjson.SetBytes(out, path, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", path, err)
		}
	}
	return out, nil
}

func empty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case []string:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	}
	return false
}
