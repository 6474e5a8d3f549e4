package dap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// MaxContentLength bounds a single message body.
const MaxContentLength = 10 * 1024 * 1024

// Transport moves framed DAP messages.
type Transport interface {
	Send(content []byte) error
	Receive() ([]byte, error)
	Close() error
}

// stream frames messages over a reader and writer pair.
type stream struct {
	r      *bufio.Reader
	w      io.Writer
	closer func() error

	mu sync.Mutex
}

func (s *stream) Send(content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFrame(s.w, content)
}

func (s *stream) Receive() ([]byte, error) {
	return readFrame(s.r)
}

func (s *stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// NewStreamTransport frames messages over rwc.
func NewStreamTransport(rwc io.ReadWriteCloser) Transport {
	return &stream{r: bufio.NewReader(rwc), w: rwc, closer: rwc.Close}
}

// Dial connects to an adapter listening on address.
func Dial(address string) (Transport, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return NewStreamTransport(conn), nil
}

// Spawn starts cmd and talks to it over its stdin and stdout. Closing the
// transport kills the process.
func Spawn(cmd *exec.Cmd) (Transport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	var once sync.Once
	var waitErr error
	return &stream{
		r: bufio.NewReader(stdout),
		w: stdin,
		closer: func() error {
			once.Do(func() {
				stdin.Close()
				if cmd.Process != nil {
					_ = cmd.Process.Kill()
				}
				waitErr = cmd.Wait()
				var exitErr *exec.ExitError
				if errors.As(waitErr, &exitErr) {
					// Killed on purpose.
					waitErr = nil
				}
			})
			return waitErr
		},
	}, nil
}

func writeFrame(w io.Writer, content []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line == "" && length < 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid content length: %w", err)
			}
			if n < 0 || n > MaxContentLength {
				return nil, fmt.Errorf("content length %d exceeds %d", n, MaxContentLength)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, errors.New("missing Content-Length header")
	}
	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return content, nil
}
