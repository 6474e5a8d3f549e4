package terminal

import (
	"io"
	"strings"
	"sync"

	"github.com/dshills/perch/internal/sticky"
)

// Buffer is an in-memory frontend fed with scripted input. It records
// output, prompts and drawn diffs.
type Buffer struct {
	mu      sync.Mutex
	input   []string
	out     strings.Builder
	prompts []string
	draws   []sticky.Diff
	width   int
	height  int
	leaves  int
	suspend int
}

// NewBuffer creates a buffer answering ReadLine with lines in order. The
// special line "^C" reads as an interrupt.
func NewBuffer(lines ...string) *Buffer {
	return &Buffer{input: lines, width: 80, height: 24}
}

// Feed queues more input.
func (b *Buffer) Feed(lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.input = append(b.input, lines...)
}

// SetSize sets what Size reports.
func (b *Buffer) SetSize(w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = w, h
}

// ReadLine returns the next scripted line, io.EOF when none is left.
func (b *Buffer) ReadLine(prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompts = append(b.prompts, prompt)
	if len(b.input) == 0 {
		return "", io.EOF
	}
	line := b.input[0]
	b.input = b.input[1:]
	if line == "^C" {
		return "", ErrInterrupted
	}
	return line, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.Write(p)
}

// Warn records an error message.
func (b *Buffer) Warn(msg string) {
	_, _ = b.Write([]byte("*** " + msg + "\n"))
}

func (b *Buffer) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Buffer) Draw(d sticky.Diff) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draws = append(b.draws, d)
	return nil
}

func (b *Buffer) Leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaves++
}

func (b *Buffer) Suspend(fn func() error) error {
	b.mu.Lock()
	b.suspend++
	b.mu.Unlock()
	return fn()
}

// Output returns everything written so far.
func (b *Buffer) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// Prompts returns the prompts ReadLine was called with.
func (b *Buffer) Prompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

// Draws returns the diffs drawn so far.
func (b *Buffer) Draws() []sticky.Diff {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sticky.Diff(nil), b.draws...)
}

// Leaves counts calls to Leave.
func (b *Buffer) Leaves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leaves
}

// Suspended counts calls to Suspend.
func (b *Buffer) Suspended() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspend
}
