package terminal

import (
	"bytes"
	"io"
	"sync/atomic"
)

// interruptReader notes Ctrl-C bytes passing through so an io.EOF from the
// line editor can be told apart from Ctrl-D.
type interruptReader struct {
	r   io.Reader
	hit atomic.Bool
}

func (ir *interruptReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 && bytes.IndexByte(p[:n], 0x03) >= 0 {
		ir.hit.Store(true)
	}
	return n, err
}

// take reports and clears a pending interrupt.
func (ir *interruptReader) take() bool {
	return ir.hit.Swap(false)
}
