// Package frames wraps the call chain of a paused program.
//
// A Stack is rebuilt from the trace runtime on every stop. Each rebuild (and
// each resume) bumps the stack's generation. Frame values are handles tagged
// with the generation they were taken from; using a handle after the
// generation moved on fails with ErrStaleFrame instead of reading frames
// the runtime may already have discarded.
//
// Index 0 is the innermost (newest) frame. "Up" moves toward callers, i.e.
// to larger indices. Hidden frames are skipped by relative navigation unless
// the stack is told to show them.
package frames
