package tracetest

import (
	"maps"

	"github.com/dshills/perch/internal/trace"
)

type frame struct {
	info   trace.FrameInfo
	locals map[string]string
	params map[string]bool
}

// Event is one recorded line event.
type Event struct {
	// Frames is the call chain, innermost first.
	Frames []trace.FrameInfo
	// Locals per frame, aligned with Frames.
	Locals []map[string]string
	// Params per frame names the locals that are parameters.
	Params []map[string]bool
	// Exception, when set, makes the event an uncaught error.
	Exception string
}

// Depth returns the number of frames.
func (e Event) Depth() int {
	return len(e.Frames)
}

// Program is a scripted execution.
type Program struct {
	file    string
	stack   []frame
	events  []Event
	globals map[string]string
	evals   map[string]*Program
}

// NewProgram starts a program whose module frame runs in file.
func NewProgram(file string) *Program {
	return &Program{
		file:    file,
		stack:   []frame{{info: trace.FrameInfo{File: file, Function: "<toplevel>"}, locals: map[string]string{}}},
		globals: map[string]string{},
		evals:   map[string]*Program{},
	}
}

// Line records the innermost frame arriving at line n.
func (p *Program) Line(n int) *Program {
	p.stack[len(p.stack)-1].info.Line = n
	p.record("")
	return p
}

// Lines records consecutive lines.
func (p *Program) Lines(ns ...int) *Program {
	for _, n := range ns {
		p.Line(n)
	}
	return p
}

// Call enters function fn whose first line is line, in the current file.
func (p *Program) Call(fn string, line int) *Program {
	return p.CallIn(p.stack[len(p.stack)-1].info.File, fn, line)
}

// CallIn enters function fn at file:line.
func (p *Program) CallIn(file, fn string, line int) *Program {
	p.stack = append(p.stack, frame{
		info:   trace.FrameInfo{File: file, Line: line, Function: fn},
		locals: map[string]string{},
	})
	p.record("")
	return p
}

// CallHidden enters a hidden frame (a builtin) without recording a line.
func (p *Program) CallHidden(fn string) *Program {
	p.stack = append(p.stack, frame{
		info:   trace.FrameInfo{File: "<builtin>", Function: fn, Hidden: true},
		locals: map[string]string{},
	})
	return p
}

// Return pops the innermost frame without recording an event; the next
// Line records where the caller resumed.
func (p *Program) Return() *Program {
	if len(p.stack) > 1 {
		p.stack = p.stack[:len(p.stack)-1]
	}
	return p
}

// Set assigns a local in the innermost frame, visible from the next event.
func (p *Program) Set(name, value string) *Program {
	p.stack[len(p.stack)-1].locals[name] = value
	return p
}

// Param assigns a parameter of the innermost frame.
func (p *Program) Param(name, value string) *Program {
	f := &p.stack[len(p.stack)-1]
	if f.params == nil {
		f.params = map[string]bool{}
	}
	f.params[name] = true
	f.locals[name] = value
	return p
}

// Global assigns a global variable.
func (p *Program) Global(name, value string) *Program {
	p.globals[name] = value
	return p
}

// Raise records an uncaught error at the current position.
func (p *Program) Raise(msg string) *Program {
	p.record(msg)
	return p
}

// OnEval makes evaluating expr run sub, which can reach breakpoints and
// raise nested stops.
func (p *Program) OnEval(expr string, sub *Program) *Program {
	p.evals[expr] = sub
	return p
}

// Events returns the recorded events.
func (p *Program) Events() []Event {
	return p.events
}

func (p *Program) record(exception string) {
	n := len(p.stack)
	ev := Event{
		Frames:    make([]trace.FrameInfo, n),
		Locals:    make([]map[string]string, n),
		Params:    make([]map[string]bool, n),
		Exception: exception,
	}
	for i := 0; i < n; i++ {
		f := p.stack[n-1-i]
		ev.Frames[i] = f.info
		ev.Locals[i] = maps.Clone(f.locals)
		ev.Params[i] = f.params
	}
	p.events = append(p.events, ev)
}
