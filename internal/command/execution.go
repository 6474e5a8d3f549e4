package command

import (
	"strconv"

	"github.com/dshills/perch/internal/trace"
)

// innermost returns the frame execution directives are anchored on.
func innermost(s Session) (trace.FrameInfo, error) {
	f, err := s.Stack().At(0)
	if err != nil {
		return trace.FrameInfo{}, err
	}
	return f.Info()
}

func (d *Dispatcher) cmdUntil(s Session, args string) (Outcome, error) {
	cur, err := innermost(s)
	if err != nil {
		return Continue(), err
	}
	if args == "" {
		return Resume(trace.Directive{Kind: trace.ContinueUntil, File: cur.File, Line: cur.Line + 1}), nil
	}
	line, err := strconv.Atoi(args)
	if err != nil {
		return Continue(), inputErrorf("until", "invalid line number %q", args)
	}
	if line <= cur.Line {
		return Continue(), inputErrorf("until", "line number %d is not after the current line %d", line, cur.Line)
	}
	return Resume(trace.Directive{Kind: trace.ContinueUntil, File: cur.File, Line: line}), nil
}

// cmdContinue resumes until the next breakpoint. A line argument sets a
// temporary breakpoint in the selected frame's file first.
func (d *Dispatcher) cmdContinue(s Session, args string) (Outcome, error) {
	if args == "" {
		return Resume(trace.Directive{Kind: trace.Continue}), nil
	}
	file, line, err := breakLocation(s, "continue", args)
	if err != nil {
		return Continue(), err
	}
	bp, err := s.Controller().AddBreakpoint(s.Context(), file, line, "", true)
	if err != nil {
		return Continue(), err
	}
	s.Printf("Breakpoint %d at %s\n", bp.ID, bp.Location())
	return Resume(trace.Directive{Kind: trace.Continue}), nil
}
