package trace

// Stepper decides, for runtimes that see every line event, whether a new
// line satisfies the active directive.
//
// Depth counts frames; a larger depth is a deeper call. The anchor is the
// position at which the directive was issued.
type Stepper struct {
	d          Directive
	anchorFile string
	anchorLine int
	depth      int
}

// Begin arms the stepper for d issued at the given position. A directive with
// Reissue set keeps the previous anchor.
func (s *Stepper) Begin(d Directive, file string, line, depth int) {
	if d.Reissue {
		return
	}
	s.d = d
	s.anchorFile = file
	s.anchorLine = line
	s.depth = depth
}

// Directive returns the armed directive.
func (s *Stepper) Directive() Directive {
	return s.d
}

// Step is called for each new line event. It returns the stop kind and true
// when execution should stop. atBreakpoint reports whether file:line carries
// a breakpoint; such lines yield StopBreakpoint candidates when the directive
// itself would not stop there.
func (s *Stepper) Step(file string, line, depth int, atBreakpoint bool) (StopKind, bool) {
	switch s.d.Kind {
	case StepInto:
		switch {
		case depth > s.depth:
			return StopCall, true
		case depth < s.depth:
			return StopReturn, true
		}
		return StopLine, true

	case StepOver:
		if depth < s.depth {
			return StopReturn, true
		}
		if depth == s.depth {
			return StopLine, true
		}

	case StepOut, RunUntilReturn:
		if depth < s.depth {
			return StopReturn, true
		}

	case ContinueUntil:
		if s.d.Exact {
			if file == s.d.File && line == s.d.Line {
				return StopLine, true
			}
			break
		}
		if depth < s.depth {
			return StopReturn, true
		}
		if depth == s.depth && file == s.anchorFile && line >= s.d.Line {
			return StopLine, true
		}
	}

	if atBreakpoint {
		return StopBreakpoint, true
	}
	return 0, false
}
