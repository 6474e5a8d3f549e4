package command

import (
	"errors"
	"strings"

	"github.com/dshills/perch/internal/breakpoint"
	"github.com/dshills/perch/internal/source"
)

func (d *Dispatcher) cmdBreak(s Session, args string, temporary bool) (Outcome, error) {
	name := "break"
	if temporary {
		name = "tbreak"
	}
	if args == "" {
		if temporary {
			return Continue(), inputErrorf(name, "location expected")
		}
		listBreakpoints(s)
		return Continue(), nil
	}

	loc, cond, _ := strings.Cut(args, ",")
	file, line, err := breakLocation(s, name, loc)
	if err != nil {
		return Continue(), err
	}
	bp, err := s.Controller().AddBreakpoint(s.Context(), file, line, strings.TrimSpace(cond), temporary)
	if err != nil {
		return Continue(), err
	}
	s.Printf("Breakpoint %d at %s\n", bp.ID, bp.Location())
	return Continue(), nil
}

// breakLocation resolves "[file:]line" against the selected frame and
// checks the line exists when the source is readable.
func breakLocation(s Session, cmd, arg string) (string, int, error) {
	file, line, err := parseLocation(cmd, arg)
	if err != nil {
		return "", 0, err
	}
	if file == "" {
		cur, _, err := selected(s)
		if err != nil {
			return "", 0, err
		}
		file = cur.File
	} else {
		file = resolveFile(file, knownFiles(s))
	}

	n, err := s.Source().LineCount(file)
	switch {
	case errors.Is(err, source.ErrNoSource):
	case err != nil:
		return "", 0, err
	case line > n:
		return "", 0, inputErrorf(cmd, "line %d does not exist in %s (%d lines)", line, file, n)
	}
	return file, line, nil
}

func knownFiles(s Session) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range s.Stack().All() {
		if info, err := f.Info(); err == nil && !info.Hidden {
			add(info.File)
		}
	}
	for _, bp := range s.Controller().Breakpoints().List() {
		add(bp.File)
	}
	return out
}

func listBreakpoints(s Session) {
	bps := s.Controller().Breakpoints().List()
	if len(bps) == 0 {
		s.Printf("No breakpoints.\n")
		return
	}
	s.Printf("Num  Type         Disp  Enb   Where\n")
	for _, bp := range bps {
		s.Printf("%s\n", bp.Describe())
	}
}

func (d *Dispatcher) cmdClear(s Session, args string) (Outcome, error) {
	ctl := s.Controller()
	if args == "" {
		removed, err := ctl.ClearBreakpoints(s.Context())
		for _, bp := range removed {
			s.Printf("Deleted breakpoint %d at %s\n", bp.ID, bp.Location())
		}
		return Continue(), err
	}

	if strings.Contains(args, ":") {
		file, line, err := parseLocation("clear", args)
		if err != nil {
			return Continue(), err
		}
		file = resolveFile(file, knownFiles(s))
		at := ctl.Breakpoints().At(file, line)
		if len(at) == 0 {
			return Continue(), inputErrorf("clear", "no breakpoint at %s:%d", file, line)
		}
		for _, bp := range at {
			if _, err := ctl.RemoveBreakpoint(s.Context(), bp.ID); err != nil {
				return Continue(), err
			}
			s.Printf("Deleted breakpoint %d at %s\n", bp.ID, bp.Location())
		}
		return Continue(), nil
	}

	ids, err := parseIDs("clear", args)
	if err != nil {
		return Continue(), err
	}
	for _, id := range ids {
		bp, err := ctl.RemoveBreakpoint(s.Context(), id)
		if err != nil {
			s.Warn(noBreakpoint(id, err))
			continue
		}
		s.Printf("Deleted breakpoint %d at %s\n", bp.ID, bp.Location())
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdEnable(s Session, args string, enabled bool) (Outcome, error) {
	name, verb := "enable", "Enabled"
	if !enabled {
		name, verb = "disable", "Disabled"
	}
	ids, err := parseIDs(name, args)
	if err != nil {
		return Continue(), err
	}
	ctl := s.Controller()
	for _, id := range ids {
		if err := ctl.SetBreakpointEnabled(s.Context(), id, enabled); err != nil {
			s.Warn(noBreakpoint(id, err))
			continue
		}
		bp, _ := ctl.Breakpoints().Get(id)
		s.Printf("%s breakpoint %d at %s\n", verb, id, bp.Location())
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdCondition(s Session, args string) (Outcome, error) {
	num, expr := splitName(args)
	ids, err := parseIDs("condition", num)
	if err != nil {
		return Continue(), err
	}
	id := ids[0]
	if err := s.Controller().SetBreakpointCondition(id, expr); err != nil {
		return Continue(), noBreakpoint(id, err)
	}
	if expr == "" {
		s.Printf("Breakpoint %d is now unconditional.\n", id)
	} else {
		s.Printf("New condition set for breakpoint %d.\n", id)
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdIgnore(s Session, args string) (Outcome, error) {
	num, rest := splitName(args)
	ids, err := parseIDs("ignore", num)
	if err != nil {
		return Continue(), err
	}
	id := ids[0]
	count := 0
	if rest != "" {
		counts, err := parseIDs("ignore", rest)
		if err != nil || counts[0] < 0 {
			return Continue(), inputErrorf("ignore", "invalid count %q", rest)
		}
		count = counts[0]
	}
	if err := s.Controller().SetBreakpointIgnore(id, count); err != nil {
		return Continue(), noBreakpoint(id, err)
	}
	switch count {
	case 0:
		s.Printf("Will stop next time breakpoint %d is reached.\n", id)
	case 1:
		s.Printf("Will ignore next crossing of breakpoint %d.\n", id)
	default:
		s.Printf("Will ignore next %d crossings of breakpoint %d.\n", count, id)
	}
	return Continue(), nil
}

func noBreakpoint(id int, err error) error {
	if errors.Is(err, breakpoint.ErrNotFound) {
		return inputErrorf("", "no breakpoint number %d", id)
	}
	return err
}
