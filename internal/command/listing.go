package command

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dshills/perch/internal/sticky"
	"github.com/dshills/perch/internal/trace"
)

// listSpan is the number of lines a bare list shows.
const listSpan = 11

func (d *Dispatcher) cmdList(s Session, args string) (Outcome, error) {
	cur, _, err := selected(s)
	if err != nil {
		return Continue(), err
	}
	ls := s.Listing()

	var first, last int
	switch {
	case args == "":
		if ls.File == cur.File && ls.Next > 0 {
			first = ls.Next
		} else {
			first = max(1, cur.Line-listSpan/2)
		}
		last = first + listSpan - 1
	case args == ".":
		first = max(1, cur.Line-listSpan/2)
		last = first + listSpan - 1
	default:
		a, b, hasLast := strings.Cut(args, ",")
		first, err = strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return Continue(), inputErrorf("list", "invalid line number %q", a)
		}
		if !hasLast {
			first = max(1, first-listSpan/2)
			last = first + listSpan - 1
			break
		}
		last, err = strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return Continue(), inputErrorf("list", "invalid line number %q", b)
		}
		if last < first {
			// "list 10, 5" lists five lines from 10.
			last = first + last
		}
	}

	shown, err := printSource(s, cur, cur.File, first, last)
	if err != nil {
		return Continue(), err
	}
	if shown == 0 {
		s.Printf("[EOF]\n")
	}
	ls.File = cur.File
	ls.Next = last + 1
	return Continue(), nil
}

func (d *Dispatcher) cmdLongList(s Session) (Outcome, error) {
	cur, _, err := selected(s)
	if err != nil {
		return Continue(), err
	}
	first, last, err := s.Source().Enclosing(cur.File, cur.Line)
	if err != nil {
		return Continue(), err
	}
	_, err = printSource(s, cur, cur.File, first, last)
	return Continue(), err
}

func (d *Dispatcher) cmdSource(s Session, args string) (Outcome, error) {
	if args == "" {
		return Continue(), inputErrorf("source", "expression expected")
	}
	cur, idx, err := selected(s)
	if err != nil {
		return Continue(), err
	}
	loc, ok := s.Controller().Runtime().(trace.Locator)
	if !ok {
		return Continue(), errors.New("source: the runtime cannot locate definitions")
	}
	def, err := loc.Locate(s.Context(), args, idx)
	if err != nil {
		return Continue(), err
	}
	first, last, err := s.Source().Enclosing(def.File, def.Line)
	if err != nil {
		return Continue(), err
	}
	if def.File != cur.File {
		s.Printf("%s\n", def.File)
	}
	_, err = printSource(s, cur, def.File, max(first, def.Line), last)
	return Continue(), err
}

// printSource prints lines first..last of file with the gutter the sticky
// view uses. It returns the number of lines printed.
func printSource(s Session, cur trace.FrameInfo, file string, first, last int) (int, error) {
	lines, err := s.Source().Lines(file, first, last)
	if err != nil {
		return 0, err
	}
	width := max(3, len(strconv.Itoa(first+len(lines)-1)))
	bps := s.Controller().Breakpoints()
	for i, text := range lines {
		n := first + i
		l := sticky.Line{
			Number:     n,
			Text:       text,
			Current:    file == cur.File && n == cur.Line,
			Breakpoint: len(bps.At(file, n)) > 0,
		}
		s.Printf("%s\n", l.Format(width))
	}
	return len(lines), nil
}

func (d *Dispatcher) cmdSticky(s Session, args string) (Outcome, error) {
	fields := strings.Fields(args)
	on := !s.Sticky()
	if len(fields) > 0 {
		switch fields[0] {
		case "on":
			on = true
			fields = fields[1:]
		case "off":
			on = false
			fields = fields[1:]
		}
	}

	switch len(fields) {
	case 0:
		s.SetStickyRange(0, 0)
	case 2:
		first, err1 := strconv.Atoi(fields[0])
		last, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || first < 1 || last < first {
			return Continue(), inputErrorf("sticky", "invalid range %q", args)
		}
		on = true
		s.SetStickyRange(first, last)
	default:
		return Continue(), inputErrorf("sticky", "usage: %s", CmdSticky.Spec().Usage)
	}
	s.SetSticky(on)
	return Continue(), nil
}
