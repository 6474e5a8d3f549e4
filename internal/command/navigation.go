package command

import (
	"fmt"
	"strconv"

	"github.com/dshills/perch/internal/frames"
	"github.com/dshills/perch/internal/trace"
)

// FormatFrame formats a frame the way stack listings show it.
func FormatFrame(f trace.FrameInfo) string {
	return fmt.Sprintf("%s(%d)%s()", f.File, f.Line, f.Function)
}

func (d *Dispatcher) cmdMove(s Session, args string, dir int) (Outcome, error) {
	name := "up"
	if dir < 0 {
		name = "down"
	}
	n, err := parseCount(name, args)
	if err != nil {
		return Continue(), err
	}
	if _, err := s.Stack().Move(dir * n); err != nil {
		return Continue(), err
	}
	s.Listing().Reset()
	s.ShowFrame()
	return Continue(), nil
}

func (d *Dispatcher) cmdEnd(s Session, top bool) (Outcome, error) {
	var err error
	if top {
		_, err = s.Stack().Top()
	} else {
		_, err = s.Stack().Bottom()
	}
	if err != nil && !frames.IsBoundary(err) {
		return Continue(), err
	}
	s.Listing().Reset()
	s.ShowFrame()
	return Continue(), nil
}

func (d *Dispatcher) cmdFrame(s Session, args string) (Outcome, error) {
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			return Continue(), inputErrorf("frame", "invalid frame index %q", args)
		}
		if _, err := s.Stack().Select(n); err != nil {
			return Continue(), err
		}
		s.Listing().Reset()
	}
	s.ShowFrame()
	return Continue(), nil
}

// cmdWhere prints the visible frames oldest first.
func (d *Dispatcher) cmdWhere(s Session) (Outcome, error) {
	st := s.Stack()
	cur, err := st.Current()
	if err != nil {
		return Continue(), err
	}
	curIdx, _ := cur.Index()

	visible := st.Visible()
	for i := len(visible) - 1; i >= 0; i-- {
		info, err := visible[i].Info()
		if err != nil {
			return Continue(), err
		}
		idx, _ := visible[i].Index()
		marker := "  "
		if idx == curIdx {
			marker = "> "
		}
		s.Printf("%s[%d] %s\n", marker, idx, FormatFrame(info))
	}
	if n := st.HiddenCount(); n > 0 && !st.ShowHidden() {
		s.Printf("   [%d hidden frames, use hf_unhide to show them]\n", n)
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdHiddenList(s Session) (Outcome, error) {
	count := 0
	for _, f := range s.Stack().All() {
		info, err := f.Info()
		if err != nil {
			return Continue(), err
		}
		idx, _ := f.Index()
		if !info.Hidden || idx == 0 {
			continue
		}
		count++
		s.Printf("  [%d] %s\n", idx, FormatFrame(info))
	}
	if count == 0 {
		s.Printf("No hidden frames.\n")
	}
	return Continue(), nil
}
