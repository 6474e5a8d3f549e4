package terminal

import (
	"fmt"

	"github.com/gookit/color"

	"github.com/dshills/perch/internal/sticky"
)

// Palette holds the styles frontends decorate output with.
type Palette struct {
	Enabled    bool
	Header     color.Style
	Current    color.Style
	Breakpoint color.Style
	Error      color.Style
	Cutoff     color.Style
}

// DefaultPalette returns the standard styles, enabled or not.
func DefaultPalette(enabled bool) Palette {
	return Palette{
		Enabled:    enabled,
		Header:     color.New(color.FgLightBlue, color.OpBold),
		Current:    color.New(color.FgGreen, color.OpBold),
		Breakpoint: color.New(color.FgRed),
		Error:      color.New(color.FgRed, color.OpBold),
		Cutoff:     color.New(color.FgGray),
	}
}

func (p Palette) paint(st color.Style, s string) string {
	if !p.Enabled || len(st) == 0 {
		return s
	}
	return st.Sprint(s)
}

// FormatRow renders one sticky row with a coloured gutter. With the palette
// disabled it matches sticky.Line.Format.
func FormatRow(l sticky.Line, numWidth int, p Palette) string {
	if l.Cutoff {
		return p.paint(p.Cutoff, l.Format(numWidth))
	}
	marker := l.Marker()
	switch {
	case l.Current:
		marker = p.paint(p.Current, marker)
	case l.Breakpoint:
		marker = p.paint(p.Breakpoint, marker)
	}
	return fmt.Sprintf("%*d %s %s", numWidth, l.Number, marker, l.Text)
}

// view is the frontend-side copy of the painted sticky rows: row 0 is the
// header, source rows follow.
type view struct {
	rows []string
}

// apply updates the copy from d and returns the indices of changed rows.
// A full diff replaces everything and reports every row.
func (v *view) apply(d sticky.Diff, p Palette) (changed []int, full bool) {
	header := p.paint(p.Header, d.Header)
	if d.Full || len(v.rows) == 0 {
		v.rows = v.rows[:0]
		v.rows = append(v.rows, header)
		for _, l := range d.Lines {
			v.rows = append(v.rows, FormatRow(l, d.NumWidth, p))
		}
		return nil, true
	}
	if d.HeaderChanged {
		v.rows[0] = header
		changed = append(changed, 0)
	}
	for _, l := range d.Lines {
		row := d.Row(l.Number)
		if row < 0 || row+1 >= len(v.rows) {
			continue
		}
		v.rows[row+1] = FormatRow(l, d.NumWidth, p)
		changed = append(changed, row+1)
	}
	return changed, false
}

func (v *view) reset() {
	v.rows = nil
}
