package sticky

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/rivo/uniseg"
)

// Line is one row of the source view.
type Line struct {
	// Number is the 1-based source line, 0 for cutoff rows.
	Number int
	// Text is the rendered source text, possibly truncated and coloured.
	Text string
	// Current marks the frame's current line.
	Current bool
	// Breakpoint marks lines carrying an enabled breakpoint.
	Breakpoint bool
	// Cutoff marks the "..." rows standing for lines that did not fit.
	Cutoff bool
}

// Marker returns the two-column gutter marker.
func (l Line) Marker() string {
	switch {
	case l.Current:
		return "->"
	case l.Breakpoint:
		return "B "
	default:
		return "  "
	}
}

// Format renders the row with a right-aligned line number of numWidth
// columns.
func (l Line) Format(numWidth int) string {
	if l.Cutoff {
		return strings.Repeat(" ", numWidth) + " ..."
	}
	return fmt.Sprintf("%*d %s %s", numWidth, l.Number, l.Marker(), l.Text)
}

// gutterWidth is the width of everything Format puts before the text.
func gutterWidth(numWidth int) int {
	return numWidth + 4
}

// truncate shortens s to at most width display columns, ending in "..."
// when something was cut. Grapheme clusters are never split. Colour escape
// sequences take no columns; a cut inside coloured text resets the colour
// before the ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || uniseg.StringWidth(color.ClearCode(s)) <= width {
		return s
	}
	const ellipsis = "..."
	if width <= len(ellipsis) {
		return ellipsis[:width]
	}

	var sb strings.Builder
	used := 0
	state := -1
	styled := false
	rest := s
	for rest != "" {
		if n := escapeLen(rest); n > 0 {
			sb.WriteString(rest[:n])
			rest = rest[n:]
			styled = true
			continue
		}
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > width-len(ellipsis) {
			break
		}
		sb.WriteString(cluster)
		used += w
	}
	if styled {
		sb.WriteString(color.ResetSet)
	}
	sb.WriteString(ellipsis)
	return sb.String()
}

// escapeLen returns the length of the CSI sequence s starts with, or 0.
func escapeLen(s string) int {
	if len(s) < 2 || s[0] != '\x1b' || s[1] != '[' {
		return 0
	}
	for i := 2; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1
		}
	}
	return 0
}

func digits(n int) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}
