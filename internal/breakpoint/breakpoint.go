package breakpoint

import (
	"fmt"
	"strings"
)

// Breakpoint is one entry of the table.
type Breakpoint struct {
	// ID is the creation-order identifier, starting at 1.
	ID int `json:"id"`

	// File is the source path.
	File string `json:"file"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Enabled breakpoints take part in matching.
	Enabled bool `json:"enabled"`

	// Condition is evaluated in the stopped frame; empty means always.
	Condition string `json:"condition,omitempty"`

	// Ignore is the number of upcoming hits to suppress.
	Ignore int `json:"ignore,omitempty"`

	// Hits counts every hit, suppressed or not.
	Hits int `json:"hits"`

	// Temporary breakpoints are deleted after the first reported stop.
	Temporary bool `json:"temporary,omitempty"`
}

// Location formats the breakpoint as "file:line".
func (b Breakpoint) Location() string {
	return fmt.Sprintf("%s:%d", b.File, b.Line)
}

// Describe formats the breakpoint for the `break` listing.
func (b Breakpoint) Describe() string {
	var sb strings.Builder
	disp := "keep"
	if b.Temporary {
		disp = "del "
	}
	enabled := "yes"
	if !b.Enabled {
		enabled = "no "
	}
	fmt.Fprintf(&sb, "%-4d breakpoint   %s  %s   at %s", b.ID, disp, enabled, b.Location())
	if b.Condition != "" {
		fmt.Fprintf(&sb, "\n\tstop only if %s", b.Condition)
	}
	if b.Ignore > 0 {
		fmt.Fprintf(&sb, "\n\twill ignore next %d crossings of breakpoint", b.Ignore)
	}
	if b.Hits > 0 {
		word := "times"
		if b.Hits == 1 {
			word = "time"
		}
		fmt.Fprintf(&sb, "\n\tbreakpoint already hit %d %s", b.Hits, word)
	}
	return sb.String()
}
