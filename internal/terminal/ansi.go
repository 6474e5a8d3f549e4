package terminal

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// cutCSI splits an escape sequence off the front of s. params holds the
// parameter bytes, final the terminating byte. ok is false when s does not
// start with a complete control sequence.
func cutCSI(s string) (params string, final byte, rest string, ok bool) {
	if len(s) < 2 || s[0] != 0x1b || s[1] != '[' {
		return "", 0, s, false
	}
	for i := 2; i < len(s); i++ {
		if c := s[i]; c >= 0x40 && c <= 0x7e {
			return s[2:i], c, s[i+1:], true
		}
	}
	return "", 0, s, false
}

// applySGR folds the select-graphic-rendition parameters into st.
func applySGR(st tcell.Style, params string) tcell.Style {
	if params == "" {
		return tcell.StyleDefault
	}
	fields := strings.Split(params, ";")
	num := func(i int) int {
		if i >= len(fields) {
			return -1
		}
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return -1
		}
		return n
	}

	for i := 0; i < len(fields); i++ {
		switch n := num(i); {
		case n == 0:
			st = tcell.StyleDefault
		case n == 1:
			st = st.Bold(true)
		case n == 2:
			st = st.Dim(true)
		case n == 3:
			st = st.Italic(true)
		case n == 4:
			st = st.Underline(true)
		case n == 7:
			st = st.Reverse(true)
		case n == 22:
			st = st.Bold(false).Dim(false)
		case n == 23:
			st = st.Italic(false)
		case n == 24:
			st = st.Underline(false)
		case n == 27:
			st = st.Reverse(false)
		case n >= 30 && n <= 37:
			st = st.Foreground(tcell.PaletteColor(n - 30))
		case n >= 90 && n <= 97:
			st = st.Foreground(tcell.PaletteColor(n - 90 + 8))
		case n == 39:
			st = st.Foreground(tcell.ColorDefault)
		case n >= 40 && n <= 47:
			st = st.Background(tcell.PaletteColor(n - 40))
		case n >= 100 && n <= 107:
			st = st.Background(tcell.PaletteColor(n - 100 + 8))
		case n == 49:
			st = st.Background(tcell.ColorDefault)
		case n == 38 || n == 48:
			var c tcell.Color
			switch num(i + 1) {
			case 5:
				c = tcell.PaletteColor(num(i + 2))
				i += 2
			case 2:
				c = tcell.NewRGBColor(int32(num(i+2)), int32(num(i+3)), int32(num(i+4)))
				i += 4
			default:
				continue
			}
			if n == 38 {
				st = st.Foreground(c)
			} else {
				st = st.Background(c)
			}
		}
	}
	return st
}
