package source

import (
	"path/filepath"
	"strings"
)

// Enclosing returns the line range of the function surrounding line, found
// from the text alone. Brace languages are matched on braces from the
// nearest "func"/"function" line; everything else is treated as
// indentation-scoped and matched from the nearest "def" with a smaller
// indent. When no function encloses line the whole file is returned.
func (c *Cache) Enclosing(path string, line int) (first, last int, err error) {
	e, err := c.load(path)
	if err != nil {
		return 0, 0, err
	}
	if line < 1 || line > len(e.lines) {
		return 1, len(e.lines), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".js", ".ts", ".mjs", ".cjs":
		first, last = braceScope(e.lines, line)
	default:
		first, last = indentScope(e.lines, line)
	}
	return first, last, nil
}

func indent(s string) (int, bool) {
	trimmed := strings.TrimLeft(s, " \t")
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return 0, false
	}
	n := 0
	for _, r := range s[:len(s)-len(trimmed)] {
		if r == '\t' {
			n += 8 - n%8
		} else {
			n++
		}
	}
	return n, true
}

func indentScope(lines []string, line int) (int, int) {
	cur, ok := indent(lines[line-1])
	if !ok {
		cur = 1 << 30
	}
	isDef := func(s string) bool {
		t := strings.TrimSpace(s)
		return strings.HasPrefix(t, "def ") || strings.HasPrefix(t, "async def ")
	}

	start := 0
	defIndent := 0
	for i := line - 1; i >= 0; i-- {
		n, ok := indent(lines[i])
		if !ok {
			continue
		}
		if isDef(lines[i]) && (n < cur || i == line-1) {
			start, defIndent = i+1, n
			break
		}
		if n < cur {
			cur = n
		}
	}
	if start == 0 {
		return 1, len(lines)
	}

	end := start
	for i := start; i < len(lines); i++ {
		n, ok := indent(lines[i])
		if !ok {
			continue
		}
		if n <= defIndent {
			break
		}
		end = i + 1
	}
	return start, end
}

func braceScope(lines []string, line int) (int, int) {
	start := 0
	for i := line - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if strings.HasPrefix(t, "func ") || strings.HasPrefix(t, "function ") ||
			strings.HasPrefix(t, "async function ") {
			start = i + 1
			break
		}
	}
	if start == 0 {
		return 1, len(lines)
	}

	depth := 0
	opened := false
	for i := start - 1; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return start, i + 1
		}
	}
	return start, len(lines)
}
