package highlight

import (
	"strings"

	"github.com/gookit/color"
)

// Theme maps token kinds to terminal colours.
type Theme map[Kind]color.Style

// DefaultTheme is a dark-background palette.
func DefaultTheme() Theme {
	return Theme{
		KindComment:     color.New(color.FgGray),
		KindString:      color.New(color.FgGreen),
		KindNumber:      color.New(color.FgMagenta),
		KindKeyword:     color.New(color.FgYellow, color.OpBold),
		KindDeclaration: color.New(color.FgBlue, color.OpBold),
		KindConstant:    color.New(color.FgMagenta),
		KindBuiltin:     color.New(color.FgCyan),
		KindType:        color.New(color.FgCyan),
		KindDecorator:   color.New(color.FgLightBlue),
	}
}

// ANSI renders highlighted lines with escape sequences.
type ANSI struct {
	registry *Registry
	theme    Theme
}

// NewANSI creates an ANSI renderer.
func NewANSI(registry *Registry, theme Theme) *ANSI {
	if registry == nil {
		registry = NewRegistry()
	}
	if theme == nil {
		theme = DefaultTheme()
	}
	return &ANSI{registry: registry, theme: theme}
}

// Highlight returns lines of path with colour escapes applied. Lines of
// unknown file types are returned unchanged.
func (a *ANSI) Highlight(path string, lines []string) []string {
	toks := a.registry.Tokenize(path, lines)
	if toks == nil {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = a.paint(line, toks[i])
	}
	return out
}

func (a *ANSI) paint(line string, tokens []Token) string {
	var sb strings.Builder
	pos := 0
	for _, t := range tokens {
		if t.Start < pos || t.End > len(line) {
			continue
		}
		sb.WriteString(line[pos:t.Start])
		text := line[t.Start:t.End]
		if style, ok := a.theme[t.Kind]; ok {
			sb.WriteString(style.Sprint(text))
		} else {
			sb.WriteString(text)
		}
		pos = t.End
	}
	sb.WriteString(line[pos:])
	return sb.String()
}
