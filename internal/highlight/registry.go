package highlight

import (
	"path/filepath"
	"strings"
)

// Registry maps file names to lexers.
type Registry struct {
	byExt  map[string]*Lexer
	byName map[string]*Lexer
}

// NewRegistry creates a registry holding the built-in lexers.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:  make(map[string]*Lexer),
		byName: make(map[string]*Lexer),
	}
	r.Register(Starlark())
	r.Register(Python())
	r.Register(Go())
	r.Register(JavaScript())
	return r
}

// Register adds a lexer. Extensions without a leading dot are matched
// against the whole base name (BUILD, WORKSPACE).
func (r *Registry) Register(l *Lexer) {
	for _, ext := range l.Extensions() {
		if strings.HasPrefix(ext, ".") {
			r.byExt[ext] = l
		} else {
			r.byName[ext] = l
		}
	}
}

// ForFile returns the lexer for path.
func (r *Registry) ForFile(path string) (*Lexer, bool) {
	base := filepath.Base(path)
	if l, ok := r.byName[base]; ok {
		return l, true
	}
	l, ok := r.byExt[strings.ToLower(filepath.Ext(base))]
	return l, ok
}

// Tokenize tokenizes lines of path, carrying lexer state from the first
// line. It returns nil when no lexer handles path.
func (r *Registry) Tokenize(path string, lines []string) [][]Token {
	l, ok := r.ForFile(path)
	if !ok {
		return nil
	}
	out := make([][]Token, len(lines))
	state := StateNormal
	for i, line := range lines {
		out[i], state = l.Line(line, state)
	}
	return out
}
