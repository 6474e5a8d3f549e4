package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type rule struct {
	pattern *regexp.Regexp
	kind    Kind
}

type multiLine struct {
	start string
	end   string
	kind  Kind
	state State
}

// Lexer is a regex-driven tokenizer for one language.
type Lexer struct {
	language   string
	extensions []string
	rules      []rule
	keywords   map[string]Kind
	multi      []multiLine
}

// NewLexer creates an empty lexer.
func NewLexer(language string, extensions ...string) *Lexer {
	return &Lexer{
		language:   language,
		extensions: extensions,
		keywords:   make(map[string]Kind),
	}
}

// Language returns the language name.
func (l *Lexer) Language() string { return l.language }

// Extensions returns the file extensions the lexer handles.
func (l *Lexer) Extensions() []string { return l.extensions }

// Rule adds a single-line pattern.
func (l *Lexer) Rule(pattern string, kind Kind) *Lexer {
	l.rules = append(l.rules, rule{pattern: regexp.MustCompile(pattern), kind: kind})
	return l
}

// Keywords classifies identifiers.
func (l *Lexer) Keywords(kind Kind, words ...string) *Lexer {
	for _, w := range words {
		l.keywords[w] = kind
	}
	return l
}

// MultiLine adds a construct that may span lines.
func (l *Lexer) MultiLine(start, end string, kind Kind, state State) *Lexer {
	l.multi = append(l.multi, multiLine{start: start, end: end, kind: kind, state: state})
	return l
}

// Line tokenizes line given the state left by the previous line.
func (l *Lexer) Line(line string, prev State) ([]Token, State) {
	if prev == StateNormal {
		return l.normal(line)
	}

	for _, m := range l.multi {
		if m.state != prev {
			continue
		}
		idx := strings.Index(line, m.end)
		if idx < 0 {
			return []Token{{Kind: m.kind, Start: 0, End: len(line)}}, prev
		}
		end := idx + len(m.end)
		tokens := []Token{{Kind: m.kind, Start: 0, End: end}}
		rest, state := l.normal(line[end:])
		for _, t := range rest {
			t.Start += end
			t.End += end
			tokens = append(tokens, t)
		}
		return tokens, state
	}
	return l.normal(line)
}

func (l *Lexer) normal(line string) ([]Token, State) {
	var tokens []Token
	covered := make([]bool, len(line))
	state := StateNormal

	// Multi-line openers win over single-line rules, earliest first.
	for {
		best, bestIdx := -1, len(line)
		for i, m := range l.multi {
			idx := indexUncovered(line, m.start, covered)
			if idx >= 0 && idx < bestIdx {
				best, bestIdx = i, idx
			}
		}
		if best < 0 || l.commentBefore(line, bestIdx) {
			break
		}
		m := l.multi[best]
		endIdx := strings.Index(line[bestIdx+len(m.start):], m.end)
		if endIdx < 0 {
			tokens = append(tokens, Token{Kind: m.kind, Start: bestIdx, End: len(line)})
			mark(covered, bestIdx, len(line))
			state = m.state
			break
		}
		end := bestIdx + len(m.start) + endIdx + len(m.end)
		tokens = append(tokens, Token{Kind: m.kind, Start: bestIdx, End: end})
		mark(covered, bestIdx, end)
	}

	for _, r := range l.rules {
		for _, loc := range r.pattern.FindAllStringIndex(line, -1) {
			if loc[1] > loc[0] && !isCovered(covered, loc[0], loc[1]) {
				tokens = append(tokens, Token{Kind: r.kind, Start: loc[0], End: loc[1]})
				mark(covered, loc[0], loc[1])
			}
		}
	}

	tokens = append(tokens, l.identifiers(line, covered)...)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })
	return tokens, state
}

// commentBefore reports whether a line comment starts before idx, in which
// case an opener at idx is commented out.
func (l *Lexer) commentBefore(line string, idx int) bool {
	for _, r := range l.rules {
		if r.kind != KindComment {
			continue
		}
		if loc := r.pattern.FindStringIndex(line); loc != nil && loc[0] < idx {
			return true
		}
	}
	return false
}

func (l *Lexer) identifiers(line string, covered []bool) []Token {
	var tokens []Token
	i := 0
	for i < len(line) {
		if covered[i] {
			i++
			continue
		}
		r := rune(line[i])
		if !unicode.IsLetter(r) && r != '_' {
			i++
			continue
		}
		start := i
		for i < len(line) {
			r = rune(line[i])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			i++
		}
		if isCovered(covered, start, i) {
			continue
		}
		kind := KindIdentifier
		if k, ok := l.keywords[line[start:i]]; ok {
			kind = k
		}
		tokens = append(tokens, Token{Kind: kind, Start: start, End: i})
	}
	return tokens
}

func indexUncovered(line, sub string, covered []bool) int {
	off := 0
	for {
		idx := strings.Index(line[off:], sub)
		if idx < 0 {
			return -1
		}
		idx += off
		if !isCovered(covered, idx, idx+len(sub)) {
			return idx
		}
		off = idx + len(sub)
	}
}

func isCovered(covered []bool, start, end int) bool {
	for i := start; i < end && i < len(covered); i++ {
		if covered[i] {
			return true
		}
	}
	return false
}

func mark(covered []bool, start, end int) {
	for i := start; i < end && i < len(covered); i++ {
		covered[i] = true
	}
}
