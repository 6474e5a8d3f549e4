package terminal

import "strings"

// Completer returns the candidates for word, the partial token before the
// cursor. head is the line text preceding word.
type Completer func(head, word string) []string

func isWordByte(b byte) bool {
	return b == '_' || b == '.' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func wordStart(line string, pos int) int {
	i := pos
	for i > 0 && isWordByte(line[i-1]) {
		i--
	}
	return i
}

func commonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

// completeLine extends the word before pos (a byte offset) to the longest
// prefix shared by all candidates. When several candidates share no longer
// prefix the line comes back unchanged with ok set. ok is false only when no
// candidate matches the word.
func completeLine(line string, pos int, fn Completer) (string, int, bool) {
	if fn == nil || pos < 0 || pos > len(line) {
		return "", 0, false
	}
	start := wordStart(line, pos)
	word := line[start:pos]
	var cands []string
	for _, c := range fn(line[:start], word) {
		if strings.HasPrefix(c, word) {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return "", 0, false
	}
	prefix := commonPrefix(cands)
	if len(prefix) <= len(word) {
		return line, pos, true
	}
	return line[:start] + prefix + line[pos:], start + len(prefix), true
}
