package command

import (
	"strings"
	"unicode/utf8"
)

// prettyWidth is the line width pp aims for.
const prettyWidth = 80

type group struct {
	open, close byte
	items       []item
	// trailing records a comma before the closing bracket, as in "(1,)".
	trailing bool
}

type part struct {
	text  string
	group *group
}

type item []part

// Pretty breaks a value representation over several lines the way pprint
// does: containers that do not fit in width put one element per line,
// aligned after the opening bracket. Text that does not parse as balanced
// brackets is returned unchanged.
func Pretty(repr string, width int) string {
	it, ok := parseItem(repr)
	if !ok {
		return repr
	}
	return it.format(0, width)
}

func parseItem(s string) (item, bool) {
	stack := []*group{{}}
	cur := []part{}
	// items holds the finished items of each open group.
	items := [][][]part{nil}
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			cur = append(cur, part{text: text.String()})
			text.Reset()
		}
	}
	var parents [][]part

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\'':
			j := i + 1
			for j < len(s) && s[j] != c {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(s) {
				return nil, false
			}
			text.WriteString(s[i : j+1])
			i = j
		case '[', '(', '{':
			flush()
			parents = append(parents, cur)
			cur = nil
			g := &group{open: c, close: closer(c)}
			stack = append(stack, g)
			items = append(items, nil)
		case ']', ')', '}':
			if len(stack) == 1 || stack[len(stack)-1].close != c {
				return nil, false
			}
			flush()
			g := stack[len(stack)-1]
			pending := items[len(items)-1]
			if len(cur) > 0 {
				pending = append(pending, cur)
			} else if len(pending) > 0 {
				g.trailing = true
			}
			for _, p := range pending {
				g.items = append(g.items, trimItem(p))
			}
			stack = stack[:len(stack)-1]
			items = items[:len(items)-1]
			cur = append(parents[len(parents)-1], part{group: g})
			parents = parents[:len(parents)-1]
		case ',':
			if len(stack) == 1 {
				text.WriteByte(c)
				continue
			}
			flush()
			items[len(items)-1] = append(items[len(items)-1], cur)
			cur = nil
		default:
			text.WriteByte(c)
		}
	}
	if len(stack) != 1 {
		return nil, false
	}
	flush()
	return item(cur), true
}

func closer(c byte) byte {
	switch c {
	case '[':
		return ']'
	case '(':
		return ')'
	default:
		return '}'
	}
}

func trimItem(parts []part) item {
	if len(parts) > 0 && parts[0].group == nil {
		parts[0].text = strings.TrimLeft(parts[0].text, " ")
		if parts[0].text == "" {
			parts = parts[1:]
		}
	}
	return item(parts)
}

func (it item) flat() string {
	var sb strings.Builder
	for _, p := range it {
		if p.group != nil {
			sb.WriteString(p.group.flat())
		} else {
			sb.WriteString(p.text)
		}
	}
	return sb.String()
}

func (g *group) flat() string {
	var sb strings.Builder
	sb.WriteByte(g.open)
	for i, it := range g.items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(it.flat())
	}
	if g.trailing {
		sb.WriteByte(',')
	}
	sb.WriteByte(g.close)
	return sb.String()
}

func (it item) format(col, width int) string {
	var sb strings.Builder
	for _, p := range it {
		if p.group == nil {
			sb.WriteString(p.text)
			col += utf8.RuneCountInString(p.text)
			continue
		}
		s := p.group.format(col, width)
		sb.WriteString(s)
		if i := strings.LastIndexByte(s, '\n'); i >= 0 {
			col = utf8.RuneCountInString(s[i+1:])
		} else {
			col += utf8.RuneCountInString(s)
		}
	}
	return sb.String()
}

func (g *group) format(col, width int) string {
	flat := g.flat()
	if col+utf8.RuneCountInString(flat) <= width || len(g.items) < 2 && !g.nested() {
		return flat
	}
	pad := strings.Repeat(" ", col+1)
	var sb strings.Builder
	sb.WriteByte(g.open)
	for i, it := range g.items {
		if i > 0 {
			sb.WriteString(",\n")
			sb.WriteString(pad)
		}
		sb.WriteString(it.format(col+1, width))
	}
	if g.trailing {
		sb.WriteByte(',')
	}
	sb.WriteByte(g.close)
	return sb.String()
}

func (g *group) nested() bool {
	for _, it := range g.items {
		for _, p := range it {
			if p.group != nil {
				return true
			}
		}
	}
	return false
}
