package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// maxAliasDepth bounds chained alias expansion.
const maxAliasDepth = 16

// ShadowWarning is reported when an alias hides a built-in command.
type ShadowWarning struct {
	Name string
}

func (w *ShadowWarning) Error() string {
	return fmt.Sprintf("alias %q shadows the built-in command", w.Name)
}

// AliasTable maps alias names to command templates.
type AliasTable struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewAliasTable creates an empty table.
func NewAliasTable() *AliasTable {
	return &AliasTable{entries: make(map[string]string)}
}

// Define sets name to expand to template. Shadowing a built-in is allowed;
// it returns a *ShadowWarning so the caller can tell the user.
func (t *AliasTable) Define(name, template string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return &UserInputError{Command: "alias", Msg: fmt.Sprintf("invalid alias name %q", name)}
	}
	if strings.TrimSpace(template) == "" {
		return &UserInputError{Command: "alias", Msg: "empty expansion"}
	}
	t.mu.Lock()
	t.entries[name] = strings.TrimSpace(template)
	t.mu.Unlock()

	if IsBuiltin(name) {
		return &ShadowWarning{Name: name}
	}
	return nil
}

// Remove deletes an alias and reports whether it existed.
func (t *AliasTable) Remove(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; !ok {
		return false
	}
	delete(t.entries, name)
	return true
}

// Get returns the template of name.
func (t *AliasTable) Get(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tmpl, ok := t.entries[name]
	return tmpl, ok
}

// Names returns the alias names, sorted.
func (t *AliasTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Expand rewrites line while its first word names an alias. Each alias is
// expanded at most once so self-referencing aliases terminate: the inner
// occurrence is then resolved as a command.
func (t *AliasTable) Expand(line string) string {
	seen := make(map[string]bool)
	for i := 0; i < maxAliasDepth; i++ {
		name, args := splitName(line)
		tmpl, ok := t.Get(name)
		if !ok || seen[name] {
			return line
		}
		seen[name] = true
		line = substitute(tmpl, args)
	}
	return line
}

// substitute replaces %1..%9 with the matching argument and %* with all of
// them. Missing arguments expand to nothing.
func substitute(tmpl, args string) string {
	fields := strings.Fields(args)
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' || i+1 == len(tmpl) {
			sb.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '*':
			sb.WriteString(args)
			i++
		case next >= '1' && next <= '9':
			n := int(next - '1')
			if n < len(fields) {
				sb.WriteString(fields[n])
			}
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
