package session

import (
	"sort"
	"strings"

	"github.com/dshills/perch/internal/command"
)

// Complete returns tab completion candidates for word. The first word of
// a line completes to commands, aliases and macros; later words complete to
// names visible in the selected frame.
func (m *Manager) Complete(head, word string) []string {
	st := m.top()
	if st == nil {
		return nil
	}

	var names []string
	if strings.TrimSpace(head) == "" {
		names = append(names, command.Names()...)
		names = append(names, m.aliases.Names()...)
		if m.macros != nil {
			names = append(names, m.macros.Names()...)
		}
	} else {
		names = st.variableNames()
	}

	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, word) && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (st *State) variableNames() []string {
	fr, err := st.stack.Current()
	if err != nil {
		return nil
	}
	idx, err := fr.Index()
	if err != nil {
		return nil
	}
	rt := st.ctl.Runtime()
	var names []string
	if vars, err := rt.Locals(st.ctx, idx); err == nil {
		for _, v := range vars {
			names = append(names, v.Name)
		}
	}
	if vars, err := rt.Globals(st.ctx, idx); err == nil {
		for _, v := range vars {
			names = append(names, v.Name)
		}
	}
	return names
}
