package command

import (
	"errors"
	"fmt"
	"strings"
)

func (d *Dispatcher) cmdAlias(s Session, args string) (Outcome, error) {
	name, tmpl := splitName(args)
	if name == "" {
		for _, n := range d.aliases.Names() {
			t, _ := d.aliases.Get(n)
			s.Printf("%s = %s\n", n, t)
		}
		return Continue(), nil
	}
	if tmpl == "" {
		t, ok := d.aliases.Get(name)
		if !ok {
			return Continue(), inputErrorf("alias", "%s is not an alias", name)
		}
		s.Printf("%s = %s\n", name, t)
		return Continue(), nil
	}

	err := d.aliases.Define(name, tmpl)
	var shadow *ShadowWarning
	if errors.As(err, &shadow) {
		s.Warn(shadow)
		return Continue(), nil
	}
	return Continue(), err
}

func (d *Dispatcher) cmdUnalias(s Session, args string) (Outcome, error) {
	if args == "" {
		return Continue(), inputErrorf("unalias", "alias name expected")
	}
	if !d.aliases.Remove(args) {
		return Continue(), fmt.Errorf("unalias: %w: %s", ErrUnknownCommand, args)
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdHelp(s Session, args string) (Outcome, error) {
	if args != "" {
		if id, ok := Lookup(args); ok {
			spec := id.Spec()
			s.Printf("%s\n", spec.Usage)
			if len(spec.Abbrevs) > 0 {
				s.Printf("Abbreviations: %s\n", strings.Join(spec.Abbrevs, ", "))
			}
			s.Printf("%s\n", spec.Help)
			return Continue(), nil
		}
		if t, ok := d.aliases.Get(args); ok {
			s.Printf("%s is an alias for %q\n", args, t)
			return Continue(), nil
		}
		if d.macros != nil && d.macros.Has(args) {
			s.Printf("%s is a Lua macro\n", args)
			return Continue(), nil
		}
		return Continue(), fmt.Errorf("help: %w: %s", ErrUnknownCommand, args)
	}

	s.Printf("Documented commands (type help <topic>):\n")
	printColumns(s, Names())
	if names := d.aliases.Names(); len(names) > 0 {
		s.Printf("\nAliases:\n")
		printColumns(s, names)
	}
	s.Printf("\nAnything else is evaluated as an expression in the selected frame; prefix a statement with ! to execute it.\n")
	return Continue(), nil
}

func printColumns(s Session, names []string) {
	const perRow = 8
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for i := 0; i < len(names); i += perRow {
		row := names[i:min(i+perRow, len(names))]
		var sb strings.Builder
		for _, n := range row {
			fmt.Fprintf(&sb, "%-*s  ", width, n)
		}
		s.Printf("%s\n", strings.TrimRight(sb.String(), " "))
	}
}

func (d *Dispatcher) cmdHistory(s Session) (Outcome, error) {
	for i, line := range d.history.Entries() {
		s.Printf("%4d  %s\n", i+1, line)
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdEdit(s Session) (Outcome, error) {
	cur, _, err := selected(s)
	if err != nil {
		return Continue(), err
	}
	return Continue(), s.Edit(cur.File, cur.Line)
}

func (d *Dispatcher) cmdMacro(s Session) (Outcome, error) {
	if d.macros == nil || len(d.macros.Names()) == 0 {
		s.Printf("No macros loaded.\n")
		return Continue(), nil
	}
	printColumns(s, d.macros.Names())
	return Continue(), nil
}
