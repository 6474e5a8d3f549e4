package command

import (
	"github.com/dshills/perch/internal/trace"
)

type varScope uint8

const (
	varArgs varScope = iota
	varLocals
	varGlobals
)

func (d *Dispatcher) cmdPrint(s Session, args string, pretty bool) (Outcome, error) {
	name := "p"
	if pretty {
		name = "pp"
	}
	if args == "" {
		return Continue(), inputErrorf(name, "expression expected")
	}
	v, err := evalSelected(s, args)
	if err != nil {
		return Continue(), err
	}
	if pretty {
		v = Pretty(v, prettyWidth)
	}
	s.Printf("%s\n", v)
	return Continue(), nil
}

func evalSelected(s Session, expr string) (string, error) {
	_, idx, err := selected(s)
	if err != nil {
		return "", err
	}
	return s.Controller().Runtime().Eval(s.Context(), expr, idx)
}

func (d *Dispatcher) cmdVariables(s Session, scope varScope) (Outcome, error) {
	_, idx, err := selected(s)
	if err != nil {
		return Continue(), err
	}
	rt := s.Controller().Runtime()

	var vars []trace.Variable
	if scope == varGlobals {
		vars, err = rt.Globals(s.Context(), idx)
	} else {
		vars, err = rt.Locals(s.Context(), idx)
	}
	if err != nil {
		return Continue(), err
	}
	for _, v := range vars {
		if scope == varArgs && !v.Param {
			continue
		}
		s.Printf("%s = %s\n", v.Name, v.Value)
	}
	return Continue(), nil
}

func (d *Dispatcher) cmdDisplay(s Session, args string) (Outcome, error) {
	disp := s.Displays()
	if args == "" {
		exprs := disp.Exprs()
		if len(exprs) == 0 {
			s.Printf("No display expressions.\n")
		}
		for _, e := range exprs {
			s.Printf("%s\n", e)
		}
		return Continue(), nil
	}

	v, err := evalSelected(s, args)
	if err != nil {
		v = undefinedValue
	}
	if !disp.Add(args, v) {
		return Continue(), inputErrorf("display", "%s is already displayed", args)
	}
	s.Printf("%s: %s\n", args, v)
	return Continue(), nil
}

func (d *Dispatcher) cmdUndisplay(s Session, args string) (Outcome, error) {
	disp := s.Displays()
	if args == "" {
		disp.Clear()
		return Continue(), nil
	}
	if !disp.Remove(args) {
		return Continue(), inputErrorf("undisplay", "%s is not displayed", args)
	}
	return Continue(), nil
}
