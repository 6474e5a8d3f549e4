package breakpoint

import (
	"errors"
	"fmt"
)

// errNoEvaluator is reported when a condition exists but nothing can evaluate it.
var errNoEvaluator = errors.New("no expression evaluator")

// Match is the outcome of checking a stop location against the table.
type Match struct {
	// Stop is the breakpoint that turns the stop into a breakpoint hit, nil
	// when the stop is suppressed or no breakpoint applies.
	Stop *Breakpoint

	// Matched reports whether any enabled breakpoint exists at the location.
	Matched bool

	// Warnings holds condition evaluation failures. A failing condition
	// counts as false.
	Warnings []error
}

// Check processes a stop at file:line. Every enabled breakpoint there whose
// condition holds is hit: its hit count increments, and its ignore count is
// consumed if positive. The location stops if any such breakpoint had no
// ignore count left; the lowest id among those is reported.
func (t *Table) Check(file string, line int, cond CondFunc) Match {
	t.mu.Lock()
	entries := append([]*Breakpoint(nil), t.byLoc[location{file, line}]...)
	t.mu.Unlock()

	var m Match
	for _, bp := range entries {
		t.mu.RLock()
		enabled, expr := bp.Enabled, bp.Condition
		t.mu.RUnlock()
		if !enabled {
			continue
		}
		m.Matched = true

		if expr != "" {
			// Conditions run program code and may re-enter the debugger,
			// so the table lock is not held while evaluating.
			ok, err := false, errNoEvaluator
			if cond != nil {
				ok, err = cond(expr)
			}
			if err != nil {
				m.Warnings = append(m.Warnings, &ConditionError{ID: bp.ID, Expr: expr, Err: err})
				continue
			}
			if !ok {
				continue
			}
		}

		t.mu.Lock()
		bp.Hits++
		if bp.Ignore > 0 {
			bp.Ignore--
			t.mu.Unlock()
			continue
		}
		if m.Stop == nil {
			hit := *bp
			m.Stop = &hit
		}
		t.mu.Unlock()
	}
	return m
}

// ConditionError reports a breakpoint condition that failed to evaluate.
type ConditionError struct {
	ID   int
	Expr string
	Err  error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("error in condition for breakpoint %d (%s): %v", e.ID, e.Expr, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}
