// Package control implements the execution state machine that sits between
// the session loop and the trace runtime.
//
//	Running ──stop──▶ Paused ──resume──▶ Running
//	   │                 │
//	   └──exit/kill──▶ Terminated (absorbing)
//
// The Controller owns the breakpoint table. Every candidate stop reported by
// the runtime is checked against the table: a matching breakpoint turns a
// line step into a breakpoint hit, and a breakpoint stop whose breakpoints
// are all ignored or false is suppressed by transparently reissuing the
// directive.
package control
