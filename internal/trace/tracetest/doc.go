// Package tracetest provides a scripted trace.Runtime for tests.
//
// A Program is a recorded sequence of line events built with a small
// builder:
//
//	p := tracetest.NewProgram("a.star").
//		Line(1).
//		Set("x", "1").
//		Line(2).
//		Call("f", 10).
//		Line(11).
//		Return().
//		Line(3)
//
// The Runtime replays the events under the same stepping rules as the real
// runtimes, so directives, breakpoints and nested evaluations behave as they
// would against a live program.
package tracetest
