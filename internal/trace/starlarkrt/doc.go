// Package starlarkrt is an in-process trace.Runtime for Starlark programs.
//
// Traced files are compiled with a call to a predeclared line marker ahead
// of each statement. The program runs on its own goroutine; each marker call
// consults a trace.Stepper, and a stop parks the program goroutine inside
// the marker until the next directive arrives, so the paused frames stay
// live for inspection.
//
// Expressions evaluated while paused run as nested executions on their own
// threads and goroutines. Breakpoints they reach are handed to the nested
// handler; quitting the nested session unwinds the evaluation.
package starlarkrt
