// Package session runs the debugger's read-eval-print loop.
//
// A Manager owns a stack of session levels. The outermost level drives the
// program from its first stop; a nested level is pushed when evaluating an
// expression makes the program stop again, and popped when that evaluation
// finishes or the user quits it. Only the innermost level reads input, and
// quitting a nested level abandons the evaluation without ending the outer
// one.
//
// Each level is a State: the paused frame stack, the sticky renderer memo,
// displays and the dispatcher's repeat slot. Aliases, history and macros are
// shared by all levels.
package session
