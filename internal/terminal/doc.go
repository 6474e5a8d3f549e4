// Package terminal provides the frontends the debugger session draws on.
//
// Console is the line frontend built on golang.org/x/term: it reads one line
// at a time with editing, history and tab completion, and paints the sticky
// view with plain ANSI cursor movement. Screen is the full-screen frontend
// built on tcell: the sticky view owns the top of the screen, command output
// scrolls below it and the prompt sits on the last row. Buffer is an
// in-memory frontend for tests.
//
// All three apply sticky.Diff values: a full diff repaints every row, a
// partial one rewrites only the rows it carries.
package terminal
