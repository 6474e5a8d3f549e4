// Package logging builds the process logger.
//
// Logs never go to the debugger's own output: they are appended to a file,
// or written to stderr through a console writer when asked for.
package logging
