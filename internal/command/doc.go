// Package command parses and executes debugger commands.
//
// A Dispatcher turns one line of user input into an Outcome. Lines are
// resolved in a fixed order: user aliases, then the built-in command set,
// then Lua macros, and finally the whole line is evaluated as an expression
// in the selected frame. The built-in set is closed: every command is an ID
// constant and Execute switches over it.
//
// Handlers never resume the program themselves. Commands such as step or
// continue return an Outcome carrying a trace.Directive and the session
// loop hands it to the execution controller.
//
// Every handler error is reported through Session.Warn and turned into an
// OutcomeContinue. The only exception is trace.ErrDetached, which ends the
// session with OutcomeQuit.
package command
