// Package dap drives an external debugger through the Debug Adapter
// Protocol and exposes it as a trace.Runtime.
//
// The package has three layers: framed transports (stdio of a spawned
// adapter, TCP, or any stream), a Client that multiplexes requests and
// events, and Runtime, which maps session directives onto DAP requests and
// stopped events back onto stop events.
package dap
