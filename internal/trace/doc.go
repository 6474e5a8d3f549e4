// Package trace defines the contract between the debugger session engine and
// the execution-tracing runtime that actually runs the debuggee.
//
// A Runtime owns the program's execution. The engine hands it a Directive and
// blocks until the runtime reports the next StopEvent:
//
//	engine ──Resume(Directive)──▶ runtime ──StopEvent──▶ engine
//
// Runtimes report candidate stops only. Deciding whether a stop at a
// breakpoint location is surfaced to the user (conditions, ignore counts) is
// the engine's job, not the runtime's.
//
// Three runtimes ship with perch:
//
//   - starlarkrt: an in-process Starlark interpreter with a per-step hook
//   - dap: any Debug Adapter Protocol server (delve, debugpy, node)
//   - tracetest: a scripted runtime used by tests
//
// # Re-entrancy
//
// Evaluating an expression can run program code, and that code can reach a
// breakpoint. When that happens the runtime calls the NestedHandler
// synchronously, on the goroutine that called Eval or Exec, before Eval
// returns. The handler drives a nested session against the same Runtime. A
// nested session ends when the runtime reports StopTerminated with
// Nested set, which means the evaluation that spawned it has finished.
package trace
