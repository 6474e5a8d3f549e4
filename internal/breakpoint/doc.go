// Package breakpoint holds the ordered table of user breakpoints and decides
// whether a stop at a breakpoint location should be reported.
//
// Several breakpoints may share a location; each keeps its own id,
// condition, ignore count and hit count. Breakpoints are only ever removed
// explicitly.
package breakpoint
