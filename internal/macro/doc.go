// Package macro runs user macros written in Lua.
//
// A macro file registers macros with the global macro function:
//
//	macro("nn", "step twice", "next;;next")
//
//	macro("watch", "display every argument", function(...)
//	    local out = {}
//	    for _, name in ipairs({...}) do
//	        table.insert(out, "display " .. name)
//	    end
//	    return out
//	end)
//
// A string body expands to its ";;" separated commands. A function body
// receives the command arguments and returns a string, a list of strings
// or nil. The expanded lines run as if typed, except that they are never
// expanded as macros again.
//
// Macro files run in a sandbox: the io, os, debug and package libraries
// are not loaded and dofile, loadfile, load and loadstring are removed.
package macro
