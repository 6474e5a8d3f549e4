package command

import "sort"

// ID identifies a built-in command.
type ID uint8

// Built-in commands.
const (
	CmdBreak ID = iota
	CmdTBreak
	CmdClear
	CmdEnable
	CmdDisable
	CmdCondition
	CmdIgnore

	CmdStep
	CmdNext
	CmdReturn
	CmdFinish
	CmdUntil
	CmdContinue

	CmdUp
	CmdDown
	CmdTop
	CmdBottom
	CmdFrame
	CmdWhere

	CmdPrint
	CmdPPrint
	CmdArgs
	CmdLocals
	CmdGlobals
	CmdDisplay
	CmdUndisplay

	CmdList
	CmdLongList
	CmdSource
	CmdSticky

	CmdAlias
	CmdUnalias
	CmdHelp
	CmdHistory
	CmdEdit
	CmdMacro
	CmdHiddenList
	CmdHiddenHide
	CmdHiddenUnhide
	CmdQuit

	numCommands
)

// Spec describes a built-in command.
type Spec struct {
	Name    string
	Abbrevs []string
	Usage   string
	Help    string

	// NoRepeat marks commands an empty line does not re-run.
	NoRepeat bool
}

var specs = [numCommands]Spec{
	CmdBreak: {
		Name: "break", Abbrevs: []string{"b"},
		Usage: "break [[file:]line [, condition]]",
		Help:  "Set a breakpoint at line in file (default: the current file). Without argument, list all breakpoints.",
	},
	CmdTBreak: {
		Name:  "tbreak",
		Usage: "tbreak [file:]line [, condition]",
		Help:  "Set a temporary breakpoint, removed when first hit.",
	},
	CmdClear: {
		Name: "clear", Abbrevs: []string{"cl"},
		Usage: "clear [id ... | file:line]",
		Help:  "Delete the given breakpoints, or every breakpoint when no argument is given.",
	},
	CmdEnable: {
		Name:  "enable",
		Usage: "enable id ...",
		Help:  "Enable the given breakpoints.",
	},
	CmdDisable: {
		Name:  "disable",
		Usage: "disable id ...",
		Help:  "Disable the given breakpoints. Their condition and ignore count are kept.",
	},
	CmdCondition: {
		Name:  "condition",
		Usage: "condition id [expr]",
		Help:  "Stop at breakpoint id only when expr is true. Without expr the breakpoint becomes unconditional.",
	},
	CmdIgnore: {
		Name:  "ignore",
		Usage: "ignore id count",
		Help:  "Do not stop at breakpoint id for the next count crossings.",
	},

	CmdStep: {
		Name: "step", Abbrevs: []string{"s"},
		Usage: "step",
		Help:  "Execute the current line, stopping at the first possible occasion, inside a called function or on the next line.",
	},
	CmdNext: {
		Name: "next", Abbrevs: []string{"n"},
		Usage: "next",
		Help:  "Continue until the next line in the current function is reached or it returns.",
	},
	CmdReturn: {
		Name: "return", Abbrevs: []string{"r"},
		Usage: "return",
		Help:  "Continue until the current function returns.",
	},
	CmdFinish: {
		Name: "finish", Abbrevs: []string{"out"},
		Usage: "finish",
		Help:  "Continue until the current frame returns, stopping in the caller.",
	},
	CmdUntil: {
		Name: "until", Abbrevs: []string{"unt"},
		Usage: "until [line]",
		Help:  "Continue until a line greater than the current one, or line, is reached in the current frame, or the frame returns.",
	},
	CmdContinue: {
		Name: "continue", Abbrevs: []string{"c", "cont"},
		Usage: "continue [line]",
		Help:  "Continue until a breakpoint is hit. With line, set a temporary breakpoint there first.",
	},

	CmdUp: {
		Name: "up", Abbrevs: []string{"u"},
		Usage: "up [count]",
		Help:  "Move the selected frame count levels toward the oldest frame.",
	},
	CmdDown: {
		Name: "down", Abbrevs: []string{"d"},
		Usage: "down [count]",
		Help:  "Move the selected frame count levels toward the newest frame.",
	},
	CmdTop: {
		Name:  "top",
		Usage: "top",
		Help:  "Select the oldest frame.",
	},
	CmdBottom: {
		Name:  "bottom",
		Usage: "bottom",
		Help:  "Select the newest frame.",
	},
	CmdFrame: {
		Name: "frame", Abbrevs: []string{"f"},
		Usage: "frame [index]",
		Help:  "Select the frame at index (0 is the newest, negative counts from the oldest). Without argument, show the selected frame.",
	},
	CmdWhere: {
		Name: "where", Abbrevs: []string{"w", "bt"},
		Usage: "where",
		Help:  "Print the stack trace, most recent frame last. An arrow marks the selected frame.",
	},

	CmdPrint: {
		Name:  "p",
		Usage: "p expr",
		Help:  "Print the value of expr in the selected frame.",
	},
	CmdPPrint: {
		Name:  "pp",
		Usage: "pp expr",
		Help:  "Pretty-print the value of expr.",
	},
	CmdArgs: {
		Name: "args", Abbrevs: []string{"a"},
		Usage: "args",
		Help:  "Print the arguments of the selected frame's function.",
	},
	CmdLocals: {
		Name:  "locals",
		Usage: "locals",
		Help:  "Print the local variables of the selected frame.",
	},
	CmdGlobals: {
		Name:  "globals",
		Usage: "globals",
		Help:  "Print the global variables of the selected frame.",
	},
	CmdDisplay: {
		Name: "display", Abbrevs: []string{"disp"},
		Usage: "display [expr]",
		Help:  "Show expr every time execution stops and its value changed. Without argument, list display expressions.",
	},
	CmdUndisplay: {
		Name:  "undisplay",
		Usage: "undisplay [expr]",
		Help:  "Stop displaying expr, or every expression without argument.",
	},

	CmdList: {
		Name: "list", Abbrevs: []string{"l"},
		Usage:    "list [first[, last] | .]",
		Help:     "List source. Without argument, list 11 lines around the current line or continue the previous listing.",
		NoRepeat: true,
	},
	CmdLongList: {
		Name: "longlist", Abbrevs: []string{"ll"},
		Usage:    "longlist",
		Help:     "List the whole source of the current function.",
		NoRepeat: true,
	},
	CmdSource: {
		Name:  "source",
		Usage: "source expr",
		Help:  "Show the source where the value of expr, usually a function, was defined.",
	},
	CmdSticky: {
		Name:     "sticky",
		Usage:    "sticky [on|off] [first last]",
		Help:     "Toggle sticky mode, a full-screen view of the current source that stays in place while stepping.",
		NoRepeat: true,
	},

	CmdAlias: {
		Name:  "alias",
		Usage: "alias [name [command]]",
		Help:  "Define name as an alias for command. %1..%9 are replaced by arguments and %* by all of them. Without command, show the alias; without name, list all.",
	},
	CmdUnalias: {
		Name:  "unalias",
		Usage: "unalias name",
		Help:  "Delete the alias name.",
	},
	CmdHelp: {
		Name: "help", Abbrevs: []string{"h"},
		Usage: "help [command]",
		Help:  "List commands, or show the help of command.",
	},
	CmdHistory: {
		Name: "history", Abbrevs: []string{"hist"},
		Usage: "history",
		Help:  "Print the command history. !n re-runs entry n and !! the last one.",
	},
	CmdEdit: {
		Name: "edit", Abbrevs: []string{"ed"},
		Usage:    "edit",
		Help:     "Open the selected frame's file at its current line in the editor.",
		NoRepeat: true,
	},
	CmdMacro: {
		Name:  "macro",
		Usage: "macro",
		Help:  "List the Lua macros loaded from the macros file.",
	},
	CmdHiddenList: {
		Name:  "hf_list",
		Usage: "hf_list",
		Help:  "List the hidden frames.",
	},
	CmdHiddenHide: {
		Name:  "hf_hide",
		Usage: "hf_hide",
		Help:  "Hide hidden frames again.",
	},
	CmdHiddenUnhide: {
		Name:  "hf_unhide",
		Usage: "hf_unhide",
		Help:  "Show hidden frames and let navigation select them.",
	},
	CmdQuit: {
		Name: "quit", Abbrevs: []string{"q", "exit"},
		Usage: "quit",
		Help:  "Quit the debugger. In a nested session, abandon the evaluation and return to the outer session.",
	},
}

var byName = func() map[string]ID {
	m := make(map[string]ID)
	for id := ID(0); id < numCommands; id++ {
		m[specs[id].Name] = id
		for _, a := range specs[id].Abbrevs {
			m[a] = id
		}
	}
	return m
}()

// Lookup resolves a command name or abbreviation.
func Lookup(name string) (ID, bool) {
	id, ok := byName[name]
	return id, ok
}

// Spec returns the description of the command.
func (id ID) Spec() Spec {
	if id >= numCommands {
		return Spec{}
	}
	return specs[id]
}

// String returns the command name.
func (id ID) String() string {
	return id.Spec().Name
}

// Names returns every built-in command name, sorted.
func Names() []string {
	out := make([]string, 0, numCommands)
	for id := ID(0); id < numCommands; id++ {
		out = append(out, specs[id].Name)
	}
	sort.Strings(out)
	return out
}

// IsBuiltin reports whether name is a command name or abbreviation.
func IsBuiltin(name string) bool {
	_, ok := byName[name]
	return ok
}
