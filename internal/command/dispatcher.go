package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/perch/internal/trace"
)

// Macros expands user-defined macros into command lines.
type Macros interface {
	Has(name string) bool
	Expand(name string, args []string) ([]string, error)
	Names() []string
}

type invocationKind uint8

const (
	invokeBuiltin invocationKind = iota
	invokeExec
	invokeEval
	invokeMacro
)

// invocation is a resolved command, kept so an empty line can run it again
// without parsing.
type invocation struct {
	kind invocationKind
	id   ID
	name string
	args string
	line string
}

type queued struct {
	line    string
	noMacro bool
}

// Dispatcher resolves and executes command lines.
type Dispatcher struct {
	aliases *AliasTable
	history *History
	macros  Macros
	logger  zerolog.Logger

	queue []queued
	last  *invocation
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAliases sets the alias table.
func WithAliases(t *AliasTable) Option {
	return func(d *Dispatcher) {
		d.aliases = t
	}
}

// WithHistory sets the history.
func WithHistory(h *History) Option {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithMacros sets the macro expander.
func WithMacros(m Macros) Option {
	return func(d *Dispatcher) {
		d.macros = m
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	if d.aliases == nil {
		d.aliases = NewAliasTable()
	}
	if d.history == nil {
		d.history = NewHistory()
	}
	return d
}

// Aliases returns the alias table.
func (d *Dispatcher) Aliases() *AliasTable {
	return d.aliases
}

// History returns the command history.
func (d *Dispatcher) History() *History {
	return d.history
}

// Pending reports whether lines queued by ";;" or a macro are waiting.
func (d *Dispatcher) Pending() bool {
	return len(d.queue) > 0
}

// RunPending executes the next queued line. It returns false when the queue
// is empty.
func (d *Dispatcher) RunPending(s Session) (Outcome, bool) {
	if len(d.queue) == 0 {
		return Outcome{}, false
	}
	q := d.queue[0]
	d.queue = d.queue[1:]
	return d.run(s, q.line, q.noMacro), true
}

// Reset drops queued lines, for example when the session ends.
func (d *Dispatcher) Reset() {
	d.queue = nil
}

// Dispatch executes one line of user input.
func (d *Dispatcher) Dispatch(s Session, raw string) Outcome {
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		return d.repeat(s)
	}

	line, err := d.recall(line)
	if err != nil {
		s.Warn(err)
		return Outcome{Kind: OutcomeContinue, Err: err}
	}
	d.history.Append(line)
	return d.run(s, line, false)
}

// recall replaces "!!" and "!n" with the history entry they name.
func (d *Dispatcher) recall(line string) (string, error) {
	t := strings.TrimSpace(line)
	if t == "!!" {
		last, ok := d.history.Last()
		if !ok {
			return "", &UserInputError{Msg: "history is empty"}
		}
		return last, nil
	}
	if len(t) > 1 && t[0] == '!' {
		if n, err := strconv.Atoi(t[1:]); err == nil {
			entry, ok := d.history.Entry(n)
			if !ok {
				return "", &UserInputError{Msg: fmt.Sprintf("no history entry %d", n)}
			}
			return entry, nil
		}
	}
	return line, nil
}

func (d *Dispatcher) repeat(s Session) Outcome {
	if d.last == nil {
		return Continue()
	}
	inv := *d.last
	return d.invoke(s, inv)
}

func (d *Dispatcher) run(s Session, line string, noMacro bool) Outcome {
	line = d.split(line, noMacro)
	line = d.aliases.Expand(line)
	line = d.split(line, noMacro)

	inv, err := d.resolve(line, noMacro)
	if err != nil {
		s.Warn(err)
		return Outcome{Kind: OutcomeContinue, Err: err, Line: line}
	}
	return d.invoke(s, inv)
}

// split queues everything after the first ";;" and returns the head.
func (d *Dispatcher) split(line string, noMacro bool) string {
	first, rest, ok := splitCommands(line)
	if !ok {
		return line
	}
	if rest != "" {
		d.queue = append([]queued{{line: rest, noMacro: noMacro}}, d.queue...)
	}
	return first
}

func (d *Dispatcher) resolve(line string, noMacro bool) (invocation, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "!") {
		stmt := strings.TrimSpace(trimmed[1:])
		if stmt == "" {
			return invocation{}, &UserInputError{Command: "!", Msg: "statement expected"}
		}
		return invocation{kind: invokeExec, line: stmt}, nil
	}

	name, args := splitName(trimmed)
	if id, ok := Lookup(name); ok {
		return invocation{kind: invokeBuiltin, id: id, name: name, args: args, line: trimmed}, nil
	}
	if !noMacro && d.macros != nil && d.macros.Has(name) {
		return invocation{kind: invokeMacro, name: name, args: args, line: trimmed}, nil
	}
	return invocation{kind: invokeEval, name: name, line: trimmed}, nil
}

func (d *Dispatcher) invoke(s Session, inv invocation) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			d.logger.Error().Str("line", inv.line).Interface("panic", r).Msg("command panicked")
			s.Warn(err)
			out = Outcome{Kind: OutcomeContinue, Err: err, Line: inv.line}
		}
	}()

	var err error
	switch inv.kind {
	case invokeBuiltin:
		out, err = d.execute(inv.id, inv.args, s)
		if !inv.id.Spec().NoRepeat {
			d.remember(inv)
		} else {
			d.last = nil
		}
	case invokeExec:
		err = d.exec(s, inv.line)
		out = Continue()
		d.remember(inv)
	case invokeMacro:
		err = d.expandMacro(inv.name, inv.args)
		if err == nil {
			next, ok := d.RunPending(s)
			d.remember(inv)
			if ok {
				return next
			}
		}
		out = Continue()
	case invokeEval:
		err = d.eval(s, inv.line)
		out = Outcome{Kind: OutcomeContinue, Evaluated: true}
		d.remember(inv)
		d.logger.Debug().Str("line", inv.line).Msg("no command matched, evaluated as expression")
	}
	out.Line = inv.line

	if err != nil {
		out.Err = err
		if errors.Is(err, trace.ErrDetached) {
			out.Kind = OutcomeQuit
			return out
		}
		s.Warn(err)
		if out.Kind == OutcomeResume {
			out.Kind = OutcomeContinue
		}
	}
	return out
}

func (d *Dispatcher) remember(inv invocation) {
	d.last = &inv
}

func (d *Dispatcher) expandMacro(name, args string) error {
	lines, err := d.macros.Expand(name, strings.Fields(args))
	if err != nil {
		return fmt.Errorf("macro %s: %w", name, err)
	}
	q := make([]queued, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			q = append(q, queued{line: l, noMacro: true})
		}
	}
	d.queue = append(q, d.queue...)
	return nil
}

func (d *Dispatcher) eval(s Session, expr string) error {
	_, idx, err := selected(s)
	if err != nil {
		return err
	}
	v, err := s.Controller().Runtime().Eval(s.Context(), expr, idx)
	if err != nil {
		return err
	}
	s.Printf("%s\n", v)
	return nil
}

func (d *Dispatcher) exec(s Session, stmt string) error {
	_, idx, err := selected(s)
	if err != nil {
		return err
	}
	return s.Controller().Runtime().Exec(s.Context(), stmt, idx)
}

// execute runs the built-in command id.
func (d *Dispatcher) execute(id ID, args string, s Session) (Outcome, error) {
	switch id {
	case CmdBreak:
		return d.cmdBreak(s, args, false)
	case CmdTBreak:
		return d.cmdBreak(s, args, true)
	case CmdClear:
		return d.cmdClear(s, args)
	case CmdEnable:
		return d.cmdEnable(s, args, true)
	case CmdDisable:
		return d.cmdEnable(s, args, false)
	case CmdCondition:
		return d.cmdCondition(s, args)
	case CmdIgnore:
		return d.cmdIgnore(s, args)

	case CmdStep:
		return Resume(trace.Directive{Kind: trace.StepInto}), nil
	case CmdNext:
		return Resume(trace.Directive{Kind: trace.StepOver}), nil
	case CmdReturn:
		return Resume(trace.Directive{Kind: trace.RunUntilReturn}), nil
	case CmdFinish:
		return Resume(trace.Directive{Kind: trace.StepOut}), nil
	case CmdUntil:
		return d.cmdUntil(s, args)
	case CmdContinue:
		return d.cmdContinue(s, args)

	case CmdUp:
		return d.cmdMove(s, args, 1)
	case CmdDown:
		return d.cmdMove(s, args, -1)
	case CmdTop:
		return d.cmdEnd(s, true)
	case CmdBottom:
		return d.cmdEnd(s, false)
	case CmdFrame:
		return d.cmdFrame(s, args)
	case CmdWhere:
		return d.cmdWhere(s)

	case CmdPrint:
		return d.cmdPrint(s, args, false)
	case CmdPPrint:
		return d.cmdPrint(s, args, true)
	case CmdArgs:
		return d.cmdVariables(s, varArgs)
	case CmdLocals:
		return d.cmdVariables(s, varLocals)
	case CmdGlobals:
		return d.cmdVariables(s, varGlobals)
	case CmdDisplay:
		return d.cmdDisplay(s, args)
	case CmdUndisplay:
		return d.cmdUndisplay(s, args)

	case CmdList:
		return d.cmdList(s, args)
	case CmdLongList:
		return d.cmdLongList(s)
	case CmdSource:
		return d.cmdSource(s, args)
	case CmdSticky:
		return d.cmdSticky(s, args)

	case CmdAlias:
		return d.cmdAlias(s, args)
	case CmdUnalias:
		return d.cmdUnalias(s, args)
	case CmdHelp:
		return d.cmdHelp(s, args)
	case CmdHistory:
		return d.cmdHistory(s)
	case CmdEdit:
		return d.cmdEdit(s)
	case CmdMacro:
		return d.cmdMacro(s)
	case CmdHiddenList:
		return d.cmdHiddenList(s)
	case CmdHiddenHide:
		s.Stack().SetShowHidden(false)
		return Continue(), nil
	case CmdHiddenUnhide:
		s.Stack().SetShowHidden(true)
		return Continue(), nil
	case CmdQuit:
		d.Reset()
		return Quit(), nil
	}
	return Continue(), fmt.Errorf("%w: %d", ErrUnknownCommand, id)
}
