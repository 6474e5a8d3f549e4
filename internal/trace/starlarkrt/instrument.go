package starlarkrt

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// lineMarker is the predeclared builtin called ahead of every statement of
// a traced file. Its call site carries the statement's start position,
// which the compiler always records in the line table; plain assignments
// and other statements that cannot fail get no entry of their own.
const lineMarker = "__perch_line__"

const executionKey = "perch.execution"

// markerFrames is the number of frames a paused execution has above the
// program: the marker builtin itself.
const markerFrames = 1

var lineBuiltin = starlark.NewBuiltin(lineMarker, func(th *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	if ex, ok := th.Local(executionKey).(*execution); ok {
		ex.hook(th)
	}
	return starlark.None, nil
})

// instrument inserts a marker call before the first statement starting on
// each line, at every nesting level.
func instrument(f *syntax.File) {
	f.Stmts = markStmts(f.Stmts)
}

func markStmts(stmts []syntax.Stmt) []syntax.Stmt {
	if len(stmts) == 0 {
		// IfStmt.Span tells a missing else branch by a nil slice.
		return stmts
	}
	out := make([]syntax.Stmt, 0, 2*len(stmts))
	last := int32(-1)
	for _, stmt := range stmts {
		markNested(stmt)
		pos := syntax.Start(stmt)
		if pos.Line > 0 && pos.Line != last {
			out = append(out, marker(pos))
			last = pos.Line
		}
		out = append(out, stmt)
	}
	return out
}

func markNested(stmt syntax.Stmt) {
	switch s := stmt.(type) {
	case *syntax.DefStmt:
		s.Body = markStmts(s.Body)
	case *syntax.IfStmt:
		s.True = markStmts(s.True)
		s.False = markStmts(s.False)
	case *syntax.ForStmt:
		s.Body = markStmts(s.Body)
	case *syntax.WhileStmt:
		s.Body = markStmts(s.Body)
	}
}

func marker(pos syntax.Position) syntax.Stmt {
	return &syntax.ExprStmt{X: &syntax.CallExpr{
		Fn:     &syntax.Ident{NamePos: pos, Name: lineMarker},
		Lparen: pos,
		Rparen: pos,
	}}
}
