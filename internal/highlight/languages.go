package highlight

// Starlark returns a lexer for Starlark and Bazel files.
func Starlark() *Lexer {
	l := NewLexer("starlark", ".star", ".bzl", ".sky", "BUILD", "WORKSPACE")
	pythonish(l)
	l.Keywords(KindKeyword,
		"if", "elif", "else", "for", "break", "continue", "return", "pass",
		"in", "not", "and", "or", "load")
	l.Keywords(KindDeclaration, "def", "lambda")
	l.Keywords(KindConstant, "True", "False", "None")
	l.Keywords(KindBuiltin,
		"print", "len", "range", "enumerate", "zip", "sorted", "reversed",
		"min", "max", "any", "all", "hasattr", "getattr", "dir", "type",
		"repr", "str", "int", "float", "bool", "list", "dict", "tuple",
		"fail", "hash", "abs")
	return l
}

// Python returns a lexer for Python.
func Python() *Lexer {
	l := NewLexer("python", ".py", ".pyw", ".pyi")
	pythonish(l)
	l.Rule(`@\w+`, KindDecorator)
	l.Keywords(KindKeyword,
		"if", "elif", "else", "for", "while", "break", "continue",
		"return", "try", "except", "finally", "raise", "with", "as",
		"match", "case", "import", "from", "global", "nonlocal", "pass",
		"yield", "assert", "del", "in", "is", "not", "and", "or")
	l.Keywords(KindDeclaration, "def", "class", "lambda", "async", "await")
	l.Keywords(KindConstant, "True", "False", "None")
	l.Keywords(KindBuiltin,
		"print", "len", "range", "enumerate", "zip", "map", "filter",
		"open", "isinstance", "getattr", "setattr", "sorted", "sum",
		"min", "max", "abs", "repr", "super", "locals", "globals")
	l.Keywords(KindType,
		"int", "float", "str", "bool", "list", "dict", "set", "tuple", "bytes", "object")
	return l
}

func pythonish(l *Lexer) {
	l.MultiLine(`"""`, `"""`, KindString, StateTripleDouble)
	l.MultiLine(`'''`, `'''`, KindString, StateTripleSingle)
	l.Rule(`#.*$`, KindComment)
	l.Rule(`"(?:[^"\\]|\\.)*"`, KindString)
	l.Rule(`'(?:[^'\\]|\\.)*'`, KindString)
	l.Rule(`\b0[xX][0-9a-fA-F]+\b`, KindNumber)
	l.Rule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, KindNumber)
}

// Go returns a lexer for Go, used for programs debugged through delve.
func Go() *Lexer {
	l := NewLexer("go", ".go")
	l.MultiLine("/*", "*/", KindComment, StateBlockComment)
	l.MultiLine("`", "`", KindString, StateBacktick)
	l.Rule(`//.*$`, KindComment)
	l.Rule(`"(?:[^"\\]|\\.)*"`, KindString)
	l.Rule(`'(?:[^'\\]|\\.)'`, KindString)
	l.Rule(`\b0[xX][0-9a-fA-F]+\b`, KindNumber)
	l.Rule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, KindNumber)
	l.Keywords(KindKeyword,
		"if", "else", "for", "range", "switch", "case", "default",
		"break", "continue", "return", "goto", "fallthrough", "select",
		"package", "import", "defer", "go")
	l.Keywords(KindDeclaration,
		"func", "var", "const", "type", "struct", "interface", "map", "chan")
	l.Keywords(KindConstant, "true", "false", "nil", "iota")
	l.Keywords(KindType,
		"int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16",
		"uint32", "uint64", "uintptr", "float32", "float64", "bool", "byte",
		"rune", "string", "error", "any")
	l.Keywords(KindBuiltin,
		"make", "new", "len", "cap", "append", "copy", "delete", "close",
		"panic", "recover", "print", "println", "min", "max", "clear")
	return l
}

// JavaScript returns a lexer for JavaScript and TypeScript.
func JavaScript() *Lexer {
	l := NewLexer("javascript", ".js", ".mjs", ".cjs", ".ts")
	l.MultiLine("/*", "*/", KindComment, StateBlockComment)
	l.MultiLine("`", "`", KindString, StateBacktick)
	l.Rule(`//.*$`, KindComment)
	l.Rule(`"(?:[^"\\]|\\.)*"`, KindString)
	l.Rule(`'(?:[^'\\]|\\.)*'`, KindString)
	l.Rule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, KindNumber)
	l.Keywords(KindKeyword,
		"if", "else", "for", "while", "do", "switch", "case", "default",
		"break", "continue", "return", "throw", "try", "catch", "finally",
		"import", "export", "from", "new", "typeof", "instanceof", "in", "of", "await")
	l.Keywords(KindDeclaration, "function", "var", "let", "const", "class", "async")
	l.Keywords(KindConstant, "true", "false", "null", "undefined", "this")
	return l
}
