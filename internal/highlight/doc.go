// Package highlight provides regex-based syntax highlighting for source
// listings.
//
// A Lexer tokenizes one line at a time and carries a State across lines for
// constructs such as block comments and triple-quoted strings. The Registry
// picks a lexer by file extension. ANSI turns tokens into escape sequences
// for line-oriented terminals; full-screen frontends map Kind to their own
// styles instead.
package highlight
