package highlight

// Kind is the semantic class of a token.
type Kind uint8

const (
	KindNone Kind = iota
	KindComment
	KindString
	KindNumber
	KindKeyword
	KindDeclaration
	KindConstant
	KindBuiltin
	KindType
	KindDecorator
	KindIdentifier
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindKeyword:
		return "keyword"
	case KindDeclaration:
		return "declaration"
	case KindConstant:
		return "constant"
	case KindBuiltin:
		return "builtin"
	case KindType:
		return "type"
	case KindDecorator:
		return "decorator"
	case KindIdentifier:
		return "identifier"
	default:
		return "none"
	}
}

// Token is a classified byte range [Start, End) of a line.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// State is the lexer state at a line boundary.
type State uint8

const (
	StateNormal State = iota
	StateBlockComment
	StateTripleDouble
	StateTripleSingle
	StateBacktick
)
