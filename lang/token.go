package lang

import (
	"strconv"
	"strings"
)

// TokenKind identifies the variant of a [Token].
type TokenKind uint8

const (
	TokenRaw        TokenKind = iota // raw
	TokenTag                         // tag
	TokenLParen                      // (
	TokenRParen                      // )
	TokenLBracket                    // [
	TokenRBracket                    // ]
	TokenComma                       // ,
	TokenColon                       // :
	TokenOperator                    // operator
	TokenInt                         // int
	TokenFloat                       // float
	TokenString                      // string
	TokenBool                        // bool
	TokenNil                         // nil
	TokenIdent                       // identifier
	TokenScope                       // scope
	TokenWhitespace                  // whitespace
)

var tokenKindName = [...]string{
	TokenRaw:        "raw",
	TokenTag:        "tag",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenLBracket:   "[",
	TokenRBracket:   "]",
	TokenComma:      ",",
	TokenColon:      ":",
	TokenOperator:   "operator",
	TokenInt:        "int",
	TokenFloat:      "float",
	TokenString:     "string",
	TokenBool:       "bool",
	TokenNil:        "nil",
	TokenIdent:      "identifier",
	TokenScope:      "scope",
	TokenWhitespace: "whitespace",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is a lexical unit of template source.
//
// Text holds the raw span for raw tokens, the tag name for tags (empty for
// anonymous expression tags), the operator symbol, the decoded string
// literal, the identifier, or the external scope name without its '$'.
//
// Whitespace tokens occur only inside parameter lists and are never part of
// template output. Whitespace outside tags stays in its raw token.
type Token struct {
	Text  string
	Pos   Position
	Int   int64
	Float float64
	Kind  TokenKind
	Bool  bool

	// Params is set on tags followed by a parameter list.
	Params bool
	// Block is set on tags whose parameter list (or name) is followed by ':'.
	Block bool
}

// Is reports whether t is an operator or identifier token with the given
// text.
func (t Token) Is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) String() string {
	switch t.Kind {
	case TokenRaw:
		return "raw(" + strconv.Quote(t.Text) + ")"
	case TokenTag:
		var sb strings.Builder

		sb.WriteString("tag(")
		sb.WriteString(t.Text)

		if t.Params {
			sb.WriteString(", params")
		}

		if t.Block {
			sb.WriteString(", block")
		}

		sb.WriteByte(')')

		return sb.String()
	case TokenOperator:
		return "operator(" + t.Text + ")"
	case TokenInt:
		return "int(" + strconv.FormatInt(t.Int, 10) + ")"
	case TokenFloat:
		return "float(" + formatFloat(t.Float) + ")"
	case TokenString:
		return "string(" + strconv.Quote(t.Text) + ")"
	case TokenBool:
		return "bool(" + strconv.FormatBool(t.Bool) + ")"
	case TokenIdent:
		return "identifier(" + t.Text + ")"
	case TokenScope:
		return "scope($" + t.Text + ")"
	case TokenWhitespace:
		return "whitespace(" + strconv.Quote(t.Text) + ")"
	default:
		return t.Kind.String()
	}
}
