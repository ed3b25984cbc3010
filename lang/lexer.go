package lang

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// blockTags lists the tag names that may open a body with a trailing ':'.
// The colon after any other tag is literal text.
var blockTags = map[string]bool{
	tagIf:     true,
	tagElseIf: true,
	tagElse:   true,
	tagFor:    true,
	tagWhile:  true,
	tagRepeat: true,
	tagDefine: true,
	tagExport: true,
	tagImport: true,
}

// Lex tokenizes template source.
//
// Outside of tags the source is emitted as raw text. A tag starts at a bare
// '#' followed by an identifier or '('; "\#" produces a literal '#'. Inside a
// parameter list, '#' starts a comment that runs to the next '#'.
func Lex(
	ctx context.Context,
	name, src string,
	opts ...Option,
) ([]Token, error) {
	o := makeOptions(opts...)

	lx := &lexer{
		src:  []byte(src),
		line: 1,
		col:  1,
	}

	err := lx.run()
	if err != nil {
		return nil, err.With(slog.String("template", name))
	}

	o.logger.TraceContext(ctx, "lex complete",
		slog.String("template", name),
		slog.Int("source_bytes", len(src)),
		slog.Int("token_count", len(lx.toks)))

	return lx.toks, nil
}

// lexer holds the lexer state.
type lexer struct {
	src  []byte
	toks []Token
	raw  strings.Builder
	rpos Position // Start of the pending raw span
	pos  int
	line int
	col  int
}

func (lx *lexer) run() *Error {
	for !lx.eof() {
		switch {
		case lx.peek() == '\\' && lx.peekAt(1) == '#':
			lx.advance()
			lx.appendRaw('#')
			lx.advance()

		case lx.peek() == '#':
			err := lx.tag()
			if err != nil {
				return err
			}

		default:
			lx.appendRaw(lx.peek())
			lx.advance()
		}
	}

	lx.flushRaw()

	return nil
}

// tag scans a tag opener and, if present, its parameter list.
func (lx *lexer) tag() *Error {
	start := lx.position()
	next, _ := utf8.DecodeRune(lx.src[lx.pos+1:])

	switch {
	case next == '(':
		lx.advance() // '#'
		lx.flushRaw()
		lx.emit(Token{Kind: TokenTag, Pos: start, Params: true})

		return lx.params(len(lx.toks) - 1)

	case isIdentStart(next):
		lx.advance() // '#'
		lx.flushRaw()

		name := lx.ident()
		tok := Token{Kind: TokenTag, Text: name, Pos: start}

		if lx.peek() == '(' {
			tok.Params = true
			lx.emit(tok)

			return lx.params(len(lx.toks) - 1)
		}

		if blockTags[name] && lx.peek() == ':' {
			lx.advance()

			tok.Block = true
		}

		lx.emit(tok)

		return nil

	default:
		lx.appendRaw('#')
		lx.advance()

		return nil
	}
}

// params scans a balanced parameter list starting at '('. The tag token at
// index tag is marked as a block opener if the list is followed by ':'.
func (lx *lexer) params(tag int) *Error {
	var open []Token

	for {
		if lx.eof() {
			return ErrUnbalancedDelimiter.WithPosition(open[len(open)-1].Pos).
				With(slog.String("expected", closerOf(open[len(open)-1].Kind)))
		}

		r := lx.peek()
		pos := lx.position()

		switch {
		case r == '(' || r == '[':
			kind := TokenLParen
			if r == '[' {
				kind = TokenLBracket
			}

			tok := Token{Kind: kind, Text: string(r), Pos: pos}
			open = append(open, tok)
			lx.emit(tok)
			lx.advance()

		case r == ')' || r == ']':
			kind, want := TokenRParen, TokenLParen
			if r == ']' {
				kind, want = TokenRBracket, TokenLBracket
			}

			if len(open) == 0 || open[len(open)-1].Kind != want {
				return ErrUnbalancedDelimiter.WithPosition(pos).
					With(slog.String("found", string(r)))
			}

			open = open[:len(open)-1]

			lx.emit(Token{Kind: kind, Text: string(r), Pos: pos})
			lx.advance()

			if len(open) == 0 {
				if blockTags[lx.toks[tag].Text] && lx.peek() == ':' {
					lx.advance()

					lx.toks[tag].Block = true
				}

				return nil
			}

		case r == '#':
			err := lx.comment()
			if err != nil {
				return err
			}

		case unicode.IsSpace(r):
			begin := lx.pos
			for !lx.eof() && unicode.IsSpace(lx.peek()) {
				lx.advance()
			}

			lx.emit(Token{
				Kind: TokenWhitespace,
				Text: string(lx.src[begin:lx.pos]),
				Pos:  pos,
			})

		case r == '"':
			err := lx.quoted()
			if err != nil {
				return err
			}

		case r >= '0' && r <= '9':
			err := lx.number()
			if err != nil {
				return err
			}

		case isIdentStart(r):
			name := lx.ident()

			switch name {
			case "true", "false":
				lx.emit(Token{Kind: TokenBool, Text: name, Bool: name == "true", Pos: pos})
			case "nil":
				lx.emit(Token{Kind: TokenNil, Text: name, Pos: pos})
			default:
				lx.emit(Token{Kind: TokenIdent, Text: name, Pos: pos})
			}

		case r == '$':
			lx.advance()

			if !isIdentStart(lx.peek()) {
				return ErrUnexpectedCharacter.WithPosition(pos).
					With(slog.String("found", "$"))
			}

			lx.emit(Token{Kind: TokenScope, Text: lx.ident(), Pos: pos})

		case r == ',':
			lx.emit(Token{Kind: TokenComma, Text: ",", Pos: pos})
			lx.advance()

		case r == ':':
			lx.emit(Token{Kind: TokenColon, Text: ":", Pos: pos})
			lx.advance()

		default:
			err := lx.operator()
			if err != nil {
				return err
			}
		}
	}
}

// comment skips a '#'-delimited comment inside a parameter list.
func (lx *lexer) comment() *Error {
	start := lx.position()

	lx.advance()

	for !lx.eof() {
		if lx.peek() == '#' {
			lx.advance()

			return nil
		}

		lx.advance()
	}

	return ErrUnterminatedComment.WithPosition(start)
}

// quoted scans a double-quoted string literal.
func (lx *lexer) quoted() *Error {
	start := lx.position()

	var sb strings.Builder

	lx.advance() // opening quote

	for !lx.eof() {
		r := lx.peek()

		switch r {
		case '"':
			lx.advance()
			lx.emit(Token{Kind: TokenString, Text: sb.String(), Pos: start})

			return nil

		case '\\':
			epos := lx.position()

			lx.advance()

			if lx.eof() {
				return ErrUnterminatedString.WithPosition(start)
			}

			switch e := lx.peek(); e {
			case '"', '\\', '#':
				sb.WriteRune(e)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			default:
				return ErrInvalidEscape.WithPosition(epos).
					With(slog.String("escape", "\\"+string(e)))
			}

			lx.advance()

		default:
			sb.WriteRune(r)
			lx.advance()
		}
	}

	return ErrUnterminatedString.WithPosition(start)
}

// number scans an integer or floating point literal. An optional radix
// prefix (0b, 0o, 0x) applies to both the integer and fractional digits, and
// '_' separators are ignored.
func (lx *lexer) number() *Error {
	start := lx.position()
	begin := lx.pos
	radix := 10

	if lx.peek() == '0' {
		switch lx.peekAt(1) {
		case 'b', 'B':
			radix = 2
		case 'o', 'O':
			radix = 8
		case 'x', 'X':
			radix = 16
		}

		if radix != 10 {
			lx.advance()
			lx.advance()
		}
	}

	whole := lx.digits(radix)

	var (
		frac    string
		isFloat bool
	)

	if lx.peek() == '.' && digitValue(lx.peekAt(1)) < radix {
		lx.advance()

		frac = lx.digits(radix)
		isFloat = true
	}

	invalid := whole == ""
	for !lx.eof() && isIdentContinue(lx.peek()) {
		lx.advance()

		invalid = true
	}

	text := string(lx.src[begin:lx.pos])

	if invalid {
		return ErrInvalidNumber.WithPosition(start).
			With(slog.String("literal", text))
	}

	n, err := strconv.ParseUint(whole, radix, 64)
	if err != nil || n > math.MaxInt64 {
		return ErrInvalidNumber.WithPosition(start).
			With(slog.String("literal", text)).
			Wrap(err)
	}

	if !isFloat {
		lx.emit(Token{Kind: TokenInt, Text: text, Int: int64(n), Pos: start})

		return nil
	}

	var f float64

	if radix == 10 {
		f, _ = strconv.ParseFloat(whole+"."+frac, 64)
	} else {
		// Power-of-two radix scales are exact.
		f = float64(n)
		scale := 1.0

		for i := range len(frac) {
			scale /= float64(radix)
			f += float64(digitValue(frac[i])) * scale
		}
	}

	lx.emit(Token{Kind: TokenFloat, Text: text, Float: f, Pos: start})

	return nil
}

// digits consumes digits valid in radix along with '_' separators and
// returns the digits without separators.
func (lx *lexer) digits(radix int) string {
	var sb strings.Builder

	for !lx.eof() {
		c := lx.src[lx.pos]

		if c == '_' {
			lx.advance()

			continue
		}

		if digitValue(c) >= radix {
			break
		}

		sb.WriteByte(c)
		lx.advance()
	}

	return sb.String()
}

var operators = []string{
	"==", "!=", "<=", ">=", "&&", "||", "??",
	"+", "-", "*", "/", "%", "<", ">", "!", "?", "=", ".",
}

func (lx *lexer) operator() *Error {
	pos := lx.position()

	for _, op := range operators {
		if lx.hasPrefix(op) {
			for range len(op) {
				lx.advance()
			}

			lx.emit(Token{Kind: TokenOperator, Text: op, Pos: pos})

			return nil
		}
	}

	return ErrUnexpectedCharacter.WithPosition(pos).
		With(slog.String("found", string(lx.peek())))
}

func (lx *lexer) ident() string {
	begin := lx.pos

	for !lx.eof() && isIdentContinue(lx.peek()) {
		lx.advance()
	}

	return string(lx.src[begin:lx.pos])
}

// Helper methods

func (lx *lexer) emit(tok Token) {
	lx.toks = append(lx.toks, tok)
}

func (lx *lexer) appendRaw(r rune) {
	if lx.raw.Len() == 0 {
		lx.rpos = lx.position()
	}

	lx.raw.WriteRune(r)
}

func (lx *lexer) flushRaw() {
	if lx.raw.Len() == 0 {
		return
	}

	lx.emit(Token{Kind: TokenRaw, Text: lx.raw.String(), Pos: lx.rpos})
	lx.raw.Reset()
}

func (lx *lexer) peek() rune {
	if lx.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(lx.src[lx.pos:])

	return r
}

func (lx *lexer) peekAt(n int) byte {
	if lx.pos+n >= len(lx.src) {
		return 0
	}

	return lx.src[lx.pos+n]
}

func (lx *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(lx.src[lx.pos:min(lx.pos+len(s), len(lx.src))]), s)
}

func (lx *lexer) advance() {
	if lx.eof() {
		return
	}

	r, size := utf8.DecodeRune(lx.src[lx.pos:])

	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
}

func (lx *lexer) eof() bool {
	return lx.pos >= len(lx.src)
}

func (lx *lexer) position() Position {
	return Position{
		Offset: lx.pos,
		Line:   lx.line,
		Column: lx.col,
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// digitValue returns the numeric value of an ASCII digit in any radix up to
// 16, or 16 if c is not a digit.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 16
	}
}

func closerOf(kind TokenKind) string {
	if kind == TokenLBracket {
		return "]"
	}

	return ")"
}
