package lang

import (
	"log/slog"
)

// exprParser is a precedence-climbing parser over the tokens of one
// parameter. Whitespace tokens must already be removed.
type exprParser struct {
	toks []Token
	pos  int
	end  Position // Position reported for unexpected end of input
}

// parseExpression parses toks as a single complete expression.
func parseExpression(toks []Token, end Position) (Expr, error) {
	if len(toks) == 0 {
		return nil, ErrInvalidExpression.WithPosition(end).
			With(slog.String("reason", "empty expression"))
	}

	p := &exprParser{toks: toks, end: end}

	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}

	if !p.eof() {
		return nil, p.unexpected()
	}

	return e, nil
}

// parseAssign parses: Identifier '=' Ternary | Ternary.
func (p *exprParser) parseAssign() (Expr, error) {
	if p.peekAt(1).Is(TokenOperator, "=") {
		tok := p.peek()
		if tok.Kind != TokenIdent {
			return nil, ErrInvalidAssignment.WithPosition(tok.Pos).
				With(slog.String("target", tok.String()))
		}

		p.pos += 2

		value, err := p.parseTernary()
		if err != nil {
			return nil, err
		}

		return &Assign{
			Target: &Variable{Name: tok.Text, At: tok.Pos},
			Value:  value,
			At:     tok.Pos,
		}, nil
	}

	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.peek().Is(TokenOperator, "=") {
		return nil, ErrInvalidAssignment.WithPosition(e.Pos()).
			With(slog.String("target", e.String()))
	}

	return e, nil
}

// parseTernary parses: Binary ('?' Ternary ':' Ternary)?.
func (p *exprParser) parseTernary() (Expr, error) {
	cond, err := p.parseBinary(PrecCoalesce)
	if err != nil {
		return nil, err
	}

	if !p.peek().Is(TokenOperator, "?") {
		return cond, nil
	}

	p.pos++

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind != TokenColon {
		return nil, p.expected(":")
	}

	p.pos++

	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	return &Ternary{
		Cond: cond,
		Then: then,
		Else: els,
		Prec: PrecTernary,
		At:   cond.Pos(),
	}, nil
}

// parseBinary parses left-associative infix operators binding at least as
// tightly as minPrec.
func (p *exprParser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenOperator {
			return left, nil
		}

		prec, ok := binaryPrec[tok.Text]
		if !ok || prec < minPrec {
			return left, nil
		}

		p.pos++

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &Binary{
			Left:  left,
			Right: right,
			Op:    tok.Text,
			Prec:  prec,
			At:    left.Pos(),
		}
	}
}

// parseUnary parses: ('!' | '-') Unary | Postfix.
func (p *exprParser) parseUnary() (Expr, error) {
	tok := p.peek()

	if tok.Is(TokenOperator, "!") || tok.Is(TokenOperator, "-") {
		p.pos++

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Unary{X: x, Op: tok.Text, At: tok.Pos}, nil
	}

	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	return p.parsePostfix(x)
}

// parsePostfix parses member access, method calls, and subscripts.
func (p *exprParser) parsePostfix(x Expr) (Expr, error) {
	for {
		tok := p.peek()

		switch {
		case tok.Is(TokenOperator, "."):
			p.pos++

			name := p.peek()
			if name.Kind != TokenIdent {
				return nil, p.expected("member name")
			}

			p.pos++

			if p.peek().Kind == TokenLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}

				x = &Call{
					Name:   name.Text,
					Args:   append([]Expr{x}, args...),
					Method: true,
					At:     x.Pos(),
				}

				continue
			}

			x = &Member{Target: x, Name: name.Text, At: x.Pos()}

		case tok.Kind == TokenLBracket:
			p.pos++

			key, err := p.parseTernary()
			if err != nil {
				return nil, err
			}

			if p.peek().Kind != TokenRBracket {
				return nil, p.expected("]")
			}

			p.pos++

			x = &Index{Target: x, Key: key, At: x.Pos()}

		default:
			return x, nil
		}
	}
}

// parsePrimary parses literals, variables, calls, groups, and collection
// literals.
func (p *exprParser) parsePrimary() (Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenInt:
		p.pos++

		return &Literal{Value: Int(tok.Int), At: tok.Pos}, nil

	case TokenFloat:
		p.pos++

		return &Literal{Value: Float(tok.Float), At: tok.Pos}, nil

	case TokenString:
		p.pos++

		return &Literal{Value: String(tok.Text), At: tok.Pos}, nil

	case TokenBool:
		p.pos++

		return &Literal{Value: Bool(tok.Bool), At: tok.Pos}, nil

	case TokenNil:
		p.pos++

		return &Literal{Value: Nil(), At: tok.Pos}, nil

	case TokenIdent:
		p.pos++

		if p.peek().Kind == TokenLParen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			return &Call{Name: tok.Text, Args: args, At: tok.Pos}, nil
		}

		return &Variable{Name: tok.Text, At: tok.Pos}, nil

	case TokenScope:
		p.pos++

		v := &Variable{Scope: tok.Text, At: tok.Pos}

		if p.peek().Is(TokenOperator, ".") && p.peekAt(1).Kind == TokenIdent &&
			p.peekAt(2).Kind != TokenLParen {
			v.Name = p.peekAt(1).Text
			p.pos += 2
		}

		return v, nil

	case TokenLParen:
		p.pos++

		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}

		if p.peek().Kind != TokenRParen {
			return nil, p.expected(")")
		}

		p.pos++

		return e, nil

	case TokenLBracket:
		return p.parseCollection()

	default:
		return nil, p.unexpected()
	}
}

// parseCollection parses: '[' ']' | '[' ':' ']' | '[' Elems ']' | '[' Pairs ']'.
func (p *exprParser) parseCollection() (Expr, error) {
	open := p.peek()

	p.pos++

	switch {
	case p.peek().Kind == TokenRBracket:
		p.pos++

		return &ArrayLit{At: open.Pos}, nil

	case p.peek().Kind == TokenColon && p.peekAt(1).Kind == TokenRBracket:
		p.pos += 2

		return &DictLit{At: open.Pos}, nil
	}

	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind == TokenColon {
		dict := &DictLit{At: open.Pos}

		key := first

		for {
			p.pos++ // ':'

			value, err := p.parseTernary()
			if err != nil {
				return nil, err
			}

			dict.Keys = append(dict.Keys, key)
			dict.Values = append(dict.Values, value)

			if p.peek().Kind == TokenRBracket {
				p.pos++

				return dict, nil
			}

			if p.peek().Kind != TokenComma {
				return nil, p.expected(", or ]")
			}

			p.pos++

			key, err = p.parseTernary()
			if err != nil {
				return nil, err
			}

			if p.peek().Kind != TokenColon {
				return nil, p.expected(":")
			}
		}
	}

	array := &ArrayLit{Elems: []Expr{first}, At: open.Pos}

	for {
		if p.peek().Kind == TokenRBracket {
			p.pos++

			return array, nil
		}

		if p.peek().Kind != TokenComma {
			return nil, p.expected(", or ]")
		}

		p.pos++

		elem, err := p.parseTernary()
		if err != nil {
			return nil, err
		}

		array.Elems = append(array.Elems, elem)
	}
}

// parseArgs parses: '(' (Ternary (',' Ternary)*)? ')'.
func (p *exprParser) parseArgs() ([]Expr, error) {
	p.pos++ // '('

	args := []Expr{}

	if p.peek().Kind == TokenRParen {
		p.pos++

		return args, nil
	}

	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		switch p.peek().Kind {
		case TokenRParen:
			p.pos++

			return args, nil
		case TokenComma:
			p.pos++
		default:
			return nil, p.expected(", or )")
		}
	}
}

// Helper methods

func (p *exprParser) peek() Token { return p.peekAt(0) }

// peekAt returns the token n positions ahead, or a nil-kind whitespace token
// past the end of input.
func (p *exprParser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return Token{Kind: TokenWhitespace, Pos: p.end}
	}

	return p.toks[p.pos+n]
}

func (p *exprParser) eof() bool { return p.pos >= len(p.toks) }

func (p *exprParser) unexpected() *Error {
	if p.eof() {
		return ErrInvalidExpression.WithPosition(p.end).
			With(slog.String("reason", "unexpected end of expression"))
	}

	tok := p.peek()

	return ErrInvalidExpression.WithPosition(tok.Pos).
		With(slog.String("unexpected", tok.String()))
}

func (p *exprParser) expected(what string) *Error {
	tok := p.peek()

	found := tok.String()
	if p.eof() {
		found = "end of expression"
	}

	return ErrInvalidExpression.WithPosition(tok.Pos).
		With(slog.String("expected", what), slog.String("found", found))
}
