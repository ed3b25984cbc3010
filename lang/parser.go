package lang

import (
	"context"
	"log/slog"

	"github.com/zeebo/xxh3"
)

// closers maps each closing tag to the tag it closes.
var closers = map[string]string{
	tagEndIf:     tagIf,
	tagEndFor:    tagFor,
	tagEndWhile:  tagWhile,
	tagEndRepeat: tagRepeat,
	tagEndDefine: tagDefine,
	tagEndExport: tagExport,
	tagEndImport: tagImport,
}

// ParseString lexes and parses template source.
func ParseString(
	ctx context.Context,
	name, src string,
	opts ...Option,
) (*AST, error) {
	toks, err := Lex(ctx, name, src, opts...)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, name, toks, opts...)
}

// Parse builds an AST from the tokens of one template.
//
// Scope tables are numbered in the order their opening tags appear, so
// identical input always produces identical numbering.
func Parse(
	ctx context.Context,
	name string,
	tokens []Token,
	opts ...Option,
) (*AST, error) {
	o := makeOptions(opts...)

	p := &parser{
		ast: &AST{
			name:   name,
			scopes: [][]Syntax{{}},
			logger: o.logger,
		},
		toks:      tokens,
		fragments: make(map[string]bool),
	}

	err := p.parse()
	if err != nil {
		return nil, err.With(slog.String("template", name))
	}

	p.ast.collectDeps()
	p.ast.digest = digestTokens(tokens)

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("template", name),
		slog.Int("scope_count", len(p.ast.scopes)),
		slog.Int("dependency_count", len(p.ast.deps)),
		slog.Int("estimated_size", p.ast.size))

	return p.ast, nil
}

// frame is an open block on the parser stack.
type frame struct {
	tag     string
	pos     Position
	table   int // Scope receiving instructions
	parent  int // Scope holding the opening instruction
	owner   int // Index of the opening instruction in parent
	sawElse bool
}

// parser holds the parser state.
type parser struct {
	ast       *AST
	toks      []Token
	stack     []frame
	fragments map[string]bool // Names defined or exported so far
	pos       int
}

// param is one comma-separated entry of a parameter list, optionally
// prefixed by a "label:".
type param struct {
	label string
	toks  []Token
	pos   Position
	end   Position
}

func (p *parser) parse() *Error {
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++

		switch tok.Kind {
		case TokenRaw:
			p.raw(tok.Text, tok.Pos)

		case TokenTag:
			err := p.tag(tok)
			if err != nil {
				return err
			}

		default:
			return ErrInvalidParameters.WithPosition(tok.Pos).
				With(slog.String("unexpected", tok.String()))
		}
	}

	if len(p.stack) > 0 {
		f := p.stack[len(p.stack)-1]

		return ErrMissingClose.WithPosition(f.pos).
			With(slog.String("tag", f.tag))
	}

	return nil
}

func (p *parser) current() int {
	if len(p.stack) == 0 {
		return 0
	}

	return p.stack[len(p.stack)-1].table
}

func (p *parser) raw(text string, pos Position) {
	p.ast.appendSyntax(p.current(), Syntax{
		Kind:  SyntaxRaw,
		Raw:   []byte(text),
		Pos:   pos,
		Scope: Undefined,
	})

	p.ast.size += len(text)
}

func (p *parser) emit(s Syntax) int {
	return p.ast.appendSyntax(p.current(), s)
}

// open emits s with a new body scope and pushes it onto the stack.
func (p *parser) open(tag string, s Syntax) {
	parent := p.current()
	s.Scope = p.ast.newTable()
	owner := p.ast.appendSyntax(parent, s)

	p.stack = append(p.stack, frame{
		tag:    tag,
		pos:    s.Pos,
		table:  s.Scope,
		parent: parent,
		owner:  owner,
	})
}

// tag dispatches a tag token. Its parameter list, if any, follows at p.pos.
func (p *parser) tag(tok Token) *Error {
	var (
		params []param
		err    *Error
	)

	if tok.Params {
		params, err = p.params()
		if err != nil {
			return err
		}
	}

	if opener, ok := closers[tok.Text]; ok {
		return p.close(tok, opener, params)
	}

	switch tok.Text {
	case "":
		return p.expression(tok, params)
	case tagIf:
		return p.ifTag(tok, params)
	case tagElseIf:
		return p.elseIfTag(tok, params)
	case tagElse:
		return p.elseTag(tok, params)
	case tagFor:
		return p.forTag(tok, params)
	case tagWhile, tagRepeat:
		return p.guardTag(tok, params)
	case tagDefine, tagExport:
		return p.fragmentTag(tok, params)
	case tagImport:
		return p.importTag(tok, params)
	case tagEvaluate:
		return p.evaluateTag(tok, params)
	case tagExtend:
		return p.extendTag(tok, params)
	case tagInline:
		return p.inlineTag(tok, params)
	}

	if !tok.Params {
		p.raw("#"+tok.Text, tok.Pos)

		return nil
	}

	return p.call(tok, params)
}

// params consumes a parenthesized parameter list and splits it on
// top-level commas. Whitespace is dropped.
func (p *parser) params() ([]param, *Error) {
	if p.pos >= len(p.toks) || p.toks[p.pos].Kind != TokenLParen {
		return nil, ErrInvalidParameters.WithPosition(p.endPos()).
			With(slog.String("expected", "("))
	}

	var (
		out   []param
		cur   param
		depth int
	)

	flush := func(end Position) {
		cur.end = end
		if len(cur.toks) >= 2 && cur.toks[0].Kind == TokenIdent &&
			cur.toks[1].Kind == TokenColon {
			cur.label = cur.toks[0].Text
			cur.toks = cur.toks[2:]
		}

		out = append(out, cur)
		cur = param{}
	}

	for ; p.pos < len(p.toks); p.pos++ {
		tok := p.toks[p.pos]

		switch tok.Kind {
		case TokenWhitespace:
			continue

		case TokenLParen, TokenLBracket:
			depth++
			if depth == 1 {
				continue
			}

		case TokenRParen, TokenRBracket:
			depth--
			if depth == 0 {
				p.pos++

				if len(cur.toks) > 0 || len(out) > 0 {
					flush(tok.Pos)
				}

				return out, nil
			}

		case TokenComma:
			if depth == 1 {
				if len(cur.toks) == 0 {
					return nil, ErrInvalidParameters.WithPosition(tok.Pos).
						With(slog.String("reason", "empty parameter"))
				}

				flush(tok.Pos)

				continue
			}
		}

		if len(cur.toks) == 0 {
			cur.pos = tok.Pos
		}

		cur.toks = append(cur.toks, tok)
	}

	return nil, ErrUnbalancedDelimiter.WithPosition(p.endPos())
}

func (p *parser) endPos() Position {
	if len(p.toks) == 0 {
		return Position{}
	}

	return p.toks[len(p.toks)-1].Pos
}

// expr parses an unlabelled parameter as an expression.
func (p *parser) expr(tok Token, prm param) (Expr, *Error) {
	if prm.label != "" {
		return nil, ErrInvalidParameters.WithPosition(prm.pos).
			With(slog.String("tag", tok.Text), slog.String("label", prm.label))
	}

	e, err := parseExpression(prm.toks, prm.end)
	if err != nil {
		return nil, WrapError(err)
	}

	return e, nil
}

// name extracts a fragment or template name given as an identifier or a
// string literal.
func (p *parser) name(tok Token, prm param) (string, *Error) {
	if prm.label == "" && len(prm.toks) == 1 {
		switch t := prm.toks[0]; t.Kind {
		case TokenIdent, TokenString:
			return t.Text, nil
		}
	}

	return "", ErrInvalidParameters.WithPosition(prm.pos).
		With(slog.String("tag", tok.Text), slog.String("expected", "name"))
}

func arity(tok Token, params []param, lo, hi int) *Error {
	if len(params) < lo || len(params) > hi {
		return ErrInvalidParameters.WithPosition(tok.Pos).
			With(
				slog.String("tag", tok.Text),
				slog.Int("count", len(params)),
			)
	}

	return nil
}

func needBlock(tok Token) *Error {
	if !tok.Block {
		return ErrInvalidParameters.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text), slog.String("expected", ":"))
	}

	return nil
}

// expression handles anonymous tags. A tag holding only a comment emits
// nothing.
func (p *parser) expression(tok Token, params []param) *Error {
	if len(params) == 0 {
		return nil
	}

	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	e, err := p.expr(tok, params[0])
	if err != nil {
		return err
	}

	p.emit(Syntax{Kind: SyntaxExpression, Expr: e, Pos: tok.Pos, Scope: Undefined})

	return nil
}

// call handles #name(args), interpolating the result of a function call.
func (p *parser) call(tok Token, params []param) *Error {
	args := make([]Expr, len(params))

	for i, prm := range params {
		e, err := p.expr(tok, prm)
		if err != nil {
			return err
		}

		args[i] = e
	}

	p.emit(Syntax{
		Kind:  SyntaxExpression,
		Expr:  &Call{Name: tok.Text, Args: args, At: tok.Pos},
		Pos:   tok.Pos,
		Scope: Undefined,
	})

	return nil
}

func (p *parser) close(tok Token, opener string, params []param) *Error {
	if len(params) > 0 {
		return ErrInvalidParameters.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text))
	}

	if len(p.stack) == 0 || p.stack[len(p.stack)-1].tag != opener {
		err := ErrUnmatchedClose.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text))

		if len(p.stack) > 0 {
			err = err.With(slog.String("open", p.stack[len(p.stack)-1].tag))
		}

		return err
	}

	p.stack = p.stack[:len(p.stack)-1]

	return nil
}

func (p *parser) ifTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	if err := needBlock(tok); err != nil {
		return err
	}

	cond, err := p.expr(tok, params[0])
	if err != nil {
		return err
	}

	parent := p.current()
	table := p.ast.newTable()
	owner := p.ast.appendSyntax(parent, Syntax{
		Kind:     SyntaxConditional,
		Branches: []Branch{{Cond: cond, Scope: table}},
		Pos:      tok.Pos,
		Scope:    Undefined,
	})

	p.stack = append(p.stack, frame{
		tag:    tagIf,
		pos:    tok.Pos,
		table:  table,
		parent: parent,
		owner:  owner,
	})

	return nil
}

// branch adds an arm to the innermost open conditional.
func (p *parser) branch(tok Token, cond Expr) *Error {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1].tag != tagIf {
		return ErrUnmatchedClose.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text))
	}

	f := &p.stack[len(p.stack)-1]

	if f.sawElse {
		if cond == nil {
			return ErrDuplicateElse.WithPosition(tok.Pos)
		}

		return ErrBranchAfterElse.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text))
	}

	f.sawElse = cond == nil
	f.table = p.ast.newTable()

	s := &p.ast.scopes[f.parent][f.owner]
	s.Branches = append(s.Branches, Branch{Cond: cond, Scope: f.table})

	return nil
}

func (p *parser) elseIfTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	if err := needBlock(tok); err != nil {
		return err
	}

	cond, err := p.expr(tok, params[0])
	if err != nil {
		return err
	}

	return p.branch(tok, cond)
}

func (p *parser) elseTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 0, 0); err != nil {
		return err
	}

	return p.branch(tok, nil)
}

// forTag parses: '_' in Expr | Ident in Expr | '(' Ident ',' Ident ')' in Expr.
func (p *parser) forTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	if err := needBlock(tok); err != nil {
		return err
	}

	prm := params[0]
	toks := prm.toks

	invalid := ErrInvalidLoopBinding.WithPosition(prm.pos)

	var (
		bind Binding
		rest []Token
	)

	switch {
	case prm.label != "":
		return invalid.With(slog.String("label", prm.label))

	case len(toks) >= 3 && toks[0].Kind == TokenIdent && toks[1].Is(TokenIdent, "in"):
		if toks[0].Text == "_" {
			bind = Binding{Kind: BindDiscard}
		} else {
			bind = Binding{Kind: BindSingle, Value: toks[0].Text}
		}

		rest = toks[2:]

	case len(toks) >= 7 && toks[0].Kind == TokenLParen &&
		toks[1].Kind == TokenIdent && toks[2].Kind == TokenComma &&
		toks[3].Kind == TokenIdent && toks[4].Kind == TokenRParen &&
		toks[5].Is(TokenIdent, "in"):
		bind = Binding{Kind: BindPair, Key: toks[1].Text, Value: toks[3].Text}
		rest = toks[6:]

	default:
		return invalid
	}

	src, err := parseExpression(rest, prm.end)
	if err != nil {
		return WrapError(err)
	}

	p.open(tagFor, Syntax{
		Kind:    SyntaxLoop,
		Binding: bind,
		Expr:    src,
		Pos:     tok.Pos,
	})

	return nil
}

// guardTag handles while(cond) and repeat(while: cond).
func (p *parser) guardTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	if err := needBlock(tok); err != nil {
		return err
	}

	prm := params[0]
	kind := SyntaxWhile

	if tok.Text == tagRepeat {
		kind = SyntaxRepeat

		if prm.label == tagWhile {
			prm.label = ""
		}
	}

	guard, err := p.expr(tok, prm)
	if err != nil {
		return err
	}

	p.open(tok.Text, Syntax{Kind: kind, Expr: guard, Pos: tok.Pos})

	return nil
}

// fragmentTag handles define(name, value), define(name): and the export
// equivalents.
func (p *parser) fragmentTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 2); err != nil {
		return err
	}

	name, err := p.name(tok, params[0])
	if err != nil {
		return err
	}

	kind := SyntaxDefine
	if tok.Text == tagExport {
		kind = SyntaxExport
	}

	p.fragments[name] = true

	if len(params) == 1 {
		if err := needBlock(tok); err != nil {
			return err
		}

		p.open(tok.Text, Syntax{Kind: kind, Name: name, Pos: tok.Pos})

		return nil
	}

	if tok.Block {
		return ErrInvalidParameters.WithPosition(tok.Pos).
			With(slog.String("tag", tok.Text), slog.String("reason", "value with body"))
	}

	value, err := p.expr(tok, params[1])
	if err != nil {
		return err
	}

	p.emit(Syntax{Kind: kind, Name: name, Expr: value, Pos: tok.Pos, Scope: Undefined})

	return nil
}

// importTag handles import(name) and import(name): default #endimport.
func (p *parser) importTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	name, err := p.name(tok, params[0])
	if err != nil {
		return err
	}

	if tok.Block {
		p.open(tagImport, Syntax{Kind: SyntaxImport, Name: name, Pos: tok.Pos})

		return nil
	}

	p.emit(Syntax{
		Kind:  SyntaxImport,
		Name:  name,
		Pos:   tok.Pos,
		Scope: Undefined,
		Local: p.fragments[name],
	})

	return nil
}

// evaluateTag handles evaluate(name) and evaluate(name ?? fallback).
func (p *parser) evaluateTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	e, err := p.expr(tok, params[0])
	if err != nil {
		return err
	}

	var fallback Expr

	if b, ok := e.(*Binary); ok && b.Op == "??" {
		e, fallback = b.Left, b.Right
	}

	v, ok := e.(*Variable)
	if !ok || v.Scope != "" {
		return ErrInvalidParameters.WithPosition(e.Pos()).
			With(slog.String("tag", tok.Text), slog.String("expected", "name"))
	}

	p.emit(Syntax{
		Kind:  SyntaxEvaluate,
		Name:  v.Name,
		Expr:  fallback,
		Pos:   tok.Pos,
		Scope: Undefined,
		Local: p.fragments[v.Name],
	})

	return nil
}

func (p *parser) extendTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 1); err != nil {
		return err
	}

	name, err := p.name(tok, params[0])
	if err != nil {
		return err
	}

	p.emit(Syntax{Kind: SyntaxExtend, Name: name, Pos: tok.Pos, Scope: Undefined})

	return nil
}

// inlineTag handles inline(name) and inline(name, as: leaf|raw).
func (p *parser) inlineTag(tok Token, params []param) *Error {
	if err := arity(tok, params, 1, 2); err != nil {
		return err
	}

	name, err := p.name(tok, params[0])
	if err != nil {
		return err
	}

	mode := InlineTemplate

	if len(params) == 2 {
		prm := params[1]
		if prm.label != "as" || len(prm.toks) != 1 || prm.toks[0].Kind != TokenIdent {
			return ErrInvalidParameters.WithPosition(prm.pos).
				With(slog.String("tag", tok.Text), slog.String("expected", "as: leaf|raw"))
		}

		switch prm.toks[0].Text {
		case "leaf", "template":
		case "raw":
			mode = InlineRaw
		default:
			return ErrInvalidParameters.WithPosition(prm.pos).
				With(slog.String("tag", tok.Text), slog.String("mode", prm.toks[0].Text))
		}
	}

	p.emit(Syntax{Kind: SyntaxInline, Name: name, Mode: mode, Pos: tok.Pos, Scope: Undefined})

	return nil
}

// digestTokens hashes the kind and text of each token.
func digestTokens(toks []Token) uint64 {
	h := xxh3.New()

	for _, tok := range toks {
		_, _ = h.Write([]byte{byte(tok.Kind)})
		_, _ = h.WriteString(tok.String())
	}

	return h.Sum64()
}
