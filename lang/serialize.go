package lang

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Serializer renders a resolved [AST] against a context.
//
// A Serializer holds no per-render state; Serialize may be called
// concurrently and each call owns its scope stack and output.
type Serializer struct {
	ast     *AST
	context map[string]Data
	opts    options
}

// NewSerializer returns a Serializer rendering ast against context.
// The context is read but never modified.
func NewSerializer(ast *AST, context map[string]Data, opts ...Option) *Serializer {
	o := makeOptions(opts...)
	if o.funcs == nil {
		o.funcs = DefaultFuncs()
	}

	if context == nil {
		context = map[string]Data{}
	}

	return &Serializer{ast: ast, context: context, opts: o}
}

// Serialize appends the rendered template to buf and returns the time spent.
//
// On failure buf is truncated to its original length and the returned error
// describes the first failure encountered. An AST with outstanding
// dependencies fails with [ErrUnresolvedTemplate].
func (s *Serializer) Serialize(ctx context.Context, buf *bytes.Buffer) (time.Duration, error) {
	start := time.Now()

	if !s.ast.Resolved() {
		names := make([]string, len(s.ast.deps))
		for i, d := range s.ast.deps {
			names[i] = d.String()
		}

		return time.Since(start), ErrUnresolvedTemplate.With(
			slog.String("template", s.ast.name),
			slog.Any("dependencies", names),
		)
	}

	mark := buf.Len()
	buf.Grow(s.ast.size)

	r := &run{
		ast:       s.ast,
		opts:      &s.opts,
		context:   s.context,
		self:      Dictionary(s.context),
		stack:     []map[string]Data{{}},
		fragments: make(map[string]fragment),
		buf:       buf,
	}

	err := r.exec(0)
	elapsed := time.Since(start)

	if err != nil {
		buf.Truncate(mark)

		return elapsed, WrapError(err).With(slog.String("template", s.ast.name))
	}

	s.opts.logger.TraceContext(ctx, "serialize complete",
		slog.String("template", s.ast.name),
		slog.Int("bytes", buf.Len()-mark),
		slog.Duration("elapsed", elapsed))

	return elapsed, nil
}

// fragment is a registered define or export: either an inline value or a
// body scope.
type fragment struct {
	expr  Expr
	scope int
}

// run is the state of one Serialize call.
type run struct {
	ast       *AST
	opts      *options
	context   map[string]Data
	self      Data
	stack     []map[string]Data
	fragments map[string]fragment
	buf       *bytes.Buffer
	depth     int
}

func (r *run) push(frame map[string]Data) {
	if frame == nil {
		frame = map[string]Data{}
	}

	r.stack = append(r.stack, frame)
}

func (r *run) pop() { r.stack = r.stack[:len(r.stack)-1] }

// body runs table t in a fresh child scope.
func (r *run) body(t int, frame map[string]Data) error {
	if r.depth >= r.opts.maxDepth {
		return ErrRecursionLimit.With(slog.Int("limit", r.opts.maxDepth))
	}

	r.depth++
	r.push(frame)

	defer func() {
		r.pop()
		r.depth--
	}()

	return r.exec(t)
}

func (r *run) exec(t int) error {
	for _, s := range r.ast.scopes[t] {
		err := r.step(s)
		if err != nil {
			return located(err, s.Pos)
		}
	}

	return nil
}

func (r *run) step(s Syntax) error {
	switch s.Kind {
	case SyntaxRaw:
		r.buf.Write(s.Raw)

	case SyntaxExpression:
		v, err := r.eval(s.Expr)
		if err != nil {
			return err
		}

		if _, ok := s.Expr.(*Assign); !ok {
			r.buf.WriteString(v.String())
		}

	case SyntaxConditional:
		return r.conditional(s)

	case SyntaxLoop:
		return r.loop(s)

	case SyntaxWhile, SyntaxRepeat:
		return r.guarded(s)

	case SyntaxDefine, SyntaxExport:
		r.fragments[s.Name] = fragment{expr: s.Expr, scope: s.Scope}

	case SyntaxEvaluate:
		return r.evaluate(s)

	case SyntaxImport:
		return r.imports(s)

	case SyntaxExtend, SyntaxInline:
		if s.Scope == Undefined {
			return ErrUnresolvedTemplate.With(slog.String("dependency", s.Name))
		}

		return r.body(s.Scope, nil)
	}

	return nil
}

func (r *run) conditional(s Syntax) error {
	for _, b := range s.Branches {
		if b.Cond != nil {
			v, err := r.eval(b.Cond)
			if err != nil {
				return err
			}

			if !v.Truthy() {
				continue
			}
		}

		return r.body(b.Scope, nil)
	}

	return nil
}

// loop runs the body once per element of the source. Arrays iterate in
// index order, dictionaries in sorted key order, strings by character, and
// a non-negative integer n over 0 to n-1. Nil iterates zero times.
// Elements are produced one at a time as the body runs.
func (r *run) loop(s Syntax) error {
	src, err := r.eval(s.Expr)
	if err != nil {
		return err
	}

	var (
		count int64
		each  iter.Seq2[Data, Data]
	)

	switch src.Kind() {
	case KindNil:
		return nil

	case KindArray:
		values, _ := src.AsArray()
		count = int64(len(values))
		each = func(yield func(Data, Data) bool) {
			for i, v := range values {
				if !yield(Int(int64(i)), v) {
					return
				}
			}
		}

	case KindDictionary:
		d, _ := src.AsDictionary()
		keys := src.Keys()
		count = int64(len(keys))
		each = func(yield func(Data, Data) bool) {
			for _, k := range keys {
				if !yield(String(k), d[k]) {
					return
				}
			}
		}

	case KindInt:
		n, _ := src.AsInt()
		count = max(n, 0)
		each = func(yield func(Data, Data) bool) {
			for i := range count {
				if !yield(Int(i), Int(i)) {
					return
				}
			}
		}

	case KindString:
		str, _ := src.AsString()
		count = int64(utf8.RuneCountInString(str))
		each = func(yield func(Data, Data) bool) {
			var i int64

			for _, c := range str {
				if !yield(Int(i), String(string(c))) {
					return
				}

				i++
			}
		}

	default:
		return ErrTypeMismatch.With(
			slog.String("tag", tagFor),
			slog.String("source", src.Kind().String()),
		)
	}

	var i int64

	for key, value := range each {
		if i >= int64(r.opts.maxIterations) {
			return ErrIterationLimit.With(
				slog.String("tag", tagFor),
				slog.Int("limit", r.opts.maxIterations),
			)
		}

		frame := map[string]Data{
			"isFirst": Bool(i == 0),
			"isLast":  Bool(i == count-1),
			"index":   Int(i),
		}

		switch s.Binding.Kind {
		case BindSingle:
			frame[s.Binding.Value] = value
		case BindPair:
			frame[s.Binding.Key] = key
			frame[s.Binding.Value] = value
		}

		err := r.body(s.Scope, frame)
		if err != nil {
			return err
		}

		i++
	}

	return nil
}

// guarded runs a while or repeat loop. A repeat body runs before its guard
// is first tested.
func (r *run) guarded(s Syntax) error {
	first := s.Kind == SyntaxRepeat

	for n := 0; ; n++ {
		if !first {
			v, err := r.eval(s.Expr)
			if err != nil {
				return err
			}

			if !v.Truthy() {
				return nil
			}
		}

		first = false

		if n >= r.opts.maxIterations {
			return ErrIterationLimit.With(
				slog.String("tag", s.Kind.String()),
				slog.Int("limit", r.opts.maxIterations),
			)
		}

		err := r.body(s.Scope, nil)
		if err != nil {
			return err
		}
	}
}

// invoke runs a registered fragment.
func (r *run) invoke(f fragment) error {
	if f.scope != Undefined {
		return r.body(f.scope, nil)
	}

	if f.expr == nil {
		return nil
	}

	v, err := r.eval(f.expr)
	if err != nil {
		return err
	}

	r.buf.WriteString(v.String())

	return nil
}

// evaluate runs a define'd fragment, a linked template, or the fallback, in
// that order of preference.
func (r *run) evaluate(s Syntax) error {
	if f, ok := r.fragments[s.Name]; ok {
		return r.invoke(f)
	}

	if s.Scope != Undefined {
		return r.body(s.Scope, nil)
	}

	if s.Expr != nil {
		return r.invoke(fragment{expr: s.Expr, scope: Undefined})
	}

	return ErrUndefinedFragment.With(slog.String("name", s.Name))
}

// imports runs a registered fragment, the export bound at link time, or the
// default body, in that order of preference.
func (r *run) imports(s Syntax) error {
	if f, ok := r.fragments[s.Name]; ok {
		return r.invoke(f)
	}

	if s.Expr != nil || s.Scope != Undefined {
		return r.invoke(fragment{expr: s.Expr, scope: s.Scope})
	}

	return ErrUndefinedImport.With(slog.String("name", s.Name))
}

// eval evaluates an expression in the current scope.
func (r *run) eval(e Expr) (Data, error) {
	switch e := e.(type) {
	case *Literal:
		return e.Value, nil

	case *Variable:
		return r.variable(e)

	case *Member:
		target, err := r.eval(e.Target)
		if err != nil {
			return Nil(), err
		}

		return member(target, e.Name, e.At)

	case *Index:
		target, err := r.eval(e.Target)
		if err != nil {
			return Nil(), err
		}

		key, err := r.eval(e.Key)
		if err != nil {
			return Nil(), err
		}

		return index(target, key, e.At)

	case *Unary:
		x, err := r.eval(e.X)
		if err != nil {
			return Nil(), err
		}

		v, err := unaryOp(e.Op, x)

		return v, located(err, e.At)

	case *Binary:
		return r.binary(e)

	case *Ternary:
		cond, err := r.eval(e.Cond)
		if err != nil {
			return Nil(), err
		}

		if cond.Truthy() {
			return r.eval(e.Then)
		}

		return r.eval(e.Else)

	case *Call:
		args := make([]Data, len(e.Args))

		for i, a := range e.Args {
			v, err := r.eval(a)
			if err != nil {
				return Nil(), err
			}

			args[i] = v
		}

		v, err := r.opts.funcs.Call(e.Name, args)
		if err != nil {
			return Nil(), ErrFunction.Wrap(err).WithPosition(e.At).
				With(slog.String("function", e.Name))
		}

		return v, nil

	case *ArrayLit:
		elems := make([]Data, len(e.Elems))

		for i, x := range e.Elems {
			v, err := r.eval(x)
			if err != nil {
				return Nil(), err
			}

			elems[i] = v
		}

		return Array(elems...), nil

	case *DictLit:
		m := make(map[string]Data, len(e.Keys))

		for i := range e.Keys {
			k, err := r.eval(e.Keys[i])
			if err != nil {
				return Nil(), err
			}

			key, ok := k.AsString()
			if !ok {
				return Nil(), ErrTypeMismatch.WithPosition(e.Keys[i].Pos()).
					With(slog.String("key", k.Kind().String()))
			}

			v, err := r.eval(e.Values[i])
			if err != nil {
				return Nil(), err
			}

			m[key] = v
		}

		return Dictionary(m), nil

	case *Assign:
		// The value is computed before rebinding so it observes the prior
		// value of the target.
		v, err := r.eval(e.Value)
		if err != nil {
			return Nil(), err
		}

		r.assign(e.Target.Name, v)

		return v, nil
	}

	return Nil(), ErrInvalidExpression.With(slog.Any("expression", e))
}

func (r *run) binary(e *Binary) (Data, error) {
	left, err := r.eval(e.Left)

	switch e.Op {
	case "??":
		if err != nil && !errors.Is(err, ErrUndefinedVariable) {
			return Nil(), err
		}

		if err == nil && !left.IsNil() {
			return left, nil
		}

		return r.eval(e.Right)

	case "&&", "||":
		if err != nil {
			return Nil(), err
		}

		if left.Truthy() == (e.Op == "||") {
			return Bool(left.Truthy()), nil
		}

		right, err := r.eval(e.Right)
		if err != nil {
			return Nil(), err
		}

		return Bool(right.Truthy()), nil
	}

	if err != nil {
		return Nil(), err
	}

	right, err := r.eval(e.Right)
	if err != nil {
		return Nil(), err
	}

	v, err := binaryOp(e.Op, left, right)

	return v, located(err, e.At)
}

// variable resolves a variable reference. Local names are searched from
// the innermost scope outward, then in the context, and "self" finally
// names the whole context.
func (r *run) variable(v *Variable) (Data, error) {
	if v.Scope != "" {
		var (
			root Data
			ok   bool
		)

		if v.Scope == "context" {
			root, ok = r.self, true
		} else {
			root, ok = r.opts.scopes[v.Scope]
		}

		if !ok {
			return Nil(), ErrUndefinedVariable.WithPosition(v.At).
				With(slog.String("variable", v.String()))
		}

		if v.Name == "" {
			return root, nil
		}

		d, _ := root.AsDictionary()
		if val, ok := d[v.Name]; ok {
			return val, nil
		}

		return Nil(), ErrUndefinedVariable.WithPosition(v.At).
			With(slog.String("variable", v.String()))
	}

	for i := len(r.stack) - 1; i >= 0; i-- {
		if val, ok := r.stack[i][v.Name]; ok {
			return val, nil
		}
	}

	if val, ok := r.context[v.Name]; ok {
		return val, nil
	}

	if v.Name == "self" {
		return r.self, nil
	}

	err := ErrUndefinedVariable.WithPosition(v.At).
		With(slog.String("variable", v.Name))

	if m := fuzzy.Find(v.Name, r.visible()); len(m) > 0 {
		err = err.With(slog.String("suggestion", m[0].Str))
	}

	return Nil(), err
}

// visible returns the sorted names of every variable in scope.
func (r *run) visible() []string {
	names := map[string]bool{"self": true}

	for _, frame := range r.stack {
		for k := range frame {
			names[k] = true
		}
	}

	for k := range r.context {
		names[k] = true
	}

	return slices.Sorted(maps.Keys(names))
}

// assign binds name in the innermost scope that already defines it, or in
// the innermost scope if none does.
func (r *run) assign(name string, v Data) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if _, ok := r.stack[i][name]; ok {
			r.stack[i][name] = v

			return
		}
	}

	r.stack[len(r.stack)-1][name] = v
}

// member returns the dictionary entry name of target. Missing entries and
// nil targets yield nil.
func member(target Data, name string, pos Position) (Data, error) {
	switch target.Kind() {
	case KindNil:
		return Nil(), nil
	case KindDictionary:
		d, _ := target.AsDictionary()

		return d[name], nil
	}

	return Nil(), ErrTypeMismatch.WithPosition(pos).
		With(slog.String("member", name), slog.String("target", target.Kind().String()))
}

// index subscripts an array or string by integer or a dictionary by string.
func index(target, key Data, pos Position) (Data, error) {
	switch target.Kind() {
	case KindNil:
		return Nil(), nil

	case KindDictionary:
		if k, ok := key.AsString(); ok {
			d, _ := target.AsDictionary()

			return d[k], nil
		}

	case KindArray:
		if i, ok := key.AsInt(); ok {
			a, _ := target.AsArray()
			if i < 0 || i >= int64(len(a)) {
				return Nil(), ErrIndexOutOfRange.WithPosition(pos).
					With(slog.Int64("index", i), slog.Int("length", len(a)))
			}

			return a[i], nil
		}

	case KindString:
		if i, ok := key.AsInt(); ok {
			s, _ := target.AsString()
			runes := []rune(s)

			if i < 0 || i >= int64(len(runes)) {
				return Nil(), ErrIndexOutOfRange.WithPosition(pos).
					With(slog.Int64("index", i), slog.Int("length", len(runes)))
			}

			return String(string(runes[i])), nil
		}
	}

	return Nil(), ErrTypeMismatch.WithPosition(pos).
		With(
			slog.String("target", target.Kind().String()),
			slog.String("key", key.Kind().String()),
		)
}

// located attaches pos to err unless it already carries a position.
func located(err error, pos Position) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) && e.Position().IsZero() && !pos.IsZero() {
		return e.WithPosition(pos)
	}

	return err
}
