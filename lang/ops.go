package lang

import (
	"log/slog"
	"maps"
	"math"
	"slices"
)

// binaryOp applies an eagerly evaluated infix operator.
// The short-circuit operators &&, ||, and ?? are handled by the caller.
func binaryOp(op string, l, r Data) (Data, error) {
	switch op {
	case "==":
		return Bool(l.Equal(r)), nil
	case "!=":
		return Bool(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	case "+":
		return add(l, r)
	case "-", "*", "/", "%":
		return arith(op, l, r)
	}

	return Nil(), ErrInvalidExpression.With(slog.String("operator", op))
}

func mismatch(op string, l, r Data) *Error {
	return ErrTypeMismatch.With(
		slog.String("operator", op),
		slog.String("left", l.Kind().String()),
		slog.String("right", r.Kind().String()),
	)
}

func compare(op string, l, r Data) (Data, error) {
	var c int

	switch {
	case l.Kind() == KindInt && r.Kind() == KindInt:
		a, _ := l.AsInt()
		b, _ := r.AsInt()
		c = cmp3(a, b)

	case l.isNumber() && r.isNumber():
		a, _ := l.AsFloat()
		b, _ := r.AsFloat()
		c = cmp3(a, b)

	case l.Kind() == KindString && r.Kind() == KindString:
		a, _ := l.AsString()
		b, _ := r.AsString()
		c = cmp3(a, b)

	default:
		return Nil(), mismatch(op, l, r)
	}

	switch op {
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	default:
		return Bool(c >= 0), nil
	}
}

func cmp3[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// add implements '+': numeric addition, string concatenation when either
// operand is a string, array concatenation, and dictionary merge with
// right-hand entries taking precedence.
func add(l, r Data) (Data, error) {
	switch {
	case l.isNumber() && r.isNumber():
		return arith("+", l, r)

	case l.Kind() == KindString || r.Kind() == KindString:
		if l.Kind() == KindNil || r.Kind() == KindNil {
			return Nil(), mismatch("+", l, r)
		}

		return String(l.String() + r.String()), nil

	case l.Kind() == KindArray && r.Kind() == KindArray:
		a, _ := l.AsArray()
		b, _ := r.AsArray()

		return Array(slices.Concat(a, b)...), nil

	case l.Kind() == KindDictionary && r.Kind() == KindDictionary:
		a, _ := l.AsDictionary()
		b, _ := r.AsDictionary()

		out := maps.Clone(a)
		maps.Copy(out, b)

		return Dictionary(out), nil
	}

	return Nil(), mismatch("+", l, r)
}

// arith implements numeric operators. Integer operands produce an integer
// result; any float operand produces a float.
func arith(op string, l, r Data) (Data, error) {
	if !l.isNumber() || !r.isNumber() {
		return Nil(), mismatch(op, l, r)
	}

	if l.Kind() == KindInt && r.Kind() == KindInt {
		a, _ := l.AsInt()
		b, _ := r.AsInt()

		switch op {
		case "+":
			return Int(a + b), nil
		case "-":
			return Int(a - b), nil
		case "*":
			return Int(a * b), nil
		}

		if b == 0 {
			return Nil(), ErrDivideByZero.With(slog.String("operator", op))
		}

		if op == "/" {
			return Int(a / b), nil
		}

		return Int(a % b), nil
	}

	a, _ := l.AsFloat()
	b, _ := r.AsFloat()

	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	}

	if b == 0 {
		return Nil(), ErrDivideByZero.With(slog.String("operator", op))
	}

	if op == "/" {
		return Float(a / b), nil
	}

	return Float(math.Mod(a, b)), nil
}

// unaryOp applies a prefix operator.
func unaryOp(op string, x Data) (Data, error) {
	switch op {
	case "!":
		return Bool(!x.Truthy()), nil
	case "-":
		switch x.Kind() {
		case KindInt:
			i, _ := x.AsInt()

			return Int(-i), nil
		case KindFloat:
			f, _ := x.AsFloat()

			return Float(-f), nil
		}
	}

	return Nil(), ErrTypeMismatch.With(
		slog.String("operator", op),
		slog.String("operand", x.Kind().String()),
	)
}
