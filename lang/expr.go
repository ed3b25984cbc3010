package lang

import (
	"strconv"
	"strings"
)

// Expr is a node of a parsed parameter expression.
type Expr interface {
	// Pos returns the source position of the first token of the node.
	Pos() Position
	// String returns the diagnostic rendering used by dumps.
	String() string
}

// Operator precedence, lowest to highest.
const (
	PrecAssign = iota + 1
	PrecTernary
	PrecCoalesce
	PrecOr
	PrecAnd
	PrecEquality
	PrecRelational
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
)

var binaryPrec = map[string]int{
	"??": PrecCoalesce,
	"||": PrecOr,
	"&&": PrecAnd,
	"==": PrecEquality,
	"!=": PrecEquality,
	"<":  PrecRelational,
	"<=": PrecRelational,
	">":  PrecRelational,
	">=": PrecRelational,
	"+":  PrecAdditive,
	"-":  PrecAdditive,
	"*":  PrecMultiplicative,
	"/":  PrecMultiplicative,
	"%":  PrecMultiplicative,
}

type (
	// Literal is a constant value.
	Literal struct {
		Value Data
		At    Position
	}

	// Variable is the root of a variable path. Scope is empty for local
	// variables and names an external scope for $scope references; Name is
	// empty when the whole external scope is referenced.
	Variable struct {
		Scope string
		Name  string
		At    Position
	}

	// Member accesses a dictionary entry by name.
	Member struct {
		Target Expr
		Name   string
		At     Position
	}

	// Index subscripts an array, dictionary, or string.
	Index struct {
		Target Expr
		Key    Expr
		At     Position
	}

	// Unary applies a prefix operator.
	Unary struct {
		X  Expr
		Op string
		At Position
	}

	// Binary applies an infix operator. Prec is resolved at parse time.
	Binary struct {
		Left  Expr
		Right Expr
		Op    string
		Prec  int
		At    Position
	}

	// Ternary selects Then or Else by the truth of Cond.
	Ternary struct {
		Cond Expr
		Then Expr
		Else Expr
		Prec int
		At   Position
	}

	// Call invokes a registered function. Method is set for receiver sugar
	// (a.f(b)), in which case the receiver is Args[0].
	Call struct {
		Name   string
		Args   []Expr
		Method bool
		At     Position
	}

	// ArrayLit builds an array.
	ArrayLit struct {
		Elems []Expr
		At    Position
	}

	// DictLit builds a dictionary. Keys must evaluate to strings.
	DictLit struct {
		Keys   []Expr
		Values []Expr
		At     Position
	}

	// Assign binds Value to Target and yields the bound value.
	Assign struct {
		Target *Variable
		Value  Expr
		At     Position
	}
)

func (e *Literal) Pos() Position  { return e.At }
func (e *Variable) Pos() Position { return e.At }
func (e *Member) Pos() Position   { return e.At }
func (e *Index) Pos() Position    { return e.At }
func (e *Unary) Pos() Position    { return e.At }
func (e *Binary) Pos() Position   { return e.At }
func (e *Ternary) Pos() Position  { return e.At }
func (e *Call) Pos() Position     { return e.At }
func (e *ArrayLit) Pos() Position { return e.At }
func (e *DictLit) Pos() Position  { return e.At }
func (e *Assign) Pos() Position   { return e.At }

func (e *Literal) String() string {
	switch e.Value.Kind() {
	case KindString:
		s, _ := e.Value.AsString()

		return "string(" + s + ")"
	case KindNil:
		return "nil"
	default:
		return e.Value.Kind().String() + "(" + e.Value.Literal() + ")"
	}
}

func (e *Variable) String() string {
	return "$" + e.Scope + ":" + e.Name
}

func (e *Member) String() string {
	return e.Target.String() + "." + e.Name
}

func (e *Index) String() string {
	return "[" + e.Target.String() + " [] " + e.Key.String() + "]"
}

func (e *Unary) String() string {
	return e.Op + e.X.String()
}

func (e *Binary) String() string {
	return "[" + e.Left.String() + " " + e.Op + " " + e.Right.String() + "]"
}

func (e *Ternary) String() string {
	return "[" + e.Cond.String() + " ? " + e.Then.String() + " : " +
		e.Else.String() + "]"
}

func (e *Call) String() string {
	return e.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *ArrayLit) String() string {
	if len(e.Elems) == 0 {
		return "array(0)"
	}

	return "array(" + strconv.Itoa(len(e.Elems)) + ": " + joinExprs(e.Elems) + ")"
}

func (e *DictLit) String() string {
	var sb strings.Builder

	sb.WriteString("dictionary(")
	sb.WriteString(strconv.Itoa(len(e.Keys)))

	for i := range e.Keys {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString(", ")
		}

		sb.WriteString(e.Keys[i].String())
		sb.WriteString(": ")
		sb.WriteString(e.Values[i].String())
	}

	sb.WriteByte(')')

	return sb.String()
}

func (e *Assign) String() string {
	return "[" + e.Target.String() + " = " + e.Value.String() + "]"
}

func joinExprs(exprs []Expr) string {
	part := make([]string, len(exprs))
	for i, e := range exprs {
		part[i] = e.String()
	}

	return strings.Join(part, ", ")
}
