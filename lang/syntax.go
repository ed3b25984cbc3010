package lang

import (
	"strconv"
)

// Tag names recognized by the parser.
const (
	tagIf        = "if"
	tagElseIf    = "elseif"
	tagElse      = "else"
	tagEndIf     = "endif"
	tagFor       = "for"
	tagEndFor    = "endfor"
	tagWhile     = "while"
	tagEndWhile  = "endwhile"
	tagRepeat    = "repeat"
	tagEndRepeat = "endrepeat"
	tagDefine    = "define"
	tagEndDefine = "enddefine"
	tagEvaluate  = "evaluate"
	tagExport    = "export"
	tagEndExport = "endexport"
	tagImport    = "import"
	tagEndImport = "endimport"
	tagExtend    = "extend"
	tagInline    = "inline"
)

// Undefined marks a scope reference awaiting a link operation, or the
// absence of a body.
const Undefined = -1

// SyntaxKind identifies the variant of a [Syntax] instruction.
type SyntaxKind uint8

const (
	SyntaxRaw         SyntaxKind = iota // raw
	SyntaxExpression                    // expression
	SyntaxConditional                   // conditional
	SyntaxLoop                          // loop
	SyntaxWhile                         // while
	SyntaxRepeat                        // repeat
	SyntaxDefine                        // define
	SyntaxEvaluate                      // evaluate
	SyntaxExport                        // export
	SyntaxImport                        // import
	SyntaxExtend                        // extend
	SyntaxInline                        // inline
)

var syntaxKindName = [...]string{
	SyntaxRaw:         "raw",
	SyntaxExpression:  "expression",
	SyntaxConditional: "conditional",
	SyntaxLoop:        "loop",
	SyntaxWhile:       "while",
	SyntaxRepeat:      "repeat",
	SyntaxDefine:      "define",
	SyntaxEvaluate:    "evaluate",
	SyntaxExport:      "export",
	SyntaxImport:      "import",
	SyntaxExtend:      "extend",
	SyntaxInline:      "inline",
}

func (k SyntaxKind) String() string {
	if int(k) < len(syntaxKindName) {
		return syntaxKindName[k]
	}

	return "SyntaxKind(" + strconv.Itoa(int(k)) + ")"
}

// InlineMode selects how an inline site is linked.
type InlineMode uint8

const (
	InlineTemplate InlineMode = iota // leaf
	InlineRaw                        // raw
)

func (m InlineMode) String() string {
	if m == InlineRaw {
		return "raw"
	}

	return "leaf"
}

// BindingKind identifies the form of a loop binding.
type BindingKind uint8

const (
	BindDiscard BindingKind = iota // _
	BindSingle                     // value
	BindPair                       // (key, value)
)

// Binding names the variables a loop binds on each iteration.
type Binding struct {
	Key   string
	Value string
	Kind  BindingKind
}

func (b Binding) String() string {
	switch b.Kind {
	case BindSingle:
		return b.Value
	case BindPair:
		return "(" + b.Key + ", " + b.Value + ")"
	default:
		return "_"
	}
}

// Branch is one arm of a conditional. Cond is nil for the else arm.
type Branch struct {
	Cond  Expr
	Scope int
}

// Syntax is one flattened instruction. Which fields are meaningful depends
// on Kind:
//
//   - raw: Raw
//   - expression: Expr
//   - conditional: Branches
//   - loop: Binding, Expr (source), Scope (body)
//   - while, repeat: Expr (guard), Scope (body)
//   - define, export: Name, Expr (inline value) or Scope (body)
//   - evaluate: Name, Expr (fallback), Scope (linked template)
//   - import: Name, Expr (linked value) or Scope (linked or default body)
//   - extend: Name, Scope (linked template)
//   - inline: Name, Mode, Scope (linked template)
type Syntax struct {
	Expr     Expr
	Name     string
	Raw      []byte
	Branches []Branch
	Binding  Binding
	Pos      Position
	Scope    int
	Kind     SyntaxKind
	Mode     InlineMode

	// Local is set on import and evaluate sites resolved while rendering
	// from fragments registered in the same document.
	Local bool
}

// hasBody reports whether s owns a scope reference, whether or not it has
// been resolved.
func (s Syntax) hasBody() bool {
	switch s.Kind {
	case SyntaxLoop, SyntaxWhile, SyntaxRepeat, SyntaxExtend:
		return true
	case SyntaxInline:
		return s.Mode == InlineTemplate
	case SyntaxDefine, SyntaxExport, SyntaxImport, SyntaxEvaluate:
		return s.Scope != Undefined
	default:
		return false
	}
}

// clone returns a copy of s with its scope references shifted by offset.
func (s Syntax) clone(offset int) Syntax {
	if s.Scope != Undefined {
		s.Scope += offset
	}

	if s.Branches != nil {
		branches := make([]Branch, len(s.Branches))
		for i, b := range s.Branches {
			if b.Scope != Undefined {
				b.Scope += offset
			}

			branches[i] = b
		}

		s.Branches = branches
	}

	return s
}

// DependencyKind identifies what a template depends on.
type DependencyKind uint8

const (
	DependExtend   DependencyKind = iota // extend
	DependImport                         // import
	DependTemplate                       // inline
	DependRaw                            // raw
)

func (k DependencyKind) String() string {
	switch k {
	case DependExtend:
		return "extend"
	case DependImport:
		return "import"
	case DependTemplate:
		return "inline"
	default:
		return "raw"
	}
}

// Dependency is an outstanding external reference of a template.
type Dependency struct {
	Name string
	Kind DependencyKind
}

func (d Dependency) String() string {
	return d.Kind.String() + "(" + strconv.Quote(d.Name) + ")"
}
