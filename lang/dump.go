package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// Terse returns the positional listing of the instructions of the
// top-level scope, with each referenced scope table listed beneath its
// owner. Whitespace-only raw spans are omitted but keep their numbering.
//
//	0: for($:names):
//	   scope(table: 1)
//	     0: raw(11B)
//	     1: $:name
func (ast *AST) Terse() string {
	var sb strings.Builder

	ast.terse(&sb, 0, "")

	return strings.TrimSuffix(sb.String(), "\n")
}

func (ast *AST) terse(sb *strings.Builder, t int, indent string) {
	table := ast.scopes[t]
	width := len(strconv.Itoa(len(table) - 1))
	inner := indent + strings.Repeat(" ", width+2)

	for i, s := range table {
		if s.Kind == SyntaxRaw && len(strings.TrimSpace(string(s.Raw))) == 0 {
			continue
		}

		fmt.Fprintf(sb, "%s%*d: ", indent, width, i)

		if s.Kind == SyntaxConditional {
			for j, b := range s.Branches {
				if j > 0 {
					sb.WriteString(inner)
				}

				sb.WriteString(branchHeader(j, b))
				sb.WriteByte('\n')
				ast.terseScope(sb, b.Scope, inner)
			}

			continue
		}

		sb.WriteString(terseDesc(s))
		sb.WriteByte('\n')

		if showsScope(s) {
			ast.terseScope(sb, s.Scope, inner)
		}
	}
}

func (ast *AST) terseScope(sb *strings.Builder, t int, indent string) {
	if t == Undefined {
		sb.WriteString(indent + "scope(undefined)\n")

		return
	}

	sb.WriteString(indent + "scope(table: " + strconv.Itoa(t) + ")\n")
	ast.terse(sb, t, indent+"  ")
}

func branchHeader(i int, b Branch) string {
	switch {
	case b.Cond == nil:
		return "else():"
	case i == 0:
		return "if(" + b.Cond.String() + "):"
	default:
		return "elseif(" + b.Cond.String() + "):"
	}
}

// showsScope reports whether the terse listing prints a scope line after s.
func showsScope(s Syntax) bool {
	switch s.Kind {
	case SyntaxLoop, SyntaxWhile, SyntaxRepeat, SyntaxExtend, SyntaxImport:
		return true
	case SyntaxInline:
		return s.Mode == InlineTemplate
	case SyntaxDefine, SyntaxExport:
		return s.Expr == nil
	case SyntaxEvaluate:
		return s.Expr == nil || s.Scope != Undefined
	default:
		return false
	}
}

func terseDesc(s Syntax) string {
	name := "$:" + s.Name

	switch s.Kind {
	case SyntaxRaw:
		return "raw(" + strconv.Itoa(len(s.Raw)) + "B)"
	case SyntaxExpression:
		return s.Expr.String()
	case SyntaxLoop:
		return "for(" + s.Binding.String() + " in " + s.Expr.String() + "):"
	case SyntaxWhile:
		return "while(" + s.Expr.String() + "):"
	case SyntaxRepeat:
		return "repeat(while: " + s.Expr.String() + "):"
	case SyntaxDefine, SyntaxExport:
		if s.Expr != nil {
			return s.Kind.String() + "(" + name + ", " + s.Expr.String() + ")"
		}

		return s.Kind.String() + "(" + name + "):"
	case SyntaxEvaluate:
		if s.Expr != nil {
			return "evaluate(" + name + " ?? " + s.Expr.String() + ")"
		}

		return "evaluate(" + name + "):"
	case SyntaxImport:
		if s.Expr != nil {
			return "import(" + name + ", " + s.Expr.String() + ")"
		}

		return "import(" + name + "):"
	case SyntaxExtend:
		return "extend(string(" + s.Name + ")):"
	case SyntaxInline:
		if s.Mode == InlineRaw {
			return "inline(string(" + s.Name + "), as: raw)"
		}

		return "inline(string(" + s.Name + "), as: leaf):"
	default:
		return s.Kind.String() + ":"
	}
}

// Formatted returns an indented re-rendering of the template structure,
// one instruction per line with block bodies nested beneath their tags.
func (ast *AST) Formatted() string {
	var sb strings.Builder

	ast.formatted(&sb, 0, "")

	return strings.TrimSuffix(sb.String(), "\n")
}

func (ast *AST) formatted(sb *strings.Builder, t int, indent string) {
	line := func(s string) {
		sb.WriteString(indent)
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	block := func(open string, body int, end string) {
		line(open)

		if body != Undefined {
			ast.formatted(sb, body, indent+"  ")
		}

		if end != "" {
			line(end)
		}
	}

	for _, s := range ast.scopes[t] {
		switch s.Kind {
		case SyntaxRaw:
			line(strconv.Quote(string(s.Raw)))

		case SyntaxExpression:
			line("#(" + s.Expr.String() + ")")

		case SyntaxConditional:
			for i, b := range s.Branches {
				line("#" + branchHeader(i, b))
				ast.formatted(sb, b.Scope, indent+"  ")
			}

			line("#" + tagEndIf)

		case SyntaxLoop:
			block("#for("+s.Binding.String()+" in "+s.Expr.String()+"):",
				s.Scope, "#"+tagEndFor)

		case SyntaxWhile:
			block("#while("+s.Expr.String()+"):", s.Scope, "#"+tagEndWhile)

		case SyntaxRepeat:
			block("#repeat(while: "+s.Expr.String()+"):", s.Scope, "#"+tagEndRepeat)

		case SyntaxDefine, SyntaxExport:
			tag := s.Kind.String()
			if s.Expr != nil {
				line("#" + tag + "(" + s.Name + ", " + s.Expr.String() + ")")

				continue
			}

			block("#"+tag+"("+s.Name+"):", s.Scope, "#end"+tag)

		case SyntaxEvaluate:
			arg := s.Name
			if s.Expr != nil {
				arg += " ?? " + s.Expr.String()
			}

			block("#evaluate("+arg+")", s.Scope, "")

		case SyntaxImport:
			if s.Expr != nil {
				line("#import(" + s.Name + ") = " + s.Expr.String())

				continue
			}

			if s.Scope == Undefined {
				line("#import(" + s.Name + ")")

				continue
			}

			block("#import("+s.Name+"):", s.Scope, "#"+tagEndImport)

		case SyntaxExtend:
			block("#extend("+strconv.Quote(s.Name)+")", s.Scope, "")

		case SyntaxInline:
			block("#inline("+strconv.Quote(s.Name)+", as: "+s.Mode.String()+")",
				s.Scope, "")
		}
	}
}

// Summary returns a short human-readable description of the template.
func (ast *AST) Summary() string {
	deps := "none"

	if len(ast.deps) > 0 {
		part := make([]string, len(ast.deps))
		for i, d := range ast.deps {
			part[i] = d.String()
		}

		deps = strings.Join(part, ", ")
	}

	count := 0
	for _, table := range ast.scopes {
		count += len(table)
	}

	return fmt.Sprintf(
		"name: %s\ninstructions: %d\nscopes: %d\ndependencies: %s\nsize: %d\ndigest: %016x",
		ast.name, count, len(ast.scopes), deps, ast.size, ast.digest,
	)
}
