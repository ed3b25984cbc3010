package lang

import (
	"slices"

	"github.com/ardnew/leaf/log"
)

// AST is a compiled template: a flattened instruction arena addressed
// through a table of scopes. Scope 0 holds the top-level instructions.
//
// An AST is modified only by [AST.Inline] and [AST.InlineRaw]. Once
// [AST.Resolved] reports true it may be serialized concurrently.
type AST struct {
	name   string
	scopes [][]Syntax
	deps   []Dependency
	logger log.Logger
	size   int
	digest uint64
}

// Name returns the name the template was parsed under.
func (ast *AST) Name() string { return ast.name }

// Size returns the estimated output size in bytes, the total length of all
// raw spans.
func (ast *AST) Size() int { return ast.size }

// Digest returns the xxh3 hash of the token stream the template was parsed
// from.
func (ast *AST) Digest() uint64 { return ast.digest }

// Scopes returns the scope table. The result must not be modified.
func (ast *AST) Scopes() [][]Syntax { return ast.scopes }

// Dependencies returns the outstanding dependencies in first-reference
// order.
func (ast *AST) Dependencies() []Dependency { return slices.Clone(ast.deps) }

// Resolved reports whether the template has no outstanding dependencies.
func (ast *AST) Resolved() bool { return len(ast.deps) == 0 }

// DependsOn reports whether name is an outstanding dependency of any kind.
func (ast *AST) DependsOn(name string) bool {
	return slices.ContainsFunc(ast.deps, func(d Dependency) bool {
		return d.Name == name
	})
}

// Clone returns a copy of ast that can be linked independently.
func (ast *AST) Clone() *AST {
	c := *ast

	c.scopes = make([][]Syntax, len(ast.scopes))
	for i, table := range ast.scopes {
		c.scopes[i] = slices.Clone(table)
	}

	c.deps = slices.Clone(ast.deps)

	return &c
}

// newTable appends an empty scope and returns its index.
func (ast *AST) newTable() int {
	ast.scopes = append(ast.scopes, []Syntax{})

	return len(ast.scopes) - 1
}

// appendSyntax appends s to table t and returns its index in t.
func (ast *AST) appendSyntax(t int, s Syntax) int {
	ast.scopes[t] = append(ast.scopes[t], s)

	return len(ast.scopes[t]) - 1
}

// collectDeps recomputes the outstanding dependencies by scanning every
// scope in table order.
func (ast *AST) collectDeps() {
	var deps []Dependency

	add := func(name string, kind DependencyKind) {
		d := Dependency{Name: name, Kind: kind}
		if !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}

	for _, table := range ast.scopes {
		for _, s := range table {
			switch s.Kind {
			case SyntaxExtend:
				if s.Scope == Undefined {
					add(s.Name, DependExtend)
				}

			case SyntaxInline:
				switch {
				case s.Mode == InlineRaw:
					add(s.Name, DependRaw)
				case s.Scope == Undefined:
					add(s.Name, DependTemplate)
				}

			case SyntaxImport, SyntaxEvaluate:
				if s.Scope == Undefined && s.Expr == nil && !s.Local {
					add(s.Name, DependImport)
				}
			}
		}
	}

	ast.deps = deps
}

// exports returns the export instructions of the first n scopes by name.
// Later exports replace earlier ones.
func (ast *AST) exports(n int) map[string]Syntax {
	out := make(map[string]Syntax)

	for _, table := range ast.scopes[:n] {
		for _, s := range table {
			if s.Kind == SyntaxExport {
				out[s.Name] = s
			}
		}
	}

	return out
}
