package lang

import (
	"encoding/json"
	"strconv"
)

// MarshalJSON implements json.Marshaler for AST.
func (ast *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(ast.ToMap())
}

// ToMap converts the AST to a native Go map structure.
func (ast *AST) ToMap() map[string]any {
	deps := make([]any, len(ast.deps))
	for i, d := range ast.deps {
		deps[i] = map[string]any{
			"name": d.Name,
			"kind": d.Kind.String(),
		}
	}

	scopes := make([]any, len(ast.scopes))
	for i, table := range ast.scopes {
		list := make([]any, len(table))
		for j, s := range table {
			list[j] = s.ToMap()
		}

		scopes[i] = list
	}

	return map[string]any{
		"name":         ast.name,
		"size":         ast.size,
		"digest":       strconv.FormatUint(ast.digest, 16),
		"resolved":     ast.Resolved(),
		"dependencies": deps,
		"scopes":       scopes,
	}
}

// ToMap converts an instruction to a native Go map holding only the fields
// meaningful for its kind.
func (s Syntax) ToMap() map[string]any {
	m := map[string]any{"kind": s.Kind.String()}

	if !s.Pos.IsZero() {
		m["pos"] = s.Pos.String()
	}

	if s.Kind == SyntaxRaw {
		m["raw"] = string(s.Raw)

		return m
	}

	if s.Expr != nil {
		m["expr"] = s.Expr.String()
	}

	if s.Name != "" {
		m["name"] = s.Name
	}

	switch s.Kind {
	case SyntaxConditional:
		branches := make([]any, len(s.Branches))
		for i, b := range s.Branches {
			branch := map[string]any{"scope": b.Scope}
			if b.Cond != nil {
				branch["cond"] = b.Cond.String()
			}

			branches[i] = branch
		}

		m["branches"] = branches

	case SyntaxLoop:
		m["binding"] = s.Binding.String()

	case SyntaxInline:
		m["mode"] = s.Mode.String()
	}

	if s.Kind != SyntaxConditional && s.Kind != SyntaxExpression {
		m["scope"] = s.Scope
	}

	return m
}
