package lang

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"slices"
)

// Inline splices other into ast, resolving every extend, import, evaluate,
// and template inline site that names other.
//
// Inline is a no-op if ast does not depend on other as a template. It
// fails without modifying ast if other is nil, if linking would form a
// cycle, or if ast only references other as raw content.
func (ast *AST) Inline(ctx context.Context, other *AST) error {
	if other == nil {
		return ErrUnresolvedDependency.With(slog.String("template", ast.name))
	}

	name := other.name

	if other == ast || name == ast.name {
		return ErrLinkCycle.With(slog.String("template", name))
	}

	var asTemplate, asRaw bool

	for _, d := range ast.deps {
		if d.Name != name {
			continue
		}

		if d.Kind == DependRaw {
			asRaw = true
		} else {
			asTemplate = true
		}
	}

	if !asTemplate {
		if asRaw {
			return ErrLinkKind.With(
				slog.String("template", ast.name),
				slog.String("dependency", name),
				slog.String("expected", DependRaw.String()),
			)
		}

		return nil
	}

	if other.DependsOn(ast.name) {
		return ErrLinkCycle.With(
			slog.String("template", ast.name),
			slog.String("dependency", name),
		)
	}

	offset := len(ast.scopes)
	sites := 0

	for t := range ast.scopes {
		for i := range ast.scopes[t] {
			s := &ast.scopes[t][i]
			if s.Name != name || s.Scope != Undefined {
				continue
			}

			switch s.Kind {
			case SyntaxExtend:
			case SyntaxInline:
				if s.Mode != InlineTemplate {
					continue
				}
			case SyntaxImport, SyntaxEvaluate:
				if s.Expr != nil || s.Local {
					continue
				}
			default:
				continue
			}

			s.Scope = offset
			sites++
		}
	}

	for _, table := range other.scopes {
		cloned := make([]Syntax, len(table))
		for i, s := range table {
			cloned[i] = s.clone(offset)
			if s.Raw != nil {
				cloned[i].Raw = bytes.Clone(s.Raw)
			}
		}

		ast.scopes = append(ast.scopes, cloned)
	}

	// Imports inside the spliced template take their values from exports
	// of the importing document. Those with no matching export are left to
	// fragments registered while rendering.
	exports := ast.exports(offset)

	for t := offset; t < len(ast.scopes); t++ {
		for i := range ast.scopes[t] {
			s := &ast.scopes[t][i]
			if s.Kind != SyntaxImport || s.Scope != Undefined ||
				s.Expr != nil || s.Local {
				continue
			}

			if e, ok := exports[s.Name]; ok {
				s.Expr, s.Scope = e.Expr, e.Scope
			} else {
				s.Local = true
			}
		}
	}

	ast.size += other.size * sites
	ast.collectDeps()

	ast.logger.TraceContext(ctx, "inline template",
		slog.String("template", ast.name),
		slog.String("dependency", name),
		slog.Int("sites", sites),
		slog.Int("scope_offset", offset),
		slog.Int("dependency_count", len(ast.deps)))

	return nil
}

// InlineRaw replaces each raw inline site named in files with the file
// content. Names ast does not depend on are ignored.
//
// InlineRaw fails without modifying ast if any name in files is referenced
// only as a template.
func (ast *AST) InlineRaw(ctx context.Context, files map[string][]byte) error {
	names := slices.Sorted(maps.Keys(files))

	for _, name := range names {
		var asTemplate, asRaw bool

		for _, d := range ast.deps {
			if d.Name != name {
				continue
			}

			if d.Kind == DependRaw {
				asRaw = true
			} else {
				asTemplate = true
			}
		}

		if asTemplate && !asRaw {
			return ErrLinkKind.With(
				slog.String("template", ast.name),
				slog.String("dependency", name),
				slog.String("expected", DependTemplate.String()),
			)
		}
	}

	sites := 0

	for t := range ast.scopes {
		for i := range ast.scopes[t] {
			s := &ast.scopes[t][i]
			if s.Kind != SyntaxInline || s.Mode != InlineRaw {
				continue
			}

			content, ok := files[s.Name]
			if !ok {
				continue
			}

			*s = Syntax{
				Kind:  SyntaxRaw,
				Raw:   bytes.Clone(content),
				Pos:   s.Pos,
				Scope: Undefined,
			}

			ast.size += len(content)
			sites++
		}
	}

	ast.collectDeps()

	ast.logger.TraceContext(ctx, "inline raw",
		slog.String("template", ast.name),
		slog.Int("sites", sites),
		slog.Int("dependency_count", len(ast.deps)))

	return nil
}
