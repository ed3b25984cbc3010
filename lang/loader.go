package lang

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
)

// ErrNotFound is returned by a [Source] that has no template of the
// requested name.
var ErrNotFound = NewError("template not found")

// Source provides raw template content by name.
type Source interface {
	Open(ctx context.Context, name string) ([]byte, error)
}

// Sources is an in-memory [Source].
type Sources map[string]string

// Open returns the content stored under name.
func (s Sources) Open(_ context.Context, name string) ([]byte, error) {
	src, ok := s[name]
	if !ok {
		return nil, ErrNotFound.With(slog.String("template", name))
	}

	return []byte(src), nil
}

// Loader parses templates from a [Source] and links their extend, inline,
// import, and evaluate dependencies recursively.
type Loader struct {
	source Source
	cache  *Cache
	opts   []Option
}

// NewLoader returns a Loader reading from source. Parsed templates are
// memoized in cache, which may be shared between loaders.
func NewLoader(source Source, cache *Cache, opts ...Option) *Loader {
	if cache == nil {
		cache = NewCache()
	}

	return &Loader{source: source, cache: cache, opts: opts}
}

// Load parses the named template and links every dependency the source
// can provide. Import dependencies are satisfied only by linking into an
// extending template, so a template that imports names it does not
// export is returned unresolved.
func (l *Loader) Load(ctx context.Context, name string) (*AST, error) {
	return l.load(ctx, name, []string{name}, map[string]*AST{})
}

func (l *Loader) load(
	ctx context.Context,
	name string,
	chain []string,
	done map[string]*AST,
) (*AST, error) {
	src, err := l.source.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	ast, err := l.cache.Parse(ctx, name, string(src), l.opts...)
	if err != nil {
		return nil, err
	}

	err = l.link(ctx, ast, chain, done)
	if err != nil {
		return nil, err
	}

	done[name] = ast

	return ast, nil
}

// Link resolves the dependencies of ast from the source.
func (l *Loader) Link(ctx context.Context, ast *AST) error {
	return l.link(ctx, ast, []string{ast.Name()}, map[string]*AST{})
}

func (l *Loader) link(
	ctx context.Context,
	ast *AST,
	chain []string,
	done map[string]*AST,
) error {
	for _, d := range ast.Dependencies() {
		switch d.Kind {
		case DependImport:
			continue

		case DependRaw:
			content, err := l.source.Open(ctx, d.Name)
			if err != nil {
				return err
			}

			err = ast.InlineRaw(ctx, map[string][]byte{d.Name: content})
			if err != nil {
				return err
			}

		default:
			other, ok := done[d.Name]
			if !ok {
				next := append(slices.Clip(chain), d.Name)

				if slices.Contains(chain, d.Name) {
					return ErrLinkCycle.With(
						slog.String("template", ast.Name()),
						slog.String("chain", strings.Join(next, " -> ")),
					)
				}

				var err error

				other, err = l.load(ctx, d.Name, next, done)
				if err != nil {
					return err
				}
			}

			err := ast.Inline(ctx, other)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Render loads the named template from source and serializes it against
// data.
func Render(
	ctx context.Context,
	source Source,
	name string,
	data map[string]any,
	opts ...Option,
) (string, error) {
	ast, err := NewLoader(source, nil, opts...).Load(ctx, name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	_, err = NewSerializer(ast, Context(data), opts...).Serialize(ctx, &buf)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
