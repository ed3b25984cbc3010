package cmd

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/leaf/lang"
)

// LoadData decodes each data file as a YAML (or JSON) mapping and merges
// them into one render context. Later files override keys of earlier ones.
func LoadData(ctx context.Context, files []string) (map[string]lang.Data, error) {
	merged := map[string]any{}

	err := decodeEach(ctx, files, func(name string, data []byte) error {
		var m map[string]any

		err := yaml.UnmarshalContext(ctx, data, &m)
		if err != nil {
			return ErrLoadData.Wrap(err).With(slog.String("file", name))
		}

		maps.Copy(merged, m)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return lang.Context(merged), nil
}

// funcDef is one entry of a function definition file.
type funcDef struct {
	Params []string `yaml:"params"`
	Expr   string   `yaml:"expr"`
}

// LoadFuncs returns the default functions extended with the expression
// functions defined in files. Each file maps function names to definitions:
//
//	double:
//	  params: [n]
//	  expr: n * 2
func LoadFuncs(ctx context.Context, files []string) (*lang.Funcs, error) {
	funcs := lang.DefaultFuncs()

	err := decodeEach(ctx, files, func(name string, data []byte) error {
		var defs map[string]funcDef

		err := yaml.UnmarshalContext(ctx, data, &defs)
		if err != nil {
			return ErrLoadFuncs.Wrap(err).With(slog.String("file", name))
		}

		for _, fn := range slices.Sorted(maps.Keys(defs)) {
			err := funcs.RegisterExpr(fn, defs[fn].Params, defs[fn].Expr)
			if err != nil {
				return ErrLoadFuncs.Wrap(err).With(
					slog.String("file", name),
					slog.String("function", fn),
				)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return funcs, nil
}

// decodeEach reads every unique file in files and passes its content to fn.
func decodeEach(
	ctx context.Context,
	files []string,
	fn func(name string, data []byte) error,
) error {
	srcs := buildSourceFiles(files)
	if srcs == nil {
		return nil
	}

	for name, r := range srcs.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := lang.ReadAll(r)
		if err != nil {
			return err
		}

		err = fn(name, data)
		if err != nil {
			return err
		}
	}

	return nil
}
