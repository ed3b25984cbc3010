package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/leaf/lang"
)

// evalName names templates given inline with --eval.
const evalName = "<eval>"

// Render renders a template against the loaded data.
type Render struct {
	Name   string `arg:""  help:"Template name resolved against the search path" optional:""`
	Eval   string `        help:"Render template source given inline"                         short:"e"`
	Output string `        help:"Output file or '-' for stdout"                 default:"-"   short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env := envFrom(ctx)

	ast, err := compile(ctx, env, r.Name, r.Eval, true)
	if err != nil {
		return err
	}

	out, err := env.Render(ctx, ast)
	if err != nil {
		return err
	}

	return writeOutput(env.Stdout, r.Output, out)
}

// compile returns the named template, or src when name is empty, optionally
// linked against the search path.
func compile(
	ctx context.Context,
	env *Env,
	name, src string,
	link bool,
) (*lang.AST, error) {
	switch {
	case name == "" && src == "":
		return nil, ErrNoTemplate

	case name == "":
		name = evalName

	default:
		data, err := env.Source.Open(ctx, name)
		if err != nil {
			return nil, err
		}

		src = string(data)
	}

	if link {
		return env.Compile(ctx, name, src)
	}

	return env.Cache.Parse(ctx, name, src, env.Options()...)
}

// writeOutput writes s to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path, s string) error {
	if path == "" || path == stdinSource {
		_, err := io.WriteString(stdout, s)
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	err := os.WriteFile(path, []byte(s), 0o644) //nolint:gosec
	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	return nil
}
