package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/leaf/lang"
)

// Dump prints the compiled form of a template.
type Dump struct {
	Name   string `arg:"" help:"Template name resolved against the search path"                   optional:""`
	Eval   string `       help:"Dump template source given inline"                                             short:"e"`
	Format string `       help:"Output format (${enum})"                  default:"terse" enum:"terse,formatted,json,yaml,summary" short:"F"`
	Indent int    `       help:"Indent width for formatted, JSON, and YAML output" default:"2"                                  short:"i"`
	Link   bool   `       help:"Link dependencies before dumping"           default:"true" negatable:""`
	Output string `       help:"Output file or '-' for stdout"             default:"-"                                           short:"o" type:"path"`
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env := envFrom(ctx)

	ast, err := compile(ctx, env, d.Name, d.Eval, d.Link)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	switch d.Format {
	case "terse":
		err = ast.FormatTerse(ctx, &buf)
	case "formatted":
		err = ast.Format(ctx, &buf, d.Indent)
	case "json":
		err = ast.FormatJSON(ctx, &buf, d.Indent)
	case "yaml":
		err = ast.FormatYAML(ctx, &buf, d.Indent)
	case "summary":
		_, err = fmt.Fprintln(&buf, ast.Summary())
	default:
		err = ErrUnknownDump.With(slog.String("format", d.Format))
	}

	if err != nil {
		return err
	}

	return writeOutput(env.Stdout, d.Output, buf.String())
}

// Lex prints the token stream of a template.
type Lex struct {
	Name string `arg:"" help:"Template name resolved against the search path" optional:""`
	Eval string `       help:"Lex template source given inline"                         short:"e"`
}

// Run executes the lex command.
func (l *Lex) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env := envFrom(ctx)

	name, src := l.Name, l.Eval

	switch {
	case name == "" && src == "":
		return ErrNoTemplate

	case name == "":
		name = evalName

	default:
		data, err := env.Source.Open(ctx, name)
		if err != nil {
			return err
		}

		src = string(data)
	}

	toks, err := lang.Lex(ctx, name, src, env.Options()...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	for _, tok := range toks {
		fmt.Fprintf(&buf, "%s\t%s\n", tok.Pos, tok)
	}

	return writeOutput(env.Stdout, "-", buf.String())
}
