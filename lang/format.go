package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the formatted re-rendering of the template to the writer.
// A positive indent replaces the default two-space nesting unit.
func (ast *AST) Format(_ context.Context, w io.Writer, indent int) error {
	out := ast.Formatted()

	if indent > 0 && indent != 2 {
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			trimmed := strings.TrimLeft(line, " ")
			depth := (len(line) - len(trimmed)) / 2
			lines[i] = strings.Repeat(" ", depth*indent) + trimmed
		}

		out = strings.Join(lines, "\n")
	}

	_, err := fmt.Fprintln(w, out)

	return err
}

// FormatTerse writes the positional instruction listing to the writer.
func (ast *AST) FormatTerse(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintln(w, ast.Terse())

	return err
}

// FormatJSON writes the AST as JSON to the writer.
func (ast *AST) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ast, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ast)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the AST as YAML to the writer.
func (ast *AST) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(
		ctx,
		ast.ToMap(),
		opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}
