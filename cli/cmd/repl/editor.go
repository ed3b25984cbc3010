package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/leaf/lang"
	"github.com/ardnew/leaf/log"
)

const (
	defaultEditor = "vi"
	editIndent    = 2
)

// editDataCommand implements [tea.ExecCommand] for the data
// edit-decode-retry loop. It writes the render context as YAML to a temp
// file, opens the user's editor, and decodes the result. On decode error the
// user is prompted to re-edit; declining exits the program.
type editDataCommand struct {
	data    map[string]lang.Data
	ctxFunc func() context.Context
	result  map[string]lang.Data
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editDataCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editDataCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editDataCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An empty file cancels the edit and leaves
// result nil. If the user declines to re-edit it returns [ErrEditDeclined].
func (c *editDataCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeData(ctx, c.data)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "leaf-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		content, err = os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(content)) == "" {
			return nil
		}

		data, decodeErr := decodeData(ctx, content)
		c.logger.TraceContext(ctx, "editor decode attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", decodeErr == nil))

		if decodeErr == nil {
			c.result = data

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// encodeData renders data as a YAML mapping.
func encodeData(ctx context.Context, data map[string]lang.Data) ([]byte, error) {
	native := make(map[string]any, len(data))
	for k, v := range data {
		native[k] = v.Native()
	}

	return yaml.MarshalContext(ctx, native, yaml.Indent(editIndent))
}

// decodeData parses a YAML mapping into a render context.
func decodeData(ctx context.Context, content []byte) (map[string]lang.Data, error) {
	var native map[string]any

	if err := yaml.UnmarshalContext(ctx, content, &native); err != nil {
		return nil, err
	}

	return lang.Context(native), nil
}

// runEditor runs the user's editor on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
