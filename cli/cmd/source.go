package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/leaf/lang"
	"github.com/ardnew/leaf/log"
	"github.com/ardnew/leaf/pkg"
)

// FileSource is a [lang.Source] reading templates from a list of
// directories. A name is tried as given in each directory, then with
// [pkg.Ext] appended when it has no extension. Absolute names are read
// directly.
type FileSource struct {
	Dirs   []string
	Logger log.Logger
}

// Open implements [lang.Source].
func (s FileSource) Open(ctx context.Context, name string) ([]byte, error) {
	for _, path := range s.candidates(name) {
		data, err := readFile(path)
		if err == nil {
			s.Logger.TraceContext(ctx, "template source",
				slog.String("template", name),
				slog.String("path", path))

			return data, nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return nil, ErrReadTemplate.Wrap(err).
				With(slog.String("template", name), slog.String("path", path))
		}
	}

	return nil, lang.ErrNotFound.With(
		slog.String("template", name),
		slog.String("search_path", strings.Join(s.Dirs, string(os.PathListSeparator))),
	)
}

// candidates lists the file paths tried for name, in order.
func (s FileSource) candidates(name string) []string {
	names := []string{name}
	if filepath.Ext(name) == "" {
		names = append(names, name+pkg.Ext)
	}

	if filepath.IsAbs(name) {
		return names
	}

	paths := make([]string, 0, len(s.Dirs)*len(names))

	for _, dir := range s.Dirs {
		for _, n := range names {
			paths = append(paths, filepath.Join(dir, filepath.FromSlash(n)))
		}
	}

	return paths
}

// readFile reads a regular file through the template read-ahead buffer.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return nil, fs.ErrNotExist
	}

	return lang.ReadAll(f)
}
