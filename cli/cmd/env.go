package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ardnew/mung"

	"github.com/ardnew/leaf/lang"
	"github.com/ardnew/leaf/log"
	"github.com/ardnew/leaf/pkg"
)

// Env holds the state shared by every command: where templates come from,
// the data they render against, and the functions they may call.
type Env struct {
	Source        lang.Source
	Cache         *lang.Cache
	Funcs         *lang.Funcs
	Data          map[string]lang.Data
	Logger        log.Logger
	MaxIterations int
	MaxDepth      int
	Stdout        io.Writer
}

// NewEnv returns an Env reading templates from the working directory with
// the default functions and no data.
func NewEnv() *Env {
	return &Env{
		Source: FileSource{Dirs: []string{"."}},
		Cache:  lang.NewCache(),
		Funcs:  lang.DefaultFuncs(),
		Data:   map[string]lang.Data{},
		Stdout: os.Stdout,
	}
}

// Options returns the compiler options configured by env.
func (e *Env) Options() []lang.Option {
	opts := []lang.Option{
		lang.WithLogger(e.Logger),
		lang.WithFuncs(e.Funcs),
	}

	if e.MaxIterations > 0 {
		opts = append(opts, lang.WithMaxIterations(e.MaxIterations))
	}

	if e.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(e.MaxDepth))
	}

	return opts
}

// Loader returns a template loader over env's source and cache.
func (e *Env) Loader() *lang.Loader {
	return lang.NewLoader(e.Source, e.Cache, e.Options()...)
}

// Load parses and links the named template.
func (e *Env) Load(ctx context.Context, name string) (*lang.AST, error) {
	return e.Loader().Load(ctx, name)
}

// Compile parses src as a template called name and links its dependencies.
func (e *Env) Compile(ctx context.Context, name, src string) (*lang.AST, error) {
	ast, err := e.Cache.Parse(ctx, name, src, e.Options()...)
	if err != nil {
		return nil, err
	}

	err = e.Loader().Link(ctx, ast)
	if err != nil {
		return nil, err
	}

	return ast, nil
}

// Render serializes ast against env's data.
func (e *Env) Render(ctx context.Context, ast *lang.AST) (string, error) {
	var buf bytes.Buffer

	elapsed, err := lang.NewSerializer(ast, e.Data, e.Options()...).
		Serialize(ctx, &buf)
	if err != nil {
		return "", err
	}

	e.Logger.DebugContext(ctx, "render complete",
		slog.String("template", ast.Name()),
		slog.Int("bytes", buf.Len()),
		slog.Duration("elapsed", elapsed.Round(time.Microsecond)))

	return buf.String(), nil
}

// SearchPath returns the template search directories: dirs first, then the
// entries of [pkg.PathEnv], keeping only existing directories without
// duplicates. The working directory is used when nothing remains.
func SearchPath(dirs ...string) []string {
	joined := mung.Make(
		mung.WithSubjectItems(os.Getenv(pkg.PathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	var path []string

	for _, dir := range filepath.SplitList(joined) {
		if dir != "" && !slices.Contains(path, dir) {
			path = append(path, dir)
		}
	}

	if len(path) == 0 {
		return []string{"."}
	}

	return path
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// Context returns the render context.
func (e *Env) Context() map[string]lang.Data { return e.Data }

// SetContext replaces the render context.
func (e *Env) SetContext(data map[string]lang.Data) { e.Data = data }

// Functions returns the function registry.
func (e *Env) Functions() *lang.Funcs { return e.Funcs }
