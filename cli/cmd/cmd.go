package cmd

import (
	"context"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/alecthomas/kong"
)

type kongKey struct{}

// WithContext returns ctx carrying the parsed command line, which commands
// such as init and repl use to reach the kong model.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}

type (
	envKey      struct{}
	sourceFiles struct {
		read     []io.Reader
		names    []string
		hasStdin bool
	}

	// SourceFiles is a deduplicated list of input files, with standard input
	// last when requested.
	SourceFiles interface {
		IsZero() bool
		Stdin() io.Reader
		All() iter.Seq2[string, io.Reader]
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.read) == 0 && !s.hasStdin }

// Stdin returns os.Stdin if stdin was included as a source, or nil otherwise.
func (s *sourceFiles) Stdin() io.Reader {
	if s.hasStdin {
		return os.Stdin
	}

	return nil
}

// All yields each source by name in order, stdin last. Files are closed once
// the caller advances past them, or all at once when the caller stops early.
func (s *sourceFiles) All() iter.Seq2[string, io.Reader] {
	return func(yield func(string, io.Reader) bool) {
		for i, r := range s.read {
			ok := yield(s.names[i], r)
			closeReader(r)

			if !ok {
				for _, rest := range s.read[i+1:] {
					closeReader(rest)
				}

				return
			}
		}

		if s.hasStdin {
			yield(stdinSource, os.Stdin)
		}
	}
}

func closeReader(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

// stdinSource names standard input among data sources.
const stdinSource = "-"

// buildSourceFiles opens each named source once. Paths naming the same file,
// through symlinks or relative paths, are opened only the first time. Every
// "-", and any path naming the file behind standard input, collapses into a
// single stdin source read after all others. Unreadable paths are skipped.
func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var (
		srcs sourceFiles
		seen []os.FileInfo
	)

	stdin, _ := os.Stdin.Stat()

	for _, src := range sources {
		if src == stdinSource {
			srcs.hasStdin = true

			continue
		}

		info, err := os.Stat(src)
		if err != nil || info.IsDir() {
			continue
		}

		if stdin != nil && os.SameFile(info, stdin) {
			srcs.hasStdin = true

			continue
		}

		if slices.ContainsFunc(seen, func(fi os.FileInfo) bool {
			return os.SameFile(fi, info)
		}) {
			continue
		}

		file, err := os.Open(src)
		if err != nil {
			continue
		}

		seen = append(seen, info)
		srcs.read = append(srcs.read, file)
		srcs.names = append(srcs.names, src)
	}

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// WithEnv returns a new context.Context carrying env for command handlers.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// envFrom retrieves the Env stored by WithEnv, or an empty Env reading
// templates from the working directory.
func envFrom(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok && env != nil {
		return env
	}

	return NewEnv()
}
