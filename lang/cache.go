package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// ErrReadInput is returned when template source cannot be read.
var ErrReadInput = NewError("read input")

// Cache memoizes parsed templates keyed by name and source hash.
// It is safe for concurrent use. Each lookup returns a fresh clone, so
// callers may link the result without affecting other callers.
type Cache struct {
	entries sync.Map // string -> *entry
}

// entry is the parse result of one (name, source) pair.
type entry struct {
	once sync.Once
	ast  *AST
	err  error
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{} }

// Parse returns the parsed template for src, parsing it on first use.
func (c *Cache) Parse(
	ctx context.Context,
	name, src string,
	opts ...Option,
) (*AST, error) {
	hash := xxh3.HashString(src)
	key := name + ":" + strconv.FormatUint(hash, 36)

	value, hit := c.entries.LoadOrStore(key, new(entry))
	e, _ := value.(*entry)

	makeOptions(opts...).logger.TraceContext(ctx, "cache lookup",
		slog.String("template", name),
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.ast, e.err = ParseString(ctx, name, src, opts...)
	})

	if e.err != nil {
		return nil, e.err
	}

	return e.ast.Clone(), nil
}

// ParseReader reads src to completion and parses it through the cache.
func (c *Cache) ParseReader(
	ctx context.Context,
	name string,
	r io.Reader,
	opts ...Option,
) (*AST, error) {
	data, err := ReadAll(r)
	if err != nil {
		return nil, WrapError(err).With(slog.String("template", name))
	}

	return c.Parse(ctx, name, string(data), opts...)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}

// Clear removes all cached entries.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// ReadAll reads r to completion through an asynchronous read-ahead buffer.
func ReadAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return data, nil
}
