package lang

import (
	"github.com/ardnew/leaf/log"
)

const (
	// DefaultMaxIterations bounds the number of iterations a single loop
	// may run during serialization.
	DefaultMaxIterations = 1 << 20

	// DefaultMaxDepth bounds how deeply block bodies may nest while
	// serializing.
	DefaultMaxDepth = 512
)

// options holds configuration shared by the lexer, parser, linker, and
// serializer.
type options struct {
	logger        log.Logger
	funcs         *Funcs
	scopes        map[string]Data
	maxIterations int
	maxDepth      int
}

// Option configures lexing, parsing, or serialization behavior.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFuncs sets the function registry used by the serializer.
// If not provided, [DefaultFuncs] is used.
func WithFuncs(funcs *Funcs) Option {
	return func(o *options) {
		o.funcs = funcs
	}
}

// WithScope binds an external scope referenced in templates as $name.
// The scope "context" always refers to the serialization context.
func WithScope(name string, value Data) Option {
	return func(o *options) {
		if o.scopes == nil {
			o.scopes = make(map[string]Data)
		}

		o.scopes[name] = value
	}
}

// WithMaxIterations sets the iteration limit for each loop.
// Non-positive values restore [DefaultMaxIterations].
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithMaxDepth sets the nesting limit for bodies entered while serializing.
// A fragment that evaluates or imports itself fails once the limit is
// reached. Non-positive values restore [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	if o.maxIterations <= 0 {
		o.maxIterations = DefaultMaxIterations
	}

	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}

	return o
}
