package lang

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Function registry errors.
var (
	ErrUnknownFunction = NewError("unknown function")
	ErrArity           = NewError("wrong number of arguments")
	ErrArgumentType    = NewError("invalid argument type")
	ErrInvalidFunction = NewError("invalid function")
)

// Kinds is a set of [DataKind] values accepted by a function parameter.
type Kinds uint16

// Common parameter constraints.
const (
	AnyKind        Kinds = 1<<(KindDictionary+1) - 1
	CollectionKind Kinds = 1<<KindArray | 1<<KindDictionary
	CountableKind  Kinds = CollectionKind | 1<<KindString
	NumericKind    Kinds = 1<<KindInt | 1<<KindFloat
)

// KindsOf returns the set holding each of kinds.
func KindsOf(kinds ...DataKind) Kinds {
	var k Kinds
	for _, kind := range kinds {
		k |= 1 << kind
	}

	return k
}

// Has reports whether kind is in k.
func (k Kinds) Has(kind DataKind) bool { return k&(1<<kind) != 0 }

func (k Kinds) String() string {
	var names []string

	for kind := KindNil; kind <= KindDictionary; kind++ {
		if k.Has(kind) {
			names = append(names, kind.String())
		}
	}

	return strings.Join(names, "|")
}

// Function is a named callable with declared parameter constraints.
//
// Params constrains each positional argument. If Variadic is set, the last
// constraint applies to every argument at or beyond its position and the
// argument may be omitted.
type Function struct {
	Call     func(args []Data) (Data, error)
	Name     string
	Params   []Kinds
	Variadic bool
}

// check validates args against the declared parameters.
func (f Function) check(args []Data) error {
	n := len(f.Params)

	if f.Variadic {
		if len(args) < n-1 {
			return ErrArity.With(
				slog.String("function", f.Name),
				slog.Int("min", n-1),
				slog.Int("got", len(args)),
			)
		}
	} else if len(args) != n {
		return ErrArity.With(
			slog.String("function", f.Name),
			slog.Int("want", n),
			slog.Int("got", len(args)),
		)
	}

	for i, arg := range args {
		want := f.Params[min(i, n-1)]
		if !want.Has(arg.Kind()) {
			return ErrArgumentType.With(
				slog.String("function", f.Name),
				slog.Int("argument", i),
				slog.String("want", want.String()),
				slog.String("got", arg.Kind().String()),
			)
		}
	}

	return nil
}

// Funcs is a function registry. It is safe for concurrent use; lookups
// during serialization see a consistent snapshot of each function.
type Funcs struct {
	mu  sync.RWMutex
	fns map[string]Function
}

// NewFuncs returns an empty registry.
func NewFuncs() *Funcs {
	return &Funcs{fns: make(map[string]Function)}
}

var defaultFuncs = sync.OnceValue(func() *Funcs {
	f := NewFuncs()

	for _, fn := range builtins() {
		_ = f.Register(fn)
	}

	return f
})

// DefaultFuncs returns a registry holding a fresh copy of the built-in
// functions: count, lowercased, uppercased, and hasPrefix.
func DefaultFuncs() *Funcs {
	d := defaultFuncs()

	d.mu.RLock()
	defer d.mu.RUnlock()

	return &Funcs{fns: maps.Clone(d.fns)}
}

func builtins() []Function {
	return []Function{
		{
			Name:   "count",
			Params: []Kinds{CountableKind},
			Call: func(args []Data) (Data, error) {
				n, _ := args[0].Len()

				return Int(int64(n)), nil
			},
		},
		{
			Name:   "lowercased",
			Params: []Kinds{KindsOf(KindString)},
			Call: func(args []Data) (Data, error) {
				s, _ := args[0].AsString()

				return String(strings.ToLower(s)), nil
			},
		},
		{
			Name:   "uppercased",
			Params: []Kinds{KindsOf(KindString)},
			Call: func(args []Data) (Data, error) {
				s, _ := args[0].AsString()

				return String(strings.ToUpper(s)), nil
			},
		},
		{
			Name:   "hasPrefix",
			Params: []Kinds{KindsOf(KindString), KindsOf(KindString)},
			Call: func(args []Data) (Data, error) {
				s, _ := args[0].AsString()
				p, _ := args[1].AsString()

				return Bool(strings.HasPrefix(s, p)), nil
			},
		},
	}
}

// Register adds fn to the registry, replacing any function of the same
// name.
func (f *Funcs) Register(fn Function) error {
	if fn.Name == "" || fn.Call == nil {
		return ErrInvalidFunction.With(slog.String("function", fn.Name))
	}

	if fn.Variadic && len(fn.Params) == 0 {
		return ErrInvalidFunction.With(
			slog.String("function", fn.Name),
			slog.String("reason", "variadic function without parameters"),
		)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.fns[fn.Name] = fn

	return nil
}

// RegisterExpr registers a function implemented by an expr-lang
// expression. Each argument is bound to the corresponding name in params,
// and the full argument list is bound to "args".
func (f *Funcs) RegisterExpr(name string, params []string, source string) error {
	env := map[string]any{"args": []any{}}
	for _, p := range params {
		env[p] = any(nil)
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return ErrInvalidFunction.Wrap(err).
			With(slog.String("function", name), slog.String("source", source))
	}

	kinds := make([]Kinds, len(params))
	for i := range kinds {
		kinds[i] = AnyKind
	}

	return f.Register(Function{
		Name:   name,
		Params: kinds,
		Call: func(args []Data) (Data, error) {
			run := make(map[string]any, len(params)+1)
			all := make([]any, len(args))

			for i, arg := range args {
				all[i] = arg.Native()
				run[params[i]] = all[i]
			}

			run["args"] = all

			result, err := vm.Run(program, run)
			if err != nil {
				return Nil(), err
			}

			return FromNative(result), nil
		},
	})
}

// Lookup returns the function registered under name.
func (f *Funcs) Lookup(name string) (Function, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fn, ok := f.fns[name]

	return fn, ok
}

// Call validates args and invokes the function registered under name.
func (f *Funcs) Call(name string, args []Data) (Data, error) {
	fn, ok := f.Lookup(name)
	if !ok {
		return Nil(), ErrUnknownFunction.With(slog.String("function", name))
	}

	err := fn.check(args)
	if err != nil {
		return Nil(), err
	}

	return fn.Call(args)
}

// Names returns the registered function names in sorted order.
func (f *Funcs) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return slices.Sorted(maps.Keys(f.fns))
}
