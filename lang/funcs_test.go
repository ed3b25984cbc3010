package lang

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestFuncs_Builtins(t *testing.T) {
	f := DefaultFuncs()

	tests := []struct {
		name string
		args []Data
		want Data
	}{
		{name: "count", args: []Data{Array(Int(1), Int(2))}, want: Int(2)},
		{name: "count", args: []Data{String("héllo")}, want: Int(5)},
		{name: "count", args: []Data{Dictionary(nil)}, want: Int(0)},
		{name: "lowercased", args: []Data{String("LeAf")}, want: String("leaf")},
		{name: "uppercased", args: []Data{String("LeAf")}, want: String("LEAF")},
		{name: "hasPrefix", args: []Data{String("leaf"), String("le")}, want: Bool(true)},
		{name: "hasPrefix", args: []Data{String("leaf"), String("af")}, want: Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Call(tt.name, tt.args)
			if err != nil {
				t.Fatalf("call: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Literal(), tt.want.Literal())
			}
		})
	}
}

func TestFuncs_Validation(t *testing.T) {
	f := DefaultFuncs()

	tests := []struct {
		name string
		fn   string
		args []Data
		want *Error
	}{
		{name: "unknown", fn: "missing", want: ErrUnknownFunction},
		{name: "too few", fn: "hasPrefix", args: []Data{String("a")}, want: ErrArity},
		{name: "too many", fn: "count", args: []Data{String("a"), String("b")}, want: ErrArity},
		{name: "wrong kind", fn: "lowercased", args: []Data{Int(1)}, want: ErrArgumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Call(tt.fn, tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFuncs_Register(t *testing.T) {
	f := NewFuncs()

	join := Function{
		Name:     "join",
		Params:   []Kinds{KindsOf(KindString), AnyKind},
		Variadic: true,
		Call: func(args []Data) (Data, error) {
			sep, _ := args[0].AsString()

			parts := make([]string, len(args)-1)
			for i, a := range args[1:] {
				parts[i] = a.String()
			}

			return String(strings.Join(parts, sep)), nil
		},
	}

	if err := f.Register(join); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := f.Call("join", []Data{String("-"), Int(1), String("a"), Bool(true)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}

	if s, _ := got.AsString(); s != "1-a-true" {
		t.Errorf("got %q, want %q", s, "1-a-true")
	}

	if _, err := f.Call("join", nil); !errors.Is(err, ErrArity) {
		t.Errorf("got %v, want %v", err, ErrArity)
	}

	if err := f.Register(Function{Name: "bad"}); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("got %v, want %v", err, ErrInvalidFunction)
	}

	if !slices.Equal(f.Names(), []string{"join"}) {
		t.Errorf("Names() = %v", f.Names())
	}
}

func TestFuncs_DefaultIsolation(t *testing.T) {
	a := DefaultFuncs()

	err := a.Register(Function{
		Name:   "extra",
		Params: []Kinds{AnyKind},
		Call:   func(args []Data) (Data, error) { return args[0], nil },
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := DefaultFuncs().Lookup("extra"); ok {
		t.Error("registration leaked into the default registry")
	}
}

func TestFuncs_RegisterExpr(t *testing.T) {
	f := NewFuncs()

	tests := []struct {
		name   string
		params []string
		source string
		args   []Data
		want   Data
	}{
		{
			name:   "double",
			params: []string{"n"},
			source: "n * 2",
			args:   []Data{Int(21)},
			want:   Int(42),
		},
		{
			name:   "greet",
			params: []string{"who"},
			source: `"hello, " + who`,
			args:   []Data{String("leaf")},
			want:   String("hello, leaf"),
		},
		{
			name:   "total",
			params: []string{"xs"},
			source: "sum(xs)",
			args:   []Data{Array(Int(1), Int(2), Int(3))},
			want:   Int(6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.RegisterExpr(tt.name, tt.params, tt.source); err != nil {
				t.Fatalf("register: %v", err)
			}

			got, err := f.Call(tt.name, tt.args)
			if err != nil {
				t.Fatalf("call: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Literal(), tt.want.Literal())
			}
		})
	}

	if err := f.RegisterExpr("broken", nil, "1 +"); !errors.Is(err, ErrInvalidFunction) {
		t.Errorf("got %v, want %v", err, ErrInvalidFunction)
	}
}

func TestSerialize_ExprFunction(t *testing.T) {
	f := DefaultFuncs()

	if err := f.RegisterExpr("double", []string{"n"}, "n * 2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ast := mustParse(t, "page", "#double(21) #(x.double())")

	got := render(t, ast, map[string]any{"x": 5}, WithFuncs(f))
	if got != "42 10" {
		t.Errorf("got %q, want %q", got, "42 10")
	}
}
