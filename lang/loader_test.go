package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	src := Sources{
		"page": `#export(title, "Home")#export(body):#inline("nav")<p>#(msg)</p>#endexport#extend("layout")`,
		"layout": "<title>#import(title)</title>#inline(\"style.css\", as: raw)" +
			"#import(body)#import(footer):(c)#endimport",
		"nav":       `<nav>#for(l in links):#(l)#endfor</nav>`,
		"style.css": "<style/>",
	}

	ast, err := NewLoader(src, nil).Load(context.Background(), "page")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !ast.Resolved() {
		t.Fatalf("unresolved: %v", ast.Dependencies())
	}

	got := render(t, ast, map[string]any{"msg": "hi", "links": []any{"a", "b"}})

	want := "<title>Home</title><style/><nav>ab</nav><p>hi</p>(c)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  Sources
		want *Error
	}{
		{
			name: "missing template",
			src:  Sources{"page": `#extend("nope")`},
			want: ErrNotFound,
		},
		{
			name: "cycle",
			src: Sources{
				"page": `#inline("a")`,
				"a":    `#inline("b")`,
				"b":    `#extend("a")`,
			},
			want: ErrLinkCycle,
		},
		{
			name: "parse error",
			src:  Sources{"page": `#inline("a")`, "a": "#if(x):"},
			want: ErrMissingClose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.src, nil).Load(context.Background(), "page")
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoader_SharedCache(t *testing.T) {
	cache := NewCache()
	src := Sources{"page": `#inline("part")`, "part": "x"}

	for range 3 {
		ast, err := NewLoader(src, cache).Load(context.Background(), "page")
		if err != nil {
			t.Fatalf("load: %v", err)
		}

		if got := render(t, ast, nil); got != "x" {
			t.Errorf("got %q, want %q", got, "x")
		}
	}

	if cache.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", cache.Len())
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("cache holds %d entries after Clear", cache.Len())
	}
}

func TestCache_ParseReader(t *testing.T) {
	cache := NewCache()

	a, err := cache.ParseReader(context.Background(), "r", strings.NewReader("#(x)"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	b, err := cache.Parse(context.Background(), "r", "#(x)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if a == b || a.Digest() != b.Digest() {
		t.Errorf("cache should return distinct clones of the same template")
	}

	if cache.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", cache.Len())
	}
}

func TestRender(t *testing.T) {
	got, err := Render(context.Background(),
		Sources{"hello": "Hello, #(name.uppercased())!"},
		"hello", map[string]any{"name": "leaf"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if got != "Hello, LEAF!" {
		t.Errorf("got %q, want %q", got, "Hello, LEAF!")
	}
}
