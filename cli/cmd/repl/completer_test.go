package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/leaf/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "count(fo", 8, "fo", 6, 8},
		{"after_comma", "hasPrefix(a, fo", 15, "fo", 13, 15},
		{"after_tag_mark", "#fo", 3, "fo", 1, 3},
		{"after_quote", `"fo`, 3, "fo", 1, 3},
		{"after_dollar", "$co", 3, "co", 1, 3},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"cursor_past_end", "foo", 9, "foo", 0, 3},
		{"empty_after_dot", "site.", 5, "", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"after_tag", "#(site.", 7, "site"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"word_after_chain", "a.b.c", 4, "a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	data := lang.Context(map[string]any{
		"title": "Home",
		"site": map[string]any{
			"name": "leaf",
			"nav":  map[string]any{"home": "/", "about": "/about"},
		},
	})

	funcs := lang.NewFuncs()
	if err := funcs.RegisterExpr("double", []string{"n"}, "n * 2"); err != nil {
		t.Fatalf("RegisterExpr() error = %v", err)
	}

	tests := []struct {
		name   string
		parent string
		want   []string
	}{
		{"top_level", "", []string{"site", "title", "double"}},
		{"dictionary", "site", []string{"name", "nav"}},
		{"nested", "site.nav", []string{"about", "home"}},
		{"scalar", "title", nil},
		{"missing", "nope", nil},
		{"missing_nested", "site.nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := childCandidates(data, funcs, tt.parent)
			if !slices.Equal(got, tt.want) {
				t.Errorf("childCandidates(%q) = %v, want %v", tt.parent, got, tt.want)
			}
		})
	}
}

func TestAfterTagMark(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      bool
	}{
		{"#fo", 1, true},
		{"fo", 0, false},
		{"a fo", 2, false},
		{"x#en", 2, true},
	}

	for _, tt := range tests {
		if got := afterTagMark(tt.input, tt.wordStart); got != tt.want {
			t.Errorf("afterTagMark(%q, %d) = %v, want %v",
				tt.input, tt.wordStart, got, tt.want)
		}
	}
}

func TestFormatPreview(t *testing.T) {
	tests := []struct {
		name string
		v    lang.Data
		want string
	}{
		{"string", lang.String("hi"), `"hi"`},
		{"int", lang.Int(3), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPreview(tt.v); got != tt.want {
				t.Errorf("formatPreview() = %q, want %q", got, tt.want)
			}
		})
	}

	long := make([]lang.Data, 50)
	for i := range long {
		long[i] = lang.Int(int64(i))
	}

	got := []rune(formatPreview(lang.Array(long...)))
	if len(got) != previewWidth || string(got[len(got)-3:]) != "..." {
		t.Errorf("formatPreview(long) = %q, want %d runes ending in ...",
			string(got), previewWidth)
	}
}
