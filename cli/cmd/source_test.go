package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/leaf/lang"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func TestFileSource_Open(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	writeFiles(t, first, map[string]string{
		"page.leaf":     "first page",
		"partials/nav":  "nav",
		"style.css":     "css",
		"dir.leaf/keep": "",
	})
	writeFiles(t, second, map[string]string{
		"page.leaf": "second page",
		"footer":    "footer",
		"dir":       "plain dir file",
	})

	src := FileSource{Dirs: []string{first, second}}

	tests := []struct {
		name string
		want string
	}{
		{"page", "first page"},
		{"page.leaf", "first page"},
		{"partials/nav", "nav"},
		{"style.css", "css"},
		{"footer", "footer"},
		{"dir", "plain dir file"},
		{filepath.Join(second, "page.leaf"), "second page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.Open(context.Background(), tt.name)
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.name, err)
			}

			if string(got) != tt.want {
				t.Errorf("Open(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileSource_NotFound(t *testing.T) {
	src := FileSource{Dirs: []string{t.TempDir()}}

	_, err := src.Open(context.Background(), "missing")
	if !errors.Is(err, lang.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestFileSource_Candidates(t *testing.T) {
	src := FileSource{Dirs: []string{"a", "b"}}

	got := src.candidates("x")
	want := []string{
		filepath.Join("a", "x"), filepath.Join("a", "x.leaf"),
		filepath.Join("b", "x"), filepath.Join("b", "x.leaf"),
	}

	if len(got) != len(want) {
		t.Fatalf("candidates() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := src.candidates("x.html"); len(got) != 2 {
		t.Errorf("candidates(x.html) = %v, want one per dir", got)
	}
}
