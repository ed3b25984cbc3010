package cmd

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestBuildSourceFiles_Dedup(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.yaml": "a: 1\n", "b.yaml": "b: 2\n"})

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	link := filepath.Join(dir, "link.yaml")

	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	srcs := buildSourceFiles([]string{
		a, link, filepath.Join(dir, ".", "a.yaml"), b, filepath.Join(dir, "missing.yaml"), dir,
	})
	if srcs == nil {
		t.Fatal("buildSourceFiles() = nil")
	}

	if srcs.Stdin() != nil {
		t.Error("stdin included without \"-\"")
	}

	var (
		names    []string
		contents []string
	)

	for name, r := range srcs.All() {
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}

		names = append(names, name)
		contents = append(contents, string(data))
	}

	if want := []string{a, b}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	if want := []string{"a: 1\n", "b: 2\n"}; !slices.Equal(contents, want) {
		t.Errorf("contents = %q, want %q", contents, want)
	}
}

func TestBuildSourceFiles_Stdin(t *testing.T) {
	srcs := buildSourceFiles([]string{"-", "-"})
	if srcs == nil || srcs.IsZero() {
		t.Fatal("stdin source dropped")
	}

	if srcs.Stdin() != os.Stdin {
		t.Error("Stdin() is not os.Stdin")
	}
}

func TestBuildSourceFiles_Empty(t *testing.T) {
	if srcs := buildSourceFiles(nil); srcs != nil {
		t.Errorf("buildSourceFiles(nil) = %v", srcs)
	}

	if srcs := buildSourceFiles([]string{filepath.Join(t.TempDir(), "none")}); srcs != nil {
		t.Errorf("unreadable only = %v", srcs)
	}
}
