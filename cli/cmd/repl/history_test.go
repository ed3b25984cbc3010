package repl

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}

	for _, e := range []HistoryEntry{
		{Line: "title", Mode: modeEval},
		{Line: "list", Mode: modeCtrl},
		{Line: "  ", Mode: modeEval},
		{Line: "list", Mode: modeCtrl},
		{Line: "#(x)", Mode: modeEval},
	} {
		if _, err := h.WriteWithMode(e.Line, e.Mode); err != nil {
			t.Fatalf("WriteWithMode(%q) error = %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{Line: "title", Mode: modeEval},
		{Line: "list", Mode: modeCtrl},
		{Line: "#(x)", Mode: modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded Entries() = %v, want %v", got, want)
	}
}

func TestHistory_MovesDuplicateToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a", "b", "a"} {
		if _, err := h.WriteWithMode(line, modeEval); err != nil {
			t.Fatalf("WriteWithMode(%q) error = %v", line, err)
		}
	}

	// Same line in another mode is distinct.
	if _, err := h.WriteWithMode("a", modeCtrl); err != nil {
		t.Fatalf("WriteWithMode() error = %v", err)
	}

	want := []HistoryEntry{
		{Line: "b", Mode: modeEval},
		{Line: "a", Mode: modeEval},
		{Line: "a", Mode: modeCtrl},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if got, want := string(data), "E:b\nE:a\nC:a\n"; got != want {
		t.Errorf("history file = %q, want %q", got, want)
	}
}

func TestHistory_GetEntry(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))
	if _, err := h.WriteWithMode("x", modeEval); err != nil {
		t.Fatalf("WriteWithMode() error = %v", err)
	}

	if e, err := h.GetEntry(0); err != nil || e.Line != "x" {
		t.Errorf("GetEntry(0) = (%v, %v), want x", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.GetEntry(i); err != ErrOutOfBounds {
			t.Errorf("GetEntry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestDecodeEntry_LegacyLine(t *testing.T) {
	got := decodeEntry("title")
	if want := (HistoryEntry{Line: "title", Mode: modeEval}); got != want {
		t.Errorf("decodeEntry() = %v, want %v", got, want)
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct{ in, want string }{
		{"name", "#(name)"},
		{"count(xs) + 1", "#(count(xs) + 1)"},
		{"#if(x):y#endif", "#if(x):y#endif"},
	}

	for _, tt := range tests {
		if got := snippet(tt.in); got != tt.want {
			t.Errorf("snippet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
