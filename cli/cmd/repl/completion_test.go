package repl

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"
)

func newInput(value string) textinput.Model {
	ti := textinput.New()
	ti.SetValue(value)
	ti.SetCursor(len(value))

	return ti
}

func candidates(strs ...string) fuzzy.Matches {
	matches := make(fuzzy.Matches, len(strs))
	for i, s := range strs {
		matches[i] = fuzzy.Match{Str: s, Index: i}
	}

	return matches
}

func TestCompletion_StepCycles(t *testing.T) {
	ti := newInput("site.n")
	c := newCompletion()
	c.set(ti.Value(), candidates("name", "nav"), 5, 6, false)

	steps := []struct {
		dir  int
		want string
	}{
		{1, "site.name"},
		{1, "site.nav"},
		{1, "site.name"},
		{-1, "site.nav"},
	}

	for i, s := range steps {
		c.step(&ti, s.dir)

		if ti.Value() != s.want {
			t.Fatalf("step %d: input = %q, want %q", i, ti.Value(), s.want)
		}

		if ti.Position() != len(s.want) {
			t.Errorf("step %d: cursor = %d, want %d", i, ti.Position(), len(s.want))
		}
	}

	if !c.abandon(&ti) || ti.Value() != "site.n" || ti.Position() != 6 {
		t.Errorf("abandon() left %q at %d", ti.Value(), ti.Position())
	}

	if c.abandon(&ti) {
		t.Error("abandon() reported cycling twice")
	}
}

func TestCompletion_StepBackwardStartsAtEnd(t *testing.T) {
	ti := newInput("#e")
	c := newCompletion()
	c.set(ti.Value(), candidates("else", "endif", "extend"), 1, 2, false)

	c.step(&ti, -1)

	if ti.Value() != "#extend" || c.selected != 2 {
		t.Errorf("input = %q, selected = %d", ti.Value(), c.selected)
	}

	if !c.accept() || c.cycling {
		t.Error("accept() did not leave cycling")
	}

	if ti.Value() != "#extend" {
		t.Errorf("accept() changed input to %q", ti.Value())
	}
}

func TestCompletion_SoleCandidate(t *testing.T) {
	ti := newInput("tit + 1")
	ti.SetCursor(3)

	c := newCompletion()
	c.set(ti.Value(), candidates("title"), 0, 3, false)
	c.step(&ti, 1)

	if ti.Value() != "title + 1" || ti.Position() != 5 {
		t.Errorf("input = %q at %d", ti.Value(), ti.Position())
	}

	if c.matches != nil || c.cycling {
		t.Error("sole candidate not accepted")
	}
}

func TestCompletion_SetAutoConfirm(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		matches     fuzzy.Matches
		autoConfirm bool
		wantCleared bool
	}{
		{"exact sole match", "title", candidates("title"), true, true},
		{"exact without confirm", "title", candidates("title"), false, false},
		{"partial sole match", "tit", candidates("title"), true, false},
		{"several matches", "n", candidates("name", "nav"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompletion()
			c.set(tt.input, tt.matches, 0, len(tt.input), tt.autoConfirm)

			if cleared := c.matches == nil; cleared != tt.wantCleared {
				t.Errorf("cleared = %v, want %v", cleared, tt.wantCleared)
			}

			if c.selected != -1 {
				t.Errorf("selected = %d, want -1", c.selected)
			}
		})
	}
}

func TestCompletion_StepWithoutMatches(t *testing.T) {
	ti := newInput("x")
	c := newCompletion()
	c.step(&ti, 1)

	if ti.Value() != "x" || c.cycling {
		t.Errorf("input = %q, cycling = %v", ti.Value(), c.cycling)
	}

	if c.accept() {
		t.Error("accept() reported cycling")
	}
}

func TestKeyMap_Help(t *testing.T) {
	help := keys.help()

	for _, b := range keys.bindings() {
		if !strings.Contains(help, b.Help().Desc) {
			t.Errorf("help missing %q", b.Help().Desc)
		}
	}

	if n := strings.Count(help, "\n"); n != len(keys.bindings()) {
		t.Errorf("help has %d lines, want %d", n, len(keys.bindings()))
	}
}
