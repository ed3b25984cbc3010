package pkg

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "leaf" {
		t.Errorf("Expected Name to be %q, got %q", "leaf", Name)
	}
}

func TestDescription(t *testing.T) {
	if Description == "" {
		t.Error("Expected Description to be set")
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}

	if strings.ContainsAny(Version, " \n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain %q", "ardnew")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("config.yaml")

	if filepath.Dir(got) != ConfigDir() {
		t.Errorf("ConfigPath dir = %q, want %q", filepath.Dir(got), ConfigDir())
	}

	if filepath.Base(ConfigDir()) != Prefix() {
		t.Errorf("ConfigDir base = %q, want %q", filepath.Base(ConfigDir()), Prefix())
	}
}

func TestUserDir_Fallback(t *testing.T) {
	failing := func() (string, error) { return "", os.ErrNotExist }

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := userDir(failing, ".cache"); got != filepath.Join(home, ".cache") {
		t.Errorf("userDir = %q, want %q", got, filepath.Join(home, ".cache"))
	}

	ok := func() (string, error) { return "/x", nil }
	if got := userDir(ok, ".cache"); got != "/x" {
		t.Errorf("userDir = %q, want %q", got, "/x")
	}
}
