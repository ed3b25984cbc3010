//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the leaf module embedded at build time.
// It is printed by the CLI when users pass the --version flag.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and default config paths.
	Name = "leaf"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Leaf template compiler and renderer"
	// PathEnv names the environment variable holding the template search
	// path, a list of directories separated by the OS path list separator.
	PathEnv = "LEAF_PATH"
	// Ext is the file extension tried when a template name has none.
	Ext = ".leaf"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
