// Package cmd implements the leaf subcommands: render, dump, lex, init, and
// repl.
//
// Commands share an [Env] carried in the command context. It holds the
// template [FileSource], a parse cache, the function registry, and the data
// decoded from --data files.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
