// Package cli contains the command line interface for leaf.
//
// # Usage
//
// The default command renders a template found on the search path against
// data decoded from YAML or JSON files:
//
//	leaf -I ./templates -d site.yaml page > page.html
//
// Template source can also be given inline:
//
//	leaf -d site.yaml -e '#for(p in pages):#(p.title)#endfor'
//
// Other commands inspect the compiler:
//
//	leaf dump --format=json page   # compiled instructions
//	leaf lex page                  # token stream
//	leaf repl                      # interactive session
//
// # Search Path
//
// Directories given with --path are searched first, followed by the entries
// of $LEAF_PATH. A name without an extension also matches the file with
// ".leaf" appended.
//
// # Configuration
//
// Flags may be set in a YAML file in the user config directory. Run
// "leaf init" to write the current flag values there. Nested mappings are
// flattened into flag names by joining keys with '-':
//
//	log:
//	  level: debug
//	path: [./templates]
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o leaf .
//
// Then --pprof-mode selects the profile and --pprof-dir its output directory.
package cli
