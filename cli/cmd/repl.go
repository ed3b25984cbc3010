package cmd

import (
	"context"

	"github.com/ardnew/leaf/cli/cmd/repl"
)

// Repl starts an interactive session rendering template snippets against
// the loaded data.
type Repl struct{}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env := envFrom(ctx)

	cacheDir := "."
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			cacheDir = dir
		}
	}

	return repl.Run(ctx, env, cacheDir, env.Logger)
}
