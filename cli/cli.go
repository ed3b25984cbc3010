package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/ardnew/leaf/cli/cmd"
	"github.com/ardnew/leaf/pkg"
)

const baseConfig = "config.yaml"

// CLI is the top-level command-line interface for leaf.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Path          []string `help:"Template search directory, before ${pathEnv}"   name:"path"           placeholder:"DIR"   short:"I" type:"path"`
	Data          []string `help:"YAML or JSON data file(s) or '-' for stdin"    name:"data"           placeholder:"FILE"  short:"d" type:"existingfile"`
	Funcs         []string `help:"YAML function definition file(s)"              name:"funcs"          placeholder:"FILE"            type:"existingfile"`
	MaxIterations int      `help:"Loop iteration limit (0 for the default)"      name:"max-iterations" default:"0"`
	MaxDepth      int      `help:"Block nesting limit (0 for the default)"       name:"max-depth"      default:"0"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
	Dump   cmd.Dump   `cmd:""                    help:"Print the compiled instructions of a template"`
	Lex    cmd.Lex    `cmd:""                    help:"Print the token stream of a template"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
	Repl   cmd.Repl   `cmd:""                    help:"Start an interactive session"`
}

// Run executes the leaf CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
		"pathEnv":            pkg.PathEnv,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so parse errors are logged as configured.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	env, err := cli.env(ctx)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithEnv(ctx, env)

	return ktx.Run(ctx, &cli)
}

// env builds the command environment from the parsed global flags.
func (c *CLI) env(ctx context.Context) (*cmd.Env, error) {
	logger := c.Log.logger()

	data, err := cmd.LoadData(ctx, c.Data)
	if err != nil {
		return nil, err
	}

	funcs, err := cmd.LoadFuncs(ctx, c.Funcs)
	if err != nil {
		return nil, err
	}

	dirs := cmd.SearchPath(c.Path...)

	env := cmd.NewEnv()
	env.Source = cmd.FileSource{Dirs: dirs, Logger: logger}
	env.Data = data
	env.Funcs = funcs
	env.Logger = logger
	env.MaxIterations = c.MaxIterations
	env.MaxDepth = c.MaxDepth

	logger.DebugContext(ctx, "environment ready",
		slog.Any("search_path", dirs),
		slog.Int("variable_count", len(data)),
		slog.Int("function_count", len(funcs.Names())))

	return env, nil
}
