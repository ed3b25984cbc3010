package cmd

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/leaf/log"
	"github.com/ardnew/leaf/profile"
)

const defaultConfigIndent = 2

// Init writes the current flag values, including those read from an existing
// configuration file, as a new configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run writes the configuration file named by the config variable, refusing
// to replace an existing one unless forced.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.With(slog.String("reason", "no command line"))
	}

	confPath := ktx.Model.Vars()[ConfigIdentifier]
	if confPath == "" {
		return ErrWriteConfig.With(slog.String("reason", "no configuration path"))
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(ErrFileExists)
	}

	values := configValues(ktx)

	data, err := yaml.MarshalContext(ctx, values, yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "wrote configuration file",
		slog.String("path", confPath),
		slog.Int("keys", len(values)))

	return nil
}

// configValues maps each persistent flag to its current value in the layout
// the configuration resolver reads back. Flags of a group nest under the
// group key with the group prefix removed, and hyphens become underscores:
// --log-level in group "log" is written as log.level. Unset and empty values
// are omitted.
func configValues(ktx *kong.Context) map[string]any {
	values := make(map[string]any)

	for _, flag := range ktx.Model.Flags {
		if !persistent(flag) {
			continue
		}

		val := ktx.FlagValue(flag)
		if isEmpty(val) {
			continue
		}

		section, name := values, flag.Name

		if g := flag.Group; g != nil && g.Key != "" {
			if rest, ok := strings.CutPrefix(name, g.Key+"-"); ok {
				sub, _ := values[g.Key].(map[string]any)
				if sub == nil {
					sub = make(map[string]any)
					values[g.Key] = sub
				}

				section, name = sub, rest
			}
		}

		section[strings.ReplaceAll(name, "-", "_")] = val
	}

	return values
}

// persistent reports whether flag belongs in a configuration file.
func persistent(flag *kong.Flag) bool {
	if flag.Hidden {
		return false
	}

	return !slices.ContainsFunc([]string{"help", "version", profile.Tag},
		func(s string) bool { return strings.HasPrefix(flag.Name, s) })
}

func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
