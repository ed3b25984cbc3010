package cli

import (
	"os"
	"testing"

	"github.com/ardnew/leaf/log"
)

func TestLogConfig_Scan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

	tests := []struct {
		name   string
		args   []string
		want   logConfig
		level  log.Level
		format log.Format
	}{
		{
			name:   "separate values",
			args:   []string{"render", "--log-level", "trace", "--log-format", "json", "page"},
			want:   logConfig{Level: "trace", Format: "json", Pretty: true},
			level:  log.LevelTrace,
			format: log.FormatJSON,
		},
		{
			name:   "assigned values",
			args:   []string{"--log-level=error", "--log-time-layout=kitchen"},
			want:   logConfig{Level: "error", TimeLayout: "kitchen", Pretty: true},
			level:  log.LevelError,
			format: log.FormatText,
		},
		{
			name:   "negated booleans",
			args:   []string{"--no-log-pretty", "--log-caller", "--no-log-caller=false"},
			want:   logConfig{Caller: true},
			level:  log.DefaultLevel,
			format: log.FormatText,
		},
		{
			name:   "missing value",
			args:   []string{"--log-level", "--log-pretty=maybe"},
			want:   logConfig{Pretty: true},
			level:  log.DefaultLevel,
			format: log.FormatText,
		},
		{
			name:   "stops at double dash",
			args:   []string{"--", "--log-level", "debug"},
			want:   logConfig{Pretty: true},
			level:  log.DefaultLevel,
			format: log.FormatText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.Config(log.WithDefaults(os.Stderr))

			got := logConfig{Pretty: true}
			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan() = %+v, want %+v", got, tt.want)
			}

			if l := log.Default().Level(); l != tt.level {
				t.Errorf("default level = %v, want %v", l, tt.level)
			}

			if f := log.Default().Format(); f != tt.format {
				t.Errorf("default format = %v, want %v", f, tt.format)
			}
		})
	}
}

func TestLogConfig_Vars(t *testing.T) {
	vars := logConfig{}.vars()

	if got, want := vars["logLevels"], "trace,debug,info,warn,error"; got != want {
		t.Errorf("logLevels = %q, want %q", got, want)
	}

	if got, want := vars["logFormats"], "text,json"; got != want {
		t.Errorf("logFormats = %q, want %q", got, want)
	}
}
