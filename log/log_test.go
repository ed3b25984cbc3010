package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// position mimics a template source location logged as a group.
type position struct{ line, col int }

func (p position) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("line", p.line), slog.Int("col", p.col))
}

var stripColors = strings.NewReplacer(
	colorReset, "", colorGray, "", colorRed, "", colorGreen, "",
	colorYellow, "", colorBlue, "", colorMagenta, "", colorCyan, "",
)

func TestMake_Defaults(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if logger.Level() != LevelWarn {
		t.Errorf("Level() = %v, want %v", logger.Level(), LevelWarn)
	}

	if logger.Format() != FormatText {
		t.Errorf("Format() = %v, want %v", logger.Format(), FormatText)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   Level
		logged  []string
		dropped []string
	}{
		{LevelTrace, []string{"trace", "debug", "warn"}, nil},
		{LevelInfo, []string{"info", "error"}, []string{"trace", "debug"}},
		{LevelError, []string{"error"}, []string{"info", "warn"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithLevel(tt.level), WithFormat(FormatJSON), WithPretty(false))
			logger.Trace("trace")
			logger.Debug("debug")
			logger.Info("info")
			logger.Warn("warn")
			logger.Error("error")

			out := buf.String()
			for _, msg := range tt.logged {
				if !strings.Contains(out, `"msg":"`+msg+`"`) {
					t.Errorf("%s not logged: %s", msg, out)
				}
			}

			for _, msg := range tt.dropped {
				if strings.Contains(out, `"msg":"`+msg+`"`) {
					t.Errorf("%s logged: %s", msg, out)
				}
			}
		})
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false))
	ctx := context.Background()

	logger.TraceContext(ctx, "t")
	logger.DebugContext(ctx, "d")
	logger.InfoContext(ctx, "i")
	logger.WarnContext(ctx, "w")
	logger.ErrorContext(ctx, "e")
	logger.InfoContext(nil, "nil context")

	for _, level := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
		if !strings.Contains(buf.String(), `"level":"`+level+`"`) {
			t.Errorf("missing level %s in %s", level, buf.String())
		}
	}

	if !strings.Contains(buf.String(), "nil context") {
		t.Errorf("nil context message dropped")
	}
}

func TestLogger_Caller_ReportsCallSite(t *testing.T) {
	tests := []struct {
		name   string
		pretty bool
	}{
		{"plain", false},
		{"pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithLevel(LevelInfo), WithCaller(true), WithPretty(tt.pretty))
			logger.Info("here")

			if !strings.Contains(buf.String(), "log_test.go") {
				t.Errorf("caller is not the test file: %s", buf.String())
			}
		})
	}
}

func TestPretty_WithAttrs_Kept(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelInfo), WithTimeLayout("none"))
	logger.With(slog.String("template", "page")).Info("rendered", slog.Int("bytes", 42))

	out := stripColors.Replace(buf.String())
	want := "level=INFO msg=rendered template=page bytes=42\n"

	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestPretty_Text_FlattensGroups(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelInfo), WithTimeLayout("none"))
	h := logger.Handler().WithGroup("render")

	slog.New(h).Info("undefined variable",
		slog.Any("pos", position{line: 3, col: 7}),
		slog.String("name", "user name"))

	out := stripColors.Replace(buf.String())

	for _, want := range []string{
		"render.pos.line=3",
		"render.pos.col=7",
		`render.name="user name"`,
		`msg="undefined variable"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestPretty_Text_Colors(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"))
	logger.Warn("careful", slog.Bool("ok", false))

	out := buf.String()

	if !strings.Contains(out, colorGray+"level"+colorReset+"="+colorYellow+"WARN"+colorReset) {
		t.Errorf("level not colored: %q", out)
	}

	if !strings.Contains(out, colorRed+"false"+colorReset) {
		t.Errorf("false not colored: %q", out)
	}
}

func TestPretty_JSON_IsValid(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelDebug), WithFormat(FormatJSON), WithTimeLayout("none"))
	logger.With(slog.String("template", "page")).Debug("parsed",
		slog.Any("pos", position{line: 1, col: 2}),
		slog.String("quote", `say "hi"`),
		slog.Any("missing", nil))

	var entry map[string]any
	if err := json.Unmarshal([]byte(stripColors.Replace(buf.String())), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	want := map[string]any{
		"level":    "DEBUG",
		"msg":      "parsed",
		"template": "page",
		"pos.line": float64(1),
		"pos.col":  float64(2),
		"quote":    `say "hi"`,
		"missing":  nil,
	}

	for k, v := range want {
		if got, ok := entry[k]; !ok || got != v {
			t.Errorf("entry[%q] = %v, want %v", k, got, v)
		}
	}

	if _, ok := entry["time"]; ok {
		t.Errorf("time not omitted")
	}
}

func TestLogger_Wrap_LeavesOriginal(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelInfo))
	quiet := base.Wrap(WithLevel(LevelError))

	if base.Level() != LevelInfo || quiet.Level() != LevelError {
		t.Errorf("levels = %v, %v", base.Level(), quiet.Level())
	}

	quiet.Info("dropped")
	base.Info("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("x")
	l.Info("x")
	l.ErrorContext(context.Background(), "x")

	if got := l.With(slog.String("k", "v")); got.Logger != nil {
		t.Error("With on zero Logger produced a logger")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero Logger reports %v, %v", l.Level(), l.Format())
	}

	var buf bytes.Buffer

	w := l.Wrap(WithOutput(&buf), WithLevel(LevelInfo))
	w.Info("wrapped")

	if !strings.Contains(buf.String(), "wrapped") {
		t.Errorf("Wrap of zero Logger does not log: %q", buf.String())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelInfo), WithTimeLayout("none"))

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.With(slog.Int("worker", i)).Info("done")
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 50 {
		t.Errorf("got %d lines, want 50", n)
	}
}
