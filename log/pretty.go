package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// field is one flattened key/value pair of a log line. Nested groups are
// joined into dotted keys, so an error carrying a position group renders as
// error.pos.line=3.
type field struct {
	key   string
	value slog.Value
	color string
}

// prettyHandler is a colorized slog.Handler emitting either key=value text
// or indented JSON.
type prettyHandler struct {
	opts   slog.HandlerOptions
	format Format
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	fields []field
}

func newPrettyHandler(
	w io.Writer,
	format Format,
	opts *slog.HandlerOptions,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		format: format,
		mu:     &sync.Mutex{},
		w:      w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	line := make([]field, 0, 4+len(h.fields)+r.NumAttrs())

	if !r.Time.IsZero() {
		line = h.builtin(line, slog.Time(slog.TimeKey, r.Time), colorBlue)
	}

	line = h.builtin(line, slog.Any(slog.LevelKey, r.Level), levelColor(r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil && src.File != "" {
			line = h.builtin(line,
				slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)), colorGray)
		}
	}

	line = h.builtin(line, slog.String(slog.MessageKey, r.Message), "")
	line = append(line, h.fields...)

	r.Attrs(func(a slog.Attr) bool {
		line = flatten(line, h.prefix, a)

		return true
	})

	var buf bytes.Buffer
	if h.format == FormatJSON {
		writeJSON(&buf, line)
	} else {
		writeText(&buf, line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	next := *h
	next.fields = make([]field, len(h.fields), len(h.fields)+len(attrs))
	copy(next.fields, h.fields)

	for _, a := range attrs {
		next.fields = flatten(next.fields, h.prefix, a)
	}

	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.prefix = h.prefix + name + "."

	return &next
}

// builtin appends one of the record's own attributes after ReplaceAttr.
func (h *prettyHandler) builtin(line []field, a slog.Attr, color string) []field {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return line
	}

	return append(line, field{key: a.Key, value: a.Value.Resolve(), color: color})
}

// flatten appends a to line, resolving [slog.LogValuer] values and expanding
// groups under prefix.
func flatten(line []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return line
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return line
		}

		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			line = flatten(line, prefix, g)
		}

		return line
	}

	return append(line, field{key: prefix + a.Key, value: a.Value})
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	case level >= slog.LevelDebug:
		return colorBlue
	default:
		return colorMagenta
	}
}

// kindColor picks the color of a value without an explicit one.
func kindColor(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return colorYellow
	case slog.KindBool:
		if v.Bool() {
			return colorGreen
		}

		return colorRed
	case slog.KindDuration:
		return colorMagenta
	case slog.KindTime:
		return colorBlue
	case slog.KindAny:
		if v.Any() == nil {
			return colorGray
		}

		if _, ok := v.Any().(error); ok {
			return colorRed
		}
	}

	return colorCyan
}

func writeText(buf *bytes.Buffer, line []field) {
	for i, f := range line {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray + f.key + colorReset + "=")
		writeColored(buf, f, textValue(f.value))
	}

	buf.WriteByte('\n')
}

func writeJSON(buf *bytes.Buffer, line []field) {
	buf.WriteString("{\n")

	for i, f := range line {
		if i > 0 {
			buf.WriteString(",\n")
		}

		key, _ := json.Marshal(f.key)
		buf.WriteString("  " + colorGray + string(key) + colorReset + ": ")
		writeColored(buf, f, jsonValue(f.value))
	}

	buf.WriteString("\n}\n")
}

func writeColored(buf *bytes.Buffer, f field, text string) {
	color := f.color
	if color == "" {
		color = kindColor(f.value)
	}

	buf.WriteString(color + text + colorReset)
}

// textValue renders v unquoted unless it would break the line apart.
func textValue(v slog.Value) string {
	var s string

	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}

	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}

	return s
}

// jsonValue renders v as a JSON value.
func jsonValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return quoteJSON(v.Duration().String())
	case slog.KindTime:
		return quoteJSON(v.Time().Format(time.RFC3339Nano))
	case slog.KindAny:
		switch a := v.Any().(type) {
		case nil:
			return "null"
		case error:
			return quoteJSON(a.Error())
		default:
			if b, err := json.Marshal(a); err == nil {
				return string(b)
			}

			return quoteJSON(fmt.Sprint(a))
		}
	default:
		return quoteJSON(v.String())
	}
}

func quoteJSON(s string) string {
	b, _ := json.Marshal(s)

	return string(b)
}
