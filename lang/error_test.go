package lang

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestError_Error(t *testing.T) {
	pos := Position{Offset: 4, Line: 2, Column: 3}

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "message", err: NewError("boom"), want: "boom"},
		{name: "position", err: ErrMissingClose.WithPosition(pos), want: "missing close (2:3)"},
		{name: "wrapped", err: ErrReadInput.Wrap(io.ErrUnexpectedEOF), want: "read input: unexpected EOF"},
		{name: "cause only", err: WrapError(io.EOF), want: "EOF"},
		{name: "empty", err: &Error{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	derived := ErrUndefinedVariable.
		With(slog.String("name", "x")).
		WithPosition(Position{Line: 1, Column: 1})

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "derived", err: derived, target: ErrUndefinedVariable, want: true},
		{name: "class", err: derived, target: ErrSerialize, want: true},
		{name: "other class", err: derived, target: ErrParse, want: false},
		{name: "sibling", err: derived, target: ErrUndefinedFragment, want: false},
		{name: "wrapped cause", err: ErrReadInput.Wrap(io.EOF), target: io.EOF, want: true},
		{name: "no class", err: NewError("x"), target: ErrLex, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_With(t *testing.T) {
	base := ErrTypeMismatch.With(slog.String("op", "+"))
	more := base.With(slog.String("left", "int"))

	if _, ok := base.Attr("left"); ok {
		t.Error("With modified the receiver")
	}

	v, ok := more.Attr("op")
	if !ok || v.String() != "+" {
		t.Errorf("op = %v, %v", v, ok)
	}

	if more.Class() != ClassSerialize {
		t.Errorf("class = %v, want %v", more.Class(), ClassSerialize)
	}

	pos := Position{Offset: 9, Line: 1, Column: 10}
	if got := more.WithPosition(pos).Position(); got != pos {
		t.Errorf("position = %v, want %v", got, pos)
	}

	if !more.Position().IsZero() {
		t.Error("WithPosition modified the receiver")
	}
}

func TestError_LogValue(t *testing.T) {
	err := ErrDivideByZero.
		WithPosition(Position{Line: 3, Column: 7}).
		With(slog.String("template", "page"))

	got := map[string]string{}
	for _, a := range err.LogValue().Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{
		"error":    "division by zero",
		"class":    "serialize error",
		"pos":      "3:7",
		"template": "page",
	}

	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}
