package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Class groups errors by the compilation or rendering stage that produced
// them.
type Class uint8

const (
	ClassNone      Class = iota // error
	ClassLex                    // lex error
	ClassParse                  // parse error
	ClassLink                   // link error
	ClassSerialize              // serialize error
)

func (c Class) String() string {
	switch c {
	case ClassLex:
		return "lex error"
	case ClassParse:
		return "parse error"
	case ClassLink:
		return "link error"
	case ClassSerialize:
		return "serialize error"
	default:
		return "error"
	}
}

// Class sentinels match any error of the same class with [errors.Is].
var (
	ErrLex       = newClassError(ClassLex)
	ErrParse     = newClassError(ClassParse)
	ErrLink      = newClassError(ClassLink)
	ErrSerialize = newClassError(ClassSerialize)
)

// Lexer errors.
var (
	ErrUnterminatedString  = newError(ClassLex, "unterminated string")
	ErrUnterminatedComment = newError(ClassLex, "unterminated comment")
	ErrInvalidNumber       = newError(ClassLex, "invalid numeric literal")
	ErrUnbalancedDelimiter = newError(ClassLex, "unbalanced delimiter")
	ErrInvalidEscape       = newError(ClassLex, "invalid escape sequence")
	ErrUnexpectedCharacter = newError(ClassLex, "unexpected character")
)

// Parser errors.
var (
	ErrInvalidExpression  = newError(ClassParse, "invalid expression")
	ErrInvalidAssignment  = newError(ClassParse, "invalid assignment target")
	ErrUnmatchedClose     = newError(ClassParse, "unmatched close")
	ErrMissingClose       = newError(ClassParse, "missing close")
	ErrDuplicateElse      = newError(ClassParse, "duplicate else")
	ErrBranchAfterElse    = newError(ClassParse, "branch after else")
	ErrInvalidLoopBinding = newError(ClassParse, "invalid loop binding")
	ErrInvalidParameters  = newError(ClassParse, "invalid parameters")
)

// Linker errors.
var (
	ErrLinkKind             = newError(ClassLink, "dependency kind mismatch")
	ErrLinkCycle            = newError(ClassLink, "cyclic dependency")
	ErrUnresolvedDependency = newError(ClassLink, "unresolved dependency")
)

// Serializer errors.
var (
	ErrUnresolvedTemplate = newError(ClassSerialize, "unresolved template")
	ErrUndefinedVariable  = newError(ClassSerialize, "undefined variable")
	ErrUndefinedFragment  = newError(ClassSerialize, "undefined fragment")
	ErrUndefinedImport    = newError(ClassSerialize, "undefined import")
	ErrTypeMismatch       = newError(ClassSerialize, "type mismatch")
	ErrIndexOutOfRange    = newError(ClassSerialize, "index out of range")
	ErrDivideByZero       = newError(ClassSerialize, "division by zero")
	ErrFunction           = newError(ClassSerialize, "function call failed")
	ErrIterationLimit     = newError(ClassSerialize, "iteration limit exceeded")
	ErrRecursionLimit     = newError(ClassSerialize, "recursion limit exceeded")
)

// Position identifies a location in template source.
// Line and Column are 1-based; the zero Position is unknown.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsZero reports whether p is the unknown position.
func (p Position) IsZero() bool { return p.Line == 0 }

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	base  *Error      // Sentinel this error was derived from
	pos   Position
	class Class
	group bool // Matches every error of the same class
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func newError(class Class, msg string) *Error {
	return &Error{msg: msg, class: class}
}

func newClassError(class Class) *Error {
	return &Error{msg: class.String(), class: class, group: true}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> (<pos>): <err>" // base and wrapped error both set
	//   2. "<msg> (<pos>)"        // wrapped error is nil
	//   3. "<err>"                // base error message is empty
	//   4. ""                     // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		if e.pos.IsZero() {
			part = append(part, e.msg)
		} else {
			part = append(part, e.msg+" ("+e.pos.String()+")")
		}
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from target, or whether target is a
// class sentinel such as [ErrParse] and e belongs to that class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.group {
		return e.class == t.class
	}

	return e.root() == t.root()
}

// Class returns the stage that produced the error.
func (e *Error) Class() Class { return e.class }

// Position returns the source position attached to the error, if any.
func (e *Error) Position() Position { return e.pos }

// Attr returns the value of the first attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.class != ClassNone {
		attrs = append(attrs, slog.String("class", e.class.String()))
	}

	if !e.pos.IsZero() {
		attrs = append(attrs, slog.String("pos", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := e.derive()
	c.attrs = newAttrs

	return c
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	c := e.derive()
	c.pos = pos

	return c
}

func (e *Error) derive() *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs, // Share attrs
		base:  e.root(),
		pos:   e.pos,
		class: e.class,
	}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}
