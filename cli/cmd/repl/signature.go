package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/leaf/lang"
)

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall is a call whose argument list contains the cursor.
type functionCall struct {
	name     string // function name
	argIndex int    // index of the argument under the cursor
	method   bool   // called with a receiver, e.g. name.uppercased()
	inCall   bool   // cursor is inside an argument list
}

// detectFunctionCall reports the innermost call whose argument list contains
// cursor. A method call counts its receiver as argument 0. Tag parameter
// lists such as #if( are not calls.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	open := openingParen(input[:cursor])
	if open < 0 {
		return functionCall{}
	}

	nameStart := open
	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		nameStart -= size
	}

	name := input[nameStart:open]
	if name == "" || (nameStart > 0 && input[nameStart-1] == '#') {
		return functionCall{}
	}

	call := functionCall{
		name:     name,
		argIndex: countArgs(input[open+1 : cursor]),
		method:   nameStart > 0 && input[nameStart-1] == '.',
		inCall:   true,
	}

	if call.method {
		call.argIndex++
	}

	return call
}

// openingParen returns the byte offset of the innermost unclosed '(' in s,
// or -1. Parentheses inside string literals are ignored.
func openingParen(s string) int {
	var stack []int

	inString := false

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString:
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(':
			stack = append(stack, i)
		case c == ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 {
		return -1
	}

	return stack[len(stack)-1]
}

// countArgs returns the number of top-level commas in an argument list.
func countArgs(s string) int {
	n, depth := 0, 0
	inString := false

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString:
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			n++
		}
	}

	return n
}

// paramLabels returns the display label of each declared parameter of fn.
// The variadic parameter carries a "..." prefix.
func paramLabels(fn lang.Function) []string {
	labels := make([]string, len(fn.Params))

	for i, k := range fn.Params {
		labels[i] = k.String()
		if fn.Variadic && i == len(fn.Params)-1 {
			labels[i] = "..." + labels[i]
		}
	}

	return labels
}

// renderSignatureHint renders fn's signature with the parameter at argIdx
// highlighted. The variadic parameter stays highlighted for every argument at
// or beyond its position. A negative argIdx highlights nothing.
func renderSignatureHint(fn lang.Function, argIdx int) string {
	labels := paramLabels(fn)

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(fn.Name))
	b.WriteString(signatureStyle.Render("("))

	for i, label := range labels {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		last := fn.Variadic && i == len(labels)-1

		if argIdx >= 0 && (argIdx == i || (last && argIdx > i)) {
			b.WriteString(currentParamStyle.Render(label))
		} else {
			b.WriteString(signatureStyle.Render(label))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
