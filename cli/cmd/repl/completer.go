package repl

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/leaf/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "funcs", "render", "dump", "edit", "clear", "quit",
}

// tagKeywords are the tag names offered after '#'.
var tagKeywords = []string{
	"if", "elseif", "else", "endif",
	"for", "endfor",
	"while", "endwhile",
	"repeat", "endrepeat",
	"define", "enddefine", "evaluate",
	"export", "endexport",
	"import", "endimport",
	"extend", "inline",
}

// previewWidth limits the value preview printed by the list command.
const previewWidth = 40

// isWordBoundary reports whether r delimits a completion word: whitespace,
// the member-access dot, operators, punctuation, and the tag mark '#'.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '\n',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'#', '"', '$':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte boundaries within input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word starting
// at wordStart. For "a + site.nav.ti" with word "ti" the parent is "site.nav".
// Top-level words have an empty parent.
func parentPath(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	prefix := strings.TrimRight(input[:wordStart], ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// afterTagMark reports whether the word starting at wordStart follows '#'.
func afterTagMark(input string, wordStart int) bool {
	return wordStart > 0 && input[wordStart-1] == '#'
}

// childCandidates returns the completions for the given parent path. The top
// level offers data variables and function names. A nested path offers the
// keys of the dictionary it resolves to.
func childCandidates(data map[string]lang.Data, funcs *lang.Funcs, parent string) []string {
	if parent == "" {
		names := slices.Sorted(maps.Keys(data))
		if funcs != nil {
			names = append(names, funcs.Names()...)
		}

		return names
	}

	segments := strings.Split(parent, ".")

	v, ok := data[segments[0]]
	if !ok {
		return nil
	}

	for _, seg := range segments[1:] {
		d, ok := v.AsDictionary()
		if !ok {
			return nil
		}

		if v, ok = d[seg]; !ok {
			return nil
		}
	}

	return v.Keys()
}

// computeMatches ranks the candidates for the word at the cursor, best first.
// An empty top-level word yields no matches so the hint line stays visible.
// An empty word after a dot or '#' lists every candidate.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var (
		candidates []string
		browse     bool
	)

	switch {
	case m.mode == modeCtrl:
		candidates = ctrlCommands

	case afterTagMark(input, wordStart):
		candidates = tagKeywords
		browse = true

	default:
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.engine.Context(), m.engine.Functions(), parent)
		browse = parent != ""
	}

	if len(candidates) == 0 {
		return nil, wordStart, wordEnd
	}

	if word == "" {
		if !browse {
			return nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate uses the selected style while tabbing.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// listVariables renders each data variable with a short preview.
func listVariables(data map[string]lang.Data) string {
	if len(data) == 0 {
		return hintStyle.Render("(no data)")
	}

	var b strings.Builder

	for i, name := range slices.Sorted(maps.Keys(data)) {
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "%s %s %s",
			suggestionStyle.Render(name),
			hintStyle.Render(data[name].Kind().String()),
			formatPreview(data[name]))
	}

	return b.String()
}

// listFunctions renders the signature of each registered function.
func listFunctions(funcs *lang.Funcs) string {
	if funcs == nil || len(funcs.Names()) == 0 {
		return hintStyle.Render("(no functions)")
	}

	var b strings.Builder

	for i, name := range funcs.Names() {
		if i > 0 {
			b.WriteByte('\n')
		}

		fn, _ := funcs.Lookup(name)
		b.WriteString(renderSignatureHint(fn, -1))
	}

	return b.String()
}

// formatPreview returns the literal form of v, truncated to previewWidth.
func formatPreview(v lang.Data) string {
	s := v.Literal()
	if utf8.RuneCountInString(s) > previewWidth {
		r := []rune(s)

		return string(r[:previewWidth-3]) + "..."
	}

	return s
}
