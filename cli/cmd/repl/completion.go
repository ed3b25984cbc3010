package repl

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"
)

// completion tracks the candidates for the word under the cursor and the
// state of Tab cycling through them.
type completion struct {
	matches    fuzzy.Matches
	start, end int // byte bounds of the word in the input
	selected   int // index of the inserted candidate while cycling, else -1
	cycling    bool

	// Input before cycling began, restored when cycling is abandoned.
	origText   string
	origCursor int
}

func newCompletion() completion { return completion{selected: -1} }

// set replaces the candidates for the word spanning [start, end).
//
// With autoConfirm, a sole candidate equal to the typed word is accepted and
// the candidates are cleared, so typing a full name dismisses the bar.
// Deletions and cursor motion pass false and never complete on their own.
func (c *completion) set(
	input string,
	matches fuzzy.Matches,
	start, end int,
	autoConfirm bool,
) {
	c.matches, c.start, c.end = matches, start, end

	if !c.cycling {
		c.selected = -1
	}

	if autoConfirm && len(matches) == 1 && input[start:end] == matches[0].Str {
		c.clear()
	}
}

// clear drops the candidates and leaves cycling.
func (c *completion) clear() {
	c.matches = nil
	c.cycling = false
	c.selected = -1
}

// step inserts the next (dir > 0) or previous candidate into ti. A sole
// candidate is inserted and accepted at once.
func (c *completion) step(ti *textinput.Model, dir int) {
	n := len(c.matches)

	switch {
	case n == 0:
		return

	case n == 1:
		c.splice(ti, c.matches[0].Str)
		c.clear()

		return

	case c.cycling:
		c.selected = (c.selected + dir + n) % n

	default:
		c.cycling = true
		c.origText, c.origCursor = ti.Value(), ti.Position()

		c.selected = 0
		if dir < 0 {
			c.selected = n - 1
		}
	}

	c.splice(ti, c.matches[c.selected].Str)
}

// accept keeps the inserted candidate and leaves cycling. It reports whether
// cycling was active.
func (c *completion) accept() bool {
	was := c.cycling && len(c.matches) > 0
	c.cycling = false

	return was
}

// abandon restores the input from before cycling began. It reports whether
// cycling was active.
func (c *completion) abandon(ti *textinput.Model) bool {
	if !c.cycling {
		return false
	}

	c.cycling = false
	ti.SetValue(c.origText)
	ti.SetCursor(c.origCursor)

	return true
}

// splice replaces the word in ti with s and moves the cursor after it.
func (c *completion) splice(ti *textinput.Model, s string) {
	input := ti.Value()
	cursor := c.start + len(s)

	ti.SetValue(input[:c.start] + s + input[c.end:])
	ti.SetCursor(cursor)

	c.end = cursor
}

// bar renders the candidates on one line of the given width.
func (c completion) bar(width int) string {
	return renderCandidateBar(c.matches, c.selected, c.cycling, width)
}
