package repl

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the REPL key bindings. Keys not bound here edit the input.
type keyMap struct {
	Interrupt   key.Binding
	Quit        key.Binding
	Submit      key.Binding
	Next        key.Binding
	Prev        key.Binding
	Older       key.Binding
	Newer       key.Binding
	OlderInMode key.Binding
	NewerInMode key.Binding
	Toggle      key.Binding
}

var keys = keyMap{
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "clear the line, or exit when it is empty")),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "exit when the line is empty")),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run the line, or keep the candidate while cycling")),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "insert the next completion candidate")),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "insert the previous completion candidate")),
	Older: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "older history entry, switching mode to match it")),
	Newer: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "newer history entry, switching mode to match it")),
	OlderInMode: key.NewBinding(
		key.WithKeys("shift+up"),
		key.WithHelp("shift+up", "older history entry of the current mode")),
	NewerInMode: key.NewBinding(
		key.WithKeys("shift+down"),
		key.WithHelp("shift+down", "newer history entry of the current mode")),
	Toggle: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "undo cycling, or toggle eval and command mode")),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Submit, k.Next, k.Prev, k.Toggle,
		k.Older, k.Newer, k.OlderInMode, k.NewerInMode,
		k.Interrupt, k.Quit,
	}
}

// help lists each binding with its description, keys aligned in a column.
func (k keyMap) help() string {
	bindings := k.bindings()

	width := 0
	for _, b := range bindings {
		width = max(width, len(b.Help().Key))
	}

	var sb strings.Builder

	for _, b := range bindings {
		h := b.Help()
		sb.WriteString("  " + h.Key + strings.Repeat(" ", width-len(h.Key)+2) + h.Desc + "\n")
	}

	return sb.String()
}
