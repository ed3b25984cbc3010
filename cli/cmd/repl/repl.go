package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/leaf/lang"
	"github.com/ardnew/leaf/log"
)

// Engine compiles and renders templates for the REPL.
type Engine interface {
	Compile(ctx context.Context, name, src string) (*lang.AST, error)
	Load(ctx context.Context, name string) (*lang.AST, error)
	Render(ctx context.Context, ast *lang.AST) (string, error)
	Context() map[string]lang.Data
	SetContext(data map[string]lang.Data)
	Functions() *lang.Funcs
}

// editDataMsg is sent when data editing completes successfully.
type editDataMsg struct{ data map[string]lang.Data }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a decode
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-decode error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"

	// snippetName names templates typed at the prompt.
	snippetName = "<repl>"
)

func helpMessage() string {
	return `
Commands (Esc switches to command mode):

  help           Print this message
  list           List data variables
  funcs          List functions and their signatures
  render <name>  Render a template from the search path
  dump <name>    Print the compiled instructions of a template
  edit           Edit data as YAML in $EDITOR
  clear          Clear the screen
  quit           Exit

In eval mode a line is rendered against the data. A line without '#' is a
single expression, e.g. name.uppercased(); any other line is template source,
e.g. #for(x in xs):#(x) #endfor. Candidates for the word under the cursor
appear as you type, and space accepts the one inserted by Tab.

Keys:
` + keys.help()
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	engine     Engine
	logger     log.Logger
	history    *History
	historyIdx int // history.Len() when not browsing
	comp       completion
	width      int
	quitting   bool
	mode       inputMode
	saved      [2]savedInput // per-mode input kept across toggles
}

// savedInput is the input line of the inactive mode.
type savedInput struct {
	text   string
	cursor int
}

// Run starts the REPL rendering against engine.
func Run(
	ctx context.Context,
	engine Engine,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if engine == nil {
		return ErrNoEngine
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("variable_count", len(engine.Context())),
		slog.Int("function_count", len(engine.Functions().Names())))

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	m := newModel(ctx, engine, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	engine Engine,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		engine:     engine,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		comp:       newCompletion(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDataMsg:
		m.engine.SetContext(msg.data)
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("variable_count", len(msg.data)))

		return m, tea.Println(resultStyle.Render("✔ data updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine renders the line below the prompt: the history position, a usage
// hint, a function signature, or the completion candidates.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type an expression or template, or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if fn, ok := m.engine.Functions().Lookup(call.name); ok {
				return renderSignatureHint(fn, call.argIndex)
			}
		}
	}

	return m.comp.bar(m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()))

	empty := m.input.Value() == ""

	switch {
	case key.Matches(msg, keys.Interrupt):
		if empty {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.comp.clear()
		m.historyIdx = m.history.Len()

		return m.refresh(false), nil

	case key.Matches(msg, keys.Quit):
		if empty {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.comp.accept() {
			return m.refresh(true), nil
		}

		return m.executeInput()

	case key.Matches(msg, keys.Next):
		m.comp.step(&m.input, 1)

		return m, nil

	case key.Matches(msg, keys.Prev):
		m.comp.step(&m.input, -1)

		return m, nil

	case key.Matches(msg, keys.Older):
		return m.seekHistory(-1, false), nil

	case key.Matches(msg, keys.Newer):
		return m.seekHistory(1, false), nil

	case key.Matches(msg, keys.OlderInMode):
		return m.seekHistory(-1, true), nil

	case key.Matches(msg, keys.NewerInMode):
		return m.seekHistory(1, true), nil

	case key.Matches(msg, keys.Toggle):
		if m.comp.abandon(&m.input) {
			return m.refresh(false), nil
		}

		return m.switchToMode(1 - m.mode), nil
	}

	// Typing may complete a word; other edits and cursor motion never do.
	typed := msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace
	if !typed || msg.Type == tea.KeySpace {
		m.comp.accept()
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)

	return m.refresh(typed), cmd
}

// refresh recomputes the candidates for the word under the cursor.
func (m model) refresh(autoConfirm bool) model {
	matches, start, end := m.computeMatches()
	m.comp.set(m.input.Value(), matches, start, end, autoConfirm)

	return m
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]savedInput{}
	m.input.SetValue("")

	_, err := m.history.WriteWithMode(input, m.mode)
	if err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not write history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
	m.comp.clear()
	m = m.refresh(false)

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))

	out, err := m.render(snippetName, snippet(input))
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(out)))
}

// snippet returns the template source for a prompt line. Lines without a
// tag are rendered as a single expression.
func snippet(input string) string {
	if strings.Contains(input, "#") {
		return input
	}

	return "#(" + input + ")"
}

// render compiles src as template name and renders it.
func (m model) render(name, src string) (string, error) {
	ast, err := m.engine.Compile(m.ctxFunc(), name, src)
	if err != nil {
		return "", err
	}

	return m.engine.Render(m.ctxFunc(), ast)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	cmd, args := parts[0], parts[1:]

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", cmd),
		slog.Any("args", args))

	// needName reports a missing template argument.
	needName := func() tea.Cmd {
		return tea.Sequence(echo, tea.Println(errorStyle.Render("usage: "+cmd+" <template>")))
	}

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(listVariables(m.engine.Context())))

	case "f", "funcs":
		return m, tea.Sequence(echo, tea.Println(listFunctions(m.engine.Functions())))

	case "r", "render":
		if len(args) != 1 {
			return m, needName()
		}

		return m, tea.Sequence(echo, m.loadThen(args[0], func(ast *lang.AST) (string, error) {
			return m.engine.Render(m.ctxFunc(), ast)
		}))

	case "d", "dump":
		if len(args) != 1 {
			return m, needName()
		}

		return m, tea.Sequence(echo, m.loadThen(args[0], func(ast *lang.AST) (string, error) {
			return ast.Terse(), nil
		}))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.handleEdit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

// loadThen loads the named template and prints the result of fn.
func (m model) loadThen(name string, fn func(*lang.AST) (string, error)) tea.Cmd {
	ast, err := m.engine.Load(m.ctxFunc(), name)
	if err == nil {
		var out string

		out, err = fn(ast)
		if err == nil {
			return tea.Println(resultStyle.Render(out))
		}
	}

	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editDataCommand{
		data:    m.engine.Context(),
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.result == nil {
			return editCancelledMsg{}
		}

		return editDataMsg{data: cmd.result}
	})
}

// seekHistory moves through history by step. When sameMode is set, entries
// of the other mode are skipped; otherwise the mode follows the entry.
// Moving past the newest entry clears the input.
func (m model) seekHistory(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.GetEntry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m = m.refresh(false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m = m.refresh(false)
	}

	return m
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = savedInput{text: m.input.Value(), cursor: m.input.Position()}
	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m = m.refresh(false)

	return m
}
