package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/phpxx-lang/phpxx/phpxx"
)

const (
	replStepQuota   = 1_000_000
	replEvalTimeout = 5 * time.Second
)

type replTheme struct {
	prompt  lipgloss.Style
	title   lipgloss.Style
	echoed  lipgloss.Style
	output  lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	name    lipgloss.Style
	panel   lipgloss.Style
}

func newREPLTheme() replTheme {
	accent := lipgloss.Color("#7C3AED")
	return replTheme{
		prompt:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		title:   lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1),
		echoed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		output:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		name:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}

var replKeywords = []string{"echo", "else", "function", "if", "while"}

type replKeys struct {
	Submit   key.Binding
	Previous key.Binding
	Next     key.Binding
	Complete key.Binding
	Vars     key.Binding
	Help     key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

func (k replKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Vars, k.Clear, k.Quit}
}

func (k replKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Previous, k.Next, k.Complete},
		{k.Vars, k.Help, k.Clear, k.Quit},
	}
}

func defaultREPLKeys() replKeys {
	return replKeys{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "evaluate")),
		Previous: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous input")),
		Next:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next input")),
		Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
		Vars:     key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "vars")),
		Help:     key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "help")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
	}
}

// inputHistory walks previously submitted lines. cursor == len(lines) means
// the user is editing a fresh line.
type inputHistory struct {
	lines  []string
	cursor int
}

func (h *inputHistory) add(line string) {
	h.lines = append(h.lines, line)
	h.cursor = len(h.lines)
}

func (h *inputHistory) previous() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	h.cursor = max(0, h.cursor-1)
	return h.lines[h.cursor], true
}

func (h *inputHistory) next() (string, bool) {
	if h.cursor >= len(h.lines) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.lines) {
		return "", true
	}
	return h.lines[h.cursor], true
}

type transcriptEntry struct {
	input  string
	output string
	failed bool
}

type replModel struct {
	input      textinput.Model
	help       help.Model
	keys       replKeys
	theme      replTheme
	engine     *phpxx.Engine
	session    *phpxx.Session
	out        *bytes.Buffer
	transcript []transcriptEntry
	history    *inputHistory
	width      int
	height     int
	showHelp   bool
	showVars   bool
	quitting   bool
	ready      bool
}

func newREPLModel() replModel {
	theme := newREPLTheme()

	ti := textinput.New()
	ti.Placeholder = "type a statement or expression..."
	ti.Prompt = "phpxx> "
	ti.PromptStyle = theme.prompt
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	// The terminal belongs to bubbletea, so readline sees an empty stdin.
	// Update runs inputs synchronously, so each one is bounded by a step
	// quota and a timeout.
	out := &bytes.Buffer{}
	engine := phpxx.MustNewEngine(phpxx.Config{
		Stdout:    out,
		Stdin:     strings.NewReader(""),
		StepQuota: replStepQuota,
	})

	return replModel{
		input:   ti,
		help:    help.New(),
		keys:    defaultREPLKeys(),
		theme:   theme,
		engine:  engine,
		session: engine.NewSession(),
		out:     out,
		history: &inputHistory{},
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-10)
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.transcript = nil
			return m, nil
		case key.Matches(msg, m.keys.Vars):
			m.showVars = !m.showVars
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Previous):
			if line, ok := m.history.previous(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			}
			return m, nil
		case key.Matches(msg, m.keys.Next):
			if line, ok := m.history.next(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			}
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			return m.complete(), nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m replModel) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" {
		return m, nil
	}
	if strings.HasPrefix(line, ":") {
		return m.execCommand(line)
	}

	output, failed := m.evaluate(line)
	m.transcript = append(m.transcript, transcriptEntry{input: line, output: output, failed: failed})
	m.history.add(line)
	return m, nil
}

func (m replModel) execCommand(line string) (replModel, tea.Cmd) {
	name := strings.Fields(line)[0]
	switch name {
	case ":help", ":h":
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case ":clear", ":c":
		m.transcript = nil
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":reset", ":r":
		m.session = m.engine.NewSession()
		m.transcript = append(m.transcript, transcriptEntry{input: line, output: "Session reset"})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.transcript = append(m.transcript, transcriptEntry{
			input:  line,
			output: fmt.Sprintf("Unknown command: %s", name),
			failed: true,
		})
	}
	return m, nil
}

func (m replModel) complete() replModel {
	value := m.input.Value()
	start := len(value)
	for start > 0 && isWordRune(rune(value[start-1])) {
		start--
	}
	prefix := value[start:]
	if prefix == "" {
		return m
	}

	candidates := append([]string{}, phpxx.BuiltinNames()...)
	candidates = append(candidates, replKeywords...)
	candidates = append(candidates, m.session.Functions()...)
	for name := range m.session.Globals() {
		candidates = append(candidates, "$"+name)
	}

	var matches []string
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, prefix) {
			matches = append(matches, candidate)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
	case 1:
		m.input.SetValue(value[:start] + matches[0])
		m.input.CursorEnd()
	default:
		m.transcript = append(m.transcript, transcriptEntry{output: "Completions: " + strings.Join(matches, ", ")})
	}
	return m
}

// evaluate runs one line in the session. A line that does not end a
// statement is tried first as an echoed expression and then as a statement
// missing its semicolon. A failed parse leaves the session untouched, so the
// second attempt never repeats side effects.
func (m replModel) evaluate(line string) (string, bool) {
	attempts := []string{line}
	if !strings.HasSuffix(line, ";") && !strings.HasSuffix(line, "}") {
		attempts = []string{"echo " + line + ";", line + ";"}
	}

	m.out.Reset()
	var (
		result phpxx.Result
		err    error
		perr   *phpxx.ParseError
	)
	ctx, cancel := context.WithTimeout(context.Background(), replEvalTimeout)
	defer cancel()
	for _, attempt := range attempts {
		result, err = m.session.Eval(ctx, attempt)
		if !errors.As(err, &perr) {
			break
		}
	}
	switch {
	case errors.As(err, &perr):
		return perr.Message, true
	case errors.Is(err, phpxx.ErrStepQuotaExceeded):
		return fmt.Sprintf("stopped: step quota of %d statements exceeded", replStepQuota), true
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("stopped: input ran longer than %s", replEvalTimeout), true
	case err != nil:
		return err.Error(), true
	}

	var lines []string
	if printed := strings.TrimSuffix(m.out.String(), "\n"); printed != "" {
		lines = append(lines, printed)
	}
	if result.Halted {
		lines = append(lines, "halted with "+result.Payload.Visualize())
	}
	if len(lines) == 0 {
		return "ok", false
	}
	return strings.Join(lines, "\n"), false
}

func (m replModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.quitting {
		return m.theme.muted.Render("Goodbye!\n")
	}

	globals := m.session.Globals()
	var panels []string
	if m.showVars {
		panels = append(panels, m.renderVars(globals))
	}

	var b strings.Builder
	b.WriteString(m.theme.title.Render("phpxx REPL") + "\n")
	b.WriteString(m.theme.muted.Render(strings.Repeat("─", max(0, min(m.width-2, 60)))) + "\n\n")

	footer := m.help.View(m.keys)
	used := 6 + lipgloss.Height(footer)
	for _, panel := range panels {
		used += lipgloss.Height(panel)
	}

	var rendered []string
	for _, entry := range m.transcript {
		rendered = append(rendered, m.renderEntry(entry)...)
	}
	if visible := max(0, m.height-used); len(rendered) > visible {
		rendered = rendered[len(rendered)-visible:]
	}
	for _, line := range rendered {
		b.WriteString(line + "\n")
	}

	for _, panel := range panels {
		b.WriteString(panel + "\n")
	}
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(footer)
	return b.String()
}

func (m replModel) renderEntry(entry transcriptEntry) []string {
	var lines []string
	if entry.input != "" {
		lines = append(lines, m.theme.echoed.Render("  › ")+entry.input)
	}
	style, marker := m.theme.output, "→ "
	if entry.failed {
		style, marker = m.theme.failure, "✗ "
	}
	for _, line := range strings.Split(entry.output, "\n") {
		lines = append(lines, "  "+style.Render(marker+line))
	}
	return lines
}

func (m replModel) renderVars(globals map[string]phpxx.Value) string {
	if len(globals) == 0 {
		return m.theme.panel.Render(m.theme.muted.Render("No variables defined"))
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{m.theme.prompt.Render("Variables")}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s = %s", m.theme.name.Render("$"+name), globals[name].Visualize()))
	}
	return m.theme.panel.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	_, err := tea.NewProgram(newREPLModel(), tea.WithAltScreen()).Run()
	return err
}
