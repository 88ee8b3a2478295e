package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pywat/internal/compiler"
	"pywat/internal/config"
	"pywat/internal/evaluator"
	"pywat/internal/object"
)

const evalTimeout = 5 * time.Second

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

const (
	prompt         = "pywat> "
	continuePrompt = "   ... "
)

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	session     *compiler.Session
	pending     []string // lines of an open block
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	CtrlK key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous input"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next input"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel(host evaluator.Host) replModel {
	ti := textinput.New()
	ti.Placeholder = "enter a definition or a statement..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = prompt

	return replModel{
		textInput:  ti,
		session:    compiler.NewSession(host),
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Enter):
			return m.submit()
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// submit handles one entered line. A line ending in ':' opens a block that
// an empty line closes.
func (m replModel) submit() (tea.Model, tea.Cmd) {
	raw := strings.TrimRight(m.textInput.Value(), " \t")
	input := strings.TrimSpace(raw)
	m.textInput.SetValue("")
	m.historyIdx = -1

	if len(m.pending) > 0 {
		if input != "" {
			m.pending = append(m.pending, raw)
			m.cmdHistory = append(m.cmdHistory, raw)
			return m, nil
		}
		block := strings.Join(m.pending, "\n")
		m.pending = nil
		m.textInput.Prompt = prompt
		m.record(block, m.evaluate(block))
		return m, nil
	}

	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, ":") {
		return m.handleCommand(input)
	}
	m.cmdHistory = append(m.cmdHistory, input)
	if strings.HasSuffix(input, ":") {
		m.pending = []string{input}
		m.textInput.Prompt = continuePrompt
		return m, nil
	}
	m.record(input, m.evaluate(input))
	return m, nil
}

func (m *replModel) record(input string, out historyEntry) {
	out.input = input
	m.history = append(m.history, out)
}

func (m replModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":reset", ":r":
		m.session.Reset()
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Session reset",
		})
	case ":source", ":s":
		source := strings.TrimRight(m.session.Source(), "\n")
		if source == "" {
			source = "(empty)"
		}
		m.history = append(m.history, historyEntry{
			input:  input,
			output: source,
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

// evaluate runs input in the session. The output is what the input
// printed, followed by its value when it is an expression with one.
func (m replModel) evaluate(input string) historyEntry {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	reply, err := m.session.Eval(ctx, input)
	output := strings.TrimRight(reply.Output, "\n")
	if err != nil {
		msg := err.Error()
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			msg = fmt.Sprintf("%s error: %s", cerr.Stage, cerr.Diagnostic.Message)
		} else if !strings.HasPrefix(msg, "RUNTIME ERROR") {
			msg = "Runtime error: " + msg
		}
		if output != "" {
			msg = output + "\n" + msg
		}
		return historyEntry{output: msg, isErr: true}
	}
	if reply.Defined {
		return historyEntry{output: "defined"}
	}
	if reply.Value != nil && reply.Value.Type() != object.NONE_OBJ {
		if output != "" {
			output += "\n"
		}
		output += reply.Value.Inspect()
	}
	return historyEntry{output: output}
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("pywat REPL")
	ver := mutedStyle.Render("v" + version)
	b.WriteString(header + " " + ver + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8 + len(m.pending)
	if m.showHelp {
		reservedLines += 10
	}
	availableHeight := m.height - reservedLines

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = max(len(m.history)-availableHeight, 0)
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		for _, line := range strings.Split(entry.input, "\n") {
			b.WriteString(mutedStyle.Render("  › ") + line + "\n")
		}
		if entry.output != "" {
			for _, line := range strings.Split(entry.output, "\n") {
				if entry.isErr {
					b.WriteString("  " + errorStyle.Render("✗ "+line) + "\n")
				} else {
					b.WriteString("  " + resultStyle.Render("→ "+line) + "\n")
				}
			}
		}
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	for _, line := range m.pending {
		b.WriteString(promptStyle.Render(continuePrompt) + line + "\n")
	}
	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate input history"},
		{"Enter", "Run a statement or add a definition"},
		{"...:", "Open a block; an empty line closes it"},
		{":help", "Toggle this help"},
		{":clear", "Clear the transcript"},
		{":reset", "Forget definitions and statements"},
		{":source", "Show the accumulated program"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL(cfg *config.Config) error {
	host := evaluator.Host{
		MemoryPages: cfg.Runtime.MemoryPages,
		MaxDepth:    cfg.Runtime.MaxDepth,
	}
	p := tea.NewProgram(newREPLModel(host), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
