package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/nativebind/signature"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	session  *session
	out      *bytes.Buffer
	result   string
	output   string
	entries  []entry
	inputs   []textinput.Model
	selected int
	offset   int
	focusIdx int
	height   int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel() *interactiveModel {
	return &interactiveModel{state: stateSelectFunc, height: 20, out: &bytes.Buffer{}}
}

type loadedMsg struct {
	err     error
	session *session
	entries []entry
}

type callResultMsg struct {
	err    error
	result string
	output string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	s, err := openSession(context.Background(), m.out)
	if err != nil {
		return loadedMsg{err: err}
	}
	entries := callable(s.rt.Module)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].name() < entries[j].name() })
	return loadedMsg{session: s, entries: entries}
}

func (m *interactiveModel) close() {
	if m.session != nil {
		m.session.Close(context.Background())
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 3)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
				m.offset = min(m.offset, m.selected)
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.entries)-1 {
				m.selected++
				if m.selected >= m.offset+m.height {
					m.offset = m.selected - m.height + 1
				}
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.entries) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.reset()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.reset()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.entries = msg.entries

	case callResultMsg:
		m.result = msg.result
		m.output = msg.output
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectFunc
	m.result = ""
	m.output = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	e := m.entries[m.selected]
	m.inputs = make([]textinput.Model, len(e.params))
	for i, p := range e.params {
		ti := textinput.New()
		ti.Placeholder = typeName(p)
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	if m.session == nil {
		return callResultMsg{err: fmt.Errorf("module not loaded")}
	}
	e := m.entries[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = input.Value()
	}
	m.out.Reset()
	result, err := m.session.call(e, args)
	return callResultMsg{result: result, output: m.out.String(), err: err}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.session == nil {
		return "Loading bindings..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Native Bindings"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%d callable functions", len(m.entries)))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		end := min(m.offset+m.height, len(m.entries))
		for i := m.offset; i < end; i++ {
			line := m.formatEntry(m.entries[i])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		e := m.entries[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(e.name())))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(typeName(e.params[i])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		e := m.entries[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(e.name())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		if m.output != "" {
			b.WriteString("\n\n--- output ---\n")
			b.WriteString(m.output)
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatEntry(e entry) string {
	params := make([]string, len(e.params))
	for i, p := range e.params {
		params[i] = typeStyle.Render(typeName(p))
	}
	return funcStyle.Render(e.name()) + "(" + strings.Join(params, ", ") + ") -> " + typeStyle.Render(typeName(e.ret))
}

func typeName(sig string) string {
	if sig == signature.Void {
		return "void"
	}
	if d, ok := signature.PrimitiveDisplay(sig); ok {
		return d
	}
	if path, ok := signature.ObjectPath(sig); ok {
		return signature.SimpleName(path)
	}
	return sig
}

func runInteractive() error {
	p := tea.NewProgram(newInteractiveModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
