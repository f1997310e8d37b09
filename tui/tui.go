// Package tui shows the login prompt displayed before the editor starts.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

// ErrCancelled is returned when the user quits the prompt.
var ErrCancelled = errors.New("login cancelled")

// Login prompts for a username.
func Login() (string, error) {
	p := tea.NewProgram(initialModel())

	m, err := p.StartReturningModel()
	if err != nil {
		return "", errors.Wrap(err, "login prompt")
	}
	return result(m.(model))
}

type (
	errMsg error
)

type model struct {
	textInput textinput.Model
	err       error
	Quitting  bool
	LoggedIn  bool
}

func initialModel() model {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 20

	return model{
		textInput: ti,
		err:       nil,
	}
}

func result(m model) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if !m.LoggedIn {
		return "", ErrCancelled
	}
	return strings.TrimSpace(m.textInput.Value()), nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			// An empty name is not accepted.
			if strings.TrimSpace(m.textInput.Value()) == "" {
				return m, nil
			}
			m.LoggedIn = true
			return m, tea.Quit
		}

	// We handle errors just like any other message
	case errMsg:
		m.err = msg
		return m, tea.Quit
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.Quitting {
		return "\n  See you later!\n\n"
	}
	if m.LoggedIn {
		return fmt.Sprintf("\n  Welcome %s!\n\n", strings.TrimSpace(m.textInput.Value()))
	}
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s",
		m.textInput.View(),
		"(esc to quit)",
	) + "\n"
}
