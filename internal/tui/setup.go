package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrSetupCancelled is returned when the user leaves the setup form.
var ErrSetupCancelled = errors.New("setup cancelled")

// SetupResult holds the values entered in the setup form.
type SetupResult struct {
	BaseURL      string
	PollInterval time.Duration
}

type setupModel struct {
	inputs     []textinput.Model
	focusIndex int
	err        error
	result     *SetupResult
	cancelled  bool
}

var setupLabels = []string{
	"Control API base URL",
	"Status poll interval",
}

func newSetupModel(initial SetupResult) setupModel {
	m := setupModel{inputs: make([]textinput.Model, len(setupLabels))}

	var t textinput.Model
	for i := range m.inputs {
		t = textinput.New()
		t.Cursor.Style = cursorStyle
		t.CharLimit = 256

		switch i {
		case 0:
			t.Placeholder = "http://localhost:7860/api"
			t.SetValue(initial.BaseURL)
			t.Focus()
			t.PromptStyle = focusedStyle
			t.TextStyle = focusedStyle
		case 1:
			t.Placeholder = "5s"
			if initial.PollInterval > 0 {
				t.SetValue(initial.PollInterval.String())
			}
			t.PromptStyle = blurredStyle
			t.TextStyle = blurredStyle
		}

		m.inputs[i] = t
	}
	return m
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			if s == "enter" && m.focusIndex == len(m.inputs)-1 {
				res, err := parseSetup(m.inputs[0].Value(), m.inputs[1].Value())
				if err != nil {
					m.err = err
					return m, nil
				}
				m.result = &res
				return m, tea.Quit
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.inputs)-1 {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs) - 1
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].PromptStyle = focusedStyle
					m.inputs[i].TextStyle = focusedStyle
				} else {
					m.inputs[i].Blur()
					m.inputs[i].PromptStyle = blurredStyle
					m.inputs[i].TextStyle = blurredStyle
				}
			}
			return m, tea.Batch(cmds...)
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m setupModel) View() string {
	if m.result != nil || m.cancelled {
		return ""
	}

	s := titleStyle.Render("Monitor Setup") + "\n\n"
	s += "Where is the control API of the server you want to watch?\n"

	for i := range m.inputs {
		s += "\n" + labelStyle.Render(setupLabels[i]) + "\n"
		s += m.inputs[i].View() + "\n"
	}

	if m.err != nil {
		s += "\n" + lipgloss.NewStyle().Foreground(errorColor).Render(m.err.Error()) + "\n"
	}

	s += "\n" + subtleStyle.Render("• Tab/Shift+Tab: Navigate fields") + "\n"
	s += subtleStyle.Render("• Enter: Save and connect") + "\n"
	s += subtleStyle.Render("• Esc: Cancel") + "\n"

	return appStyle.Render(s)
}

func parseSetup(rawURL, rawInterval string) (SetupResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return SetupResult{}, fmt.Errorf("%q is not an http(s) URL", rawURL)
	}

	res := SetupResult{BaseURL: strings.TrimRight(rawURL, "/")}
	if rawInterval = strings.TrimSpace(rawInterval); rawInterval != "" {
		d, err := time.ParseDuration(rawInterval)
		if err != nil || d <= 0 {
			return SetupResult{}, fmt.Errorf("%q is not a positive duration", rawInterval)
		}
		res.PollInterval = d
	}
	return res, nil
}

// RunSetup shows the setup form pre-filled with initial and returns what the
// user entered.
func RunSetup(initial SetupResult) (SetupResult, error) {
	final, err := tea.NewProgram(newSetupModel(initial)).Run()
	if err != nil {
		return SetupResult{}, err
	}
	m := final.(setupModel)
	if m.result == nil {
		return SetupResult{}, ErrSetupCancelled
	}
	return *m.result, nil
}
