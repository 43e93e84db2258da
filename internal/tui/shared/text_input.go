package shared

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jobtrack/internal/tui/theme"
)

var (
	inputPromptStyle = lipgloss.NewStyle().Foreground(theme.Secondary)
	inputErrorStyle  = lipgloss.NewStyle().Foreground(theme.Danger)
	inputBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Primary).Padding(0, 1)
)

// TextInputModel wraps bubbles/textinput with validation
type TextInputModel struct {
	Input     textinput.Model
	Prompt    string
	Hint      string
	Validator func(string) error
	Error     string
	Width     int
}

// TextInputResultMsg is sent when input is confirmed or cancelled
type TextInputResultMsg struct {
	Value     string
	Cancelled bool
}

// NewTextInput creates a new text input component
func NewTextInput(prompt, value, hint string, validator func(string) error) *TextInputModel {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 2000
	ti.SetValue(value)
	ti.CursorEnd()
	return &TextInputModel{
		Input:     ti,
		Prompt:    prompt,
		Hint:      hint,
		Validator: validator,
	}
}

// Init implements tea.Model
func (m *TextInputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m *TextInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.Validator != nil {
				if err := m.Validator(m.Input.Value()); err != nil {
					m.Error = err.Error()
					return m, nil
				}
			}
			value := m.Input.Value()
			return m, func() tea.Msg {
				return TextInputResultMsg{Value: value}
			}

		case "esc":
			return m, func() tea.Msg {
				return TextInputResultMsg{Cancelled: true}
			}
		}
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)

	// Clear error when user types
	m.Error = ""

	return m, cmd
}

// View implements tea.Model
func (m *TextInputModel) View() string {
	var content string

	content += inputPromptStyle.Render(m.Prompt+": ") + m.Input.View() + "\n"

	if m.Hint != "" {
		content += theme.Muted.Render(m.Hint) + "\n"
	}
	if m.Error != "" {
		content += inputErrorStyle.Render("Error: "+m.Error) + "\n"
	}

	content += theme.ModalHelp.Render("[enter] confirm  [esc] cancel")

	return inputBoxStyle.Width(m.Width).Render(content)
}

// Value returns the current input value
func (m *TextInputModel) Value() string {
	return m.Input.Value()
}

// SetWidth sets both the outer box and inner input widths
func (m *TextInputModel) SetWidth(w int) {
	// Account for border (2) and padding (2)
	m.Width = max(20, w-4)
	m.Input.Width = m.Width - lipgloss.Width(m.Prompt+": ") - 2
}
