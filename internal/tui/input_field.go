package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TitleSubmittedMsg is sent when the user confirms an edited task title.
type TitleSubmittedMsg struct {
	Title string
}

// EditCancelledMsg is sent when the user abandons an edit.
type EditCancelledMsg struct{}

// InputField is a single-line editor for task titles.
type InputField struct {
	input textinput.Model
	width int
}

// NewInputField creates a new InputField.
func NewInputField() *InputField {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 200
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // Account for prompt and padding
}

// Start loads value into the editor and focuses it.
func (f *InputField) Start(value string) tea.Cmd {
	f.input.SetValue(value)
	f.input.CursorEnd()
	return f.input.Focus()
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			text := strings.TrimSpace(f.input.Value())
			if text == "" {
				return f, nil
			}
			f.input.Blur()
			return f, func() tea.Msg { return TitleSubmittedMsg{Title: text} }
		case tea.KeyEsc:
			f.input.Blur()
			return f, func() tea.Msg { return EditCancelledMsg{} }
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	prompt := promptStyle.Render("> ")
	return boxStyle.Render(prompt + f.input.View())
}

// Focused reports whether the editor has focus.
func (f *InputField) Focused() bool {
	return f.input.Focused()
}
