// Package forms holds the modal input overlays of the console: the
// connection form, the rename and create dialogs and the load field picker.
//
// Each form is a value type with an Update method in the Bubble Tea style.
// Submitting emits SubmitMsg or ConnectMsg through the returned command;
// escape emits CancelMsg. Forms never call the admin API themselves.
package forms

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/theme"
)

// SubmitMsg carries a validated action request.
type SubmitMsg struct {
	Request action.Request
}

// ConnectMsg asks the session to connect to Host:Port.
type ConnectMsg struct {
	Host string
	Port int
}

// CancelMsg closes the active form without side effects.
type CancelMsg struct{}

// KeyMap holds the bindings shared by every form.
type KeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Next   key.Binding
	Prev   key.Binding
}

// DefaultKeyMap returns the default form bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
	}
}

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorAccent).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(14)

	styleHint = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

const panelWidth = 72

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func newInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = panelWidth - 20
	in.Prompt = ""
	in.SetValue(value)
	return in
}

// focusInputs focuses inputs[idx] and blurs the rest.
func focusInputs(inputs []textinput.Model, idx int) tea.Cmd {
	var cmd tea.Cmd
	for i := range inputs {
		if i == idx {
			cmd = inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
	return cmd
}

func renderPanel(title, body, errMsg, hint string) string {
	content := styleTitle.Render(title) + "\n\n" + body
	if errMsg != "" {
		content += "\n" + theme.StyleError.Render("! "+errMsg)
	}
	content += "\n\n" + styleHint.Render(hint)
	return stylePanel.Width(panelWidth).Render(content)
}
