// Package confirm is the yes/no dialog shown before destructive actions.
package confirm

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/theme"
)

// ConfirmedMsg is emitted when the operator accepts.
type ConfirmedMsg struct {
	Request action.Request
}

// CancelledMsg is emitted when the operator declines.
type CancelledMsg struct{}

// Model holds one pending request.
type Model struct {
	Request action.Request
	yes     key.Binding
	no      key.Binding
}

func New(req action.Request) Model {
	return Model{
		Request: req,
		yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		no: key.NewBinding(
			key.WithKeys("n", "N", "esc", "q"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.yes):
		req := m.Request
		return m, func() tea.Msg { return ConfirmedMsg{Request: req} }
	case key.Matches(k, m.no):
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// Prompt describes what the request will do.
func Prompt(req action.Request) string {
	switch req.Kind {
	case action.Drop:
		return fmt.Sprintf("Drop collection %q? All of its data will be deleted.", req.Target)
	case action.DropIndex:
		field := ""
		if p, ok := req.Payload.(action.DropIndexPayload); ok {
			field = p.FieldName
		}
		return fmt.Sprintf("Drop the index on %s.%s?", req.Target, field)
	default:
		return fmt.Sprintf("Run %s on %q?", req.Kind, req.Target)
	}
}

func (m Model) View() string {
	body := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("Confirm") + "\n\n" +
		Prompt(m.Request) + "\n" +
		theme.StyleDimmed.Render("This cannot be undone.") + "\n\n" +
		theme.StyleKey.Render("[y]") + " confirm   " + theme.StyleKey.Render("[n]") + " cancel"
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(theme.ColorDanger).
		Padding(0, 2).
		Width(60).
		Render(body)
}
