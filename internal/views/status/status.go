package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/session"
	"github.com/milvus-admin/console/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Session     session.State
	AdminURL    string
	Collections int
	RefreshedAt time.Time
	Failures    int // consecutive collection fetch failures
	Spinner     string
	Width       int
}

// New creates a status bar model.
func New(adminURL string) Model {
	return Model{AdminURL: adminURL}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var color lipgloss.Color
	glyph := "○"
	switch m.Session.Status {
	case session.Connected:
		color, glyph = theme.ColorConnected, "●"
	case session.Connecting:
		color = theme.ColorConnecting
		if m.Spinner != "" {
			glyph = m.Spinner
		}
	case session.Failed:
		color, glyph = theme.ColorFailed, "✗"
	default:
		color = theme.ColorDisconnected
	}
	connStr := lipgloss.NewStyle().Foreground(color).Render(glyph + " " + m.Session.Label())

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr
	if m.Session.Status == session.Failed && m.Session.LastError != "" {
		content += sep + theme.StyleError.Render(m.Session.LastError)
	}
	if m.Session.Connected() {
		content += sep + fmt.Sprintf("%d collections", m.Collections)
		if !m.RefreshedAt.IsZero() {
			content += sep + theme.StyleDimmed.Render("refreshed "+m.RefreshedAt.Format("15:04:05"))
		}
	}
	if m.Failures > 0 {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).
			Render(fmt.Sprintf("stale (%d failed)", m.Failures))
	}
	if m.AdminURL != "" {
		content += sep + theme.StyleDimmed.Render("api "+m.AdminURL)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
