// Package toast shows a transient one-line notification.
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/theme"
)

// Duration is how long a toast stays visible.
const Duration = 4 * time.Second

type Level int

const (
	Info Level = iota
	Success
	Error
)

// ExpireMsg hides the toast with the matching ID.
type ExpireMsg struct {
	ID int
}

type Model struct {
	id    int
	text  string
	level Level
}

// Show replaces the current toast and schedules its expiry.
func (m *Model) Show(level Level, text string) tea.Cmd {
	m.id++
	m.text = text
	m.level = level
	id := m.id
	return tea.Tick(Duration, func(time.Time) tea.Msg { return ExpireMsg{ID: id} })
}

// Expire hides the toast if msg refers to the one currently shown. A newer
// toast is left alone.
func (m *Model) Expire(msg ExpireMsg) {
	if msg.ID == m.id {
		m.text = ""
	}
}

func (m Model) Visible() bool { return m.text != "" }

func (m Model) Text() string { return m.text }

func (m Model) View() string {
	if m.text == "" {
		return ""
	}
	color := theme.ColorAccent
	glyph := "i"
	switch m.level {
	case Success:
		color, glyph = theme.ColorHealthy, "✓"
	case Error:
		color, glyph = theme.ColorDanger, "✗"
	}
	return lipgloss.NewStyle().
		Foreground(color).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(glyph + " " + m.text)
}
