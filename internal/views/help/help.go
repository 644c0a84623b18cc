// Package help renders the key reference overlay as markdown through glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/theme"
)

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Model caches the rendered markdown; rendering is slow enough to matter
// on every frame.
type Model struct {
	style    string
	sections []Section
	width    int
	rendered string
}

// New creates a help overlay. Style is a glamour standard style name such
// as "dark" or "notty".
func New(style string, sections ...Section) Model {
	if style == "" {
		style = styles.DarkStyle
	}
	return Model{style: style, sections: sections}
}

// Markdown returns the source document.
func (m Model) Markdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	for _, s := range m.sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		for _, kb := range s.Bindings {
			h := kb.Help()
			if h.Key == "" {
				continue
			}
			fmt.Fprintf(&b, "- `%s` %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Destructive actions (drop, drop index) ask for confirmation.\n")
	return b.String()
}

// SetWidth re-renders for a new terminal width.
func (m *Model) SetWidth(width int) {
	if width == m.width && m.rendered != "" {
		return
	}
	m.width = width
	m.rendered = m.render()
}

func (m Model) render() string {
	wrap := m.width - 8
	if wrap < 40 {
		wrap = 40
	}
	md := m.Markdown()
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	body := m.rendered
	if body == "" {
		body = m.render()
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorAccent).
		Padding(0, 1).
		Render(body + "\n" + theme.StyleDimmed.Render("[esc] close"))
}
