// Package indexing renders the index build progress overlay.
package indexing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/snapshot"
	"github.com/milvus-admin/console/internal/theme"
)

const (
	panelWidth = 90
	barWidth   = 20
)

var stylePanel = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.ColorBorder).
	Padding(0, 1)

// Model holds the last indexing snapshot.
type Model struct {
	state snapshot.State[[]client.IndexingStatus]
}

// New creates an empty indexing overlay.
func New() Model {
	return Model{}
}

// SetState applies a snapshot, ordering rows by collection then field.
func (m *Model) SetState(s snapshot.State[[]client.IndexingStatus]) {
	rows := append([]client.IndexingStatus(nil), s.Value...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CollectionName != rows[j].CollectionName {
			return rows[i].CollectionName < rows[j].CollectionName
		}
		return rows[i].FieldName < rows[j].FieldName
	})
	s.Value = rows
	m.state = s
}

// Rows returns the indexes in display order.
func (m Model) Rows() []client.IndexingStatus { return m.state.Value }

// Pending counts indexes that have not finished building.
func (m Model) Pending() int {
	n := 0
	for _, r := range m.state.Value {
		if r.Progress() < 1 {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Render("Index Build Progress") + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	if m.state.Err != nil {
		b.WriteString(theme.StyleError.Render("! "+client.Message(m.state.Err)) + "\n")
	}

	switch {
	case !m.state.HasValue && m.state.Err == nil:
		b.WriteString(theme.StyleDimmed.Render("Loading indexing status...") + "\n")
	case len(m.state.Value) == 0 && m.state.HasValue:
		b.WriteString(theme.StyleDimmed.Render("No indexes") + "\n")
	default:
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("%-20s %-16s %-10s %-10s %-*s %s",
			"Collection", "Field", "Type", "State", barWidth+6, "Progress", "Rows")) + "\n")
		for _, r := range m.state.Value {
			b.WriteString(renderRow(r) + "\n")
		}
	}

	b.WriteString("\n" + theme.StyleDimmed.Render("[esc] close"))
	return stylePanel.Width(panelWidth).Render(b.String())
}

func renderRow(r client.IndexingStatus) string {
	p := r.Progress()
	filled := int(p * barWidth)
	bar := lipgloss.NewStyle().Foreground(theme.ProgressColor(p)).
		Render(strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled))
	rows := fmt.Sprintf("%d/%d", r.IndexedRows, r.TotalRows)
	if r.PendingIndexRows > 0 {
		rows += fmt.Sprintf(" (%d pending)", r.PendingIndexRows)
	}
	return fmt.Sprintf("%-20s %-16s %-10s %-10s %s %4.0f%% %s",
		clip(r.CollectionName, 20), clip(r.FieldName, 16), clip(r.IndexType, 10), clip(r.State, 10),
		bar, p*100, rows)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
