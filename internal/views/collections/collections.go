// Package collections renders the collection list: a summary row and a
// selectable table with load state, entity count and index type.
package collections

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/snapshot"
	"github.com/milvus-admin/console/internal/theme"
)

var printer = message.NewPrinter(language.English)

// Model holds the collection list state.
type Model struct {
	Width  int
	Height int

	items     []client.Collection
	cursor    int
	err       string
	failures  int
	fetchedAt time.Time
	loaded    bool // at least one successful fetch
}

// New creates an empty list.
func New() Model {
	return Model{}
}

// SetState applies a snapshot. The selection follows the selected
// collection's name across refreshes.
func (m *Model) SetState(s snapshot.State[[]client.Collection]) {
	selected := ""
	if c, ok := m.Selected(); ok {
		selected = c.Name
	}

	m.items = append(m.items[:0:0], s.Value...)
	sort.SliceStable(m.items, func(i, j int) bool {
		return m.items[i].Name < m.items[j].Name
	})
	m.loaded = s.HasValue
	m.fetchedAt = s.FetchedAt
	m.failures = s.Failures
	m.err = ""
	if s.Err != nil {
		m.err = client.Message(s.Err)
	}

	m.cursor = 0
	for i, c := range m.items {
		if c.Name == selected {
			m.cursor = i
			break
		}
	}
}

// Items returns the collections in display order.
func (m Model) Items() []client.Collection { return m.items }

// Selected returns the collection under the cursor.
func (m Model) Selected() (client.Collection, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return client.Collection{}, false
	}
	return m.items[m.cursor], true
}

// Select moves the cursor to the named collection, if present.
func (m *Model) Select(name string) {
	for i, c := range m.items {
		if c.Name == name {
			m.cursor = i
			return
		}
	}
}

func (m *Model) Down() {
	if len(m.items) > 0 {
		m.cursor = (m.cursor + 1) % len(m.items)
	}
}

func (m *Model) Up() {
	if len(m.items) > 0 {
		m.cursor = (m.cursor - 1 + len(m.items)) % len(m.items)
	}
}

// View renders the summary row and table.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsRow(width),
		m.renderTable(width),
	)
}

func (m Model) renderStatsRow(width int) string {
	var loaded, loading, notLoaded int
	var entities int64
	for _, c := range m.items {
		switch c.Loaded {
		case client.LoadStateLoaded:
			loaded++
		case client.LoadStateLoading:
			loading++
		case client.LoadStateNotLoaded:
			notLoaded++
		}
		entities += c.EntityCount
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render(fmt.Sprintf("Collections: %d", len(m.items))),
		statStyle.Foreground(theme.ColorLoaded).Render(fmt.Sprintf("Loaded: %d", loaded)),
		statStyle.Foreground(theme.ColorLoading).Render(fmt.Sprintf("Loading: %d", loading)),
		statStyle.Foreground(theme.ColorNotLoaded).Render(fmt.Sprintf("Released: %d", notLoaded)),
		statStyle.Foreground(theme.ColorScalar).Render("Entities: " + FormatCount(entities)),
	}
	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderTable(width int) string {
	header := theme.StyleHeader.Render("  Collections")

	var banner string
	if m.err != "" {
		banner = theme.StyleError.Render("  ! " + m.err)
		if m.loaded {
			banner += theme.StyleDimmed.Render(fmt.Sprintf("  (showing data from %s)", m.fetchedAt.Format("15:04:05")))
		}
	}

	if len(m.items) == 0 {
		msg := "  No collections"
		if !m.loaded {
			msg = "  Loading collections..."
			if m.err != "" {
				msg = "  Could not load collections"
			}
		}
		lines := []string{header}
		if banner != "" {
			lines = append(lines, banner)
		}
		lines = append(lines, theme.StyleDimmed.Render(msg))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	colName := 28
	colState := 13
	colCount := 14
	colIndex := 12
	colDesc := width - colName - colState - colCount - colIndex - 10
	if colDesc < 10 {
		colDesc = 10
	}

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %-*s %*s  %-*s %-*s",
		colName, "Name",
		colState, "State",
		colCount, "Entities",
		colIndex, "Index",
		colDesc, "Description",
	)
	lines := []string{header}
	if banner != "" {
		lines = append(lines, banner)
	}
	lines = append(lines,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  "+strings.Repeat("─", min(width-4, colName+colState+colCount+colIndex+colDesc+5))),
	)

	visible := m.visibleRange()
	for i := visible[0]; i < visible[1]; i++ {
		c := m.items[i]
		prefix := "  "
		if i == m.cursor {
			prefix = theme.StyleKey.Render("> ")
		}

		nameStr := lipgloss.NewStyle().Width(colName).Render(truncate(c.Name, colName-1))
		if i == m.cursor {
			nameStr = theme.StyleSelected.Width(colName).Render(truncate(c.Name, colName-1))
		}
		stateStr := lipgloss.NewStyle().Width(colState).Render(theme.LoadStateBadge(c.Loaded.String()))
		countStr := lipgloss.NewStyle().Foreground(theme.ColorBright).Width(colCount).Align(lipgloss.Right).
			Render(GroupDigits(c.EntityCount))
		index := c.IndexType
		if index == "" {
			index = "—"
		}
		indexStr := dimStyle.Width(colIndex).Render(truncate(index, colIndex-1))
		descStr := dimStyle.Width(colDesc).Render(truncate(c.Description, colDesc-1))

		lines = append(lines, fmt.Sprintf("%s%s %s %s  %s %s", prefix, nameStr, stateStr, countStr, indexStr, descStr))
	}
	if visible[1] < len(m.items) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  … %d more", len(m.items)-visible[1])))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// visibleRange keeps the cursor on screen when the table is taller than
// the space available.
func (m Model) visibleRange() [2]int {
	rows := m.Height - 6
	if m.Height == 0 || rows >= len(m.items) {
		return [2]int{0, len(m.items)}
	}
	if rows < 3 {
		rows = 3
	}
	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(m.items) {
		end = len(m.items)
		start = max(0, end-rows)
	}
	return [2]int{start, end}
}

// FormatCount formats large numbers with K/M/B suffixes.
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// GroupDigits renders n with thousands separators, e.g. 1,234,567.
func GroupDigits(n int64) string {
	return printer.Sprintf("%d", n)
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
