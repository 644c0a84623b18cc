// Package debug keeps the console's event log: session transitions, fetch
// failures and dispatched actions, newest last.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/theme"
)

const maxEntries = 200

// Kind classifies an entry.
type Kind int

const (
	KindSession Kind = iota
	KindFetch
	KindAction
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "sess"
	case KindFetch:
		return "api"
	case KindAction:
		return "act"
	case KindError:
		return "err"
	}
	return "?"
}

func (k Kind) color() lipgloss.Color {
	switch k {
	case KindSession:
		return theme.ColorAccent
	case KindFetch:
		return theme.ColorScalar
	case KindAction:
		return theme.ColorWarning
	case KindError:
		return theme.ColorDanger
	}
	return theme.ColorDimmed
}

// Entry is one logged event.
type Entry struct {
	Time    time.Time
	Kind    Kind
	Message string
}

// failure reports whether the entry belongs in the failures-only view.
func (e Entry) failure() bool {
	return e.Kind == KindError || e.Kind == KindFetch
}

type Model struct {
	Entries []Entry
	// Offset counts lines scrolled up from the newest entry.
	Offset       int
	FailuresOnly bool
	now          func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

// Add records an event and scrolls back to the newest entry. Only the last
// maxEntries are kept.
func (m *Model) Add(kind Kind, message string) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	m.Entries = append(m.Entries, Entry{Time: now(), Kind: kind, Message: message})
	if n := len(m.Entries) - maxEntries; n > 0 {
		m.Entries = append(m.Entries[:0:0], m.Entries[n:]...)
	}
	m.Offset = 0
}

func (m *Model) Addf(kind Kind, format string, args ...interface{}) {
	m.Add(kind, fmt.Sprintf(format, args...))
}

// ToggleFailures switches between every entry and failures only.
func (m *Model) ToggleFailures() {
	m.FailuresOnly = !m.FailuresOnly
	m.Offset = 0
}

func (m Model) visible() []Entry {
	if !m.FailuresOnly {
		return m.Entries
	}
	var out []Entry
	for _, e := range m.Entries {
		if e.failure() {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) ScrollUp(n int) {
	m.Offset = clamp(m.Offset+n, 0, len(m.visible())-1)
}

func (m *Model) ScrollDown(n int) {
	m.Offset = clamp(m.Offset-n, 0, len(m.visible())-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// View renders the log as an overlay panel of the given outer size.
func (m Model) View(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	rows := height - 6
	if rows < 3 {
		rows = 3
	}

	filter := "all"
	if m.FailuresOnly {
		filter = "failures"
	}
	title := theme.StyleHeader.Render(" EVENT LOG ") + " " + theme.StyleDimmed.Render(filter)
	hint := theme.StyleDimmed.Render(fmt.Sprintf("j/k scroll  f filter  esc close  %d entries", len(m.Entries)))
	panel := lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	entries := m.visible()
	if len(entries) == 0 {
		empty := theme.StyleDimmed.Render("  No events recorded yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", empty, "", hint))
	}

	end := len(entries) - m.Offset
	start := end - rows
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	msgWidth := inner - 22
	for i := start; i < end; i++ {
		e := entries[i]
		msg := e.Message
		if msgWidth > 3 && lipgloss.Width(msg) > msgWidth {
			r := []rune(msg)
			if len(r) > msgWidth-3 {
				r = r[:msgWidth-3]
			}
			msg = string(r) + "..."
		}
		fmt.Fprintf(&b, "%s %s %s",
			theme.StyleDimmed.Render(e.Time.Format("15:04:05.000")),
			lipgloss.NewStyle().Foreground(e.Kind.color()).Width(4).Render(e.Kind.String()),
			msg)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, b.String(), more, hint))
}
