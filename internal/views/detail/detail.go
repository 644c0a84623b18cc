// Package detail renders the collection detail overlay: schema, load
// progress and, for loaded collections, segments.
package detail

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/snapshot"
	"github.com/milvus-admin/console/internal/theme"
)

const (
	panelWidth  = 84
	barWidth    = 24
	labelWidth  = 14
	maxSegments = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay of one collection.
type Model struct {
	Name string

	details  *snapshot.Holder[*client.CollectionDetails]
	segments *snapshot.Holder[[]client.Segment]
	// segmentsApplicable is false while the collection is not loaded.
	segmentsApplicable bool
	progress           progress
}

// New creates a detail model for the named collection.
func New(name string) Model {
	return Model{
		Name:     name,
		details:  snapshot.New[*client.CollectionDetails](),
		segments: snapshot.New[[]client.Segment](),
		progress: newProgress(),
	}
}

// Apply records a refresh cycle. The returned command drives the progress
// animation and may be nil.
func (m *Model) Apply(res Result) tea.Cmd {
	if res.Name != m.Name {
		return nil
	}
	m.details.Record(res.Details, res.Err)
	if res.Err != nil {
		return nil
	}

	m.segmentsApplicable = res.SegmentsFetched
	if res.SegmentsFetched {
		m.segments.Record(res.Segments, res.SegmentsErr)
	} else {
		m.segments.Reset()
	}

	d := res.Details
	switch d.LoadState {
	case client.LoadStateLoaded:
		if m.progress.setTarget(1) {
			return frameCmd(m.Name)
		}
	case client.LoadStateLoading:
		pct := 0
		if d.LoadingProgress != nil {
			pct = *d.LoadingProgress
		}
		if m.progress.setTarget(float64(pct) / 100) {
			return frameCmd(m.Name)
		}
	default:
		m.progress.jump(0)
	}
	return nil
}

// Update advances the progress animation.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	f, ok := msg.(FrameMsg)
	if !ok || f.Name != m.Name {
		return nil
	}
	if m.progress.step() {
		return frameCmd(m.Name)
	}
	return nil
}

// Details returns the last successfully fetched details, if any.
func (m Model) Details() (*client.CollectionDetails, bool) {
	s := m.details.Get()
	if !s.HasValue || s.Value == nil {
		return nil, false
	}
	return s.Value, true
}

// Fields returns the schema of the last fetched details.
func (m Model) Fields() []client.Field {
	if d, ok := m.Details(); ok {
		return d.Schema
	}
	return nil
}

// View renders the detail panel.
func (m Model) View() string {
	return stylePanel.Width(panelWidth).Render(m.renderInner())
}

func (m Model) renderInner() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Collection: "+m.Name) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	ds := m.details.Get()
	if ds.Err != nil {
		msg := "! " + client.Message(ds.Err)
		if ds.Failures > 1 {
			msg += fmt.Sprintf(" (%d failures)", ds.Failures)
		}
		b.WriteString(theme.StyleError.Render(msg) + "\n")
	}
	if !ds.HasValue || ds.Value == nil {
		if ds.Err == nil {
			b.WriteString(theme.StyleDimmed.Render("Loading details...") + "\n")
		}
		b.WriteString("\n" + styleFooter.Render("[esc] close"))
		return b.String()
	}
	d := ds.Value

	if d.Description != "" {
		writeRow(&b, "Description", truncate(d.Description, panelWidth-labelWidth-4))
	}
	writeRow(&b, "State", theme.LoadStateBadge(d.LoadState.String()))
	if d.LoadState == client.LoadStateLoading || d.LoadState == client.LoadStateLoaded {
		p := m.progress.pos
		writeRow(&b, "Progress", renderBar(p, barWidth, theme.ProgressColor(p))+fmt.Sprintf(" %3.0f%%", p*100))
	}
	writeRow(&b, "Entities", fmt.Sprintf("%d", d.EntityCount))
	if d.IndexType != "" {
		writeRow(&b, "Index", d.IndexType)
	}
	if !ds.FetchedAt.IsZero() {
		writeRow(&b, "Refreshed", formatAge(ds.FetchedAt))
	}

	b.WriteString("\n")
	b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Schema (%d fields)", len(d.Schema))) + "\n")
	for _, f := range d.Schema {
		b.WriteString(renderField(f) + "\n")
	}

	if m.segmentsApplicable {
		ss := m.segments.Get()
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Segments (%d)", len(ss.Value))) + "\n")
		if ss.Err != nil {
			b.WriteString(theme.StyleError.Render("  ! "+client.Message(ss.Err)) + "\n")
		}
		for i, seg := range ss.Value {
			if i == maxSegments {
				b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("  … %d more", len(ss.Value)-maxSegments)) + "\n")
				break
			}
			b.WriteString(renderSegment(seg) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[l] load  [r] release  [x] drop index  [esc] close"))
	return b.String()
}

func renderField(f client.Field) string {
	name := f.Name
	if f.IsPrimary {
		name += " ★"
	}
	typ := f.Type
	switch {
	case f.Dim > 0:
		typ += fmt.Sprintf("(%d)", f.Dim)
	case f.MaxLength > 0:
		typ += fmt.Sprintf("(%d)", f.MaxLength)
	case f.ElementType != "":
		typ += "<" + f.ElementType + ">"
	}

	var extras []string
	if f.AutoID {
		extras = append(extras, "auto_id")
	}
	if f.IndexType != "" {
		extras = append(extras, "index:"+f.IndexType)
	}
	if f.Description != "" {
		extras = append(extras, truncate(f.Description, 24))
	}

	return fmt.Sprintf("  %-24s %s  %s",
		truncate(name, 24),
		lipgloss.NewStyle().Foreground(theme.FieldTypeColor(f.Type)).Width(22).Render(typ),
		theme.StyleDimmed.Render(strings.Join(extras, "  ")),
	)
}

func renderSegment(s client.Segment) string {
	line := fmt.Sprintf("  #%-20d rows:%-10d %-10s", s.SegmentID, s.NumRows, s.State)
	if s.IndexName != "" {
		line += " idx:" + s.IndexName
	}
	if len(s.NodeIDs) > 0 {
		nodes := make([]string, len(s.NodeIDs))
		for i, id := range s.NodeIDs {
			nodes[i] = fmt.Sprintf("%d", id)
		}
		line += " nodes:" + strings.Join(nodes, ",")
	}
	return line
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func renderBar(pct float64, width int, color lipgloss.Color) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	empty := width - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds ago", int(d.Minutes()), int(d.Seconds())%60)
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm ago", h, m)
	}
}
