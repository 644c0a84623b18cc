package forms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/schema"
	"github.com/milvus-admin/console/internal/theme"
)

// LoadPicker chooses which fields of a collection to load. Primary fields
// stay selected.
type LoadPicker struct {
	keys      KeyMap
	toggle    key.Binding
	toggleAll key.Binding
	name      string
	sel       *schema.Selection
	cursor    int
}

func NewLoadPicker(name string, fields []client.Field) LoadPicker {
	return LoadPicker{
		keys: DefaultKeyMap(),
		toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle field"),
		),
		toggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		name: name,
		sel:  schema.NewSelection(fields),
	}
}

// Selection exposes the current field selection.
func (p LoadPicker) Selection() *schema.Selection { return p.sel }

func (p LoadPicker) Update(msg tea.Msg) (LoadPicker, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	fields := p.sel.Fields()
	switch {
	case key.Matches(k, p.keys.Cancel):
		return p, emit(CancelMsg{})
	case key.Matches(k, p.keys.Submit):
		return p, emit(SubmitMsg{Request: action.Request{
			Kind:    action.Load,
			Target:  p.name,
			Payload: action.LoadPayload{Fields: p.sel.Request()},
		}})
	case key.Matches(k, p.keys.Next), k.String() == "j":
		if len(fields) > 0 {
			p.cursor = (p.cursor + 1) % len(fields)
		}
	case key.Matches(k, p.keys.Prev), k.String() == "k":
		if len(fields) > 0 {
			p.cursor = (p.cursor - 1 + len(fields)) % len(fields)
		}
	case key.Matches(k, p.toggle):
		if p.cursor < len(fields) {
			p.sel.Toggle(fields[p.cursor].Name)
		}
	case key.Matches(k, p.toggleAll):
		p.sel.ToggleAll()
	}
	return p, nil
}

func (p LoadPicker) View() string {
	var b strings.Builder
	fields := p.sel.Fields()
	if len(fields) == 0 {
		b.WriteString(theme.StyleDimmed.Render("Schema not available; all fields will be loaded."))
	}
	for i, f := range fields {
		box := "[ ]"
		if p.sel.Selected(f.Name) {
			box = "[x]"
		}
		name := f.Name
		if p.sel.Locked(f.Name) {
			name += theme.StyleDimmed.Render(" (primary, always loaded)")
		}
		line := fmt.Sprintf("%s %s %s", box, name,
			lipgloss.NewStyle().Foreground(theme.FieldTypeColor(f.Type)).Render(f.Type))
		if i == p.cursor {
			line = theme.StyleKey.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	summary := "all fields"
	if !p.sel.AllSelected() {
		summary = fmt.Sprintf("%d of %d fields", len(p.sel.Request()), len(fields))
	}
	b.WriteString("\n" + styleHint.Render("Loading "+summary))
	return renderPanel("Load "+p.name, b.String(), "", "[space] toggle  [a] all  [enter] load  [esc] cancel")
}
