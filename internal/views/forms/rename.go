package forms

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/milvus-admin/console/internal/action"
)

// Rename asks for a new collection name.
type Rename struct {
	keys  KeyMap
	old   string
	input textinput.Model
	err   string
}

func NewRename(old string) Rename {
	return Rename{
		keys:  DefaultKeyMap(),
		old:   old,
		input: newInput("new name", old, 255),
	}
}

func (r *Rename) Init() tea.Cmd {
	return r.input.Focus()
}

func (r Rename) Update(msg tea.Msg) (Rename, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, r.keys.Cancel):
			return r, emit(CancelMsg{})
		case key.Matches(k, r.keys.Submit):
			name := strings.TrimSpace(r.input.Value())
			switch {
			case name == "":
				r.err = "new name is required"
				return r, nil
			case name == r.old:
				r.err = "new name must differ from the current name"
				return r, nil
			}
			return r, emit(SubmitMsg{Request: action.Request{
				Kind:    action.Rename,
				Target:  r.old,
				Payload: action.RenamePayload{NewName: name},
			}})
		}
	}
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r Rename) View() string {
	body := styleLabel.Render("Current:") + r.old + "\n" +
		styleLabel.Render("New name:") + r.input.View()
	return renderPanel("Rename Collection", body, r.err, "[enter] rename  [esc] cancel")
}
