package forms

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/schema"
)

const (
	createName = iota
	createDescription
	createFields
)

// Create collects a collection name, description and schema. Fields are
// entered as space-separated name:type[:options] descriptions.
type Create struct {
	keys   KeyMap
	inputs []textinput.Model
	focus  int
	err    string
}

func NewCreate() Create {
	var defs []string
	for _, f := range schema.DefaultFields() {
		defs = append(defs, schema.FormatField(f))
	}
	return Create{
		keys: DefaultKeyMap(),
		inputs: []textinput.Model{
			newInput("collection name", "", 255),
			newInput("optional", "", 1024),
			newInput("name:type[:options] ...", strings.Join(defs, " "), 4096),
		},
	}
}

func (c *Create) Init() tea.Cmd {
	return focusInputs(c.inputs, c.focus)
}

func (c Create) Update(msg tea.Msg) (Create, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, c.keys.Cancel):
			return c, emit(CancelMsg{})
		case key.Matches(k, c.keys.Next):
			c.focus = (c.focus + 1) % len(c.inputs)
			return c, focusInputs(c.inputs, c.focus)
		case key.Matches(k, c.keys.Prev):
			c.focus = (c.focus - 1 + len(c.inputs)) % len(c.inputs)
			return c, focusInputs(c.inputs, c.focus)
		case key.Matches(k, c.keys.Submit):
			req, err := c.request()
			if err != nil {
				c.err = err.Error()
				return c, nil
			}
			return c, emit(SubmitMsg{Request: action.Request{
				Kind:    action.Create,
				Target:  req.Name,
				Payload: action.CreatePayload{Description: req.Description, Fields: req.Fields},
			}})
		}
	}
	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	return c, cmd
}

func (c Create) request() (client.CreateRequest, error) {
	fields, err := schema.ParseFields(c.inputs[createFields].Value())
	if err != nil {
		return client.CreateRequest{}, err
	}
	req := client.CreateRequest{
		Name:        strings.TrimSpace(c.inputs[createName].Value()),
		Description: strings.TrimSpace(c.inputs[createDescription].Value()),
		Fields:      fields,
	}
	return req, schema.ValidateCreate(req)
}

func (c Create) View() string {
	body := styleLabel.Render("Name:") + c.inputs[createName].View() + "\n" +
		styleLabel.Render("Description:") + c.inputs[createDescription].View() + "\n" +
		styleLabel.Render("Fields:") + c.inputs[createFields].View() + "\n\n" +
		styleHint.Render("types: "+strings.Join(schema.Types, " ")) + "\n" +
		styleHint.Render("options: primary auto_id dim=N max_length=N element=TYPE")
	return renderPanel("Create Collection", body, c.err, "[enter] create  [tab] next field  [esc] cancel")
}
