package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/milvus-admin/console/internal/client"
)

// Connect is the connection form. In auto mode it targets the default
// endpoint and ignores the inputs.
type Connect struct {
	keys     KeyMap
	toggle   key.Binding
	auto     bool
	fallback client.Endpoint
	inputs   []textinput.Model
	focus    int
	err      string
}

// NewConnect builds the form. current pre-fills manual mode; fallback is the
// auto-mode target. Auto mode is preselected when current is not valid.
func NewConnect(current, fallback client.Endpoint) Connect {
	host, port := current.Host, current.Port
	if !current.Valid() {
		host, port = fallback.Host, fallback.Port
	}
	c := Connect{
		keys: DefaultKeyMap(),
		toggle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "auto/manual"),
		),
		auto:     !current.Valid(),
		fallback: fallback,
		inputs: []textinput.Model{
			newInput("localhost", host, 253),
			newInput("19530", strconv.Itoa(port), 5),
		},
	}
	return c
}

// Auto reports whether auto mode is selected.
func (c Connect) Auto() bool { return c.auto }

// Init focuses the first input.
func (c *Connect) Init() tea.Cmd {
	if c.auto {
		return nil
	}
	return focusInputs(c.inputs, c.focus)
}

func (c Connect) Update(msg tea.Msg) (Connect, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
		return c, cmd
	}

	switch {
	case key.Matches(k, c.keys.Cancel):
		return c, emit(CancelMsg{})
	case key.Matches(k, c.toggle):
		c.auto = !c.auto
		c.err = ""
		if c.auto {
			focusInputs(c.inputs, -1)
			return c, nil
		}
		return c, focusInputs(c.inputs, c.focus)
	case key.Matches(k, c.keys.Submit):
		ep, err := c.endpoint()
		if err != nil {
			c.err = err.Error()
			return c, nil
		}
		return c, emit(ConnectMsg{Host: ep.Host, Port: ep.Port})
	case c.auto:
		return c, nil
	case key.Matches(k, c.keys.Next):
		c.focus = (c.focus + 1) % len(c.inputs)
		return c, focusInputs(c.inputs, c.focus)
	case key.Matches(k, c.keys.Prev):
		c.focus = (c.focus - 1 + len(c.inputs)) % len(c.inputs)
		return c, focusInputs(c.inputs, c.focus)
	}

	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	return c, cmd
}

func (c Connect) endpoint() (client.Endpoint, error) {
	if c.auto {
		return c.fallback, nil
	}
	host := strings.TrimSpace(c.inputs[0].Value())
	if host == "" {
		return client.Endpoint{}, fmt.Errorf("host is required")
	}
	port, err := strconv.Atoi(strings.TrimSpace(c.inputs[1].Value()))
	if err != nil || port < 1 || port > 65535 {
		return client.Endpoint{}, fmt.Errorf("port must be between 1 and 65535")
	}
	return client.Endpoint{Host: host, Port: port}, nil
}

func (c Connect) View() string {
	var body string
	if c.auto {
		body = "Mode:         " + "● auto  ○ manual\n\n" +
			styleLabel.Render("Target:") + c.fallback.String()
	} else {
		body = "Mode:         " + "○ auto  ● manual\n\n" +
			styleLabel.Render("Host:") + c.inputs[0].View() + "\n" +
			styleLabel.Render("Port:") + c.inputs[1].View()
	}
	return renderPanel("Connect to Milvus", body, c.err, "[enter] connect  [ctrl+t] auto/manual  [tab] next  [esc] cancel")
}
