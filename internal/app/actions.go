package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/schema"
	"github.com/milvus-admin/console/internal/views/confirm"
	"github.com/milvus-admin/console/internal/views/debug"
	"github.com/milvus-admin/console/internal/views/forms"
	"github.com/milvus-admin/console/internal/views/toast"
)

type (
	// schemaMsg carries the fields needed before a load or drop-index
	// request can be built.
	schemaMsg struct {
		kind   action.Kind
		name   string
		fields []client.Field
		err    error
	}
	actionDoneMsg struct {
		res action.Result
	}
)

var busyVerbs = map[action.Kind]string{
	action.Load:      "Loading",
	action.Release:   "Releasing",
	action.Drop:      "Dropping",
	action.Rename:    "Renaming",
	action.Create:    "Creating",
	action.Compact:   "Compacting",
	action.DropIndex: "Dropping index on",
}

// beginAction starts the flow for kind against target: straight dispatch,
// a form, a confirmation, or a schema read first.
func (m *Model) beginAction(kind action.Kind, target string) tea.Cmd {
	if !m.session.Connected() {
		return m.toast.Show(toast.Error, "Not connected")
	}
	if target == "" && kind != action.Create {
		return m.toast.Show(toast.Error, "No collection selected")
	}
	if m.busy != "" {
		return m.toast.Show(toast.Info, "Another action is still running")
	}

	switch kind {
	case action.Release, action.Compact:
		return m.dispatch(action.Request{Kind: kind, Target: target})
	case action.Drop:
		m.openConfirm(action.Request{Kind: kind, Target: target})
		return nil
	case action.Rename:
		m.renameForm = forms.NewRename(target)
		m.push(OverlayRename)
		return m.renameForm.Init()
	case action.Create:
		m.createForm = forms.NewCreate()
		m.push(OverlayCreate)
		return m.createForm.Init()
	case action.Load, action.DropIndex:
		return m.withSchema(kind, target)
	}
	return nil
}

// withSchema reuses the open detail view's schema when it matches, and
// otherwise reads it.
func (m *Model) withSchema(kind action.Kind, name string) tea.Cmd {
	if m.rt.detail != nil && m.detail.Name == name {
		if fields := m.detail.Fields(); len(fields) > 0 {
			return func() tea.Msg { return schemaMsg{kind: kind, name: name, fields: fields} }
		}
	}
	ctx, api, ep := m.rt.ctx, m.api, m.session.Endpoint
	return func() tea.Msg {
		d, err := api.CollectionDetails(ctx, ep, name)
		if err != nil {
			return schemaMsg{kind: kind, name: name, err: err}
		}
		return schemaMsg{kind: kind, name: name, fields: d.Schema}
	}
}

func (m *Model) applySchema(msg schemaMsg) tea.Cmd {
	switch msg.kind {
	case action.Load:
		if msg.err != nil {
			m.debug.Addf(debug.KindError, "schema for %s: %s; loading all fields", msg.name, client.Message(msg.err))
		}
		m.loadPicker = forms.NewLoadPicker(msg.name, msg.fields)
		m.push(OverlayLoad)
		return nil

	case action.DropIndex:
		if msg.err != nil {
			return m.toast.Show(toast.Error, client.Message(msg.err))
		}
		field := indexedField(msg.fields)
		if field == "" {
			return m.toast.Show(toast.Error, fmt.Sprintf("No indexed field on %s", msg.name))
		}
		m.openConfirm(action.Request{
			Kind:    action.DropIndex,
			Target:  msg.name,
			Payload: action.DropIndexPayload{FieldName: field},
		})
	}
	return nil
}

// indexedField picks the field whose index would be dropped: the first with
// a reported index, else the first vector field.
func indexedField(fields []client.Field) string {
	for _, f := range fields {
		if f.IndexType != "" {
			return f.Name
		}
	}
	for _, f := range fields {
		if schema.IsVector(f.Type) {
			return f.Name
		}
	}
	return ""
}

func (m *Model) openConfirm(req action.Request) {
	m.confirm = confirm.New(req)
	m.push(OverlayConfirm)
}

// dispatch sends req on a command goroutine. Destructive kinds only reach
// here through the confirmation dialog, which may have been answered after
// the session dropped.
func (m *Model) dispatch(req action.Request) tea.Cmd {
	if !m.session.Connected() {
		m.debug.Addf(debug.KindError, "%s %s: not connected", req.Kind, req.Target)
		return m.toast.Show(toast.Error, "Not connected")
	}
	m.busy = fmt.Sprintf("%s %s...", busyVerbs[req.Kind], req.Target)
	m.debug.Addf(debug.KindAction, "%s %s", req.Kind, req.Target)
	ctx, d, ep := m.rt.ctx, m.dispatcher, m.session.Endpoint
	return func() tea.Msg {
		return actionDoneMsg{res: d.Dispatch(ctx, ep, req)}
	}
}

func (m *Model) applyActionResult(res action.Result) tea.Cmd {
	m.busy = ""
	if !res.OK() {
		m.debug.Addf(debug.KindError, "%s %s: %s", res.Kind, res.Target, res.Message)
		m.logger.Warn("action failed",
			zap.String("kind", res.Kind.String()),
			zap.String("collection", res.Target),
			zap.String("message", res.Message))
		return tea.Batch(m.toast.Show(toast.Error, res.Message), m.refetchNow())
	}

	msg := res.Message
	if res.JobID != 0 {
		msg += fmt.Sprintf(" (job %d)", res.JobID)
	}
	m.debug.Add(debug.KindAction, msg)

	switch res.Kind {
	case action.Drop:
		if m.overlay == OverlayDetail && m.detail.Name == res.Target {
			m.closeOverlay()
		}
	case action.Rename:
		if m.overlay == OverlayDetail && m.detail.Name == res.Target {
			m.closeOverlay()
		}
		if p, ok := m.lastRename[res.Target]; ok {
			m.pendingSelect = p
			delete(m.lastRename, res.Target)
		}
	case action.Create:
		m.pendingSelect = res.Target
	}
	return tea.Batch(m.toast.Show(toast.Success, msg), m.refetchNow())
}
