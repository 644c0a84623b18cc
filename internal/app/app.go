// Package app is the root Bubble Tea model of the console. It owns no
// session state: it subscribes to the session manager, mounts a polling
// refresher per visible view and routes actions through the dispatcher.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/poll"
	"github.com/milvus-admin/console/internal/session"
	"github.com/milvus-admin/console/internal/snapshot"
	"github.com/milvus-admin/console/internal/theme"
	"github.com/milvus-admin/console/internal/views/collections"
	"github.com/milvus-admin/console/internal/views/confirm"
	"github.com/milvus-admin/console/internal/views/debug"
	"github.com/milvus-admin/console/internal/views/detail"
	"github.com/milvus-admin/console/internal/views/forms"
	"github.com/milvus-admin/console/internal/views/help"
	"github.com/milvus-admin/console/internal/views/indexing"
	"github.com/milvus-admin/console/internal/views/status"
	"github.com/milvus-admin/console/internal/views/toast"
)

// Session is the part of the session manager the console drives.
type Session interface {
	Subscribe() (<-chan session.State, func())
	Connect(host string, port int)
	Disconnect()
}

// API is the read side of the admin client.
type API interface {
	ListCollections(ctx context.Context, ep client.Endpoint) ([]client.Collection, error)
	Indexing(ctx context.Context, ep client.Endpoint) ([]client.IndexingStatus, error)
	detail.API
}

// Dispatcher sends lifecycle actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, ep client.Endpoint, req action.Request) action.Result
}

// Options configures the console.
type Options struct {
	AdminURL        string
	RefreshInterval time.Duration
	// DefaultEndpoint is the target of the connection form's auto mode.
	DefaultEndpoint client.Endpoint
	// HelpStyle is a glamour style name; empty means "dark".
	HelpStyle   string
	PollOptions []poll.Option
	Logger      *zap.Logger
}

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayIndexing
	OverlayDebug
	OverlayHelp
	OverlayConnect
	OverlayRename
	OverlayCreate
	OverlayLoad
	OverlayConfirm
)

// Model is the root Bubble Tea model.
type Model struct {
	sess       Session
	api        API
	dispatcher Dispatcher
	opts       Options
	logger     *zap.Logger
	rt         *runtime

	keys   KeyMap
	width  int
	height int

	overlay  Overlay
	returnTo Overlay

	session         session.State
	promptedConnect bool

	listEp    client.Endpoint
	listGen   uint64
	detailGen uint64
	indexGen  uint64

	collectionsHolder *snapshot.Holder[[]client.Collection]
	indexHolder       *snapshot.Holder[[]client.IndexingStatus]

	busy          string
	pendingSelect string
	lastRename    map[string]string

	// Sub-views.
	statusBar   status.Model
	list        collections.Model
	detail      detail.Model
	indexing    indexing.Model
	debug       debug.Model
	help        help.Model
	toast       toast.Model
	spinner     spinner.Model
	connectForm forms.Connect
	renameForm  forms.Rename
	createForm  forms.Create
	loadPicker  forms.LoadPicker
	confirm     confirm.Model
}

// New creates the root model and subscribes to the session.
func New(sess Session, api API, dispatcher Dispatcher, opts Options) Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	if !opts.DefaultEndpoint.Valid() {
		opts.DefaultEndpoint = client.Endpoint{Host: "localhost", Port: 19530}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, unsub := sess.Subscribe()
	keys := DefaultKeyMap()

	return Model{
		sess:       sess,
		api:        api,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		rt: &runtime{
			ctx:    ctx,
			cancel: cancel,
			events: make(chan tea.Msg, 64),
			sub:    sub,
			unsub:  unsub,
		},
		keys:              keys,
		collectionsHolder: snapshot.New[[]client.Collection](),
		indexHolder:       snapshot.New[[]client.IndexingStatus](),
		lastRename:        make(map[string]string),
		statusBar:         status.New(opts.AdminURL),
		list:              collections.New(),
		debug:             debug.New(),
		help:              help.New(opts.HelpStyle, keys.HelpSections()...),
		spinner:           spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init starts listening for session changes and refresher results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitSession(m.rt.sub),
		waitEvent(m.rt),
		m.spinner.Tick,
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.list.Width = msg.Width
		m.list.Height = msg.Height - 8
		m.help.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, waitEvent(m.rt))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Spinner = m.spinner.View()
		return m, cmd

	case sessionMsg:
		if !msg.ok {
			return m, nil
		}
		cmd := m.applySession(msg.state)
		return m, tea.Batch(cmd, waitSession(m.rt.sub))

	case collectionsMsg:
		if msg.gen != m.listGen {
			return m, nil
		}
		m.collectionsHolder.Record(msg.cols, msg.err)
		m.applyCollections()
		if msg.err != nil {
			m.debug.Addf(debug.KindFetch, "collections: %s", client.Message(msg.err))
			m.logger.Warn("collections refresh failed", zap.Error(msg.err))
		}
		return m, nil

	case detailMsg:
		if msg.gen != m.detailGen {
			return m, nil
		}
		if msg.res.Err != nil {
			m.debug.Addf(debug.KindFetch, "details %s: %s", msg.res.Name, client.Message(msg.res.Err))
		} else if msg.res.SegmentsErr != nil {
			m.debug.Addf(debug.KindFetch, "segments %s: %s", msg.res.Name, client.Message(msg.res.SegmentsErr))
		}
		return m, m.detail.Apply(msg.res)

	case detail.FrameMsg:
		return m, m.detail.Update(msg)

	case indexingMsg:
		if msg.gen != m.indexGen {
			return m, nil
		}
		m.indexHolder.Record(msg.rows, msg.err)
		m.indexing.SetState(m.indexHolder.Get())
		if msg.err != nil {
			m.debug.Addf(debug.KindFetch, "indexing: %s", client.Message(msg.err))
		}
		return m, nil

	case schemaMsg:
		return m, m.applySchema(msg)

	case actionDoneMsg:
		return m, m.applyActionResult(msg.res)

	case toast.ExpireMsg:
		m.toast.Expire(msg)
		return m, nil

	case forms.ConnectMsg:
		m.pop()
		m.debug.Addf(debug.KindSession, "connect %s:%d", msg.Host, msg.Port)
		m.sess.Connect(msg.Host, msg.Port)
		return m, nil

	case forms.SubmitMsg:
		m.pop()
		if p, ok := msg.Request.Payload.(action.RenamePayload); ok {
			m.lastRename[msg.Request.Target] = p.NewName
		}
		return m, m.dispatch(msg.Request)

	case forms.CancelMsg, confirm.CancelledMsg:
		m.pop()
		return m, nil

	case confirm.ConfirmedMsg:
		m.pop()
		return m, m.dispatch(msg.Request)
	}

	return m, m.forwardToForm(msg)
}

// forwardToForm passes cursor blinks and similar messages to the active
// input overlay.
func (m *Model) forwardToForm(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.overlay {
	case OverlayConnect:
		m.connectForm, cmd = m.connectForm.Update(msg)
	case OverlayRename:
		m.renameForm, cmd = m.renameForm.Update(msg)
	case OverlayCreate:
		m.createForm, cmd = m.createForm.Update(msg)
	}
	return cmd
}

func (m *Model) applySession(s session.State) tea.Cmd {
	prev := m.session
	m.session = s
	m.statusBar.Session = s
	if prev.Status != s.Status || prev.Endpoint != s.Endpoint {
		m.debug.Addf(debug.KindSession, "%s → %s %s", prev.Status, s.Status, s.Endpoint)
	}

	var cmd tea.Cmd
	if s.Connected() {
		if m.rt.list == nil || m.listEp != s.Endpoint {
			if m.listEp != s.Endpoint {
				m.collectionsHolder.Reset()
				m.applyCollections()
				m.closeViews()
			}
			m.mountList(s.Endpoint)
		}
		if prev.Status != session.Connected {
			cmd = m.toast.Show(toast.Success, s.Label())
		}
	} else {
		m.unmountList()
		m.closeViews()
		if s.Status == session.Failed && prev.Status == session.Connecting {
			msg := "Connection error"
			if s.LastError != "" {
				msg += ": " + s.LastError
			}
			cmd = m.toast.Show(toast.Error, msg)
		}
	}

	if s.Status == session.Disconnected && !m.promptedConnect && m.overlay == OverlayNone {
		m.promptedConnect = true
		return tea.Batch(cmd, m.openConnect())
	}
	return cmd
}

func (m *Model) applyCollections() {
	st := m.collectionsHolder.Get()
	m.list.SetState(st)
	if m.pendingSelect != "" && st.Err == nil && st.HasValue {
		m.list.Select(m.pendingSelect)
		m.pendingSelect = ""
	}
	m.statusBar.Collections = len(st.Value)
	m.statusBar.RefreshedAt = st.FetchedAt
	m.statusBar.Failures = st.Failures
}

func (m *Model) openConnect() tea.Cmd {
	m.connectForm = forms.NewConnect(m.session.Endpoint, m.opts.DefaultEndpoint)
	m.push(OverlayConnect)
	return m.connectForm.Init()
}

// push opens an overlay, remembering which one to return to.
func (m *Model) push(o Overlay) {
	m.returnTo = m.overlay
	m.overlay = o
}

// pop closes a form or dialog, returning to the overlay that opened it if
// that overlay is still mounted.
func (m *Model) pop() {
	m.overlay = m.returnTo
	m.returnTo = OverlayNone
	if m.overlay == OverlayDetail && m.rt.detail == nil {
		m.overlay = OverlayNone
	}
}

func (m *Model) closeOverlay() {
	switch m.overlay {
	case OverlayDetail:
		m.unmountDetail()
	case OverlayIndexing:
		m.unmountIndexing()
	}
	m.overlay = OverlayNone
	m.returnTo = OverlayNone
}

// closeViews unmounts the detail and indexing views, including one that is
// hidden under a form or dialog.
func (m *Model) closeViews() {
	m.unmountDetail()
	m.unmountIndexing()
	switch {
	case m.overlay == OverlayDetail || m.overlay == OverlayIndexing:
		m.overlay = OverlayNone
		m.returnTo = OverlayNone
	case m.returnTo == OverlayDetail || m.returnTo == OverlayIndexing:
		m.returnTo = OverlayNone
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.rt.stopAll()
	m.rt.unsub()
	m.rt.cancel()
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	var cmd tea.Cmd
	switch m.overlay {
	case OverlayConnect:
		m.connectForm, cmd = m.connectForm.Update(msg)
		return m, cmd
	case OverlayRename:
		m.renameForm, cmd = m.renameForm.Update(msg)
		return m, cmd
	case OverlayCreate:
		m.createForm, cmd = m.createForm.Update(msg)
		return m, cmd
	case OverlayLoad:
		m.loadPicker, cmd = m.loadPicker.Update(msg)
		return m, cmd
	case OverlayConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	case OverlayDetail:
		return m.handleDetailKey(msg)
	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.closeOverlay()
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp):
			m.debug.ScrollUp(5)
		case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.PageDown):
			m.debug.ScrollDown(5)
		case key.Matches(msg, m.keys.Filter):
			m.debug.ToggleFailures()
		}
		return m, nil
	case OverlayIndexing, OverlayHelp:
		switch {
		case key.Matches(msg, m.keys.Escape),
			key.Matches(msg, m.keys.Indexing) && m.overlay == OverlayIndexing,
			key.Matches(msg, m.keys.Help) && m.overlay == OverlayHelp:
			m.closeOverlay()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refetchNow()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	selected := ""
	if c, ok := m.list.Selected(); ok {
		selected = c.Name
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Down):
		m.list.Down()
	case key.Matches(msg, m.keys.Up):
		m.list.Up()
	case key.Matches(msg, m.keys.Enter):
		if selected != "" && m.session.Connected() {
			m.mountDetail(selected)
			m.overlay = OverlayDetail
		}
	case key.Matches(msg, m.keys.Connect):
		return m, m.openConnect()
	case key.Matches(msg, m.keys.Disconnect):
		m.sess.Disconnect()
		return m, m.toast.Show(toast.Info, "Disconnected; saved endpoint cleared")
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refetchNow()
	case key.Matches(msg, m.keys.Indexing):
		if !m.session.Connected() {
			return m, m.toast.Show(toast.Error, "Not connected")
		}
		m.mountIndexing()
		m.overlay = OverlayIndexing
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
	case key.Matches(msg, m.keys.Create):
		return m, m.beginAction(action.Create, "")
	default:
		if kind, ok := m.actionKey(msg); ok {
			return m, m.beginAction(kind, selected)
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.closeOverlay()
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refetchNow()
	}
	if kind, ok := m.actionKey(msg); ok {
		return m, m.beginAction(kind, m.detail.Name)
	}
	return m, nil
}

// actionKey maps the per-collection action bindings to kinds.
func (m Model) actionKey(msg tea.KeyMsg) (action.Kind, bool) {
	switch {
	case key.Matches(msg, m.keys.Load):
		return action.Load, true
	case key.Matches(msg, m.keys.Release):
		return action.Release, true
	case key.Matches(msg, m.keys.Drop):
		return action.Drop, true
	case key.Matches(msg, m.keys.Rename):
		return action.Rename, true
	case key.Matches(msg, m.keys.Compact):
		return action.Compact, true
	case key.Matches(msg, m.keys.DropIndex):
		return action.DropIndex, true
	}
	return 0, false
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.statusBar.View()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	var body string
	if ov := m.overlayView(); ov != "" {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, ov)
	} else if m.session.Connected() || m.collectionsHolder.Get().HasValue {
		body = m.list.View()
	} else {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			theme.StyleDimmed.Render("Not connected. Press s to choose a Milvus endpoint."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) overlayView() string {
	switch m.overlay {
	case OverlayDetail:
		return m.detail.View()
	case OverlayIndexing:
		return m.indexing.View()
	case OverlayDebug:
		h := m.height - 8
		if h < 10 {
			h = 10
		}
		return m.debug.View(m.width-4, h)
	case OverlayHelp:
		return m.help.View()
	case OverlayConnect:
		return m.connectForm.View()
	case OverlayRename:
		return m.renameForm.View()
	case OverlayCreate:
		return m.createForm.View()
	case OverlayLoad:
		return m.loadPicker.View()
	case OverlayConfirm:
		return m.confirm.View()
	}
	return ""
}

func (m Model) renderFooter() string {
	var lines []string
	if t := m.toast.View(); t != "" {
		lines = append(lines, t)
	}
	if m.busy != "" {
		lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), m.busy))
	}
	lines = append(lines, theme.StyleDimmed.Render(
		"  j/k:navigate  enter:detail  l:load  r:release  D:drop  n:rename  c:create  C:compact  x:drop index  i:indexing  s:connect  ?:help  q:quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
