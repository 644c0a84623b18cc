package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/milvus-admin/console/internal/action"
	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/poll"
	"github.com/milvus-admin/console/internal/session"
)

var db1 = client.Endpoint{Host: "db1", Port: 19530}

type fakeSession struct {
	mu          sync.Mutex
	ch          chan session.State
	connects    []client.Endpoint
	disconnects int
}

func (f *fakeSession) Subscribe() (<-chan session.State, func()) { return f.ch, func() {} }

func (f *fakeSession) Connect(host string, port int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, client.Endpoint{Host: host, Port: port})
}

func (f *fakeSession) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

type fakeAPI struct {
	mu           sync.Mutex
	cols         []client.Collection
	details      client.CollectionDetails
	listCalls    int
	detailCalls  int
	segmentCalls int
}

func (f *fakeAPI) ListCollections(context.Context, client.Endpoint) ([]client.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]client.Collection(nil), f.cols...), nil
}

func (f *fakeAPI) Indexing(context.Context, client.Endpoint) ([]client.IndexingStatus, error) {
	return nil, nil
}

func (f *fakeAPI) CollectionDetails(_ context.Context, _ client.Endpoint, name string) (*client.CollectionDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	d := f.details
	d.Name = name
	return &d, nil
}

func (f *fakeAPI) Segments(context.Context, client.Endpoint, string) ([]client.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segmentCalls++
	return nil, nil
}

func (f *fakeAPI) calls() (list, details int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.detailCalls
}

type fakeDispatcher struct {
	mu   sync.Mutex
	reqs []action.Request
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ client.Endpoint, req action.Request) action.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return action.Result{Kind: req.Kind, Target: req.Target, Status: action.StatusSuccess, Message: "done"}
}

func (f *fakeDispatcher) requests() []action.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]action.Request(nil), f.reqs...)
}

type fixture struct {
	sess *fakeSession
	api  *fakeAPI
	disp *fakeDispatcher
}

func newTestModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	fx := &fixture{
		sess: &fakeSession{ch: make(chan session.State, 8)},
		api: &fakeAPI{
			cols: []client.Collection{{Name: "docs", Loaded: client.LoadStateLoaded}, {Name: "raw"}},
			details: client.CollectionDetails{
				LoadState: client.LoadStateLoaded,
				Schema: []client.Field{
					{Name: "id", Type: "int64", IsPrimary: true},
					{Name: "embedding", Type: "float_vector", Dim: 8, IndexType: "HNSW"},
				},
			},
		},
		disp: &fakeDispatcher{},
	}
	m := New(fx.sess, fx.api, fx.disp, Options{
		HelpStyle: "notty",
		PollOptions: []poll.Option{poll.WithTicker(func(time.Duration) poll.Ticker {
			return poll.NewManualTicker()
		})},
	})
	t.Cleanup(func() {
		m.rt.stopAll()
		m.rt.cancel()
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m, fx
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	return update(m, msg)
}

// run executes cmd and returns the messages it produces promptly. Commands
// that wait on timers are abandoned.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, run(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// apply feeds every message produced by cmd back into the model, following
// the commands those messages return.
func apply(m Model, cmd tea.Cmd) Model {
	for _, msg := range run(cmd) {
		var next tea.Cmd
		m, next = update(m, msg)
		m = apply(m, next)
	}
	return m
}

func nextEvent(t *testing.T, m Model) tea.Msg {
	t.Helper()
	select {
	case msg := <-m.rt.events:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a refresher result")
		return nil
	}
}

func connected(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(m, sessionMsg{state: session.State{Status: session.Connected, Endpoint: db1}, ok: true})
	if m.rt.list == nil {
		t.Fatal("collections refresher not mounted")
	}
	m, _ = update(m, nextEvent(t, m))
	return m
}

func TestDisconnectedPromptsConnectForm(t *testing.T) {
	m, fx := newTestModel(t)
	m, _ = update(m, sessionMsg{state: session.State{Status: session.Disconnected}, ok: true})
	if m.overlay != OverlayConnect {
		t.Fatalf("overlay = %v, want connect form", m.overlay)
	}

	m, cmd := press(m, "enter")
	m = apply(m, cmd)
	if m.overlay != OverlayNone {
		t.Errorf("form should close after submit, overlay = %v", m.overlay)
	}
	if len(fx.sess.connects) != 1 || fx.sess.connects[0] != (client.Endpoint{Host: "localhost", Port: 19530}) {
		t.Errorf("connects = %v", fx.sess.connects)
	}
}

func TestConnectedMountsCollections(t *testing.T) {
	m, _ := newTestModel(t)
	m = connected(t, m)
	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("items = %d, want 2", got)
	}
	if m.statusBar.Collections != 2 {
		t.Errorf("status bar count = %d", m.statusBar.Collections)
	}
	v := m.View()
	for _, want := range []string{"Connected to db1:19530", "docs", "raw"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestResultsFromOldMountAreDropped(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(m, sessionMsg{state: session.State{Status: session.Connected, Endpoint: db1}, ok: true})
	gen := m.listGen

	m, _ = update(m, sessionMsg{state: session.State{Status: session.Failed, Endpoint: db1}, ok: true})
	if m.rt.list != nil {
		t.Fatal("refresher should stop when the session fails")
	}
	m, _ = update(m, collectionsMsg{gen: gen, cols: []client.Collection{{Name: "late"}}})
	if len(m.list.Items()) != 0 {
		t.Errorf("stale result was applied: %v", m.list.Items())
	}
}

func TestDropNeedsConfirmation(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)

	m, _ = press(m, "D")
	if m.overlay != OverlayConfirm {
		t.Fatalf("overlay = %v, want confirm", m.overlay)
	}
	m, cmd := press(m, "n")
	m = apply(m, cmd)
	if m.overlay != OverlayNone {
		t.Errorf("overlay after cancel = %v", m.overlay)
	}
	if n := len(fx.disp.requests()); n != 0 {
		t.Fatalf("dispatched %d requests without confirmation", n)
	}

	listBefore, _ := fx.api.calls()
	m, _ = press(m, "D")
	m, cmd = press(m, "y")
	m = apply(m, cmd) // ConfirmedMsg -> dispatch command
	reqs := fx.disp.requests()
	if len(reqs) != 1 || reqs[0].Kind != action.Drop || reqs[0].Target != "docs" {
		t.Fatalf("requests = %+v", reqs)
	}
	if m.busy != "" {
		t.Errorf("busy = %q after completion", m.busy)
	}
	if listAfter, _ := fx.api.calls(); listAfter <= listBefore {
		t.Error("collections were not re-fetched after the action")
	}
}

func TestReleaseDispatchesDirectly(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)
	m, cmd := press(m, "r")
	if m.busy == "" {
		t.Error("busy indicator not set")
	}
	m = apply(m, cmd)
	reqs := fx.disp.requests()
	if len(reqs) != 1 || reqs[0].Kind != action.Release {
		t.Fatalf("requests = %+v", reqs)
	}
	if !strings.Contains(m.toast.Text(), "done") {
		t.Errorf("toast = %q", m.toast.Text())
	}
}

func TestActionsNeedConnection(t *testing.T) {
	m, fx := newTestModel(t)
	m, _ = press(m, "r")
	if len(fx.disp.requests()) != 0 {
		t.Fatal("dispatched while disconnected")
	}
	if m.toast.Text() != "Not connected" {
		t.Errorf("toast = %q", m.toast.Text())
	}
}

func TestDetailMountAndUnmount(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)

	m, _ = press(m, "enter")
	if m.overlay != OverlayDetail || m.rt.detail == nil {
		t.Fatal("detail not mounted")
	}
	m, _ = update(m, nextEvent(t, m))
	if _, ok := m.detail.Details(); !ok {
		t.Fatal("detail result not applied")
	}
	fx.api.mu.Lock()
	segs := fx.api.segmentCalls
	fx.api.mu.Unlock()
	if segs != 1 {
		t.Errorf("segment calls = %d, want 1 for a loaded collection", segs)
	}

	gen := m.detailGen
	m, _ = press(m, "esc")
	if m.rt.detail != nil || m.overlay != OverlayNone {
		t.Fatal("detail not unmounted")
	}
	if m.detailGen == gen {
		t.Error("generation not bumped on unmount")
	}
}

func TestLoadFromDetailUsesSchema(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)
	m, _ = press(m, "enter")
	m, _ = update(m, nextEvent(t, m))
	_, detailsBefore := fx.api.calls()

	m, cmd := press(m, "l")
	m = apply(m, cmd)
	if m.overlay != OverlayLoad {
		t.Fatalf("overlay = %v, want load picker", m.overlay)
	}
	if _, after := fx.api.calls(); after != detailsBefore {
		t.Error("schema was re-fetched although the detail view had it")
	}

	m, cmd = press(m, "enter")
	m = apply(m, cmd) // SubmitMsg -> dispatch
	if m.overlay != OverlayDetail {
		t.Errorf("should return to detail, overlay = %v", m.overlay)
	}
	reqs := fx.disp.requests()
	if len(reqs) != 1 || reqs[0].Kind != action.Load || reqs[0].Target != "docs" {
		t.Fatalf("requests = %+v", reqs)
	}
	if p := reqs[0].Payload.(action.LoadPayload); p.Fields != nil {
		t.Errorf("all fields selected should send no list, got %v", p.Fields)
	}
}

func TestDropIndexConfirmsIndexedField(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)
	m, cmd := press(m, "x")
	m = apply(m, cmd)
	if m.overlay != OverlayConfirm {
		t.Fatalf("overlay = %v, want confirm", m.overlay)
	}
	m, cmd = press(m, "y")
	apply(m, cmd)
	reqs := fx.disp.requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %+v", reqs)
	}
	if p := reqs[0].Payload.(action.DropIndexPayload); p.FieldName != "embedding" {
		t.Errorf("field = %q", p.FieldName)
	}
}

func TestQuitStopsRefreshers(t *testing.T) {
	m, _ := newTestModel(t)
	m = connected(t, m)
	r := m.rt.list
	_, cmd := press(m, "q")
	if !r.Stopped() {
		t.Error("refresher still running after quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestSessionLossClosesDetailUnderDialog(t *testing.T) {
	m, fx := newTestModel(t)
	m = connected(t, m)
	m, _ = press(m, "enter")
	m, _ = update(m, nextEvent(t, m))

	m, _ = press(m, "D")
	if m.overlay != OverlayConfirm {
		t.Fatalf("overlay = %v, want confirm", m.overlay)
	}
	gen := m.detailGen
	m, _ = update(m, sessionMsg{state: session.State{Status: session.Failed, Endpoint: db1, LastError: "refused"}, ok: true})
	if m.rt.detail != nil {
		t.Fatal("detail refresher still running after the session failed")
	}
	if m.detailGen == gen {
		t.Error("generation not bumped")
	}

	m, cmd := press(m, "y")
	m = apply(m, cmd)
	if n := len(fx.disp.requests()); n != 0 {
		t.Fatalf("dispatched %d requests while the session was failed", n)
	}
	if m.overlay != OverlayNone {
		t.Errorf("overlay = %v, want none", m.overlay)
	}
	if m.toast.Text() != "Not connected" {
		t.Errorf("toast = %q", m.toast.Text())
	}
}
