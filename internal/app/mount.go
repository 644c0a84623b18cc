package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/poll"
	"github.com/milvus-admin/console/internal/session"
	"github.com/milvus-admin/console/internal/views/detail"
)

// Messages produced by refreshers and one-shot fetches. Every fetch result
// carries the generation of the mount that requested it; results from an
// older mount are dropped.
type (
	sessionMsg struct {
		state session.State
		ok    bool
	}
	collectionsMsg struct {
		gen  uint64
		cols []client.Collection
		err  error
	}
	detailMsg struct {
		gen uint64
		res detail.Result
	}
	indexingMsg struct {
		gen  uint64
		rows []client.IndexingStatus
		err  error
	}
	// eventMsg wraps a message delivered through the events channel.
	eventMsg struct {
		msg tea.Msg
	}
)

// runtime is shared by every copy of Model.
type runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg
	sub    <-chan session.State
	unsub  func()

	list     *poll.Refresher
	detail   *poll.Refresher
	indexing *poll.Refresher
}

// send delivers msg to the event loop unless the console is shutting down.
func (rt *runtime) send(msg tea.Msg) {
	select {
	case rt.events <- msg:
	case <-rt.ctx.Done():
	}
}

func (rt *runtime) stopAll() {
	for _, r := range []*poll.Refresher{rt.list, rt.detail, rt.indexing} {
		if r != nil {
			r.Stop()
		}
	}
	rt.list, rt.detail, rt.indexing = nil, nil, nil
}

func waitSession(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		return sessionMsg{state: s, ok: ok}
	}
}

func waitEvent(rt *runtime) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-rt.events:
			return eventMsg{msg: msg}
		case <-rt.ctx.Done():
			return nil
		}
	}
}

func (m *Model) startRefresher(fetch poll.FetchFunc) *poll.Refresher {
	r := poll.New(fetch, m.opts.RefreshInterval, m.opts.PollOptions...)
	r.Start(m.rt.ctx)
	return r
}

func (m *Model) mountList(ep client.Endpoint) {
	m.unmountList()
	m.listEp = ep
	gen, api, rt := m.listGen, m.api, m.rt
	rt.list = m.startRefresher(func(ctx context.Context) {
		cols, err := api.ListCollections(ctx, ep)
		rt.send(collectionsMsg{gen: gen, cols: cols, err: err})
	})
}

func (m *Model) unmountList() {
	if m.rt.list != nil {
		m.rt.list.Stop()
		m.rt.list = nil
	}
	m.listGen++
}

func (m *Model) mountDetail(name string) {
	m.unmountDetail()
	m.detail = detail.New(name)
	gen, api, rt, ep := m.detailGen, m.api, m.rt, m.session.Endpoint
	rt.detail = m.startRefresher(func(ctx context.Context) {
		rt.send(detailMsg{gen: gen, res: detail.Fetch(ctx, api, ep, name)})
	})
}

func (m *Model) unmountDetail() {
	if m.rt.detail != nil {
		m.rt.detail.Stop()
		m.rt.detail = nil
	}
	m.detailGen++
}

func (m *Model) mountIndexing() {
	m.unmountIndexing()
	m.indexHolder.Reset()
	m.indexing.SetState(m.indexHolder.Get())
	gen, api, rt, ep := m.indexGen, m.api, m.rt, m.session.Endpoint
	rt.indexing = m.startRefresher(func(ctx context.Context) {
		rows, err := api.Indexing(ctx, ep)
		rt.send(indexingMsg{gen: gen, rows: rows, err: err})
	})
}

func (m *Model) unmountIndexing() {
	if m.rt.indexing != nil {
		m.rt.indexing.Stop()
		m.rt.indexing = nil
	}
	m.indexGen++
}

// refetchNow re-reads every mounted view once, outside the refresh cadence.
func (m Model) refetchNow() tea.Cmd {
	if !m.session.Connected() {
		return nil
	}
	ctx, api, ep := m.rt.ctx, m.api, m.session.Endpoint
	var cmds []tea.Cmd
	if m.rt.list != nil {
		gen := m.listGen
		cmds = append(cmds, func() tea.Msg {
			cols, err := api.ListCollections(ctx, ep)
			return collectionsMsg{gen: gen, cols: cols, err: err}
		})
	}
	if m.rt.detail != nil {
		gen, name := m.detailGen, m.detail.Name
		cmds = append(cmds, func() tea.Msg {
			return detailMsg{gen: gen, res: detail.Fetch(ctx, api, ep, name)}
		})
	}
	if m.rt.indexing != nil {
		gen := m.indexGen
		cmds = append(cmds, func() tea.Msg {
			rows, err := api.Indexing(ctx, ep)
			return indexingMsg{gen: gen, rows: rows, err: err}
		})
	}
	return tea.Batch(cmds...)
}
