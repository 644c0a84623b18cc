package action

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-admin/console/internal/client"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

type fakeAdmin struct {
	mu    sync.Mutex
	calls []recorded
	reply string
	code  int
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	q := map[string]string{}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	f.mu.Lock()
	f.calls = append(f.calls, recorded{Method: r.Method, Path: r.URL.Path, Query: q, Body: string(body)})
	f.mu.Unlock()
	if f.code != 0 {
		w.WriteHeader(f.code)
	}
	reply := f.reply
	if reply == "" {
		reply = `{"status":"success"}`
	}
	w.Write([]byte(reply))
}

func (f *fakeAdmin) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func setup(t *testing.T) (*fakeAdmin, *Dispatcher) {
	t.Helper()
	fake := &fakeAdmin{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, NewDispatcher(client.NewHTTPClient(srv.URL), nil)
}

var ep = client.Endpoint{Host: "db1", Port: 19530}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	k, err := ParseKind("DROP_INDEX")
	require.NoError(t, err)
	assert.Equal(t, DropIndex, k)

	_, err = ParseKind("truncate")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDestructive(t *testing.T) {
	for _, k := range Kinds() {
		assert.Equal(t, k == Drop || k == DropIndex, k.Destructive(), k.String())
	}
}

func TestRouteTable(t *testing.T) {
	tests := []struct {
		req    Request
		method string
		path   string
	}{
		{Request{Kind: Release, Target: "c"}, http.MethodPost, "/api/milvus/collections/release"},
		{Request{Kind: Drop, Target: "c"}, http.MethodDelete, "/api/milvus/collections/drop"},
		{Request{Kind: Compact, Target: "c"}, http.MethodPost, "/api/milvus/collections/compact"},
		{Request{Kind: Load, Target: "c"}, http.MethodPost, "/api/milvus/collections/load"},
		{Request{Kind: Rename, Target: "c", Payload: RenamePayload{NewName: "d"}}, http.MethodPost, "/api/milvus/collection/rename"},
		{Request{Kind: Create, Target: "c", Payload: CreatePayload{}}, http.MethodPost, "/api/milvus/collection/create"},
		{Request{Kind: DropIndex, Target: "c", Payload: DropIndexPayload{FieldName: "vec"}}, http.MethodPost, "/api/milvus/index/drop"},
	}
	for _, tt := range tests {
		t.Run(tt.req.Kind.String(), func(t *testing.T) {
			fake, d := setup(t)
			res := d.Dispatch(context.Background(), ep, tt.req)
			require.True(t, res.OK(), res.Message)

			got := fake.last(t)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, "db1", got.Query["host"])
			assert.Equal(t, "19530", got.Query["port"])
		})
	}
}

func TestQueryKindsSendName(t *testing.T) {
	fake, d := setup(t)
	d.Dispatch(context.Background(), ep, Request{Kind: Drop, Target: "old_docs"})
	got := fake.last(t)
	assert.Equal(t, "old_docs", got.Query["name"])
	assert.Empty(t, got.Body)
}

func TestLoadWithFieldsSendsExactBody(t *testing.T) {
	fake, d := setup(t)
	res := d.Dispatch(context.Background(), ep, Request{
		Kind: Load, Target: "docs", Payload: LoadPayload{Fields: []string{"field_a"}},
	})
	require.True(t, res.OK())
	assert.JSONEq(t, `{"name":"docs","fields":["field_a"]}`, fake.last(t).Body)
}

func TestLoadWithoutFieldsOmitsKey(t *testing.T) {
	fake, d := setup(t)
	d.Dispatch(context.Background(), ep, Request{Kind: Load, Target: "docs"})
	d.Dispatch(context.Background(), ep, Request{Kind: Load, Target: "docs", Payload: LoadPayload{}})

	for _, c := range fake.calls {
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(c.Body), &body))
		assert.Equal(t, map[string]interface{}{"name": "docs"}, body)
	}
}

func TestRenameAndDropIndexBodies(t *testing.T) {
	fake, d := setup(t)
	d.Dispatch(context.Background(), ep, Request{Kind: Rename, Target: "a", Payload: RenamePayload{NewName: "b"}})
	assert.JSONEq(t, `{"old_name":"a","new_name":"b"}`, fake.last(t).Body)

	d.Dispatch(context.Background(), ep, Request{Kind: DropIndex, Target: "a", Payload: DropIndexPayload{FieldName: "vec"}})
	assert.JSONEq(t, `{"collection_name":"a","field_name":"vec"}`, fake.last(t).Body)
}

func TestCreateBody(t *testing.T) {
	fake, d := setup(t)
	d.Dispatch(context.Background(), ep, Request{Kind: Create, Target: "docs", Payload: CreatePayload{
		Description: "papers",
		Fields: []client.Field{
			{Name: "id", Type: "int64", IsPrimary: true},
			{Name: "vec", Type: "float_vector", Dim: 4},
		},
	}})
	assert.JSONEq(t, `{"name":"docs","description":"papers","fields":[
		{"name":"id","type":"int64","is_primary":true,"auto_id":false},
		{"name":"vec","type":"float_vector","is_primary":false,"auto_id":false,"dim":4}
	]}`, fake.last(t).Body)
}

func TestInvalidRequestsNeverReachServer(t *testing.T) {
	fake, d := setup(t)
	for _, req := range []Request{
		{Kind: Kind(99), Target: "c"},
		{Kind: Release},
		{Kind: Rename, Target: "a"},
		{Kind: Rename, Target: "a", Payload: RenamePayload{NewName: "a"}},
		{Kind: DropIndex, Target: "a"},
	} {
		res := d.Dispatch(context.Background(), ep, req)
		assert.Equal(t, StatusError, res.Status)
		assert.NotEmpty(t, res.Message)
	}
	assert.Empty(t, fake.calls)
}

func TestFailuresSurfaceVerbatim(t *testing.T) {
	fake, d := setup(t)
	fake.reply = `{"status":"error","message":"collection docs not found"}`
	res := d.Dispatch(context.Background(), ep, Request{Kind: Release, Target: "docs"})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "collection docs not found", res.Message)
	assert.Len(t, fake.calls, 1, "no retry")

	fake.reply = "upstream down"
	fake.code = http.StatusBadGateway
	res = d.Dispatch(context.Background(), ep, Request{Kind: Compact, Target: "docs"})
	var se *client.StatusError
	require.ErrorAs(t, res.Err, &se)
	assert.Contains(t, res.Message, "upstream down")
}

func TestCompactReturnsJobID(t *testing.T) {
	fake, d := setup(t)
	fake.reply = `{"status":"success","job_id":4711}`
	res := d.Dispatch(context.Background(), ep, Request{Kind: Compact, Target: "docs"})
	require.True(t, res.OK())
	assert.Equal(t, int64(4711), res.JobID)
	assert.Equal(t, "Compaction started for docs", res.Message)
}
