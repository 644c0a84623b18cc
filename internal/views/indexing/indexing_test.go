package indexing

import (
	"errors"
	"strings"
	"testing"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/snapshot"
)

func TestSetStateOrdersRows(t *testing.T) {
	m := New()
	m.SetState(snapshot.State[[]client.IndexingStatus]{HasValue: true, Value: []client.IndexingStatus{
		{CollectionName: "b", FieldName: "v"},
		{CollectionName: "a", FieldName: "z"},
		{CollectionName: "a", FieldName: "e"},
	}})
	rows := m.Rows()
	got := rows[0].CollectionName + rows[0].FieldName + rows[1].FieldName + rows[2].CollectionName
	if got != "aezb" {
		t.Errorf("order = %q", got)
	}
}

func TestViewShowsProgress(t *testing.T) {
	m := New()
	m.SetState(snapshot.State[[]client.IndexingStatus]{HasValue: true, Value: []client.IndexingStatus{
		{CollectionName: "docs", FieldName: "embedding", IndexType: "HNSW", State: "InProgress",
			IndexedRows: 50, TotalRows: 100, PendingIndexRows: 50},
		{CollectionName: "raw", FieldName: "vec", IndexType: "IVF_FLAT", State: "Finished",
			IndexedRows: 10, TotalRows: 10},
	}})
	v := m.View()
	for _, want := range []string{"docs", "HNSW", "50%", "50/100", "50 pending", "100%"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", m.Pending())
	}
}

func TestViewEmptyAndError(t *testing.T) {
	m := New()
	if !strings.Contains(m.View(), "Loading indexing status") {
		t.Error("missing loading placeholder")
	}
	m.SetState(snapshot.State[[]client.IndexingStatus]{HasValue: true})
	if !strings.Contains(m.View(), "No indexes") {
		t.Error("missing empty placeholder")
	}
	m.SetState(snapshot.State[[]client.IndexingStatus]{Err: errors.New("timeout"), Failures: 1})
	if !strings.Contains(m.View(), "timeout") {
		t.Error("missing error")
	}
}
