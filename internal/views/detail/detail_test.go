package detail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/milvus-admin/console/internal/client"
)

type countingAPI struct {
	details      *client.CollectionDetails
	detailsErr   error
	segments     []client.Segment
	segmentsErr  error
	detailCalls  int
	segmentCalls int
}

func (a *countingAPI) CollectionDetails(_ context.Context, _ client.Endpoint, _ string) (*client.CollectionDetails, error) {
	a.detailCalls++
	return a.details, a.detailsErr
}

func (a *countingAPI) Segments(_ context.Context, _ client.Endpoint, _ string) ([]client.Segment, error) {
	a.segmentCalls++
	return a.segments, a.segmentsErr
}

var ep = client.Endpoint{Host: "db1", Port: 19530}

func TestFetchSegmentsOnlyWhenLoaded(t *testing.T) {
	tests := []struct {
		state client.LoadState
		want  int
	}{
		{client.LoadStateNotExist, 0},
		{client.LoadStateNotLoaded, 0},
		{client.LoadStateLoading, 0},
		{client.LoadStateLoaded, 1},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			api := &countingAPI{details: &client.CollectionDetails{Name: "docs", LoadState: tt.state}}
			res := Fetch(context.Background(), api, ep, "docs")
			if api.segmentCalls != tt.want {
				t.Errorf("segment calls = %d, want %d", api.segmentCalls, tt.want)
			}
			if res.SegmentsFetched != (tt.want == 1) {
				t.Errorf("SegmentsFetched = %v", res.SegmentsFetched)
			}
		})
	}
}

func TestFetchDetailsErrorSkipsSegments(t *testing.T) {
	api := &countingAPI{detailsErr: errors.New("boom")}
	res := Fetch(context.Background(), api, ep, "docs")
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if api.segmentCalls != 0 {
		t.Errorf("segment calls = %d, want 0", api.segmentCalls)
	}
}

func TestApplyKeepsDetailsOnFailure(t *testing.T) {
	m := New("docs")
	m.Apply(Result{Name: "docs", Details: &client.CollectionDetails{
		Name:      "docs",
		LoadState: client.LoadStateNotLoaded,
		Schema:    []client.Field{{Name: "id", Type: "int64", IsPrimary: true}},
	}})
	m.Apply(Result{Name: "docs", Err: errors.New("connection refused")})

	if _, ok := m.Details(); !ok {
		t.Fatal("details should survive a failed refresh")
	}
	v := m.View()
	for _, want := range []string{"id ★", "connection refused", "NotLoaded"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApplyIgnoresOtherCollection(t *testing.T) {
	m := New("docs")
	m.Apply(Result{Name: "other", Details: &client.CollectionDetails{Name: "other"}})
	if _, ok := m.Details(); ok {
		t.Error("result for another collection was applied")
	}
}

func TestViewLoadedShowsSegments(t *testing.T) {
	m := New("docs")
	m.Apply(Result{
		Name: "docs",
		Details: &client.CollectionDetails{
			Name:      "docs",
			LoadState: client.LoadStateLoaded,
			Schema: []client.Field{
				{Name: "id", Type: "int64", IsPrimary: true},
				{Name: "embedding", Type: "float_vector", Dim: 768},
			},
		},
		SegmentsFetched: true,
		Segments:        []client.Segment{{SegmentID: 42, NumRows: 1000, State: "Sealed"}},
	})
	v := m.View()
	for _, want := range []string{"Schema (2 fields)", "float_vector(768)", "Segments (1)", "#42", "Sealed"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewNotLoadedHidesSegments(t *testing.T) {
	m := New("docs")
	m.Apply(Result{Name: "docs", Details: &client.CollectionDetails{Name: "docs", LoadState: client.LoadStateNotLoaded}})
	if strings.Contains(m.View(), "Segments") {
		t.Error("segments section shown for an unloaded collection")
	}
}

func TestLoadingProgressAnimates(t *testing.T) {
	m := New("docs")
	pct := 60
	cmd := m.Apply(Result{Name: "docs", Details: &client.CollectionDetails{
		Name: "docs", LoadState: client.LoadStateLoading, LoadingProgress: &pct,
	}})
	if cmd == nil {
		t.Fatal("expected an animation command")
	}
	for i := 0; i < 300; i++ {
		if m.Update(FrameMsg{Name: "docs"}) == nil {
			break
		}
	}
	if m.progress.pos != 0.6 {
		t.Errorf("progress settled at %v, want 0.6", m.progress.pos)
	}
	if m.Update(FrameMsg{Name: "other"}) != nil {
		t.Error("frame for another collection should be ignored")
	}
}
