package detail

import (
	"context"

	"github.com/milvus-admin/console/internal/client"
)

// API is the part of the admin client the detail view reads from.
type API interface {
	CollectionDetails(ctx context.Context, ep client.Endpoint, name string) (*client.CollectionDetails, error)
	Segments(ctx context.Context, ep client.Endpoint, name string) ([]client.Segment, error)
}

// Result is one refresh cycle of the detail view.
type Result struct {
	Name        string
	Details     *client.CollectionDetails
	Err         error
	Segments    []client.Segment
	SegmentsErr error
	// SegmentsFetched is false when the collection was not loaded, in which
	// case the segment endpoint was not called.
	SegmentsFetched bool
}

// Fetch runs one refresh cycle: details first, then segments only when the
// collection is fully loaded.
func Fetch(ctx context.Context, api API, ep client.Endpoint, name string) Result {
	res := Result{Name: name}
	res.Details, res.Err = api.CollectionDetails(ctx, ep, name)
	if res.Err != nil {
		return res
	}
	if res.Details.LoadState != client.LoadStateLoaded {
		return res
	}
	res.SegmentsFetched = true
	res.Segments, res.SegmentsErr = api.Segments(ctx, ep, name)
	return res
}
