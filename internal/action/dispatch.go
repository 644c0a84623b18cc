package action

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/milvus-admin/console/internal/client"
)

// Doer performs a single admin API call. *client.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, call client.Call, out interface{}) error
}

// Payload types carried by Request.Payload, one per kind that needs extra input.
type (
	LoadPayload struct {
		Fields []string
	}
	RenamePayload struct {
		NewName string
	}
	CreatePayload struct {
		Description string
		Fields      []client.Field
	}
	DropIndexPayload struct {
		FieldName string
	}
)

// Request is a single action against a named collection.
type Request struct {
	Kind    Kind
	Target  string
	Payload interface{}
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is what the caller shows the operator.
type Result struct {
	Kind    Kind
	Target  string
	Status  Status
	Message string
	JobID   int64
	Err     error
}

// OK reports whether the action succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Dispatcher sends actions to the admin API. It never retries and never asks
// for confirmation; callers gate destructive kinds themselves.
type Dispatcher struct {
	doer   Doer
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger disables logging.
func NewDispatcher(doer Doer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{doer: doer, logger: logger}
}

// Dispatch performs req against the given endpoint.
func (d *Dispatcher) Dispatch(ctx context.Context, ep client.Endpoint, req Request) Result {
	res := Result{Kind: req.Kind, Target: req.Target}

	call, err := buildCall(ep, req)
	if err != nil {
		return res.fail(err)
	}

	var out client.ActionResponse
	err = d.doer.Do(ctx, call, &out)
	if err != nil {
		d.logger.Warn("action failed",
			zap.Stringer("kind", req.Kind),
			zap.String("target", req.Target),
			zap.Stringer("endpoint", ep),
			zap.Error(err))
		return res.fail(err)
	}

	d.logger.Info("action dispatched",
		zap.Stringer("kind", req.Kind),
		zap.String("target", req.Target),
		zap.Stringer("endpoint", ep),
		zap.Int64("job_id", out.JobID))

	res.Status = StatusSuccess
	res.JobID = out.JobID
	res.Message = out.Message
	if res.Message == "" {
		res.Message = successMessage(req)
	}
	return res
}

func (r Result) fail(err error) Result {
	r.Status = StatusError
	r.Err = err
	r.Message = client.Message(err)
	return r
}

func buildCall(ep client.Endpoint, req Request) (client.Call, error) {
	rt, ok := routes[req.Kind]
	if !ok {
		return client.Call{}, fmt.Errorf("%w %s", ErrUnknownKind, req.Kind)
	}
	if req.Target == "" {
		return client.Call{}, fmt.Errorf("%s: collection name is required", req.Kind)
	}
	call := client.Call{Method: rt.method, Path: rt.path, Endpoint: &ep}
	if rt.query {
		call.Query = url.Values{"name": {req.Target}}
		return call, nil
	}

	switch req.Kind {
	case Load:
		body := client.LoadRequest{Name: req.Target}
		if p, ok := req.Payload.(LoadPayload); ok && len(p.Fields) > 0 {
			body.Fields = p.Fields
		}
		call.Body = body
	case Rename:
		p, ok := req.Payload.(RenamePayload)
		if !ok || p.NewName == "" {
			return client.Call{}, fmt.Errorf("rename: new name is required")
		}
		if p.NewName == req.Target {
			return client.Call{}, fmt.Errorf("rename: new name must differ from %q", req.Target)
		}
		call.Body = client.RenameRequest{OldName: req.Target, NewName: p.NewName}
	case Create:
		p, _ := req.Payload.(CreatePayload)
		call.Body = client.CreateRequest{Name: req.Target, Description: p.Description, Fields: p.Fields}
	case DropIndex:
		p, ok := req.Payload.(DropIndexPayload)
		if !ok || p.FieldName == "" {
			return client.Call{}, fmt.Errorf("drop-index: field name is required")
		}
		call.Body = client.DropIndexRequest{CollectionName: req.Target, FieldName: p.FieldName}
	}
	return call, nil
}

func successMessage(req Request) string {
	switch req.Kind {
	case Load:
		return fmt.Sprintf("Collection %s loaded", req.Target)
	case Release:
		return fmt.Sprintf("Collection %s released", req.Target)
	case Drop:
		return fmt.Sprintf("Collection %s dropped", req.Target)
	case Compact:
		return fmt.Sprintf("Compaction started for %s", req.Target)
	case Rename:
		p, _ := req.Payload.(RenamePayload)
		return fmt.Sprintf("Collection %s renamed to %s", req.Target, p.NewName)
	case Create:
		return fmt.Sprintf("Collection %s created", req.Target)
	case DropIndex:
		p, _ := req.Payload.(DropIndexPayload)
		return fmt.Sprintf("Index on %s.%s dropped", req.Target, p.FieldName)
	}
	return req.Kind.String() + " done"
}
