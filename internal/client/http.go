package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512

	// RequestIDHeader carries a per-request UUID so admin API logs can be
	// matched with ours.
	RequestIDHeader = "X-Request-ID"
)

// HTTPClient makes REST calls to the Milvus admin API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the admin API root this client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Health fetches /health. It does not require a cluster endpoint.
func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping probes the cluster endpoint through /api/milvus/ping. A response with
// connected=false is returned without error; callers decide what it means.
func (c *HTTPClient) Ping(ctx context.Context, ep Endpoint) (*PingResponse, error) {
	var out PingResponse
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: "/api/milvus/ping", Endpoint: &ep}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections fetches /api/milvus/collections.
func (c *HTTPClient) ListCollections(ctx context.Context, ep Endpoint) ([]Collection, error) {
	var out CollectionsResponse
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: "/api/milvus/collections", Endpoint: &ep}, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// Indexing fetches /api/milvus/indexing.
func (c *HTTPClient) Indexing(ctx context.Context, ep Endpoint) ([]IndexingStatus, error) {
	var out IndexingResponse
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: "/api/milvus/indexing", Endpoint: &ep}, &out); err != nil {
		return nil, err
	}
	return out.Indexing, nil
}

// CollectionDetails fetches /api/milvus/collections/{name}/details.
func (c *HTTPClient) CollectionDetails(ctx context.Context, ep Endpoint, name string) (*CollectionDetails, error) {
	var out CollectionDetails
	path := "/api/milvus/collections/" + url.PathEscape(name) + "/details"
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Endpoint: &ep}, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return &out, nil
}

// Segments fetches /api/milvus/collections/{name}/segments.
func (c *HTTPClient) Segments(ctx context.Context, ep Endpoint, name string) ([]Segment, error) {
	var out SegmentsResponse
	path := "/api/milvus/collections/" + url.PathEscape(name) + "/segments"
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Endpoint: &ep}, &out); err != nil {
		return nil, err
	}
	return out.Segments, nil
}

// CompactionState fetches /api/milvus/compaction/state for a compaction job.
func (c *HTTPClient) CompactionState(ctx context.Context, ep Endpoint, jobID int64) (*CompactionState, error) {
	var out CompactionState
	call := Call{
		Method:   http.MethodGet,
		Path:     "/api/milvus/compaction/state",
		Endpoint: &ep,
		Query:    url.Values{"job_id": {strconv.FormatInt(jobID, 10)}},
	}
	if err := c.Do(ctx, call, &out); err != nil {
		return nil, err
	}
	if out.JobID == 0 {
		out.JobID = jobID
	}
	return &out, nil
}

// Call describes a single admin API request.
type Call struct {
	Method   string
	Path     string
	Endpoint *Endpoint // adds host/port query parameters when set
	Query    url.Values
	Body     interface{}
}

// Do performs the call and decodes the JSON response into out. When out
// embeds an Envelope and the server reports status "error", Do returns an
// *APIError. out may be nil.
func (c *HTTPClient) Do(ctx context.Context, call Call, out interface{}) error {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return &TransportError{Method: call.Method, Path: call.Path, Err: err}
	}
	reqID := req.Header.Get(RequestIDHeader)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("admin request failed",
			zap.String("method", call.Method),
			zap.String("path", call.Path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return &TransportError{Method: call.Method, Path: call.Path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("admin request",
		zap.String("method", call.Method),
		zap.String("path", call.Path),
		zap.String("request_id", reqID),
		zap.Int("code", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: call.Method,
			Path:   call.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &TransportError{Method: call.Method, Path: call.Path, Err: err}
	}
	if env, ok := out.(enveloped); ok && env.envelope().Failed() {
		return &APIError{Path: call.Path, Message: env.envelope().Reason()}
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	q := url.Values{}
	for k, vs := range call.Query {
		q[k] = append([]string(nil), vs...)
	}
	if call.Endpoint != nil {
		q.Set("host", call.Endpoint.Host)
		q.Set("port", strconv.Itoa(call.Endpoint.Port))
	}
	target := c.baseURL + call.Path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, err
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}
