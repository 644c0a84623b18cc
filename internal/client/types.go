// Package client provides an HTTP client for the Milvus admin API.
// Types mirror the admin API wire format.
package client

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LoadState is the server-reported readiness stage of a collection.
type LoadState int

const (
	LoadStateNotExist  LoadState = 0
	LoadStateNotLoaded LoadState = 1
	LoadStateLoading   LoadState = 2
	LoadStateLoaded    LoadState = 3
)

func (s LoadState) String() string {
	switch s {
	case LoadStateNotExist:
		return "NotExist"
	case LoadStateNotLoaded:
		return "NotLoaded"
	case LoadStateLoading:
		return "Loading"
	case LoadStateLoaded:
		return "Loaded"
	default:
		return "Unknown"
	}
}

// UnmarshalJSON accepts both the numeric form and the enum name, since some
// admin builds report load_state as "LoadStateLoaded".
func (s *LoadState) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = LoadState(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("cannot parse load state: %s", string(data))
	}
	if n, err := strconv.Atoi(name); err == nil {
		*s = LoadState(n)
		return nil
	}
	switch name {
	case "NotExist", "LoadStateNotExist":
		*s = LoadStateNotExist
	case "NotLoad", "NotLoaded", "LoadStateNotLoad":
		*s = LoadStateNotLoaded
	case "Loading", "LoadStateLoading":
		*s = LoadStateLoading
	case "Loaded", "LoadStateLoaded":
		*s = LoadStateLoaded
	default:
		*s = LoadState(-1)
	}
	return nil
}

// Endpoint identifies a Milvus cluster the admin API should talk to.
type Endpoint struct {
	Host string `json:"host" toml:"milvus_host"`
	Port int    `json:"port" toml:"milvus_port"`
}

// Valid reports whether the endpoint has a host and a usable port.
func (e Endpoint) Valid() bool {
	return e.Host != "" && e.Port > 0 && e.Port <= 65535
}

func (e Endpoint) String() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// Envelope is the status/message pair every admin API response carries.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the server flagged the response as an error.
func (e Envelope) Failed() bool {
	return e.Status == "error" || e.Status == "failure"
}

// Reason returns the most specific failure text the server sent.
func (e Envelope) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return "request failed"
}

// envelope lets generic helpers reach the embedded Envelope.
func (e *Envelope) envelope() *Envelope { return e }

type enveloped interface {
	envelope() *Envelope
}

// --- HTTP response types ---

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// PingResponse is returned by /api/milvus/ping.
type PingResponse struct {
	Envelope
	Connected bool   `json:"connected"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
}

// Collection is one row of /api/milvus/collections.
type Collection struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Loaded      LoadState `json:"loaded"`
	EntityCount int64     `json:"entity_count"`
	IndexType   string    `json:"index_type"`
}

// CollectionsResponse wraps the collection listing.
type CollectionsResponse struct {
	Envelope
	Collections []Collection `json:"collections"`
}

// Field describes one schema field. The admin API is inconsistent about the
// primary-key flag name, so both is_primary and primary are accepted.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsPrimary   bool   `json:"is_primary"`
	AutoID      bool   `json:"auto_id"`
	Dim         int    `json:"dim,omitempty"`
	MaxLength   int    `json:"max_length,omitempty"`
	ElementType string `json:"element_type,omitempty"`
	Description string `json:"description,omitempty"`
	IndexType   string `json:"index_type,omitempty"`
}

// UnmarshalJSON handles the "primary" alias and numeric fields sent as strings.
func (f *Field) UnmarshalJSON(data []byte) error {
	type Alias Field
	aux := &struct {
		Primary   *bool           `json:"primary"`
		Dim       json.RawMessage `json:"dim"`
		MaxLength json.RawMessage `json:"max_length"`
		*Alias
	}{Alias: (*Alias)(f)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.Primary != nil && *aux.Primary {
		f.IsPrimary = true
	}
	var err error
	if f.Dim, err = looseInt(aux.Dim); err != nil {
		return fmt.Errorf("field %s: dim: %w", f.Name, err)
	}
	if f.MaxLength, err = looseInt(aux.MaxLength); err != nil {
		return fmt.Errorf("field %s: max_length: %w", f.Name, err)
	}
	return nil
}

func looseInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// CollectionDetails is returned by /api/milvus/collections/{name}/details.
type CollectionDetails struct {
	Envelope
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	IndexType       string    `json:"index_type"`
	EntityCount     int64     `json:"entity_count"`
	LoadState       LoadState `json:"load_state"`
	LoadingProgress *int      `json:"loading_progress,omitempty"`
	Schema          []Field   `json:"schema"`
}

// Segment is one entry of /api/milvus/collections/{name}/segments.
type Segment struct {
	SegmentID    int64   `json:"segment_id"`
	CollectionID int64   `json:"collection_id"`
	PartitionID  int64   `json:"partition_id"`
	NumRows      int64   `json:"num_rows"`
	State        string  `json:"state"`
	IndexName    string  `json:"index_name,omitempty"`
	NodeIDs      []int64 `json:"node_ids,omitempty"`
}

// SegmentsResponse wraps the segment listing.
type SegmentsResponse struct {
	Envelope
	Segments []Segment `json:"segments"`
}

// IndexingStatus describes build progress of one index.
type IndexingStatus struct {
	CollectionName   string `json:"collection_name"`
	FieldName        string `json:"field_name"`
	IndexName        string `json:"index_name"`
	IndexType        string `json:"index_type"`
	State            string `json:"state"`
	IndexedRows      int64  `json:"indexed_rows"`
	TotalRows        int64  `json:"total_rows"`
	PendingIndexRows int64  `json:"pending_index_rows"`
}

// Progress returns the indexed fraction in [0,1].
func (s IndexingStatus) Progress() float64 {
	if s.TotalRows <= 0 {
		return 0
	}
	p := float64(s.IndexedRows) / float64(s.TotalRows)
	if p > 1 {
		return 1
	}
	return p
}

// IndexingResponse wraps /api/milvus/indexing.
type IndexingResponse struct {
	Envelope
	Indexing []IndexingStatus `json:"indexing"`
}

// ActionResponse is returned by every lifecycle endpoint.
type ActionResponse struct {
	Envelope
	JobID int64 `json:"job_id,omitempty"`
}

// CompactionState is returned by /api/milvus/compaction/state.
type CompactionState struct {
	Envelope
	JobID          int64  `json:"job_id"`
	State          string `json:"state"`
	ExecutingPlans int    `json:"executing_plans"`
	CompletedPlans int    `json:"completed_plans"`
	FailedPlans    int    `json:"failed_plans"`
}

// Done reports whether the compaction job reached a terminal state.
func (c CompactionState) Done() bool {
	return c.State == "Completed" || c.State == "-1"
}

// --- HTTP request bodies ---

// LoadRequest is the body of POST /api/milvus/collections/load. An empty
// Fields slice is omitted so the server loads every field.
type LoadRequest struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// RenameRequest is the body of POST /api/milvus/collection/rename.
type RenameRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// CreateRequest is the body of POST /api/milvus/collection/create.
type CreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// DropIndexRequest is the body of POST /api/milvus/index/drop.
type DropIndexRequest struct {
	CollectionName string `json:"collection_name"`
	FieldName      string `json:"field_name"`
}
