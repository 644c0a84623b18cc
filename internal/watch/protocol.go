package watch

import (
	"time"

	"github.com/milvus-admin/console/internal/client"
	"github.com/milvus-admin/console/internal/session"
)

type MessageType string

const (
	MsgSnapshot    MessageType = "snapshot"
	MsgSession     MessageType = "session"
	MsgCollections MessageType = "collections"
)

// Message is the envelope of every WebSocket frame.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// CollectionsPayload is the last collection snapshot and its freshness.
type CollectionsPayload struct {
	Collections []client.Collection `json:"collections"`
	FetchedAt   *time.Time          `json:"fetched_at,omitempty"`
	Error       string              `json:"error,omitempty"`
	Failures    int                 `json:"failures"`
}

// SnapshotPayload is sent to every new client and served at /api/state.
type SnapshotPayload struct {
	Session     session.State      `json:"session"`
	Collections CollectionsPayload `json:"collections"`
}
