package session

import (
	"fmt"
	"time"

	"github.com/milvus-admin/console/internal/client"
)

// Status is the session's belief about its endpoint.
type Status int

const (
	Idle Status = iota
	Connecting
	Connected
	Failed
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// State is a copy of the session at one point in time.
type State struct {
	Status         Status          `json:"status"`
	Endpoint       client.Endpoint `json:"endpoint"`
	LastVerifiedAt time.Time       `json:"last_verified_at,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
}

// Connected reports whether the endpoint was last confirmed reachable.
func (s State) Connected() bool { return s.Status == Connected }

// Label is the one-line status shown to the operator.
func (s State) Label() string {
	switch s.Status {
	case Connecting:
		return "Connecting..."
	case Connected:
		return "Connected to " + s.Endpoint.String()
	case Failed:
		return "Connection error"
	default:
		return "Disconnected"
	}
}

// MarshalText lets Status appear by name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range []Status{Idle, Connecting, Connected, Failed, Disconnected} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", string(b))
}
