// Package store persists the last connected cluster endpoint so the next
// start can reconnect without asking.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/milvus-admin/console/internal/client"
)

const (
	fileName   = "endpoint.toml"
	lockName   = "endpoint.lock"
	appDirName = "milvus-admin"

	lockRetry = 50 * time.Millisecond
)

// ErrNoEndpoint is returned by Load when nothing has been saved yet.
var ErrNoEndpoint = errors.New("no saved endpoint")

// record is the on-disk layout of endpoint.toml.
type record struct {
	Host    string    `toml:"milvus_host"`
	Port    int       `toml:"milvus_port"`
	SavedAt time.Time `toml:"saved_at"`
}

// EndpointStore reads and writes endpoint.toml in a state directory.
type EndpointStore struct {
	dir         string
	lockTimeout time.Duration
}

// NewEndpointStore creates a store in dir. Pass an empty string to use the
// default XDG state path.
func NewEndpointStore(dir string) *EndpointStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &EndpointStore{dir: dir, lockTimeout: 5 * time.Second}
}

// DefaultDir returns $XDG_STATE_HOME/milvus-admin, falling back to
// ~/.local/state/milvus-admin.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDirName)
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

// Path returns the full path to endpoint.toml.
func (s *EndpointStore) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load returns the saved endpoint, or ErrNoEndpoint if none exists.
func (s *EndpointStore) Load() (client.Endpoint, error) {
	unlock, err := s.lock(false)
	if err != nil {
		if os.IsNotExist(err) {
			return client.Endpoint{}, ErrNoEndpoint
		}
		return client.Endpoint{}, err
	}
	defer unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return client.Endpoint{}, ErrNoEndpoint
		}
		return client.Endpoint{}, fmt.Errorf("reading endpoint: %w", err)
	}

	var rec record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return client.Endpoint{}, fmt.Errorf("parsing endpoint: %w", err)
	}
	ep := client.Endpoint{Host: rec.Host, Port: rec.Port}
	if !ep.Valid() {
		return client.Endpoint{}, ErrNoEndpoint
	}
	return ep, nil
}

// Save writes the endpoint with a temp-file-then-rename under an exclusive
// lock. The directory is created if it does not already exist.
func (s *EndpointStore) Save(ep client.Endpoint) error {
	if !ep.Valid() {
		return fmt.Errorf("saving endpoint: invalid endpoint %q", ep.String())
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	unlock, err := s.lock(true)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := toml.Marshal(record{Host: ep.Host, Port: ep.Port, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling endpoint: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".endpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming endpoint file: %w", err)
	}
	committed = true
	return nil
}

// Clear removes the saved endpoint. Clearing an empty store is not an error.
func (s *EndpointStore) Clear() error {
	unlock, err := s.lock(true)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer unlock()

	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing endpoint: %w", err)
	}
	return nil
}

// lock takes the store lock, shared for readers and exclusive for writers.
// It returns an os.IsNotExist error when the state dir is missing.
func (s *EndpointStore) lock(exclusive bool) (func(), error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, err
	}
	l := flock.New(filepath.Join(s.dir, lockName))

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = l.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = l.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", l.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("endpoint store is busy (lock: %s)", l.Path())
	}
	return func() { _ = l.Unlock() }, nil
}
