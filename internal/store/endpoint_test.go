package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-admin/console/internal/client"
)

func TestLoadMissingReturnsErrNoEndpoint(t *testing.T) {
	s := NewEndpointStore(filepath.Join(t.TempDir(), "nested"))
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewEndpointStore(dir)

	require.NoError(t, s.Save(client.Endpoint{Host: "db1", Port: 19530}))
	ep, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, client.Endpoint{Host: "db1", Port: 19530}, ep)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "milvus_host = 'db1'")
	assert.Contains(t, string(data), "milvus_port = 19530")

	matches, _ := filepath.Glob(filepath.Join(dir, ".endpoint-*.tmp"))
	assert.Empty(t, matches, "temp file cleaned up")
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := NewEndpointStore(t.TempDir())
	assert.Error(t, s.Save(client.Endpoint{Host: "", Port: 19530}))
	assert.Error(t, s.Save(client.Endpoint{Host: "h", Port: 70000}))
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestClear(t *testing.T) {
	s := NewEndpointStore(t.TempDir())
	require.NoError(t, s.Clear(), "clearing empty store")

	require.NoError(t, s.Save(client.Endpoint{Host: "db1", Port: 19530}))
	require.NoError(t, s.Clear())
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoEndpoint)

	missing := NewEndpointStore(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, missing.Clear())
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewEndpointStore(dir)
	require.NoError(t, os.WriteFile(s.Path(), []byte("milvus_port = [oops"), 0o600))
	_, err := s.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEndpoint)
}

func TestConcurrentWriters(t *testing.T) {
	s := NewEndpointStore(t.TempDir())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// A separate store per goroutine mirrors separate processes.
			assert.NoError(t, NewEndpointStore(s.dir).Save(client.Endpoint{Host: fmt.Sprintf("db%d", i), Port: 19530 + i}))
		}(i)
	}
	wg.Wait()

	ep, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ep.Valid())
	assert.Equal(t, fmt.Sprintf("db%d", ep.Port-19530), ep.Host, "host and port come from the same write")
}

func TestDefaultDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	assert.Equal(t, "/tmp/xdg-state/milvus-admin", DefaultDir())
	assert.Equal(t, "/tmp/xdg-state/milvus-admin/endpoint.toml", NewEndpointStore("").Path())
}
