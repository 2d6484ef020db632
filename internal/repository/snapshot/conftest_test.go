package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/bibq/internal/db"
)

const (
	testCollections = `[{"key":"C1","data":{"key":"C1","name":"Reading"}}]`
	testItems       = `[{"key":"K1","data":{"key":"K1","itemType":"book","title":"Go"},"meta":{"numChildren":1}}]`
	testNotes       = `[{"key":"N1","data":{"key":"N1","itemType":"note","parentItem":"K1","note":"<p>what: x</p>"}}]`
)

// mockKVStore is a map-backed consumer store.
type mockKVStore struct {
	data     map[string][]byte
	getErr   error
	setErr   error
	setCalls int
	lastTTL  time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetMulti(_ context.Context, items []db.KVSetItem, ttl time.Duration) error {
	m.setCalls++
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

func (m *mockKVStore) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	suffix := strings.TrimPrefix(pattern[strings.Index(pattern, "*"):], "*")
	prefix := pattern[:strings.Index(pattern, "*")]
	for k := range m.data {
		if strings.HasPrefix(k, prefix) && strings.HasSuffix(k, suffix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// writeLibrary lays out a cache directory for lib with the given files.
func writeLibrary(t *testing.T, dir, lib string, files map[string]string) {
	t.Helper()
	base := filepath.Join(dir, lib)
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(base, name+".json"), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
