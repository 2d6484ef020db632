package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/bibq/internal/db"
	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// DefaultKeyPrefix prefixes every snapshot key.
const DefaultKeyPrefix = "bibq:"

// kvStore is the consumer interface for the key-value loader (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMulti(ctx context.Context, items []db.KVSetItem, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVLoader stores each record set under "<prefix><library>:<name>".
type KVLoader struct {
	store  kvStore
	prefix string
	ttl    time.Duration
}

// NewKVLoader creates a key-value loader. An empty prefix uses DefaultKeyPrefix; a zero ttl never expires.
func NewKVLoader(store kvStore, prefix string, ttl time.Duration) *KVLoader {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &KVLoader{store: store, prefix: prefix, ttl: ttl}
}

func (l *KVLoader) key(lib, name string) string {
	return l.prefix + lib + ":" + name
}

// Raw fetches every record set stored for lib.
func (l *KVLoader) Raw(ctx context.Context, lib string) (Raw, error) {
	raw := make(Raw, len(Files))
	for _, name := range Files {
		data, err := l.store.Get(ctx, l.key(lib, name))
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				if required(name) {
					return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, l.key(lib, name))
				}
				continue
			}
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		raw[name] = data
	}
	return raw, nil
}

// Load fetches and decodes the snapshot of lib.
func (l *KVLoader) Load(ctx context.Context, lib string) (library.Snapshot, error) {
	raw, err := l.Raw(ctx, lib)
	if err != nil {
		return library.Snapshot{}, err
	}
	return Decode(raw)
}

// Push stores raw record sets for lib in one pipeline.
func (l *KVLoader) Push(ctx context.Context, lib string, raw Raw) error {
	items := make([]db.KVSetItem, 0, len(raw))
	for _, name := range Files {
		if data, ok := raw[name]; ok {
			items = append(items, db.KVSetItem{Key: l.key(lib, name), Value: data})
		}
	}
	if err := l.store.SetMulti(ctx, items, l.ttl); err != nil {
		return fmt.Errorf("push %s: %w", lib, err)
	}
	return nil
}

// Libraries lists the libraries with stored items.
func (l *KVLoader) Libraries(ctx context.Context) ([]string, error) {
	keys, err := l.store.Scan(ctx, l.prefix+"*:"+FileItems)
	if err != nil {
		return nil, fmt.Errorf("scan libraries: %w", err)
	}
	libs := make([]string, 0, len(keys))
	for _, k := range keys {
		lib := strings.TrimSuffix(strings.TrimPrefix(k, l.prefix), ":"+FileItems)
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs, nil
}
