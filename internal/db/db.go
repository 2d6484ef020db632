package db

import (
	"context"
	"time"
)

// Store is the key-value facade used for snapshot caching.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVSetItem holds a single key+value pair for pipelined SET.
type KVSetItem struct {
	Key   string
	Value []byte
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMulti(ctx context.Context, items []KVSetItem, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}
