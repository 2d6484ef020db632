package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// RawSource yields undecoded record sets.
type RawSource interface {
	Raw(ctx context.Context, lib string) (Raw, error)
}

// pusher writes record sets into the cache.
type pusher interface {
	RawSource
	Push(ctx context.Context, lib string, raw Raw) error
}

// Cached reads through a key-value cache, falling back to another source
// and populating the cache on a miss.
type Cached struct {
	cache      pusher
	source     RawSource
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCached creates a read-through loader.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewCached(cache pusher, source RawSource, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{cache: cache, source: source, cacheTotal: cacheTotal, logger: logger}
}

// Load returns the cached snapshot of lib or reads it from the source.
func (c *Cached) Load(ctx context.Context, lib string) (library.Snapshot, error) {
	raw, err := c.cache.Raw(ctx, lib)
	if err == nil {
		c.inc("hit")
		return Decode(raw)
	}
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		c.logger.Warn("Failed to read cached snapshot", zap.String("library", lib), zap.Error(err))
	}
	c.inc("miss")

	raw, err = c.source.Raw(ctx, lib)
	if err != nil {
		return library.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	if err = c.cache.Push(ctx, lib, raw); err != nil {
		c.logger.Warn("Failed to cache snapshot", zap.String("library", lib), zap.Error(err))
	}
	return Decode(raw)
}

func (c *Cached) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
