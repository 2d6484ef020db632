// Package bibq queries a cached bibliographic library: filter, rank, limit and sort
// its documents over built-in and computed fields.
package bibq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/db"
	dbRedis "github.com/kailas-cloud/bibq/internal/db/redis"
	"github.com/kailas-cloud/bibq/internal/domain/library"
	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
	logpkg "github.com/kailas-cloud/bibq/internal/logger"
	"github.com/kailas-cloud/bibq/internal/metrics"
	marksrepo "github.com/kailas-cloud/bibq/internal/repository/marks"
	"github.com/kailas-cloud/bibq/internal/repository/snapshot"
	chiTransport "github.com/kailas-cloud/bibq/internal/transport/chi"
	"github.com/kailas-cloud/bibq/internal/usecase/compute"
	healthuc "github.com/kailas-cloud/bibq/internal/usecase/health"
	marksuc "github.com/kailas-cloud/bibq/internal/usecase/marks"
	queryuc "github.com/kailas-cloud/bibq/internal/usecase/query"
)

const (
	defaultLibrary          = "main"
	defaultReadinessTimeout = 10 * time.Second
)

// Request selects, filters, sorts and limits documents.
type Request = domquery.Request

// Result is an ordered table of display strings.
type Result = domquery.Result

// Pair is one header/value line of a single-document view.
type Pair = queryuc.Pair

// Client is the bibq SDK entry point. It holds one loaded snapshot.
type Client struct {
	cfg    *clientConfig
	store  db.Store
	files  *snapshot.FileLoader
	kv     *snapshot.KVLoader
	index  *library.Index
	query  *queryuc.Service
	marks  *marksrepo.Store
	marker *marksuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// New creates a Client and loads the configured library.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		library:          defaultLibrary,
		keyPrefix:        snapshot.DefaultKeyPrefix,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.cacheDir == "" && len(cfg.addrs) == 0 {
		return nil, errors.New("bibq: snapshot source required (use WithCacheDir, WithRedis or WithValkey)")
	}

	c := &Client{cfg: cfg, logger: cfg.logger}
	ctx := logpkg.ContextWithLogger(context.Background(), cfg.logger)

	if len(cfg.addrs) > 0 {
		store, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err = store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("bibq: database not ready: %w", err)
		}
		c.store = store
		c.kv = snapshot.NewKVLoader(store, cfg.keyPrefix, cfg.cacheTTL)
	}
	if cfg.cacheDir != "" {
		c.files = snapshot.NewFileLoader(cfg.cacheDir)
	}

	if err := c.load(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("bibq: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("bibq: unknown driver %q", cfg.driver)
	}
}

// load reads the snapshot and wires the services over it.
func (c *Client) load(ctx context.Context) error {
	var (
		snap library.Snapshot
		err  error
	)
	switch {
	case c.kv != nil && c.files != nil:
		var counter = metrics.SnapshotCacheTotal
		if !c.cfg.metrics {
			counter = nil
		}
		snap, err = snapshot.NewCached(c.kv, c.files, counter, c.logger).Load(ctx, c.cfg.library)
	case c.kv != nil:
		snap, err = c.kv.Load(ctx, c.cfg.library)
	default:
		snap, err = c.files.Load(ctx, c.cfg.library)
	}
	if err != nil {
		return fmt.Errorf("bibq: load %s: %w", c.cfg.library, err)
	}

	idx, err := library.Build(snap)
	if err != nil {
		return fmt.Errorf("bibq: index %s: %w", c.cfg.library, err)
	}
	c.index = idx
	c.logger.Debug("Snapshot loaded",
		zap.String("library", c.cfg.library),
		zap.Int("documents", idx.Len()),
		zap.Int("collections", len(idx.Collections())),
	)

	var obs queryuc.Observer
	if c.cfg.metrics {
		metrics.RegisterQueryMetrics()
		metrics.IndexDocuments.WithLabelValues(c.cfg.library).Set(float64(idx.Len()))
		obs = metrics.Recorder{}
	}

	// Pass nil interfaces (not typed nil pointers) when marks are disabled.
	var (
		markReader  queryuc.MarkReader
		marksPinger healthuc.Pinger
		dbPinger    healthuc.Pinger
	)
	if c.cfg.marksPath != "" {
		c.marks, err = marksrepo.Open(ctx, c.cfg.marksPath, c.logger)
		if err != nil {
			return fmt.Errorf("bibq: open marks: %w", err)
		}
		if _, err = c.marks.ImportLegacy(ctx, c.cfg.legacyMarks); err != nil {
			c.logger.Warn("Failed to import legacy marks", zap.String("path", c.cfg.legacyMarks), zap.Error(err))
		}
		markReader = c.marks
		marksPinger = c.marks
	}
	if c.store != nil {
		dbPinger = c.store
	}

	c.query = queryuc.New(compute.New(idx, c.logger), markReader, obs)
	if c.marks != nil {
		c.marker = marksuc.New(c.marks, c.query)
	}
	c.health = healthuc.New(idx, dbPinger, marksPinger)
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.marks != nil {
		if err := c.marks.Close(); err != nil {
			c.logger.Warn("Failed to close marks database", zap.Error(err))
		}
	}
}

// Ping checks the key-value store and marks database.
func (c *Client) Ping(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
	}
	if c.marks != nil {
		if err := c.marks.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
	}
	return nil
}

// Len returns the number of documents in the loaded library.
func (c *Client) Len() int { return c.index.Len() }

// Fields returns the known field names.
func (c *Client) Fields() []string { return c.query.Fields() }

// Tags returns the known tags.
func (c *Client) Tags() []string { return c.query.Tags() }

// Query runs req. An empty result is not an error.
func (c *Client) Query(ctx context.Context, req Request) (Result, error) {
	return c.query.Query(c.ctx(ctx), req)
}

// Count returns the number of documents matching filters.
func (c *Client) Count(ctx context.Context, filters ...string) (int, error) {
	return c.query.Count(c.ctx(ctx), filters)
}

// List returns the distinct values of one field across matching documents.
func (c *Client) List(ctx context.Context, field string, filters []string, desc bool, limit int) ([]string, error) {
	return c.query.Distinct(c.ctx(ctx), field, filters, desc, limit)
}

// View returns fields of the first document whose field matches value.
func (c *Client) View(ctx context.Context, field, value string, fields []string) ([]Pair, error) {
	return c.query.View(c.ctx(ctx), field, value, fields)
}

// Mark sets (or, for a negation such as "unread", clears) marker on the documents selected by req.
func (c *Client) Mark(ctx context.Context, marker string, req Request) (int, error) {
	if c.marker == nil {
		return 0, ErrMarksDisabled
	}
	return c.marker.Mark(c.ctx(ctx), marker, req)
}

// Marked returns the keys carrying marker.
func (c *Client) Marked(ctx context.Context, marker string) ([]string, error) {
	if c.marker == nil {
		return nil, ErrMarksDisabled
	}
	return c.marker.Keys(c.ctx(ctx), marker)
}

// PushCache copies the library's cache directory into the key-value store.
func (c *Client) PushCache(ctx context.Context) error {
	if c.kv == nil {
		return ErrNoStore
	}
	if c.files == nil {
		return errors.New("bibq: cache directory not configured (use WithCacheDir)")
	}
	raw, err := c.files.Raw(ctx, c.cfg.library)
	if err != nil {
		return fmt.Errorf("bibq: read cache: %w", err)
	}
	if err = c.kv.Push(ctx, c.cfg.library, raw); err != nil {
		return fmt.Errorf("bibq: %w", err)
	}
	c.logger.Info("Cache pushed", zap.String("library", c.cfg.library), zap.Int("sets", len(raw)))
	return nil
}

// Libraries lists the libraries held by the key-value store.
func (c *Client) Libraries(ctx context.Context) ([]string, error) {
	if c.kv == nil {
		return nil, ErrNoStore
	}
	return c.kv.Libraries(ctx)
}

// Handler returns the read-only HTTP API. Empty apiKeys disables authentication.
func (c *Client) Handler(apiKeys []string) http.Handler {
	return chiTransport.NewServer(c.query, c.health, c.logger).Router(apiKeys)
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return logpkg.ContextWithLogger(ctx, c.logger)
}
