package bibq

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cacheDir string
	library  string

	driver           string // "valkey" or "redis"
	addrs            []string
	password         string
	keyPrefix        string
	cacheTTL         time.Duration
	readinessTimeout time.Duration

	marksPath   string
	legacyMarks string

	logger  *zap.Logger
	metrics bool
}

// WithCacheDir reads snapshots from "<dir>/<library>/*.json".
func WithCacheDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDir = dir
	})
}

// WithLibrary selects the library to load. Defaults to "main".
func WithLibrary(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.library = name
	})
}

// WithValkey reads snapshots from a Valkey instance.
// Combined with WithCacheDir, the cache directory fills the store on a miss.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis reads snapshots from a Redis instance.
// Combined with WithCacheDir, the cache directory fills the store on a miss.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithAddrs sets several key-value store addresses for the given driver.
func WithAddrs(driver string, addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver
		c.addrs = addrs
		c.password = password
	})
}

// WithKeyPrefix sets the key-value store key prefix. Defaults to "bibq:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithCacheTTL expires snapshot keys after ttl. Zero keeps them forever.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithReadinessTimeout bounds the wait for the key-value store. Defaults to 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithMarks persists markers in the SQLite database at path.
func WithMarks(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.marksPath = path
	})
}

// WithLegacyMarks imports a marks.json file into an empty marks database.
func WithLegacyMarks(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.legacyMarks = path
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers and feeds the Prometheus query metrics.
func WithMetrics() Option {
	return optionFunc(func(c *clientConfig) {
		c.metrics = true
	})
}
