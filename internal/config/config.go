package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the bibq configuration.
type Config struct {
	Snapshot SnapshotConfig         `yaml:"snapshot"`
	Database DatabaseConfig         `yaml:"database"`
	Marks    MarksConfig            `yaml:"marks"`
	HTTP     HTTPConfig             `yaml:"http"`
	Auth     AuthConfig             `yaml:"auth"`
	Logging  LoggingConfig          `yaml:"logging"`
	Queries  map[string]QueryConfig `yaml:"queries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds HTTP API authentication settings. No keys means open access.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Snapshot sources.
const (
	SourceFile   = "file"
	SourceRedis  = "redis"
	SourceValkey = "valkey"
)

// SnapshotConfig selects where the library snapshot is read from.
type SnapshotConfig struct {
	Source    string `yaml:"source"` // file, redis, valkey (default: file)
	CacheDir  string `yaml:"cache_dir"`
	Library   string `yaml:"library"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLSec    int    `yaml:"ttl_sec"` // 0 = never expire
}

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MarksConfig holds the marks store settings.
type MarksConfig struct {
	Path       string `yaml:"path"`        // sqlite file (default: <cache_dir>/marks.db)
	LegacyJSON string `yaml:"legacy_json"` // marks.json imported once when the store is empty
}

// QueryConfig is a named predefined query.
type QueryConfig struct {
	Fields  []string `yaml:"fields"`
	Filters []string `yaml:"filters"`
	Sort    string   `yaml:"sort"`
	Limit   string   `yaml:"limit"`
}

// DefaultQueries returns the built-in predefined queries.
func DefaultQueries() map[string]QueryConfig {
	relevant := []string{"year", "title", "numPages", "itemType"}
	return map[string]QueryConfig{
		"no-attachment":         {Fields: []string{"title"}, Filters: []string{"numAttachments:0"}},
		"no-url":                {Fields: []string{"year", "title"}, Filters: []string{"url:<empty>"}, Sort: "year"},
		"top-10-most-relevants": {Fields: relevant, Sort: ">date", Limit: ">rank:10"},
		"top-50-most-relevants": {Fields: relevant, Sort: ">date", Limit: ">rank:50"},
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, cli, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadOrDefault loads configuration, falling back to defaults when the file is absent.
func LoadOrDefault(env string) (Config, error) {
	if !fileExists(findConfigPath(env)) {
		var cfg Config
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return Load(env)
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Snapshot.Source == "" {
		c.Snapshot.Source = SourceFile
	}
	if c.Snapshot.CacheDir == "" {
		c.Snapshot.CacheDir = defaultCacheDir()
	}
	if c.Snapshot.Library == "" {
		c.Snapshot.Library = "main"
	}
	if c.Snapshot.KeyPrefix == "" {
		c.Snapshot.KeyPrefix = "bibq:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Marks.Path == "" {
		c.Marks.Path = filepath.Join(c.Snapshot.CacheDir, "marks.db")
	}
	defaults := DefaultQueries()
	if c.Queries == nil {
		c.Queries = make(map[string]QueryConfig, len(defaults))
	}
	for name, q := range defaults {
		if _, ok := c.Queries[name]; !ok {
			c.Queries[name] = q
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Snapshot.Source {
	case SourceFile:
	case SourceRedis, SourceValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for snapshot.source %q", c.Snapshot.Source)
		}
	default:
		return fmt.Errorf("snapshot.source must be \"file\", \"redis\" or \"valkey\", got %q", c.Snapshot.Source)
	}
	for name, q := range c.Queries {
		if len(q.Fields) == 0 {
			return fmt.Errorf("queries.%s.fields must not be empty", name)
		}
	}
	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bibq")
	}
	return filepath.Join(".", ".bibq")
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
