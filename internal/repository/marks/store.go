// Package marks persists per-document markers in SQLite.
package marks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS marks (
	marker   TEXT NOT NULL,
	item_key TEXT NOT NULL,
	PRIMARY KEY (marker, item_key)
)`

// Store keeps marker/key pairs in a SQLite database.
type Store struct {
	conn   *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the marks database at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create marks dir: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening marks database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY on concurrent marks.
	conn.SetMaxOpenConns(1)

	if _, err = conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err = conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("creating marks table: %w", err)
	}
	return &Store{conn: conn, path: path, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close() //nolint:wrapcheck // passthrough
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping marks database: %w", err)
	}
	return nil
}

// Keys returns the keys carrying marker, in key order.
func (s *Store) Keys(ctx context.Context, marker string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT item_key FROM marks WHERE marker = ? ORDER BY item_key", marker)
	if err != nil {
		return nil, fmt.Errorf("query marks %s: %w", marker, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marks: %w", err)
	}
	return keys, nil
}

// Add marks keys with marker. Already marked keys are left alone.
func (s *Store) Add(ctx context.Context, marker string, keys []string) error {
	return s.exec(ctx, "INSERT OR IGNORE INTO marks (marker, item_key) VALUES (?, ?)", marker, keys)
}

// Remove clears marker from keys.
func (s *Store) Remove(ctx context.Context, marker string, keys []string) error {
	return s.exec(ctx, "DELETE FROM marks WHERE marker = ? AND item_key = ?", marker, keys)
}

func (s *Store) exec(ctx context.Context, stmt, marker string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prep, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = prep.Close() }()

	for _, k := range keys {
		if _, err = prep.ExecContext(ctx, marker, k); err != nil {
			return fmt.Errorf("mark %s %s: %w", marker, k, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ImportLegacy loads a marks.json file (marker -> keys) when the store holds no marks yet.
// It returns the number of imported pairs.
func (s *Store) ImportLegacy(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM marks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count marks: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read legacy marks: %w", err)
	}
	var legacy map[string][]string
	if err = json.Unmarshal(data, &legacy); err != nil {
		return 0, fmt.Errorf("decode legacy marks: %w", err)
	}

	total := 0
	for marker, keys := range legacy {
		if err = s.Add(ctx, marker, keys); err != nil {
			return total, err
		}
		total += len(keys)
	}
	s.logger.Info("Imported legacy marks", zap.String("path", path), zap.Int("count", total))
	return total, nil
}
