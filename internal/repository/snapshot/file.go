package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// FileLoader reads "<dir>/<library>/<name>.json" files.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// Raw reads every record set present for lib.
func (l *FileLoader) Raw(_ context.Context, lib string) (Raw, error) {
	base := filepath.Join(l.dir, lib)
	raw := make(Raw, len(Files))
	for _, name := range Files {
		data, err := os.ReadFile(filepath.Join(base, name+".json"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if required(name) {
					return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, filepath.Join(base, name+".json"))
				}
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		raw[name] = data
	}
	return raw, nil
}

// Load reads and decodes the snapshot of lib.
func (l *FileLoader) Load(ctx context.Context, lib string) (library.Snapshot, error) {
	raw, err := l.Raw(ctx, lib)
	if err != nil {
		return library.Snapshot{}, err
	}
	return Decode(raw)
}
