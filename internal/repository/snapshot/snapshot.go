// Package snapshot loads cached library snapshots from disk or a key-value store.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// Cached record sets. Collections and items are required.
const (
	FileCollections = "collections"
	FileItems       = "items"
	FileAttachments = "attachments"
	FileNotes       = "notes"
	FileAnnotations = "annotations"
)

// Files lists every record set in load order.
var Files = []string{FileCollections, FileItems, FileAttachments, FileNotes, FileAnnotations}

func required(name string) bool {
	return name == FileCollections || name == FileItems
}

// Raw holds the undecoded JSON array of each record set present.
type Raw map[string][]byte

// Decode parses raw record sets into a snapshot.
func Decode(raw Raw) (library.Snapshot, error) {
	var snap library.Snapshot
	for _, name := range Files {
		data, ok := raw[name]
		if !ok {
			if required(name) {
				return library.Snapshot{}, fmt.Errorf("%w: missing %s", domain.ErrSnapshotNotFound, name)
			}
			continue
		}
		var recs []library.Record
		if len(data) > 0 {
			if err := json.Unmarshal(data, &recs); err != nil {
				return library.Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		switch name {
		case FileCollections:
			snap.Collections = recs
		case FileItems:
			snap.Items = recs
		default:
			snap.Children = append(snap.Children, recs...)
		}
	}
	return snap, nil
}
