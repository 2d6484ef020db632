package health

import "context"

// Pinger checks availability of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexSizer reports the size of the loaded snapshot.
type IndexSizer interface {
	Len() int
}
