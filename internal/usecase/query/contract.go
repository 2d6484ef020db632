package query

import (
	"context"
	"time"
)

// Markers that change which documents a query returns.
const (
	MarkerIgnore     = "ignore"
	MarkerIrrelevant = "irrelevant"
	MarkerRead       = "read"
)

// MarkReader reads the document keys carrying a marker.
type MarkReader interface {
	Keys(ctx context.Context, marker string) ([]string, error)
}

// Observer records query outcomes (implemented by metrics).
type Observer interface {
	ObserveQuery(op string, rows int, elapsed time.Duration, err error)
	ObserveRank(sweeps int, converged bool)
}
