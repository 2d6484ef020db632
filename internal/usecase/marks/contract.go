package marks

import (
	"context"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
)

// Store persists document keys per marker.
type Store interface {
	Keys(ctx context.Context, marker string) ([]string, error)
	Add(ctx context.Context, marker string, keys []string) error
	Remove(ctx context.Context, marker string, keys []string) error
}

// Querier selects the documents to mark.
type Querier interface {
	Query(ctx context.Context, req domquery.Request) (domquery.Result, error)
}
