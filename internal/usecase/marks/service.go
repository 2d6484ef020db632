// Package marks tags documents as read, irrelevant or ignored.
package marks

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain"
	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
	"github.com/kailas-cloud/bibq/internal/logger"
)

// Marker pairs a marker with its negation.
type Marker struct {
	Name     string
	Negation string
	Help     string
}

// Markers lists the supported markers.
var Markers = []Marker{
	{Name: "read", Negation: "unread", Help: "display the entry as normal instead of bold"},
	{Name: "irrelevant", Negation: "relevant", Help: "exclude the entry from results after ranking"},
	{Name: "ignore", Negation: "unignore", Help: "exclude the entry from every filter pass"},
}

// ParseMarker resolves a marker or its negation.
func ParseMarker(s string) (name string, negate bool, err error) {
	for _, m := range Markers {
		switch s {
		case m.Name:
			return m.Name, false, nil
		case m.Negation:
			return m.Name, true, nil
		}
	}
	names := make([]string, 0, 2*len(Markers))
	for _, m := range Markers {
		names = append(names, m.Name, m.Negation)
	}
	return "", false, fmt.Errorf("%w: %q, should be one of: %s", domain.ErrUnknownMarker, s, strings.Join(names, "|"))
}

// Service applies markers to query results.
type Service struct {
	store Store
	query Querier
}

// New creates a marks service.
func New(store Store, query Querier) *Service {
	return &Service{store: store, query: query}
}

// Mark runs req over field "key", bypassing existing marks, and sets or clears
// marker on every returned document. It returns the number of keys affected.
func (s *Service) Mark(ctx context.Context, marker string, req domquery.Request) (int, error) {
	name, negate, err := ParseMarker(marker)
	if err != nil {
		return 0, err
	}
	req.Fields = []string{"key"}
	req.Force = true
	res, err := s.query.Query(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("select documents: %w", err)
	}
	if len(res.Keys) == 0 {
		return 0, nil
	}

	log := logger.FromContext(ctx)
	if negate {
		if err = s.store.Remove(ctx, name, res.Keys); err != nil {
			return 0, fmt.Errorf("unmark %s: %w", name, err)
		}
		log.Debug("unmarked documents", zap.String("marker", name), zap.Int("count", len(res.Keys)))
		return len(res.Keys), nil
	}
	if err = s.store.Add(ctx, name, res.Keys); err != nil {
		return 0, fmt.Errorf("mark %s: %w", name, err)
	}
	log.Debug("marked documents", zap.String("marker", name), zap.Int("count", len(res.Keys)))
	return len(res.Keys), nil
}

// Keys returns the keys carrying marker.
func (s *Service) Keys(ctx context.Context, marker string) ([]string, error) {
	name, _, err := ParseMarker(marker)
	if err != nil {
		return nil, err
	}
	return s.store.Keys(ctx, name)
}
