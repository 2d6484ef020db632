package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/field"
	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
	"github.com/kailas-cloud/bibq/internal/logger"
)

// Distinct lists the distinct display values of one field across matching documents.
// "collections" and "fields" list the catalog and ignore filters.
// A non-positive limit returns every value.
func (s *Service) Distinct(
	ctx context.Context, name string, filters []string, desc bool, limit int,
) ([]string, error) {
	start := time.Now()
	values, err := s.distinct(ctx, name, filters)
	if err == nil {
		if desc {
			for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
				values[i], values[j] = values[j], values[i]
			}
		}
		if limit > 0 && len(values) > limit {
			values = values[:limit]
		}
	}
	s.observe("list", len(values), start, err)
	return values, err
}

func (s *Service) distinct(ctx context.Context, name string, filters []string) ([]string, error) {
	log := logger.FromContext(ctx)
	idx := s.engine.Index()

	var raw []string
	switch name {
	case "collections":
		if len(filters) > 0 {
			log.Warn("filters are not applicable to field", zap.String("field", name))
		}
		for _, c := range idx.Collections() {
			raw = append(raw, c.Name)
		}
	case "fields":
		if len(filters) > 0 {
			log.Warn("filters are not applicable to field", zap.String("field", name))
		}
		raw = append(raw, idx.Fields()...)
	default:
		res, err := s.query(ctx, domquery.Request{Fields: []string{name}, Filters: filters})
		if err != nil {
			return nil, err
		}
		for _, row := range res.Rows {
			raw = append(raw, splitValue(row[0], name)...)
		}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == "-" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return field.SortKey(out[i], name).Less(field.SortKey(out[j], name))
	})
	return out, nil
}

func splitValue(cell, name string) []string {
	switch name {
	case "attachments", "tags":
		return strings.Split(cell, ";")
	case "authors", "creators", "editors":
		return strings.Split(cell, ", ")
	}
	return []string{cell}
}

// Pair is one header/value line of a single-document view.
type Pair struct {
	Header string
	Value  string
}

// View returns the requested fields of the first document whose field matches value.
// It fails with domain.ErrNoData when nothing matches.
func (s *Service) View(ctx context.Context, name, value string, fields []string) ([]Pair, error) {
	start := time.Now()
	if len(fields) == 0 {
		fields = []string{name}
	}
	res, err := s.query(ctx, domquery.Request{Fields: fields, Filters: []string{name + ":" + value}})
	s.observe("view", len(res.Rows), start, err)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, domain.ErrNoData
	}
	out := make([]Pair, len(res.Headers))
	for i, h := range res.Headers {
		out[i] = Pair{Header: h, Value: res.Rows[0][i]}
	}
	return out, nil
}
