// Package query runs filtered, ranked, limited and sorted queries over a snapshot.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain/field"
	"github.com/kailas-cloud/bibq/internal/domain/filter"
	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
	"github.com/kailas-cloud/bibq/internal/logger"
	"github.com/kailas-cloud/bibq/internal/usecase/compute"
	"github.com/kailas-cloud/bibq/internal/usecase/rank"
)

// Service orchestrates the computed-field engine, filters and ranking.
type Service struct {
	engine *compute.Engine
	marks  MarkReader
	obs    Observer
}

// New creates a query service. marks and obs may be nil.
func New(engine *compute.Engine, marks MarkReader, obs Observer) *Service {
	return &Service{engine: engine, marks: marks, obs: obs}
}

// Fields returns the known field names.
func (s *Service) Fields() []string { return s.engine.Index().Fields() }

// Tags returns the known tag literals.
func (s *Service) Tags() []string { return s.engine.Index().Tags() }

// Query returns the formatted table for req. An empty result is not an error.
func (s *Service) Query(ctx context.Context, req domquery.Request) (domquery.Result, error) {
	start := time.Now()
	res, err := s.query(ctx, req)
	s.observe("query", len(res.Rows), start, err)
	return res, err
}

func (s *Service) query(ctx context.Context, req domquery.Request) (domquery.Result, error) {
	log := logger.FromContext(ctx)
	idx := s.engine.Index()

	fields := req.Fields
	if len(fields) == 0 {
		fields = []string{"title"}
	}
	sortField, desc := domquery.ParseSort(req.Sort, req.Desc)
	if sortField == "" {
		sortField = fields[0]
	}
	lim, err := domquery.ParseLimit(req.Limit, sortField)
	if err != nil {
		return domquery.Result{}, err
	}
	filters, err := filter.NewSet(req.Filters, idx)
	if err != nil {
		return domquery.Result{}, err
	}
	selected := expandFields(fields, sortField, lim, filters)
	if err = filter.Validate(selected, idx); err != nil {
		return domquery.Result{}, err
	}
	log.Debug("selected fields", zap.Strings("fields", selected), zap.Int("filters", filters.Len()))

	marks, err := s.loadMarks(ctx, req.Force)
	if err != nil {
		return domquery.Result{}, err
	}

	lc := s.linkContext(filters)
	rows := s.filterPass(selected, filters, lc, marks[MarkerIgnore], false)
	headers := headersFor(fields)
	if len(rows) == 0 {
		log.Info("no data")
		return domquery.Result{Headers: headers}, nil
	}

	if contains(selected, "rank") {
		ranks := s.rank(ctx, rows)
		lc.Ranks = ranks
		rows = s.filterPass(selected, filters, lc, marks[MarkerIgnore], true)
		if len(rows) == 0 {
			log.Info("no data")
			return domquery.Result{Headers: headers}, nil
		}
	}

	if irrelevant := marks[MarkerIrrelevant]; len(irrelevant) > 0 {
		kept := rows[:0]
		for _, r := range rows {
			if !irrelevant[r.Key] {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	if lim != nil {
		log.Debug("limiting rows", zap.String("field", lim.Field), zap.Int("count", lim.Count), zap.Bool("desc", lim.Desc))
		sortRows(rows, lim.Field, lim.Desc)
		if len(rows) > lim.Count {
			rows = rows[:lim.Count]
		}
	}
	sortRows(rows, sortField, desc)

	out := domquery.Result{
		Headers: headers,
		Rows:    make([][]string, 0, len(rows)),
		Keys:    make([]string, 0, len(rows)),
	}
	for _, r := range rows {
		cells := make([]string, len(fields))
		for i, f := range fields {
			v := r.Value(f)
			if !field.Truthy(v) {
				cells[i] = "-"
				continue
			}
			cells[i] = field.Format(v, f)
		}
		out.Rows = append(out.Rows, cells)
		out.Keys = append(out.Keys, r.Key)
	}
	return out, nil
}

// Count returns the number of documents matching filters.
func (s *Service) Count(ctx context.Context, filters []string) (int, error) {
	start := time.Now()
	res, err := s.query(ctx, domquery.Request{Fields: []string{"title"}, Filters: filters})
	s.observe("count", len(res.Rows), start, err)
	if err != nil {
		return 0, err
	}
	return len(res.Rows), nil
}

func (s *Service) filterPass(
	fields []string, filters *filter.Set, lc compute.Context, ignored map[string]bool, withDeferred bool,
) []*compute.Row {
	idx := s.engine.Index()
	var rows []*compute.Row
	for i := 0; i < idx.Len(); i++ {
		if ignored[idx.Doc(i).Key()] {
			continue
		}
		r := s.engine.Row(i, fields, lc)
		if filters.Keep(r, withDeferred) {
			rows = append(rows, r)
		}
	}
	return rows
}

// linkContext restricts relation links to documents passing the collections filter, if any.
func (s *Service) linkContext(filters *filter.Set) compute.Context {
	if !filters.HasField("collections") {
		return compute.Context{}
	}
	idx := s.engine.Index()
	member := make([]bool, idx.Len())
	for i := range member {
		member[i] = filters.KeepField("collections", s.engine.Row(i, []string{"collections"}, compute.Context{}))
	}
	return compute.Context{Member: func(i int) bool { return member[i] }}
}

// rank scores the working set; links leaving it are ignored.
func (s *Service) rank(ctx context.Context, rows []*compute.Row) map[int]float64 {
	idx := s.engine.Index()
	pos := make(map[int]int, len(rows))
	for p, r := range rows {
		pos[r.Doc] = p
	}
	nodes := make([]rank.Node, len(rows))
	for p, r := range rows {
		d := idx.Doc(r.Doc)
		n := rank.Node{Year: d.Date().Year(), Date: d.Date()}
		if refs, ok := r.Value("references").(int); ok {
			n.References = refs
		}
		for _, j := range d.Links() {
			if q, ok := pos[j]; ok {
				n.Links = append(n.Links, q)
			}
		}
		nodes[p] = n
	}
	res := rank.Compute(nodes)
	logger.FromContext(ctx).Debug("ranking done",
		zap.Int("documents", len(nodes)), zap.Int("sweeps", res.Sweeps), zap.Bool("converged", res.Converged))
	if s.obs != nil {
		s.obs.ObserveRank(res.Sweeps, res.Converged)
	}
	ranks := make(map[int]float64, len(rows))
	for p, r := range rows {
		ranks[r.Doc] = res.Scores[p]
	}
	return ranks
}

func (s *Service) loadMarks(ctx context.Context, force bool) (map[string]map[string]bool, error) {
	out := map[string]map[string]bool{}
	if force || s.marks == nil {
		return out, nil
	}
	for _, m := range []string{MarkerIgnore, MarkerIrrelevant} {
		keys, err := s.marks.Keys(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("read %s marks: %w", m, err)
		}
		set := make(map[string]bool, len(keys))
		for _, k := range keys {
			set[k] = true
		}
		out[m] = set
	}
	return out, nil
}

func (s *Service) observe(op string, rows int, start time.Time, err error) {
	if s.obs != nil {
		s.obs.ObserveQuery(op, rows, time.Since(start), err)
	}
}

// expandFields adds the sort and limit fields, and the rank prerequisites when rank is involved.
func expandFields(fields []string, sortField string, lim *domquery.Limit, filters *filter.Set) []string {
	out := appendUnique(nil, fields...)
	out = appendUnique(out, sortField)
	if lim != nil {
		out = appendUnique(out, lim.Field)
	}
	if contains(out, "rank") || filters.HasField("rank") {
		out = appendUnique(out, field.RankPrerequisites...)
	}
	return appendUnique(out, filters.Fields()...)
}

func headersFor(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = field.Header(f)
	}
	return out
}

// sortRows orders rows by the sort key of name, stably, then reverses if desc.
func sortRows(rows []*compute.Row, name string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		return field.SortKey(rows[i].Value(name), name).Less(field.SortKey(rows[j].Value(name), name))
	})
	if desc {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if !contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
