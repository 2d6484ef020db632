// Package compute derives field values for documents of a snapshot index.
package compute

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// Context carries the per-query graph state computed values depend on.
type Context struct {
	// Member restricts relation links to documents it accepts; nil accepts all.
	Member func(doc int) bool
	// Ranks holds rank scores by document position once ranking has run.
	Ranks map[int]float64
}

func (c Context) member(i int) bool { return c.Member == nil || c.Member(i) }

// Row holds the requested values of one document.
type Row struct {
	Doc    int
	Key    string
	values map[string]any
}

// Value returns a computed value, nil if it was not requested.
func (r *Row) Value(name string) any { return r.values[name] }

// Set overrides a value.
func (r *Row) Set(name string, v any) { r.values[name] = v }

// Engine computes field values over a read-only index.
// Page counts, extra-block and note-block fields are parsed once at construction.
type Engine struct {
	idx    *library.Index
	logger *zap.Logger
	pages  []int
	extras []map[string]any
	notes  []map[string]string
}

// New creates an engine for idx.
func New(idx *library.Index, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		idx:    idx,
		logger: logger,
		pages:  make([]int, idx.Len()),
		extras: make([]map[string]any, idx.Len()),
		notes:  make([]map[string]string, idx.Len()),
	}
	for i := 0; i < idx.Len(); i++ {
		d := idx.Doc(i)
		if err := d.DateErr(); err != nil {
			logger.Warn("unparsable date, using sentinel year",
				zap.String("key", d.Key()), zap.Error(err))
		}
		n, err := pagesOf(d)
		if err != nil {
			logger.Warn("unparsable page count", zap.String("key", d.Key()), zap.Error(err))
		}
		e.pages[i] = n
		e.extras[i] = e.parseExtra(d)
		e.notes[i] = parseNotes(idx.Notes(i))
	}
	return e
}

// Index returns the underlying index.
func (e *Engine) Index() *library.Index { return e.idx }

// Row computes the named fields of the document at position i.
func (e *Engine) Row(i int, fields []string, ctx Context) *Row {
	r := &Row{Doc: i, Key: e.idx.Doc(i).Key(), values: make(map[string]any, len(fields))}
	for _, f := range fields {
		r.values[f] = e.Value(i, f, ctx)
	}
	return r
}

// parseExtra reads "Key: value" lines of the extra block. Keys already present
// as native fields are ignored; zscc defaults to -1.
func (e *Engine) parseExtra(d *library.Document) map[string]any {
	out := map[string]any{"zscc": -1}
	for _, line := range strings.Split(d.String("extra"), "\n") {
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || d.HasField(k) {
			continue
		}
		if k == "zscc" {
			n, err := strconv.Atoi(v)
			if err != nil {
				e.logger.Warn("zscc is not an integer",
					zap.String("key", d.Key()), zap.String("value", v))
				continue
			}
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}
