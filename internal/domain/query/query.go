// Package query holds the request and result shapes of a library query.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bibq/internal/domain"
)

// Request describes one query over the snapshot.
// Limit uses "[<|>]field:count" or a bare "count"; empty means no limit.
type Request struct {
	Fields  []string
	Filters []string
	Sort    string
	Desc    bool
	Limit   string
	Force   bool
}

// ParseSort splits "[<|>]field" into a field and a descending flag.
// Without a direction prefix, desc keeps the caller's default.
func ParseSort(spec string, desc bool) (string, bool) {
	spec = strings.TrimSpace(spec)
	switch {
	case strings.HasPrefix(spec, ">"):
		return strings.TrimSpace(spec[1:]), true
	case strings.HasPrefix(spec, "<"):
		return strings.TrimSpace(spec[1:]), false
	}
	return spec, desc
}

// Limit is a parsed limit spec.
type Limit struct {
	Field string
	Count int
	Desc  bool
}

var limitSpec = regexp.MustCompile(`^([<>]?)([^:<>]+):(.*)$`)

// ParseLimit parses a limit spec. A bare count limits on sortField, ascending.
// An empty spec returns nil.
func ParseLimit(spec, sortField string) (*Limit, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	l := &Limit{Field: sortField}
	countStr := spec
	if m := limitSpec.FindStringSubmatch(spec); m != nil {
		l.Desc = m[1] == ">"
		l.Field = strings.TrimSpace(m[2])
		countStr = strings.TrimSpace(m[3])
	}
	n, err := strconv.Atoi(countStr)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %q, count must be a positive integer", domain.ErrBadLimit, spec)
	}
	l.Count = n
	return l, nil
}

// Result is an ordered table of display strings.
// Keys holds the document key of each row.
type Result struct {
	Headers []string
	Rows    [][]string
	Keys    []string
}

// Empty reports whether the result has no rows.
func (r Result) Empty() bool { return len(r.Rows) == 0 }

// Column returns the position of a header, -1 if absent.
func (r Result) Column(header string) int {
	for i, h := range r.Headers {
		if h == header {
			return i
		}
	}
	return -1
}
