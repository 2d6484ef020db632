package filter

import (
	"github.com/kailas-cloud/bibq/internal/domain"
)

// Deferred reports whether a predicate waits for ranking.
func Deferred(p Predicate) bool { return p.Field() == "rank" }

// Set is the compiled conjunction of every filter expression of a query.
type Set struct {
	preds  []Predicate
	fields []string
}

// NewSet parses and compiles every expression.
func NewSet(exprs []string, cat Catalog) (*Set, error) {
	s := &Set{}
	seen := make(map[string]bool)
	for _, e := range exprs {
		t, err := ParseTerm(e)
		if err != nil {
			return nil, err
		}
		if !cat.HasField(t.Field) {
			return nil, domain.NewUnknownField(t.Field, cat.Fields())
		}
		p, err := Compile(t, cat)
		if err != nil {
			return nil, err
		}
		s.preds = append(s.preds, p)
		if !seen[t.Field] {
			seen[t.Field] = true
			s.fields = append(s.fields, t.Field)
		}
	}
	return s, nil
}

// Len returns the number of predicates.
func (s *Set) Len() int { return len(s.preds) }

// Fields returns the filtered field names in first-use order.
func (s *Set) Fields() []string { return s.fields }

// HasField reports whether any predicate filters on name.
func (s *Set) HasField(name string) bool {
	for _, f := range s.fields {
		if f == name {
			return true
		}
	}
	return false
}

// For returns the predicates on one field.
func (s *Set) For(name string) []Predicate {
	var out []Predicate
	for _, p := range s.preds {
		if p.Field() == name {
			out = append(out, p)
		}
	}
	return out
}

// Keep reports whether every predicate keeps the row, stopping at the first drop.
// Rank predicates are skipped unless withDeferred is set.
func (s *Set) Keep(v Valuer, withDeferred bool) bool {
	for _, p := range s.preds {
		if !withDeferred && Deferred(p) {
			continue
		}
		if !p.Match(v) {
			return false
		}
	}
	return true
}

// KeepField evaluates only the predicates on one field.
func (s *Set) KeepField(name string, v Valuer) bool {
	for _, p := range s.preds {
		if p.Field() == name && !p.Match(v) {
			return false
		}
	}
	return true
}

// Validate checks that every name is a known field.
func Validate(names []string, cat Catalog) error {
	for _, n := range names {
		if !cat.HasField(n) {
			return domain.NewUnknownField(n, cat.Fields())
		}
	}
	return nil
}
