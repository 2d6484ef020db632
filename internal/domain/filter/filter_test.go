package filter

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/bibq/internal/domain"
)

type row map[string]any

func (r row) Value(name string) any { return r[name] }

type catalog struct {
	fields map[string]bool
	tags   map[string]bool
}

func (c catalog) HasField(n string) bool { return c.fields[n] }
func (c catalog) HasTag(t string) bool   { return c.tags[t] }
func (c catalog) Fields() []string {
	out := make([]string, 0, len(c.fields))
	for f := range c.fields {
		out = append(out, f)
	}
	return out
}
func (c catalog) Tags() []string {
	out := make([]string, 0, len(c.tags))
	for t := range c.tags {
		out = append(out, t)
	}
	return out
}

func testCatalog() catalog {
	return catalog{
		fields: map[string]bool{
			"title": true, "date": true, "dateAdded": true, "tags": true, "numPages": true,
			"numAttachments": true, "year": true, "rank": true, "url": true, "collections": true,
		},
		tags: map[string]bool{"ml": true, "nlp": true},
	}
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in      string
		want    Term
		wantErr bool
	}{
		{"title:deep", Term{Field: "title", Operand: "deep"}, false},
		{"~url:http", Term{Field: "url", Operand: "http", Negate: true}, false},
		{"date:>Sep 2018", Term{Field: "date", Operand: ">Sep 2018"}, false},
		{"url:http://x", Term{Field: "url", Operand: "http://x"}, false},
		{"title", Term{}, true},
		{"title:", Term{}, true},
		{":x", Term{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTerm(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrBadFilterSyntax) {
					t.Fatalf("expected ErrBadFilterSyntax, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompile_Kinds(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		expr string
		want string
	}{
		{"numPages:>10", "numeric"},
		{"numAttachments:0", "numeric"},
		{"date:>Sep 2018", "date"},
		{"date:-", "date"},
		{"tags:ml", "tag"},
		{"tags:<empty>", "tag"},
		{"url:-", "empty"},
		{"year:<empty>", "empty"},
		{"rank:>0.5", "numeric"},
		{"title:deep", "regex"},
		{"rank:high", "regex"},
		{"numPages:many", "regex"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			term, err := ParseTerm(tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			p, err := Compile(term, cat)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got string
			switch p.(type) {
			case NumericCompare:
				got = "numeric"
			case DateCompare:
				got = "date"
			case TagExact:
				got = "tag"
			case EmptySentinel:
				got = "empty"
			case Regex:
				got = "regex"
			}
			if got != tt.want {
				t.Errorf("Compile(%q) = %T, want %s", tt.expr, p, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		expr string
		want error
	}{
		{"tags:unknown", domain.ErrUnknownTag},
		{"date:>yesterday", domain.ErrBadDateFormat},
		{"title:[", domain.ErrBadFilterSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			term, err := ParseTerm(tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err = Compile(term, cat)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnknownTag_ListsKnownTags(t *testing.T) {
	_, err := NewSet([]string{"tags:zzz"}, testCatalog())
	var tagErr *domain.UnknownTagError
	if !errors.As(err, &tagErr) {
		t.Fatalf("expected UnknownTagError, got %v", err)
	}
	if len(tagErr.Known) != 2 {
		t.Errorf("expected known tags listed, got %v", tagErr.Known)
	}
}

func TestNewSet_UnknownField(t *testing.T) {
	_, err := NewSet([]string{"bogus:x"}, testCatalog())
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSet_DateFilter(t *testing.T) {
	s, err := NewSet([]string{"date:>Sep 2018"}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Keep(row{"date": "2019-10-01T12:00:00Z"}, false) {
		t.Error("2019-10-01 should be kept")
	}
	if s.Keep(row{"date": "Aug 2017"}, false) {
		t.Error("Aug 2017 should be dropped")
	}
}

func TestSet_Matching(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		r     row
		want  bool
	}{
		{"regex case-insensitive", []string{"title:DEEP"}, row{"title": "Going deep"}, true},
		{"negated regex", []string{"~title:deep"}, row{"title": "Going deep"}, false},
		{"numeric gt", []string{"numPages:>10"}, row{"numPages": 12}, true},
		{"numeric eq bare", []string{"numAttachments:0"}, row{"numAttachments": 0}, true},
		{"numeric non-number", []string{"numPages:>10"}, row{"numPages": "x"}, false},
		{"tag exact", []string{"tags:ml"}, row{"tags": []any{map[string]any{"tag": "ml"}}}, true},
		{"tag no substring", []string{"tags:ml"}, row{"tags": "mlops"}, false},
		{"tag empty", []string{"tags:-"}, row{"tags": []any{}}, true},
		{"year empty", []string{"year:-"}, row{"year": 1900}, true},
		{"year present", []string{"year:-"}, row{"year": 2019}, false},
		{"url empty", []string{"url:<empty>"}, row{"url": ""}, true},
		{"not url empty", []string{"~url:-"}, row{"url": ""}, false},
		{"date empty", []string{"dateAdded:-"}, row{"dateAdded": ""}, true},
		{"repeated field AND", []string{"title:deep", "title:learning"}, row{"title": "deep nets"}, false},
		{"repeated field both", []string{"title:deep", "title:nets"}, row{"title": "deep nets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSet(tt.exprs, testCatalog())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := s.Keep(tt.r, true); got != tt.want {
				t.Errorf("Keep = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet_RankDeferred(t *testing.T) {
	s, err := NewSet([]string{"rank:>0.5", "title:x"}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := row{"title": "x", "rank": 0.1}
	if !s.Keep(r, false) {
		t.Error("rank predicate must be skipped in the first pass")
	}
	if s.Keep(r, true) {
		t.Error("rank predicate must apply in the second pass")
	}
	if !s.HasField("rank") || len(s.For("rank")) != 1 {
		t.Error("rank field should be tracked")
	}
}

func TestSet_OrderIndependent(t *testing.T) {
	a, _ := NewSet([]string{"title:deep", "numPages:>10"}, testCatalog())
	b, _ := NewSet([]string{"numPages:>10", "title:deep"}, testCatalog())
	rows := []row{
		{"title": "deep", "numPages": 12},
		{"title": "deep", "numPages": 2},
		{"title": "flat", "numPages": 12},
	}
	for _, r := range rows {
		if a.Keep(r, true) != b.Keep(r, true) {
			t.Errorf("order changed the outcome for %v", r)
		}
	}
}
