// Package filter parses "[~]field:operand" expressions into predicates over row values.
package filter

import (
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/bibq/internal/domain/date"
	"github.com/kailas-cloud/bibq/internal/domain/field"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

// Valuer exposes the computed values of one row.
type Valuer interface {
	Value(name string) any
}

// Predicate is a compiled filter term.
type Predicate interface {
	Field() string
	Match(v Valuer) bool
}

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpLT Op = "<"
	OpGT Op = ">"
	OpLE Op = "<="
	OpGE Op = ">="
	OpEQ Op = "=="
)

func (o Op) compare(a, b float64) bool {
	switch o {
	case OpLT:
		return a < b
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpGE:
		return a >= b
	default:
		return a == b
	}
}

// Regex matches the formatted value case-insensitively.
type Regex struct {
	field string
	re    *regexp.Regexp
}

// Field returns the filtered field.
func (p Regex) Field() string { return p.field }

// Match reports whether the pattern occurs anywhere in the formatted value.
func (p Regex) Match(v Valuer) bool {
	return p.re.MatchString(field.Format(v.Value(p.field), p.field))
}

// NumericCompare compares a numeric value against a constant.
type NumericCompare struct {
	field string
	op    Op
	value float64
}

// Field returns the filtered field.
func (p NumericCompare) Field() string { return p.field }

// Match converts the value to a number; non-numeric values never match.
func (p NumericCompare) Match(v Valuer) bool {
	n, ok := field.Number(v.Value(p.field))
	if !ok {
		return false
	}
	return p.op.compare(n, p.value)
}

// DateCompare compares a date value against a constant instant.
// With empty set it matches rows whose raw value is the empty string.
type DateCompare struct {
	field string
	op    Op
	at    time.Time
	empty bool
}

// Field returns the filtered field.
func (p DateCompare) Field() string { return p.field }

// Match parses the row value; unparsable dates compare as the sentinel.
func (p DateCompare) Match(v Valuer) bool {
	raw := field.Format(v.Value(p.field), p.field)
	if p.empty {
		return raw == ""
	}
	t, err := date.Parse(raw)
	if err != nil {
		t = date.Sentinel
	}
	a, b := t.Unix(), p.at.Unix()
	switch p.op {
	case OpLT:
		return a < b
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpGE:
		return a >= b
	default:
		return a == b
	}
}

// TagExact matches a literal tag; with empty set it matches documents without tags.
type TagExact struct {
	tag   string
	empty bool
}

// Field returns "tags".
func (p TagExact) Field() string { return "tags" }

// Match checks membership in the parsed tag list.
func (p TagExact) Match(v Valuer) bool {
	tags := library.ParseTags(v.Value("tags"))
	if p.empty {
		return len(tags) == 0
	}
	for _, t := range tags {
		if t == p.tag {
			return true
		}
	}
	return false
}

// EmptySentinel matches absent values: the sentinel year on "year", an empty
// formatted value elsewhere.
type EmptySentinel struct {
	field string
}

// Field returns the filtered field.
func (p EmptySentinel) Field() string { return p.field }

// Match reports whether the value is absent.
func (p EmptySentinel) Match(v Valuer) bool {
	val := v.Value(p.field)
	if p.field == "year" {
		n, ok := field.Number(val)
		return ok && int(n) == date.SentinelYear
	}
	return strings.TrimSpace(field.Format(val, p.field)) == ""
}

// Negated inverts another predicate.
type Negated struct {
	Inner Predicate
}

// Field returns the inner field.
func (p Negated) Field() string { return p.Inner.Field() }

// Match inverts the inner result.
func (p Negated) Match(v Valuer) bool { return !p.Inner.Match(v) }
