package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/date"
	"github.com/kailas-cloud/bibq/internal/domain/field"
)

// Catalog exposes the known fields and tags of a snapshot.
type Catalog interface {
	HasField(name string) bool
	Fields() []string
	HasTag(tag string) bool
	Tags() []string
}

var (
	numericOperand = regexp.MustCompile(`^(<|>|<=|>=|==)?(\d+)$`)
	dateOperand    = regexp.MustCompile(`^(<|>|<=|>=|==)([^=]*)$`)
	rankOperand    = regexp.MustCompile(`^(<|>|<=|>=|==)(\d+|\d*\.\d+)$`)
)

// IsEmptyToken reports whether the operand denotes an absent value.
func IsEmptyToken(s string) bool { return s == "-" || s == "<empty>" }

// Term is a parsed, not yet compiled, filter expression.
type Term struct {
	Field   string
	Operand string
	Negate  bool
}

// ParseTerm splits "[~]field:operand" on the first colon.
func ParseTerm(expr string) (Term, error) {
	s := strings.TrimSpace(expr)
	neg := strings.HasPrefix(s, "~")
	if neg {
		s = s[1:]
	}
	name, operand, ok := strings.Cut(s, ":")
	name, operand = strings.TrimSpace(name), strings.TrimSpace(operand)
	if !ok || name == "" || operand == "" {
		return Term{}, fmt.Errorf("%w: %q, expected [~]field:operand", domain.ErrBadFilterSyntax, expr)
	}
	return Term{Field: name, Operand: operand, Negate: neg}, nil
}

// Compile turns a term into a predicate. The first matching rule wins.
func Compile(t Term, cat Catalog) (Predicate, error) {
	p, err := compile(t, cat)
	if err != nil {
		return nil, err
	}
	if t.Negate {
		return Negated{Inner: p}, nil
	}
	return p, nil
}

func compile(t Term, cat Catalog) (Predicate, error) {
	name, op := t.Field, t.Operand

	if field.IsInteger(name) && name != "rank" {
		if m := numericOperand.FindStringSubmatch(op); m != nil {
			v, _ := strconv.ParseFloat(m[2], 64)
			return NumericCompare{field: name, op: operator(m[1]), value: v}, nil
		}
	}

	if strings.HasPrefix(name, "date") {
		if IsEmptyToken(op) {
			return DateCompare{field: name, empty: true}, nil
		}
		if m := dateOperand.FindStringSubmatch(op); m != nil {
			at, err := date.Parse(m[2])
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", name+":"+op, err)
			}
			return DateCompare{field: name, op: operator(m[1]), at: at}, nil
		}
	}

	if name == "tags" {
		if IsEmptyToken(op) {
			return TagExact{empty: true}, nil
		}
		if !cat.HasTag(op) {
			return nil, domain.NewUnknownTag(op, cat.Tags())
		}
		return TagExact{tag: op}, nil
	}

	if IsEmptyToken(op) {
		return EmptySentinel{field: name}, nil
	}

	if name == "rank" {
		if m := rankOperand.FindStringSubmatch(op); m != nil {
			v, _ := strconv.ParseFloat(m[2], 64)
			return NumericCompare{field: name, op: Op(m[1]), value: v}, nil
		}
	}

	re, err := regexp.Compile("(?i)" + op)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrBadFilterSyntax, op, err)
	}
	return Regex{field: name, re: re}, nil
}

func operator(s string) Op {
	if s == "" {
		return OpEQ
	}
	return Op(s)
}
