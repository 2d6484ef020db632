package field

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bibq/internal/domain/date"
)

// Displayer is implemented by values with a human-readable form, such as creators.
type Displayer interface {
	Display() string
}

var (
	camelFirst = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	camelRest  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// Format renders a field value as display text.
func Format(v any, name string) string {
	switch name {
	case "tags":
		return formatTags(v)
	case "itemType":
		if s, ok := v.(string); ok {
			return splitCamel(s)
		}
	case "rank":
		if f, ok := toFloat(v); ok {
			return fmt.Sprintf("%.3f", f)
		}
	case "year":
		if n, ok := toInt(v); ok && n == date.SentinelYear {
			return "-"
		}
	}
	if IsInteger(name) {
		if n, ok := toInt(v); ok && n < 0 {
			return "-"
		}
	}
	sep := ", "
	if name == "attachments" {
		sep = ";"
	}
	return formatValue(v, sep)
}

func formatValue(v any, sep string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Displayer:
		return x.Display()
	case []string:
		return strings.Join(x, sep)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, formatValue(e, sep))
		}
		return strings.Join(parts, sep)
	case map[string]any:
		if s, ok := creatorName(x); ok {
			return s
		}
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	if d, ok := v.(fmt.Stringer); ok {
		return d.String()
	}
	if list, ok := displayList(v); ok {
		return strings.Join(list, sep)
	}
	return fmt.Sprint(v)
}

func displayList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []Displayer:
		out := make([]string, len(x))
		for i, d := range x {
			out[i] = d.Display()
		}
		return out, true
	}
	return nil, false
}

func creatorName(m map[string]any) (string, bool) {
	if _, ok := m["creatorType"]; !ok {
		return "", false
	}
	if n, ok := m["name"].(string); ok && n != "" {
		return n, true
	}
	last, _ := m["lastName"].(string)
	first, _ := m["firstName"].(string)
	return strings.TrimSpace(last + " " + first), true
}

func formatTags(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ";")
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			switch t := e.(type) {
			case map[string]any:
				if s, ok := t["tag"].(string); ok {
					parts = append(parts, s)
				}
			case string:
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, ";")
	}
	return formatValue(v, ";")
}

func splitCamel(s string) string {
	s = camelFirst.ReplaceAllString(s, "$1 $2")
	s = camelRest.ReplaceAllString(s, "$1 $2")
	return strings.ToLower(s)
}

// Truthy reports whether a value counts as present when rendering cells.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []string:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// Number converts a value to float64 for numeric comparisons.
func Number(v any) (float64, bool) { return toFloat(v) }
