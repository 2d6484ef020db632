package field

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kailas-cloud/bibq/internal/domain/date"
)

// Key is an orderable representation of a field value.
// Numeric keys compare by Num; textual keys compare by Text.
type Key struct {
	Numeric bool
	Num     float64
	Text    string
}

// Less orders keys; numeric keys sort before textual ones.
func (k Key) Less(o Key) bool {
	if k.Numeric != o.Numeric {
		return k.Numeric
	}
	if k.Numeric {
		return k.Num < o.Num
	}
	return k.Text < o.Text
}

var leadingArticle = regexp.MustCompile(`(?i)^(the|a|an)\s+`)

// SortKey returns the key used to order rows by the named field.
func SortKey(v any, name string) Key {
	switch {
	case IsDate(name):
		s := strings.TrimLeft(Format(v, name), "-")
		t, err := date.Parse(s)
		if err != nil {
			t = date.Sentinel
		}
		return Key{Numeric: true, Num: float64(t.Unix())}
	case IsInteger(name):
		return Key{Numeric: true, Num: numericKey(v)}
	case name == "title":
		return Key{Text: TitleKey(Format(v, name))}
	}
	if _, ok := v.(float64); ok {
		return Key{Numeric: true, Num: numericKey(v)}
	}
	if _, ok := v.(int); ok {
		return Key{Numeric: true, Num: numericKey(v)}
	}
	return Key{Text: strings.ToLower(Format(v, name))}
}

func numericKey(v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			return -1
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return -1
	}
	return f
}

// TitleKey normalizes a title for ordering: the leading article is dropped,
// a leading "@" or "$" reads as "a" or "s", other leading punctuation is ignored.
func TitleKey(title string) string {
	s := strings.TrimSpace(title)
	s = leadingArticle.ReplaceAllString(s, "")
	switch {
	case strings.HasPrefix(s, "@"):
		s = "a" + s[1:]
	case strings.HasPrefix(s, "$"):
		s = "s" + s[1:]
	}
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return strings.ToLower(s)
}

var numPrefix = regexp.MustCompile(`^num([A-Z].*)$`)

var headerAliases = map[string]string{
	"itemType": "Type",
	"what":     "What ?",
	"zscc":     "#Cited",
}

// Header returns the column title for a field name.
func Header(name string) string {
	if h, ok := headerAliases[name]; ok {
		return h
	}
	if m := numPrefix.FindStringSubmatch(name); m != nil {
		return "#" + m[1]
	}
	if name == "" {
		return ""
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
