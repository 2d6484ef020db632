package library

import (
	"strings"
	"time"
)

// Creator roles used by computed fields.
const (
	RoleAuthor = "author"
	RoleEditor = "editor"
)

// Creator is a single entry of a document's creator list.
type Creator struct {
	Type      string
	FirstName string
	LastName  string
	Name      string
}

// Display renders the creator as "<lastName> <firstName>" unless a single display name is set.
func (c Creator) Display() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.LastName + " " + c.FirstName)
}

// Document is a top-level bibliographic record.
// Links hold indices of related documents in the owning Index.
type Document struct {
	key            string
	data           map[string]any
	numChildren    int
	creators       []Creator
	tags           []string
	collectionKeys []string
	links          []int
	date           time.Time
	dateErr        error
}

// Key returns the document key.
func (d *Document) Key() string { return d.key }

// Field returns the native field value.
func (d *Document) Field(name string) (any, bool) {
	v, ok := d.data[name]
	return v, ok
}

// HasField reports whether name is a native field of the document.
func (d *Document) HasField(name string) bool {
	_, ok := d.data[name]
	return ok
}

// String returns a native field as a string, empty if absent or not a string.
func (d *Document) String(name string) string {
	s, _ := d.data[name].(string)
	return s
}

// Title returns the document title.
func (d *Document) Title() string { return d.String("title") }

// NumChildren returns the child count reported by the snapshot.
func (d *Document) NumChildren() int { return d.numChildren }

// Creators returns every creator entry.
func (d *Document) Creators() []Creator { return d.creators }

// CreatorsOf returns the creators with the given role.
func (d *Document) CreatorsOf(role string) []Creator {
	var out []Creator
	for _, c := range d.creators {
		if c.Type == role {
			out = append(out, c)
		}
	}
	return out
}

// Tags returns the parsed tag literals.
func (d *Document) Tags() []string { return d.tags }

// CollectionKeys returns the keys of the collections the document belongs to.
func (d *Document) CollectionKeys() []string { return d.collectionKeys }

// Links returns the indices of related documents.
func (d *Document) Links() []int { return d.links }

// Date returns the parsed date, the sentinel when absent or unparsable.
func (d *Document) Date() time.Time { return d.date }

// DateErr returns the parse error of a non-empty unparsable date.
func (d *Document) DateErr() error { return d.dateErr }

// Collection is a named group of documents.
type Collection struct {
	Key  string
	Name string
}

// Attachment is a file or link attached to a document.
type Attachment struct {
	Key    string
	Parent string
	Title  string
}

// Note is an HTML-ish note attached to a document.
type Note struct {
	Key    string
	Parent string
	Body   string
}

// Annotation is a highlight or comment attached to a document.
type Annotation struct {
	Key    string
	Parent string
}

// ParseTags extracts tag literals from either a ";"-delimited string or a list of {"tag": ...} objects.
func ParseTags(raw any) []string {
	var out []string
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		out = strings.Split(v, ";")
	case []any:
		for _, t := range v {
			switch tt := t.(type) {
			case map[string]any:
				if s, ok := tt["tag"].(string); ok {
					out = append(out, s)
				}
			case string:
				out = append(out, tt)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func parseCreators(raw any) []Creator {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Creator, 0, len(list))
	for _, x := range list {
		m, ok := x.(map[string]any)
		if !ok {
			continue
		}
		c := Creator{}
		c.Type, _ = m["creatorType"].(string)
		c.FirstName, _ = m["firstName"].(string)
		c.LastName, _ = m["lastName"].(string)
		c.Name, _ = m["name"].(string)
		out = append(out, c)
	}
	return out
}

func parseStrings(raw any) []string {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// relationKeys extracts target keys from relations["dc:relation"], which is either one URI or a list.
// The key is the last path segment of each URI.
func relationKeys(raw any) []string {
	rel, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	uris := parseStrings(rel["dc:relation"])
	keys := make([]string, 0, len(uris))
	for _, u := range uris {
		u = strings.TrimRight(u, "/")
		if i := strings.LastIndex(u, "/"); i >= 0 {
			u = u[i+1:]
		}
		if u != "" {
			keys = append(keys, u)
		}
	}
	return keys
}
