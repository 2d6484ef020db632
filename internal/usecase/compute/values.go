package compute

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/field"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

type valueFunc func(e *Engine, i int, ctx Context) any

var handlers = map[field.Kind]valueFunc{
	field.AbstractShortNote: abstractShortNote,
	field.Attachments:       attachmentTitles,
	field.Authors:           func(e *Engine, i int, _ Context) any { return displays(e.idx.Doc(i).CreatorsOf(library.RoleAuthor)) },
	field.Editors:           func(e *Engine, i int, _ Context) any { return displays(e.idx.Doc(i).CreatorsOf(library.RoleEditor)) },
	field.FirstAuthor:       firstAuthor,
	field.NumAuthors:        func(e *Engine, i int, _ Context) any { return len(e.idx.Doc(i).CreatorsOf(library.RoleAuthor)) },
	field.NumEditors:        func(e *Engine, i int, _ Context) any { return len(e.idx.Doc(i).CreatorsOf(library.RoleEditor)) },
	field.NumCreators:       func(e *Engine, i int, _ Context) any { return len(e.idx.Doc(i).Creators()) },
	field.NumAttachments:    func(e *Engine, i int, _ Context) any { return len(e.idx.Attachments(i)) },
	field.NumNotes:          func(e *Engine, i int, _ Context) any { return len(e.idx.Notes(i)) },
	field.NumAnnotations:    func(e *Engine, i int, _ Context) any { return e.idx.Annotations(i) },
	field.NumPages:          numPages,
	field.Collections:       collectionNames,
	field.Citations:         func(e *Engine, i int, ctx Context) any { c, _ := e.Links(i, ctx); return c },
	field.References:        func(e *Engine, i int, ctx Context) any { _, r := e.Links(i, ctx); return r },
	field.Year:              func(e *Engine, i int, _ Context) any { return e.idx.Doc(i).Date().Year() },
	field.Rank:              rankValue,
	field.Zscc:              zscc,
	field.NoteComments:      noteValue("comments"),
	field.NoteResults:       noteValue("results"),
	field.NoteWhat:          noteValue("what"),
}

// Value returns the raw value of one field for the document at position i.
func (e *Engine) Value(i int, name string, ctx Context) any {
	if h, ok := handlers[field.KindOf(name)]; ok {
		return h(e, i, ctx)
	}
	if v, ok := e.idx.Doc(i).Field(name); ok {
		return v
	}
	return e.extras[i][name]
}

// Links counts relation links of document i to later (citations) and
// not-later (references) documents accepted by ctx.
func (e *Engine) Links(i int, ctx Context) (citations, references int) {
	d := e.idx.Doc(i)
	for _, j := range d.Links() {
		if !ctx.member(j) {
			continue
		}
		if e.idx.Doc(j).Date().After(d.Date()) {
			citations++
		} else {
			references++
		}
	}
	return citations, references
}

func displays(cs []library.Creator) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Display()
	}
	return out
}

func firstAuthor(e *Engine, i int, _ Context) any {
	as := e.idx.Doc(i).CreatorsOf(library.RoleAuthor)
	if len(as) == 0 {
		return ""
	}
	return as[0].Display()
}

func attachmentTitles(e *Engine, i int, _ Context) any {
	atts := e.idx.Attachments(i)
	out := make([]string, 0, len(atts))
	for _, a := range atts {
		out = append(out, a.Title)
	}
	return out
}

func collectionNames(e *Engine, i int, _ Context) any {
	keys := e.idx.Doc(i).CollectionKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if c, ok := e.idx.Collection(k); ok {
			out = append(out, c.Name)
		}
	}
	return out
}

var (
	sentenceEnd = regexp.MustCompile(`\.(\s|$)`)
	newlines    = regexp.MustCompile(`\r?\n`)
)

func abstractShortNote(e *Engine, i int, _ Context) any {
	abs := strings.TrimSpace(e.idx.Doc(i).String("abstractNote"))
	if abs == "" {
		return ""
	}
	first := sentenceEnd.Split(abs, 2)[0]
	return newlines.ReplaceAllString(strings.TrimSpace(first), "") + "."
}

func rankValue(_ *Engine, i int, ctx Context) any {
	if r, ok := ctx.Ranks[i]; ok {
		return r
	}
	return 0.0
}

func zscc(e *Engine, i int, _ Context) any {
	if v, ok := e.idx.Doc(i).Field("zscc"); ok {
		return v
	}
	return e.extras[i]["zscc"]
}

func noteValue(key string) valueFunc {
	return func(e *Engine, i int, _ Context) any { return e.notes[i][key] }
}

var pagesPattern = regexp.MustCompile(`^(\d+)(?:\s*[-–]+\s*(\d+))?$`)

func numPages(e *Engine, i int, _ Context) any { return e.pages[i] }

// pagesOf reads numPages, falling back to the pages range.
func pagesOf(d *library.Document) (int, error) {
	raw, ok := d.Field("numPages")
	if s := pageText(raw); !ok || s == "" {
		raw, _ = d.Field("pages")
	}
	return ParsePages(pageText(raw))
}

func pageText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

// ParsePages reads a bare page count or a "start-end" range.
// A zero count, missing input or an empty range yields -1; unparsable text yields -1 and ErrBadPagesValue.
func ParsePages(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, nil
	}
	m := pagesPattern.FindStringSubmatch(s)
	if m == nil {
		return -1, fmt.Errorf("%w: %q", domain.ErrBadPagesValue, s)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, fmt.Errorf("%w: %q", domain.ErrBadPagesValue, s)
	}
	end := 0
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return -1, fmt.Errorf("%w: %q", domain.ErrBadPagesValue, s)
		}
	}
	n := start - end
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return -1, nil
	}
	return n, nil
}
