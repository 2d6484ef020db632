package compute

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/bibq/internal/domain/field"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

const noteBlocks = "p, li, h1, h2, h3, h4, h5, h6, pre"

// parseNotes collects the note-block fields of a document's notes.
// Each note contributes the first "Key: value" line of its text; a later note overrides an earlier one.
func parseNotes(notes []library.Note) map[string]string {
	out := make(map[string]string)
	for _, n := range notes {
		k, v, ok := noteField(n.Body)
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

func noteField(body string) (string, string, bool) {
	for _, line := range noteLines(body) {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		for _, known := range field.NoteFields {
			if k == known {
				return k, strings.TrimSpace(v), true
			}
		}
		return "", "", false
	}
	return "", "", false
}

// noteLines returns the text of block elements, or the raw text lines when the note has none.
func noteLines(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.Split(body, "\n")
	}
	var lines []string
	doc.Find(noteBlocks).Each(func(_ int, s *goquery.Selection) {
		for _, l := range strings.Split(s.Text(), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
	})
	if len(lines) > 0 {
		return lines
	}
	for _, l := range strings.Split(doc.Text(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
