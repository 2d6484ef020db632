// Package field describes the fields a query can request: native passthrough fields
// and the closed set of computed ones, with their display and sort rules.
package field

import "strings"

// Kind identifies how a field value is obtained.
type Kind int

// Field kinds. Native covers every field stored on the document itself.
const (
	Native Kind = iota
	AbstractShortNote
	Attachments
	Authors
	Citations
	Collections
	Editors
	FirstAuthor
	NumAnnotations
	NumAttachments
	NumAuthors
	NumCreators
	NumEditors
	NumNotes
	NumPages
	Rank
	References
	Year
	Zscc
	NoteComments
	NoteResults
	NoteWhat
)

var computed = map[string]Kind{
	"abstractShortNote": AbstractShortNote,
	"attachments":       Attachments,
	"authors":           Authors,
	"citations":         Citations,
	"collections":       Collections,
	"editors":           Editors,
	"firstAuthor":       FirstAuthor,
	"numAnnotations":    NumAnnotations,
	"numAttachments":    NumAttachments,
	"numAuthors":        NumAuthors,
	"numCreators":       NumCreators,
	"numEditors":        NumEditors,
	"numNotes":          NumNotes,
	"numPages":          NumPages,
	"rank":              Rank,
	"references":        References,
	"year":              Year,
	"zscc":              Zscc,
	"comments":          NoteComments,
	"results":           NoteResults,
	"what":              NoteWhat,
}

// computedOrder fixes the order computed names are appended to the known field set.
var computedOrder = []string{
	"abstractShortNote", "attachments", "authors", "editors", "firstAuthor",
	"callNumber", "citations", "numAttachments", "numAuthors", "numCreators", "numEditors", "numNotes",
	"numAnnotations", "numPages", "rank", "references", "year", "zscc",
	"comments", "results", "what",
}

// integerFields hold counts or sentinel-aware integers.
var integerFields = map[string]bool{
	"callNumber": true, "citations": true, "numAttachments": true, "numAuthors": true,
	"numCreators": true, "numEditors": true, "numNotes": true, "numAnnotations": true,
	"numPages": true, "rank": true, "references": true, "year": true, "zscc": true,
}

// NoteFields are read from "Key: value" lines of child notes.
var NoteFields = []string{"comments", "results", "what"}

// RankPrerequisites are added to the selected fields whenever rank is involved.
var RankPrerequisites = []string{"rank", "citations", "references", "year", "zscc"}

// KindOf returns the kind of the named field.
func KindOf(name string) Kind {
	if k, ok := computed[name]; ok {
		return k
	}
	return Native
}

// IsComputed reports whether name is a computed field.
func IsComputed(name string) bool {
	_, ok := computed[name]
	return ok
}

// ComputedNames returns the names appended to the native field catalog.
func ComputedNames() []string {
	out := make([]string, len(computedOrder))
	copy(out, computedOrder)
	return out
}

// IsInteger reports whether name belongs to the integer field set.
func IsInteger(name string) bool { return integerFields[name] }

// IsDate reports whether name holds a date.
func IsDate(name string) bool {
	return strings.HasPrefix(name, "date") || strings.HasSuffix(name, "Date")
}

// IsNote reports whether name is one of the note-block fields.
func IsNote(name string) bool {
	k := KindOf(name)
	return k == NoteComments || k == NoteResults || k == NoteWhat
}
