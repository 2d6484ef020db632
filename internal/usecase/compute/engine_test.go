package compute

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/library"
)

func rec(key string, data map[string]any) library.Record {
	data["key"] = key
	return library.Record{Key: key, Data: data}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	snap := library.Snapshot{
		Collections: []library.Record{
			{Key: "C1", Data: map[string]any{"name": "biblio"}},
			{Key: "C2", Data: map[string]any{"name": "other"}},
		},
		Items: []library.Record{
			rec("D1", map[string]any{
				"title": "Old", "date": "2010", "pages": "12-15", "collections": []any{"C1", "C2"},
				"extra":        "ZSCC: 0000042\nOriginal Title: Vieux",
				"abstractNote": "First sentence. Second sentence.",
				"creators": []any{
					map[string]any{"creatorType": "author", "firstName": "Ada", "lastName": "Lovelace"},
					map[string]any{"creatorType": "author", "name": "ACM"},
					map[string]any{"creatorType": "editor", "firstName": "Alan", "lastName": "Turing"},
				},
			}),
			rec("D2", map[string]any{"title": "Mid", "date": "2015", "pages": "abc", "extra": "ZSCC: many"}),
			rec("D3", map[string]any{
				"title": "New", "date": "2020", "numPages": "300", "collections": []any{"C1"},
				"relations": map[string]any{"dc:relation": "http://zotero.org/users/1/items/D1"},
			}),
		},
		Children: []library.Record{
			{Key: "A1", Data: map[string]any{"itemType": "attachment", "parentItem": "D1", "title": "PDF"}},
			{Key: "A2", Data: map[string]any{"itemType": "attachment", "parentItem": "D1", "title": "Snapshot"}},
			{Key: "N1", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<h1>What: graph ranking</h1><p>more</p>"}},
			{Key: "N2", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<p>Results: good</p>"}},
			{Key: "N3", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<p>Unrelated: x</p>"}},
			{Key: "X1", Data: map[string]any{"itemType": "annotation", "parentItem": "D1"}},
		},
	}
	idx, err := library.Build(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(idx, zap.NewNop())
}

func engineFor(t *testing.T, logger *zap.Logger, items []library.Record, children ...library.Record) *Engine {
	t.Helper()
	idx, err := library.Build(library.Snapshot{Items: items, Children: children})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(idx, logger)
}

func TestEngine_CreatorFields(t *testing.T) {
	e := newTestEngine(t)
	r := e.Row(0, []string{"authors", "editors", "firstAuthor", "numAuthors", "numEditors", "numCreators"}, Context{})

	authors, _ := r.Value("authors").([]string)
	if len(authors) != 2 || authors[0] != "Lovelace Ada" || authors[1] != "ACM" {
		t.Errorf("authors = %v", authors)
	}
	if r.Value("firstAuthor") != "Lovelace Ada" {
		t.Errorf("firstAuthor = %v", r.Value("firstAuthor"))
	}
	if r.Value("numAuthors") != 2 || r.Value("numEditors") != 1 || r.Value("numCreators") != 3 {
		t.Errorf("counts = %v %v %v", r.Value("numAuthors"), r.Value("numEditors"), r.Value("numCreators"))
	}
}

func TestEngine_Children(t *testing.T) {
	e := newTestEngine(t)
	r := e.Row(0, []string{"numAttachments", "numNotes", "numAnnotations", "attachments"}, Context{})
	if r.Value("numAttachments") != 2 || r.Value("numNotes") != 3 || r.Value("numAnnotations") != 1 {
		t.Errorf("child counts = %v %v %v", r.Value("numAttachments"), r.Value("numNotes"), r.Value("numAnnotations"))
	}
	titles, _ := r.Value("attachments").([]string)
	if len(titles) != 2 || titles[0] != "PDF" {
		t.Errorf("attachments = %v", titles)
	}
}

func TestEngine_NoteFields(t *testing.T) {
	e := newTestEngine(t)
	if got := e.Value(0, "what", Context{}); got != "graph ranking" {
		t.Errorf("what = %q", got)
	}
	if got := e.Value(0, "results", Context{}); got != "good" {
		t.Errorf("results = %q", got)
	}
	if got := e.Value(0, "comments", Context{}); got != "" {
		t.Errorf("comments = %q, want empty", got)
	}
}

func TestEngine_ExtraBlock(t *testing.T) {
	e := newTestEngine(t)
	if got := e.Value(0, "zscc", Context{}); got != 42 {
		t.Errorf("zscc = %v, want 42", got)
	}
	if got := e.Value(0, "original title", Context{}); got != "Vieux" {
		t.Errorf("extra field = %v", got)
	}
	if got := e.Value(1, "zscc", Context{}); got != -1 {
		t.Errorf("non-integer zscc should stay -1, got %v", got)
	}
}

func TestEngine_PagesAndYear(t *testing.T) {
	e := newTestEngine(t)
	if got := e.Value(0, "numPages", Context{}); got != 3 {
		t.Errorf("D1 numPages = %v, want 3", got)
	}
	if got := e.Value(1, "numPages", Context{}); got != -1 {
		t.Errorf("D2 numPages = %v, want -1", got)
	}
	if got := e.Value(2, "numPages", Context{}); got != 300 {
		t.Errorf("D3 numPages = %v, want 300", got)
	}
	if got := e.Value(2, "year", Context{}); got != 2020 {
		t.Errorf("year = %v", got)
	}
	if got := e.Value(0, "abstractShortNote", Context{}); got != "First sentence." {
		t.Errorf("abstractShortNote = %q", got)
	}
}

func TestEngine_CitationsAndReferences(t *testing.T) {
	e := newTestEngine(t)
	if c, r := e.Links(0, Context{}); c != 1 || r != 0 {
		t.Errorf("D1 citations/references = %d/%d, want 1/0", c, r)
	}
	if c, r := e.Links(2, Context{}); c != 0 || r != 1 {
		t.Errorf("D3 citations/references = %d/%d, want 0/1", c, r)
	}
	only := Context{Member: func(i int) bool { return i != 2 }}
	if c, _ := e.Links(0, only); c != 0 {
		t.Errorf("links outside the member set must not count, got %d", c)
	}
}

func TestEngine_CollectionsAndRank(t *testing.T) {
	e := newTestEngine(t)
	names, _ := e.Value(0, "collections", Context{}).([]string)
	if len(names) != 2 || names[0] != "biblio" || names[1] != "other" {
		t.Errorf("collections = %v", names)
	}
	if got := e.Value(0, "rank", Context{}); got != 0.0 {
		t.Errorf("rank before ranking = %v, want 0", got)
	}
	if got := e.Value(0, "rank", Context{Ranks: map[int]float64{0: 1.5}}); got != 1.5 {
		t.Errorf("rank = %v", got)
	}
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12-15", 3, false},
		{"15 – 12", 3, false},
		{"0-0", -1, false},
		{"", -1, false},
		{"42", 42, false},
		{"0", -1, false},
		{"xii-xv", -1, true},
		{"99999999999999999999-1", -1, true},
		{"5-99999999999999999999", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePages(tt.in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if err != nil && !errors.Is(err, domain.ErrBadPagesValue) {
				t.Errorf("expected ErrBadPagesValue, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePages(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestEngine_LaterNoteWins(t *testing.T) {
	e := engineFor(t, zap.NewNop(),
		[]library.Record{rec("D1", map[string]any{"title": "T", "date": "2020"})},
		library.Record{Key: "N1", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<p>What: first note</p>"}},
		library.Record{Key: "N2", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<p>What: second note</p>"}},
	)
	if got := e.Value(0, "what", Context{}); got != "second note" {
		t.Errorf("what = %q, want %q", got, "second note")
	}
}

func TestEngine_AbstractShortNote(t *testing.T) {
	tests := []struct {
		abstract string
		want     string
	}{
		{"First sentence. Second sentence.", "First sentence."},
		{"First sentence.\nSecond sentence.", "First sentence."},
		{"Spans\r\ntwo lines. Then more.", "Spanstwo lines."},
		{"Version 2.0 is out", "Version 2.0 is out."},
		{"Only one.", "Only one."},
	}
	for _, tt := range tests {
		t.Run(tt.abstract, func(t *testing.T) {
			e := engineFor(t, zap.NewNop(),
				[]library.Record{rec("D1", map[string]any{"title": "T", "date": "2020", "abstractNote": tt.abstract})})
			if got := e.Value(0, "abstractShortNote", Context{}); got != tt.want {
				t.Errorf("abstractShortNote = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_PageWarningOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := engineFor(t, zap.New(core),
		[]library.Record{rec("D1", map[string]any{"title": "T", "date": "2020", "pages": "abc"})})

	for range 3 {
		if got := e.Value(0, "numPages", Context{}); got != -1 {
			t.Fatalf("numPages = %v, want -1", got)
		}
	}
	if n := logs.FilterMessage("unparsable page count").Len(); n != 1 {
		t.Errorf("page warnings = %d, want 1", n)
	}
}
