package library

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/bibq/internal/domain"
)

func item(key string, data map[string]any) Record {
	data["key"] = key
	return Record{Key: key, Data: data}
}

func relation(keys ...string) map[string]any {
	uris := make([]any, len(keys))
	for i, k := range keys {
		uris[i] = "http://zotero.org/users/1/items/" + k
	}
	return map[string]any{"dc:relation": uris}
}

func testSnapshot() Snapshot {
	return Snapshot{
		Collections: []Record{
			{Key: "C1", Data: map[string]any{"key": "C1", "name": "Robotics"}},
		},
		Items: []Record{
			item("D1", map[string]any{
				"title": "First", "date": "2010", "collections": []any{"C1"},
				"tags": []any{map[string]any{"tag": "ml"}, map[string]any{"tag": "nlp"}},
				"creators": []any{
					map[string]any{"creatorType": "author", "firstName": "John", "lastName": "Doe"},
					map[string]any{"creatorType": "editor", "name": "ACME"},
				},
			}),
			item("D2", map[string]any{"title": "Second", "date": "2015", "relations": relation("D1", "D1", "D2")}),
			item("D3", map[string]any{"title": "Third", "date": "2020", "relations": relation("D1", "ZZ"), "tags": "nlp;vision"}),
		},
		Children: []Record{
			{Key: "A1", Data: map[string]any{"itemType": "attachment", "parentItem": "D1", "title": "Full Text PDF"}},
			{Key: "N1", Data: map[string]any{"itemType": "note", "parentItem": "D1", "note": "<p>What: stuff</p>"}},
			{Key: "X1", Data: map[string]any{"itemType": "annotation", "parentItem": "D2"}},
			{Key: "X2", Data: map[string]any{"itemType": "annotation", "parentItem": "D2"}},
		},
	}
}

func TestBuild(t *testing.T) {
	idx, err := Build(testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", idx.Len())
	}
	i, ok := idx.Lookup("D1")
	if !ok {
		t.Fatal("D1 not indexed")
	}
	d := idx.Doc(i)
	if len(d.CreatorsOf(RoleAuthor)) != 1 || d.CreatorsOf(RoleAuthor)[0].Display() != "Doe John" {
		t.Errorf("unexpected authors: %+v", d.CreatorsOf(RoleAuthor))
	}
	if got := d.CreatorsOf(RoleEditor)[0].Display(); got != "ACME" {
		t.Errorf("editor display = %q", got)
	}
	if len(idx.Attachments(i)) != 1 || len(idx.Notes(i)) != 1 {
		t.Errorf("children not attached to D1")
	}
	j, _ := idx.Lookup("D2")
	if idx.Annotations(j) != 2 {
		t.Errorf("expected 2 annotations on D2, got %d", idx.Annotations(j))
	}
	if k, _ := idx.KindOf("A1"); k != KindAttachment {
		t.Errorf("A1 kind = %s", k)
	}
	if c, ok := idx.Collection("C1"); !ok || c.Name != "Robotics" {
		t.Errorf("collection lookup failed: %+v", c)
	}
}

func TestBuild_SymmetricLinks(t *testing.T) {
	idx, err := Build(testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d1, _ := idx.Lookup("D1")
	d2, _ := idx.Lookup("D2")
	d3, _ := idx.Lookup("D3")

	links := idx.Doc(d1).Links()
	if len(links) != 2 || links[0] != d2 || links[1] != d3 {
		t.Errorf("D1 links = %v, want [%d %d]", links, d2, d3)
	}
	if l := idx.Doc(d2).Links(); len(l) != 1 || l[0] != d1 {
		t.Errorf("D2 links = %v, want [%d]", l, d1)
	}
	if l := idx.Doc(d3).Links(); len(l) != 1 || l[0] != d1 {
		t.Errorf("D3 links = %v, want [%d]", l, d1)
	}
}

func TestBuild_UnknownChildType(t *testing.T) {
	snap := testSnapshot()
	snap.Children = append(snap.Children, Record{Key: "Q1", Data: map[string]any{"itemType": "book", "parentItem": "D1"}})
	_, err := Build(snap)
	if !errors.Is(err, domain.ErrUnknownChildType) {
		t.Fatalf("expected ErrUnknownChildType, got %v", err)
	}
}

func TestBuild_DuplicateKey(t *testing.T) {
	snap := testSnapshot()
	snap.Items = append(snap.Items, item("C1", map[string]any{"title": "clash"}))
	if _, err := Build(snap); err == nil {
		t.Fatal("expected error for duplicate key")
	}
}

func TestBuild_TagsAndFields(t *testing.T) {
	idx, err := Build(testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"ml", "nlp", "vision"}
	got := idx.Tags()
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	for _, f := range []string{"title", "date", "key", "rank", "numPages", "collections", "what"} {
		if !idx.HasField(f) {
			t.Errorf("field %q should be known", f)
		}
	}
	if idx.HasField("bogus") {
		t.Error("bogus should not be a known field")
	}
	if idx.Fields()[0] != "collections" {
		t.Errorf("native fields should come first, sorted: %v", idx.Fields())
	}
}

func TestParseTags(t *testing.T) {
	if got := ParseTags(""); got != nil {
		t.Errorf("empty string should yield no tags, got %v", got)
	}
	if got := ParseTags([]string{"a", "b"}); len(got) != 2 {
		t.Errorf("unexpected %v", got)
	}
}

func TestDocument_DateFallback(t *testing.T) {
	snap := Snapshot{Items: []Record{item("K", map[string]any{"date": "someday"})}}
	idx, err := Build(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := idx.Doc(0)
	if d.Date().Year() != 1900 {
		t.Errorf("expected sentinel year, got %d", d.Date().Year())
	}
	if !errors.Is(d.DateErr(), domain.ErrBadDateFormat) {
		t.Errorf("expected ErrBadDateFormat, got %v", d.DateErr())
	}
}
