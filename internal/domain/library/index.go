package library

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/bibq/internal/domain"
	"github.com/kailas-cloud/bibq/internal/domain/date"
	"github.com/kailas-cloud/bibq/internal/domain/field"
)

// Kind classifies a record in the shared key space.
type Kind string

// Record kinds.
const (
	KindDocument   Kind = "document"
	KindCollection Kind = "collection"
	KindAttachment Kind = "attachment"
	KindNote       Kind = "note"
	KindAnnotation Kind = "annotation"
)

// Index is the read-only lookup structure built once per invocation.
// Documents live in a dense slice; relations and children refer to them by position.
type Index struct {
	docs        []Document
	docByKey    map[string]int
	kinds       map[string]Kind
	collections []Collection
	collByKey   map[string]int
	attachments [][]Attachment
	notes       [][]Note
	annotations []int
	fields      []string
	fieldSet    map[string]bool
	tags        []string
	tagSet      map[string]bool
}

// Build scans every record of the snapshot and returns the index.
// A child record of unrecognized type aborts the build with domain.ErrUnknownChildType.
func Build(snap Snapshot) (*Index, error) {
	idx := &Index{
		docByKey:  make(map[string]int, len(snap.Items)),
		kinds:     make(map[string]Kind, len(snap.Items)+len(snap.Collections)+len(snap.Children)),
		collByKey: make(map[string]int, len(snap.Collections)),
		tagSet:    make(map[string]bool),
	}

	for _, r := range snap.Collections {
		if err := idx.claim(r.Key, KindCollection); err != nil {
			return nil, err
		}
		idx.collByKey[r.Key] = len(idx.collections)
		idx.collections = append(idx.collections, Collection{Key: r.Key, Name: r.str("name")})
	}

	idx.docs = make([]Document, 0, len(snap.Items))
	for _, r := range snap.Items {
		key := r.Key
		if key == "" {
			key = r.str("key")
		}
		if err := idx.claim(key, KindDocument); err != nil {
			return nil, err
		}
		idx.docByKey[key] = len(idx.docs)
		idx.docs = append(idx.docs, newDocument(key, r))
	}

	idx.attachments = make([][]Attachment, len(idx.docs))
	idx.notes = make([][]Note, len(idx.docs))
	idx.annotations = make([]int, len(idx.docs))
	for _, r := range snap.Children {
		if err := idx.addChild(r); err != nil {
			return nil, err
		}
	}

	idx.linkRelations()
	idx.collectFields()
	idx.collectTags()
	return idx, nil
}

func newDocument(key string, r Record) Document {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["key"]; !ok {
		cp := make(map[string]any, len(data)+1)
		for k, v := range data {
			cp[k] = v
		}
		cp["key"] = key
		data = cp
	}
	d := Document{
		key:            key,
		data:           data,
		numChildren:    r.numChildren(),
		creators:       parseCreators(data["creators"]),
		tags:           ParseTags(data["tags"]),
		collectionKeys: parseStrings(data["collections"]),
	}
	d.date, d.dateErr = date.Parse(d.String("date"))
	return d
}

func (idx *Index) claim(key string, k Kind) error {
	if key == "" {
		return fmt.Errorf("%s record without key", k)
	}
	if prev, ok := idx.kinds[key]; ok {
		return fmt.Errorf("duplicate key %q (%s and %s)", key, prev, k)
	}
	idx.kinds[key] = k
	return nil
}

func (idx *Index) addChild(r Record) error {
	t := r.str("itemType")
	var k Kind
	switch t {
	case "attachment":
		k = KindAttachment
	case "note":
		k = KindNote
	case "annotation":
		k = KindAnnotation
	default:
		return fmt.Errorf("%w: %q for record %q", domain.ErrUnknownChildType, t, r.Key)
	}
	if err := idx.claim(r.Key, k); err != nil {
		return err
	}
	parent := r.str("parentItem")
	i, ok := idx.docByKey[parent]
	if !ok {
		return nil
	}
	switch k {
	case KindAttachment:
		idx.attachments[i] = append(idx.attachments[i], Attachment{Key: r.Key, Parent: parent, Title: r.str("title")})
	case KindNote:
		idx.notes[i] = append(idx.notes[i], Note{Key: r.Key, Parent: parent, Body: r.str("note")})
	case KindAnnotation:
		idx.annotations[i]++
	}
	return nil
}

// linkRelations resolves relation URIs to document positions.
// A stored relation makes both documents related; links to unknown or non-document keys are dropped.
func (idx *Index) linkRelations() {
	seen := make(map[[2]int]bool)
	add := func(a, b int) {
		if seen[[2]int{a, b}] {
			return
		}
		seen[[2]int{a, b}] = true
		idx.docs[a].links = append(idx.docs[a].links, b)
	}
	for i := range idx.docs {
		for _, target := range relationKeys(idx.docs[i].data["relations"]) {
			j, ok := idx.docByKey[target]
			if !ok || j == i {
				continue
			}
			add(i, j)
			add(j, i)
		}
	}
}

func (idx *Index) collectFields() {
	idx.fieldSet = make(map[string]bool)
	var native []string
	for i := range idx.docs {
		for name := range idx.docs[i].data {
			if !idx.fieldSet[name] {
				idx.fieldSet[name] = true
				native = append(native, name)
			}
		}
	}
	sort.Strings(native)
	idx.fields = native
	for _, name := range field.ComputedNames() {
		if !idx.fieldSet[name] {
			idx.fieldSet[name] = true
			idx.fields = append(idx.fields, name)
		}
	}
}

func (idx *Index) collectTags() {
	for i := range idx.docs {
		for _, t := range idx.docs[i].tags {
			if !idx.tagSet[t] {
				idx.tagSet[t] = true
				idx.tags = append(idx.tags, t)
			}
		}
	}
}

// Len returns the number of documents.
func (idx *Index) Len() int { return len(idx.docs) }

// Doc returns the document at position i.
func (idx *Index) Doc(i int) *Document { return &idx.docs[i] }

// Lookup returns the position of the document with the given key.
func (idx *Index) Lookup(key string) (int, bool) {
	i, ok := idx.docByKey[key]
	return i, ok
}

// KindOf returns the kind of the record with the given key.
func (idx *Index) KindOf(key string) (Kind, bool) {
	k, ok := idx.kinds[key]
	return k, ok
}

// Collection resolves a collection key.
func (idx *Index) Collection(key string) (Collection, bool) {
	i, ok := idx.collByKey[key]
	if !ok {
		return Collection{}, false
	}
	return idx.collections[i], true
}

// Collections returns every collection in snapshot order.
func (idx *Index) Collections() []Collection { return idx.collections }

// Attachments returns the attachments of the document at position i.
func (idx *Index) Attachments(i int) []Attachment { return idx.attachments[i] }

// Notes returns the notes of the document at position i.
func (idx *Index) Notes(i int) []Note { return idx.notes[i] }

// Annotations returns the annotation count of the document at position i.
func (idx *Index) Annotations(i int) int { return idx.annotations[i] }

// Fields returns the known field names: native names sorted, then computed names.
func (idx *Index) Fields() []string { return idx.fields }

// HasField reports whether name is a known field.
func (idx *Index) HasField(name string) bool { return idx.fieldSet[name] }

// Tags returns the known tag literals in first-seen order.
func (idx *Index) Tags() []string { return idx.tags }

// HasTag reports whether t is a known tag literal.
func (idx *Index) HasTag(t string) bool { return idx.tagSet[t] }
