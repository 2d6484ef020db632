package library

// Record is a key-tagged raw record as cached from the remote library.
type Record struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Snapshot is a fully materialized copy of a library.
// Children holds attachment, note and annotation records before classification.
type Snapshot struct {
	Collections []Record
	Items       []Record
	Children    []Record
}

func (r Record) str(name string) string {
	s, _ := r.Data[name].(string)
	return s
}

func (r Record) numChildren() int {
	switch v := r.Meta["numChildren"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
