// Package render writes query results in the supported output formats.
package render

import (
	"fmt"
	"io"
	"sort"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
)

// Format names an output format.
type Format string

// Output formats.
const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Options tune the writers. Zero value is plain output.
type Options struct {
	// Read reports whether a document key is marked read; unread rows are bold in tables.
	Read func(key string) bool
	// Style enables terminal bold/italic escapes.
	Style bool
}

// WriterFunc renders a result.
type WriterFunc func(w io.Writer, res domquery.Result, opts Options) error

var writers = map[Format]WriterFunc{
	FormatTable:    Table,
	FormatCSV:      CSV,
	FormatJSON:     JSON,
	FormatYAML:     YAML,
	FormatMarkdown: Markdown,
}

// Formats lists the supported format names.
func Formats() []string {
	out := make([]string, 0, len(writers))
	for f := range writers {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// Write renders res with the named format.
func Write(w io.Writer, format string, res domquery.Result, opts Options) error {
	fn, ok := writers[Format(format)]
	if !ok {
		return fmt.Errorf("unknown output format %q (expected one of %v)", format, Formats())
	}
	return fn(w, res, opts)
}

// records pairs each row with its headers, preserving column order.
func records(res domquery.Result) [][][2]string {
	out := make([][][2]string, len(res.Rows))
	for i, row := range res.Rows {
		rec := make([][2]string, 0, len(res.Headers))
		for j, h := range res.Headers {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			rec = append(rec, [2]string{h, v})
		}
		out[i] = rec
	}
	return out
}
