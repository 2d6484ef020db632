package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
)

const (
	ansiBold   = "\033[1m"
	ansiItalic = "\033[3m"
	ansiReset  = "\033[0m"
)

// Table writes a borderless aligned table. Titles are italic and unread rows bold when styled.
func Table(w io.Writer, res domquery.Result, opts Options) error {
	if len(res.Headers) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(res.Headers, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	sep := make([]string, len(res.Headers))
	for i, h := range res.Headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(sep, "\t")); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	title := res.Column("Title")
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		bold := opts.Style && opts.Read != nil && i < len(res.Keys) && !opts.Read(res.Keys[i])
		for j, v := range row {
			v = strings.ReplaceAll(v, "\n", " ")
			if opts.Style && j == title {
				v = ansiItalic + v + ansiReset
			}
			if bold {
				v = ansiBold + v + ansiReset
			}
			cells[j] = v
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

// Pairs writes header/value pairs one per line, as shown for a single document.
func Pairs(w io.Writer, headers, values []string, opts Options) error {
	for i, h := range headers {
		v := "-"
		if i < len(values) && values[i] != "" {
			v = values[i]
		}
		label := h
		if opts.Style {
			label = ansiBold + h + ansiReset
			if h == "Title" {
				v = ansiItalic + v + ansiReset
			}
		}
		if _, err := fmt.Fprintf(w, "%-24s: %s\n", label, v); err != nil {
			return fmt.Errorf("write pair: %w", err)
		}
	}
	return nil
}
