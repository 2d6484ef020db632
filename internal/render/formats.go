package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	domquery "github.com/kailas-cloud/bibq/internal/domain/query"
)

// CSV writes the headers then one record per row.
func CSV(w io.Writer, res domquery.Result, _ Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// JSON writes an array of objects whose keys keep the column order.
func JSON(w io.Writer, res domquery.Result, _ Options) error {
	var b strings.Builder
	b.WriteString("[")
	for i, rec := range records(res) {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  {")
		for j, kv := range rec {
			if j > 0 {
				b.WriteString(", ")
			}
			k, err := json.Marshal(kv[0])
			if err != nil {
				return fmt.Errorf("encode header: %w", err)
			}
			v, err := json.Marshal(kv[1])
			if err != nil {
				return fmt.Errorf("encode value: %w", err)
			}
			b.Write(k)
			b.WriteString(": ")
			b.Write(v)
		}
		b.WriteString("}")
	}
	if len(res.Rows) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("]\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// YAML writes a sequence of mappings whose keys keep the column order.
func YAML(w io.Writer, res domquery.Result, _ Options) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records(res) {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, kv := range rec {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[0]},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[1]},
			)
		}
		seq.Content = append(seq.Content, m)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}

// Markdown writes a pipe table.
func Markdown(w io.Writer, res domquery.Result, _ Options) error {
	if len(res.Headers) == 0 {
		return nil
	}
	var b strings.Builder
	writeMarkdownRow(&b, res.Headers)
	sep := make([]string, len(res.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(&b, sep)
	for _, row := range res.Rows {
		writeMarkdownRow(&b, row)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", "<br>")

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(markdownEscaper.Replace(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
