package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/bibq"
	"github.com/kailas-cloud/bibq/internal/config"
	"github.com/kailas-cloud/bibq/internal/render"
)

// queryFlags are the selection flags shared by the query commands.
type queryFlags struct {
	filters []string
	query   string
	sort    string
	desc    bool
	limit   string
	force   bool
}

// bind registers the flags. Commands without ordering only get filters and query.
func (q *queryFlags) bind(cmd *cobra.Command, ordering bool) {
	f := cmd.Flags()
	f.StringArrayVarP(&q.filters, "filter", "f", nil, "filter as field:value (repeatable)")
	f.StringVarP(&q.query, "query", "q", "", "predefined query, combined with additional filters")
	if !ordering {
		return
	}
	f.StringVarP(&q.sort, "sort", "s", "", "sort field, '<' or '>' prefix for ascending or descending")
	f.BoolVar(&q.desc, "desc", false, "sort in descending order")
	f.StringVarP(&q.limit, "limit", "l", "", "limit as a count or [<|>]field:count")
	f.BoolVar(&q.force, "force", false, "include ignored and irrelevant documents")
}

// request merges the flags with the named predefined query.
// Explicit fields, sort and limit win over the predefined ones.
func (q *queryFlags) request(queries map[string]config.QueryConfig, fields []string) (bibq.Request, error) {
	req := bibq.Request{
		Fields:  fields,
		Filters: slices.Clone(q.filters),
		Sort:    q.sort,
		Desc:    q.desc,
		Limit:   q.limit,
		Force:   q.force,
	}
	if q.query != "" {
		pq, ok := queries[q.query]
		if !ok {
			return req, fmt.Errorf("unknown query %q (expected one of: %s)", q.query, strings.Join(queryNames(queries), ", "))
		}
		if len(req.Fields) == 0 {
			req.Fields = pq.Fields
		}
		req.Filters = append(req.Filters, pq.Filters...)
		if req.Sort == "" {
			req.Sort = pq.Sort
		}
		if req.Limit == "" {
			req.Limit = pq.Limit
		}
	}
	if len(req.Fields) == 0 {
		return req, errors.New("at least one field is required (or use --query)")
	}
	return req, nil
}

func queryNames(queries map[string]config.QueryConfig) []string {
	names := make([]string, 0, len(queries))
	for n := range queries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *app) countCommand() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count documents matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := q.request(a.cfg.Queries, []string{"title"})
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Count(a.ctx(cmd), req.Filters...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	q.bind(cmd, false)
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "show [field...]",
		Short: "Show the selected fields of matching documents as a table",
		Long: "Show prints a table of the selected fields. Without --sort, rows follow the first field.\n" +
			"Documents not marked read are shown in bold on a terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := q.request(a.cfg.Queries, args)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := a.ctx(cmd)
			res, err := c.Query(ctx, req)
			if err != nil {
				return err
			}
			if res.Empty() {
				return nil
			}
			read, err := a.readMarks(ctx, c)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return render.Table(w, res, render.Options{Read: read, Style: a.styled(w)})
		},
	}
	q.bind(cmd, true)
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var (
		q          queryFlags
		format     string
		lineFormat string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export [field...]",
		Short: "Export the selected fields of matching documents",
		Long: "Export writes matching documents in one of the output formats, or one line per document\n" +
			"with --line-format. Line formats take lower-cased headers as {placeholders} plus\n" +
			"{link} (markdown title link), {emoji} (item type) and {stars} (relative rank).",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := q.request(a.cfg.Queries, args)
			if err != nil {
				return err
			}
			if lineFormat != "" {
				for _, need := range render.LineFormatNeeds(lineFormat) {
					if !slices.Contains(req.Fields, need) {
						req.Fields = append(req.Fields, need)
					}
				}
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Query(a.ctx(cmd), req)
			if err != nil {
				return err
			}
			if res.Empty() {
				return nil
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if lineFormat != "" {
				return render.Lines(w, res, lineFormat)
			}
			return render.Write(w, format, res, render.Options{})
		},
	}
	q.bind(cmd, true)
	cmd.Flags().StringVarP(&format, "output-format", "o", string(render.FormatCSV),
		"output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVar(&lineFormat, "line-format", "", "format string for one line per document")
	cmd.Flags().StringVar(&output, "output", "", "output file (default stdout)")
	return cmd
}

func (a *app) markCommand() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:   "mark <marker>",
		Short: "Mark matching documents",
		Long: "Mark sets a marker on every matching document with a page count. Pass the\n" +
			"negated marker (for example \"unread\") to clear it.\n\n" + markerHelp(),
		Args:      cobra.ExactArgs(1),
		ValidArgs: markerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := q.request(a.cfg.Queries, []string{"key"})
			if err != nil {
				return err
			}
			req.Filters = append(req.Filters, "numPages:>0")

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Mark(a.ctx(cmd), args[0], req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d document(s) marked %s\n", n, args[0])
			return err
		},
	}
	q.bind(cmd, true)
	return cmd
}
