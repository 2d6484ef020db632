package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/bibq"
	"github.com/kailas-cloud/bibq/internal/domain/field"
	"github.com/kailas-cloud/bibq/internal/render"
	marksuc "github.com/kailas-cloud/bibq/internal/usecase/marks"
)

func markerNames() []string {
	out := make([]string, 0, 2*len(marksuc.Markers))
	for _, m := range marksuc.Markers {
		out = append(out, m.Name, m.Negation)
	}
	return out
}

func markerHelp() string {
	var b strings.Builder
	b.WriteString("Markers:\n")
	for _, m := range marksuc.Markers {
		fmt.Fprintf(&b, "  %-10s %s (negation: %s)\n", m.Name, m.Help, m.Negation)
	}
	return b.String()
}

func (a *app) listCommand() *cobra.Command {
	var (
		q     queryFlags
		desc  bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list <field>",
		Short: "List the distinct values of a field",
		Long: "List prints the distinct values of one field across matching documents.\n" +
			"\"list collections\" and \"list fields\" ignore filters.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := q.filters
			if q.query != "" {
				req, err := q.request(a.cfg.Queries, args)
				if err != nil {
					return err
				}
				filters = req.Filters
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			values, err := c.List(a.ctx(cmd), args[0], filters, desc, limit)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return nil
			}
			res := bibq.Result{Headers: []string{field.Header(args[0])}}
			for _, v := range values {
				res.Rows = append(res.Rows, []string{v})
			}
			w := cmd.OutOrStdout()
			return render.Table(w, res, render.Options{Style: a.styled(w)})
		},
	}
	q.bind(cmd, false)
	cmd.Flags().BoolVar(&desc, "desc", false, "list in descending order")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "limit the number of values")
	return cmd
}

func (a *app) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <field> <value> [field...]",
		Short: "View a single document",
		Long: "View shows the given fields of the first document whose field matches value.\n" +
			"Value is a filter operand, so it may carry a comparison (\"year\" \">2019\").",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			pairs, err := c.View(a.ctx(cmd), args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			headers := make([]string, len(pairs))
			values := make([]string, len(pairs))
			for i, p := range pairs {
				headers[i], values[i] = p.Header, p.Value
			}
			w := cmd.OutOrStdout()
			return render.Pairs(w, headers, values, render.Options{Style: a.styled(w)})
		},
	}
}

func (a *app) fieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the known field names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printAll(cmd, (*bibq.Client).Fields)
		},
	}
}

func (a *app) tagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the known tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printAll(cmd, (*bibq.Client).Tags)
		},
	}
}

// printAll writes one value per line.
func (a *app) printAll(cmd *cobra.Command, get func(*bibq.Client) []string) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	w := cmd.OutOrStdout()
	for _, v := range get(c) {
		if _, err = fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
