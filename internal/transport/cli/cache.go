package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage snapshots held in the key-value store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Copy the cache directory of the library into the key-value store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				defer c.Close()

				if err = c.PushCache(a.ctx(cmd)); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "pushed %s (%d documents)\n", a.cfg.Snapshot.Library, c.Len())
				return err
			},
		},
		&cobra.Command{
			Use:   "libraries",
			Short: "List the libraries held in the key-value store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				defer c.Close()

				libs, err := c.Libraries(a.ctx(cmd))
				if err != nil {
					return err
				}
				for _, l := range libs {
					if _, err = fmt.Fprintln(cmd.OutOrStdout(), l); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return cmd
}
