package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, info := range infos {
				state := "configuring"
				switch {
				case info.Complete:
					state = "complete"
				case info.Annotating:
					state = "annotating"
				}

				fmt.Fprintf(out, "%s  %-24s %4d/%-4d %-12s %s\n", info.ID, info.Name,
					info.Position+1, info.Total, state, info.UpdatedAt.Format("2006-01-02 15:04"))
			}

			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			return st.Delete(ctx, args[0])
		},
	})

	return cmd
}
