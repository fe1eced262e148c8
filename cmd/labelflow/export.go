package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"labelflow/internal/dataset"
)

func newExportCmd(a *app) *cobra.Command {
	var sessionID, out, csvPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a saved session as JSON and optionally CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := a.loadSnapshot(ctx, st, sessionID)
			if err != nil {
				return err
			}

			p, err := s.Export()
			if err != nil {
				return err
			}

			if out == "-" {
				return p.Encode(cmd.OutOrStdout())
			}

			if err := p.WriteFile(out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(p.Records), out)

			if csvPath == "" {
				return nil
			}

			if err := dataset.WriteCSVFile(csvPath, s.Records()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", csvPath)

			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", latest, "session id")
	cmd.Flags().StringVarP(&out, "output", "o", "export.json", `JSON output file, "-" for stdout`)
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write every record and answer as CSV")

	return cmd
}
