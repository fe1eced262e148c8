package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"labelflow/internal/dataset"
)

func newInspectCmd(_ *app) *cobra.Command {
	var (
		dump  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "inspect DATASET",
		Short: "Show the flattened fields of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d records, %d fields\n", rs.Len(), len(rs.Columns()))

			for _, c := range rs.Columns() {
				// columns exist only when there is at least one record
				v, _ := rs.At(0).Get(c.Name)
				fmt.Fprintf(out, "  %-30s %s\n", c.Name, dataset.FormatValue(v))
			}

			if !dump {
				return nil
			}

			records := rs.Records()
			if limit > 0 && limit < len(records) {
				records = records[:limit]
			}

			cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
			for _, rec := range records {
				cfg.Fdump(out, rec.Map())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "dump the decoded records")
	cmd.Flags().IntVar(&limit, "limit", 3, "records to dump, 0 for all")

	return cmd
}
