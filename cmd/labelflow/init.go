package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelflow/internal/mapping"
	"labelflow/internal/upload"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init DATASET",
		Short: "Write a mapping file skeleton for a dataset",
		Long: "Write a mapping file that selects every flattened field of DATASET. " +
			"Edit it to rename fields, trim the selection and add questions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", out)
				}
			}

			rs, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}

			sel, err := mapping.Select(rs.ColumnNames())
			if err != nil {
				return fmt.Errorf("%s has no fields to map: %w", args[0], err)
			}

			mf := mapping.Build(mapping.FromColumns(rs.Columns()), sel, nil)
			mf.Dataset = upload.DatasetName(args[0])

			if err := mapping.WriteFile(mf, out); err != nil {
				return err
			}

			a.log.Info("mapping written", "path", out, "fields", sel.Len())

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "mapping.yaml", "mapping file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
