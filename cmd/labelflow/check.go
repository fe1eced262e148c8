package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"labelflow/internal/mapping"
)

func newCheckCmd(_ *app) *cobra.Command {
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "check DATASET",
		Short: "Validate a mapping file against a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}

			mf, err := mapping.LoadFile(mappingPath)
			if err != nil {
				return err
			}

			diags := mapping.Validate(mf, rs.Originals())
			out := cmd.OutOrStdout()

			if err := diags.Write(out); err != nil {
				return err
			}

			if diags.HasErrors() {
				return fmt.Errorf("%s: %d error(s)", mappingPath, len(diags.Errors))
			}

			fmt.Fprintf(out, "%s: ok (%d warning(s))\n", mappingPath, len(diags.Warnings))

			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "mapping.yaml", "mapping file")

	return cmd
}
