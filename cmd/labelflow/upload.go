package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"labelflow/internal/upload"
)

func newUploadCmd(a *app) *cobra.Command {
	var sessionID, url, apiKey, workspace, datasetName string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a saved session to the annotation platform",
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

			settings := upload.Settings{
				URL:        a.cfg.Upload.URL,
				APIKey:     a.cfg.Upload.APIKey,
				Workspace:  a.cfg.Upload.Workspace,
				Dataset:    s.Name(),
				Guidelines: s.Guidelines(),
				BatchSize:  a.cfg.Upload.BatchSize,
				Timeout:    a.cfg.Upload.Timeout,
				MaxRetries: a.cfg.Upload.MaxRetries,
			}

			flags := cmd.Flags()
			if flags.Changed("url") {
				settings.URL = url
			}

			if flags.Changed("api-key") {
				settings.APIKey = apiKey
			}

			if flags.Changed("workspace") {
				settings.Workspace = workspace
			}

			if flags.Changed("dataset") {
				settings.Dataset = datasetName
			}

			if settings.APIKey == "" {
				return errors.New("an API key is required: pass --api-key or set LABELFLOW_UPLOAD_API_KEY")
			}

			client, err := upload.New(settings, upload.WithLogger(a.log))
			if err != nil {
				return err
			}

			res, err := client.Upload(ctx, p)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d records in %d batches to dataset %s (%s)\n",
				res.Records, res.Batches, settings.Dataset, res.DatasetID)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sessionID, "session", latest, "session id")
	flags.StringVar(&url, "url", "", "platform base URL")
	flags.StringVar(&apiKey, "api-key", "", "platform API key")
	flags.StringVar(&workspace, "workspace", "", "target workspace")
	flags.StringVar(&datasetName, "dataset", "", "dataset name, defaults to the session's")

	return cmd
}
