package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"labelflow/internal/config"
	"labelflow/internal/dataset"
	"labelflow/internal/logger"
	"labelflow/internal/mapping"
	"labelflow/internal/session"
	"labelflow/internal/store"
	"labelflow/internal/upload"
)

// latest selects the most recently saved session.
const latest = "latest"

// app carries the state shared by every command once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool
	statePath  string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "labelflow",
		Short:         "Prepare JSON datasets for human annotation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")
	flags.StringVar(&a.statePath, "state", "", "path of the session database")

	root.AddCommand(
		newInitCmd(a),
		newInspectCmd(a),
		newCheckCmd(a),
		newAnnotateCmd(a),
		newExportCmd(a),
		newUploadCmd(a),
		newServeCmd(a),
		newSessionsCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	overrides := make(map[string]any)

	if cmd.Flags().Changed("log-level") {
		overrides["log.level"] = a.logLevel
	}

	if cmd.Flags().Changed("log-json") {
		overrides["log.json"] = a.logJSON
	}

	if cmd.Flags().Changed("state") {
		overrides["store.path"] = a.statePath
	}

	cfg, err := config.Load(a.configPath, overrides)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.Log.JSON,
		AddSource:  cfg.Log.Source,
		TimeFormat: "15:04:05",
	})

	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))

	return nil
}

// readDataset ingests a JSON file; "-" reads stdin.
func readDataset(cmd *cobra.Command, path string) (*dataset.RecordSet, error) {
	var r io.Reader = cmd.InOrStdin()

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()

		r = f
	}

	rs, err := dataset.Ingest(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rs, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, a.cfg.Store.Path)
}

// loadSnapshot restores a stored session by id, or the latest one.
func (a *app) loadSnapshot(ctx context.Context, st *store.Store, id string) (*session.Session, error) {
	var (
		snap session.Snapshot
		err  error
	)

	if id == "" || id == latest {
		snap, err = st.Latest(ctx)
	} else {
		snap, err = st.Load(ctx, id)
	}

	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no saved session %q: start one with annotate or serve", id)
	}

	if err != nil {
		return nil, err
	}

	return session.Restore(snap, session.WithLogger(a.log))
}

// newSession builds a session from a dataset file and an optional mapping
// file. The dataset name defaults to one derived from the file name.
func (a *app) newSession(cmd *cobra.Command, dataPath, mappingPath string) (*session.Session, error) {
	rs, err := readDataset(cmd, dataPath)
	if err != nil {
		return nil, err
	}

	s := session.New(rs, session.WithLogger(a.log), session.WithName(upload.DatasetName(dataPath)))

	if mappingPath == "" {
		return s, nil
	}

	mf, err := mapping.LoadFile(mappingPath)
	if err != nil {
		return nil, err
	}

	diags := mapping.Validate(mf, rs.Originals())
	for _, w := range diags.Warnings {
		a.log.Warn(w.Message, "code", w.Code, "subject", w.Subject)
	}

	if err := diags.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", mappingPath, err)
	}

	if err := s.ApplyFile(mf); err != nil {
		return nil, fmt.Errorf("%s: %w", mappingPath, err)
	}

	return s, nil
}

// openOrStart resumes a stored session when resume is set and otherwise
// starts one from files.
func (a *app) openOrStart(cmd *cobra.Command, st *store.Store, args []string, mappingPath, resume string) (*session.Session, error) {
	if resume != "" {
		return a.loadSnapshot(cmd.Context(), st, resume)
	}

	if len(args) == 0 {
		return nil, errors.New("a dataset file is required unless --resume is given")
	}

	return a.newSession(cmd, args[0], mappingPath)
}
