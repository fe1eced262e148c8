package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"labelflow/internal/server"
	"labelflow/internal/session"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var mappingPath, resume, addr string

	cmd := &cobra.Command{
		Use:   "serve [DATASET]",
		Short: "Serve a session over HTTP",
		Long: "Serve a session started from DATASET and a mapping file, or a saved session " +
			"with --resume. Every change is saved to the session database.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := a.openOrStart(cmd, st, args, mappingPath, resume)
			if err != nil {
				return err
			}

			save := func(s *session.Session) error {
				return st.Save(context.WithoutCancel(ctx), s.Snapshot())
			}

			if err := save(s); err != nil {
				return err
			}

			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(s, server.WithLogger(a.log), server.WithOnChange(save)).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)

			go func() {
				a.log.Info("serving", "addr", addr, "session", s.ID())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			a.log.Info("server stopped")

			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVar(&resume, "resume", "", `session id to resume, or "latest"`)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to server.addr from the config")

	return cmd
}
