package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept scan triggers over HTTP",
		Long: `Serve exposes the checker and the report store over HTTP:

  POST /scan?path=<path>              start a background scan (202)
  GET  /reports/<category>            reports on record for a category
  GET  /reports/<category>/<identity> one report, 404 when none is on record
  GET  /healthz                       liveness

Scan paths must lie inside the content directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	c, err := a.components()
	if err != nil {
		return err
	}
	root, err := filepath.Abs(a.cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("failed to resolve content dir: %w", err)
	}

	srv := server.New(server.Options{
		Checker:     c.checker,
		Store:       c.store,
		Root:        root,
		Concurrency: a.cfg.Concurrency,
		Logger:      a.log,
	})

	if !a.quiet {
		fmt.Fprintf(a.stderr, "  ▸ Listening on http://%s (content: %s)\n", a.cfg.Listen, root)
	}
	if err := srv.ListenAndServe(ctx, a.cfg.Listen); err != nil {
		return &exitError{code: exitRuntime, err: err}
	}
	return nil
}
