package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/audit"
	"github.com/ancients-collective/vipscan/internal/database"
	"github.com/ancients-collective/vipscan/internal/hostinfo"
	"github.com/ancients-collective/vipscan/internal/output"
	"github.com/ancients-collective/vipscan/internal/types"
)

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check every installed plugin, theme, and mu-plugin",
		Long: `Audit lists the installed plugins, themes, and mu-plugins under the
content directory, checks each one, compares the wp-content entries against
the directories VIP supports, and, with --database, checks table engines
and collations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAudit(cmd.Context())
		},
	}
}

func (a *app) runAudit(ctx context.Context) error {
	c, err := a.components()
	if err != nil {
		return err
	}

	opts := audit.Options{
		ContentDir:  a.cfg.ContentDir,
		Inventory:   c.inventory,
		Checker:     c.checker,
		Concurrency: a.cfg.Concurrency,
		Attributor:  c.table,
		Host:        hostinfo.Detect(ctx, nil),
		Version:     version,
		Logger:      a.log,
	}
	if a.cfg.DatabaseDSN != "" {
		src, err := database.Open(a.cfg.DatabaseDSN)
		if err != nil {
			return &exitError{code: exitRuntime, err: err}
		}
		defer src.Close()
		opts.Tables = src
	}

	report, runErr := audit.New(opts).Run(ctx)
	if report == nil {
		return &exitError{code: exitRuntime, err: runErr}
	}

	if err := a.write(func(f output.Formatter, w io.Writer) error {
		return f.WriteAudit(w, report)
	}); err != nil {
		return err
	}
	if runErr != nil {
		return &exitError{code: exitRuntime, err: runErr}
	}

	incompatible := 0
	if audit.Incompatible(report) {
		incompatible = 1
	}
	errCount := 0
	for _, e := range report.Entities {
		if e.Verdict.Status == types.StatusError {
			errCount++
		}
	}
	return exitWith(exitCode(incompatible, errCount))
}
