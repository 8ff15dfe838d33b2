package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/hostinfo"
	"github.com/ancients-collective/vipscan/internal/output"
	"github.com/ancients-collective/vipscan/internal/types"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <path>...",
		Short: "Check plugins, themes, or single files",
		Long: `Scan classifies each path (plugin, theme, mu-plugin, or general), checks
its PHP files, and records incompatible results in the report store.

A single file is treated as a mu-plugin named after its directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd.Context(), args)
		},
	}
}

func (a *app) runScan(ctx context.Context, paths []string) error {
	start := time.Now()

	c, err := a.components()
	if err != nil {
		return err
	}

	outcomes, checkErr := c.checker.CheckAll(ctx, paths, a.cfg.Concurrency)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &exitError{code: exitRuntime, err: ctxErr}
	}

	report := &types.ScanReport{
		Version:    version,
		Timestamp:  start.UTC(),
		Host:       hostinfo.Detect(ctx, nil),
		Mode:       a.cfg.Mode,
		Outcomes:   outcomes,
		DurationMS: time.Since(start).Milliseconds(),
	}

	if err := a.write(func(f output.Formatter, w io.Writer) error {
		return f.WriteScan(w, report)
	}); err != nil {
		return err
	}
	if checkErr != nil {
		return &exitError{code: exitRuntime, err: checkErr}
	}

	s := report.Summary()
	return exitWith(exitCode(s.Incompatible, s.Errors))
}
