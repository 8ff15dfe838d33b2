package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/types"
	"github.com/ancients-collective/vipscan/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Recheck targets when their PHP files change",
		Long: `Watch follows a directory tree (default: the content directory) and
rechecks the owning plugin, theme, or mu-plugin whenever a .php file is
created, written, or removed. Each recheck updates the report store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.ContentDir
			if len(args) == 1 {
				path = args[0]
			}
			return a.runWatch(cmd.Context(), path)
		},
	}
}

func (a *app) runWatch(ctx context.Context, path string) error {
	c, err := a.components()
	if err != nil {
		return err
	}

	w, err := watch.New(path, watch.Options{
		Checker:   c.checker,
		Ignore:    []string{c.store.Dir()},
		OnOutcome: a.printOutcome,
		Logger:    a.log,
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return &exitError{code: exitErrorsOnly, err: err}
		}
		return err
	}

	if !a.quiet {
		fmt.Fprintf(a.stderr, "  ▸ Watching %s (Ctrl-C to stop)\n", path)
	}
	if err := w.Run(ctx); err != nil {
		return &exitError{code: exitRuntime, err: err}
	}
	return nil
}

// printOutcome writes one line per recheck: JSON for json and jsonl,
// a short status line for text.
func (a *app) printOutcome(o types.Outcome) {
	if a.quiet {
		return
	}
	if a.cfg.Format != "text" {
		_ = json.NewEncoder(a.stdout).Encode(struct {
			Type    string        `json:"type"`
			Time    string        `json:"time"`
			Outcome types.Outcome `json:"outcome"`
		}{"outcome", time.Now().UTC().Format(time.RFC3339), o})
		return
	}
	fmt.Fprintf(a.stdout, "  %s  %s/%s  %s  %d finding(s)\n",
		time.Now().Format("15:04:05"), o.Target.Category, o.Target.Identity, o.Verdict.Label(), len(o.Findings))
}
