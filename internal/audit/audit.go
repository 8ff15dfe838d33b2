// Package audit checks every installed entity of a wp-content directory and
// aggregates per-section compatible and incompatible counters.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/database"
	"github.com/ancients-collective/vipscan/internal/engine"
	"github.com/ancients-collective/vipscan/internal/inventory"
	"github.com/ancients-collective/vipscan/internal/types"
)

// Section keys in AuditReport.Counts.
const (
	SectionPlugins     = "plugins"
	SectionThemes      = "themes"
	SectionMuPlugins   = "mu-plugins"
	SectionDirectories = "directories"
	SectionDatabase    = "database"
)

// Options wires an Auditor.
type Options struct {
	ContentDir  string
	Inventory   *inventory.Inventory
	Checker     *engine.Checker
	Concurrency int

	// Tables is optional. Without it the database section is skipped.
	Tables     database.TableSource
	Attributor database.Attributor
	Policy     database.Policy

	Directories map[string]DirectoryPolicy

	Host    types.HostSummary
	Version string
	Logger  *zap.SugaredLogger
}

// Auditor runs a full audit.
type Auditor struct {
	opts Options
	log  *zap.SugaredLogger
	now  func() time.Time
}

// New creates an Auditor. Missing policies fall back to the platform defaults.
func New(opts Options) *Auditor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Inventory == nil {
		opts.Inventory = inventory.New(opts.ContentDir, log)
	}
	if opts.Checker == nil {
		opts.Checker = engine.NewChecker(engine.Options{Logger: log})
	}
	if opts.Directories == nil {
		opts.Directories = DefaultDirectories()
	}
	if opts.Policy.Collations == nil {
		opts.Policy = database.DefaultPolicy()
	}
	return &Auditor{opts: opts, log: log, now: time.Now}
}

// Run audits plugins, themes, mu-plugins, wp-content entries, and (when a
// table source is configured) database tables.
//
// Store write failures and database errors are joined into the returned
// error; the report holds everything that completed. A missing content
// directory is returned as an error wrapping types.ErrNotFound.
func (a *Auditor) Run(ctx context.Context) (*types.AuditReport, error) {
	start := a.now()
	report := &types.AuditReport{
		Version:    a.opts.Version,
		Timestamp:  start.UTC(),
		ContentDir: a.opts.ContentDir,
		Host:       a.opts.Host,
		Counts:     make(map[string]types.SectionCounts),
	}

	dirs, err := CheckDirectories(a.opts.ContentDir, a.opts.Directories)
	if err != nil {
		return nil, err
	}
	report.Directories = dirs
	var dc types.SectionCounts
	for _, d := range dirs {
		if d.Supported {
			dc.Compatible++
		} else {
			dc.Incompatible++
		}
	}
	report.Counts[SectionDirectories] = dc

	var errs []error

	entities, err := a.opts.Inventory.All()
	if err != nil {
		return nil, fmt.Errorf("failed to list installed entities: %w", err)
	}
	a.log.Infow("auditing installed entities", "count", len(entities), "content_dir", a.opts.ContentDir)

	targets := make([]types.ScanTarget, len(entities))
	for i, e := range entities {
		targets[i] = e.Target()
	}
	outcomes, err := a.opts.Checker.CheckTargets(ctx, targets, a.opts.Concurrency)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, err)
	}

	for _, section := range []string{SectionPlugins, SectionThemes, SectionMuPlugins} {
		report.Counts[section] = types.SectionCounts{}
	}
	for i, e := range entities {
		o := outcomes[i]
		section := e.Category.Partition()
		counts := report.Counts[section]
		switch o.Verdict.Status {
		case types.StatusCompatible:
			counts.Compatible++
		case types.StatusIncompatible:
			counts.Incompatible++
		default:
			counts.NotScanned++
		}
		report.Counts[section] = counts

		result := types.EntityResult{
			Category: e.Category,
			Identity: e.Identity,
			Name:     e.Name,
			Version:  e.Version,
			Author:   e.Author,
			Path:     e.Path,
			Verdict:  o.Verdict,
			Findings: len(o.Findings),
		}
		if o.Exception != nil {
			result.Note = o.Exception.Note
		}
		report.Entities = append(report.Entities, result)
	}

	if a.opts.Tables != nil {
		tables, err := a.opts.Tables.Tables(ctx)
		if err != nil {
			a.log.Warnw("database check failed", "error", err)
			errs = append(errs, fmt.Errorf("database check: %w", err))
		} else {
			report.Tables = a.opts.Policy.Evaluate(tables, a.opts.Attributor)
			var tc types.SectionCounts
			for _, t := range report.Tables {
				if t.Compatible {
					tc.Compatible++
				} else {
					tc.Incompatible++
				}
			}
			report.Counts[SectionDatabase] = tc
		}
	}

	report.DurationMS = a.now().Sub(start).Milliseconds()
	return report, errors.Join(errs...)
}

// Incompatible reports whether any section holds an incompatible item.
func Incompatible(report *types.AuditReport) bool {
	for _, c := range report.Counts {
		if c.Incompatible > 0 {
			return true
		}
	}
	return false
}
