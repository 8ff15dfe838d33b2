package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Persister records findings for one identity. Implementations must
// serialize writes per category.
//
// Persist replaces the identity's entry. PersistFile replaces only the
// findings of one file, for single-file targets that share an identity with
// their siblings.
type Persister interface {
	Persist(category types.Category, identity string, findings []types.Finding) error
	PersistFile(category types.Category, identity, file string, findings []types.Finding) error
}

// ExceptionLookup finds a pre-classified identity in the override table.
type ExceptionLookup interface {
	Lookup(category types.Category, identity, version string) (*types.Exception, bool)
}

// VersionResolver reads the installed version of a target, if any.
type VersionResolver interface {
	Version(target types.ScanTarget) string
}

// Options wires a Checker. Only Store is required for persistence; nil
// collaborators fall back to defaults or are skipped.
type Options struct {
	Walker     *Walker
	Scanner    *Scanner
	Layout     Layout
	Store      Persister
	Exceptions ExceptionLookup
	Versions   VersionResolver
	Linter     *Linter
	Logger     *zap.SugaredLogger
}

// Checker runs the full check pipeline for one target:
// override lookup, walk, scan, decide, persist.
type Checker struct {
	walker     *Walker
	scanner    *Scanner
	layout     Layout
	store      Persister
	exceptions ExceptionLookup
	versions   VersionResolver
	linter     *Linter
	log        *zap.SugaredLogger
}

// NewChecker creates a Checker from options.
func NewChecker(opts Options) *Checker {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Walker == nil {
		opts.Walker = NewWalker(log)
	}
	if opts.Scanner == nil {
		opts.Scanner = NewScanner(nil, ModeLine, log)
	}
	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout
	}
	return &Checker{
		walker:     opts.Walker,
		scanner:    opts.Scanner,
		layout:     opts.Layout,
		store:      opts.Store,
		exceptions: opts.Exceptions,
		versions:   opts.Versions,
		linter:     opts.Linter,
		log:        log,
	}
}

// Target classifies path. A path that cannot be stat'ed is classified as a
// directory; the walk will then report it as not found.
func (c *Checker) Target(path string) types.ScanTarget {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	isFile := false
	if info, err := os.Stat(abs); err == nil {
		isFile = !info.IsDir()
	}
	return c.layout.Classify(abs, isFile)
}

// Check classifies and checks a path.
func (c *Checker) Check(ctx context.Context, path string) (types.Outcome, error) {
	return c.CheckTarget(ctx, c.Target(path))
}

// CheckTarget checks an already classified target.
//
// NotFound and NoFilesFound are reported in the verdict and leave the store
// untouched. The returned error is non-nil only when the context is
// cancelled or the store write fails; in the latter case the outcome is
// still populated.
func (c *Checker) CheckTarget(ctx context.Context, target types.ScanTarget) (types.Outcome, error) {
	start := time.Now()
	outcome := types.Outcome{Target: target}

	if ex, ok := c.lookupException(target); ok {
		outcome.Exception = ex
		outcome.Verdict = types.Verdict{Status: ex.Verdict}
		c.log.Debugw("override table matched", "category", target.Category, "identity", target.Identity, "source", ex.Source)
		return finish(outcome, start), nil
	}

	files, err := c.walker.Enumerate(ctx, target.Path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return finish(outcome, start), ctxErr
	}
	if err != nil || len(files) == 0 {
		outcome.Verdict = Decide(err, len(files), nil)
		c.log.Debugw("nothing to scan", "path", target.Path, "verdict", outcome.Verdict.Status)
		return finish(outcome, start), nil
	}
	outcome.FilesScanned = len(files)

	findings, err := c.scanner.Scan(ctx, files)
	if err != nil {
		return finish(outcome, start), err
	}
	outcome.Findings = findings
	outcome.Verdict = Decide(nil, len(files), findings)

	if c.linter != nil {
		outcome.Advisories = c.linter.Advise(ctx, target.Path)
	}

	if c.store != nil {
		if target.IsFile {
			err = c.store.PersistFile(target.Category, target.Identity, files[0].RelPath, findings)
		} else {
			err = c.store.Persist(target.Category, target.Identity, findings)
		}
		if err != nil {
			return finish(outcome, start), err
		}
	}

	c.log.Debugw("checked target",
		"category", target.Category,
		"identity", target.Identity,
		"files", len(files),
		"findings", len(findings),
		"verdict", outcome.Verdict.Status)

	return finish(outcome, start), nil
}

func (c *Checker) lookupException(target types.ScanTarget) (*types.Exception, bool) {
	if c.exceptions == nil {
		return nil, false
	}
	version := ""
	if c.versions != nil {
		version = c.versions.Version(target)
	}
	return c.exceptions.Lookup(target.Category, target.Identity, version)
}

func finish(o types.Outcome, start time.Time) types.Outcome {
	o.Duration = time.Since(start)
	o.DurationMS = o.Duration.Milliseconds()
	return o
}
