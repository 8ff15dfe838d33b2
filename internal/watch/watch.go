// Package watch rechecks plugins, themes, and mu-plugins when their PHP
// sources change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/engine"
	"github.com/ancients-collective/vipscan/internal/types"
)

// DefaultDebounce coalesces bursts of events (editor saves, git checkouts).
const DefaultDebounce = 300 * time.Millisecond

// Checker classifies and checks targets.
type Checker interface {
	Target(path string) types.ScanTarget
	CheckTarget(ctx context.Context, target types.ScanTarget) (types.Outcome, error)
}

// Options wires a Watcher.
type Options struct {
	Checker Checker
	Layout  engine.Layout

	// Ignore lists directory trees whose events are dropped, typically the
	// report store so that writing a report does not trigger a rescan.
	Ignore []string

	Debounce time.Duration

	// OnOutcome is called after every recheck.
	OnOutcome func(types.Outcome)

	Logger *zap.SugaredLogger
}

// Watcher watches one directory tree.
type Watcher struct {
	root      string
	checker   Checker
	layout    engine.Layout
	ignore    []string
	debounce  time.Duration
	onOutcome func(types.Outcome)
	log       *zap.SugaredLogger

	pending map[string]types.ScanTarget
}

// New creates a Watcher for root.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, abs)
	}
	if opts.Checker == nil {
		return nil, fmt.Errorf("watch requires a checker")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Layout == (engine.Layout{}) {
		opts.Layout = engine.DefaultLayout
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if a, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, a)
		}
	}

	return &Watcher{
		root:      abs,
		checker:   opts.Checker,
		layout:    opts.Layout,
		ignore:    ignore,
		debounce:  opts.Debounce,
		onOutcome: opts.OnOutcome,
		log:       log,
		pending:   make(map[string]types.ScanTarget),
	}, nil
}

// Run watches until ctx is done. Store write failures stop the watcher and
// are returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}
	w.log.Infow("watching", "root", w.root, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watch error", "error", err)
		case <-timer.C:
			if err := w.flush(ctx); err != nil {
				return err
			}
		}
	}
}

// handle records the target affected by ev. It reports whether a recheck
// was scheduled.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if w.ignored(ev.Name) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, ev.Name); err != nil {
				w.log.Debugw("cannot watch new directory", "path", ev.Name, "error", err)
			}
			target, ok := w.layout.EntityTarget(ev.Name, false)
			if !ok {
				return false
			}
			w.pending[target.Path] = target
			return true
		}
	}

	if !strings.EqualFold(filepath.Ext(ev.Name), engine.SourceExtension) {
		return false
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}

	target := w.targetFor(ev.Name)
	w.log.Debugw("change detected", "path", ev.Name, "op", ev.Op.String(), "target", target.Identity)
	w.pending[target.Path] = target
	return true
}

// targetFor maps a changed source file to the entity that owns it, falling
// back to the watched root.
func (w *Watcher) targetFor(path string) types.ScanTarget {
	if target, ok := w.layout.EntityTarget(path, true); ok {
		return target
	}
	return w.checker.Target(w.root)
}

// flush rechecks every pending target in path order.
func (w *Watcher) flush(ctx context.Context) error {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		target := w.pending[p]
		delete(w.pending, p)

		outcome, err := w.checker.CheckTarget(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("recheck %s %s: %w", target.Category, target.Identity, err)
		}
		w.log.Infow("rechecked",
			"category", target.Category,
			"identity", target.Identity,
			"verdict", outcome.Verdict.Status,
			"findings", len(outcome.Findings))
		if w.onOutcome != nil {
			w.onOutcome(outcome)
		}
	}
	return nil
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "vendor" {
			return true
		}
	}
	return false
}

// addRecursive watches dir and every subdirectory outside ignored trees.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch failed: %w", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
