package main

import (
	"fmt"

	"github.com/ancients-collective/vipscan/internal/engine"
	"github.com/ancients-collective/vipscan/internal/inventory"
	"github.com/ancients-collective/vipscan/internal/loader"
	"github.com/ancients-collective/vipscan/internal/store"
)

// components are the collaborators shared by scan, audit, serve, and watch.
type components struct {
	store     *store.Store
	table     *loader.Table
	inventory *inventory.Inventory
	checker   *engine.Checker
}

func (a *app) components() (*components, error) {
	storeDir, err := a.cfg.StoreDir()
	if err != nil {
		return nil, err
	}
	st := store.New(storeDir, a.log)

	table, err := loadExceptions(a.cfg.ExceptionsFile)
	if err != nil {
		return nil, err
	}

	mode, err := engine.ParseMode(a.cfg.Mode)
	if err != nil {
		return nil, err
	}

	inv := inventory.New(a.cfg.ContentDir, a.log)

	var linter *engine.Linter
	if a.cfg.Lint || a.cfg.PHPCS != "" {
		linter = engine.NewLinter(engine.NewAllowlistExecutor(a.cfg.PHPCS), a.log)
		if !linter.Available() {
			a.log.Warnw("phpcs not found, lint advisories disabled", "phpcs", a.cfg.PHPCS)
			linter = nil
		}
	}

	checker := engine.NewChecker(engine.Options{
		Scanner:    engine.NewScanner(nil, mode, a.log),
		Store:      st,
		Exceptions: table,
		Versions:   inv,
		Linter:     linter,
		Logger:     a.log,
	})

	a.log.Debugw("components ready",
		"store", st.Dir(),
		"exceptions", table.Len(),
		"lint", linter != nil)

	return &components{store: st, table: table, inventory: inv, checker: checker}, nil
}

// loadExceptions returns the embedded table, overlaid with path when set.
func loadExceptions(path string) (*loader.Table, error) {
	ldr := loader.New()
	table, err := ldr.Defaults()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return table, nil
	}
	overlay, err := ldr.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exceptions file: %w", err)
	}
	return loader.Merge(table, overlay), nil
}
