package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ancients-collective/vipscan/internal/types"
)

// anyVersion keys an exception that applies to every version.
const anyVersion = "*"

type entryKey struct {
	category types.Category
	identity string
	version  string
}

type entry struct {
	exception types.Exception
	source    string
}

// Table is a validated override table. It is read-only after loading and
// safe for concurrent lookups.
type Table struct {
	entries map[entryKey]*entry
	order   []*entry
	tables  map[string][]string
}

func newTable() *Table {
	return &Table{
		entries: make(map[entryKey]*entry),
		tables:  make(map[string][]string),
	}
}

// add indexes ex under every version it pins. A key seen before is a
// duplicate.
func (t *Table) add(ex types.Exception, source string) error {
	versions := ex.Versions
	if len(versions) == 0 {
		versions = []string{anyVersion}
	}

	keys := make([]entryKey, 0, len(versions))
	for _, v := range versions {
		k := entryKey{category: ex.Category, identity: ex.Identity, version: v}
		if prev, exists := t.entries[k]; exists {
			return fmt.Errorf("duplicate exception %s %q (version %s): first defined in %s, duplicated in %s",
				ex.Category, ex.Identity, v, prev.source, source)
		}
		keys = append(keys, k)
	}

	e := &entry{exception: ex, source: source}
	for _, k := range keys {
		t.entries[k] = e
	}
	t.order = append(t.order, e)
	return nil
}

// Lookup finds the exception for an identity. A version-pinned entry
// matching version wins over an unpinned one; a pinned entry never matches
// an unknown (empty) version.
func (t *Table) Lookup(category types.Category, identity, version string) (*types.Exception, bool) {
	if t == nil {
		return nil, false
	}
	if version != "" {
		if e, ok := t.entries[entryKey{category, identity, version}]; ok {
			ex := e.exception
			return &ex, true
		}
	}
	if e, ok := t.entries[entryKey{category, identity, anyVersion}]; ok {
		ex := e.exception
		return &ex, true
	}
	return nil, false
}

// Exceptions returns every exception in load order.
func (t *Table) Exceptions() []types.Exception {
	out := make([]types.Exception, 0, len(t.order))
	for _, e := range t.order {
		out = append(out, e.exception)
	}
	return out
}

// Len returns the number of exceptions.
func (t *Table) Len() int { return len(t.order) }

// TableSources attributes a database table to the plugins that create it.
// The name is tried as given, then with a leading "wp_" removed.
func (t *Table) TableSources(name string) []string {
	if t == nil {
		return nil
	}
	if s, ok := t.tables[name]; ok {
		return s
	}
	if trimmed := strings.TrimPrefix(name, "wp_"); trimmed != name {
		return t.tables[trimmed]
	}
	return nil
}

// TableNames returns the attributed table names, sorted.
func (t *Table) TableNames() []string {
	names := make([]string, 0, len(t.tables))
	for n := range t.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge returns a table with overlay's exceptions and table sources layered
// over base. Overlay entries replace base entries with the same identity.
func Merge(base, overlay *Table) *Table {
	out := newTable()
	replaced := make(map[[2]string]bool)
	if overlay != nil {
		for _, e := range overlay.order {
			replaced[[2]string{string(e.exception.Category), e.exception.Identity}] = true
		}
	}
	if base != nil {
		for _, e := range base.order {
			if replaced[[2]string{string(e.exception.Category), e.exception.Identity}] {
				continue
			}
			_ = out.add(e.exception, e.source)
		}
		for n, s := range base.tables {
			out.tables[n] = s
		}
	}
	if overlay != nil {
		for _, e := range overlay.order {
			_ = out.add(e.exception, e.source)
		}
		for n, s := range overlay.tables {
			out.tables[n] = s
		}
	}
	return out
}
