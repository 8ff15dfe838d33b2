// Package inventory lists the plugins, themes, and mu-plugins installed
// under a wp-content directory and reads their header metadata.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Entity is one installed plugin, theme, or mu-plugin.
type Entity struct {
	Category types.Category
	Identity string
	Path     string
	IsFile   bool

	Name    string
	Version string
	Author  string
}

// Target returns the scan target for the entity. Loose files keep their
// file name as identity so that each one gets its own report.
func (e Entity) Target() types.ScanTarget {
	return types.ScanTarget{Path: e.Path, Category: e.Category, Identity: e.Identity, IsFile: e.IsFile}
}

// Inventory reads installed entities from a wp-content directory.
type Inventory struct {
	contentDir string
	log        *zap.SugaredLogger
}

// New creates an inventory rooted at contentDir. A nil logger discards output.
func New(contentDir string, log *zap.SugaredLogger) *Inventory {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Inventory{contentDir: contentDir, log: log}
}

// ContentDir returns the wp-content root.
func (inv *Inventory) ContentDir() string { return inv.contentDir }

// Entities lists the installed entities of a category, sorted by identity.
// A missing category directory yields an empty list. The general category
// has no installed entities.
func (inv *Inventory) Entities(category types.Category) ([]Entity, error) {
	var (
		out []Entity
		err error
	)
	switch category {
	case types.CategoryPlugin:
		out, err = inv.plugins()
	case types.CategoryTheme:
		out, err = inv.themes()
	case types.CategoryMuPlugin:
		out, err = inv.muPlugins()
	case types.CategoryGeneral:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// All lists plugins, then themes, then mu-plugins.
func (inv *Inventory) All() ([]Entity, error) {
	var all []Entity
	for _, c := range []types.Category{types.CategoryPlugin, types.CategoryTheme, types.CategoryMuPlugin} {
		entities, err := inv.Entities(c)
		if err != nil {
			return nil, err
		}
		all = append(all, entities...)
	}
	return all, nil
}

// Version returns the header version of a target, or "" when unknown.
func (inv *Inventory) Version(target types.ScanTarget) string {
	var headerFile string
	switch {
	case target.IsFile:
		headerFile = target.Path
	case target.Category == types.CategoryTheme:
		headerFile = filepath.Join(target.Path, "style.css")
	default:
		headerFile = findPluginFile(target.Path)
	}
	if headerFile == "" {
		return ""
	}
	h, err := ReadHeaders(headerFile, FieldVersion)
	if err != nil {
		return ""
	}
	return h[FieldVersion]
}

func (inv *Inventory) readDir(name string) ([]os.DirEntry, string, error) {
	dir := filepath.Join(inv.contentDir, name)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, dir, nil
	}
	if err != nil {
		return nil, dir, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	return entries, dir, nil
}

func (inv *Inventory) plugins() ([]Entity, error) {
	entries, dir, err := inv.readDir("plugins")
	if err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())

		if isDir(path) {
			ent := Entity{Category: types.CategoryPlugin, Identity: e.Name(), Path: path}
			if main := findPluginFile(path); main != "" {
				inv.fill(&ent, main, FieldPluginName)
			}
			out = append(out, ent)
			continue
		}

		// Loose plugin files only count when they carry a plugin header.
		if !strings.EqualFold(filepath.Ext(e.Name()), ".php") {
			continue
		}
		h, err := ReadHeaders(path, FieldPluginName)
		if err != nil || h[FieldPluginName] == "" {
			continue
		}
		ent := Entity{Category: types.CategoryPlugin, Identity: e.Name(), Path: path, IsFile: true}
		inv.fill(&ent, path, FieldPluginName)
		out = append(out, ent)
	}
	return out, nil
}

func (inv *Inventory) themes() ([]Entity, error) {
	entries, dir, err := inv.readDir("themes")
	if err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if strings.HasPrefix(e.Name(), ".") || !isDir(path) {
			continue
		}
		ent := Entity{Category: types.CategoryTheme, Identity: e.Name(), Path: path}
		style := filepath.Join(path, "style.css")
		if _, err := os.Stat(style); err == nil {
			inv.fill(&ent, style, FieldThemeName)
		}
		out = append(out, ent)
	}
	return out, nil
}

func (inv *Inventory) muPlugins() ([]Entity, error) {
	entries, dir, err := inv.readDir("mu-plugins")
	if err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == "index.php" {
			continue
		}
		path := filepath.Join(dir, name)

		if isDir(path) {
			ent := Entity{Category: types.CategoryMuPlugin, Identity: name, Path: path}
			if main := findPluginFile(path); main != "" {
				inv.fill(&ent, main, FieldPluginName)
			}
			out = append(out, ent)
			continue
		}

		if !strings.EqualFold(filepath.Ext(name), ".php") {
			continue
		}
		ent := Entity{Category: types.CategoryMuPlugin, Identity: name, Path: path, IsFile: true}
		inv.fill(&ent, path, FieldPluginName)
		out = append(out, ent)
	}
	return out, nil
}

// fill copies display headers into ent. Read failures leave fields empty.
func (inv *Inventory) fill(ent *Entity, file, nameField string) {
	h, err := ReadHeaders(file, nameField, FieldVersion, FieldAuthor)
	if err != nil {
		inv.log.Debugw("cannot read headers", "path", file, "error", err)
		return
	}
	ent.Name = h[nameField]
	ent.Version = h[FieldVersion]
	ent.Author = h[FieldAuthor]
}

// findPluginFile returns the top-level PHP file carrying a "Plugin Name"
// header, preferring <dir>/<dir>.php. Returns "" if none is found.
func findPluginFile(dir string) string {
	preferred := filepath.Join(dir, filepath.Base(dir)+".php")
	if h, err := ReadHeaders(preferred, FieldPluginName); err == nil && h[FieldPluginName] != "" {
		return preferred
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".php") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if h, err := ReadHeaders(path, FieldPluginName); err == nil && h[FieldPluginName] != "" {
			return path
		}
	}
	return ""
}

// isDir follows symlinks.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
