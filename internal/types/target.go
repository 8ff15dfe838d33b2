// Package types defines shared type definitions used across all vipscan packages.
package types

import (
	"fmt"
	"strings"
)

// Category is the kind of target being checked. Each category owns one
// partition of the log store.
type Category string

// Valid target categories.
const (
	CategoryPlugin   Category = "plugin"
	CategoryTheme    Category = "theme"
	CategoryMuPlugin Category = "mu-plugin"
	CategoryGeneral  Category = "general"
)

// Categories lists every category in partition order.
var Categories = []Category{CategoryPlugin, CategoryTheme, CategoryMuPlugin, CategoryGeneral}

// Partition returns the store partition name for the category
// (plugins, themes, mu-plugins, general).
func (c Category) Partition() string {
	switch c {
	case CategoryPlugin:
		return "plugins"
	case CategoryTheme:
		return "themes"
	case CategoryMuPlugin:
		return "mu-plugins"
	default:
		return "general"
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts either a category name ("plugin") or its partition
// name ("plugins") and returns the category.
func ParseCategory(raw string) (Category, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range Categories {
		if s == string(c) || s == c.Partition() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (must be plugin, theme, mu-plugin, or general)", raw)
}

// ScanTarget identifies what is being checked. It is derived from the path on
// every invocation and is never persisted itself.
type ScanTarget struct {
	// Path is the absolute filesystem path given by the caller.
	Path string `json:"path"`

	// Category routes the target to a store partition.
	Category Category `json:"category"`

	// Identity is the stable slug used as the lookup key within the partition.
	Identity string `json:"identity"`

	// IsFile is true when the target is a single file rather than a directory.
	IsFile bool `json:"is_file"`
}

// SourceFile is a candidate file discovered under a ScanTarget.
type SourceFile struct {
	// AbsPath is the absolute path used to open the file.
	AbsPath string

	// RelPath is the path relative to the scan root, using forward slashes.
	// For a single-file target it is the file's base name.
	RelPath string
}
