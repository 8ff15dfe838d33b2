package engine

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Decide reduces a scan into its verdict. Pre-condition failures map first:
// a walk error wrapping ErrNotFound is NotFoundOrUnreadable, zero candidate
// files is NoFilesFound. Otherwise the target is incompatible iff any finding
// exists.
func Decide(walkErr error, fileCount int, findings []types.Finding) types.Verdict {
	switch {
	case errors.Is(walkErr, types.ErrNotFound):
		return types.VerdictNotFound
	case errors.Is(walkErr, types.ErrNoFiles):
		return types.VerdictNoFiles
	case walkErr != nil:
		return types.Verdict{Status: types.StatusError, Reason: walkErr.Error()}
	case fileCount == 0:
		return types.VerdictNoFiles
	case len(findings) > 0:
		return types.VerdictIncompatible
	default:
		return types.VerdictCompatible
	}
}

// Layout names the platform root directories used for classification.
type Layout struct {
	PluginsRoot   string
	ThemesRoot    string
	MuPluginsRoot string
}

// DefaultLayout is the standard wp-content layout.
var DefaultLayout = Layout{
	PluginsRoot:   "plugins",
	ThemesRoot:    "themes",
	MuPluginsRoot: "mu-plugins",
}

// Classify derives the category and identity for a path. It is a pure
// function of its inputs and never touches the filesystem.
//
//   - a single file is a mu-plugin named after its containing directory
//   - the leftmost plugins or themes root with a child segment names the
//     plugin or theme after that child
//   - the leftmost mu-plugins root with a child segment names the mu-plugin
//     after the path's basename
//   - anything else is general, named after the basename
func (l Layout) Classify(path string, isFile bool) types.ScanTarget {
	segments := splitPath(path)
	target := types.ScanTarget{Path: path, IsFile: isFile}

	base := ""
	if len(segments) > 0 {
		base = segments[len(segments)-1]
	}

	if isFile {
		target.Category = types.CategoryMuPlugin
		if len(segments) > 1 {
			target.Identity = segments[len(segments)-2]
		} else {
			target.Identity = base
		}
		return target
	}

	for i := 0; i < len(segments)-1; i++ {
		switch segments[i] {
		case l.PluginsRoot:
			target.Category = types.CategoryPlugin
			target.Identity = segments[i+1]
			return target
		case l.ThemesRoot:
			target.Category = types.CategoryTheme
			target.Identity = segments[i+1]
			return target
		case l.MuPluginsRoot:
			target.Category = types.CategoryMuPlugin
			target.Identity = base
			return target
		}
	}

	target.Category = types.CategoryGeneral
	target.Identity = base
	return target
}

// EntityTarget maps a path anywhere inside an installed plugin, theme, or
// mu-plugin to the target for the whole entity: the direct child of the
// leftmost category root on the path. isFile describes path itself. The
// second result is false when path lies under no category root.
//
// Unlike Classify, loose files keep their own name as identity, matching
// how installed entities are listed.
func (l Layout) EntityTarget(path string, isFile bool) (types.ScanTarget, bool) {
	cleaned := filepath.Clean(path)

	var chain []string
	for p := cleaned; ; {
		chain = append(chain, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	for i := len(chain) - 1; i >= 0; i-- {
		entity := chain[i]
		var category types.Category
		switch filepath.Base(filepath.Dir(entity)) {
		case l.PluginsRoot:
			category = types.CategoryPlugin
		case l.ThemesRoot:
			category = types.CategoryTheme
		case l.MuPluginsRoot:
			category = types.CategoryMuPlugin
		default:
			continue
		}
		return types.ScanTarget{
			Path:     entity,
			Category: category,
			Identity: filepath.Base(entity),
			IsFile:   isFile && entity == cleaned,
		}, true
	}
	return types.ScanTarget{}, false
}

// splitPath cleans a path and splits it on both separator styles,
// dropping empty and "." segments.
func splitPath(path string) []string {
	cleaned := filepath.Clean(strings.ReplaceAll(path, `\`, "/"))
	parts := strings.FieldsFunc(cleaned, func(r rune) bool { return r == '/' || r == '\\' })
	out := parts[:0]
	for _, p := range parts {
		if p != "." {
			out = append(out, p)
		}
	}
	return out
}
