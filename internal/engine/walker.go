package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// SourceExtension is the extension of candidate source files.
const SourceExtension = ".php"

// Walker resolves a target path into its candidate source files.
type Walker struct {
	ext string
	log *zap.SugaredLogger
}

// NewWalker creates a walker for PHP sources. A nil logger discards output.
func NewWalker(log *zap.SugaredLogger) *Walker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Walker{ext: SourceExtension, log: log}
}

// Enumerate returns the candidate files under path in lexical walk order.
//
// A single file is always a candidate regardless of its extension. Inside a
// directory only files with the source extension count. Any candidate whose
// absolute or relative path has a "vendor" segment is dropped. A symlinked
// root or subdirectory is followed once; candidates keep paths under the
// given root.
//
// A missing or unreadable path returns an error wrapping types.ErrNotFound.
// An empty result is not an error; callers map it to NoFilesFound.
// Cancellation is checked once per directory entry.
func (w *Walker) Enumerate(ctx context.Context, path string) ([]types.SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
	}

	if !info.IsDir() {
		f, err := os.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
		}
		f.Close()

		rel := filepath.Base(abs)
		if hasVendorSegment(abs) || hasVendorSegment(rel) {
			return nil, nil
		}
		return []types.SourceFile{{AbsPath: abs, RelPath: rel}}, nil
	}

	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
	}

	var files []types.SourceFile
	visited := []string{root}
	if err := w.walk(ctx, abs, root, "", &visited, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// walk collects candidates under the resolved directory dir. Paths are
// reported under the logical root abs with prefix as the relative location
// of dir. Symlinked directories are followed unless their target overlaps a
// tree already walked.
func (w *Walker) walk(ctx context.Context, abs, dir, prefix string, visited *[]string, files *[]types.SourceFile) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			w.log.Debugw("skipping unreadable entry", "path", p, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != dir && d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(filepath.Join(prefix, rel))

		if d.Type()&fs.ModeSymlink != 0 {
			if target, ok := w.linkedDir(p, *visited); ok {
				if d.Name() == "vendor" {
					return nil
				}
				*visited = append(*visited, target)
				return w.walk(ctx, abs, target, rel, visited, files)
			}
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), w.ext) {
			return nil
		}

		logical := filepath.Join(abs, filepath.FromSlash(rel))
		if hasVendorSegment(logical) || hasVendorSegment(rel) {
			return nil
		}

		*files = append(*files, types.SourceFile{AbsPath: logical, RelPath: rel})
		return nil
	})
}

// linkedDir resolves a symlink and reports whether it points at a directory
// outside every tree in visited.
func (w *Walker) linkedDir(link string, visited []string) (string, bool) {
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		w.log.Debugw("skipping dangling symlink", "path", link, "error", err)
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", false
	}
	for _, v := range visited {
		if within(v, target) || within(target, v) {
			w.log.Debugw("skipping symlink into a walked tree", "path", link, "target", target)
			return "", false
		}
	}
	return target, true
}

// within reports whether p is base or lies beneath it.
func within(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
