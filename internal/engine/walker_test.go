package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancients-collective/vipscan/internal/types"
)

func relPaths(files []types.SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalker_EnumeratesPHPFilesInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"zeta.php":          "<?php",
		"alpha.php":         "<?php",
		"inc/helpers.php":   "<?php",
		"inc/readme.txt":    "text",
		"assets/app.js":     "js",
		".hidden/dot.php":   "<?php",
		"templates/UP.PHP":  "<?php",
		"templates/x.phtml": "<?php",
	})

	files, err := NewWalker(nil).Enumerate(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		".hidden/dot.php",
		"alpha.php",
		"inc/helpers.php",
		"templates/UP.PHP",
		"zeta.php",
	}, relPaths(files))

	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.AbsPath))
	}
}

func TestWalker_ExcludesVendorSegments(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"vendor/legacy.php":         "<?php exec('ls');",
		"lib/vendor/autoload.php":   "<?php",
		"vendors/keep.php":          "<?php",
		"my-vendor/keep.php":        "<?php",
		"src/vendor.php":            "<?php",
		"src/deep/vendor/x/y/z.php": "<?php",
	})

	files, err := NewWalker(nil).Enumerate(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"my-vendor/keep.php", "src/vendor.php", "vendors/keep.php"}, relPaths(files))
}

func TestWalker_OnlyVendorYieldsEmpty(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"vendor/legacy.php": `<?php exec("ls");`})

	files, err := NewWalker(nil).Enumerate(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalker_SingleFileIsAlwaysCandidate(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"loader.inc": "<?php"})

	files, err := NewWalker(nil).Enumerate(context.Background(), filepath.Join(root, "loader.inc"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "loader.inc", files[0].RelPath)
}

func TestWalker_SingleFileUnderVendorIsDropped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"vendor/mu.php": "<?php"})

	files, err := NewWalker(nil).Enumerate(context.Background(), filepath.Join(root, "vendor", "mu.php"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalker_MissingPathIsNotFound(t *testing.T) {
	_, err := NewWalker(nil).Enumerate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestWalker_EmptyDirectory(t *testing.T) {
	files, err := NewWalker(nil).Enumerate(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalker_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.php": "<?php"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWalker(nil).Enumerate(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalker_RelativeInputIsResolved(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.php": "<?php"})
	chdir(t, root)

	files, err := NewWalker(nil).Enumerate(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "a.php"), files[0].AbsPath)
}

func TestWalker_FollowsSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{"src/main.php": "<?php shell_exec($c);"})
	require.NoError(t, os.MkdirAll(filepath.Join(base, "plugins"), 0o755))
	link := filepath.Join(base, "plugins", "foo")
	require.NoError(t, os.Symlink(filepath.Join(base, "src"), link))

	files, err := NewWalker(nil).Enumerate(context.Background(), link)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.php", files[0].RelPath)
	assert.Equal(t, filepath.Join(link, "main.php"), files[0].AbsPath)
}

func TestWalker_FollowsSymlinkedSubdirOnce(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"plugin/main.php":  "<?php",
		"plugin/z.php":     "<?php",
		"shared/lib.php":   "<?php",
		"shared/vendor.go": "package x",
	})
	plugin := filepath.Join(base, "plugin")
	require.NoError(t, os.Symlink(filepath.Join(base, "shared"), filepath.Join(plugin, "lib")))
	require.NoError(t, os.Symlink(filepath.Join(base, "shared"), filepath.Join(plugin, "lib2")))
	require.NoError(t, os.Symlink(plugin, filepath.Join(plugin, "loop")))
	require.NoError(t, os.Symlink(filepath.Join(base, "shared"), filepath.Join(plugin, "vendor")))

	files, err := NewWalker(nil).Enumerate(context.Background(), plugin)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/lib.php", "main.php", "z.php"}, relPaths(files))
	assert.Equal(t, filepath.Join(plugin, "lib", "lib.php"), files[0].AbsPath)
}
