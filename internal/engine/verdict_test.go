package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ancients-collective/vipscan/internal/types"
)

func TestDecide(t *testing.T) {
	one := []types.Finding{{File: "a.php", Line: 1, RuleID: RuleShellExecution}}

	tests := []struct {
		name     string
		err      error
		files    int
		findings []types.Finding
		want     types.Verdict
	}{
		{"not found wins", fmt.Errorf("%w: /x", types.ErrNotFound), 0, nil, types.VerdictNotFound},
		{"no files sentinel", types.ErrNoFiles, 0, nil, types.VerdictNoFiles},
		{"zero files", nil, 0, nil, types.VerdictNoFiles},
		{"findings", nil, 2, one, types.VerdictIncompatible},
		{"clean", nil, 2, nil, types.VerdictCompatible},
		{"other error", errors.New("boom"), 0, nil, types.Verdict{Status: types.StatusError, Reason: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.err, tt.files, tt.findings))
		})
	}
}

func TestLayout_Classify(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		isFile   bool
		category types.Category
		identity string
	}{
		{"plugin root", "/srv/wp-content/plugins/akismet", false, types.CategoryPlugin, "akismet"},
		{"plugin subdir", "/srv/wp-content/plugins/akismet/inc", false, types.CategoryPlugin, "akismet"},
		{"theme", "/srv/wp-content/themes/twentytwenty", false, types.CategoryTheme, "twentytwenty"},
		{"theme subdir", "/srv/wp-content/themes/astra/inc/core", false, types.CategoryTheme, "astra"},
		{"mu-plugin dir", "/srv/wp-content/mu-plugins/wpengine-common", false, types.CategoryMuPlugin, "wpengine-common"},
		{"mu-plugin nested uses basename", "/srv/wp-content/mu-plugins/pack/sub", false, types.CategoryMuPlugin, "sub"},
		{"single file", "/srv/wp-content/mu-plugins/loader/loader.php", true, types.CategoryMuPlugin, "loader"},
		{"single file anywhere", "/tmp/custom/site.php", true, types.CategoryMuPlugin, "custom"},
		{"plugins root alone", "/srv/wp-content/plugins", false, types.CategoryGeneral, "plugins"},
		{"general", "/srv/wp-content/client-code", false, types.CategoryGeneral, "client-code"},
		{"trailing slash", "/srv/wp-content/plugins/foo/", false, types.CategoryPlugin, "foo"},
		{"windows separators", `C:\site\wp-content\plugins\foo\inc`, false, types.CategoryPlugin, "foo"},
		{"leftmost root wins", "/srv/plugins/host/themes/child", false, types.CategoryPlugin, "host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultLayout.Classify(tt.path, tt.isFile)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.identity, got.Identity)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.isFile, got.IsFile)
		})
	}
}

func TestLayout_ClassifyIsStable(t *testing.T) {
	paths := []string{
		"/srv/wp-content/plugins/a/b/c",
		"/srv/wp-content/themes/x",
		"/srv/wp-content/mu-plugins/y",
		"/elsewhere",
	}
	for _, p := range paths {
		first := DefaultLayout.Classify(p, false)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, DefaultLayout.Classify(p, false))
		}
	}
}

func TestLayout_CustomRoots(t *testing.T) {
	l := Layout{PluginsRoot: "addons", ThemesRoot: "skins", MuPluginsRoot: "client-mu-plugins"}

	got := l.Classify("/site/addons/seo", false)
	assert.Equal(t, types.CategoryPlugin, got.Category)
	assert.Equal(t, "seo", got.Identity)

	got = l.Classify("/site/plugins/seo", false)
	assert.Equal(t, types.CategoryGeneral, got.Category)
}

func TestLayout_EntityTarget(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		isFile   bool
		wantOK   bool
		wantPath string
		category types.Category
		identity string
		wantFile bool
	}{
		{"file deep in plugin", "/wp/plugins/seo/inc/a.php", true, true, "/wp/plugins/seo", types.CategoryPlugin, "seo", false},
		{"plugin dir itself", "/wp/plugins/seo", false, true, "/wp/plugins/seo", types.CategoryPlugin, "seo", false},
		{"loose plugin file", "/wp/plugins/hello.php", true, true, "/wp/plugins/hello.php", types.CategoryPlugin, "hello.php", true},
		{"theme file", "/wp/themes/astra/functions.php", true, true, "/wp/themes/astra", types.CategoryTheme, "astra", false},
		{"loose mu-plugin", "/wp/mu-plugins/cache.php", true, true, "/wp/mu-plugins/cache.php", types.CategoryMuPlugin, "cache.php", true},
		{"mu-plugin dir file", "/wp/mu-plugins/sys/load.php", true, true, "/wp/mu-plugins/sys", types.CategoryMuPlugin, "sys", false},
		{"leftmost root wins", "/wp/plugins/seo/themes/x/a.php", true, true, "/wp/plugins/seo", types.CategoryPlugin, "seo", false},
		{"outside any root", "/wp/uploads/a.php", true, false, "", "", "", false},
		{"root itself", "/wp/plugins", false, false, "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultLayout.EntityTarget(tt.path, tt.isFile)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.identity, got.Identity)
			assert.Equal(t, tt.wantFile, got.IsFile)
		})
	}
}
