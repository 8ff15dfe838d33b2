package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinter_MissingBinaryYieldsNothing(t *testing.T) {
	l := NewLinter(NewAllowlistExecutor(filepath.Join(t.TempDir(), "no-phpcs")), nil)

	assert.False(t, l.Available())
	assert.Nil(t, l.Advise(context.Background(), t.TempDir()))
}

func TestLinter_NilIsUnavailable(t *testing.T) {
	var l *Linter
	assert.False(t, l.Available())
	assert.Nil(t, l.Advise(context.Background(), "/x"))
}

func TestLinter_CollectsNonEmptyLines(t *testing.T) {
	bin := fakeBinary(t, `printf 'a.php:1:1: error - one\n\n  b.php:2:1: warning - two  \n'; exit 2`)
	l := NewLinter(NewAllowlistExecutor(bin), nil)

	got := l.Advise(context.Background(), "/srv/plugin")
	assert.Equal(t, []string{"a.php:1:1: error - one", "b.php:2:1: warning - two"}, got)
}

func TestLinter_CapsAdvisories(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxAdvisories+10; i++ {
		fmt.Fprintf(&b, "echo line-%d\n", i)
	}
	l := NewLinter(NewAllowlistExecutor(fakeBinary(t, b.String())), nil)

	assert.Len(t, l.Advise(context.Background(), "/srv/plugin"), maxAdvisories)
}
