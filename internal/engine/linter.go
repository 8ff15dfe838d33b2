package engine

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"go.uber.org/zap"
)

// maxAdvisories caps how many linter lines are attached to one outcome.
const maxAdvisories = 50

// Linter runs the external PHP_CodeSniffer pass. Its output is advisory only:
// it never changes a verdict, and a missing binary is not an error.
type Linter struct {
	exec *AllowlistExecutor
	log  *zap.SugaredLogger
}

// NewLinter creates a linter backed by the allowlisted phpcs binary.
func NewLinter(exec *AllowlistExecutor, log *zap.SugaredLogger) *Linter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Linter{exec: exec, log: log}
}

// Available reports whether phpcs can be run.
func (l *Linter) Available() bool {
	return l != nil && l.exec != nil && l.exec.Available(PHPCSCommand)
}

// Advise runs phpcs against path and returns its non-empty report lines.
// Any failure is logged and yields no advisories.
func (l *Linter) Advise(ctx context.Context, path string) []string {
	if !l.Available() {
		return nil
	}

	args := []string{"-q", "--report=emacs", "--standard=WordPress-VIP-Go", "--extensions=php", path}
	out, err := l.exec.Execute(ctx, PHPCSCommand, args)
	if err != nil {
		l.log.Debugw("phpcs advisory pass failed", "path", path, "error", err)
		return nil
	}

	var advisories []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		advisories = append(advisories, line)
		if len(advisories) == maxAdvisories {
			break
		}
	}
	return advisories
}
