package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Mode selects the unit of text rules are evaluated against.
type Mode string

const (
	// ModeLine evaluates each line separately and records line numbers.
	ModeLine Mode = "line"
	// ModeFile evaluates the whole file at once. Findings carry no line.
	ModeFile Mode = "file"
)

// ParseMode converts a configuration value into a Mode. Empty means line.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLine:
		return ModeLine, nil
	case ModeFile:
		return ModeFile, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q (must be line or file)", s)
	}
}

// Scanner evaluates the rule set against candidate files.
type Scanner struct {
	rules *RuleSet
	mode  Mode
	log   *zap.SugaredLogger
}

// NewScanner creates a scanner. A nil rule set uses DefaultRuleSet; an empty
// mode means line mode; a nil logger discards output.
func NewScanner(rules *RuleSet, mode Mode, log *zap.SugaredLogger) *Scanner {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	if mode == "" {
		mode = ModeLine
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{rules: rules, mode: mode, log: log}
}

// Mode returns the evaluation granularity.
func (s *Scanner) Mode() Mode { return s.mode }

// Scan evaluates every rule against every file and returns findings in file
// order, then line order, then rule-definition order.
//
// Files that cannot be opened or read contribute no findings. The only error
// returned is context cancellation, checked between files.
func (s *Scanner) Scan(ctx context.Context, files []types.SourceFile) ([]types.Finding, error) {
	var findings []types.Finding
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileFindings, err := s.ScanFile(f)
		if err != nil {
			s.log.Debugw("skipping unreadable file", "path", f.AbsPath, "error", err)
			continue
		}
		findings = append(findings, fileFindings...)
	}
	return findings, nil
}

// ScanFile evaluates the rules against a single file. An error means the
// file could not be read and its partial findings are discarded.
func (s *Scanner) ScanFile(f types.SourceFile) ([]types.Finding, error) {
	if s.mode == ModeFile {
		data, err := readFileLimited(f.AbsPath)
		if err != nil {
			return nil, err
		}
		return s.findings(f.RelPath, 0, string(data)), nil
	}

	fh, err := openRegular(f.AbsPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	sc := bufio.NewScanner(io.LimitReader(fh, MaxFileReadBytes))
	sc.Buffer(make([]byte, 0, 64*1024), int(MaxFileReadBytes)+1)

	var findings []types.Finding
	line := 0
	for sc.Scan() {
		line++
		findings = append(findings, s.findings(f.RelPath, line, sc.Text())...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", f.AbsPath, err)
	}
	return findings, nil
}

func (s *Scanner) findings(file string, line int, text string) []types.Finding {
	matches := s.rules.Evaluate(text)
	if len(matches) == 0 {
		return nil
	}
	out := make([]types.Finding, 0, len(matches))
	for _, m := range matches {
		out = append(out, types.Finding{
			File:    file,
			Line:    line,
			RuleID:  m.Rule.ID,
			Token:   m.Token,
			Message: m.Rule.Message,
		})
	}
	return out
}
