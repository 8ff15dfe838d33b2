package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancients-collective/vipscan/internal/types"
)

func init() {
	// Disable color for deterministic test output.
	color.NoColor = true
}

func renderScan(t *testing.T, report *types.ScanReport, opts ...func(*TextFormatter)) string {
	t.Helper()
	f := &TextFormatter{}
	for _, opt := range opts {
		opt(f)
	}
	var buf bytes.Buffer
	require.NoError(t, f.WriteScan(&buf, report))
	return buf.String()
}

func renderAudit(t *testing.T, report *types.AuditReport, opts ...func(*TextFormatter)) string {
	t.Helper()
	f := &TextFormatter{}
	for _, opt := range opts {
		opt(f)
	}
	var buf bytes.Buffer
	require.NoError(t, f.WriteAudit(&buf, report))
	return buf.String()
}

func showAll(f *TextFormatter) { f.Show = "all" }

// ─── Scan reports ────────────────────────────────────────────────────

func TestTextFormatter_WriteScan_Clean(t *testing.T) {
	out := renderScan(t, newCleanScanReport())

	assert.Contains(t, out, "Compatible: no findings")
	assert.Contains(t, out, "2 compatible")
	assert.Contains(t, out, "0 incompatible")
	assert.Contains(t, out, "file mode")
	assert.NotContains(t, out, "Results")
	assert.NotContains(t, out, TextualMatchNote)
}

func TestTextFormatter_WriteScan_WithFindings(t *testing.T) {
	out := renderScan(t, newTestScanReport())

	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "plugin/backup-pro")
	assert.Contains(t, out, "backup.php:12 [filesystem-write]")
	assert.Contains(t, out, "lib/run.php:4 [shell-execution] Shell command execution detected exec(")
	assert.Contains(t, out, "Lint:")
	assert.Contains(t, out, "WP_Filesystem")
	assert.Contains(t, out, "2 incompatible target(s), 2 finding(s)")
	assert.Contains(t, out, "Matches are textual, not syntactic")
}

func TestTextFormatter_WriteScan_ExceptionNote(t *testing.T) {
	out := renderScan(t, newTestScanReport())

	assert.Contains(t, out, "plugin/wordfence")
	assert.Contains(t, out, "Plugin is not allowed on VIP platform (vip-disallowed)")
}

func TestTextFormatter_WriteScan_ErrorsAndNoFiles(t *testing.T) {
	out := renderScan(t, newTestScanReport())

	assert.Contains(t, out, "[ERR]")
	assert.Contains(t, out, "Error: Directory not found or unreadable")
	assert.Contains(t, out, "[N/A]")
	assert.Contains(t, out, "N/A (no PHP files found)")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "1 no files")
}

func TestTextFormatter_WriteScan_IncompatibleFirst(t *testing.T) {
	out := renderScan(t, newTestScanReport(), showAll)

	failIdx := strings.Index(out, "plugin/backup-pro")
	errIdx := strings.Index(out, "theme/gone")
	okIdx := strings.Index(out, "plugin/clean")
	require.NotEqual(t, -1, failIdx)
	require.NotEqual(t, -1, errIdx)
	require.NotEqual(t, -1, okIdx)
	assert.Less(t, failIdx, errIdx)
	assert.Less(t, errIdx, okIdx)
}

func TestTextFormatter_WriteScan_CompatibleHiddenByDefault(t *testing.T) {
	out := renderScan(t, newTestScanReport())
	assert.NotContains(t, out, "plugin/clean")
	assert.Contains(t, out, "--show all")

	out = renderScan(t, newTestScanReport(), showAll)
	assert.Contains(t, out, "plugin/clean")
}

func TestTextFormatter_WriteScan_FindingsCapped(t *testing.T) {
	report := newCleanScanReport()
	o := &report.Outcomes[0]
	o.Verdict = types.VerdictIncompatible
	for i := 0; i < maxFindingsShown+5; i++ {
		o.Findings = append(o.Findings, types.Finding{File: "a.php", Line: i + 1, RuleID: "shell-execution", Token: "exec("})
	}

	out := renderScan(t, report)
	assert.Contains(t, out, "... 5 more")
	assert.NotContains(t, out, "a.php:25 ")

	out = renderScan(t, report, showAll)
	assert.Contains(t, out, "a.php:25 ")
	assert.NotContains(t, out, "more (use --show all)")
}

func TestTextFormatter_WriteScan_WholeFileFindingHasNoLine(t *testing.T) {
	report := newCleanScanReport()
	report.Outcomes[0].Verdict = types.VerdictIncompatible
	report.Outcomes[0].Findings = []types.Finding{{File: "main.php", RuleID: "shell-execution", Token: "system("}}

	out := renderScan(t, report)
	assert.Contains(t, out, "main.php [shell-execution]")
}

func TestTextFormatter_WriteScan_Host(t *testing.T) {
	out := renderScan(t, newTestScanReport())
	assert.Contains(t, out, "test-host")
	assert.Contains(t, out, "ubuntu 22.04 (amd64, 4 CPUs)")

	out = renderScan(t, newCleanScanReport())
	assert.NotContains(t, out, "Host")
}

func TestTextFormatter_DumbTerm(t *testing.T) {
	out := renderScan(t, newTestScanReport(), func(f *TextFormatter) { f.Dumb = true })
	assert.NotContains(t, out, "✗")
	assert.Contains(t, out, " x ")
}

// ─── Audit reports ───────────────────────────────────────────────────

func TestTextFormatter_WriteAudit(t *testing.T) {
	out := renderAudit(t, newTestAuditReport())

	assert.Contains(t, out, "PLUGINS")
	assert.Contains(t, out, "Backup Pro (backup-pro) v2.0")
	assert.Contains(t, out, "3 finding(s)")
	assert.Contains(t, out, "assets-only")
	assert.NotContains(t, out, "Akismet", "compatible entities are hidden by default")

	assert.Contains(t, out, "WP-CONTENT")
	assert.Contains(t, out, "cache")
	assert.Contains(t, out, "DATABASE")
	assert.Contains(t, out, "legacy_log")
	assert.Contains(t, out, "Unsupported Collation; Incompatible Engine; Unsupported Prefix")

	assert.Contains(t, out, "3 incompatible item(s) require attention")
	assert.Contains(t, out, "1 not scanned")
	assert.Contains(t, out, "Completed in")
	assert.Contains(t, out, "2.5s")
	assert.Contains(t, out, TextualMatchNote)
}

func TestTextFormatter_WriteAudit_ShowAll(t *testing.T) {
	out := renderAudit(t, newTestAuditReport(), showAll)

	assert.Contains(t, out, "Akismet (akismet) v5.3.1")
	assert.Contains(t, out, "Plugin will be preinstalled in VIP platform")
	assert.Contains(t, out, "THEMES")
	assert.Contains(t, out, "wordpress-core")
	assert.NotContains(t, out, "--show all")
}

func TestTextFormatter_WriteAudit_SectionOrder(t *testing.T) {
	out := renderAudit(t, newTestAuditReport())

	plugins := strings.Index(out, "plugins:")
	themes := strings.Index(out, "themes:")
	dirs := strings.Index(out, "directories:")
	db := strings.Index(out, "database:")
	assert.Less(t, plugins, themes)
	assert.Less(t, themes, dirs)
	assert.Less(t, dirs, db)
	assert.NotContains(t, out, "mu-plugins:", "sections without counts are omitted")
}

func TestTextFormatter_WriteAudit_Clean(t *testing.T) {
	report := &types.AuditReport{
		Version:   "1.0.0",
		Timestamp: testTimestamp,
		Counts:    map[string]types.SectionCounts{"plugins": {Compatible: 2}},
	}
	out := renderAudit(t, report)
	assert.Contains(t, out, "Compatible: nothing to fix")
	assert.NotContains(t, out, TextualMatchNote)
}

// ─── Helpers ─────────────────────────────────────────────────────────

func TestWrap(t *testing.T) {
	f := &TextFormatter{Width: 40}
	long := strings.Repeat("word ", 20)

	wrapped := f.wrap(long, 4, 8)
	lines := strings.Split(wrapped, "\n")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "        "))
		assert.LessOrEqual(t, len(l), 40)
	}

	assert.Equal(t, "short", f.wrap("short", 4, 4))
}

func TestWrapWidth(t *testing.T) {
	assert.Equal(t, maxLine, (&TextFormatter{}).wrapWidth())
	assert.Equal(t, 80, (&TextFormatter{Width: 80}).wrapWidth())
	assert.Equal(t, maxLine, (&TextFormatter{Width: 300}).wrapWidth())
}

func TestDurationRaw(t *testing.T) {
	assert.Equal(t, "(<1ms)", durationRaw(0, 0))
	assert.Equal(t, "(12ms)", durationRaw(12, 0))
}

func TestIsDumbTerm(t *testing.T) {
	t.Setenv("TERM", "dumb")
	assert.True(t, IsDumbTerm())
	t.Setenv("TERM", "xterm-256color")
	assert.False(t, IsDumbTerm())
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "text", "json", "jsonl"} {
		f, err := New(name, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := New("xml", nil)
	assert.Error(t, err)
}

// ─── Stored reports ──────────────────────────────────────────────────

func TestTextFormatter_WriteReports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).WriteReports(&buf, newTestReports()))
	out := buf.String()

	assert.Contains(t, out, "PLUGINS")
	assert.Contains(t, out, "THEMES")
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "backup-pro")
	assert.Contains(t, out, "2026-01-15T10:30:00Z")
	assert.Contains(t, out, "functions.php:9 [shell-execution]")
	assert.Contains(t, out, "2 report(s) on record, 3 finding(s)")
	assert.Less(t, strings.Index(out, "PLUGINS"), strings.Index(out, "THEMES"))
}

func TestTextFormatter_WriteReports_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).WriteReports(&buf, nil))
	assert.Contains(t, buf.String(), "No incompatibilities on record")
}
