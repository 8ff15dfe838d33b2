package output

import (
	"time"

	"github.com/ancients-collective/vipscan/internal/types"
)

// testTimestamp is a fixed time for deterministic test output.
var testTimestamp = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

var testHost = types.HostSummary{
	Hostname:        "test-host",
	OS:              "linux",
	Platform:        "ubuntu",
	PlatformVersion: "22.04",
	Arch:            "amd64",
	CPUs:            4,
}

// newTestScanReport builds a representative ScanReport for testing.
func newTestScanReport() *types.ScanReport {
	return &types.ScanReport{
		Version:    "1.0.0",
		Timestamp:  testTimestamp,
		Host:       testHost,
		Mode:       "line",
		DurationMS: 123,
		Outcomes: []types.Outcome{
			{
				Target:       types.ScanTarget{Path: "/srv/wp-content/plugins/clean", Category: types.CategoryPlugin, Identity: "clean"},
				Verdict:      types.VerdictCompatible,
				FilesScanned: 3,
				DurationMS:   2,
			},
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/plugins/backup-pro", Category: types.CategoryPlugin, Identity: "backup-pro"},
				Verdict: types.VerdictIncompatible,
				Findings: []types.Finding{
					{File: "backup.php", Line: 12, RuleID: "filesystem-write", Token: "fopen(", Message: "Write operation for directory other than uploads detected"},
					{File: "lib/run.php", Line: 4, RuleID: "shell-execution", Token: "exec(", Message: "Shell command execution detected"},
				},
				FilesScanned: 2,
				Advisories:   []string{"backup.php:12:5: Warning - File operations should use WP_Filesystem"},
				DurationMS:   5,
			},
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/plugins/wordfence", Category: types.CategoryPlugin, Identity: "wordfence"},
				Verdict: types.VerdictIncompatible,
				Exception: &types.Exception{
					Identity: "wordfence",
					Category: types.CategoryPlugin,
					Verdict:  types.StatusIncompatible,
					Source:   "vip-disallowed",
					Note:     "Plugin is not allowed on VIP platform",
				},
			},
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/themes/gone", Category: types.CategoryTheme, Identity: "gone"},
				Verdict: types.VerdictNotFound,
			},
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/themes/assets", Category: types.CategoryTheme, Identity: "assets"},
				Verdict: types.VerdictNoFiles,
			},
		},
	}
}

// newCleanScanReport builds a ScanReport where every target is compatible.
func newCleanScanReport() *types.ScanReport {
	return &types.ScanReport{
		Version:   "1.0.0",
		Timestamp: testTimestamp,
		Mode:      "file",
		Outcomes: []types.Outcome{
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/plugins/a", Category: types.CategoryPlugin, Identity: "a"},
				Verdict: types.VerdictCompatible,
			},
			{
				Target:  types.ScanTarget{Path: "/srv/wp-content/plugins/b", Category: types.CategoryPlugin, Identity: "b"},
				Verdict: types.VerdictCompatible,
			},
		},
	}
}

// newTestAuditReport builds a representative AuditReport for testing.
func newTestAuditReport() *types.AuditReport {
	return &types.AuditReport{
		Version:    "1.0.0",
		Timestamp:  testTimestamp,
		ContentDir: "/srv/wp-content",
		Host:       testHost,
		Counts: map[string]types.SectionCounts{
			"plugins":     {Compatible: 1, Incompatible: 1, NotScanned: 1},
			"themes":      {Compatible: 1},
			"directories": {Compatible: 2, Incompatible: 1},
			"database":    {Compatible: 1, Incompatible: 1},
		},
		Entities: []types.EntityResult{
			{Category: types.CategoryPlugin, Identity: "akismet", Name: "Akismet", Version: "5.3.1", Path: "/srv/wp-content/plugins/akismet", Verdict: types.VerdictCompatible, Note: "Plugin will be preinstalled in VIP platform"},
			{Category: types.CategoryPlugin, Identity: "backup-pro", Name: "Backup Pro", Version: "2.0", Path: "/srv/wp-content/plugins/backup-pro", Verdict: types.VerdictIncompatible, Findings: 3},
			{Category: types.CategoryPlugin, Identity: "assets-only", Path: "/srv/wp-content/plugins/assets-only", Verdict: types.VerdictNoFiles},
			{Category: types.CategoryTheme, Identity: "astra", Name: "Astra", Path: "/srv/wp-content/themes/astra", Verdict: types.VerdictCompatible},
		},
		Directories: []types.DirectoryResult{
			{Name: "cache", Description: "Not Supported"},
			{Name: "plugins", Description: "Installed plugins directory.", Supported: true},
			{Name: "themes", Description: "Installed themes directory.", Supported: true},
		},
		Tables: []types.TableResult{
			{Name: "wp_posts", Engine: "InnoDB", Collation: "utf8mb4_unicode_ci", Sources: []string{"wordpress-core"}, Notes: []string{"Compatible"}, Compatible: true},
			{Name: "legacy_log", Engine: "MyISAM", Collation: "latin1_swedish_ci", Notes: []string{"Unsupported Collation", "Incompatible Engine", "Unsupported Prefix"}},
		},
		DurationMS: 2500,
	}
}

// newTestReports builds stored reports as the store returns them.
func newTestReports() []types.Report {
	return []types.Report{
		{
			Identity:    "backup-pro",
			Category:    types.CategoryPlugin,
			GeneratedAt: testTimestamp,
			Findings: []types.Finding{
				{File: "/srv/wp-content/plugins/backup-pro/backup.php", Line: 12, RuleID: "filesystem-write", Token: "fopen(", Message: "Write operation for directory other than uploads detected"},
			},
		},
		{
			Identity:    "dark",
			Category:    types.CategoryTheme,
			GeneratedAt: testTimestamp,
			Findings: []types.Finding{
				{File: "/srv/wp-content/themes/dark/functions.php", Line: 3, RuleID: "shell-execution", Token: "exec(", Message: "Shell command execution detected"},
				{File: "/srv/wp-content/themes/dark/functions.php", Line: 9, RuleID: "shell-execution", Token: "system(", Message: "Shell command execution detected"},
			},
		},
	}
}
