package types

import "time"

// Report is the persisted outcome for one identity within a category.
type Report struct {
	Identity    string    `json:"identity"`
	Category    Category  `json:"category"`
	GeneratedAt time.Time `json:"generated_at"`
	Findings    []Finding `json:"findings"`
}

// AuditReport is the aggregate result of checking every known entity.
// It is serialized directly to JSON for the --format=json output.
type AuditReport struct {
	// Version is the vipscan version that produced this report.
	Version string `json:"version"`

	// Timestamp is when the audit started.
	Timestamp time.Time `json:"timestamp"`

	// ContentDir is the wp-content directory that was audited.
	ContentDir string `json:"content_dir"`

	// Host describes the machine that ran the audit.
	Host HostSummary `json:"host"`

	// Counts holds compatible/incompatible counters keyed by section
	// (plugins, themes, mu-plugins, directories, database).
	Counts map[string]SectionCounts `json:"counts"`

	// Entities lists per-plugin/theme/mu-plugin results.
	Entities []EntityResult `json:"entities"`

	// Directories lists wp-content entries checked against the supported list.
	Directories []DirectoryResult `json:"directories,omitempty"`

	// Tables lists database tables checked against the database policy.
	Tables []TableResult `json:"tables,omitempty"`

	// DurationMS is the total audit duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// SectionCounts are the per-section counters.
type SectionCounts struct {
	Compatible   int `json:"compatible"`
	Incompatible int `json:"incompatible"`
	NotScanned   int `json:"not_scanned,omitempty"`
}

// HostSummary describes the machine that produced a report.
type HostSummary struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	Arch            string `json:"arch"`
	CPUs            int    `json:"cpus"`
}

// EntityResult is one installed plugin, theme, or mu-plugin and its verdict.
type EntityResult struct {
	Category Category `json:"category"`
	Identity string   `json:"identity"`
	Name     string   `json:"name,omitempty"`
	Version  string   `json:"version,omitempty"`
	Author   string   `json:"author,omitempty"`
	Path     string   `json:"path"`
	Verdict  Verdict  `json:"verdict"`
	Findings int      `json:"findings"`

	// Note carries source attribution when an exception applied.
	Note string `json:"note,omitempty"`
}

// DirectoryResult is one wp-content entry checked against the supported list.
type DirectoryResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Supported   bool   `json:"supported"`
}

// TableResult is one database table checked against the database policy.
type TableResult struct {
	Name       string   `json:"name"`
	Engine     string   `json:"engine"`
	Collation  string   `json:"collation"`
	Sources    []string `json:"sources,omitempty"`
	Notes      []string `json:"notes"`
	Compatible bool     `json:"compatible"`
}

// ScanReport wraps the outcomes of one scan invocation for rendering.
type ScanReport struct {
	Version    string      `json:"version"`
	Timestamp  time.Time   `json:"timestamp"`
	Host       HostSummary `json:"host"`
	Mode       string      `json:"mode"`
	Outcomes   []Outcome   `json:"outcomes"`
	DurationMS int64       `json:"duration_ms"`
}

// ScanSummary counts outcomes by status.
type ScanSummary struct {
	Total        int `json:"total"`
	Compatible   int `json:"compatible"`
	Incompatible int `json:"incompatible"`
	NoFiles      int `json:"no_files"`
	Errors       int `json:"errors"`
	Findings     int `json:"findings"`
}

// Summary tallies the report's outcomes.
func (r *ScanReport) Summary() ScanSummary {
	s := ScanSummary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		s.Findings += len(o.Findings)
		switch o.Verdict.Status {
		case StatusCompatible:
			s.Compatible++
		case StatusIncompatible:
			s.Incompatible++
		case StatusNoFiles:
			s.NoFiles++
		default:
			s.Errors++
		}
	}
	return s
}
