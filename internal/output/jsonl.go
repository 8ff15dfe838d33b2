package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ancients-collective/vipscan/internal/types"
)

// JSONLFormatter writes reports as newline-delimited JSON (one object per line).
// The first line is a header with host and summary information.
// Subsequent lines are individual outcomes, entities, directories, or tables.
type JSONLFormatter struct{}

// WriteScan renders the scan as JSONL: header line + one line per outcome.
func (f *JSONLFormatter) WriteScan(w io.Writer, report *types.ScanReport) error {
	enc := json.NewEncoder(w)

	header := struct {
		Type      string            `json:"type"`
		Version   string            `json:"version"`
		Timestamp string            `json:"timestamp"`
		Host      types.HostSummary `json:"host"`
		Mode      string            `json:"mode"`
		Summary   types.ScanSummary `json:"summary"`
		Note      string            `json:"note"`
	}{
		Type:      "header",
		Version:   report.Version,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Host:      report.Host,
		Mode:      report.Mode,
		Summary:   report.Summary(),
		Note:      TextualMatchNote,
	}
	if err := enc.Encode(header); err != nil {
		return err
	}

	for _, o := range report.Outcomes {
		line := struct {
			Type    string        `json:"type"`
			Outcome types.Outcome `json:"outcome"`
		}{
			Type:    "outcome",
			Outcome: o,
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// WriteAudit renders the audit as JSONL: header line with counts, then one
// line per entity, directory entry, and table.
func (f *JSONLFormatter) WriteAudit(w io.Writer, report *types.AuditReport) error {
	enc := json.NewEncoder(w)

	header := struct {
		Type       string                         `json:"type"`
		Version    string                         `json:"version"`
		Timestamp  string                         `json:"timestamp"`
		ContentDir string                         `json:"content_dir"`
		Host       types.HostSummary              `json:"host"`
		Counts     map[string]types.SectionCounts `json:"counts"`
		DurationMS int64                          `json:"duration_ms"`
	}{
		Type:       "header",
		Version:    report.Version,
		Timestamp:  report.Timestamp.Format(time.RFC3339),
		ContentDir: report.ContentDir,
		Host:       report.Host,
		Counts:     report.Counts,
		DurationMS: report.DurationMS,
	}
	if err := enc.Encode(header); err != nil {
		return err
	}

	for _, e := range report.Entities {
		if err := enc.Encode(struct {
			Type   string             `json:"type"`
			Entity types.EntityResult `json:"entity"`
		}{"entity", e}); err != nil {
			return err
		}
	}
	for _, d := range report.Directories {
		if err := enc.Encode(struct {
			Type      string                `json:"type"`
			Directory types.DirectoryResult `json:"directory"`
		}{"directory", d}); err != nil {
			return err
		}
	}
	for _, t := range report.Tables {
		if err := enc.Encode(struct {
			Type  string            `json:"type"`
			Table types.TableResult `json:"table"`
		}{"table", t}); err != nil {
			return err
		}
	}
	return nil
}

// WriteReports renders one line per stored report.
func (f *JSONLFormatter) WriteReports(w io.Writer, reports []types.Report) error {
	enc := json.NewEncoder(w)
	for _, r := range reports {
		if err := enc.Encode(struct {
			Type   string       `json:"type"`
			Report types.Report `json:"report"`
		}{"report", r}); err != nil {
			return err
		}
	}
	return nil
}
