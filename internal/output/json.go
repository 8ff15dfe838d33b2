package output

import (
	"encoding/json"
	"io"

	"github.com/ancients-collective/vipscan/internal/types"
)

// JSONFormatter writes a report as a single JSON object.
type JSONFormatter struct{}

// WriteScan renders the scan report as pretty-printed JSON.
func (f *JSONFormatter) WriteScan(w io.Writer, report *types.ScanReport) error {
	return encodeIndented(w, struct {
		*types.ScanReport
		Summary types.ScanSummary `json:"summary"`
		Note    string            `json:"note"`
	}{report, report.Summary(), TextualMatchNote})
}

// WriteAudit renders the audit report as pretty-printed JSON.
func (f *JSONFormatter) WriteAudit(w io.Writer, report *types.AuditReport) error {
	return encodeIndented(w, report)
}

// WriteReports renders stored reports as a pretty-printed JSON array.
func (f *JSONFormatter) WriteReports(w io.Writer, reports []types.Report) error {
	if reports == nil {
		reports = []types.Report{}
	}
	return encodeIndented(w, reports)
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
