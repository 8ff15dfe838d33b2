// Package output provides formatters that render scan and audit reports in
// different formats.
package output

import (
	"fmt"
	"io"

	"github.com/ancients-collective/vipscan/internal/types"
)

// TextualMatchNote is printed with findings. Rules match call sites as text,
// so comments and string literals can trigger them.
const TextualMatchNote = "Matches are textual, not syntactic: call sites inside comments or strings are reported too."

// Formatter writes scan and audit reports to the given writer.
type Formatter interface {
	WriteScan(w io.Writer, report *types.ScanReport) error
	WriteAudit(w io.Writer, report *types.AuditReport) error
	WriteReports(w io.Writer, reports []types.Report) error
}

// New returns the formatter for a format name: text, json, or jsonl.
func New(format string, text *TextFormatter) (Formatter, error) {
	switch format {
	case "", "text":
		if text == nil {
			text = &TextFormatter{}
		}
		return text, nil
	case "json":
		return &JSONFormatter{}, nil
	case "jsonl":
		return &JSONLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: text, json, jsonl)", format)
	}
}
