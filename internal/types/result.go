package types

import (
	"errors"
	"time"
)

// Sentinel errors surfaced through verdicts.
var (
	// ErrNotFound means the target path does not exist or cannot be read.
	ErrNotFound = errors.New("directory not found or unreadable")

	// ErrNoFiles means the target exists but holds no candidate source files.
	ErrNoFiles = errors.New("no PHP files found")
)

// Status is the terminal classification of one scan.
type Status string

const (
	// StatusCompatible means no rule produced a finding.
	StatusCompatible Status = "compatible"
	// StatusIncompatible means at least one finding exists.
	StatusIncompatible Status = "incompatible"
	// StatusNoFiles means the target held nothing to scan.
	StatusNoFiles Status = "no-files"
	// StatusError means the target could not be scanned at all.
	StatusError Status = "error"
)

// Reason codes carried by error verdicts.
const (
	ReasonNotFoundOrUnreadable = "not-found-or-unreadable"
)

// Verdict is the outcome of deciding a target's findings.
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Convenience verdict values.
var (
	VerdictCompatible   = Verdict{Status: StatusCompatible}
	VerdictIncompatible = Verdict{Status: StatusIncompatible}
	VerdictNoFiles      = Verdict{Status: StatusNoFiles}
	VerdictNotFound     = Verdict{Status: StatusError, Reason: ReasonNotFoundOrUnreadable}
)

// Label returns the fixed user-facing message for the verdict.
func (v Verdict) Label() string {
	switch v.Status {
	case StatusCompatible:
		return "Compatible"
	case StatusIncompatible:
		return "Incompatible"
	case StatusNoFiles:
		return "N/A (no PHP files found)"
	case StatusError:
		if v.Reason == ReasonNotFoundOrUnreadable {
			return "Error: Directory not found or unreadable"
		}
		return "Error: " + v.Reason
	default:
		return string(v.Status)
	}
}

// Finding is one rule violation with file and line provenance.
type Finding struct {
	// File is the path of the offending file relative to the scan root.
	File string `json:"file"`

	// Line is the 1-based line number. Zero when scanning in whole-file mode.
	Line int `json:"line,omitempty"`

	// RuleID identifies the rule that matched.
	RuleID string `json:"rule"`

	// Token is the call site that triggered the match (e.g. "fopen(").
	Token string `json:"token,omitempty"`

	// Message is the default English description. Callers may localize by RuleID.
	Message string `json:"message"`
}

// Outcome is everything a single check produces.
type Outcome struct {
	// Target is the classified scan target.
	Target ScanTarget `json:"target"`

	// Verdict is the pass/fail/error classification.
	Verdict Verdict `json:"verdict"`

	// Findings lists every violation in file-enumeration then rule-definition order.
	Findings []Finding `json:"findings,omitempty"`

	// FilesScanned is the number of candidate files after filtering.
	FilesScanned int `json:"files_scanned"`

	// Exception is set when the override table short-circuited the scan.
	Exception *Exception `json:"exception,omitempty"`

	// Advisories holds best-effort notes from the external linter pass.
	// They never influence the verdict.
	Advisories []string `json:"advisories,omitempty"`

	// Duration is how long the check took (not serialized to JSON).
	Duration time.Duration `json:"-"`

	// DurationMS is the duration in milliseconds for JSON serialization.
	DurationMS int64 `json:"duration_ms"`
}
