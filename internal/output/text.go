package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ancients-collective/vipscan/internal/types"
)

// ─── Layout constants ────────────────────────────────────────────────
//
// Every outcome line follows a strict column grid:
//
//     col 0    4   6       14      16                          maxLine
//     │margin│ I │ BADGE   │2sp│ TARGET ...               DURATION │
//              ↑   ↑              ↑                              ↑
//           colIcon colBadge    colName                    right-aligned
//
// Detail blocks start at colDetail and use labelWidth-padded labels
// so every value begins at colValue.
//
const (
	colMargin  = 4   // left margin (spaces) for result/detail lines
	badgeWidth = 8   // visible width of a padded badge, e.g. "[FAIL]  "
	colDetail  = 16  // column where detail-block lines start
	labelWidth = 9   // fixed label field: "Path:    " / "Note:    " / etc.
	colValue   = 25  // column where label values start (colDetail + labelWidth)
	maxLine    = 110 // hard wrap cap, even on ultra-wide terminals
	ruleWidth  = 64  // width of horizontal divider rules

	// maxFindingsShown caps per-target finding lines unless Show is "all".
	maxFindingsShown = 20
)

// TextFormatter writes a colored, human-readable report.
type TextFormatter struct {
	Show  string // "findings" (default) or "all"
	Width int    // terminal width for text wrapping; 0 = unknown
	Dumb  bool   // TERM=dumb: use single-char ASCII fallback icons
}

// Color helpers. Each returns a sprint function.
var (
	cBold   = color.New(color.Bold).SprintFunc()
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cRed    = color.New(color.FgRed).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()

	cRedBold    = color.New(color.FgRed, color.Bold).SprintFunc()
	cYellowBold = color.New(color.FgYellow, color.Bold).SprintFunc()
	cGreenBold  = color.New(color.FgGreen, color.Bold).SprintFunc()
)

// IsDumbTerm returns true when the terminal doesn't support Unicode.
func IsDumbTerm() bool {
	t := os.Getenv("TERM")
	return t == "dumb" || t == ""
}

// wrapWidth returns the effective line width: min(terminal, maxLine).
func (f *TextFormatter) wrapWidth() int {
	if f.Width > 0 && f.Width < maxLine {
		return f.Width
	}
	return maxLine
}

func (f *TextFormatter) showAll() bool { return f.Show == "all" }

// ─── Public entry points ─────────────────────────────────────────────

// WriteScan renders a scan report.
func (f *TextFormatter) WriteScan(w io.Writer, report *types.ScanReport) error {
	f.writeHeader(w, report.Version, report.Timestamp)
	f.writeHost(w, report.Host)
	fmt.Fprintf(w, "  %s Scanned %d target(s) in %s mode\n", cBold(f.icon("section")), len(report.Outcomes), report.Mode)
	fmt.Fprintln(w)

	f.writeOutcomes(w, report.Outcomes)
	f.writeScanSummary(w, report)
	f.writeScanHints(w, report)
	fmt.Fprintln(w)
	return nil
}

// WriteAudit renders an audit report.
func (f *TextFormatter) WriteAudit(w io.Writer, report *types.AuditReport) error {
	f.writeHeader(w, report.Version, report.Timestamp)
	f.writeHost(w, report.Host)
	fmt.Fprintf(w, "  %s Content: %s\n", cBold(f.icon("section")), report.ContentDir)

	f.writeEntities(w, report.Entities)
	f.writeDirectories(w, report.Directories)
	f.writeTables(w, report.Tables)
	f.writeAuditSummary(w, report)
	fmt.Fprintln(w)
	return nil
}

// WriteReports renders reports read back from the store. Every stored
// report is an incompatibility; clean targets are never on record.
func (f *TextFormatter) WriteReports(w io.Writer, reports []types.Report) error {
	if len(reports) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", cGreenBold(f.icon("pass")), cGreenBold("No incompatibilities on record"))
		fmt.Fprintln(w)
		return nil
	}

	current := types.Category("")
	findings := 0
	for _, r := range reports {
		if r.Category != current {
			current = r.Category
			f.writeSectionHeader(w, current.Partition())
		}
		findings += len(r.Findings)

		fmt.Fprintf(w, "%s%s %s  %s\n", colPad(colMargin),
			f.statusIcon(types.StatusIncompatible), f.statusBadge(types.StatusIncompatible), cBold(r.Identity))
		p := colPad(colDetail)
		f.writeLabel(w, p, "Recorded:", cDim, r.GeneratedAt.Format(time.RFC3339))

		limit := len(r.Findings)
		if !f.showAll() && limit > maxFindingsShown {
			limit = maxFindingsShown
		}
		for i, fi := range r.Findings[:limit] {
			lbl := ""
			if i == 0 {
				lbl = "Found:"
			}
			f.writeLabel(w, p, lbl, cYellowBold, formatFinding(fi))
		}
		if rest := len(r.Findings) - limit; rest > 0 {
			f.writeLabel(w, p, "", cDim, cDim(fmt.Sprintf("... %d more (use --show all)", rest)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", cDim(strings.Repeat("─", ruleWidth)))
	fmt.Fprintf(w, "  %s %s\n", cRedBold(f.icon("shield")),
		cRedBold(fmt.Sprintf("%d report(s) on record, %d finding(s)", len(reports), findings)))
	fmt.Fprintln(w)
	return nil
}

// ─── Header ──────────────────────────────────────────────────────────

func (f *TextFormatter) writeHeader(w io.Writer, version string, ts time.Time) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  v%s\n", cBold("vipscan"), version)
	fmt.Fprintf(w, "  %s\n", cDim("WordPress VIP compatibility scanner"))
	fmt.Fprintf(w, "  %s %s\n", cDim("Started:"), ts.Format(time.RFC3339))
	fmt.Fprintln(w)
}

func (f *TextFormatter) writeHost(w io.Writer, h types.HostSummary) {
	if h.Hostname == "" && h.OS == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", cBold(f.icon("section")+" Host"))
	fmt.Fprintf(w, "    Name:    %s\n", h.Hostname)
	platform := h.OS
	if h.Platform != "" {
		platform = fmt.Sprintf("%s %s", h.Platform, h.PlatformVersion)
	}
	fmt.Fprintf(w, "    OS:      %s (%s, %d CPUs)\n", platform, h.Arch, h.CPUs)
	fmt.Fprintln(w)
}

// ─── Scan outcomes ───────────────────────────────────────────────────

func (f *TextFormatter) writeOutcomes(w io.Writer, outcomes []types.Outcome) {
	var shown []types.Outcome
	for _, o := range outcomes {
		if f.showAll() || o.Verdict.Status != types.StatusCompatible {
			shown = append(shown, o)
		}
	}
	if len(shown) == 0 {
		return
	}

	sort.SliceStable(shown, func(i, j int) bool {
		return statusOrder(shown[i].Verdict.Status) < statusOrder(shown[j].Verdict.Status)
	})

	fmt.Fprintf(w, "  %s\n", cBold(f.icon("section")+" Results"))
	for _, o := range shown {
		fmt.Fprintln(w)
		f.writeOutcomeLine(w, o)
		f.writeOutcomeDetail(w, o)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) writeOutcomeLine(w io.Writer, o types.Outcome) {
	name := fmt.Sprintf("%s/%s", o.Target.Category, o.Target.Identity)
	durRaw := durationRaw(o.DurationMS, o.Duration)
	label := cBold(fmt.Sprintf("%-*s", labelWidth, "Target:"))

	pad := f.wrapWidth() - colValue - 2 - len(durRaw) - len(name)
	if pad < 2 {
		pad = 2
	}
	fmt.Fprintf(w, "%s%s %s  %s%s%s%s\n",
		colPad(colMargin),
		f.statusIcon(o.Verdict.Status),
		f.statusBadge(o.Verdict.Status),
		label,
		name,
		strings.Repeat(" ", pad),
		cDim(durRaw),
	)
}

func (f *TextFormatter) writeOutcomeDetail(w io.Writer, o types.Outcome) {
	p := colPad(colDetail)

	f.writeLabel(w, p, "Path:", cDim, o.Target.Path)
	switch o.Verdict.Status {
	case types.StatusIncompatible:
		f.writeLabel(w, p, "Result:", cRed, o.Verdict.Label())
	case types.StatusError:
		f.writeLabel(w, p, "Error:", cRed, o.Verdict.Label())
	case types.StatusNoFiles:
		f.writeLabel(w, p, "Skipped:", cDim, o.Verdict.Label())
	default:
		f.writeLabel(w, p, "Result:", cGreen, o.Verdict.Label())
	}
	if o.Exception != nil {
		note := o.Exception.Note
		if note == "" {
			note = "listed as " + string(o.Exception.Verdict)
		}
		f.writeLabel(w, p, "Note:", cCyan, fmt.Sprintf("%s (%s)", note, o.Exception.Source))
	}

	limit := len(o.Findings)
	if !f.showAll() && limit > maxFindingsShown {
		limit = maxFindingsShown
	}
	for i, fi := range o.Findings[:limit] {
		lbl := ""
		if i == 0 {
			lbl = "Found:"
		}
		f.writeLabel(w, p, lbl, cYellowBold, formatFinding(fi))
	}
	if rest := len(o.Findings) - limit; rest > 0 {
		f.writeLabel(w, p, "", cDim, cDim(fmt.Sprintf("... %d more (use --show all)", rest)))
	}

	for i, a := range o.Advisories {
		lbl := ""
		if i == 0 {
			lbl = "Lint:"
		}
		f.writeLabel(w, p, lbl, cCyan, a)
	}
}

func formatFinding(fi types.Finding) string {
	loc := fi.File
	if fi.Line > 0 {
		loc = fmt.Sprintf("%s:%d", fi.File, fi.Line)
	}
	out := fmt.Sprintf("%s [%s]", loc, fi.RuleID)
	if fi.Message != "" {
		out += " " + fi.Message
	}
	if fi.Token != "" {
		out += " " + cDim(fi.Token)
	}
	return out
}

// ─── Scan summary ────────────────────────────────────────────────────

func (f *TextFormatter) writeScanSummary(w io.Writer, r *types.ScanReport) {
	rule := cDim(strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "  %s\n", rule)

	s := r.Summary()
	if s.Incompatible == 0 && s.Errors == 0 {
		fmt.Fprintf(w, "  %s %s\n", cGreenBold(f.icon("pass")), cGreenBold("Compatible: no findings"))
	} else {
		fmt.Fprintf(w, "  %s %s\n", cRedBold(f.icon("shield")),
			cRedBold(fmt.Sprintf("%d incompatible target(s), %d finding(s)", s.Incompatible, s.Findings)))
	}

	extra := ""
	if s.NoFiles > 0 {
		extra += " · " + cDim(fmt.Sprintf("%d no files", s.NoFiles))
	}
	if s.Errors > 0 {
		extra += " · " + cRedBold(fmt.Sprintf("%d errors", s.Errors))
	}
	fmt.Fprintf(w, "  %s  %s · %s%s\n", cBold("Summary:"),
		cGreenBold(fmt.Sprintf("%d compatible", s.Compatible)),
		cRedBold(fmt.Sprintf("%d incompatible", s.Incompatible)),
		extra)

	dur := fmt.Sprintf("%.1fs", float64(r.DurationMS)/1000.0)
	fmt.Fprintf(w, "  %s  %s\n", cDim("Completed in"), cBold(dur))
	fmt.Fprintf(w, "  %s\n", rule)
}

func (f *TextFormatter) writeScanHints(w io.Writer, r *types.ScanReport) {
	s := r.Summary()
	var hints []string
	if s.Findings > 0 {
		hints = append(hints, TextualMatchNote)
	}
	if !f.showAll() && s.Compatible > 0 && len(r.Outcomes) > 1 {
		hints = append(hints, "Use --show all to list compatible targets")
	}
	f.writeHints(w, hints)
}

func (f *TextFormatter) writeHints(w io.Writer, hints []string) {
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, h := range hints {
		fmt.Fprintf(w, "  %s %s\n", cDim("›"), cDim(f.wrap(h, 4, 4)))
	}
}

// ─── Audit sections ──────────────────────────────────────────────────

func (f *TextFormatter) writeEntities(w io.Writer, entities []types.EntityResult) {
	current := types.Category("")
	for _, e := range entities {
		if e.Category != current {
			current = e.Category
			f.writeSectionHeader(w, current.Partition())
		}
		if !f.showAll() && e.Verdict.Status == types.StatusCompatible {
			continue
		}
		name := e.Identity
		if e.Name != "" {
			name = fmt.Sprintf("%s (%s)", e.Name, e.Identity)
		}
		if e.Version != "" {
			name += " " + cDim("v"+e.Version)
		}
		fmt.Fprintf(w, "%s%s %s  %s\n", colPad(colMargin), f.statusIcon(e.Verdict.Status), f.statusBadge(e.Verdict.Status), name)

		p := colPad(colDetail)
		if e.Findings > 0 {
			f.writeLabel(w, p, "Found:", cYellowBold, fmt.Sprintf("%d finding(s)", e.Findings))
		}
		if e.Verdict.Status == types.StatusError {
			f.writeLabel(w, p, "Error:", cRed, e.Verdict.Label())
		}
		if e.Note != "" {
			f.writeLabel(w, p, "Note:", cCyan, e.Note)
		}
	}
}

func (f *TextFormatter) writeDirectories(w io.Writer, dirs []types.DirectoryResult) {
	if len(dirs) == 0 {
		return
	}
	f.writeSectionHeader(w, "wp-content")
	for _, d := range dirs {
		if !f.showAll() && d.Supported {
			continue
		}
		st := types.StatusCompatible
		if !d.Supported {
			st = types.StatusIncompatible
		}
		fmt.Fprintf(w, "%s%s %s  %-24s %s\n", colPad(colMargin), f.statusIcon(st), f.statusBadge(st), d.Name, cDim(d.Description))
	}
}

func (f *TextFormatter) writeTables(w io.Writer, tables []types.TableResult) {
	if len(tables) == 0 {
		return
	}
	f.writeSectionHeader(w, "database")
	for _, t := range tables {
		if !f.showAll() && t.Compatible {
			continue
		}
		st := types.StatusCompatible
		if !t.Compatible {
			st = types.StatusIncompatible
		}
		fmt.Fprintf(w, "%s%s %s  %s %s\n", colPad(colMargin), f.statusIcon(st), f.statusBadge(st), t.Name,
			cDim(fmt.Sprintf("(%s, %s)", t.Engine, t.Collation)))
		p := colPad(colDetail)
		if len(t.Sources) > 0 {
			f.writeLabel(w, p, "Source:", cCyan, strings.Join(t.Sources, ", "))
		}
		f.writeLabel(w, p, "Notes:", cDim, strings.Join(t.Notes, "; "))
	}
}

var auditSections = []string{"plugins", "themes", "mu-plugins", "directories", "database"}

func (f *TextFormatter) writeAuditSummary(w io.Writer, r *types.AuditReport) {
	fmt.Fprintln(w)
	rule := cDim(strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "  %s\n", rule)

	incompatible := 0
	for _, c := range r.Counts {
		incompatible += c.Incompatible
	}
	if incompatible == 0 {
		fmt.Fprintf(w, "  %s %s\n", cGreenBold(f.icon("pass")), cGreenBold("Compatible: nothing to fix"))
	} else {
		fmt.Fprintf(w, "  %s %s\n", cRedBold(f.icon("shield")),
			cRedBold(fmt.Sprintf("%d incompatible item(s) require attention", incompatible)))
	}

	for _, section := range auditSections {
		c, ok := r.Counts[section]
		if !ok {
			continue
		}
		extra := ""
		if c.NotScanned > 0 {
			extra = " · " + cDim(fmt.Sprintf("%d not scanned", c.NotScanned))
		}
		fmt.Fprintf(w, "    %-12s %s · %s%s\n", section+":",
			cGreen(fmt.Sprintf("%d compatible", c.Compatible)),
			cRed(fmt.Sprintf("%d incompatible", c.Incompatible)),
			extra)
	}

	dur := fmt.Sprintf("%.1fs", float64(r.DurationMS)/1000.0)
	fmt.Fprintf(w, "  %s  %s\n", cDim("Completed in"), cBold(dur))
	fmt.Fprintf(w, "  %s\n", rule)

	var hints []string
	for _, e := range r.Entities {
		if e.Findings > 0 {
			hints = append(hints, TextualMatchNote)
			break
		}
	}
	if !f.showAll() {
		hints = append(hints, "Use --show all to list compatible items")
	}
	f.writeHints(w, hints)
}

// ─── Section header ──────────────────────────────────────────────────

func (f *TextFormatter) writeSectionHeader(w io.Writer, section string) {
	label := strings.ToUpper(section)
	fill := ruleWidth - 4 - len(label)
	if fill < 1 {
		fill = 1
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s %s %s\n", colPad(colMargin), cDim("──"), cBold(label), cDim(strings.Repeat("─", fill)))
	fmt.Fprintln(w)
}

// writeLabel emits one detail line: prefix + colored label (padded to labelWidth) + wrapped value.
func (f *TextFormatter) writeLabel(w io.Writer, prefix, label string, colorFn func(a ...interface{}) string, value string) {
	colored := colorFn(fmt.Sprintf("%-*s", labelWidth, label))
	wrapped := f.wrap(value, colValue, colValue)
	fmt.Fprintf(w, "%s%s%s\n", prefix, colored, wrapped)
}

// ─── Text wrapping ───────────────────────────────────────────────────

func (f *TextFormatter) wrap(text string, startCol, wrapCol int) string {
	w := f.wrapWidth()
	if startCol+len(text) <= w {
		return text
	}

	avail := w - startCol
	if avail < 20 {
		return text
	}

	wrapPad := strings.Repeat(" ", wrapCol)
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	lineLen := 0

	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > avail {
			b.WriteByte('\n')
			b.WriteString(wrapPad)
			b.WriteString(word)
			lineLen = len(word)
			avail = w - wrapCol
		} else {
			b.WriteByte(' ')
			b.WriteString(word)
			lineLen += 1 + len(word)
		}
	}

	return b.String()
}

// ─── Icons ───────────────────────────────────────────────────────────

func (f *TextFormatter) icon(name string) string {
	if f.Dumb {
		switch name {
		case "pass":
			return "+"
		case "fail":
			return "x"
		case "skip":
			return "-"
		case "error", "shield":
			return "!"
		case "section":
			return ">"
		default:
			return "?"
		}
	}
	switch name {
	case "pass":
		return "✓"
	case "fail":
		return "✗"
	case "skip":
		return "○"
	case "error":
		return "⚠"
	case "shield":
		return "🛡"
	case "section":
		return "▸"
	default:
		return "?"
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────

func (f *TextFormatter) statusIcon(s types.Status) string {
	switch s {
	case types.StatusCompatible:
		return cGreen(f.icon("pass"))
	case types.StatusIncompatible:
		return cRed(f.icon("fail"))
	case types.StatusNoFiles:
		return cDim(f.icon("skip"))
	case types.StatusError:
		return cRed(f.icon("error"))
	default:
		return "?"
	}
}

func (f *TextFormatter) statusBadge(s types.Status) string {
	raw := statusBadgeRaw(s)
	padded := fmt.Sprintf("%-*s", badgeWidth, raw)
	switch s {
	case types.StatusCompatible:
		return cGreen(padded)
	case types.StatusIncompatible:
		return cRedBold(padded)
	case types.StatusError:
		return cYellow(padded)
	default:
		return cDim(padded)
	}
}

func statusBadgeRaw(s types.Status) string {
	switch s {
	case types.StatusCompatible:
		return "[OK]"
	case types.StatusIncompatible:
		return "[FAIL]"
	case types.StatusNoFiles:
		return "[N/A]"
	case types.StatusError:
		return "[ERR]"
	default:
		return "[----]"
	}
}

// statusOrder puts incompatible targets first, then errors.
func statusOrder(s types.Status) int {
	switch s {
	case types.StatusIncompatible:
		return 0
	case types.StatusError:
		return 1
	case types.StatusNoFiles:
		return 2
	default:
		return 3
	}
}

func durationRaw(ms int64, d time.Duration) string {
	if ms <= 0 {
		ms = d.Milliseconds()
	}
	if ms < 1 {
		return "(<1ms)"
	}
	return fmt.Sprintf("(%dms)", ms)
}

func colPad(n int) string {
	return strings.Repeat(" ", n)
}
