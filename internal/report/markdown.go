package report

import (
	"fmt"
	"io"

	"github.com/nao1215/markdown"

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// MarkdownWriter outputs audits in Markdown format for documentation
// and sharing.
//
// Design decision: the nao1215/markdown library gives type-safe
// generation with tables and GitHub-flavored alerts, which beats
// hand-concatenated strings for anything beyond a one-liner.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the audit in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport, verdict *outcome.Verdict) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report, verdict)
	w.writeVerdict(md, verdict)
	w.writeChecks(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the audit summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport, verdict *outcome.Verdict) {
	md.H1("Site Audit Report")
	md.PlainText("")

	status := statusBadge(report.OverallStatus)
	if report.TimedOut {
		status += " (partial, one or more checks timed out)"
	}

	rows := [][]string{
		{"URL", "`" + report.URL + "`"},
		{"Audit Date", report.Timestamp.Format("2006-01-02 15:04:05 MST")},
		{"Audit ID", report.ID},
		{"Status", status},
	}
	if verdict != nil && verdict.RejectionCode != "" {
		rows = append(rows, []string{"Rejection Code", "`" + verdict.RejectionCode + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeVerdict writes the alert block for the mapped verdict.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, verdict *outcome.Verdict) {
	if verdict == nil {
		return
	}
	switch verdict.Status {
	case model.StatusFail:
		md.Cautionf("Rejected: %s (%s, code %s)", verdict.FailureReason, verdict.FailedCheck, verdict.RejectionCode)
	case model.StatusError:
		md.Warningf("Audit incomplete: %s (%s)", verdict.FailureReason, verdict.FailedCheck)
	case model.StatusReview:
		md.Importantf("Manual review required: %s (%s)", verdict.FailureReason, verdict.FailedCheck)
	default:
		md.Tip("All checks passed.")
	}
	md.PlainText("")
}

// writeChecks writes the per-check results table and detail sections.
func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Check Results")
	md.PlainText("")

	results := report.Results()
	if len(results) == 0 {
		md.PlainText("No checks were recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		reason := res.Reason
		if reason == "" {
			reason = "-"
		}
		rows = append(rows, []string{res.Check, statusBadge(res.Status), reason})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Check", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, res := range results {
		if len(res.Details) == 0 {
			continue
		}
		md.Details(res.Check, formatDetails(res.Details))
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by siteaudit*")
}

// statusBadge renders a status with its marker for quick scanning.
func statusBadge(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "✅ pass"
	case model.StatusReview:
		return "🔍 review"
	case model.StatusError:
		return "⚠️ error"
	case model.StatusFail:
		return "❌ fail"
	default:
		return s.String()
	}
}

// formatDetails renders a details payload as a bullet list body.
func formatDetails(details map[string]any) string {
	out := ""
	for _, key := range sortedKeys(details) {
		out += fmt.Sprintf("- %s: %v\n", key, details[key])
	}
	return out
}
