package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// TextWriter outputs human-readable text for terminal display.
//
// Design decision: plain text with ASCII section formatting rather
// than ANSI colors. It works in every terminal and pipes cleanly to
// files and other tools.
type TextWriter struct {
	baseWriter

	// verbose enables per-check detail output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with per-check details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit in human-readable format.
func (w *TextWriter) Write(report *model.AuditReport, verdict *outcome.Verdict) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 64) + "\n")
	sb.WriteString("Site Audit Report\n")
	sb.WriteString(strings.Repeat("=", 64) + "\n")
	fmt.Fprintf(&sb, "URL:        %s\n", report.URL)
	fmt.Fprintf(&sb, "Date:       %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Status:     %s\n", report.OverallStatus)
	if report.TimedOut {
		sb.WriteString("Note:       one or more checks timed out; results are partial\n")
	}
	if verdict != nil {
		if verdict.FailureReason != "" {
			fmt.Fprintf(&sb, "Reason:     %s (%s)\n", verdict.FailureReason, verdict.FailedCheck)
		}
		if verdict.RejectionCode != "" {
			fmt.Fprintf(&sb, "Code:       %s\n", verdict.RejectionCode)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("Checks\n")
	sb.WriteString(strings.Repeat("-", 64) + "\n")
	for _, res := range report.Results() {
		marker := statusMarker(res.Status)
		if res.Reason != "" {
			fmt.Fprintf(&sb, "  [%s] %-14s %s\n", marker, res.Check, res.Reason)
		} else {
			fmt.Fprintf(&sb, "  [%s] %s\n", marker, res.Check)
		}
		if w.verbose {
			for _, key := range sortedKeys(res.Details) {
				fmt.Fprintf(&sb, "        %s: %v\n", key, res.Details[key])
			}
		}
	}
	sb.WriteString(strings.Repeat("=", 64) + "\n")

	return io.WriteString(w.output, sb.String())
}

// statusMarker returns the single-character marker for a status.
func statusMarker(s model.Status) string {
	switch s {
	case model.StatusPass:
		return "+"
	case model.StatusReview:
		return "?"
	case model.StatusError:
		return "!"
	case model.StatusFail:
		return "x"
	default:
		return " "
	}
}

// sortedKeys returns map keys in stable order for deterministic output.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
