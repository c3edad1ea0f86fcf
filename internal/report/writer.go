package report

import (
	"io"

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// Writer renders one audit to a destination.
//
// Design decision: We use an interface to allow different output
// formats and destinations. Files, stdout, and network connections all
// share the same API.
type Writer interface {
	// Write outputs the report and its mapped verdict.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AuditReport, verdict *outcome.Verdict) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, typically the
// terminal and a file.
//
// Design decision: a separate type rather than io.MultiWriter because
// our Writer interface takes reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs to all configured Writers, stopping on the first error.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(report *model.AuditReport, verdict *outcome.Verdict) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report, verdict)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
