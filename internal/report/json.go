package report

import (
	"encoding/json"
	"io"

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// JSONWriter outputs audits in JSON format for tool integration.
//
// Design decision: standard encoding/json rather than a third-party
// JSON library. The report types carry their own MarshalJSON and the
// output is write-once, so a faster encoder buys nothing here.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output with the given prefix
// and per-level indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonEnvelope is the wire shape: the report plus the derived verdict.
type jsonEnvelope struct {
	Report  *model.AuditReport `json:"report"`
	Verdict *outcome.Verdict   `json:"verdict,omitempty"`
}

// Write outputs the audit in JSON format.
func (w *JSONWriter) Write(report *model.AuditReport, verdict *outcome.Verdict) (int, error) {
	env := jsonEnvelope{Report: report, Verdict: verdict}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(env, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(env)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
