package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// sampleAudit builds a frozen two-check report with a failing verdict.
func sampleAudit(t *testing.T) (*model.AuditReport, *outcome.Verdict) {
	t.Helper()
	report := model.NewAuditReport("https://example.com/page")
	report.Record(model.CheckPolicy, model.NewCheckResult(model.CheckPolicy, model.StatusPass, ""))
	report.Record(model.CheckRecency,
		model.NewCheckResult(model.CheckRecency, model.StatusFail, "lacks history").
			WithDetail("oldest_days", 40).
			WithDetail("most_recent_days", 5))
	report.Freeze()

	verdict := &outcome.Verdict{
		Status:        model.StatusFail,
		FailureReason: "lacks history",
		RejectionCode: outcome.CodeContentFreshness,
		FailedCheck:   model.CheckRecency,
	}
	return report, verdict
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	report, verdict := sampleAudit(t)

	t.Run("default output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(report, verdict); err != nil {
			t.Fatalf("Write: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"https://example.com/page",
			"lacks history",
			outcome.CodeContentFreshness,
			"[+] " + model.CheckPolicy,
			"[x] " + model.CheckRecency,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "oldest_days") {
			t.Error("details printed without verbose")
		}
	})

	t.Run("verbose includes details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf, WithVerbose(true)).Write(report, verdict); err != nil {
			t.Fatalf("Write: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "oldest_days: 40") {
			t.Errorf("verbose output missing details:\n%s", out)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	report, verdict := sampleAudit(t)

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(report, verdict); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var env struct {
		Report  *model.AuditReport `json:"report"`
		Verdict *outcome.Verdict   `json:"verdict"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if env.Report == nil || env.Report.URL != report.URL {
		t.Errorf("report round-trip failed: %+v", env.Report)
	}
	if env.Verdict == nil || env.Verdict.RejectionCode != outcome.CodeContentFreshness {
		t.Errorf("verdict round-trip failed: %+v", env.Verdict)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Error("output does not end with a newline")
	}
}

func TestJSONWriterPretty(t *testing.T) {
	t.Parallel()

	report, verdict := sampleAudit(t)

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(report, verdict); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("pretty output is not indented")
	}
	if !json.Valid(buf.Bytes()) {
		t.Error("pretty output is not valid JSON")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	report, verdict := sampleAudit(t)

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(report, verdict); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"https://example.com/page",
		"lacks history",
		outcome.CodeContentFreshness,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	report, verdict := sampleAudit(t)

	var text, jsonBuf bytes.Buffer
	mw := NewMultiWriter(NewTextWriter(&text), NewJSONWriter(&jsonBuf))
	if _, err := mw.Write(report, verdict); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if text.Len() == 0 || jsonBuf.Len() == 0 {
		t.Error("multi writer skipped an output")
	}
}

func TestStatusMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status model.Status
		want   string
	}{
		{model.StatusPass, "+"},
		{model.StatusReview, "?"},
		{model.StatusError, "!"},
		{model.StatusFail, "x"},
	}
	for _, tt := range tests {
		if got := statusMarker(tt.status); got != tt.want {
			t.Errorf("statusMarker(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
