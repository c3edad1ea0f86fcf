package model

import (
	"encoding/json"
	"testing"
)

// TestReportRecord tests result recording semantics.
func TestReportRecord(t *testing.T) {
	t.Parallel()

	t.Run("records results in execution order", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com")
		r.Record(CheckPolicy, NewCheckResult(CheckPolicy, StatusPass, ""))
		r.Record(CheckRedirect, NewCheckResult(CheckRedirect, StatusReview, "redirect without destination"))

		results := r.Results()
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Check != CheckPolicy || results[1].Check != CheckRedirect {
			t.Errorf("unexpected order: %s, %s", results[0].Check, results[1].Check)
		}
	})

	t.Run("nil result becomes implicit pass", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com")
		r.Record(CheckPolicy, nil)

		res := r.Result(CheckPolicy)
		if res == nil {
			t.Fatal("expected recorded result")
		}
		if !res.Pass() {
			t.Errorf("expected pass, got %v", res.Status)
		}
	})

	t.Run("duplicate check is ignored", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com")
		r.Record(CheckPolicy, NewCheckResult(CheckPolicy, StatusFail, "banned term"))
		r.Record(CheckPolicy, NewCheckResult(CheckPolicy, StatusPass, ""))

		if !r.Result(CheckPolicy).Fail() {
			t.Error("duplicate record overwrote the original result")
		}
		if len(r.Results()) != 1 {
			t.Errorf("expected 1 result, got %d", len(r.Results()))
		}
	})

	t.Run("recording after freeze is a no-op", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com")
		r.Record(CheckPolicy, nil)
		r.Freeze()
		r.Record(CheckRecency, NewCheckResult(CheckRecency, StatusFail, "no dates found"))

		if len(r.Results()) != 1 {
			t.Errorf("expected 1 result after freeze, got %d", len(r.Results()))
		}
	})
}

// TestReportFreeze tests overall status derivation.
func TestReportFreeze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all pass", []Status{StatusPass, StatusPass}, StatusPass},
		{"fail dominates review", []Status{StatusReview, StatusFail}, StatusFail},
		{"error dominates review", []Status{StatusReview, StatusError, StatusPass}, StatusError},
		{"review dominates pass", []Status{StatusPass, StatusReview}, StatusReview},
		{"empty report passes", nil, StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewAuditReport("https://example.com")
			for i, s := range tt.statuses {
				check := CheckOrder[i]
				r.Record(check, NewCheckResult(check, s, ""))
			}
			r.Freeze()

			if r.OverallStatus != tt.want {
				t.Errorf("OverallStatus = %v, want %v", r.OverallStatus, tt.want)
			}
			if !r.Frozen() {
				t.Error("expected report to be frozen")
			}
		})
	}
}

// TestReportJSONRoundTrip tests the external wire shape.
func TestReportJSONRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com")
	r.Record(CheckPolicy, nil)
	r.Record(CheckRecency, NewCheckResult(CheckRecency, StatusFail, "too new").
		WithDetail("most_recent_days", 45))
	r.Freeze()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored AuditReport
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.URL != r.URL {
		t.Errorf("URL = %q, want %q", restored.URL, r.URL)
	}
	if restored.OverallStatus != StatusFail {
		t.Errorf("OverallStatus = %v, want %v", restored.OverallStatus, StatusFail)
	}
	res := restored.Result(CheckRecency)
	if res == nil || res.Reason != "too new" {
		t.Fatalf("recency result not restored: %+v", res)
	}
	if len(restored.Results()) != 2 {
		t.Errorf("expected 2 results, got %d", len(restored.Results()))
	}
}
