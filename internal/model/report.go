package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditReport is the aggregate result of one audit run against a URL.
// It is created once per audit invocation by the orchestrator, mutated
// only by the orchestrator while checks complete, then frozen before
// being handed to the outcome mapper. A report is never shared across
// concurrent audits of different URLs.
//
// Design decision: We keep an ordered slice of results alongside a
// by-name index instead of a bare map because insertion order is part of
// the contract (execution order: policy, redirect, recency, then the
// concurrent checks) and Go map iteration order is unspecified.
type AuditReport struct {
	// ID uniquely identifies this audit run.
	ID string `json:"id"`

	// URL is the audited target, already validated as an absolute
	// HTTP(S) URL before the pipeline started.
	URL string `json:"url"`

	// Timestamp is when the audit started.
	Timestamp time.Time `json:"timestamp"`

	// OverallStatus is derived from the recorded results when the
	// report is frozen: fail > error > review > pass.
	OverallStatus Status `json:"status"`

	// TimedOut is true when one or more checks hit their deadline.
	TimedOut bool `json:"timed_out,omitempty"`

	// results holds recorded check results in execution order.
	results []*CheckResult

	// byCheck indexes results by check name.
	byCheck map[string]*CheckResult

	// frozen is set once the orchestrator finishes; further record
	// attempts are ignored.
	frozen bool
}

// NewAuditReport creates an empty report for the given URL.
func NewAuditReport(url string) *AuditReport {
	return &AuditReport{
		ID:        uuid.NewString(),
		URL:       url,
		Timestamp: time.Now().UTC(),
		results:   make([]*CheckResult, 0, 7),
		byCheck:   make(map[string]*CheckResult, 7),
	}
}

// Record adds a check result to the report. A nil result is an implicit
// pass and is recorded as such so the report always lists every check
// that ran. Recording after Freeze, or recording a duplicate check name,
// is a no-op: results are immutable once produced.
func (r *AuditReport) Record(check string, result *CheckResult) {
	if r.frozen {
		return
	}
	if _, dup := r.byCheck[check]; dup {
		return
	}
	if result == nil {
		result = NewCheckResult(check, StatusPass, "")
	}
	result.Check = check
	r.results = append(r.results, result)
	r.byCheck[check] = result
}

// Result returns the recorded result for a check, or nil if the check
// never ran (e.g. it was short-circuited away).
func (r *AuditReport) Result(check string) *CheckResult {
	return r.byCheck[check]
}

// Results returns the recorded results in execution order.
// The returned slice must not be modified.
func (r *AuditReport) Results() []*CheckResult {
	return r.results
}

// Freeze derives the overall status and seals the report against
// further mutation. It is idempotent.
func (r *AuditReport) Freeze() {
	if r.frozen {
		return
	}
	status := StatusPass
	for _, res := range r.results {
		status = status.Worst(res.Status)
	}
	r.OverallStatus = status
	r.frozen = true
}

// Frozen reports whether the report has been sealed.
func (r *AuditReport) Frozen() bool { return r.frozen }

// reportJSON is the serialized shape of an AuditReport. The checks map
// is emitted from the ordered slice; JSON objects are unordered, so the
// per-check entries also carry their check name for consumers that need
// to reconstruct execution order.
type reportJSON struct {
	ID        string                  `json:"id"`
	URL       string                  `json:"url"`
	Timestamp time.Time               `json:"timestamp"`
	Status    Status                  `json:"status"`
	TimedOut  bool                    `json:"timed_out,omitempty"`
	Checks    map[string]*CheckResult `json:"checks"`
}

// MarshalJSON serializes the report in the external wire shape.
func (r *AuditReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		ID:        r.ID,
		URL:       r.URL,
		Timestamp: r.Timestamp,
		Status:    r.OverallStatus,
		TimedOut:  r.TimedOut,
		Checks:    make(map[string]*CheckResult, len(r.results)),
	}
	for _, res := range r.results {
		out.Checks[res.Check] = res
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a report from its wire shape. Execution order
// is reconstructed using the canonical check ordering since JSON objects
// do not preserve it.
func (r *AuditReport) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.ID = in.ID
	r.URL = in.URL
	r.Timestamp = in.Timestamp
	r.OverallStatus = in.Status
	r.TimedOut = in.TimedOut
	r.results = make([]*CheckResult, 0, len(in.Checks))
	r.byCheck = make(map[string]*CheckResult, len(in.Checks))
	for _, name := range CheckOrder {
		if res, ok := in.Checks[name]; ok {
			r.results = append(r.results, res)
			r.byCheck[name] = res
		}
	}
	r.frozen = true
	return nil
}

// CheckOrder is the canonical execution order of all checks.
var CheckOrder = []string{
	CheckPolicy,
	CheckRedirect,
	CheckRecency,
	CheckHateSpeech,
	CheckSimilarity,
	CheckImageSafety,
	CheckAdNetwork,
}
