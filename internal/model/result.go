package model

// Check name constants. These are the keys under which results appear in
// the audit report's checks map and in the per-check database table.
// Insertion order in the report follows execution order: policy, redirect,
// recency, then the four concurrent checks.
const (
	// CheckPolicy is the lexical banned-term/TLD filter.
	CheckPolicy = "policy_filter"

	// CheckRedirect is the no-follow redirect probe.
	CheckRedirect = "redirect"

	// CheckRecency is the content freshness/history evaluation.
	CheckRecency = "recency"

	// CheckHateSpeech is the lexical + delegated hate-speech screen.
	CheckHateSpeech = "hate_speech"

	// CheckSimilarity is the plagiarism similarity check.
	CheckSimilarity = "similarity"

	// CheckImageSafety is the image-content safety screen.
	CheckImageSafety = "image_safety"

	// CheckAdNetwork is the ad-partner sufficiency classification.
	CheckAdNetwork = "ad_network"
)

// CheckResult is the outcome of a single compliance check.
// A result is immutable once produced; it is owned exclusively by the
// AuditReport that records it and is never shared across audits.
//
// Design decision: Details is a free-form map rather than a per-check
// struct because the persistence layer stores it as an opaque JSON blob
// and the set of detail keys differs per check. Checks populate it with
// plain JSON-friendly values only (strings, numbers, bools, slices).
type CheckResult struct {
	// Check is the check name (one of the Check* constants).
	Check string `json:"check"`

	// Status is the check outcome.
	Status Status `json:"status"`

	// Reason is a short canonical code describing the outcome, e.g.
	// "external redirect" or "no dates found". Reasons feed the
	// rejection-code lookup and must stay stable.
	Reason string `json:"reason,omitempty"`

	// Details carries structured evidence for audit trails: matched
	// terms, destination URLs, per-excerpt scores, network lists.
	Details map[string]any `json:"details,omitempty"`
}

// NewCheckResult creates a result with the given status and reason.
func NewCheckResult(check string, status Status, reason string) *CheckResult {
	return &CheckResult{
		Check:  check,
		Status: status,
		Reason: reason,
	}
}

// WithDetail returns the result with an extra detail attached.
// It mutates and returns the receiver for call chaining during
// construction; results must not be modified after being recorded.
func (r *CheckResult) WithDetail(key string, value any) *CheckResult {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
	return r
}

// Pass reports whether the result is an explicit pass.
func (r *CheckResult) Pass() bool { return r.Status == StatusPass }

// Fail reports whether the result is a hard failure.
func (r *CheckResult) Fail() bool { return r.Status == StatusFail }
