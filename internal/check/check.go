package check

import (
	"context"
	"net/url"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Target carries everything a check may need about the audited URL.
// The orchestrator fetches pages once and shares them here so checks do
// not refetch; checks that need extra requests (sitemaps, candidate
// pages) perform them through their injected collaborators.
//
// Design decision: We pass one aggregate rather than per-check
// parameters because not every check needs every field, adding data
// does not change check signatures, and fakes in tests stay trivial —
// the same reasoning as the analyzer data aggregate this package grew
// out of.
type Target struct {
	// URL is the audited URL string.
	URL string

	// Parsed is the validated, parsed form of URL.
	Parsed *url.URL

	// Page is the plain-fetched page with extracted text. May be nil
	// when the fetch failed; checks must treat that as missing content,
	// not panic.
	Page *model.Page

	// Rendered is the browser-rendered page with network and image
	// signals. Nil when rendering is disabled or failed; the ad-network
	// and image checks then fall back to static signals on Page.
	Rendered *model.Page
}

// ContentPage returns the richest page available: the rendered page
// when present, otherwise the plain fetch.
func (t *Target) ContentPage() *model.Page {
	if t.Rendered != nil {
		return t.Rendered
	}
	return t.Page
}

// Check is a single named compliance check.
//
// Design decision: Check returns a result rather than (result, error)
// because the error taxonomy is part of the result: a check that cannot
// complete reports StatusError with the failure in the reason, and the
// pipeline treats that like any other recorded outcome. There is no
// error path that should abort sibling checks.
type Check interface {
	// Name returns the check's stable name (a model.Check* constant).
	Name() string

	// Check evaluates the target. A nil result is an implicit pass.
	Check(ctx context.Context, target *Target) *model.CheckResult
}

// errorResult builds a StatusError result for a check that could not
// complete. The error text goes into details, not the reason, so the
// reason stays a stable code for the rejection-table lookup.
func errorResult(check, reason string, err error) *model.CheckResult {
	r := model.NewCheckResult(check, model.StatusError, reason)
	if err != nil {
		r.WithDetail("error", err.Error())
	}
	return r
}

// truncate shortens s for inclusion in result details.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
