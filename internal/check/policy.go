package check

import (
	"context"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// PolicyFilter scans the URL string itself against the curated
// banned-term and banned-TLD sets. It performs no I/O, which is why the
// orchestrator runs it first: a hit here ends the audit before any
// network cost is incurred.
//
// Match order is fixed and part of the contract: the TLD is checked
// first, then term categories in declaration order; within a category
// the hostname is checked before the path, before the full URL.
type PolicyFilter struct {
	// policy holds the banned-term categories and TLD set. Read-only.
	policy *config.Policy
}

// NewPolicyFilter creates a PolicyFilter over the given policy lists.
func NewPolicyFilter(policy *config.Policy) *PolicyFilter {
	return &PolicyFilter{policy: policy}
}

// Name returns the check name.
func (f *PolicyFilter) Name() string {
	return model.CheckPolicy
}

// Check scans the target URL. A nil return means no banned term or TLD
// matched. A URL that fails to parse is treated as a pass here — the
// pipeline validated the URL up front, and a filter-local parse issue
// must not fail the audit on a filter bug.
func (f *PolicyFilter) Check(_ context.Context, target *Target) *model.CheckResult {
	u := target.Parsed
	if u == nil {
		var err error
		u, err = url.Parse(target.URL)
		if err != nil {
			return nil
		}
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	full := strings.ToLower(target.URL)

	// TLD first. The public suffix list resolves multi-label suffixes
	// (co.uk); the banned set is compared against the full effective
	// suffix and against the final hostname label.
	suffix, lastLabel := hostTLD(host)
	for _, banned := range f.policy.BannedTLDs {
		if suffix == banned || lastLabel == banned {
			return model.NewCheckResult(model.CheckPolicy, model.StatusFail, "banned TLD").
				WithDetail("tld", lastLabel)
		}
	}

	for _, category := range f.policy.BannedTerms {
		for _, term := range category.Terms {
			var location string
			switch {
			case strings.Contains(host, term):
				location = "hostname"
			case strings.Contains(path, term):
				location = "path"
			case strings.Contains(full, term):
				location = "url"
			default:
				continue
			}
			return model.NewCheckResult(model.CheckPolicy, model.StatusFail, "banned term").
				WithDetail("category", category.Name).
				WithDetail("term", term).
				WithDetail("location", location)
		}
	}

	return nil
}

// hostTLD returns the effective public suffix of the host ("co.uk")
// and its final dot-separated label ("uk"). The suffix lookup can fail
// for hosts outside the public suffix list (IP literals, bare labels);
// the final label alone is returned in that case.
func hostTLD(host string) (suffix, lastLabel string) {
	labels := strings.Split(host, ".")
	lastLabel = labels[len(labels)-1]

	dn, err := publicsuffix.Parse(host)
	if err != nil {
		return "", lastLabel
	}
	return dn.TLD, lastLabel
}
