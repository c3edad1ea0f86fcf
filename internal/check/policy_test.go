package check

import (
	"context"
	"testing"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// testPolicy builds a small policy for filter tests.
func testPolicy() *config.Policy {
	return &config.Policy{
		BannedTLDs: []string{"xyz", "top"},
		BannedTerms: []config.TermCategory{
			{Name: "gambling", Terms: []string{"casino", "betting"}},
			{Name: "adult_content", Terms: []string{"xxx"}},
		},
	}
}

// TestPolicyFilterCheck tests banned-term and banned-TLD matching.
func TestPolicyFilterCheck(t *testing.T) {
	t.Parallel()

	f := NewPolicyFilter(testPolicy())
	ctx := context.Background()

	t.Run("clean URL passes", func(t *testing.T) {
		t.Parallel()

		if res := f.Check(ctx, newTarget(t, "https://example.com/articles")); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})

	t.Run("banned TLD fails before term categories", func(t *testing.T) {
		t.Parallel()

		res := f.Check(ctx, newTarget(t, "https://casino.example.xyz/"))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Reason != "banned TLD" {
			t.Errorf("reason = %q, want %q", res.Reason, "banned TLD")
		}
		if res.Details["tld"] != "xyz" {
			t.Errorf("tld detail = %v, want xyz", res.Details["tld"])
		}
	})

	t.Run("banned term in hostname", func(t *testing.T) {
		t.Parallel()

		res := f.Check(ctx, newTarget(t, "https://best-casino.example.com/"))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Reason != "banned term" {
			t.Errorf("reason = %q, want %q", res.Reason, "banned term")
		}
		if res.Details["category"] != "gambling" || res.Details["location"] != "hostname" {
			t.Errorf("details = %v", res.Details)
		}
	})

	t.Run("banned term in path", func(t *testing.T) {
		t.Parallel()

		res := f.Check(ctx, newTarget(t, "https://example.com/betting/odds"))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Details["location"] != "path" {
			t.Errorf("location = %v, want path", res.Details["location"])
		}
	})

	t.Run("banned term in query lands in full URL scan", func(t *testing.T) {
		t.Parallel()

		res := f.Check(ctx, newTarget(t, "https://example.com/search?q=xxx"))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Details["location"] != "url" {
			t.Errorf("location = %v, want url", res.Details["location"])
		}
		if res.Details["category"] != "adult_content" {
			t.Errorf("category = %v, want adult_content", res.Details["category"])
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		res := f.Check(ctx, newTarget(t, "https://CASINO.example.com/"))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
	})

	t.Run("first category in declaration order wins", func(t *testing.T) {
		t.Parallel()

		// Both "casino" and "xxx" appear; gambling is declared first.
		res := f.Check(ctx, newTarget(t, "https://example.com/casino/xxx"))
		if res == nil || res.Details["category"] != "gambling" {
			t.Errorf("expected gambling to win, got %+v", res)
		}
	})

	t.Run("unparseable URL is swallowed as pass", func(t *testing.T) {
		t.Parallel()

		target := &Target{URL: "http://bad url\x7f"}
		if res := f.Check(ctx, target); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})
}

// TestPolicyFilterName ensures the check reports its stable name.
func TestPolicyFilterName(t *testing.T) {
	t.Parallel()

	if got := NewPolicyFilter(testPolicy()).Name(); got != model.CheckPolicy {
		t.Errorf("Name() = %q, want %q", got, model.CheckPolicy)
	}
}
