package check

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// minWordLength is the exclusive cutoff for words that participate in
// the overlap score. Short function words carry no signal.
const minWordLength = 3

// searchResultLimit caps the candidates requested per excerpt.
const searchResultLimit = 5

// similarityCandidate pairs one search hit with its overlap score
// against an excerpt. Working data internal to one invocation.
type similarityCandidate struct {
	url   string
	score float64
}

// SimilarityChecker scores representative content excerpts against
// external search results to estimate plagiarism likelihood.
type SimilarityChecker struct {
	// source fetches candidate pages for comparison.
	source PageSource

	// searcher finds candidate pages for an excerpt.
	searcher classify.Searcher

	// failThreshold is the score at which an excerpt counts as plagiarized.
	failThreshold float64

	// reviewThreshold is the score at which an excerpt is flagged for
	// human review without failing outright.
	reviewThreshold float64

	// maxExcerpts caps how many paragraphs are scored.
	maxExcerpts int

	// minParagraphLength filters out fragments.
	minParagraphLength int

	// logger for structured logging.
	logger *slog.Logger
}

// SimilarityOption configures a SimilarityChecker.
type SimilarityOption func(*SimilarityChecker)

// WithSimilarityThresholds sets the fail and review score thresholds.
func WithSimilarityThresholds(fail, review float64) SimilarityOption {
	return func(c *SimilarityChecker) {
		c.failThreshold = fail
		c.reviewThreshold = review
	}
}

// WithExcerptLimits sets the excerpt cap and minimum paragraph length.
func WithExcerptLimits(maxExcerpts, minParagraphLength int) SimilarityOption {
	return func(c *SimilarityChecker) {
		c.maxExcerpts = maxExcerpts
		c.minParagraphLength = minParagraphLength
	}
}

// WithSimilarityLogger sets a custom logger.
func WithSimilarityLogger(logger *slog.Logger) SimilarityOption {
	return func(c *SimilarityChecker) {
		c.logger = logger
	}
}

// NewSimilarityChecker creates a SimilarityChecker.
func NewSimilarityChecker(source PageSource, searcher classify.Searcher, opts ...SimilarityOption) *SimilarityChecker {
	c := &SimilarityChecker{
		source:             source,
		searcher:           searcher,
		failThreshold:      config.DefaultSimilarityFailThreshold,
		reviewThreshold:    config.DefaultSimilarityReviewThreshold,
		maxExcerpts:        config.DefaultMaxExcerpts,
		minParagraphLength: config.DefaultMinParagraphLength,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the check name.
func (c *SimilarityChecker) Name() string {
	return model.CheckSimilarity
}

// Check selects the target's most substantial paragraphs and scores
// each against search candidates. An excerpt with no candidates at all
// passes; the overall status takes the worst excerpt outcome in the
// order fail, review, error, pass.
func (c *SimilarityChecker) Check(ctx context.Context, target *Target) *model.CheckResult {
	page := target.ContentPage()
	if page == nil {
		var err error
		page, err = c.source.Fetch(ctx, target.URL)
		if err != nil {
			return errorResult(model.CheckSimilarity, "content fetch failed", err)
		}
	}

	excerpts := SelectExcerpts(page.Text, c.minParagraphLength, c.maxExcerpts)
	if len(excerpts) == 0 {
		return model.NewCheckResult(model.CheckSimilarity, model.StatusPass, "").
			WithDetail("excerpts", 0)
	}

	var (
		failed    int
		review    int
		errored   int
		summaries []map[string]any
	)
	for i, excerpt := range excerpts {
		best, err := c.scoreExcerpt(ctx, target, excerpt)
		summary := map[string]any{
			"excerpt": truncate(excerpt, 160),
		}
		switch {
		case err != nil:
			errored++
			summary["error"] = err.Error()
			c.logger.Warn("excerpt scoring failed", "index", i, "error", err)
		case best == nil:
			summary["score"] = 0.0
		case best.score >= c.failThreshold:
			failed++
			summary["score"] = best.score
			summary["matched_url"] = best.url
		case best.score >= c.reviewThreshold:
			review++
			summary["score"] = best.score
			summary["matched_url"] = best.url
		default:
			summary["score"] = best.score
		}
		summaries = append(summaries, summary)
	}

	status := model.StatusPass
	reason := ""
	switch {
	case failed > 0:
		status = model.StatusFail
		reason = fmt.Sprintf("%d of %d excerpts exceed similarity threshold", failed, len(excerpts))
	case review > 0:
		status = model.StatusReview
		reason = fmt.Sprintf("%d of %d excerpts near similarity threshold", review, len(excerpts))
	case errored == len(excerpts):
		status = model.StatusError
		reason = "all excerpt comparisons failed"
	}

	return model.NewCheckResult(model.CheckSimilarity, status, reason).
		WithDetail("excerpts", len(excerpts)).
		WithDetail("results", summaries)
}

// scoreExcerpt searches for candidate pages and returns the
// highest-scoring one, or nil when no candidate exists.
func (c *SimilarityChecker) scoreExcerpt(ctx context.Context, target *Target, excerpt string) (*similarityCandidate, error) {
	hits, err := c.searcher.Search(ctx, searchQuery(excerpt), searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	words := WordSet(excerpt)
	var best *similarityCandidate
	for _, hit := range hits {
		if sameHost(target, hit.URL) {
			continue
		}
		page, err := c.source.Fetch(ctx, hit.URL)
		if err != nil {
			c.logger.Debug("candidate fetch failed", "url", hit.URL, "error", err)
			continue
		}
		score := overlapRatio(words, WordSet(page.Text))
		if best == nil || score > best.score {
			best = &similarityCandidate{url: hit.URL, score: score}
		}
	}
	return best, nil
}

// SelectExcerpts splits text into paragraphs, drops fragments and
// non-prose, and returns up to max of the longest paragraphs. Longest
// first: substantial text gives the overlap score something to bite on.
func SelectExcerpts(text string, minLength, max int) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) < minLength || !hasProse(p) {
			continue
		}
		paragraphs = append(paragraphs, p)
	}

	sort.SliceStable(paragraphs, func(i, j int) bool {
		return len(paragraphs[i]) > len(paragraphs[j])
	})
	if len(paragraphs) > max {
		paragraphs = paragraphs[:max]
	}
	return paragraphs
}

// hasProse reports whether s contains at least one letter. Paragraphs
// of pure punctuation or digits (tables, separators) carry no signal.
func hasProse(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// foldCaser performs Unicode case folding for word comparison.
var foldCaser = cases.Fold()

// WordSet returns the case-folded set of words longer than three
// characters.
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if utf8.RuneCountInString(w) <= minWordLength {
			continue
		}
		set[foldCaser.String(w)] = struct{}{}
	}
	return set
}

// overlapRatio computes intersection-over-union of two word sets.
// Identical sets score 1.0, disjoint sets 0.0.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// searchQuery derives a bounded query string from an excerpt.
func searchQuery(excerpt string) string {
	const maxQueryLen = 200
	q := strings.Join(strings.Fields(excerpt), " ")
	if len(q) > maxQueryLen {
		cut := q[:maxQueryLen]
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		q = cut
	}
	return q
}

// sameHost reports whether candidate shares the target's hostname.
func sameHost(target *Target, candidate string) bool {
	if target.Parsed == nil {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), target.Parsed.Hostname())
}
