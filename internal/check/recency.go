package check

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// PageSource is the fetching capability the recency evaluation needs.
// It is satisfied by fetch.HTTPFetcher; tests substitute fakes to
// assert which sources were actually queried.
type PageSource interface {
	// Fetch retrieves an HTML page with extracted text.
	Fetch(ctx context.Context, url string) (*model.Page, error)

	// FetchRaw retrieves a raw body (sitemap XML).
	FetchRaw(ctx context.Context, url string) (string, int, error)
}

// dateEvidence is one extracted timestamp and where it came from.
// Evidence is working data internal to the evaluation; it never escapes
// this file.
type dateEvidence struct {
	when   time.Time
	source string
}

// lastmodPattern extracts <lastmod> values from sitemap XML. Sitemaps
// in the wild are frequently invalid XML, so a permissive scan beats a
// strict decoder here.
var lastmodPattern = regexp.MustCompile(`<lastmod>\s*([^<\s]+)\s*</lastmod>`)

// RecencyEvaluator decides whether a site satisfies the freshness and
// history requirements: newest content recent enough, oldest content
// old enough. Evidence is gathered from progressively more expensive
// sources and the rule is re-checked at every accumulation point so
// that cheap sources satisfy most audits.
type RecencyEvaluator struct {
	// source performs the fetches.
	source PageSource

	// policy lists the sitemap locations and auxiliary path guesses.
	policy *config.Policy

	// maxRecentDays is the inclusive upper bound on the newest date's age.
	maxRecentDays int

	// minHistoryDays is the inclusive lower bound on the oldest date's age.
	minHistoryDays int

	// now returns the evaluation time; overridable in tests.
	now func() time.Time

	// logger for structured logging.
	logger *slog.Logger
}

// RecencyOption configures a RecencyEvaluator.
type RecencyOption func(*RecencyEvaluator)

// WithFreshnessBounds sets the inclusive day bounds for the rule.
func WithFreshnessBounds(maxRecent, minHistory int) RecencyOption {
	return func(e *RecencyEvaluator) {
		e.maxRecentDays = maxRecent
		e.minHistoryDays = minHistory
	}
}

// WithRecencyClock overrides the evaluation clock. Tests use this to
// pin day arithmetic.
func WithRecencyClock(now func() time.Time) RecencyOption {
	return func(e *RecencyEvaluator) {
		e.now = now
	}
}

// WithRecencyLogger sets a custom logger.
func WithRecencyLogger(logger *slog.Logger) RecencyOption {
	return func(e *RecencyEvaluator) {
		e.logger = logger
	}
}

// NewRecencyEvaluator creates a RecencyEvaluator.
func NewRecencyEvaluator(source PageSource, policy *config.Policy, opts ...RecencyOption) *RecencyEvaluator {
	e := &RecencyEvaluator{
		source:         source,
		policy:         policy,
		maxRecentDays:  config.DefaultFreshnessMaxRecentDays,
		minHistoryDays: config.DefaultFreshnessMinHistoryDays,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the check name.
func (e *RecencyEvaluator) Name() string {
	return model.CheckRecency
}

// Check gathers date evidence and applies the freshness rule.
//
// Sources are consulted in fixed priority order — primary sitemaps,
// fallback sitemaps, page markup, auxiliary path guesses — and the
// evaluation returns as soon as the accumulated evidence satisfies the
// rule. The order is significant: it is what makes the early exit an
// actual cost saving.
func (e *RecencyEvaluator) Check(ctx context.Context, target *Target) *model.CheckResult {
	base := strings.TrimRight(baseURL(target), "/")
	var evidence []dateEvidence

	// Step 1: primary sitemaps, queried concurrently.
	evidence = append(evidence, e.fetchSitemaps(ctx, base, e.policy.PrimarySitemaps, nil)...)
	if e.satisfied(evidence) {
		return e.passResult(evidence)
	}

	// Step 2: fallback sitemaps. Re-check as results arrive so the
	// remaining fetches can be abandoned once the rule holds.
	evidence = e.fetchSitemapsUntilSatisfied(ctx, base, e.policy.FallbackSitemaps, evidence)
	if e.satisfied(evidence) {
		return e.passResult(evidence)
	}

	// Step 3: dates in the target page's markup.
	evidence = append(evidence, e.extractMarkupDates(ctx, target)...)
	if e.satisfied(evidence) {
		return e.passResult(evidence)
	}

	// Step 4: auxiliary path guesses, probed one at a time.
	for _, path := range e.policy.AuxiliaryPaths {
		select {
		case <-ctx.Done():
			return errorResult(model.CheckRecency, "evaluation interrupted", ctx.Err())
		default:
		}

		page, err := e.source.Fetch(ctx, base+path)
		if err != nil || page.StatusCode >= 400 {
			continue
		}
		evidence = append(evidence, e.datesFromHTML(page.HTML, base+path)...)
		if e.satisfied(evidence) {
			return e.passResult(evidence)
		}
	}

	return e.failResult(evidence)
}

// fetchSitemaps queries the given sitemap paths concurrently and
// returns the extracted evidence appended to seed.
func (e *RecencyEvaluator) fetchSitemaps(ctx context.Context, base string, paths []string, seed []dateEvidence) []dateEvidence {
	var (
		mu       sync.Mutex
		evidence = seed
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		loc := base + path
		g.Go(func() error {
			found := e.sitemapDates(gctx, loc)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			evidence = append(evidence, found...)
			mu.Unlock()
			return nil
		})
	}
	// Workers only return nil; the group is used for the join and the
	// derived context.
	_ = g.Wait()
	return evidence
}

// fetchSitemapsUntilSatisfied queries fallback sitemaps concurrently
// but re-checks the rule after each addition, cancelling the rest once
// the evidence suffices.
func (e *RecencyEvaluator) fetchSitemapsUntilSatisfied(ctx context.Context, base string, paths []string, seed []dateEvidence) []dateEvidence {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan []dateEvidence, len(paths))
	var wg sync.WaitGroup
	for _, path := range paths {
		loc := base + path
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.sitemapDates(fetchCtx, loc)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	evidence := seed
	for found := range results {
		evidence = append(evidence, found...)
		if e.satisfied(evidence) {
			cancel()
			// Drain so the workers' sends never block.
			for range results { //nolint:revive // intentional drain
			}
			break
		}
	}
	return evidence
}

// sitemapDates fetches one sitemap and extracts its lastmod dates.
func (e *RecencyEvaluator) sitemapDates(ctx context.Context, loc string) []dateEvidence {
	body, status, err := e.source.FetchRaw(ctx, loc)
	if err != nil || status >= 400 {
		return nil
	}

	var found []dateEvidence
	for _, m := range lastmodPattern.FindAllStringSubmatch(body, -1) {
		if when, ok := parseSitemapDate(m[1]); ok {
			found = append(found, dateEvidence{when: when, source: loc})
		}
	}
	e.logger.Debug("sitemap parsed", "url", loc, "dates", len(found))
	return found
}

// markupDateSelectors are the DOM locations inspected for publication
// dates, in extraction order.
var markupDateSelectors = []struct {
	selector string
	attr     string // empty means use element text
}{
	{selector: "time[datetime]", attr: "datetime"},
	{selector: "meta[property='article:published_time']", attr: "content"},
	{selector: "meta[property='article:modified_time']", attr: "content"},
	{selector: "meta[name='date']", attr: "content"},
	{selector: "meta[name='last-modified']", attr: "content"},
	{selector: "article[data-published]", attr: "data-published"},
	{selector: "[class*='date']", attr: ""},
	{selector: "[class*='published']", attr: ""},
	{selector: "[class*='updated']", attr: ""},
}

// extractMarkupDates pulls dates out of the target page's markup,
// fetching the page first if the orchestrator could not provide one.
func (e *RecencyEvaluator) extractMarkupDates(ctx context.Context, target *Target) []dateEvidence {
	page := target.ContentPage()
	if page == nil {
		var err error
		page, err = e.source.Fetch(ctx, target.URL)
		if err != nil {
			return nil
		}
	}
	return e.datesFromHTML(page.HTML, page.URL)
}

// datesFromHTML extracts date evidence from an HTML document.
func (e *RecencyEvaluator) datesFromHTML(htmlSrc, source string) []dateEvidence {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil
	}

	var found []dateEvidence
	for _, sel := range markupDateSelectors {
		doc.Find(sel.selector).Each(func(_ int, s *goquery.Selection) {
			var raw string
			if sel.attr != "" {
				raw, _ = s.Attr(sel.attr)
			} else {
				raw = s.Text()
			}
			if when, ok := parseDateText(raw); ok {
				found = append(found, dateEvidence{when: when, source: source})
			}
		})
	}
	return found
}

// satisfied applies the freshness rule over the accumulated evidence.
// Both bounds are inclusive: a newest date exactly maxRecentDays old
// and an oldest date exactly minHistoryDays old both still pass.
func (e *RecencyEvaluator) satisfied(evidence []dateEvidence) bool {
	if len(evidence) == 0 {
		return false
	}
	recent, oldest := e.ageBounds(evidence)
	return recent <= e.maxRecentDays && oldest >= e.minHistoryDays
}

// ageBounds returns the ages in days of the newest and oldest dates.
func (e *RecencyEvaluator) ageBounds(evidence []dateEvidence) (mostRecentDays, oldestDays int) {
	now := e.now()
	newest := evidence[0].when
	oldest := evidence[0].when
	for _, ev := range evidence[1:] {
		if ev.when.After(newest) {
			newest = ev.when
		}
		if ev.when.Before(oldest) {
			oldest = ev.when
		}
	}
	return daysBetween(newest, now), daysBetween(oldest, now)
}

// daysBetween returns whole elapsed days from then to now.
func daysBetween(then, now time.Time) int {
	if then.After(now) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}

// passResult builds the pass result with the evidence summary.
func (e *RecencyEvaluator) passResult(evidence []dateEvidence) *model.CheckResult {
	recent, oldest := e.ageBounds(evidence)
	return model.NewCheckResult(model.CheckRecency, model.StatusPass, "").
		WithDetail("dates_found", len(evidence)).
		WithDetail("most_recent_days", recent).
		WithDetail("oldest_days", oldest)
}

// failResult distinguishes the three failure modes: no evidence at all,
// newest date outside the recency bound, oldest date short of the
// history bound.
func (e *RecencyEvaluator) failResult(evidence []dateEvidence) *model.CheckResult {
	if len(evidence) == 0 {
		return model.NewCheckResult(model.CheckRecency, model.StatusFail, "no dates found")
	}

	recent, oldest := e.ageBounds(evidence)
	reason := "lacks history"
	if recent > e.maxRecentDays {
		reason = "too new"
	}
	return model.NewCheckResult(model.CheckRecency, model.StatusFail, reason).
		WithDetail("dates_found", len(evidence)).
		WithDetail("most_recent_days", recent).
		WithDetail("oldest_days", oldest)
}

// baseURL returns scheme://host for the target.
func baseURL(target *Target) string {
	if target.Parsed != nil {
		return target.Parsed.Scheme + "://" + target.Parsed.Host
	}
	return target.URL
}

// sitemapDateLayouts are the timestamp layouts accepted in lastmod
// values, tried in order.
var sitemapDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// parseSitemapDate parses a lastmod value.
func parseSitemapDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range sitemapDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// textDateLayouts are the human date formats accepted in page markup,
// in precedence order: explicit "Month Day, Year" first, then
// "Updated Month Year", then bare "Month Year", then generic layouts.
var textDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"Updated January 2006",
	"January 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02 Jan 2006",
}

// datePattern pre-filters candidate strings so we do not run the full
// layout cascade over arbitrary element text.
var datePattern = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec|\d{4}-\d{2}-\d{2})`)

// parseDateText tries the accepted layouts against a candidate string.
func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 64 || !datePattern.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
