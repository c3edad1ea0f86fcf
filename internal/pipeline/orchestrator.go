package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/siteaudit/siteaudit/internal/check"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/model"
)

// Renderer loads a page in a real browser and collects network and
// image signals. Satisfied by fetch.ChromeFetcher.
type Renderer interface {
	Render(ctx context.Context, url string) (*model.Page, error)
}

// Orchestrator runs the full check sequence against one URL and merges
// the outcomes into an AuditReport.
//
// The phase order is fixed: policy filter, redirect probe, page
// acquisition, recency evaluation, then the concurrent checks. The two
// leading phases short-circuit on fail so a banned or redirecting URL
// never costs a page fetch.
type Orchestrator struct {
	// fetcher performs plain HTTP page fetches.
	fetcher fetch.Fetcher

	// renderer collects dynamic signals. Nil means static fallback.
	renderer Renderer

	// policy, redirect, recency are the serial checks, run in order.
	policy   check.Check
	redirect check.Check
	recency  check.Check

	// concurrent are the checks of the concurrent phase.
	concurrent []check.Check

	// checkDeadline bounds each concurrent check independently.
	checkDeadline time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSerialChecks sets the three serial checks in execution order.
func WithSerialChecks(policy, redirect, recency check.Check) Option {
	return func(o *Orchestrator) {
		o.policy = policy
		o.redirect = redirect
		o.recency = recency
	}
}

// WithConcurrentChecks sets the checks of the concurrent phase.
// Recording order in the report follows the order given here.
func WithConcurrentChecks(checks ...check.Check) Option {
	return func(o *Orchestrator) {
		o.concurrent = checks
	}
}

// WithRenderer enables browser-rendered signal collection.
func WithRenderer(r Renderer) Option {
	return func(o *Orchestrator) {
		o.renderer = r
	}
}

// WithCheckDeadline sets the per-check deadline for the concurrent
// phase.
func WithCheckDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.checkDeadline = d
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator. Checks are wired via
// WithSerialChecks and WithConcurrentChecks; a missing check is simply
// skipped, which keeps partial wiring usable in tests.
func NewOrchestrator(fetcher fetch.Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:       fetcher,
		checkDeadline: config.DefaultCheckDeadline,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// ValidateTarget parses and validates an audit target. Only absolute
// HTTP(S) URLs are auditable; anything else is a validation error and
// the pipeline never starts.
func ValidateTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audit target %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid audit target %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid audit target %q: missing host", rawURL)
	}
	return u, nil
}

// Audit runs every phase against rawURL and returns the frozen report.
// The only error return is target validation; every check failure is
// recorded inside the report instead.
func (o *Orchestrator) Audit(ctx context.Context, rawURL string) (*model.AuditReport, error) {
	parsed, err := ValidateTarget(rawURL)
	if err != nil {
		return nil, err
	}

	report := model.NewAuditReport(rawURL)
	target := &check.Target{URL: rawURL, Parsed: parsed}
	start := time.Now()
	o.logger.Info("audit started", "url", rawURL, "id", report.ID)

	// Policy phase: a lexical fail ends the audit with only this
	// result. No network cost has been spent yet.
	if o.runSerial(ctx, report, o.policy, target) {
		return o.finish(report, start), nil
	}

	// Redirect phase: a cross-domain redirect also ends the audit;
	// review and error outcomes are recorded and the audit continues.
	if o.runSerial(ctx, report, o.redirect, target) {
		return o.finish(report, start), nil
	}

	o.acquirePages(ctx, target)

	// Recency phase: always recorded, never short-circuits on its own.
	if o.recency != nil {
		report.Record(o.recency.Name(), o.recency.Check(ctx, target))
	}

	o.runConcurrent(ctx, report, target)

	return o.finish(report, start), nil
}

// runSerial executes one serial check and reports whether the audit
// must short-circuit.
func (o *Orchestrator) runSerial(ctx context.Context, report *model.AuditReport, c check.Check, target *check.Target) (shortCircuit bool) {
	if c == nil {
		return false
	}
	result := c.Check(ctx, target)
	report.Record(c.Name(), result)
	if result != nil && result.Status == model.StatusFail {
		o.logger.Info("audit short-circuited", "url", target.URL, "check", c.Name(), "reason", result.Reason)
		return true
	}
	return false
}

// acquirePages fetches the target page once and, when a renderer is
// configured, collects dynamic signals. Fetch failures leave the pages
// nil; the downstream checks degrade on their own terms.
func (o *Orchestrator) acquirePages(ctx context.Context, target *check.Target) {
	page, err := o.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		o.logger.Warn("page fetch failed", "url", target.URL, "error", err)
	} else {
		target.Page = page
	}

	if o.renderer != nil {
		rendered, err := o.renderer.Render(ctx, target.URL)
		if err != nil {
			o.logger.Warn("page render failed, using static signals", "url", target.URL, "error", err)
		} else {
			target.Rendered = rendered
			return
		}
	}
	if target.Page != nil {
		fetch.CollectStaticSignals(target.Page)
	}
}

// runConcurrent launches the concurrent checks, each under its own
// deadline, and records every result once all have settled. A stalled
// check becomes a timeout result without affecting its siblings.
func (o *Orchestrator) runConcurrent(ctx context.Context, report *model.AuditReport, target *check.Target) {
	type slot struct {
		result   *model.CheckResult
		timedOut bool
	}
	slots := make([]slot, len(o.concurrent))

	var wg sync.WaitGroup
	for i, c := range o.concurrent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, timedOut := RunWithDeadline(ctx, o.checkDeadline, c.Name(), func(ctx context.Context) *model.CheckResult {
				return c.Check(ctx, target)
			})
			slots[i] = slot{result: res, timedOut: timedOut}
		}()
	}
	wg.Wait()

	// Record in wiring order so the report is deterministic regardless
	// of which check settled first.
	for i, c := range o.concurrent {
		report.Record(c.Name(), slots[i].result)
		if slots[i].timedOut {
			report.TimedOut = true
			o.logger.Warn("check timed out", "url", target.URL, "check", c.Name(), "deadline", o.checkDeadline)
		}
	}
}

// finish freezes the report and logs the verdict.
func (o *Orchestrator) finish(report *model.AuditReport, start time.Time) *model.AuditReport {
	report.Freeze()
	o.logger.Info("audit complete",
		"url", report.URL,
		"status", report.OverallStatus.String(),
		"checks", len(report.Results()),
		"elapsed", time.Since(start),
	)
	return report
}
