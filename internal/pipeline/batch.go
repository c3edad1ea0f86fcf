package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Auditor runs one audit. Satisfied by Orchestrator; tests substitute
// fakes.
type Auditor interface {
	Audit(ctx context.Context, url string) (*model.AuditReport, error)
}

// BatchResult is the outcome of one URL in a batch run. Err is non-nil
// only for validation failures, where no report exists.
type BatchResult struct {
	URL    string
	Report *model.AuditReport
	Err    error
}

// BatchAuditor audits multiple URLs concurrently under a concurrency
// limit. Each URL runs as an independent pipeline; they share nothing
// but the read-only policy data.
//
// Design decision: batch handling lives beside rather than inside the
// Orchestrator so single-audit execution stays simple and alternative
// batch strategies (rate limiting, retries) have a seam to attach to.
type BatchAuditor struct {
	// auditor runs the individual audits.
	auditor Auditor

	// concurrency is the maximum number of simultaneous audits.
	concurrency int

	// logger for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchAuditor.
type BatchOption func(*BatchAuditor)

// WithBatchConcurrency sets the maximum number of simultaneous audits.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchAuditor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch runs.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchAuditor) {
		b.logger = logger
	}
}

// NewBatchAuditor creates a BatchAuditor.
func NewBatchAuditor(auditor Auditor, opts ...BatchOption) *BatchAuditor {
	b := &BatchAuditor{
		auditor:     auditor,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Run audits every URL and returns the results in input order. A
// failed or invalid URL does not stop the rest of the batch; its
// outcome is carried in its BatchResult. The error return reports only
// batch-level cancellation.
func (b *BatchAuditor) Run(ctx context.Context, urls []string) ([]BatchResult, error) {
	b.logger.Info("batch audit started", "urls", len(urls), "concurrency", b.concurrency)
	start := time.Now()

	// Indexed writes, one slot per goroutine, so order is preserved
	// without locking.
	results := make([]BatchResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report, err := b.auditor.Audit(ctx, u)
			results[i] = BatchResult{URL: u, Report: report, Err: err}
			if err != nil {
				b.logger.Warn("audit rejected", "url", u, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("batch audit complete", "urls", len(urls), "elapsed", time.Since(start))
	return results, err
}

// RunWithCallback audits every URL and streams each result to the
// callback as it completes. The callback runs on the finishing audit's
// goroutine and must be safe for concurrent use.
func (b *BatchAuditor) RunWithCallback(ctx context.Context, urls []string, callback func(BatchResult)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, u := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report, err := b.auditor.Audit(ctx, u)
			callback(BatchResult{URL: u, Report: report, Err: err})
			return nil
		})
	}
	return g.Wait()
}
