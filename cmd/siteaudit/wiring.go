package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siteaudit/siteaudit/internal/check"
	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
	"github.com/siteaudit/siteaudit/internal/fetch"
	"github.com/siteaudit/siteaudit/internal/outcome"
	"github.com/siteaudit/siteaudit/internal/pipeline"
)

// auditStore is what the CLI needs from a persistence backend: the
// outcome commands plus the history query the history command reads.
type auditStore interface {
	outcome.Store
	GetAuditHistory(ctx context.Context, site string) ([]database.AuditSummary, error)
	Close() error
}

// components bundles the wired audit machinery and its cleanup.
type components struct {
	orchestrator *pipeline.Orchestrator
	mapper       *outcome.Mapper
	store        auditStore
	closers      []func()
}

// close releases everything in reverse wiring order.
func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents wires the fetcher, renderer, classifier, checks,
// orchestrator, store, and outcome mapper from configuration.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	fetcher := fetch.NewHTTPFetcher(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHTTPTimeout(cfg.Timeout),
	)

	remote := classify.NewRemoteClient(cfg.ClassifierEndpoint, cfg.SearchEndpoint,
		classify.WithTimeout(cfg.Timeout),
	)

	orchOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithCheckDeadline(cfg.CheckDeadline),
		pipeline.WithSerialChecks(
			check.NewPolicyFilter(cfg.Policy),
			check.NewRedirectInspector(
				check.WithProbeTimeout(cfg.Timeout),
				check.WithProbeUserAgent(cfg.UserAgent),
				check.WithRedirectLogger(logger),
			),
			check.NewRecencyEvaluator(fetcher, cfg.Policy,
				check.WithFreshnessBounds(cfg.FreshnessMaxRecentDays, cfg.FreshnessMinHistoryDays),
				check.WithRecencyLogger(logger),
			),
		),
		pipeline.WithConcurrentChecks(
			check.NewHateSpeechScreener(fetcher, remote, cfg.Policy,
				check.WithChunking(cfg.MaxChunks, cfg.ChunkSize),
				check.WithHateSpeechLogger(logger),
			),
			check.NewSimilarityChecker(fetcher, remote,
				check.WithSimilarityThresholds(cfg.SimilarityFailThreshold, cfg.SimilarityReviewThreshold),
				check.WithExcerptLimits(cfg.MaxExcerpts, cfg.MinParagraphLength),
				check.WithSimilarityLogger(logger),
			),
			check.NewImageSafetyChecker(fetcher, remote,
				check.WithMaxImages(cfg.MaxImages),
				check.WithImageSafetyLogger(logger),
			),
			check.NewAdNetworkClassifier(cfg.Policy,
				check.WithMinPremiumNetworks(cfg.MinPremiumNetworks),
				check.WithAdNetworkLogger(logger),
			),
		),
	}

	if !cfg.DisableRender {
		renderer := fetch.NewChromeFetcher(
			fetch.WithChromeUserAgent(cfg.UserAgent),
			fetch.WithChromeLogger(logger),
		)
		c.closers = append(c.closers, func() { renderer.Close() })
		orchOpts = append(orchOpts, pipeline.WithRenderer(renderer))
	}

	c.orchestrator = pipeline.NewOrchestrator(fetcher, orchOpts...)

	mapperOpts := []outcome.MapperOption{outcome.WithMapperLogger(logger)}
	if cfg.SaveToDB {
		store, err := openStore(ctx, cfg)
		if err != nil {
			c.close()
			return nil, err
		}
		c.store = store
		c.closers = append(c.closers, func() { _ = store.Close() })
		mapperOpts = append(mapperOpts, outcome.WithStore(store))
	}
	c.mapper = outcome.NewMapper(outcome.NewCodeTable(), mapperOpts...)

	return c, nil
}

// openStore opens the configured persistence backend: PostgreSQL when
// a DSN is set, the embedded SQLite store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (auditStore, error) {
	if cfg.PostgresDSN != "" {
		store, err := database.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	}
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
