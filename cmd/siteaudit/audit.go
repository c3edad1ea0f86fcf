package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/siteaudit/siteaudit/internal/config"
	logpkg "github.com/siteaudit/siteaudit/internal/log"
	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
	"github.com/siteaudit/siteaudit/internal/pipeline"
	"github.com/siteaudit/siteaudit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Audit publisher sites for ad-network acceptance",
		Long: `Audit evaluates one or more publisher URLs for ad-network acceptance.

Each URL runs through the full check sequence:
- Content policy (banned terms and TLDs)
- Redirect behavior (cross-domain redirects are rejected)
- Content freshness and history
- Plagiarism likelihood against search results
- Hate speech screening
- Image safety
- Premium ad-partner activity

Examples:
  # Audit a single site
  siteaudit audit https://example.com

  # Audit several sites concurrently
  siteaudit audit --batch 4 https://a.example https://b.example

  # Output a JSON report to a file
  siteaudit audit --json --output report.json https://example.com

  # Skip the headless browser (static signal collection only)
  siteaudit audit --no-render https://example.com

Configuration file (.siteaudit) example:
  thresholds:
    maxRecentDays: 30
    minHistoryDays: 95
  policy:
    bannedTerms:
      - name: gambling
        terms: [casino, betting]`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Duration("check-deadline", config.DefaultCheckDeadline,
		"Deadline for each concurrent check")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")
	cmd.Flags().Bool("no-render", false,
		"Skip headless browser rendering and use static signal collection")

	// Collaborator endpoints
	cmd.Flags().String("classifier", "",
		"Base URL of the text/image classification service")
	cmd.Flags().String("search", "",
		"Base URL of the similarity search service")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteaudit in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-store", false,
		"Do not persist audit results")
	cmd.Flags().String("postgres", "",
		"PostgreSQL DSN for the audit store (default: embedded SQLite)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := logpkg.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its
// parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.CheckDeadline, err = cmd.Flags().GetDuration("check-deadline")
	if err != nil {
		return nil, err
	}
	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}
	cfg.DisableRender, err = cmd.Flags().GetBool("no-render")
	if err != nil {
		return nil, err
	}
	cfg.ClassifierEndpoint, err = cmd.Flags().GetString("classifier")
	if err != nil {
		return nil, err
	}
	cfg.SearchEndpoint, err = cmd.Flags().GetString("search")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Apply the config file. An explicitly given path must exist; an
	// absent default file is silently skipped.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noStore, err := cmd.Flags().GetBool("no-store")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noStore
	cfg.DBDir = config.XDGDataDir()
	cfg.PostgresDSN, err = cmd.Flags().GetString("postgres")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args
	return cfg, nil
}

// runAudit executes the audits.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, c, logger)
	}
	return runSequentialAudit(ctx, cfg, c, logger)
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, c *components, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Auditing %s...\n", target)
		startTime := time.Now()

		auditReport, err := c.orchestrator.Audit(ctx, target)
		if err != nil {
			logger.Error("audit rejected", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		verdict := c.mapper.Map(auditReport)
		c.mapper.Persist(ctx, auditReport, verdict)

		if err := outputReport(cfg, auditReport, verdict); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}
	return nil
}

// runBatchAudit audits multiple targets concurrently.
func runBatchAudit(ctx context.Context, cfg *config.Config, c *components, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)
	startTime := time.Now()

	batch := pipeline.NewBatchAuditor(c.orchestrator,
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	results, err := batch.Run(ctx, cfg.Targets)
	if err != nil {
		return err
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", res.URL, res.Err)
			continue
		}
		verdict := c.mapper.Map(res.Report)
		c.mapper.Persist(ctx, res.Report, verdict)
		if err := outputReport(cfg, res.Report, verdict); err != nil {
			logger.Error("report failed", "target", res.URL, "error", err)
		}
	}

	fmt.Printf("\nBatch audit completed in %s (%d targets, %d rejected inputs)\n",
		time.Since(startTime).Round(time.Millisecond), len(results), failed)
	return nil
}

// outputReport writes one audit in the configured format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport, verdict *outcome.Verdict) error {
	out := os.Stdout
	if cfg.ReportFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.ReportFile), 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open report file: %w", err)
		}
		defer f.Close() //nolint:errcheck // best effort on close
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTextWriter(out, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(auditReport, verdict)
	return err
}
