package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/siteaudit/siteaudit/internal/config"
	logpkg "github.com/siteaudit/siteaudit/internal/log"
	"github.com/siteaudit/siteaudit/internal/metrics"
	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP service",
		Long: `Serve runs siteaudit as an HTTP service.

Endpoints:
  POST /api/v1/audit   {"url": "https://example.com"} -> audit report
  GET  /healthz        liveness probe
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"Listen address for the HTTP service")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Duration("check-deadline", config.DefaultCheckDeadline,
		"Deadline for each concurrent check")
	cmd.Flags().Bool("no-render", false,
		"Skip headless browser rendering and use static signal collection")
	cmd.Flags().String("classifier", "",
		"Base URL of the text/image classification service")
	cmd.Flags().String("search", "",
		"Base URL of the similarity search service")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteaudit in current or home directory)")
	cmd.Flags().Bool("no-store", false,
		"Do not persist audit results")
	cmd.Flags().String("postgres", "",
		"PostgreSQL DSN for the audit store (default: embedded SQLite)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	// The service receives its targets over HTTP, so the no-target
	// validation does not apply here.
	if err := cfg.Validate(); err != nil && !errors.Is(err, config.ErrNoTarget) {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := logpkg.NewJSONLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	return runServe(ctx, cfg, logger)
}

// buildServeConfig creates a Config from serve command flags. The
// serve command reuses most audit flags but has no targets or report
// formats.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	var err error

	cfg.ListenAddr, err = cmd.Flags().GetString("listen")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.CheckDeadline, err = cmd.Flags().GetDuration("check-deadline")
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
	return cfg, nil
}

// runServe wires the components and serves HTTP until cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/audit", auditHandler(c, recorder, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("audit service listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// auditRequest is the POST /api/v1/audit request body.
type auditRequest struct {
	URL string `json:"url"`
}

// auditResponse is the POST /api/v1/audit response body.
type auditResponse struct {
	Report          *model.AuditReport `json:"report"`
	Verdict         *outcome.Verdict   `json:"verdict"`
	DatabaseStorage storageStatus      `json:"databaseStorage"`
}

// storageStatus reports whether persistence applied. A false value
// accompanies a fully computed verdict; the audit itself never fails
// on storage errors.
type storageStatus struct {
	Success bool `json:"success"`
}

// auditHandler runs one audit per request.
func auditHandler(c *components, recorder *metrics.Recorder, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req auditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, `{"error":"request body must be {\"url\": \"...\"}"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		auditReport, err := c.orchestrator.Audit(r.Context(), req.URL)
		if err != nil {
			// Validation error: the pipeline never started.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		verdict := c.mapper.Map(auditReport)
		c.mapper.Persist(r.Context(), auditReport, verdict)

		recorder.ObserveAudit(auditReport.OverallStatus.String(), time.Since(start), auditReport.TimedOut)
		for _, res := range auditReport.Results() {
			recorder.ObserveCheck(res.Check, res.Status.String())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(auditResponse{
			Report:          auditReport,
			Verdict:         verdict,
			DatabaseStorage: storageStatus{Success: verdict.Stored},
		}); err != nil {
			logger.Error("response encoding failed", "url", req.URL, "error", err)
		}
	})
}
