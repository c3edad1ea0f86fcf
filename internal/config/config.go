package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on the publisher-acceptance policy this
// tool enforces and on typical latencies of the remote collaborators.
const (
	// DefaultTimeout is the connection timeout for individual HTTP
	// requests (redirect probe, sitemap fetch, candidate fetch).
	// 30 seconds tolerates slow publisher sites without stalling audits.
	DefaultTimeout = 30 * time.Second

	// DefaultCheckDeadline bounds each of the four concurrent checks.
	// A check exceeding its deadline is recorded as a timeout error for
	// that check only; siblings keep running. 90 seconds covers the
	// slowest path (browser render plus classification round-trips).
	DefaultCheckDeadline = 90 * time.Second

	// DefaultFreshnessMaxRecentDays is the maximum age in days of the
	// newest publication date for a site to count as actively maintained.
	// The bound is inclusive: exactly 30 days still passes.
	// This is business policy, not protocol; override via config file.
	DefaultFreshnessMaxRecentDays = 30

	// DefaultFreshnessMinHistoryDays is the minimum age in days of the
	// oldest publication date for a site to demonstrate history.
	// The bound is inclusive: exactly 95 days still passes.
	// This is business policy, not protocol; override via config file.
	DefaultFreshnessMinHistoryDays = 95

	// DefaultMinPremiumNetworks is the number of distinct premium ad
	// networks that makes a site pass the ad-sufficiency check outright.
	// This is business policy, not protocol; override via config file.
	DefaultMinPremiumNetworks = 2

	// DefaultSimilarityFailThreshold is the per-excerpt similarity score
	// above which an excerpt counts as plagiarized. Scores are
	// intersection-over-union of word sets in [0,1].
	DefaultSimilarityFailThreshold = 0.8

	// DefaultSimilarityReviewThreshold is the score at which an excerpt
	// is flagged for human review without failing outright.
	DefaultSimilarityReviewThreshold = 0.6

	// DefaultMaxExcerpts caps how many paragraphs the similarity check
	// submits to the search collaborator. Excerpts are the longest
	// paragraphs; the cap bounds cost per audit.
	DefaultMaxExcerpts = 3

	// DefaultMinParagraphLength filters out short paragraphs before
	// excerpt selection. Short fragments produce noisy search matches.
	DefaultMinParagraphLength = 120

	// DefaultMaxChunks caps how many content chunks the hate-speech
	// screen submits to the classification collaborator per audit.
	DefaultMaxChunks = 5

	// DefaultChunkSize is the size in bytes of each content chunk
	// submitted for classification.
	DefaultChunkSize = 4096

	// DefaultMaxImages caps how many images the image-safety screen
	// submits to the classification collaborator per audit.
	DefaultMaxImages = 10

	// DefaultBatchSize of 4 concurrent audits balances throughput with
	// the cost of one headless browser per audit.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits response bodies read from publisher
	// sites. 5MB is enough for any HTML page while bounding memory.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies siteaudit in HTTP requests so that
	// publishers can recognize audit traffic in their logs.
	DefaultUserAgent = "siteaudit/1.0 (+https://github.com/siteaudit/siteaudit)"

	// DefaultListenAddr is the bind address for the serve command.
	DefaultListenAddr = ":8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "siteaudit"
)

// Config holds all configuration options for siteaudit.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., RecencyConfig, SimilarityConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Targets is the list of URLs to audit. Each must parse as an
	// absolute HTTP(S) URL; anything else is rejected before the
	// pipeline starts.
	Targets []string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// CheckDeadline bounds each concurrent check independently.
	CheckDeadline time.Duration

	// FreshnessMaxRecentDays is the inclusive upper bound on the age of
	// the newest publication date.
	FreshnessMaxRecentDays int

	// FreshnessMinHistoryDays is the inclusive lower bound on the age of
	// the oldest publication date.
	FreshnessMinHistoryDays int

	// MinPremiumNetworks is the distinct premium-network count that
	// passes the ad-sufficiency check without supporting signals.
	MinPremiumNetworks int

	// SimilarityFailThreshold is the per-excerpt plagiarism cutoff.
	SimilarityFailThreshold float64

	// SimilarityReviewThreshold flags near-threshold excerpts for review.
	SimilarityReviewThreshold float64

	// MaxExcerpts caps excerpts submitted to the search collaborator.
	MaxExcerpts int

	// MinParagraphLength filters paragraphs before excerpt selection.
	MinParagraphLength int

	// MaxChunks caps content chunks submitted for classification.
	MaxChunks int

	// ChunkSize is the size of each classification chunk in bytes.
	ChunkSize int

	// MaxImages caps images submitted to the safety classifier.
	MaxImages int

	// BatchSize is the number of concurrent audits in batch mode.
	BatchSize int

	// MaxBodySize limits response bodies read from publisher sites.
	MaxBodySize int64

	// UserAgent is sent with all HTTP requests.
	UserAgent string

	// ClassifierEndpoint is the base URL of the text/image
	// classification collaborator.
	ClassifierEndpoint string

	// SearchEndpoint is the base URL of the search collaborator used by
	// the similarity check.
	SearchEndpoint string

	// DisableRender skips the headless browser and collects ad-network
	// signals from static markup only. Useful in environments without
	// a Chrome binary; reduces ad-network detection fidelity.
	DisableRender bool

	// ConfigFilePath is the path to the policy configuration file.
	// If empty, the tool searches for .siteaudit in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// Policy holds the banned-term sets, TLD list, network registry and
	// keyword lists, merged from built-in defaults and the config file.
	// Read-only after process start; concurrent audits share it without
	// locking.
	Policy *Policy

	// JSONReport enables JSON report output instead of the terminal
	// summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// terminal summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// DBDir is the directory for the SQLite database. Ignored when
	// PostgresDSN is set.
	DBDir string

	// PostgresDSN selects the Postgres audit store instead of SQLite.
	PostgresDSN string

	// SaveToDB indicates whether audit results are persisted.
	SaveToDB bool

	// ListenAddr is the bind address for the serve command.
	ListenAddr string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults; users override
// specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, thresholds).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:                   DefaultTimeout,
		CheckDeadline:             DefaultCheckDeadline,
		FreshnessMaxRecentDays:    DefaultFreshnessMaxRecentDays,
		FreshnessMinHistoryDays:   DefaultFreshnessMinHistoryDays,
		MinPremiumNetworks:        DefaultMinPremiumNetworks,
		SimilarityFailThreshold:   DefaultSimilarityFailThreshold,
		SimilarityReviewThreshold: DefaultSimilarityReviewThreshold,
		MaxExcerpts:               DefaultMaxExcerpts,
		MinParagraphLength:        DefaultMinParagraphLength,
		MaxChunks:                 DefaultMaxChunks,
		ChunkSize:                 DefaultChunkSize,
		MaxImages:                 DefaultMaxImages,
		BatchSize:                 DefaultBatchSize,
		MaxBodySize:               DefaultMaxBodySize,
		UserAgent:                 DefaultUserAgent,
		ListenAddr:                DefaultListenAddr,
		Policy:                    DefaultPolicy(),
	}
}

// XDGDataDir returns the XDG data directory for siteaudit.
// On Linux: ~/.local/share/siteaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for siteaudit.
// On Linux: ~/.config/siteaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CheckDeadline <= 0 {
		return ErrInvalidDeadline
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.FreshnessMaxRecentDays < 0 || c.FreshnessMinHistoryDays < 0 {
		return ErrInvalidFreshnessBounds
	}
	if c.SimilarityFailThreshold < 0 || c.SimilarityFailThreshold > 1 {
		return ErrInvalidSimilarityThreshold
	}
	if c.MinPremiumNetworks < 1 {
		return ErrInvalidNetworkMinimum
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
