package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// AuditDB provides SQLite-based storage for audit verdicts.
//
// Design decision: one database file for all audited sites rather than
// a file per site. It keeps history queries and backup trivial, and the
// write volume (one audit row plus a handful of check rows per run) is
// nowhere near SQLite's limits.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB at the specified directory.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, "siteaudit.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	-- Audits store one row per audit run with the full report as JSON
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status TEXT NOT NULL,
		failure_reason TEXT,
		rejection_code TEXT,
		timed_out INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url);
	CREATE INDEX IF NOT EXISTS idx_audits_site ON audits(site);
	CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);

	-- Per-check results, one row per check per audit
	CREATE TABLE IF NOT EXISTS check_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL,
		check_name TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		details TEXT,
		UNIQUE(audit_id, check_name)
	);

	CREATE INDEX IF NOT EXISTS idx_results_audit ON check_results(audit_id);
	CREATE INDEX IF NOT EXISTS idx_results_check ON check_results(check_name);

	-- Current approval state per site, updated by every audit
	CREATE TABLE IF NOT EXISTS site_approvals (
		site TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		rejection_code TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertAudit records the audit-level verdict with the full report
// serialized alongside for later inspection.
func (adb *AuditDB) InsertAudit(ctx context.Context, report *model.AuditReport, verdict *outcome.Verdict) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO audits (id, url, site, timestamp, status, failure_reason, rejection_code, timed_out, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = adb.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		siteKey(report.URL),
		report.Timestamp.UTC().Format(time.RFC3339),
		verdict.Status.String(),
		verdict.FailureReason,
		verdict.RejectionCode,
		boolToInt(report.TimedOut),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}
	return nil
}

// UpsertCheckResults records the per-check outcomes for an audit.
// Re-running persistence for the same audit overwrites cleanly.
func (adb *AuditDB) UpsertCheckResults(ctx context.Context, auditID string, results []*model.CheckResult) error {
	query := `
	INSERT INTO check_results (audit_id, check_name, status, reason, details)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(audit_id, check_name) DO UPDATE SET
		status = excluded.status,
		reason = excluded.reason,
		details = excluded.details
	`

	for _, res := range results {
		detailsJSON, err := json.Marshal(res.Details)
		if err != nil {
			return fmt.Errorf("failed to serialize details for %s: %w", res.Check, err)
		}
		if _, err := adb.db.ExecContext(ctx, query,
			auditID,
			res.Check,
			res.Status.String(),
			res.Reason,
			string(detailsJSON),
		); err != nil {
			return fmt.Errorf("failed to upsert check result %s: %w", res.Check, err)
		}
	}
	return nil
}

// UpdateSiteApproval transitions the site's approval state.
func (adb *AuditDB) UpdateSiteApproval(ctx context.Context, site string, status model.Status, rejectionCode string) error {
	query := `
	INSERT INTO site_approvals (site, status, rejection_code, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(site) DO UPDATE SET
		status = excluded.status,
		rejection_code = excluded.rejection_code,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := adb.db.ExecContext(ctx, query, site, status.String(), rejectionCode); err != nil {
		return fmt.Errorf("failed to update site approval: %w", err)
	}
	return nil
}

// GetLatestAudit retrieves the most recent audit report for a URL.
// Returns nil without error when the URL was never audited.
func (adb *AuditDB) GetLatestAudit(ctx context.Context, url string) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audits
	WHERE url = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, url).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest audit: %w", err)
	}

	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored report: %w", err)
	}
	return &report, nil
}

// AuditSummary is one row of audit history.
type AuditSummary struct {
	ID            string
	URL           string
	Timestamp     time.Time
	Status        string
	FailureReason string
	RejectionCode string
}

// GetAuditHistory retrieves the audit summaries for a site, newest
// first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, site string) ([]AuditSummary, error) {
	query := `
	SELECT id, url, timestamp, status, failure_reason, rejection_code
	FROM audits
	WHERE site = ?
	ORDER BY timestamp DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var history []AuditSummary
	for rows.Next() {
		var (
			s  AuditSummary
			ts string
		)
		if err := rows.Scan(&s.ID, &s.URL, &ts, &s.Status, &s.FailureReason, &s.RejectionCode); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		s.Timestamp = parseTimestamp(ts)
		history = append(history, s)
	}
	return history, rows.Err()
}

// ListAuditedSites returns every site with at least one stored audit.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT site FROM audits ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audited sites: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// GetSiteApproval returns the site's current approval state, or empty
// strings when the site is unknown.
func (adb *AuditDB) GetSiteApproval(ctx context.Context, site string) (status, rejectionCode string, err error) {
	query := `SELECT status, rejection_code FROM site_approvals WHERE site = ?`
	err = adb.db.QueryRowContext(ctx, query, site).Scan(&status, &rejectionCode)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to get site approval: %w", err)
	}
	return status, rejectionCode, nil
}

// timestampFormats lists the layouts SQLite may hand back depending on
// how the value was written.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseTimestamp parses a stored timestamp, returning the zero time
// when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
