package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/siteaudit/siteaudit/internal/model"
	"github.com/siteaudit/siteaudit/internal/outcome"
)

// PostgresDB provides PostgreSQL-backed storage for audit verdicts,
// used by the shared service deployment where multiple audit workers
// write concurrently.
type PostgresDB struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL with the given DSN and ensures
// the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresDB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	pdb := &PostgresDB{db: db}
	if err := pdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return pdb, nil
}

// Close closes the connection pool.
func (pdb *PostgresDB) Close() error {
	return pdb.db.Close()
}

// createTables creates the schema if it doesn't exist. JSONB columns
// keep the stored details queryable from reporting tools.
func (pdb *PostgresDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL,
		failure_reason TEXT,
		rejection_code TEXT,
		timed_out BOOLEAN NOT NULL DEFAULT false,
		report JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_site ON audits(site);
	CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);

	CREATE TABLE IF NOT EXISTS check_results (
		audit_id UUID NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		check_name TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		details JSONB,
		PRIMARY KEY (audit_id, check_name)
	);

	CREATE TABLE IF NOT EXISTS site_approvals (
		site TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		rejection_code TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := pdb.db.ExecContext(ctx, schema)
	return err
}

// InsertAudit records the audit-level verdict.
func (pdb *PostgresDB) InsertAudit(ctx context.Context, report *model.AuditReport, verdict *outcome.Verdict) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO audits (id, url, site, timestamp, status, failure_reason, rejection_code, timed_out, report)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = pdb.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		siteKey(report.URL),
		report.Timestamp,
		verdict.Status.String(),
		verdict.FailureReason,
		verdict.RejectionCode,
		report.TimedOut,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}
	return nil
}

// UpsertCheckResults records the per-check outcomes for an audit.
func (pdb *PostgresDB) UpsertCheckResults(ctx context.Context, auditID string, results []*model.CheckResult) error {
	query := `
	INSERT INTO check_results (audit_id, check_name, status, reason, details)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (audit_id, check_name) DO UPDATE SET
		status = excluded.status,
		reason = excluded.reason,
		details = excluded.details
	`

	for _, res := range results {
		detailsJSON, err := json.Marshal(res.Details)
		if err != nil {
			return fmt.Errorf("failed to serialize details for %s: %w", res.Check, err)
		}
		if _, err := pdb.db.ExecContext(ctx, query,
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
func (pdb *PostgresDB) UpdateSiteApproval(ctx context.Context, site string, status model.Status, rejectionCode string) error {
	query := `
	INSERT INTO site_approvals (site, status, rejection_code, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (site) DO UPDATE SET
		status = excluded.status,
		rejection_code = excluded.rejection_code,
		updated_at = now()
	`
	if _, err := pdb.db.ExecContext(ctx, query, site, status.String(), rejectionCode); err != nil {
		return fmt.Errorf("failed to update site approval: %w", err)
	}
	return nil
}

// GetAuditHistory retrieves the audit summaries for a site, newest
// first.
func (pdb *PostgresDB) GetAuditHistory(ctx context.Context, site string) ([]AuditSummary, error) {
	query := `
	SELECT id, url, timestamp, status, COALESCE(failure_reason, ''), COALESCE(rejection_code, '')
	FROM audits
	WHERE site = $1
	ORDER BY timestamp DESC
	`

	rows, err := pdb.db.QueryContext(ctx, query, site)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var history []AuditSummary
	for rows.Next() {
		var s AuditSummary
		if err := rows.Scan(&s.ID, &s.URL, &s.Timestamp, &s.Status, &s.FailureReason, &s.RejectionCode); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}
