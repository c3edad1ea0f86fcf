package outcome

import (
	"context"
	"log/slog"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Store applies the persistence commands the mapper emits. Implemented
// by the database package; tests substitute fakes.
type Store interface {
	// InsertAudit records the audit-level verdict.
	InsertAudit(ctx context.Context, report *model.AuditReport, verdict *Verdict) error

	// UpsertCheckResults records the per-check outcomes for an audit.
	UpsertCheckResults(ctx context.Context, auditID string, results []*model.CheckResult) error

	// UpdateSiteApproval transitions the site's approval state. The
	// rejection code is embedded on failure.
	UpdateSiteApproval(ctx context.Context, site string, status model.Status, rejectionCode string) error
}

// Verdict is the caller-facing summary of one audit.
type Verdict struct {
	// Status is the overall audit status.
	Status model.Status `json:"status"`

	// FailureReason is the first failing check's reason, empty on pass.
	FailureReason string `json:"failure_reason,omitempty"`

	// RejectionCode is the stable code for FailureReason, empty on pass.
	RejectionCode string `json:"rejection_code,omitempty"`

	// FailedCheck names the check the reason came from.
	FailedCheck string `json:"failed_check,omitempty"`

	// Stored reports whether the persistence commands applied. A false
	// value never changes the verdict itself.
	Stored bool `json:"stored"`
}

// Mapper derives verdicts from frozen reports and emits the
// persistence commands that record them.
type Mapper struct {
	// table resolves failure reasons to rejection codes.
	table *CodeTable

	// store applies persistence commands. Nil disables persistence.
	store Store

	// logger for structured logging.
	logger *slog.Logger
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithStore enables persistence of mapped verdicts.
func WithStore(store Store) MapperOption {
	return func(m *Mapper) {
		m.store = store
	}
}

// WithMapperLogger sets a custom logger.
func WithMapperLogger(logger *slog.Logger) MapperOption {
	return func(m *Mapper) {
		m.logger = logger
	}
}

// NewMapper creates a Mapper over the given code table. A nil table
// gets the standard one.
func NewMapper(table *CodeTable, opts ...MapperOption) *Mapper {
	m := &Mapper{
		table:  table,
		logger: slog.Default(),
	}
	if m.table == nil {
		m.table = NewCodeTable()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map derives the verdict from a frozen report. The failure reason
// comes from the first recorded result whose status matches the overall
// status, so the reported reason is the one that decided the audit.
func (m *Mapper) Map(report *model.AuditReport) *Verdict {
	v := &Verdict{Status: report.OverallStatus}
	if v.Status == model.StatusPass {
		return v
	}

	for _, res := range report.Results() {
		if res.Status != v.Status {
			continue
		}
		v.FailureReason = res.Reason
		v.FailedCheck = res.Check
		break
	}
	if v.Status == model.StatusFail || v.Status == model.StatusError {
		v.RejectionCode = m.table.Lookup(v.FailureReason)
	}
	return v
}

// Persist applies the persistence commands for a mapped verdict and
// sets v.Stored. Persistence failures are logged and reported through
// Stored; they never retract the already-computed verdict.
func (m *Mapper) Persist(ctx context.Context, report *model.AuditReport, v *Verdict) {
	if m.store == nil {
		return
	}

	if err := m.store.InsertAudit(ctx, report, v); err != nil {
		m.logger.Error("audit insert failed", "url", report.URL, "error", err)
		return
	}
	if err := m.store.UpsertCheckResults(ctx, report.ID, report.Results()); err != nil {
		m.logger.Error("check result upsert failed", "audit", report.ID, "error", err)
		return
	}
	site := siteOf(report.URL)
	if err := m.store.UpdateSiteApproval(ctx, site, v.Status, v.RejectionCode); err != nil {
		m.logger.Error("site approval update failed", "site", site, "error", err)
		return
	}
	v.Stored = true
}
