// Package outcome derives the caller-facing verdict from a frozen
// AuditReport: the overall status, a human-readable failure reason, and
// a stable rejection code, plus the persistence commands that record
// the audit.
package outcome
