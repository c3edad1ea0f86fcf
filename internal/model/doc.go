// Package model defines the core data structures used throughout siteaudit.
//
// This package contains the following main types:
//   - AuditReport: The aggregate result of one audit run against a URL
//   - CheckResult: The outcome of a single named compliance check
//   - Status: The four-valued check outcome (pass, review, error, fail)
//   - Page: A fetched page with extracted text and collected signals
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (fetch, check, pipeline, outcome, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
