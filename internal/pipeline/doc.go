// Package pipeline orchestrates the audit checks against a single URL.
//
// An audit runs as a fixed state machine: the policy filter and the
// redirect probe run serially and can short-circuit the whole audit,
// the recency evaluation always records its result, and the remaining
// checks run concurrently under independent deadlines. The orchestrator
// merges every outcome into one AuditReport and freezes it before
// handing it to the outcome mapper.
package pipeline
