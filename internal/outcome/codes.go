package outcome

import "strings"

// Rejection codes surfaced to publishers. These are part of the
// external contract: dashboards and support workflows key on them, so
// they must stay stable across releases.
const (
	// CodeBannedContent covers banned-term and banned-TLD matches.
	CodeBannedContent = "R101"

	// CodeExternalRedirect covers cross-domain redirects.
	CodeExternalRedirect = "R102"

	// CodeContentFreshness covers every recency failure mode.
	CodeContentFreshness = "R103"

	// CodeUnsafeContent covers hate-speech and image-safety findings.
	CodeUnsafeContent = "R104"

	// CodePlagiarism covers similarity-threshold failures.
	CodePlagiarism = "R105"

	// CodeManualReview covers ad-sufficiency failures; these sites need
	// a human look rather than an automated verdict.
	CodeManualReview = "R201"

	// CodeTechnical is the fallback for timeouts, technical errors, and
	// any reason no table entry matches.
	CodeTechnical = "R500"
)

// codeEntry binds one canonical reason key to its code.
type codeEntry struct {
	key  string
	code string
}

// CodeTable maps failure reasons to rejection codes. It is built once
// at process start and never mutated, so concurrent lookups need no
// locking.
//
// Design decision: an ordered association list instead of a map.
// Lookup falls back to substring matching, and a reason containing two
// registered keys must resolve the same way on every run; declaration
// order decides, not hash order.
type CodeTable struct {
	entries  []codeEntry
	fallback string
}

// NewCodeTable builds the standard table.
func NewCodeTable() *CodeTable {
	return &CodeTable{
		entries: []codeEntry{
			{key: "banned term", code: CodeBannedContent},
			{key: "banned TLD", code: CodeBannedContent},
			{key: "external redirect", code: CodeExternalRedirect},
			{key: "too new", code: CodeContentFreshness},
			{key: "lacks history", code: CodeContentFreshness},
			{key: "no dates found", code: CodeContentFreshness},
			{key: "hate speech detected", code: CodeUnsafeContent},
			{key: "inappropriate image content", code: CodeUnsafeContent},
			{key: "similarity threshold", code: CodePlagiarism},
			{key: "limited premium networks", code: CodeManualReview},
			{key: "ad activity without premium networks", code: CodeManualReview},
			{key: "no ad activity detected", code: CodeManualReview},
		},
		fallback: CodeTechnical,
	}
}

// Lookup resolves a failure reason to its rejection code: exact match
// first, then the first entry whose key is a substring of the reason,
// then the fallback. The function is pure; the same reason always
// yields the same code.
func (t *CodeTable) Lookup(reason string) string {
	for _, e := range t.entries {
		if e.key == reason {
			return e.code
		}
	}
	for _, e := range t.entries {
		if strings.Contains(reason, e.key) {
			return e.code
		}
	}
	return t.fallback
}
