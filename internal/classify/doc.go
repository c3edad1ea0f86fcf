// Package classify wraps the remote classification and search
// collaborators the audit checks delegate to.
//
// The collaborators are black boxes with latency and failure modes of
// their own: a text analyzer returning sentiment, entity, and category
// judgments; an image annotator returning safe-search likelihoods; and
// a search service returning candidate matching pages. This package
// defines small interfaces for each so checks can be tested against
// fakes, plus one HTTP client implementing all three against
// JSON-over-HTTP endpoints.
package classify
