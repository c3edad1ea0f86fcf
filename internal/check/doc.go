// Package check implements the individual compliance checks that make
// up a publisher audit: the lexical policy filter, the redirect probe,
// the content recency evaluation, the plagiarism similarity check, the
// hate-speech screen, the image-safety screen, and the ad-network
// sufficiency classification.
//
// Each check is self-contained and produces a model.CheckResult; a nil
// result is an implicit pass. Checks never panic on collaborator
// failure: anything that prevents a check from completing is recovered
// into a result with StatusError so sibling checks and the audit as a
// whole proceed.
package check
