// Package log provides logging utilities for siteaudit, built on top of
// the standard slog package.
//
// Audits drag large payloads through the code: page snapshots, extracted
// paragraphs, per-excerpt evidence. Logging those verbatim makes debug
// output unreadable and can balloon log storage. The TruncatingHandler
// caps oversized string attributes before they reach the underlying
// handler, so verbose logging stays usable.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("excerpt selected",
//	    "text", excerpt, // truncated if oversized
//	    "len", len(excerpt),
//	)
//	slog.SetDefault(logger)
package log
