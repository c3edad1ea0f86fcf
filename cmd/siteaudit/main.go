// Package main provides the entry point for the siteaudit CLI.
//
// Siteaudit evaluates publisher sites for ad-network acceptance. It
// runs a fixed set of compliance checks (content policy, redirects,
// content freshness, plagiarism, hate speech, image safety, ad-partner
// activity) and produces an audit report with a stable rejection code
// on failure.
//
// Usage:
//
//	siteaudit audit <url>
//	siteaudit serve --listen :8080
//
// See --help for all available options.
package main

// main is the entry point for siteaudit.
func main() {
	Execute()
}
