// Package fetch retrieves publisher pages for auditing.
//
// Two fetchers are provided. HTTPFetcher issues a plain GET through a
// retrying HTTP client and extracts visible text from the markup; it is
// cheap and used by the text-oriented checks. ChromeFetcher drives a
// headless browser, waits for the network to settle, scrolls to trigger
// lazy content, and collects the network requests and rendered image
// elements the ad-network classification needs.
//
// Both produce a model.Page so checks do not care which fetcher fed them.
package fetch
