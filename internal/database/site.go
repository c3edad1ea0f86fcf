package database

import "net/url"

// siteKey reduces an audited URL to its hostname for site-level
// grouping. Unparseable URLs fall back to the raw string so nothing is
// silently dropped.
func siteKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
