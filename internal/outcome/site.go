package outcome

import "net/url"

// siteOf reduces an audited URL to its site identity (the hostname).
// Approval state is tracked per site, not per page.
func siteOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
