package config

// TermCategory is a named set of banned terms.
// Categories are checked in declaration order; within a category the
// hostname is checked before the path, before the full URL.
type TermCategory struct {
	// Name identifies the category in failure reasons ("adult_content",
	// "gambling", ...).
	Name string `yaml:"name"`

	// Terms are lowercase substrings matched against the lowercased
	// hostname, path, and full URL.
	Terms []string `yaml:"terms"`
}

// Policy bundles every curated list the checks consume. A single Policy
// is built at process start (defaults merged with the config file) and
// shared read-only by all concurrent audits, so no locking is needed.
type Policy struct {
	// BannedTLDs are top-level domains that fail the policy filter
	// outright. The TLD is the last label of the hostname. Checked
	// before the term categories.
	BannedTLDs []string `yaml:"bannedTLDs"`

	// BannedTerms are the term categories in evaluation order.
	BannedTerms []TermCategory `yaml:"bannedTerms"`

	// HatePhrases are phrases whose literal presence in page content
	// fails the hate-speech screen immediately, skipping the remote
	// classification step.
	HatePhrases []string `yaml:"hatePhrases"`

	// PremiumNetworks maps network names to URL substrings that
	// identify requests to that network. Each network counts at most
	// once per audit.
	PremiumNetworks []NetworkPattern `yaml:"premiumNetworks"`

	// TrackingDomains are analytics/measurement domains; an image
	// loaded from one is a tracking pixel regardless of size.
	TrackingDomains []string `yaml:"trackingDomains"`

	// TrackingKeywords are impression/beacon style URL fragments that
	// mark an image as a tracking pixel.
	TrackingKeywords []string `yaml:"trackingKeywords"`

	// ContentKeywords are path/domain fragments that mark an image as
	// editorial content when container ancestry is inconclusive.
	ContentKeywords []string `yaml:"contentKeywords"`

	// AdKeywords are path fragments that mark an image as an ad
	// creative when container ancestry is inconclusive.
	AdKeywords []string `yaml:"adKeywords"`

	// PrimarySitemaps are the site-relative sitemap locations queried
	// first by the recency evaluation.
	PrimarySitemaps []string `yaml:"primarySitemaps"`

	// FallbackSitemaps are alternate sitemap locations queried when the
	// primary set alone does not satisfy the freshness rule.
	FallbackSitemaps []string `yaml:"fallbackSitemaps"`

	// AuxiliaryPaths are page guesses probed for dates as a last
	// resort before declaring that no dates were found.
	AuxiliaryPaths []string `yaml:"auxiliaryPaths"`
}

// NetworkPattern identifies one premium ad network by URL substrings.
type NetworkPattern struct {
	// Name is the network's display name ("Google AdSense").
	Name string `yaml:"name"`

	// Patterns are URL substrings; any match attributes a request to
	// this network.
	Patterns []string `yaml:"patterns"`
}

// DefaultPolicy returns the built-in curated lists.
// These are starting points, not a complete taxonomy; deployments extend
// them via the .siteaudit config file.
func DefaultPolicy() *Policy {
	return &Policy{
		BannedTLDs: []string{
			"xxx", "adult", "porn", "sex", "casino", "bet", "poker",
		},
		BannedTerms: []TermCategory{
			{
				Name: "adult_content",
				Terms: []string{
					"porn", "xxx", "hentai", "escort", "camgirl",
					"nude", "erotic", "fetish",
				},
			},
			{
				Name: "gambling",
				Terms: []string{
					"casino", "roulette", "slot-machine", "sportsbook",
					"betting", "jackpot", "poker",
				},
			},
			{
				Name: "substances",
				Terms: []string{
					"buy-steroids", "cannabis-shop", "darknet-market",
					"research-chemicals", "vape-wholesale",
				},
			},
			{
				Name: "weapons",
				Terms: []string{
					"gun-sale", "firearms-shop", "ammo-store",
					"weapon-deals",
				},
			},
			{
				Name: "counterfeit",
				Terms: []string{
					"replica-watches", "fake-id", "counterfeit",
					"knockoff", "cracked-software", "warez",
				},
			},
		},
		HatePhrases: []string{
			// Deliberately mild proxies for the production list, which
			// is distributed out of band and loaded via the config file.
			"gas the", "subhuman filth", "racial purity", "ethnic cleansing",
			"kill all ", "exterminate the",
		},
		PremiumNetworks: []NetworkPattern{
			{Name: "Google AdSense", Patterns: []string{"googlesyndication.com", "adsbygoogle"}},
			{Name: "Google Ad Manager", Patterns: []string{"doubleclick.net", "googletagservices.com"}},
			{Name: "Amazon Publisher Services", Patterns: []string{"amazon-adsystem.com"}},
			{Name: "Media.net", Patterns: []string{"media.net", "medianet.com"}},
			{Name: "Taboola", Patterns: []string{"taboola.com"}},
			{Name: "Outbrain", Patterns: []string{"outbrain.com"}},
			{Name: "Criteo", Patterns: []string{"criteo.com", "criteo.net"}},
			{Name: "PubMatic", Patterns: []string{"pubmatic.com"}},
			{Name: "Magnite", Patterns: []string{"rubiconproject.com", "magnite.com"}},
			{Name: "Index Exchange", Patterns: []string{"casalemedia.com", "indexexchange.com"}},
			{Name: "OpenX", Patterns: []string{"openx.net", "openx.com"}},
			{Name: "AppNexus", Patterns: []string{"adnxs.com"}},
			{Name: "Sovrn", Patterns: []string{"sovrn.com", "lijit.com"}},
			{Name: "TripleLift", Patterns: []string{"3lift.com", "triplelift.com"}},
			{Name: "Ezoic", Patterns: []string{"ezoic.net", "ezojs.com"}},
			{Name: "Mediavine", Patterns: []string{"mediavine.com"}},
			{Name: "Raptive", Patterns: []string{"adthrive.com", "raptive.com"}},
		},
		TrackingDomains: []string{
			"google-analytics.com", "googletagmanager.com",
			"facebook.com/tr", "connect.facebook.net",
			"scorecardresearch.com", "quantserve.com",
			"stats.wp.com", "pixel.wp.com", "hotjar.com",
			"clarity.ms", "matomo", "segment.io", "mixpanel.com",
		},
		TrackingKeywords: []string{
			"pixel", "beacon", "impression", "track", "collect",
			"1x1", "spacer", "bug.gif",
		},
		ContentKeywords: []string{
			"/wp-content/uploads/", "/images/", "/media/", "/photos/",
			"/assets/img", "cdn.", "/content/",
		},
		AdKeywords: []string{
			"/ads/", "/adserver/", "/banners/", "ad-creative",
			"sponsored", "promo/", "/creatives/",
		},
		PrimarySitemaps: []string{
			"/sitemap.xml", "/sitemap_index.xml",
		},
		FallbackSitemaps: []string{
			"/sitemap-index.xml", "/sitemap1.xml", "/post-sitemap.xml",
			"/page-sitemap.xml", "/sitemap/sitemap.xml", "/wp-sitemap.xml",
			"/news-sitemap.xml",
		},
		AuxiliaryPaths: []string{
			"/blog", "/news", "/archive", "/archives", "/about",
			"/about-us", "/privacy-policy", "/terms",
		},
	}
}
