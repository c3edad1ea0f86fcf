package check

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// maxExampleURLs caps how many example URLs each signal category
// carries into the result details.
const maxExampleURLs = 10

// trackingPixelMaxDim is the inclusive dimension bound for pixel-scale
// images.
const trackingPixelMaxDim = 3

// AdNetworkClassifier classifies the network and image signals
// collected while rendering a page and decides whether the site shows
// sufficient premium ad-partner activity.
type AdNetworkClassifier struct {
	// policy carries the network registry and keyword lists.
	policy *config.Policy

	// minPremiumNetworks is the distinct-network count that passes
	// without supporting signals.
	minPremiumNetworks int

	// logger for structured logging.
	logger *slog.Logger
}

// AdNetworkOption configures an AdNetworkClassifier.
type AdNetworkOption func(*AdNetworkClassifier)

// WithMinPremiumNetworks sets the distinct-network pass threshold.
func WithMinPremiumNetworks(n int) AdNetworkOption {
	return func(c *AdNetworkClassifier) {
		c.minPremiumNetworks = n
	}
}

// WithAdNetworkLogger sets a custom logger.
func WithAdNetworkLogger(logger *slog.Logger) AdNetworkOption {
	return func(c *AdNetworkClassifier) {
		c.logger = logger
	}
}

// NewAdNetworkClassifier creates an AdNetworkClassifier.
func NewAdNetworkClassifier(policy *config.Policy, opts ...AdNetworkOption) *AdNetworkClassifier {
	c := &AdNetworkClassifier{
		policy:             policy,
		minPremiumNetworks: config.DefaultMinPremiumNetworks,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the check name.
func (c *AdNetworkClassifier) Name() string {
	return model.CheckAdNetwork
}

// adSignals is the classified view of one page's signals.
type adSignals struct {
	networks       []string
	trackingPixels []string
	contentImages  []string
	adCreatives    []string
	adElements     []string
}

// Check classifies the collected signals and applies the sufficiency
// decision. The page must have been rendered (or statically scanned)
// before this check runs; without signal data the result is an error,
// not a silent pass.
func (c *AdNetworkClassifier) Check(ctx context.Context, target *Target) *model.CheckResult {
	_ = ctx

	page := target.ContentPage()
	if page == nil {
		return errorResult(model.CheckAdNetwork, "no page signals collected", nil)
	}

	sig := c.classify(page)
	c.logger.Debug("ad signals classified",
		"url", target.URL,
		"networks", len(sig.networks),
		"tracking_pixels", len(sig.trackingPixels),
		"ad_creatives", len(sig.adCreatives),
	)

	result := c.decide(sig)
	return result.
		WithDetail("premium_networks", sig.networks).
		WithDetail("tracking_pixels", firstN(sig.trackingPixels, maxExampleURLs)).
		WithDetail("ad_creatives", firstN(sig.adCreatives, maxExampleURLs)).
		WithDetail("ad_elements", firstN(sig.adElements, maxExampleURLs)).
		WithDetail("content_images", len(sig.contentImages))
}

// classify buckets every request and image into the signal categories.
func (c *AdNetworkClassifier) classify(page *model.Page) adSignals {
	var sig adSignals

	// Premium networks: each network counted at most once, first
	// matching request wins.
	seen := make(map[string]bool)
	for _, req := range page.Requests {
		lower := strings.ToLower(req.URL)
		for _, net := range c.policy.PremiumNetworks {
			if seen[net.Name] {
				continue
			}
			if matchesAny(lower, net.Patterns) {
				seen[net.Name] = true
				sig.networks = append(sig.networks, net.Name)
			}
		}
		if isAdElement(lower, c.policy.AdKeywords) {
			sig.adElements = append(sig.adElements, req.URL)
		}
	}

	// Images: tracking pixel wins over content, content over creative.
	for _, img := range page.Images {
		lower := strings.ToLower(img.URL)
		switch {
		case c.isTrackingPixel(img, lower):
			sig.trackingPixels = append(sig.trackingPixels, img.URL)
		case c.isContentImage(img, lower):
			sig.contentImages = append(sig.contentImages, img.URL)
		case c.isAdCreative(img, lower):
			sig.adCreatives = append(sig.adCreatives, img.URL)
		}
	}
	return sig
}

// isTrackingPixel applies the pixel heuristics: pixel-scale size,
// hidden rendering, a known tracking domain, or a beacon-style keyword.
func (c *AdNetworkClassifier) isTrackingPixel(img model.ImageElement, lowerURL string) bool {
	if pixelScale(img.NaturalWidth, img.NaturalHeight) || pixelScale(img.RenderedWidth, img.RenderedHeight) {
		return true
	}
	if img.Hidden {
		return true
	}
	if matchesAny(lowerURL, c.policy.TrackingDomains) {
		return true
	}
	return matchesAny(lowerURL, c.policy.TrackingKeywords)
}

// isContentImage recognizes images inside content containers or with
// content-style URLs.
func (c *AdNetworkClassifier) isContentImage(img model.ImageElement, lowerURL string) bool {
	if img.AncestorHint == model.HintContent {
		return true
	}
	return matchesAny(lowerURL, c.policy.ContentKeywords)
}

// isAdCreative recognizes images inside ad containers or with ad-style
// URLs.
func (c *AdNetworkClassifier) isAdCreative(img model.ImageElement, lowerURL string) bool {
	if img.AncestorHint == model.HintAd {
		return true
	}
	return matchesAny(lowerURL, c.policy.AdKeywords)
}

// decide applies the sufficiency ladder over the classified signals.
func (c *AdNetworkClassifier) decide(sig adSignals) *model.CheckResult {
	networks := len(sig.networks)
	supporting := len(sig.trackingPixels) > 0 || len(sig.adCreatives) > 0
	anySignal := supporting || len(sig.adElements) > 0

	switch {
	case networks >= c.minPremiumNetworks:
		return model.NewCheckResult(model.CheckAdNetwork, model.StatusPass, "").
			WithDetail("decision", fmt.Sprintf("%d premium networks detected", networks))
	case networks == 1 && supporting:
		return model.NewCheckResult(model.CheckAdNetwork, model.StatusPass, "").
			WithDetail("decision", "1 premium network with supporting ad signals")
	case networks == 1:
		return model.NewCheckResult(model.CheckAdNetwork, model.StatusFail, "limited premium networks")
	case anySignal:
		return model.NewCheckResult(model.CheckAdNetwork, model.StatusFail, "ad activity without premium networks")
	default:
		return model.NewCheckResult(model.CheckAdNetwork, model.StatusFail, "no ad activity detected")
	}
}

// pixelScale reports whether both dimensions are within tracking-pixel
// bounds. Unmeasured (zero) dimensions do not count as pixel scale on
// their own.
func pixelScale(w, h int) bool {
	return w > 0 && h > 0 && w <= trackingPixelMaxDim && h <= trackingPixelMaxDim
}

// matchesAny reports whether s contains any of the patterns.
func matchesAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// isAdElement reports whether a non-image request looks ad-related.
func isAdElement(lowerURL string, keywords []string) bool {
	return matchesAny(lowerURL, keywords)
}

// firstN returns at most n elements, never nil.
func firstN(s []string, n int) []string {
	if s == nil {
		return []string{}
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
