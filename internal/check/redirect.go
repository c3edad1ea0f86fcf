package check

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/siteaudit/siteaudit/internal/model"
)

// RedirectInspector issues a single no-follow probe against the URL and
// classifies the response. Cross-domain redirects fail the audit: a
// submission that immediately bounces visitors to another property is
// not the site that was reviewed.
type RedirectInspector struct {
	// client is a probe client with redirect following disabled.
	client *http.Client

	// userAgent is sent with the probe.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// RedirectInspectorOption configures a RedirectInspector.
type RedirectInspectorOption func(*RedirectInspector)

// WithProbeTimeout bounds the probe request.
func WithProbeTimeout(d time.Duration) RedirectInspectorOption {
	return func(i *RedirectInspector) {
		i.client.Timeout = d
	}
}

// WithProbeUserAgent sets the probe User-Agent header.
func WithProbeUserAgent(ua string) RedirectInspectorOption {
	return func(i *RedirectInspector) {
		i.userAgent = ua
	}
}

// WithRedirectLogger sets a custom logger.
func WithRedirectLogger(logger *slog.Logger) RedirectInspectorOption {
	return func(i *RedirectInspector) {
		i.logger = logger
	}
}

// NewRedirectInspector creates a RedirectInspector.
func NewRedirectInspector(opts ...RedirectInspectorOption) *RedirectInspector {
	i := &RedirectInspector{
		client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				// Never follow; we classify the first response.
				return http.ErrUseLastResponse
			},
		},
		userAgent: "siteaudit/1.0",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name returns the check name.
func (i *RedirectInspector) Name() string {
	return model.CheckRedirect
}

// Check probes the target URL once.
//
// A [300,400) status is inspected: no Location header means review, a
// Location on a different hostname is a fail, the same hostname is a
// pass. Any non-redirect status is a pass. A network-level failure is
// reported as an error result — it must not silently become a pass.
func (i *RedirectInspector) Check(ctx context.Context, target *Target) *model.CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.URL, nil)
	if err != nil {
		return errorResult(model.CheckRedirect, "probe failed", err)
	}
	req.Header.Set("User-Agent", i.userAgent)

	resp, err := i.client.Do(req)
	if err != nil {
		// Some servers reject HEAD outright; retry as GET before
		// declaring the probe failed.
		resp, err = i.probeGet(ctx, target.URL)
		if err != nil {
			return errorResult(model.CheckRedirect, "probe failed", err)
		}
	}
	defer resp.Body.Close() //nolint:errcheck // probe response body is unused

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return model.NewCheckResult(model.CheckRedirect, model.StatusReview, "redirect without destination").
			WithDetail("status_code", resp.StatusCode)
	}

	dest, err := resolveLocation(target, location)
	if err != nil {
		return model.NewCheckResult(model.CheckRedirect, model.StatusReview, "redirect without destination").
			WithDetail("status_code", resp.StatusCode).
			WithDetail("location", location)
	}

	if !strings.EqualFold(dest.Hostname(), hostnameOf(target)) {
		return model.NewCheckResult(model.CheckRedirect, model.StatusFail, "external redirect").
			WithDetail("destination", dest.String()).
			WithDetail("status_code", resp.StatusCode)
	}

	// Same-domain redirect (http->https, trailing slash) is fine.
	i.logger.Debug("same-domain redirect", "url", target.URL, "destination", dest.String())
	return nil
}

// probeGet issues the fallback GET probe.
func (i *RedirectInspector) probeGet(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", i.userAgent)
	return i.client.Do(req)
}

// resolveLocation resolves a possibly relative Location header against
// the original URL.
func resolveLocation(target *Target, location string) (*url.URL, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	base := target.Parsed
	if base == nil {
		base, err = url.Parse(target.URL)
		if err != nil {
			return nil, err
		}
	}
	return base.ResolveReference(loc), nil
}

// hostnameOf returns the target's hostname.
func hostnameOf(target *Target) string {
	if target.Parsed != nil {
		return target.Parsed.Hostname()
	}
	u, err := url.Parse(target.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
