package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/siteaudit/siteaudit/internal/model"
)

// Fetcher retrieves a page for auditing.
// Implementations must honor context cancellation and bound the amount
// of body data they read.
type Fetcher interface {
	// Fetch retrieves the page at url. A non-2xx status is not an
	// error; the status code is recorded on the returned page so
	// checks can decide what it means for them.
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// HTTPFetcher fetches pages with a retrying HTTP client and extracts
// visible text from the markup. It does not execute scripts; checks
// that need rendered output use the ChromeFetcher instead.
type HTTPFetcher struct {
	// client is the underlying retrying client.
	client *retryablehttp.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client.HTTPClient.Timeout = d
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
//
// Design decision: We use hashicorp/go-retryablehttp rather than a bare
// http.Client because sitemap and page fetches against arbitrary
// publisher infrastructure fail transiently often enough that a small
// retry budget meaningfully reduces spurious error results.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil // we log at the call sites instead

	f := &HTTPFetcher{
		client:      client,
		userAgent:   "siteaudit/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the page at url and extracts its visible text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*model.Page, error) {
	body, resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	page := &model.Page{
		URL:        url,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		HTML:       body,
	}
	page.Text = ExtractText(body)
	return page, nil
}

// FetchRaw retrieves the raw body at url without HTML processing.
// Used for sitemap XML and similar non-HTML resources.
func (f *HTTPFetcher) FetchRaw(ctx context.Context, url string) (string, int, error) {
	body, resp, err := f.get(ctx, url)
	if err != nil {
		return "", 0, err
	}
	return body, resp.StatusCode, nil
}

// get performs the request and reads a bounded body.
func (f *HTTPFetcher) get(ctx context.Context, url string) (string, *http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", "url", url, "error", cerr)
		}
	}()

	limited := io.LimitReader(resp.Body, f.maxBodySize)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return string(data), resp, nil
}

// ExtractText returns the visible text of an HTML document. Script,
// style, and template contents are skipped. Block-level boundaries are
// rendered as paragraph breaks so downstream paragraph splitting works
// on the result.
func ExtractText(htmlSrc string) string {
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		// Parsing is best effort; a page we cannot parse contributes
		// no text rather than an error.
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			sb.WriteString("\n\n")
		}
	}
	walk(doc)

	return collapseBlankLines(sb.String())
}

// isBlockElement reports whether closing the element should end a
// paragraph in the extracted text.
func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "br",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "tr":
		return true
	}
	return false
}

// collapseBlankLines squeezes runs of blank lines down to one paragraph
// break and trims trailing space on each line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
