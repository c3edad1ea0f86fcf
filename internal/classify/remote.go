package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// maxResponseSize bounds collaborator responses. Classification results
// are small; anything beyond 1MB indicates a misbehaving endpoint.
const maxResponseSize = 1 << 20

// RemoteClient talks JSON-over-HTTP to the classification and search
// collaborators. It implements TextAnalyzer, ImageAnnotator, and
// Searcher.
//
// Design decision: Responses are read with gjson path lookups rather
// than struct unmarshaling because the collaborators are external
// services whose envelopes drift; pulling only the fields we need keeps
// us insulated from additive changes.
type RemoteClient struct {
	// client is the retrying HTTP client.
	client *retryablehttp.Client

	// classifierBase is the base URL of the classification service.
	classifierBase string

	// searchBase is the base URL of the search service.
	searchBase string
}

// RemoteClientOption configures a RemoteClient.
type RemoteClientOption func(*RemoteClient)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) RemoteClientOption {
	return func(c *RemoteClient) {
		c.client.HTTPClient.Timeout = d
	}
}

// NewRemoteClient creates a client for the given collaborator base URLs.
// Either base may be empty if the corresponding capability is unused.
func NewRemoteClient(classifierBase, searchBase string, opts ...RemoteClientOption) *RemoteClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	c := &RemoteClient{
		client:         client,
		classifierBase: classifierBase,
		searchBase:     searchBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeText classifies one chunk of content.
func (c *RemoteClient) AnalyzeText(ctx context.Context, text string) (*TextAnalysis, error) {
	body, err := c.post(ctx, c.classifierBase+"/v1/text:analyze", map[string]any{
		"content": text,
	})
	if err != nil {
		return nil, err
	}

	analysis := &TextAnalysis{
		Sentiment: gjson.Get(body, "sentiment.score").Float(),
		Magnitude: gjson.Get(body, "sentiment.magnitude").Float(),
	}
	for _, e := range gjson.Get(body, "entities").Array() {
		analysis.Entities = append(analysis.Entities, Entity{
			Name:      e.Get("name").String(),
			Type:      e.Get("type").String(),
			Sentiment: e.Get("sentiment.score").Float(),
		})
	}
	for _, cat := range gjson.Get(body, "categories").Array() {
		analysis.Categories = append(analysis.Categories, Category{
			Name:       cat.Get("name").String(),
			Confidence: cat.Get("confidence").Float(),
		})
	}
	return analysis, nil
}

// AnnotateImage runs safe-search annotation on the image at url.
func (c *RemoteClient) AnnotateImage(ctx context.Context, url string) (*ImageAnnotation, error) {
	body, err := c.post(ctx, c.classifierBase+"/v1/images:annotate", map[string]any{
		"image": map[string]any{"source": url},
	})
	if err != nil {
		return nil, err
	}

	return &ImageAnnotation{
		Adult:    ParseLikelihood(gjson.Get(body, "safeSearch.adult").String()),
		Violence: ParseLikelihood(gjson.Get(body, "safeSearch.violence").String()),
		Racy:     ParseLikelihood(gjson.Get(body, "safeSearch.racy").String()),
	}, nil
}

// Search returns up to limit candidate pages for the query.
func (c *RemoteClient) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	u := c.searchBase + "/v1/search?q=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(limit)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, item := range gjson.Get(body, "results").Array() {
		hits = append(hits, SearchHit{
			URL:     item.Get("url").String(),
			Title:   item.Get("title").String(),
			Snippet: item.Get("snippet").String(),
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// post sends a JSON body and returns the response body.
func (c *RemoteClient) post(ctx context.Context, url string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// get issues a GET and returns the response body.
func (c *RemoteClient) get(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req)
}

// do executes the request and reads a bounded body.
func (c *RemoteClient) do(req *retryablehttp.Request) (string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("collaborator call failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read collaborator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("collaborator returned status %d", resp.StatusCode)
	}
	return string(data), nil
}
