package check

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/model"
)

// fakePageSource is an in-memory PageSource recording every call, so
// tests can assert which sources were actually queried.
type fakePageSource struct {
	mu    sync.Mutex
	pages map[string]*model.Page
	raw   map[string]string

	fetchCalls []string
	rawCalls   []string
}

func newFakePageSource() *fakePageSource {
	return &fakePageSource{
		pages: make(map[string]*model.Page),
		raw:   make(map[string]string),
	}
}

// Fetch implements PageSource.
func (f *fakePageSource) Fetch(_ context.Context, url string) (*model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, url)
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("no such page: " + url)
	}
	return page, nil
}

// FetchRaw implements PageSource.
func (f *fakePageSource) FetchRaw(_ context.Context, url string) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawCalls = append(f.rawCalls, url)
	body, ok := f.raw[url]
	if !ok {
		return "", 404, nil
	}
	return body, 200, nil
}

// rawCallCount returns how many FetchRaw calls were made.
func (f *fakePageSource) rawCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rawCalls)
}

// fetchCallCount returns how many Fetch calls were made.
func (f *fakePageSource) fetchCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetchCalls)
}

// fakeSearcher returns canned hits per query and records calls.
type fakeSearcher struct {
	mu    sync.Mutex
	hits  []classify.SearchHit
	err   error
	calls int
}

// Search implements classify.Searcher.
func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]classify.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

// fakeAnalyzer returns a canned analysis per call and records calls.
type fakeAnalyzer struct {
	mu       sync.Mutex
	analysis *classify.TextAnalysis
	err      error
	calls    int
}

// AnalyzeText implements classify.TextAnalyzer.
func (f *fakeAnalyzer) AnalyzeText(_ context.Context, _ string) (*classify.TextAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAnnotator returns canned annotations keyed by image URL.
type fakeAnnotator struct {
	annotations map[string]*classify.ImageAnnotation
	err         error
}

// AnnotateImage implements classify.ImageAnnotator.
func (f *fakeAnnotator) AnnotateImage(_ context.Context, url string) (*classify.ImageAnnotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.annotations[url]; ok {
		return a, nil
	}
	return &classify.ImageAnnotation{
		Adult:    classify.VeryUnlikely,
		Violence: classify.VeryUnlikely,
		Racy:     classify.VeryUnlikely,
	}, nil
}

// newTarget builds a Target for a URL, failing the test on bad input.
func newTarget(t *testing.T, rawURL string) *Target {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return &Target{URL: rawURL, Parsed: parsed}
}
