package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteClientAnalyzeText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text:analyze" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["content"] != "some text" {
			t.Errorf("content = %v", req["content"])
		}
		_, _ = w.Write([]byte(`{
			"sentiment": {"score": -0.7, "magnitude": 1.2},
			"entities": [{"name": "Jane", "type": "PERSON", "sentiment": {"score": -0.9}}],
			"categories": [{"name": "/Sensitive Subjects", "confidence": 0.85}]
		}`))
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, "")
	analysis, err := c.AnalyzeText(context.Background(), "some text")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if analysis.Sentiment != -0.7 {
		t.Errorf("sentiment = %v", analysis.Sentiment)
	}
	if len(analysis.Entities) != 1 || analysis.Entities[0].Type != EntityPerson || analysis.Entities[0].Sentiment != -0.9 {
		t.Errorf("entities = %+v", analysis.Entities)
	}
	if len(analysis.Categories) != 1 || analysis.Categories[0].Name != "/Sensitive Subjects" {
		t.Errorf("categories = %+v", analysis.Categories)
	}
}

func TestRemoteClientAnnotateImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images:annotate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"safeSearch": {"adult": "VERY_LIKELY", "violence": "UNLIKELY", "racy": "POSSIBLE"}}`))
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, "")
	annotation, err := c.AnnotateImage(context.Background(), "https://example.com/img.jpg")
	if err != nil {
		t.Fatalf("AnnotateImage: %v", err)
	}
	if annotation.Adult != VeryLikely {
		t.Errorf("adult = %v", annotation.Adult)
	}
	if annotation.Violence != Unlikely {
		t.Errorf("violence = %v", annotation.Violence)
	}
	if !annotation.Flagged() {
		t.Error("Flagged() = false for a VERY_LIKELY adult score")
	}
}

func TestRemoteClientSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "copied paragraph" {
			t.Errorf("q = %q", got)
		}
		_, _ = w.Write([]byte(`{"results": [
			{"url": "https://a.example/", "title": "A", "snippet": "sa"},
			{"url": "https://b.example/", "title": "B", "snippet": "sb"},
			{"url": "https://c.example/", "title": "C", "snippet": "sc"}
		]}`))
	}))
	defer srv.Close()

	c := NewRemoteClient("", srv.URL)
	hits, err := c.Search(context.Background(), "copied paragraph", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want limit-capped 2", len(hits))
	}
	if hits[0].URL != "https://a.example/" || hits[0].Title != "A" {
		t.Errorf("hits[0] = %+v", hits[0])
	}
}

func TestRemoteClientErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, srv.URL)
	if _, err := c.AnalyzeText(context.Background(), "text"); err == nil {
		t.Error("AnalyzeText succeeded on a 400 response")
	}
	if _, err := c.Search(context.Background(), "q", 5); err == nil {
		t.Error("Search succeeded on a 400 response")
	}
}

func TestParseLikelihood(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Likelihood
	}{
		{"VERY_UNLIKELY", VeryUnlikely},
		{"UNLIKELY", Unlikely},
		{"POSSIBLE", Possible},
		{"LIKELY", Likely},
		{"VERY_LIKELY", VeryLikely},
		{"", LikelihoodUnknown},
		{"nonsense", LikelihoodUnknown},
	}
	for _, tt := range tests {
		if got := ParseLikelihood(tt.in); got != tt.want {
			t.Errorf("ParseLikelihood(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
