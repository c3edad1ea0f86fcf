package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

func hateTarget(t *testing.T, text string) *Target {
	t.Helper()
	target := newTarget(t, "https://example.com/")
	target.Page = &model.Page{URL: "https://example.com/", Text: text}
	return target
}

// TestHateSpeechPhraseFastPath asserts that a lexical phrase hit fails
// without ever calling the classifier.
func TestHateSpeechPhraseFastPath(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{analysis: &classify.TextAnalysis{}}
	s := NewHateSpeechScreener(newFakePageSource(), analyzer, config.DefaultPolicy())

	text := "A long article about history that advocates ethnic cleansing in its closing paragraph."
	res := s.Check(context.Background(), hateTarget(t, text))

	if !res.Fail() {
		t.Fatalf("expected fail, got %+v", res)
	}
	if res.Reason != "hate speech detected" {
		t.Errorf("reason = %q", res.Reason)
	}
	if got := res.Details["phrase"]; got != "ethnic cleansing" {
		t.Errorf("phrase = %v", got)
	}
	if ctxText, _ := res.Details["context"].(string); !strings.Contains(ctxText, "ethnic cleansing") {
		t.Errorf("context %q does not contain the phrase", ctxText)
	}
	if analyzer.callCount() != 0 {
		t.Errorf("analyzer calls = %d, want 0", analyzer.callCount())
	}
}

// TestHateSpeechClassification covers the remote-classifier signals.
func TestHateSpeechClassification(t *testing.T) {
	t.Parallel()

	neutral := "A pleasant article about community gardening and local events."

	tests := []struct {
		name       string
		analysis   *classify.TextAnalysis
		wantStatus model.Status
		wantSignal string
	}{
		{
			name:       "neutral analysis passes",
			analysis:   &classify.TextAnalysis{Sentiment: 0.3},
			wantStatus: model.StatusPass,
		},
		{
			name:       "strongly negative document sentiment fails",
			analysis:   &classify.TextAnalysis{Sentiment: -0.8},
			wantStatus: model.StatusFail,
			wantSignal: "document sentiment",
		},
		{
			name: "hostility toward a person fails",
			analysis: &classify.TextAnalysis{
				Sentiment: -0.2,
				Entities:  []classify.Entity{{Name: "Jane Doe", Type: classify.EntityPerson, Sentiment: -0.9}},
			},
			wantStatus: model.StatusFail,
			wantSignal: "entity sentiment",
		},
		{
			name: "hostility toward a location is tolerated",
			analysis: &classify.TextAnalysis{
				Sentiment: -0.2,
				Entities:  []classify.Entity{{Name: "the weather", Type: "OTHER", Sentiment: -0.9}},
			},
			wantStatus: model.StatusPass,
		},
		{
			name: "sensitive category fails",
			analysis: &classify.TextAnalysis{
				Sentiment:  0.1,
				Categories: []classify.Category{{Name: "/Sensitive Subjects", Confidence: 0.9}},
			},
			wantStatus: model.StatusFail,
			wantSignal: "category",
		},
		{
			name: "benign category passes",
			analysis: &classify.TextAnalysis{
				Sentiment:  0.1,
				Categories: []classify.Category{{Name: "/Hobbies & Leisure", Confidence: 0.9}},
			},
			wantStatus: model.StatusPass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analyzer := &fakeAnalyzer{analysis: tt.analysis}
			s := NewHateSpeechScreener(newFakePageSource(), analyzer, config.DefaultPolicy())

			res := s.Check(context.Background(), hateTarget(t, neutral))
			if res.Status != tt.wantStatus {
				t.Fatalf("status = %v, want %v (details %v)", res.Status, tt.wantStatus, res.Details)
			}
			if tt.wantSignal != "" {
				if got := res.Details["signal"]; got != tt.wantSignal {
					t.Errorf("signal = %v, want %q", got, tt.wantSignal)
				}
			}
		})
	}
}

// TestHateSpeechClassifierUnavailable asserts the degraded outcomes
// when the remote classifier cannot be reached.
func TestHateSpeechClassifierUnavailable(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{err: errors.New("connection refused")}
	s := NewHateSpeechScreener(newFakePageSource(), analyzer, config.DefaultPolicy())

	res := s.Check(context.Background(), hateTarget(t, "Some ordinary page content about cooking."))
	if res.Status != model.StatusError {
		t.Fatalf("status = %v, want error", res.Status)
	}
	if res.Reason != "classification unavailable" {
		t.Errorf("reason = %q", res.Reason)
	}
}

// TestHateSpeechEmptyContent asserts that a page with no text passes
// with zero chunks.
func TestHateSpeechEmptyContent(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{analysis: &classify.TextAnalysis{}}
	s := NewHateSpeechScreener(newFakePageSource(), analyzer, config.DefaultPolicy())

	res := s.Check(context.Background(), hateTarget(t, "   \n\t"))
	if !res.Pass() {
		t.Fatalf("expected pass, got %+v", res)
	}
	if got := res.Details["chunks"]; got != 0 {
		t.Errorf("chunks = %v, want 0", got)
	}
	if analyzer.callCount() != 0 {
		t.Errorf("analyzer calls = %d, want 0", analyzer.callCount())
	}
}

// TestChunkText checks the word-boundary chunker.
func TestChunkText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("alpha beta gamma delta ", 50)

	chunks := chunkText(text, 100, 20)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d length %d exceeds limit", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") {
			t.Errorf("chunk %d starts with a space", i)
		}
	}

	if got := chunkText(text, 100, 3); len(got) != 3 {
		t.Errorf("chunk cap: got %d chunks, want 3", len(got))
	}
	if got := chunkText("short", 100, 3); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text: got %v", got)
	}
}
