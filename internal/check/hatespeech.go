package check

import (
	"context"
	"log/slog"
	"strings"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// strongNegativeSentiment is the document sentiment score at or below
// which a chunk counts as hostile.
const strongNegativeSentiment = -0.6

// strongNegativeEntitySentiment is the per-entity sentiment bound for
// hostility directed at a person or organization.
const strongNegativeEntitySentiment = -0.7

// phraseContextRunes is how much surrounding text a lexical phrase hit
// carries into the result details.
const phraseContextRunes = 60

// sensitiveCategoryMarkers flag classifier category labels that fail
// the screen outright.
var sensitiveCategoryMarkers = []string{"sensitive", "adult", "hate", "violence", "derogatory"}

// HateSpeechScreener runs a deterministic lexical scan first and
// delegates the rest to the remote text classifier. The lexical fast
// path keeps obviously hostile pages from ever reaching the paid
// classification call.
type HateSpeechScreener struct {
	// source fetches the page when the orchestrator has none.
	source PageSource

	// analyzer is the remote classification capability.
	analyzer classify.TextAnalyzer

	// phrases is the fixed lexical phrase list.
	phrases []string

	// maxChunks caps how many chunks go to the classifier.
	maxChunks int

	// chunkSize bounds each submitted chunk in bytes.
	chunkSize int

	// logger for structured logging.
	logger *slog.Logger
}

// HateSpeechOption configures a HateSpeechScreener.
type HateSpeechOption func(*HateSpeechScreener)

// WithChunking sets the chunk cap and chunk size.
func WithChunking(maxChunks, chunkSize int) HateSpeechOption {
	return func(s *HateSpeechScreener) {
		s.maxChunks = maxChunks
		s.chunkSize = chunkSize
	}
}

// WithHateSpeechLogger sets a custom logger.
func WithHateSpeechLogger(logger *slog.Logger) HateSpeechOption {
	return func(s *HateSpeechScreener) {
		s.logger = logger
	}
}

// NewHateSpeechScreener creates a HateSpeechScreener. The phrase list
// comes from the policy; an empty list disables the lexical fast path.
func NewHateSpeechScreener(source PageSource, analyzer classify.TextAnalyzer, policy *config.Policy, opts ...HateSpeechOption) *HateSpeechScreener {
	s := &HateSpeechScreener{
		source:    source,
		analyzer:  analyzer,
		phrases:   policy.HatePhrases,
		maxChunks: config.DefaultMaxChunks,
		chunkSize: config.DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the check name.
func (s *HateSpeechScreener) Name() string {
	return model.CheckHateSpeech
}

// Check screens the page content. A lexical phrase hit fails
// immediately without any remote call. Otherwise the content is split
// into chunks and classified remotely; a failed classification call
// skips that chunk, and only when every chunk fails does the check
// itself report an error.
func (s *HateSpeechScreener) Check(ctx context.Context, target *Target) *model.CheckResult {
	page := target.ContentPage()
	if page == nil {
		var err error
		page, err = s.source.Fetch(ctx, target.URL)
		if err != nil {
			return errorResult(model.CheckHateSpeech, "content fetch failed", err)
		}
	}

	text := page.Text
	if strings.TrimSpace(text) == "" {
		return model.NewCheckResult(model.CheckHateSpeech, model.StatusPass, "").
			WithDetail("chunks", 0)
	}

	if phrase, ctxText := s.scanPhrases(text); phrase != "" {
		return model.NewCheckResult(model.CheckHateSpeech, model.StatusFail, "hate speech detected").
			WithDetail("phrase", phrase).
			WithDetail("context", ctxText)
	}

	chunks := chunkText(text, s.chunkSize, s.maxChunks)
	classified := 0
	for i, chunk := range chunks {
		analysis, err := s.analyzer.AnalyzeText(ctx, chunk)
		if err != nil {
			s.logger.Warn("chunk classification failed", "chunk", i, "error", err)
			continue
		}
		classified++
		if result := s.judge(analysis); result != nil {
			return result.WithDetail("chunk", i)
		}
	}
	if classified == 0 {
		return errorResult(model.CheckHateSpeech, "classification unavailable", nil)
	}

	return model.NewCheckResult(model.CheckHateSpeech, model.StatusPass, "").
		WithDetail("chunks", classified)
}

// scanPhrases looks for any fixed phrase in the lowercased text and
// returns the phrase plus surrounding context.
func (s *HateSpeechScreener) scanPhrases(text string) (phrase, context string) {
	lower := strings.ToLower(text)
	for _, p := range s.phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		idx := strings.Index(lower, p)
		if idx < 0 {
			continue
		}
		return p, surroundingContext(text, idx, len(p))
	}
	return "", ""
}

// judge maps one chunk's analysis to a fail result, or nil when the
// chunk is acceptable.
func (s *HateSpeechScreener) judge(a *classify.TextAnalysis) *model.CheckResult {
	if a.Sentiment <= strongNegativeSentiment {
		return model.NewCheckResult(model.CheckHateSpeech, model.StatusFail, "hate speech detected").
			WithDetail("signal", "document sentiment").
			WithDetail("sentiment", a.Sentiment)
	}
	for _, e := range a.Entities {
		if e.Sentiment > strongNegativeEntitySentiment {
			continue
		}
		if e.Type == classify.EntityPerson || e.Type == classify.EntityOrganization {
			return model.NewCheckResult(model.CheckHateSpeech, model.StatusFail, "hate speech detected").
				WithDetail("signal", "entity sentiment").
				WithDetail("entity", e.Name).
				WithDetail("sentiment", e.Sentiment)
		}
	}
	for _, cat := range a.Categories {
		lower := strings.ToLower(cat.Name)
		for _, marker := range sensitiveCategoryMarkers {
			if strings.Contains(lower, marker) {
				return model.NewCheckResult(model.CheckHateSpeech, model.StatusFail, "hate speech detected").
					WithDetail("signal", "category").
					WithDetail("category", cat.Name)
			}
		}
	}
	return nil
}

// chunkText splits text into at most max chunks of roughly size bytes,
// cutting at word boundaries where possible.
func chunkText(text string, size, max int) []string {
	var chunks []string
	for len(text) > 0 && len(chunks) < max {
		if len(text) <= size {
			chunks = append(chunks, text)
			break
		}
		cut := size
		if i := strings.LastIndexByte(text[:size], ' '); i > size/2 {
			cut = i
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], " ")
	}
	return chunks
}

// surroundingContext extracts text around a match, bounded on both
// sides.
func surroundingContext(text string, idx, matchLen int) string {
	runes := []rune(text[:idx])
	start := idx
	if len(runes) > phraseContextRunes {
		start = len(string(runes[:len(runes)-phraseContextRunes]))
	} else {
		start = 0
	}
	end := idx + matchLen
	tail := []rune(text[end:])
	if len(tail) > phraseContextRunes {
		tail = tail[:phraseContextRunes]
	}
	return strings.TrimSpace(text[start:end] + string(tail))
}
