package check

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/model"
)

const similarityParagraph = "The migration to the new storage backend took three months of careful " +
	"planning and the team shipped it without a single minute of downtime, which surprised " +
	"everyone including the engineers who had written the rollback procedure."

func TestWordSet(t *testing.T) {
	t.Parallel()

	words := WordSet("The Quick brown fox, the quick fox! A lazy dog slept.")
	want := []string{"quick", "brown", "lazy", "slept"}
	for _, w := range want {
		if _, ok := words[w]; !ok {
			t.Errorf("WordSet missing %q", w)
		}
	}
	// Short words are excluded regardless of case.
	for _, w := range []string{"the", "fox", "dog", "a"} {
		if _, ok := words[w]; ok {
			t.Errorf("WordSet should not contain %q", w)
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	t.Parallel()

	a := WordSet("carefully planned storage migration shipped without downtime")
	b := WordSet("carefully planned storage migration shipped without downtime")
	if got := overlapRatio(a, b); got != 1.0 {
		t.Errorf("identical sets: ratio = %v, want 1.0", got)
	}

	c := WordSet("entirely different words about gardening tomatoes sunshine")
	if got := overlapRatio(a, c); got != 0.0 {
		t.Errorf("disjoint sets: ratio = %v, want 0.0", got)
	}

	if got := overlapRatio(nil, nil); got != 0.0 {
		t.Errorf("empty sets: ratio = %v, want 0.0", got)
	}
}

func TestSelectExcerpts(t *testing.T) {
	t.Parallel()

	short := "Too short."
	medium := strings.Repeat("medium length paragraph with words ", 5)
	long := strings.Repeat("a much longer paragraph with plenty of prose in it ", 8)
	text := short + "\n\n" + medium + "\n\n" + long

	got := SelectExcerpts(text, 100, 5)
	if len(got) != 2 {
		t.Fatalf("excerpts = %d, want 2 (short paragraph dropped)", len(got))
	}
	if !strings.HasPrefix(got[0], "a much longer") {
		t.Errorf("longest paragraph should come first, got %q", truncate(got[0], 40))
	}

	if got := SelectExcerpts(text, 100, 1); len(got) != 1 {
		t.Errorf("cap: excerpts = %d, want 1", len(got))
	}
	if got := SelectExcerpts("", 100, 5); len(got) != 0 {
		t.Errorf("empty text: excerpts = %d, want 0", len(got))
	}
}

func TestSimilarityCheck(t *testing.T) {
	t.Parallel()

	t.Run("copied content fails", func(t *testing.T) {
		t.Parallel()

		source := newFakePageSource()
		source.pages["https://other.example.org/copy"] = &model.Page{
			URL:  "https://other.example.org/copy",
			Text: similarityParagraph,
		}
		searcher := &fakeSearcher{hits: []classify.SearchHit{{URL: "https://other.example.org/copy"}}}

		c := NewSimilarityChecker(source, searcher)
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: similarityParagraph}

		res := c.Check(context.Background(), target)
		if !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if !strings.Contains(res.Reason, "exceed similarity threshold") {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("original content passes", func(t *testing.T) {
		t.Parallel()

		source := newFakePageSource()
		source.pages["https://other.example.org/unrelated"] = &model.Page{
			URL:  "https://other.example.org/unrelated",
			Text: strings.Repeat("gardening tomatoes sunshine watering compost seedlings ", 10),
		}
		searcher := &fakeSearcher{hits: []classify.SearchHit{{URL: "https://other.example.org/unrelated"}}}

		c := NewSimilarityChecker(source, searcher)
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: similarityParagraph}

		res := c.Check(context.Background(), target)
		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
	})

	t.Run("no candidates passes", func(t *testing.T) {
		t.Parallel()

		c := NewSimilarityChecker(newFakePageSource(), &fakeSearcher{})
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: similarityParagraph}

		res := c.Check(context.Background(), target)
		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
	})

	t.Run("same-host hits are ignored", func(t *testing.T) {
		t.Parallel()

		source := newFakePageSource()
		source.pages["https://example.com/other-page"] = &model.Page{
			URL:  "https://example.com/other-page",
			Text: similarityParagraph,
		}
		searcher := &fakeSearcher{hits: []classify.SearchHit{{URL: "https://example.com/other-page"}}}

		c := NewSimilarityChecker(source, searcher)
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: similarityParagraph}

		res := c.Check(context.Background(), target)
		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
	})

	t.Run("all searches failing reports an error", func(t *testing.T) {
		t.Parallel()

		searcher := &fakeSearcher{err: errors.New("search backend down")}
		c := NewSimilarityChecker(newFakePageSource(), searcher)
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: similarityParagraph}

		res := c.Check(context.Background(), target)
		if res.Status != model.StatusError {
			t.Fatalf("status = %v, want error", res.Status)
		}
		if res.Reason != "all excerpt comparisons failed" {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("no substantial paragraphs passes", func(t *testing.T) {
		t.Parallel()

		searcher := &fakeSearcher{}
		c := NewSimilarityChecker(newFakePageSource(), searcher)
		target := newTarget(t, "https://example.com/")
		target.Page = &model.Page{URL: "https://example.com/", Text: "Hi.\n\nBye."}

		res := c.Check(context.Background(), target)
		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
		if searcher.calls != 0 {
			t.Errorf("search calls = %d, want 0", searcher.calls)
		}
	})

	t.Run("unreachable content reports an error", func(t *testing.T) {
		t.Parallel()

		c := NewSimilarityChecker(newFakePageSource(), &fakeSearcher{})
		res := c.Check(context.Background(), newTarget(t, "https://example.com/"))
		if res.Status != model.StatusError {
			t.Fatalf("status = %v, want error", res.Status)
		}
		if res.Reason != "content fetch failed" {
			t.Errorf("reason = %q", res.Reason)
		}
	})
}
