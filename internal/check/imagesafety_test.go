package check

import (
	"context"
	"errors"
	"testing"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/model"
)

func imageTarget(t *testing.T, images ...model.ImageElement) *Target {
	t.Helper()
	target := newTarget(t, "https://example.com/")
	target.Rendered = &model.Page{URL: "https://example.com/", Images: images}
	return target
}

func TestImageSafetyCheck(t *testing.T) {
	t.Parallel()

	t.Run("clean images pass", func(t *testing.T) {
		t.Parallel()

		c := NewImageSafetyChecker(newFakePageSource(), &fakeAnnotator{})
		res := c.Check(context.Background(), imageTarget(t,
			model.ImageElement{URL: "https://example.com/a.jpg"},
			model.ImageElement{URL: "https://example.com/b.jpg"},
		))

		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
		if got := res.Details["images_checked"]; got != 2 {
			t.Errorf("images_checked = %v, want 2", got)
		}
	})

	t.Run("flagged image fails", func(t *testing.T) {
		t.Parallel()

		annotator := &fakeAnnotator{annotations: map[string]*classify.ImageAnnotation{
			"https://example.com/bad.jpg": {
				Adult:    classify.VeryLikely,
				Violence: classify.Unlikely,
				Racy:     classify.Possible,
			},
		}}
		c := NewImageSafetyChecker(newFakePageSource(), annotator)
		res := c.Check(context.Background(), imageTarget(t,
			model.ImageElement{URL: "https://example.com/ok.jpg"},
			model.ImageElement{URL: "https://example.com/bad.jpg"},
		))

		if !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Reason != "inappropriate image content" {
			t.Errorf("reason = %q", res.Reason)
		}
		if got := res.Details["image_url"]; got != "https://example.com/bad.jpg" {
			t.Errorf("image_url = %v", got)
		}
	})

	t.Run("no images pass without annotator calls", func(t *testing.T) {
		t.Parallel()

		c := NewImageSafetyChecker(newFakePageSource(), &fakeAnnotator{err: errors.New("should not be called")})
		res := c.Check(context.Background(), imageTarget(t))

		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
		if got := res.Details["images_checked"]; got != 0 {
			t.Errorf("images_checked = %v, want 0", got)
		}
	})

	t.Run("annotator outage reports an error", func(t *testing.T) {
		t.Parallel()

		c := NewImageSafetyChecker(newFakePageSource(), &fakeAnnotator{err: errors.New("quota exhausted")})
		res := c.Check(context.Background(), imageTarget(t,
			model.ImageElement{URL: "https://example.com/a.jpg"},
		))

		if res.Status != model.StatusError {
			t.Fatalf("status = %v, want error", res.Status)
		}
		if res.Reason != "image annotation unavailable" {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("sample cap limits annotations", func(t *testing.T) {
		t.Parallel()

		images := make([]model.ImageElement, 10)
		for i := range images {
			images[i] = model.ImageElement{URL: "https://example.com/img.jpg"}
		}

		c := NewImageSafetyChecker(newFakePageSource(), &fakeAnnotator{}, WithMaxImages(4))
		res := c.Check(context.Background(), imageTarget(t, images...))

		if !res.Pass() {
			t.Fatalf("expected pass, got %+v", res)
		}
		if got := res.Details["images_checked"]; got != 4 {
			t.Errorf("images_checked = %v, want 4", got)
		}
	})
}

// TestSampleImagesOrdersContentFirst asserts that content-container
// images fill the sample before anything else.
func TestSampleImagesOrdersContentFirst(t *testing.T) {
	t.Parallel()

	c := NewImageSafetyChecker(newFakePageSource(), &fakeAnnotator{}, WithMaxImages(2))
	sample := c.sampleImages([]model.ImageElement{
		{URL: "https://example.com/creative.jpg", AncestorHint: model.HintAd},
		{URL: "https://example.com/photo-1.jpg", AncestorHint: model.HintContent},
		{URL: "https://example.com/photo-2.jpg", AncestorHint: model.HintContent},
	})

	if len(sample) != 2 {
		t.Fatalf("sample size = %d, want 2", len(sample))
	}
	for i, img := range sample {
		if img.AncestorHint != model.HintContent {
			t.Errorf("sample[%d] = %q, want a content image", i, img.URL)
		}
	}
}
