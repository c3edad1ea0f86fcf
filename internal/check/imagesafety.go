package check

import (
	"context"
	"log/slog"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/siteaudit/siteaudit/internal/classify"
	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/model"
)

// ImageSafetyChecker submits a bounded sample of the page's images to
// the safe-search annotator and flags adult, violent, or racy content.
// Content images are sampled first: they are what a visitor actually
// sees, while tracking pixels and creatives are screened by the
// ad-network classification instead.
type ImageSafetyChecker struct {
	// source fetches image bytes for metadata extraction.
	source PageSource

	// annotator is the remote safe-search capability.
	annotator classify.ImageAnnotator

	// maxImages caps annotator calls per audit.
	maxImages int

	// extractMetadata controls the EXIF pass over flagged images.
	extractMetadata bool

	// logger for structured logging.
	logger *slog.Logger
}

// ImageSafetyOption configures an ImageSafetyChecker.
type ImageSafetyOption func(*ImageSafetyChecker)

// WithMaxImages caps how many images are annotated.
func WithMaxImages(n int) ImageSafetyOption {
	return func(c *ImageSafetyChecker) {
		c.maxImages = n
	}
}

// WithMetadataExtraction toggles the EXIF pass over flagged images.
func WithMetadataExtraction(enabled bool) ImageSafetyOption {
	return func(c *ImageSafetyChecker) {
		c.extractMetadata = enabled
	}
}

// WithImageSafetyLogger sets a custom logger.
func WithImageSafetyLogger(logger *slog.Logger) ImageSafetyOption {
	return func(c *ImageSafetyChecker) {
		c.logger = logger
	}
}

// NewImageSafetyChecker creates an ImageSafetyChecker.
func NewImageSafetyChecker(source PageSource, annotator classify.ImageAnnotator, opts ...ImageSafetyOption) *ImageSafetyChecker {
	c := &ImageSafetyChecker{
		source:          source,
		annotator:       annotator,
		maxImages:       config.DefaultMaxImages,
		extractMetadata: true,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the check name.
func (c *ImageSafetyChecker) Name() string {
	return model.CheckImageSafety
}

// Check annotates sampled images. Any flagged image fails the check
// immediately; annotation failures are skipped, and the check reports
// an error only when no image could be annotated at all.
func (c *ImageSafetyChecker) Check(ctx context.Context, target *Target) *model.CheckResult {
	page := target.ContentPage()
	if page == nil || len(page.Images) == 0 {
		return model.NewCheckResult(model.CheckImageSafety, model.StatusPass, "").
			WithDetail("images_checked", 0)
	}

	sample := c.sampleImages(page.Images)
	annotated := 0
	for _, img := range sample {
		annotation, err := c.annotator.AnnotateImage(ctx, img.URL)
		if err != nil {
			c.logger.Warn("image annotation failed", "url", img.URL, "error", err)
			continue
		}
		annotated++
		if !annotation.Flagged() {
			continue
		}

		result := model.NewCheckResult(model.CheckImageSafety, model.StatusFail, "inappropriate image content").
			WithDetail("image_url", img.URL).
			WithDetail("adult", annotation.Adult.String()).
			WithDetail("violence", annotation.Violence.String()).
			WithDetail("racy", annotation.Racy.String())
		if c.extractMetadata {
			if tags := c.imageMetadata(ctx, img.URL); len(tags) > 0 {
				result = result.WithDetail("exif", tags)
			}
		}
		return result
	}

	if annotated == 0 && len(sample) > 0 {
		return errorResult(model.CheckImageSafety, "image annotation unavailable", nil)
	}
	return model.NewCheckResult(model.CheckImageSafety, model.StatusPass, "").
		WithDetail("images_checked", annotated)
}

// sampleImages orders content images first and applies the cap.
func (c *ImageSafetyChecker) sampleImages(images []model.ImageElement) []model.ImageElement {
	sample := make([]model.ImageElement, 0, len(images))
	for _, img := range images {
		if img.AncestorHint == model.HintContent {
			sample = append(sample, img)
		}
	}
	for _, img := range images {
		if img.AncestorHint != model.HintContent {
			sample = append(sample, img)
		}
	}
	if len(sample) > c.maxImages {
		sample = sample[:c.maxImages]
	}
	return sample
}

// imageMetadata fetches the image and extracts EXIF tags for the audit
// trail. Best effort: most web images carry no EXIF at all.
func (c *ImageSafetyChecker) imageMetadata(ctx context.Context, url string) map[string]string {
	body, status, err := c.source.FetchRaw(ctx, url)
	if err != nil || status >= 400 {
		return nil
	}

	rawExif, err := exif.SearchAndExtractExif([]byte(body))
	if err != nil {
		return nil
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	tags := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.TagName == "" || e.Formatted == "" {
			continue
		}
		tags[e.TagName] = strings.TrimSpace(e.Formatted)
	}
	return tags
}
