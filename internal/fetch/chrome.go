package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/siteaudit/siteaudit/internal/model"
)

// collectImagesJS gathers every <img> in the rendered DOM together with
// the layout, visibility, and ancestry hints the ad-network
// classification needs. Ancestry is resolved in the page because the
// browser already knows the computed styles and the DOM tree; shipping
// the whole tree over the wire just to re-derive this would be wasteful.
const collectImagesJS = `
(() => {
  const contentSel = "article, main, [role=main], .content, .post, .entry-content, .article-body";
  const adSel = "ins.adsbygoogle, [id*='ad-'], [id*='-ad'], [class*='ad-slot'], [class*='advert'], [data-ad-slot], aside.ads";
  return Array.from(document.images).map(img => {
    const style = window.getComputedStyle(img);
    const rect = img.getBoundingClientRect();
    const hidden = style.display === "none" ||
      style.visibility === "hidden" ||
      parseFloat(style.opacity) === 0 ||
      (style.position === "absolute" && rect.width === 0 && rect.height === 0);
    let hint = "";
    if (img.closest(adSel)) {
      hint = "ad";
    } else if (img.closest(contentSel)) {
      hint = "content";
    }
    return {
      url: img.currentSrc || img.src || "",
      natural_width: img.naturalWidth,
      natural_height: img.naturalHeight,
      rendered_width: Math.round(rect.width),
      rendered_height: Math.round(rect.height),
      hidden: hidden,
      ancestor_hint: hint,
      alt: img.alt || ""
    };
  });
})()
`

// scrollPageJS scrolls through the document to trigger lazily loaded
// images and ad slots.
const scrollPageJS = `
(async () => {
  const step = window.innerHeight;
  for (let y = 0; y < document.body.scrollHeight; y += step) {
    window.scrollTo(0, y);
    await new Promise(r => setTimeout(r, 150));
  }
  window.scrollTo(0, 0);
})()
`

// ChromeFetcher renders pages in a headless browser and collects the
// network requests and image elements observed while loading.
//
// Design decision: We allocate one browser context per Render call from
// a shared exec allocator instead of reusing tabs because audit targets
// are untrusted pages; a fresh context guarantees no state (cookies,
// service workers, cached ad auctions) leaks between audits.
type ChromeFetcher struct {
	// allocCtx is the shared browser process allocator context.
	allocCtx context.Context

	// allocCancel tears down the allocator.
	allocCancel context.CancelFunc

	// timeout bounds one full render.
	timeout time.Duration

	// settleDelay is how long to wait after load for late requests.
	settleDelay time.Duration

	// userAgent is the browser user agent.
	userAgent string

	// logger for structured logging.
	logger *slog.Logger
}

// ChromeFetcherOption configures a ChromeFetcher.
type ChromeFetcherOption func(*ChromeFetcher)

// WithRenderTimeout bounds one full page render.
func WithRenderTimeout(d time.Duration) ChromeFetcherOption {
	return func(f *ChromeFetcher) {
		f.timeout = d
	}
}

// WithSettleDelay sets how long to wait after load for late requests
// (ad auctions regularly fire after the load event).
func WithSettleDelay(d time.Duration) ChromeFetcherOption {
	return func(f *ChromeFetcher) {
		f.settleDelay = d
	}
}

// WithChromeUserAgent sets the browser user agent.
func WithChromeUserAgent(ua string) ChromeFetcherOption {
	return func(f *ChromeFetcher) {
		f.userAgent = ua
	}
}

// WithChromeLogger sets a custom logger.
func WithChromeLogger(logger *slog.Logger) ChromeFetcherOption {
	return func(f *ChromeFetcher) {
		f.logger = logger
	}
}

// NewChromeFetcher creates a ChromeFetcher backed by one headless
// browser process. Close must be called to release it.
func NewChromeFetcher(opts ...ChromeFetcherOption) *ChromeFetcher {
	f := &ChromeFetcher{
		timeout:     60 * time.Second,
		settleDelay: 2 * time.Second,
		userAgent:   "siteaudit/1.0",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)
	f.allocCtx, f.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return f
}

// Close releases the browser process.
func (f *ChromeFetcher) Close() {
	f.allocCancel()
}

// Render loads the page, waits for the network to settle, scrolls to
// trigger lazy content, and returns the page with the collected network
// signals and image elements.
func (f *ChromeFetcher) Render(ctx context.Context, url string) (*model.Page, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	// Stop early if the caller's context ends first; taskCtx descends
	// from the allocator, not from ctx.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-taskCtx.Done():
		}
	}()

	var (
		mu       sync.Mutex
		requests []model.NetworkSignal
	)
	chromedp.ListenTarget(taskCtx, func(ev any) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		requests = append(requests, model.NetworkSignal{
			URL:       e.Request.URL,
			Kind:      resourceKind(e.Type),
			Initiator: initiatorKind(e.Initiator),
		})
	})

	var (
		htmlSrc string
		images  []model.ImageElement
	)
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settleDelay),
		chromedp.Evaluate(scrollPageJS, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.Sleep(f.settleDelay),
		chromedp.OuterHTML("html", &htmlSrc, chromedp.ByQuery),
		chromedp.Evaluate(collectImagesJS, &images),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}

	mu.Lock()
	collected := make([]model.NetworkSignal, len(requests))
	copy(collected, requests)
	mu.Unlock()

	f.logger.Debug("page rendered",
		"url", url,
		"requests", len(collected),
		"images", len(images),
	)

	page := &model.Page{
		URL:        url,
		StatusCode: 200, // navigation succeeded; per-request codes are not tracked
		HTML:       htmlSrc,
		Requests:   collected,
		Images:     images,
	}
	page.Text = ExtractText(htmlSrc)
	return page, nil
}

// resourceKind maps a DevTools resource type onto our model.
func resourceKind(t network.ResourceType) model.ResourceKind {
	switch t {
	case network.ResourceTypeDocument:
		return model.ResourceDocument
	case network.ResourceTypeScript:
		return model.ResourceScript
	case network.ResourceTypeImage:
		return model.ResourceImage
	case network.ResourceTypeStylesheet:
		return model.ResourceStylesheet
	case network.ResourceTypeXHR, network.ResourceTypeFetch:
		return model.ResourceXHR
	default:
		return model.ResourceKind(strings.ToLower(string(t)))
	}
}

// initiatorKind extracts the initiator type when present.
func initiatorKind(in *network.Initiator) string {
	if in == nil {
		return ""
	}
	return string(in.Type)
}
