package fetch

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/siteaudit/siteaudit/internal/model"
)

// CollectStaticSignals approximates the render fetcher's output from
// static markup: script/img/iframe sources become network signals and
// img elements become image elements with attribute-derived dimensions.
// Layout and visibility data is unavailable without a browser, so the
// approximation undercounts hidden tracking pixels; the ad-network
// check still works on URL and ancestry evidence.
func CollectStaticSignals(page *model.Page) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return
	}

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			page.Requests = append(page.Requests, model.NetworkSignal{
				URL:  src,
				Kind: model.ResourceScript,
			})
		}
	})
	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			page.Requests = append(page.Requests, model.NetworkSignal{
				URL:  src,
				Kind: model.ResourceDocument,
			})
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return
		}

		img := model.ImageElement{
			URL:           src,
			NaturalWidth:  intAttr(s, "width"),
			NaturalHeight: intAttr(s, "height"),
			AncestorHint:  ancestorHint(s),
		}
		img.Alt, _ = s.Attr("alt")

		page.Requests = append(page.Requests, model.NetworkSignal{
			URL:  src,
			Kind: model.ResourceImage,
		})
		page.Images = append(page.Images, img)
	})
}

// contentContainers are element/class markers that identify editorial
// content ancestry in static markup.
var contentContainers = []string{"article", "main"}

// adClassMarkers are class/id fragments that identify ad-slot ancestry.
var adClassMarkers = []string{"adsbygoogle", "ad-slot", "advert", "ad-container", "sponsored"}

// ancestorHint walks up the node's parents looking for recognized
// content or ad containers. Ad ancestry wins because a content page can
// legitimately embed ad slots, but not the reverse.
func ancestorHint(s *goquery.Selection) string {
	hint := ""
	s.Parents().Each(func(_ int, p *goquery.Selection) {
		tag := goquery.NodeName(p)
		class, _ := p.Attr("class")
		id, _ := p.Attr("id")
		marker := strings.ToLower(class + " " + id)

		for _, m := range adClassMarkers {
			if strings.Contains(marker, m) {
				hint = model.HintAd
				return
			}
		}
		if hint != "" {
			return
		}
		for _, c := range contentContainers {
			if tag == c {
				hint = model.HintContent
				return
			}
		}
		if role, ok := p.Attr("role"); ok && role == "main" {
			hint = model.HintContent
		}
	})
	return hint
}

// intAttr parses a numeric attribute, returning 0 when absent or bad.
func intAttr(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(v, "px"))
	if err != nil {
		return 0
	}
	return n
}
