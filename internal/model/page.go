package model

import "net/http"

// Page is a fetched page with extracted text. Render-capable fetchers
// additionally populate the network and image signals collected while
// the page loaded.
type Page struct {
	// URL is the final page URL.
	URL string `json:"url"`

	// StatusCode is the HTTP status of the main document response.
	StatusCode int `json:"status_code"`

	// Headers are the main document response headers.
	Headers http.Header `json:"-"`

	// HTML is the raw (or rendered) document markup.
	HTML string `json:"-"`

	// Text is the extracted visible text content.
	Text string `json:"-"`

	// Requests are the network requests observed while rendering.
	// Empty for plain HTTP fetches.
	Requests []NetworkSignal `json:"-"`

	// Images are the image elements observed in the rendered DOM.
	// Empty for plain HTTP fetches.
	Images []ImageElement `json:"-"`
}

// ResourceKind classifies a network request by the resource it loaded.
type ResourceKind string

// Resource kinds as reported by the render fetcher. The values mirror
// the DevTools protocol resource types, lowercased.
const (
	ResourceDocument   ResourceKind = "document"
	ResourceScript     ResourceKind = "script"
	ResourceImage      ResourceKind = "image"
	ResourceStylesheet ResourceKind = "stylesheet"
	ResourceXHR        ResourceKind = "xhr"
	ResourceOther      ResourceKind = "other"
)

// Ancestor container hints attached to collected images.
const (
	HintContent = "content"
	HintAd      = "ad"
)

// NetworkSignal is one observed network request. Signals are ephemeral
// working data for the ad-network classification; they live only for the
// duration of a single audit.
type NetworkSignal struct {
	// URL is the requested URL.
	URL string `json:"url"`

	// Kind is the resource type of the request.
	Kind ResourceKind `json:"kind"`

	// Initiator describes what triggered the request (parser, script).
	Initiator string `json:"initiator,omitempty"`
}

// ImageElement is one image observed in the rendered DOM together with
// the layout and ancestry hints the ad-network classifier needs.
type ImageElement struct {
	// URL is the image source URL.
	URL string `json:"url"`

	// NaturalWidth and NaturalHeight are the intrinsic dimensions.
	NaturalWidth  int `json:"natural_width"`
	NaturalHeight int `json:"natural_height"`

	// RenderedWidth and RenderedHeight are the laid-out dimensions.
	RenderedWidth  int `json:"rendered_width"`
	RenderedHeight int `json:"rendered_height"`

	// Hidden is true when the element is removed from display via
	// display:none, visibility:hidden, zero opacity, or a zero-size
	// absolutely positioned box.
	Hidden bool `json:"hidden"`

	// AncestorHint names the closest recognized ancestor container:
	// HintContent (article/main-like), HintAd (ad-slot-like), or "".
	AncestorHint string `json:"ancestor_hint,omitempty"`

	// Alt is the alt text, kept for audit trails.
	Alt string `json:"alt,omitempty"`
}
