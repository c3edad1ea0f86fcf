package classify

import "context"

// Likelihood is a confidence bucket for an image annotation, ordered
// from least to most likely.
type Likelihood int

// Likelihood levels, ordered so that comparisons express "at least as
// likely as".
const (
	LikelihoodUnknown Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

// ParseLikelihood converts the wire string into a Likelihood.
func ParseLikelihood(s string) Likelihood {
	switch s {
	case "VERY_UNLIKELY":
		return VeryUnlikely
	case "UNLIKELY":
		return Unlikely
	case "POSSIBLE":
		return Possible
	case "LIKELY":
		return Likely
	case "VERY_LIKELY":
		return VeryLikely
	default:
		return LikelihoodUnknown
	}
}

// String returns the wire representation of the likelihood.
func (l Likelihood) String() string {
	switch l {
	case VeryUnlikely:
		return "VERY_UNLIKELY"
	case Unlikely:
		return "UNLIKELY"
	case Possible:
		return "POSSIBLE"
	case Likely:
		return "LIKELY"
	case VeryLikely:
		return "VERY_LIKELY"
	default:
		return "UNKNOWN"
	}
}

// Entity types as reported by the classification service.
const (
	EntityPerson       = "PERSON"
	EntityOrganization = "ORGANIZATION"
)

// Entity is a named entity found in analyzed text, with the sentiment
// expressed toward it.
type Entity struct {
	// Name is the entity's surface form.
	Name string

	// Type is the entity class ("PERSON", "ORGANIZATION", ...).
	Type string

	// Sentiment is the sentiment toward the entity in [-1,1].
	Sentiment float64
}

// Category is a content category label with confidence.
type Category struct {
	// Name is the category path ("/Sensitive Subjects", "/Adult").
	Name string

	// Confidence is the classifier's confidence in [0,1].
	Confidence float64
}

// TextAnalysis is the combined judgment for one text chunk.
type TextAnalysis struct {
	// Sentiment is the document-level sentiment score in [-1,1].
	Sentiment float64

	// Magnitude is the overall strength of emotion, non-negative.
	Magnitude float64

	// Entities are the named entities with per-entity sentiment.
	Entities []Entity

	// Categories are the content category labels.
	Categories []Category
}

// ImageAnnotation is the safe-search judgment for one image.
type ImageAnnotation struct {
	// Adult is the likelihood of adult content.
	Adult Likelihood

	// Violence is the likelihood of violent content.
	Violence Likelihood

	// Racy is the likelihood of racy (suggestive) content.
	Racy Likelihood
}

// Flagged reports whether the annotation crosses the acceptance bar:
// anything Likely or above on any axis.
func (a *ImageAnnotation) Flagged() bool {
	return a.Adult >= Likely || a.Violence >= Likely || a.Racy >= Likely
}

// SearchHit is one candidate page returned by the search collaborator.
type SearchHit struct {
	// URL is the candidate page URL.
	URL string

	// Title is the result title.
	Title string

	// Snippet is the result snippet, when provided.
	Snippet string
}

// TextAnalyzer judges text chunks.
type TextAnalyzer interface {
	// AnalyzeText classifies one chunk of content.
	AnalyzeText(ctx context.Context, text string) (*TextAnalysis, error)
}

// ImageAnnotator judges images by URL.
type ImageAnnotator interface {
	// AnnotateImage runs safe-search annotation on the image at url.
	AnnotateImage(ctx context.Context, url string) (*ImageAnnotation, error)
}

// Searcher finds pages matching a text query.
type Searcher interface {
	// Search returns up to limit candidate pages for the query.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}
