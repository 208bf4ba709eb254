package annotations

import "time"

// Selector is a byte-offset range into a document's extracted text.
// End is exclusive and must be strictly greater than Start.
type Selector struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// QuoteSelector anchors an annotation textually so clients can re-bind it if
// the extracted text shifts. Exact is required.
type QuoteSelector struct {
	Exact  string `json:"exact"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Annotation is a positional note on a document's extracted text.
//
// RangeHash fingerprints (documentID, start, end, userID) and is unique
// across all annotations: at most one annotation per exact range per author.
// It excludes the quote selector, so two annotations at identical offsets
// with different anchor text still collide. Orphaned is client-asserted and
// not re-validated against the current text.
type Annotation struct {
	ID         string
	DocumentID string
	UserID     string
	Selector   Selector
	Quote      QuoteSelector
	Body       string
	Orphaned   bool
	RangeHash  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
