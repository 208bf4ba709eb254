package documents

import "time"

// Extraction status lifecycle: a document is created in StatusProcessing and
// reaches exactly one of StatusComplete or StatusFailed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Document represents an uploaded PDF owned by a user.
//
// Invariants: TextKey is set iff ExtractionStatus is complete;
// ExtractionError is set iff ExtractionStatus is failed.
type Document struct {
	ID               string
	Title            string
	OwnerID          string
	StorageKey       string
	MimeType         string
	SizeBytes        int64
	ExtractionStatus string
	TextKey          string
	TextMetadataKey  string
	TextExtractedAt  *time.Time
	ExtractionError  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
