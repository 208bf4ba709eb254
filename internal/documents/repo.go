package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	// List returns documents ordered by creation time descending.
	List(ctx context.Context, limit, offset int) ([]Document, error)
	Count(ctx context.Context) (int, error)
	// UpdateExtractionResult moves a processing document to complete.
	// It is a no-op when the document already reached a terminal state.
	UpdateExtractionResult(ctx context.Context, documentID, textKey, textMetadataKey string, extractedAt time.Time) error
	// UpdateExtractionFailure moves a processing document to failed.
	// It is a no-op when the document already reached a terminal state.
	UpdateExtractionFailure(ctx context.Context, documentID, message string) error
}
