package annotations

import "context"

// AnnotationsRepo defines persistence operations for annotations.
//
// Create and Update must arbitrate range-hash uniqueness atomically: two
// concurrent writes of the same range hash yield exactly one success and one
// ErrDuplicateRange, decided by the store rather than an application lock.
type AnnotationsRepo interface {
	Create(ctx context.Context, a Annotation) error
	GetByID(ctx context.Context, id string) (Annotation, error)
	Update(ctx context.Context, a Annotation) error
	Delete(ctx context.Context, id string) error
	// ListByDocument returns up to limit annotations for a document with
	// ID strictly greater than afterID, ordered by ID ascending.
	ListByDocument(ctx context.Context, documentID, afterID string, limit int) ([]Annotation, error)
}
