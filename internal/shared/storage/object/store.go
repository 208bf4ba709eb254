package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the storage key does not exist. Callers rely on
// being able to tell a missing blob from any other storage failure.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	// Save writes raw upload bytes under the document's namespace and
	// returns the generated storage key, the byte count, and the sniffed
	// mime type.
	Save(ctx context.Context, documentID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey writes derived blobs (extracted text, metadata) at an
	// exact storage key.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	// Open reads a stored object. Missing keys yield ErrNotFound.
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
