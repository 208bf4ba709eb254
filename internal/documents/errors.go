package documents

import "errors"

var (
	// ErrInvalidInput indicates a validation failure on caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("document not found")
)
