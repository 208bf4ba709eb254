package annotations

import "errors"

var (
	// ErrInvalidInput indicates a validation failure on caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCursor indicates a malformed pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrNotFound indicates the annotation does not exist.
	ErrNotFound = errors.New("annotation not found")
	// ErrDuplicateRange indicates another annotation already covers the
	// identical range for the same author.
	ErrDuplicateRange = errors.New("duplicate annotation for this range")
	// ErrForbidden indicates the requester is neither the author nor holds
	// the elevated role.
	ErrForbidden = errors.New("forbidden")
)
