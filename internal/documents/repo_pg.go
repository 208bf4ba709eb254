package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, title, owner_id, storage_key, mime_type, size_bytes, extraction_status,
text_key, text_metadata_key, text_extracted_at, extraction_error, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, title, owner_id, storage_key, mime_type, size_bytes,
    extraction_status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Title,
		doc.OwnerID,
		doc.StorageKey,
		doc.MimeType,
		doc.SizeBytes,
		doc.ExtractionStatus,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns documents ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Count returns the total number of documents.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateExtractionResult moves a processing document to complete. The status
// predicate makes the processing -> terminal transition happen at most once.
func (r *PGRepo) UpdateExtractionResult(ctx context.Context, documentID, textKey, textMetadataKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents
SET text_key = $1,
    text_metadata_key = $2,
    text_extracted_at = $3,
    extraction_status = $4,
    extraction_error = NULL,
    updated_at = now()
WHERE id = $5 AND extraction_status = $6`
	_, err := r.DB.ExecContext(ctx, query, textKey, textMetadataKey, extractedAt, StatusComplete, documentID, StatusProcessing)
	return err
}

// UpdateExtractionFailure moves a processing document to failed.
func (r *PGRepo) UpdateExtractionFailure(ctx context.Context, documentID, message string) error {
	const query = `
UPDATE documents
SET extraction_status = $1,
    extraction_error = $2,
    text_key = NULL,
    text_metadata_key = NULL,
    text_extracted_at = NULL,
    updated_at = now()
WHERE id = $3 AND extraction_status = $4`
	_, err := r.DB.ExecContext(ctx, query, StatusFailed, message, documentID, StatusProcessing)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var textKey sql.NullString
	var metaKey sql.NullString
	var extractedAt sql.NullTime
	var extractionError sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.OwnerID,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.ExtractionStatus,
		&textKey,
		&metaKey,
		&extractedAt,
		&extractionError,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if textKey.Valid {
		doc.TextKey = textKey.String
	}
	if metaKey.Valid {
		doc.TextMetadataKey = metaKey.String
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		doc.TextExtractedAt = &t
	}
	if extractionError.Valid {
		doc.ExtractionError = extractionError.String
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
