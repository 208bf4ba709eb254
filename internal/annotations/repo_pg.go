package annotations

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements AnnotationsRepo using Postgres. The unique index on
// range_hash is the arbiter for concurrent duplicate-range writes.
type PGRepo struct {
	DB *sql.DB
}

const annotationColumns = `
id, document_id, user_id, selector_start, selector_end,
quote_exact, quote_prefix, quote_suffix, body, orphaned, range_hash,
created_at, updated_at`

// Create inserts a new annotation.
func (r *PGRepo) Create(ctx context.Context, a Annotation) error {
	const query = `
INSERT INTO annotations (
    id, document_id, user_id, selector_start, selector_end,
    quote_exact, quote_prefix, quote_suffix, body, orphaned, range_hash,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		a.ID,
		a.DocumentID,
		a.UserID,
		a.Selector.Start,
		a.Selector.End,
		a.Quote.Exact,
		a.Quote.Prefix,
		a.Quote.Suffix,
		a.Body,
		a.Orphaned,
		a.RangeHash,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateRange
	}
	return err
}

// GetByID fetches an annotation by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1 LIMIT 1`
	a, err := scanAnnotation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Annotation{}, ErrNotFound
		}
		return Annotation{}, err
	}
	return a, nil
}

// Update rewrites the mutable fields of an annotation.
func (r *PGRepo) Update(ctx context.Context, a Annotation) error {
	const query = `
UPDATE annotations
SET selector_start = $1,
    selector_end = $2,
    quote_exact = $3,
    quote_prefix = $4,
    quote_suffix = $5,
    body = $6,
    orphaned = $7,
    range_hash = $8,
    updated_at = $9
WHERE id = $10`

	res, err := r.DB.ExecContext(
		ctx,
		query,
		a.Selector.Start,
		a.Selector.End,
		a.Quote.Exact,
		a.Quote.Prefix,
		a.Quote.Suffix,
		a.Body,
		a.Orphaned,
		a.RangeHash,
		a.UpdatedAt,
		a.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateRange
	}
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an annotation permanently.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByDocument returns annotations for a document ordered by ID ascending,
// starting strictly after afterID.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID, afterID string, limit int) ([]Annotation, error) {
	if limit <= 0 {
		return []Annotation{}, nil
	}
	query := `SELECT ` + annotationColumns + `
FROM annotations
WHERE document_id = $1 AND id > $2
ORDER BY id ASC
LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, documentID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Annotation, 0, limit)
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (Annotation, error) {
	var a Annotation
	err := row.Scan(
		&a.ID,
		&a.DocumentID,
		&a.UserID,
		&a.Selector.Start,
		&a.Selector.End,
		&a.Quote.Exact,
		&a.Quote.Prefix,
		&a.Quote.Suffix,
		&a.Body,
		&a.Orphaned,
		&a.RangeHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return Annotation{}, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ AnnotationsRepo = (*PGRepo)(nil)
